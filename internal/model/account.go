package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Club subscription periodicities.  Club metadata is advisory: it is
// displayed to operators but never enters balance math.
const (
    ClubNone       = "NONE"
    ClubMonthly    = "MONTHLY"
    ClubQuarterly  = "QUARTERLY"
    ClubSemiannual = "SEMIANNUAL"
    ClubAnnual     = "ANNUAL"
)

// Account is a titular's enrollment in a loyalty program (a fidelity
// account).  Its point balance is never stored: it is always derived from
// the movement log of the account that effectively holds the ledger,
// which for LINKED programs is the same titular's account on the base
// program.
//
// Fields:
//  ID               – primary key identifier.
//  Titular          – owning client or managed account (exactly one).
//  ProgramID        – program the titular is enrolled in.
//  ClubPeriodicity  – subscription cycle of the program's points club.
//  ClubMonthlyPoints– points granted per month by the club.
//  ClubFee          – subscription fee per cycle.
//  ClubStartedOn    – start of the club subscription, if any.
//  ClubValidUntil   – end of the subscription validity window, if any.
//  CreatedAt        – creation timestamp.
type Account struct {
    ID                uint64          // accounts.id
    Titular           Titular         // accounts.client_id / accounts.managed_account_id
    ProgramID         uint64          // accounts.program_id
    ClubPeriodicity   string          // accounts.club_periodicity
    ClubMonthlyPoints int             // accounts.club_monthly_points
    ClubFee           decimal.Decimal // accounts.club_fee
    ClubStartedOn     *time.Time      // accounts.club_started_on (nullable)
    ClubValidUntil    *time.Time      // accounts.club_valid_until (nullable)
    CreatedAt         time.Time       // accounts.created_at
}

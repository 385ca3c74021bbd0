package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Redemption records a flight-ticket emission that consumes points from a
// titular's account on a program.  Saving a redemption projects at most
// one movement onto the resolved ledger account (see the redemption
// service); PointsUsed of zero retracts any previous projection.
//
// Fields:
//  ID             – primary key identifier.
//  Titular        – client or managed account the ticket was issued for.
//  ProgramID      – program whose points were consumed.
//  PointsUsed     – points debited from the ledger (0 = cash-only emission).
//  Fees           – boarding fees and taxes paid in cash.
//  CashPaid       – cash component paid by the titular.
//  ReferencePrice – full market price of the same ticket, for the economy
//                   figure shown to the titular.
//  DepartureDate  – outbound flight date; used as the projected movement
//                   date when present.
type Redemption struct {
    ID             uint64          // redemptions.id
    Titular        Titular         // redemptions.client_id / redemptions.managed_account_id
    ProgramID      uint64          // redemptions.program_id
    PointsUsed     int64           // redemptions.points_used
    Fees           decimal.Decimal // redemptions.fees
    CashPaid       decimal.Decimal // redemptions.cash_paid
    ReferencePrice decimal.Decimal // redemptions.reference_price
    DepartureDate  *time.Time      // redemptions.departure_date (nullable)
    CreatedAt      time.Time       // redemptions.created_at
}

// Passenger is a traveler on a redemption.  Only the CPF matters to the
// core: it is counted against the program's distinct-CPF limit.
type Passenger struct {
    ID           uint64 // passengers.id
    RedemptionID uint64 // passengers.redemption_id
    FullName     string // passengers.full_name
    CPF          string // passengers.cpf (raw, normalized on use)
}

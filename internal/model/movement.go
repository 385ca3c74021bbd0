package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Movement is one signed entry in an account's append-only point ledger.
// Positive points are credits (purchases, club stipends, incoming
// transfers); negative points are debits (redemptions, outgoing
// transfers).  AmountPaid follows the same sign convention for the cash
// side: positive money was spent acquiring points, negative money is
// attributed to a redemption.
//
// RedemptionID links the movement to the redemption that projected it.
// Projected movements are the only ones written by automated code; they
// are upserted by that key so that re-saving a redemption converges
// instead of accumulating duplicates.  Manual movements leave it nil.
type Movement struct {
    ID           uint64          // movements.id
    AccountID    uint64          // movements.account_id
    RedemptionID *uint64         // movements.redemption_id (nullable)
    Date         time.Time       // movements.movement_date
    Points       int64           // movements.points
    AmountPaid   decimal.Decimal // movements.amount_paid
    Description  string          // movements.description
}

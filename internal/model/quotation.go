package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Quotation statuses.
const (
    QuotePending  = "PENDING"
    QuoteAccepted = "ACCEPTED"
    QuoteRejected = "REJECTED"
    QuoteIssued   = "ISSUED"
)

// Quotation is a priced flight offer built from miles plus fees.  The
// derived fields (InstallmentPrice, CashPrice, Savings) are a cache of
// the pricing formula: they are recomputed on every save and never
// trusted as stored truth.
//
// InstallmentFactor and CashDiscountFactor are multipliers, not
// percentages: 1.13 means 13% interest, 0.95 means a 5% cash discount,
// 1.00 is neutral.
type Quotation struct {
    ID                 uint64          // quotations.id
    Titular            Titular         // quotations.client_id / quotations.managed_account_id
    ProgramID          *uint64         // quotations.program_id (nullable)
    Airline            string          // quotations.airline
    Origin             string          // quotations.origin (IATA code)
    Destination        string          // quotations.destination (IATA code)
    TravelClass        string          // quotations.travel_class
    Passengers         uint            // quotations.passengers
    DepartureAt        time.Time       // quotations.departure_at
    ReturnAt           *time.Time      // quotations.return_at (nullable)
    Miles              int64           // quotations.miles
    MarketMileValue    decimal.Decimal // quotations.market_mile_value
    Fees               decimal.Decimal // quotations.fees
    Installments       int             // quotations.installments
    InstallmentFactor  decimal.Decimal // quotations.installment_factor
    CashDiscountFactor decimal.Decimal // quotations.cash_discount_factor
    ReferencePrice     decimal.Decimal // quotations.reference_price
    InstallmentPrice   decimal.Decimal // quotations.installment_price (derived)
    CashPrice          decimal.Decimal // quotations.cash_price (derived)
    Savings            decimal.Decimal // quotations.savings (derived)
    Status             string          // quotations.status
    ValidUntil         *time.Time      // quotations.valid_until (nullable)
    CreatedAt          time.Time       // quotations.created_at
}

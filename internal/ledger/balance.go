package ledger

import (
    "github.com/shopspring/decimal"

    "github.com/aerotrip/miles-backoffice/internal/model"
)

var thousand = decimal.NewFromInt(1000)

// Balance returns the point balance derived from a movement list: the
// sum of all signed point deltas.  An empty list is a zero balance, not
// an error.
func Balance(movements []model.Movement) int64 {
    var total int64
    for _, m := range movements {
        total += m.Points
    }
    return total
}

// TotalPaid returns the net cash spent on the movements: positive
// amounts acquired points, negative amounts were attributed to
// redemptions.
func TotalPaid(movements []model.Movement) decimal.Decimal {
    total := decimal.Zero
    for _, m := range movements {
        total = total.Add(m.AmountPaid)
    }
    return total
}

// AverageCostPerThousand returns the weighted-average acquisition cost
// per 1,000 points over the whole movement history.  It is zero when the
// balance is not positive.
func AverageCostPerThousand(movements []model.Movement) decimal.Decimal {
    balance := Balance(movements)
    if balance <= 0 {
        return decimal.Zero
    }
    // totalPaid / (balance/1000), carried at high precision so repeated
    // derivations do not drift.
    return TotalPaid(movements).Mul(thousand).DivRound(decimal.NewFromInt(balance), 8)
}

// MarketValueEstimate values a balance at a program's market mile price
// ("milheiro").  For accounts on LINKED programs the balance is the
// shared base-account balance but the price must be the linked program's
// own AverageMilePrice: shared quantity, independent price.  The caller
// passes the program whose price applies.
func MarketValueEstimate(balance int64, program *model.Program) decimal.Decimal {
    return decimal.NewFromInt(balance).DivRound(thousand, 8).Mul(program.AverageMilePrice).Round(2)
}

// ProportionalCost returns the share of an account's average cost basis
// carried by the given number of points, rounded to currency precision.
// It is the cash amount moved alongside points in transfers and
// attributed to redemptions.
func ProportionalCost(points int64, avgCostPerThousand decimal.Decimal) decimal.Decimal {
    return decimal.NewFromInt(points).Mul(avgCostPerThousand).DivRound(thousand, 2)
}

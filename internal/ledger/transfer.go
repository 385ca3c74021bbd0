package ledger

import (
    "github.com/shopspring/decimal"

    "github.com/aerotrip/miles-backoffice/internal/model"
)

var hundred = decimal.NewFromInt(100)

// TransferPlan is the pair of movements a points transfer appends, as
// computed before anything is written.  The debit goes to the resolved
// source ledger account and the credit to the resolved destination
// ledger account; the cash cost moves unchanged while the point count
// grows by the bonus.
type TransferPlan struct {
    DebitPoints  int64           // negative
    CreditPoints int64           // positive, bonus applied
    Cost         decimal.Decimal // proportional share of the source cost basis
}

// PlanTransfer computes the arithmetic for moving points between ledger
// accounts at a percentage bonus.  sourceMovements is the resolved
// source account's full movement log: its balance bounds the transfer
// and its weighted-average cost prices it.  The credited point count is
// points*(1+bonusPercent/100) rounded half away from zero.
//
// Returns *InsufficientBalanceError when points exceed the source
// balance.  points must be positive; callers validate that at the form
// boundary.
func PlanTransfer(sourceMovements []model.Movement, points int64, bonusPercent decimal.Decimal) (TransferPlan, error) {
    available := Balance(sourceMovements)
    if points > available {
        return TransferPlan{}, &InsufficientBalanceError{Available: available}
    }
    bonusFactor := decimal.NewFromInt(1).Add(bonusPercent.Div(hundred))
    credited := decimal.NewFromInt(points).Mul(bonusFactor).Round(0).IntPart()
    return TransferPlan{
        DebitPoints:  -points,
        CreditPoints: credited,
        Cost:         ProportionalCost(points, AverageCostPerThousand(sourceMovements)),
    }, nil
}

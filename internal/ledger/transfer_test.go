package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerotrip/miles-backoffice/internal/model"
)

func TestPlanTransferWithBonus(t *testing.T) {
	source := []model.Movement{movement(10000, "305.00")}

	plan, err := PlanTransfer(source, 10000, dec("30"))
	require.NoError(t, err)

	assert.EqualValues(t, -10000, plan.DebitPoints)
	assert.EqualValues(t, 13000, plan.CreditPoints)
	assert.True(t, plan.Cost.Equal(dec("305.00")), "cost %s", plan.Cost)
}

func TestPlanTransferMovesCostNotValue(t *testing.T) {
	// Full transfer onto an existing position: the destination ends at
	// 18,000 points for R$405.00, i.e. R$22.50 per thousand.
	source := []model.Movement{movement(10000, "305.00")}
	destination := []model.Movement{movement(5000, "100.00")}

	plan, err := PlanTransfer(source, 10000, dec("30"))
	require.NoError(t, err)

	destination = append(destination, model.Movement{
		Points:     plan.CreditPoints,
		AmountPaid: plan.Cost,
	})
	source = append(source, model.Movement{
		Points:     plan.DebitPoints,
		AmountPaid: plan.Cost.Neg(),
	})

	assert.EqualValues(t, 18000, Balance(destination))
	assert.True(t, TotalPaid(destination).Equal(dec("405.00")))
	avg := AverageCostPerThousand(destination)
	assert.True(t, avg.Equal(dec("22.5")), "avg %s", avg)

	// The source is emptied of both points and cost basis.
	assert.EqualValues(t, 0, Balance(source))
	assert.True(t, TotalPaid(source).IsZero(), "source total %s", TotalPaid(source))
}

func TestPlanTransferPartialKeepsAverage(t *testing.T) {
	source := []model.Movement{movement(10000, "305.00")}

	plan, err := PlanTransfer(source, 4000, dec("0"))
	require.NoError(t, err)
	assert.EqualValues(t, 4000, plan.CreditPoints)
	assert.True(t, plan.Cost.Equal(dec("122.00")), "cost %s", plan.Cost)

	source = append(source, model.Movement{Points: plan.DebitPoints, AmountPaid: plan.Cost.Neg()})
	avg := AverageCostPerThousand(source)
	assert.True(t, avg.Equal(dec("30.5")), "avg %s", avg)
}

func TestPlanTransferRoundsCreditedPoints(t *testing.T) {
	source := []model.Movement{movement(1000, "30.00")}

	// 333 * 1.105 = 367.965 -> 368
	plan, err := PlanTransfer(source, 333, dec("10.5"))
	require.NoError(t, err)
	assert.EqualValues(t, 368, plan.CreditPoints)
}

func TestPlanTransferInsufficientBalance(t *testing.T) {
	source := []model.Movement{movement(10000, "305.00")}

	_, err := PlanTransfer(source, 10001, dec("0"))
	var insufficient *InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.EqualValues(t, 10000, insufficient.Available)
}

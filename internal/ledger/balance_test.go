package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerotrip/miles-backoffice/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func movement(points int64, paid string) model.Movement {
	return model.Movement{Points: points, AmountPaid: dec(paid)}
}

func TestBalanceEmptyLog(t *testing.T) {
	assert.EqualValues(t, 0, Balance(nil))
	assert.True(t, TotalPaid(nil).IsZero())
	assert.True(t, AverageCostPerThousand(nil).IsZero())
}

func TestBalanceSumsSignedPoints(t *testing.T) {
	log := []model.Movement{
		movement(10000, "305.00"),
		movement(-4000, "-122.00"),
		movement(2000, "61.00"),
	}
	assert.EqualValues(t, 8000, Balance(log))
	assert.True(t, TotalPaid(log).Equal(dec("244.00")), "got %s", TotalPaid(log))
}

func TestAverageCostPerThousand(t *testing.T) {
	log := []model.Movement{movement(10000, "305.00")}
	avg := AverageCostPerThousand(log)
	assert.True(t, avg.Equal(dec("30.5")), "got %s", avg)
}

func TestAverageCostZeroWhenBalanceNotPositive(t *testing.T) {
	drained := []model.Movement{
		movement(5000, "150.00"),
		movement(-5000, "-150.00"),
	}
	assert.True(t, AverageCostPerThousand(drained).IsZero())

	negative := []model.Movement{movement(-100, "0")}
	assert.True(t, AverageCostPerThousand(negative).IsZero())
}

func TestMarketValueUsesProgramOwnPrice(t *testing.T) {
	// A linked program prices the shared balance at its own milheiro,
	// not the base program's.
	linked := &model.Program{Kind: model.ProgramLinked, AverageMilePrice: dec("26.00")}
	value := MarketValueEstimate(12000, linked)
	assert.True(t, value.Equal(dec("312.00")), "got %s", value)
}

func TestMarketValueRoundsToCurrency(t *testing.T) {
	p := &model.Program{AverageMilePrice: dec("30.50")}
	value := MarketValueEstimate(1234, p)
	// 1.234 * 30.50 = 37.637 -> 37.64
	assert.True(t, value.Equal(dec("37.64")), "got %s", value)
}

func TestProportionalCost(t *testing.T) {
	cost := ProportionalCost(10000, dec("30.5"))
	require.True(t, cost.Equal(dec("305.00")), "got %s", cost)

	// 3333 * 30.5 / 1000 = 101.6565 -> 101.66
	rounded := ProportionalCost(3333, dec("30.5"))
	assert.True(t, rounded.Equal(dec("101.66")), "got %s", rounded)
}

package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeQuote(t *testing.T) {
	// 20,000 miles at R$30.00 per thousand plus R$50.00 fees:
	// base 650.00, installment 734.50, cash 697.78.
	pricing, err := ComputeQuote(20000, dec("30.00"), dec("50.00"),
		dec("1.13"), dec("0.95"), 10, dec("1200.00"))
	require.NoError(t, err)

	assert.True(t, pricing.InstallmentPrice.Equal(dec("734.50")), "installment %s", pricing.InstallmentPrice)
	assert.True(t, pricing.CashPrice.Equal(dec("697.78")), "cash %s", pricing.CashPrice)
	assert.True(t, pricing.Savings.Equal(dec("502.22")), "savings %s", pricing.Savings)
	assert.True(t, pricing.PerInstallment.Equal(dec("73.45")), "per installment %s", pricing.PerInstallment)
}

func TestComputeQuoteNeutralFactors(t *testing.T) {
	pricing, err := ComputeQuote(10000, dec("25.00"), dec("0"),
		dec("1.00"), dec("1.00"), 1, dec("250.00"))
	require.NoError(t, err)

	assert.True(t, pricing.InstallmentPrice.Equal(dec("250.00")))
	assert.True(t, pricing.CashPrice.Equal(dec("250.00")))
	assert.True(t, pricing.Savings.IsZero())
	assert.True(t, pricing.PerInstallment.Equal(dec("250.00")))
}

func TestComputeQuoteRoundsCashHalfUp(t *testing.T) {
	// 697.775 must round to 697.78, not truncate to 697.77.
	pricing, err := ComputeQuote(20000, dec("30.00"), dec("50.00"),
		dec("1.13"), dec("0.95"), 2, dec("0"))
	require.NoError(t, err)
	assert.True(t, pricing.CashPrice.Equal(dec("697.78")), "cash %s", pricing.CashPrice)
	assert.True(t, pricing.PerInstallment.Equal(dec("367.25")), "per installment %s", pricing.PerInstallment)
}

func TestComputeQuoteRejectsInvalidInstallments(t *testing.T) {
	_, err := ComputeQuote(10000, dec("25.00"), dec("0"),
		dec("1.00"), dec("1.00"), 0, dec("0"))
	assert.ErrorIs(t, err, ErrInvalidInstallments)
}

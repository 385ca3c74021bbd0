package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCPF(t *testing.T) {
	assert.Equal(t, "12345678909", NormalizeCPF("123.456.789-09"))
	assert.Equal(t, "12345678909", NormalizeCPF("12345678909"))
	assert.Equal(t, "", NormalizeCPF("   "))
	assert.Equal(t, "", NormalizeCPF("n/a"))
}

func TestNormalizeCPFSetDropsBlanksAndDuplicates(t *testing.T) {
	set := NormalizeCPFSet([]string{"111.111.111-11", "11111111111", "", "222"})
	assert.Len(t, set, 2)
	assert.Contains(t, set, "11111111111")
	assert.Contains(t, set, "222")
}

func TestValidateCPFUsageUnlimited(t *testing.T) {
	newCount, available, err := ValidateCPFUsage(nil, nil, []string{"111", "222", "333"})
	require.NoError(t, err)
	assert.Zero(t, newCount)
	assert.Nil(t, available)
}

func TestValidateCPFUsageRejectsOverLimit(t *testing.T) {
	limit := uint(2)
	used := map[string]struct{}{"111": {}, "222": {}}

	_, _, err := ValidateCPFUsage(&limit, used, []string{"222", "333"})
	var limitErr *CpfLimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 1, limitErr.NewCount)
	assert.Equal(t, 0, limitErr.Available)
}

func TestValidateCPFUsageAcceptsKnownCPFs(t *testing.T) {
	// A full program still accepts redemptions whose passengers are all
	// already counted.
	limit := uint(2)
	used := map[string]struct{}{"111": {}, "222": {}}

	newCount, available, err := ValidateCPFUsage(&limit, used, []string{"222"})
	require.NoError(t, err)
	assert.Equal(t, 0, newCount)
	require.NotNil(t, available)
	assert.Equal(t, 0, *available)
}

func TestValidateCPFUsageCountsDistinctNewCPFs(t *testing.T) {
	limit := uint(3)
	used := map[string]struct{}{"111": {}}

	newCount, available, err := ValidateCPFUsage(&limit, used, []string{"222", "22.2", "", "111"})
	require.NoError(t, err)
	assert.Equal(t, 1, newCount)
	require.NotNil(t, available)
	assert.Equal(t, 2, *available)
}

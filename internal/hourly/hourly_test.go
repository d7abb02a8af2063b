package hourly

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightleaf/glsync/internal/gl/domain"
)

func mustLoadLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func sampleTxns() []domain.Transaction {
	return []domain.Transaction{
		{
			TransactionType:          domain.TransactionRetail,
			TransactionDateLocalTime: "2026-01-06T09:00:00",
			Subtotal:                 decimal.NewFromInt(100),
			Tax:                      decimal.NewFromInt(8),
		},
		{
			TransactionType:          domain.TransactionRetail,
			TransactionDateLocalTime: "2026-01-07T14:00:00",
			Subtotal:                 decimal.NewFromInt(50),
			Tax:                      decimal.NewFromInt(4),
		},
	}
}

// TestAggregate_P2_Determinism covers P2: aggregating identical input
// twice produces byte-identical results.
func TestAggregate_P2_Determinism(t *testing.T) {
	tz := mustLoadLocation(t, "America/Chicago")
	txns := sampleTxns()

	first, err := Aggregate(txns, tz, "2026-01-06", "2026-01-07")
	require.NoError(t, err)
	second, err := Aggregate(txns, tz, "2026-01-06", "2026-01-07")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// TestAggregate_P3_LocalDayPartitioning covers P3: each transaction lands
// in exactly one reporting day's detailed bucket, and the per-day buckets
// sum back to the range-wide aggregated profile.
func TestAggregate_P3_LocalDayPartitioning(t *testing.T) {
	tz := mustLoadLocation(t, "America/Chicago")
	txns := sampleTxns()

	result, err := Aggregate(txns, tz, "2026-01-06", "2026-01-07")
	require.NoError(t, err)

	require.Len(t, result.Detailed, 2)
	require.Contains(t, result.Detailed, "2026-01-06")
	require.Contains(t, result.Detailed, "2026-01-07")

	var summedTransactions int
	var summedSales decimal.Decimal
	for hour := 0; hour < 24; hour++ {
		for _, day := range result.Detailed {
			summedTransactions += day[hour].Transactions
			summedSales = summedSales.Add(day[hour].Sales)
		}
		assert.Equal(t, result.Aggregated[hour].Transactions, sumDetailedHour(result, hour))
	}
	assert.Equal(t, len(txns), summedTransactions)
	assert.True(t, summedSales.Equal(decimal.NewFromInt(150)))
}

func sumDetailedHour(result Result, hour int) int {
	total := 0
	for _, day := range result.Detailed {
		total += day[hour].Transactions
	}
	return total
}

// TestAggregate_ExcludesOutOfRangeLocalDate ensures a transaction whose
// local date falls outside [start, end] contributes nothing, even though
// the caller's fetch window is padded wider than the reporting range.
func TestAggregate_ExcludesOutOfRangeLocalDate(t *testing.T) {
	tz := mustLoadLocation(t, "America/Chicago")
	txns := []domain.Transaction{
		{
			TransactionType:          domain.TransactionRetail,
			TransactionDateLocalTime: "2026-01-05T23:00:00",
			Subtotal:                 decimal.NewFromInt(999),
		},
	}

	result, err := Aggregate(txns, tz, "2026-01-06", "2026-01-07")
	require.NoError(t, err)
	assert.Empty(t, result.Detailed)
	for hour := 0; hour < 24; hour++ {
		assert.Equal(t, 0, result.Aggregated[hour].Transactions)
	}
}

package timeresolver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExtendedWindow_S5_ArizonaPDT covers S5: the padded window for a
// report date is fixed regardless of the store's timezone or DST state,
// one full calendar day either side of the report date.
func TestExtendedWindow_S5_ArizonaPDT(t *testing.T) {
	phoenix, err := LoadLocation("America/Phoenix")
	require.NoError(t, err)

	from, to, err := ExtendedWindow("2026-07-15", phoenix)
	require.NoError(t, err)
	assert.Equal(t, "2026-07-14T00:00:00Z", from.Format(time.RFC3339))
	assert.Equal(t, "2026-07-16T23:59:59Z", to.Format(time.RFC3339))
}

// TestLocalDate_S5_ArizonaPDT covers S5's two example transactions: one
// whose local timestamp falls on the report date despite a later UTC
// instant, and one a few hours later that rolls into the next local day.
func TestLocalDate_S5_ArizonaPDT(t *testing.T) {
	phoenix, err := LoadLocation("America/Phoenix")
	require.NoError(t, err)

	kept := TransactionTimes{
		TransactionDate:          mustParseRFC3339(t, "2026-07-16T03:00:00Z"),
		TransactionDateLocalTime: "2026-07-15T20:00:00",
	}
	assert.Equal(t, "2026-07-15", LocalDate(kept, phoenix))

	excluded := TransactionTimes{
		TransactionDate:          mustParseRFC3339(t, "2026-07-16T08:00:00Z"),
		TransactionDateLocalTime: "2026-07-16T01:00:00",
	}
	assert.Equal(t, "2026-07-16", LocalDate(excluded, phoenix))
}

// TestLocalDate_FallsBackToUTCConversion covers the no-local-timestamp
// fallback path, converting the UTC instant into the store's timezone.
func TestLocalDate_FallsBackToUTCConversion(t *testing.T) {
	phoenix, err := LoadLocation("America/Phoenix")
	require.NoError(t, err)

	txn := TransactionTimes{TransactionDate: mustParseRFC3339(t, "2026-07-16T03:00:00Z")}
	assert.Equal(t, "2026-07-15", LocalDate(txn, phoenix))
}

func mustParseRFC3339(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

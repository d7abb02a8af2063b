package jobs

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightleaf/glsync/internal/gl/domain"
	"github.com/brightleaf/glsync/internal/glerr"
	"github.com/brightleaf/glsync/internal/timeresolver"
)

func TestFilterToLocalDate_KeepsOnlyMatchingDay(t *testing.T) {
	tz, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	txns := []domain.Transaction{
		{TransactionID: "in-window", TransactionDateLocalTime: timeresolver.LocalDateTime("2026-07-30T10:00:00")},
		{TransactionID: "day-before", TransactionDateLocalTime: timeresolver.LocalDateTime("2026-07-29T23:59:00")},
		{TransactionID: "day-after", TransactionDateLocalTime: timeresolver.LocalDateTime("2026-07-31T00:01:00")},
	}

	out := filterToLocalDate(txns, tz, "2026-07-30")

	require.Len(t, out, 1)
	assert.Equal(t, "in-window", out[0].TransactionID)
}

func TestFilterToLocalDate_FallsBackToUTCWhenLocalTimeMissing(t *testing.T) {
	utc, err := time.LoadLocation("UTC")
	require.NoError(t, err)

	txns := []domain.Transaction{
		{TransactionID: "no-local-time", TransactionDate: time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)},
	}

	out := filterToLocalDate(txns, utc, "2026-07-30")
	require.Len(t, out, 1)
	assert.Equal(t, "no-local-time", out[0].TransactionID)
}

func TestDescribeFailures(t *testing.T) {
	assert.Equal(t, "", describeFailures(nil))

	failures := []glerr.StoreFailure{
		{Store: "store-1", Err: errors.New("timeout")},
		{Store: "store-2", Err: errors.New("bad api key")},
	}
	desc := describeFailures(failures)
	assert.Contains(t, desc, "store-1")
	assert.Contains(t, desc, "store-2")
	assert.Contains(t, desc, "; ")
}

func TestSevenDayStart(t *testing.T) {
	start, err := sevenDayStart("2026-07-30")
	require.NoError(t, err)
	assert.Equal(t, "2026-07-24", start)
}

func TestSevenDayStart_InvalidDate(t *testing.T) {
	_, err := sevenDayStart("not-a-date")
	assert.Error(t, err)
}

func TestDeps_ReportDate(t *testing.T) {
	fixed := fixedClock{now: time.Date(2026, 7, 31, 3, 0, 0, 0, time.UTC)}
	d := Deps{Clock: fixed}
	assert.Equal(t, "2026-07-30", d.reportDate())
}

type fixedClock struct{ now time.Time }

func (f fixedClock) Now() time.Time          { return f.now }
func (f fixedClock) Sleep(time.Duration)     {}

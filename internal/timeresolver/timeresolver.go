// Package timeresolver translates a report date and a store's IANA
// timezone into UTC fetch windows and local-date classifications. It is
// the one place DST and timezone-offset arithmetic happens; every other
// component works in either pure UTC or a LocalDate string.
package timeresolver

import (
	"fmt"
	"time"

	// tzdata embeds the IANA timezone database so LoadLocation works on
	// minimal container images without a system zoneinfo package.
	_ "time/tzdata"
)

const dateLayout = "2006-01-02"

// LocalDateTime is a transaction-local timestamp as emitted by the POS
// ("2006-01-02T15:04:05"). It never carries a time.Location, so it can
// never be accidentally reinterpreted as UTC.
type LocalDateTime string

// Date returns the date portion of a LocalDateTime, or "" if too short to
// contain one.
func (t LocalDateTime) Date() string {
	if len(t) < len(dateLayout) {
		return ""
	}
	return string(t[:len(dateLayout)])
}

// ExtendedWindow returns a conservative UTC window guaranteed to contain
// every transaction whose local date in tz equals d: one calendar day of
// padding on each side, independent of the store's exact offset or DST
// state. Callers filter precisely against the result after fetching.
func ExtendedWindow(d string, tz *time.Location) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, d, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("timeresolver: invalid date %q: %w", d, err)
	}
	from := day.AddDate(0, 0, -1)
	to := day.AddDate(0, 0, 1).Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	return from.UTC(), to.UTC(), nil
}

// LocalDayWindow returns the exact UTC window spanning local date d in tz,
// resolved through the timezone database so DST transitions are handled
// correctly without hardcoded offsets.
func LocalDayWindow(d string, tz *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(dateLayout, d, tz)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("timeresolver: invalid date %q: %w", d, err)
	}
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start.UTC(), end.UTC(), nil
}

// TransactionTimes is the minimal view of a transaction's time fields that
// LocalDate needs, kept narrow so callers do not have to import the
// GL domain package just to resolve a date.
type TransactionTimes struct {
	TransactionDateLocalTime LocalDateTime
	TransactionDate          time.Time
}

// LocalDate returns the local calendar date (YYYY-MM-DD) a transaction
// belongs to. It prefers the POS-reported local timestamp; if that is
// absent it falls back to converting the UTC transaction date into tz.
func LocalDate(txn TransactionTimes, tz *time.Location) string {
	if d := txn.TransactionDateLocalTime.Date(); d != "" {
		return d
	}
	return txn.TransactionDate.In(tz).Format(dateLayout)
}

// LoadLocation resolves an IANA timezone name, wrapping the stdlib error
// with enough context to identify which store's configuration is bad.
func LoadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timeresolver: unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

// Package hourly implements the hourly sales rollup (C6): bucketing a
// store's transactions into a 24-hour-UTC grid, both aggregated over a
// date range and broken out per reporting day.
package hourly

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brightleaf/glsync/internal/decimalutil"
	"github.com/brightleaf/glsync/internal/gl/domain"
	"github.com/brightleaf/glsync/internal/timeresolver"
)

// Bucket holds the sums for a single UTC hour.
type Bucket struct {
	Sales        decimal.Decimal
	Transactions int
	Discounts    decimal.Decimal
	Tax          decimal.Decimal
	Returns      decimal.Decimal
	NetSales     decimal.Decimal
}

func (b *Bucket) add(sales, discounts, tax, returns decimal.Decimal) {
	b.Sales = b.Sales.Add(sales)
	b.Discounts = b.Discounts.Add(discounts)
	b.Tax = b.Tax.Add(tax)
	b.Returns = b.Returns.Add(returns)
	b.Transactions++
	b.NetSales = b.Sales.Sub(b.Discounts).Sub(b.Returns)
}

// Profile is a 24-bucket grid indexed by UTC hour (0-23).
type Profile [24]Bucket

// Result is the output of Aggregate: a range-wide profile plus a
// per-reporting-day breakdown.
type Result struct {
	Aggregated Profile
	Detailed   map[string]*Profile // keyed by local reporting date
}

// DefaultEnd returns the default end date (start + 6 days) when the caller
// supplies only a range start.
func DefaultEnd(start string) (string, error) {
	t, err := time.Parse("2006-01-02", start)
	if err != nil {
		return "", fmt.Errorf("hourly: invalid start date %q: %w", start, err)
	}
	return t.AddDate(0, 0, 6).Format("2006-01-02"), nil
}

// Aggregate buckets txns (already fetched over a window that extends one
// day past end, per the Time Resolver's extended-window convention) into
// an hourly profile for the reporting range [start, end], inclusive, in
// the store's local time, bucketed by the equivalent UTC hour.
func Aggregate(txns []domain.Transaction, tz *time.Location, start, end string) (Result, error) {
	result := Result{Detailed: map[string]*Profile{}}

	for _, t := range txns {
		if t.IsVoid || t.TransactionType != domain.TransactionRetail || t.IsReturn {
			continue
		}

		localDate := timeresolver.LocalDate(timeresolver.TransactionTimes{
			TransactionDateLocalTime: t.TransactionDateLocalTime,
			TransactionDate:          t.TransactionDate,
		}, tz)
		if localDate < start || localDate > end {
			continue
		}

		utcHour, err := localHourToUTCHour(t, tz)
		if err != nil {
			return Result{}, err
		}

		returns := decimal.Zero
		for _, item := range t.Items {
			if item.IsReturned && (item.ReturnDate == "" || item.ReturnDate > localDate) {
				continue
			}
			if item.IsReturned {
				returns = returns.Add(item.TotalPrice)
			}
		}

		sales := decimalutil.Round(t.Subtotal)
		discounts := decimalutil.Round(t.TotalDiscount)
		tax := decimalutil.Round(t.Tax)
		returns = decimalutil.Round(returns)

		result.Aggregated[utcHour].add(sales, discounts, tax, returns)

		day, ok := result.Detailed[localDate]
		if !ok {
			day = &Profile{}
			result.Detailed[localDate] = day
		}
		day[utcHour].add(sales, discounts, tax, returns)
	}

	return result, nil
}

// localHourToUTCHour resolves the UTC hour a transaction's local wall-clock
// time falls in, via the timezone database so DST (and Arizona's lack of
// it) is handled without hardcoded offsets.
func localHourToUTCHour(t domain.Transaction, tz *time.Location) (int, error) {
	layout := "2006-01-02T15:04:05"
	raw := string(t.TransactionDateLocalTime)
	if raw == "" {
		return t.TransactionDate.In(tz).UTC().Hour(), nil
	}
	local, err := time.ParseInLocation(layout, raw, tz)
	if err != nil {
		return 0, fmt.Errorf("hourly: invalid local timestamp %q: %w", raw, err)
	}
	return local.UTC().Hour(), nil
}

package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

const periodKeyLayout = "2006-01-02"

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from a to b, ignoring the
// time-of-day component. Negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(dateOnly(b).Sub(dateOnly(a)).Hours() / 24)
}

// DaysPastDue is how many days today is past the due date, never negative.
func DaysPastDue(due, today time.Time) int {
	d := DaysBetween(due, today)
	if d < 0 {
		return 0
	}
	return d
}

func BeginningOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func BeginningOfNextMonth(t time.Time) time.Time {
	return BeginningOfMonth(t).AddDate(0, 1, 0)
}

// AddMonths steps by calendar months, not by a fixed 30-day interval.
func AddMonths(t time.Time, n int) time.Time {
	return t.AddDate(0, n, 0)
}

// PeriodKey is the canonical month identity for a rent obligation,
// "YYYY-MM-01".
func PeriodKey(t time.Time) string {
	return BeginningOfMonth(t).Format(periodKeyLayout)
}

func ParsePeriodKey(key string) (time.Time, error) {
	return time.Parse(periodKeyLayout, key)
}

// RoundMoney rounds to whole currency units, half away from zero. All
// schedule amounts are kept integral; sub-unit remainders are folded into the
// last installment.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, DaysBetween(date(2024, 3, 20), date(2024, 3, 20)))
	assert.Equal(t, 12, DaysBetween(date(2024, 3, 20), date(2024, 4, 1)))
	assert.Equal(t, -5, DaysBetween(date(2024, 3, 20), date(2024, 3, 15)))

	// time-of-day must not shift the day count
	a := time.Date(2024, 3, 20, 23, 30, 0, 0, time.UTC)
	b := time.Date(2024, 3, 21, 0, 15, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysBetween(a, b))
}

func TestAddMonthsIsCalendarStep(t *testing.T) {
	// calendar month increment, not a fixed 30-day step
	assert.Equal(t, date(2024, 2, 1), AddMonths(date(2024, 1, 1), 1))
	assert.Equal(t, date(2025, 1, 1), AddMonths(date(2024, 1, 1), 12))
	assert.Equal(t, date(2024, 3, 2), AddMonths(date(2024, 1, 31), 1)) // Feb overflow per AddDate
}

func TestPeriodKey(t *testing.T) {
	assert.Equal(t, "2024-05-01", PeriodKey(date(2024, 5, 17)))

	parsed, err := ParsePeriodKey("2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, date(2024, 5, 1), parsed)
}

func TestBeginningOfNextMonth(t *testing.T) {
	assert.Equal(t, date(2024, 4, 1), BeginningOfNextMonth(date(2024, 3, 20)))
	assert.Equal(t, date(2025, 1, 1), BeginningOfNextMonth(date(2024, 12, 31)))
}

func TestRoundMoney(t *testing.T) {
	assert.True(t, RoundMoney(decimal.RequireFromString("3333.33")).Equal(decimal.NewFromInt(3333)))
	assert.True(t, RoundMoney(decimal.RequireFromString("103.5")).Equal(decimal.NewFromInt(104)))
}

package billing

import (
	"time"

	"billing-engine/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DueDayOfMonth is the day rent obligations fall due in their month.
const DueDayOfMonth = 5

// ProrateGraceDays is how long after the join date the prorated first rent
// charge is due. This is the canonical policy; the alternative "5th of the
// following month" formula is rejected (DESIGN.md, decision 1).
const ProrateGraceDays = 5

// dailyRateTable maps known monthly rent amounts to their contracted daily
// rates. Amounts outside the table fall back to monthly/30, rounded.
var dailyRateTable = map[string]int64{
	"3000": 100,
	"3600": 120,
	"4500": 150,
}

var daysPerMonth = decimal.NewFromInt(30)

// DailyRateFor resolves the pro-ration daily rate for a monthly amount.
func DailyRateFor(monthly decimal.Decimal) decimal.Decimal {
	if rate, ok := dailyRateTable[monthly.String()]; ok {
		return decimal.NewFromInt(rate)
	}
	return RoundMoney(monthly.Div(daysPerMonth))
}

// GenerateInstallmentSchedule builds the obligations of a fixed-total
// deferred-payment plan. Each installment is the rounded even share of
// total - down; the last one absorbs the rounding remainder so the schedule
// sums to total - down exactly. Installment i falls due i calendar months
// after start.
func GenerateInstallmentSchedule(customerID string, total, down decimal.Decimal, count int, start time.Time) ([]domain.Obligation, error) {
	if count < 1 {
		return nil, &domain.ValidationError{Field: "count", Message: "installment count must be at least 1"}
	}
	financed := total.Sub(down)
	if !financed.IsPositive() {
		return nil, &domain.ValidationError{Field: "amount", Message: "total must exceed down payment"}
	}

	per := RoundMoney(financed.Div(decimal.NewFromInt(int64(count))))
	last := financed.Sub(per.Mul(decimal.NewFromInt(int64(count - 1))))

	schedule := make([]domain.Obligation, 0, count)
	for i := 1; i <= count; i++ {
		amount := per
		if i == count {
			amount = last
		}
		schedule = append(schedule, newObligation(
			customerID,
			domain.KindInstallment,
			decimal.NewFromInt(int64(i)).String(),
			amount,
			AddMonths(dateOnly(start), i),
		))
	}
	return schedule, nil
}

// RecurringOptions selects how far a rent schedule extends past the prorated
// first period: a fixed number of full months, or catch-up through the month
// of Through inclusive.
type RecurringOptions struct {
	CycleCount int
	Through    time.Time
}

// GenerateRecurringSchedule builds a rent schedule starting with the prorated
// partial period from joinDate to the first of the next month, then one full
// obligation per calendar month. It is a pure function: deduplication against
// already-persisted periods by (customerID, periodKey) is the caller's job.
func GenerateRecurringSchedule(customerID string, monthly decimal.Decimal, joinDate time.Time, opts RecurringOptions) ([]domain.Obligation, error) {
	if !monthly.IsPositive() {
		return nil, &domain.ValidationError{Field: "monthly_amount", Message: "monthly amount must be positive"}
	}

	join := dateOnly(joinDate)
	firstOfNext := BeginningOfNextMonth(join)

	rate := DailyRateFor(monthly)
	days := DaysBetween(join, firstOfNext)

	prorated := newObligation(
		customerID,
		domain.KindRent,
		PeriodKey(join),
		rate.Mul(decimal.NewFromInt(int64(days))),
		join.AddDate(0, 0, ProrateGraceDays),
	)
	prorated.IsProrated = true
	prorated.ProratedDays = days
	prorated.DailyRate = rate

	schedule := []domain.Obligation{prorated}

	months := opts.CycleCount
	if months <= 0 && !opts.Through.IsZero() {
		// catch-up: every month from the first full period through the
		// month of Through inclusive
		months = monthsBetween(firstOfNext, BeginningOfMonth(opts.Through)) + 1
	}

	for i := 0; i < months; i++ {
		month := AddMonths(firstOfNext, i)
		schedule = append(schedule, newObligation(
			customerID,
			domain.KindRent,
			PeriodKey(month),
			monthly,
			dueDateIn(month),
		))
	}
	return schedule, nil
}

// DueDateForPeriod is the due date of a full rent obligation in the given
// month: always the 5th.
func DueDateForPeriod(month time.Time) time.Time {
	return dueDateIn(month)
}

func dueDateIn(month time.Time) time.Time {
	return time.Date(month.Year(), month.Month(), DueDayOfMonth, 0, 0, 0, 0, time.UTC)
}

func monthsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	months := int(to.Month()) - int(from.Month())
	return years*12 + months
}

func newObligation(customerID string, kind domain.ObligationKind, label string, amount decimal.Decimal, due time.Time) domain.Obligation {
	return domain.Obligation{
		ID:              uuid.New(),
		CustomerID:      customerID,
		Kind:            kind,
		SequenceLabel:   label,
		Amount:          amount,
		DueDate:         due,
		PaidAmount:      decimal.Zero,
		RemainingAmount: amount,
		Status:          domain.StatusDue,
	}
}

package billing

import (
	"testing"

	"billing-engine/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEvaluateStatus(t *testing.T) {
	due := date(2024, 1, 5)
	amount := decimal.NewFromInt(3000)
	zero := decimal.Zero

	t.Run("paid wins regardless of dates", func(t *testing.T) {
		got := EvaluateStatus(amount, zero, due, date(2024, 6, 1), InstallmentGraceDays)
		assert.Equal(t, domain.StatusPaid, got)
	})

	t.Run("unpaid inside grace is due", func(t *testing.T) {
		got := EvaluateStatus(zero, amount, due, date(2024, 1, 10), InstallmentGraceDays)
		assert.Equal(t, domain.StatusDue, got)
	})

	t.Run("unpaid past grace is overdue", func(t *testing.T) {
		got := EvaluateStatus(zero, amount, due, date(2024, 1, 11), InstallmentGraceDays)
		assert.Equal(t, domain.StatusOverdue, got)
	})

	t.Run("partially paid inside grace is partial", func(t *testing.T) {
		got := EvaluateStatus(decimal.NewFromInt(1000), decimal.NewFromInt(2000), due, date(2024, 1, 8), InstallmentGraceDays)
		assert.Equal(t, domain.StatusPartial, got)
	})

	t.Run("partially paid past grace is overdue", func(t *testing.T) {
		got := EvaluateStatus(decimal.NewFromInt(1000), decimal.NewFromInt(2000), due, date(2024, 2, 1), InstallmentGraceDays)
		assert.Equal(t, domain.StatusOverdue, got)
	})
}

// Pins the canonical threshold policy: 5 days for installments and 10 days
// for rent, shared by plan-time evaluation and the overdue sweep.
func TestSweepUsesCanonicalThresholds(t *testing.T) {
	assert.Equal(t, 5, GraceDaysFor(domain.KindInstallment))
	assert.Equal(t, 10, GraceDaysFor(domain.KindRent))

	due := date(2024, 1, 5)
	amount := decimal.NewFromInt(3000)

	// day 10 past due: installment overdue, rent still inside grace
	today := date(2024, 1, 15)
	assert.Equal(t, domain.StatusOverdue,
		EvaluateStatus(decimal.Zero, amount, due, today, GraceDaysFor(domain.KindInstallment)))
	assert.Equal(t, domain.StatusDue,
		EvaluateStatus(decimal.Zero, amount, due, today, GraceDaysFor(domain.KindRent)))
}

func TestOverdueDays(t *testing.T) {
	due := date(2024, 1, 5)

	assert.Equal(t, 0, OverdueDays(due, date(2024, 1, 1), 5))
	assert.Equal(t, 0, OverdueDays(due, date(2024, 1, 10), 5)) // at the boundary
	assert.Equal(t, 1, OverdueDays(due, date(2024, 1, 11), 5))
	assert.Equal(t, 20, OverdueDays(due, date(2024, 1, 30), 5))
}

func TestOverdueDaysMonotonic(t *testing.T) {
	due := date(2024, 1, 5)
	prev := 0
	for day := 0; day < 40; day++ {
		got := OverdueDays(due, due.AddDate(0, 0, day), RentGraceDays)
		assert.GreaterOrEqual(t, got, prev, "day %d", day)
		prev = got
	}
}

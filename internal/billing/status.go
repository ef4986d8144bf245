package billing

import (
	"time"

	"billing-engine/internal/domain"

	"github.com/shopspring/decimal"
)

// Canonical grace periods. The overdue sweep and the plan-time evaluation use
// the same constants; see DESIGN.md for the resolution of the historical
// 1-day sweep threshold.
const (
	InstallmentGraceDays = 5
	RentGraceDays        = 10
)

func GraceDaysFor(kind domain.ObligationKind) int {
	if kind == domain.KindRent {
		return RentGraceDays
	}
	return InstallmentGraceDays
}

// EvaluateStatus maps amount and date state to a payment status.
func EvaluateStatus(paid, remaining decimal.Decimal, due, today time.Time, graceDays int) domain.ObligationStatus {
	if remaining.IsZero() || remaining.IsNegative() {
		return domain.StatusPaid
	}
	late := DaysPastDue(due, today) > graceDays
	if paid.IsPositive() {
		if late {
			return domain.StatusOverdue
		}
		return domain.StatusPartial
	}
	if late {
		return domain.StatusOverdue
	}
	return domain.StatusDue
}

// EvaluateObligation applies EvaluateStatus with the obligation's own kind
// threshold.
func EvaluateObligation(o domain.Obligation, today time.Time) domain.ObligationStatus {
	return EvaluateStatus(o.PaidAmount, o.RemainingAmount, o.DueDate, today, GraceDaysFor(o.Kind))
}

// OverdueDays is the count of days beyond the grace period, for display and
// reporting. Zero at or before the grace boundary, non-decreasing as today
// advances.
func OverdueDays(due, today time.Time, graceDays int) int {
	d := DaysPastDue(due, today) - graceDays
	if d < 0 {
		return 0
	}
	return d
}

package billing

import (
	"sort"
	"time"

	"billing-engine/internal/domain"

	"github.com/shopspring/decimal"
)

// Distribute allocates a payment across outstanding obligations. It filters
// to remaining > 0, orders each list by urgency (overdue and partial before
// due, then earliest due date) and consumes the amount greedily. With
// TargetAuto the installment list is satisfied before rent. Whatever cannot
// be applied is returned as Excess.
//
// Pure calculation: no I/O, inputs are not mutated.
func Distribute(amount decimal.Decimal, installments, rents []domain.Obligation, target domain.TargetKind, today time.Time) domain.Distribution {
	dist := domain.Distribution{
		Excess:         amount,
		TotalProcessed: decimal.Zero,
	}
	if !amount.IsPositive() {
		dist.Excess = amount
		return dist
	}

	remaining := amount
	if target == domain.TargetInstallment || target == domain.TargetAuto {
		dist.Installments, remaining = consume(remaining, installments, today)
	}
	if target == domain.TargetRent || target == domain.TargetAuto {
		dist.Rents, remaining = consume(remaining, rents, today)
	}

	dist.Excess = remaining
	dist.TotalProcessed = amount.Sub(remaining)
	return dist
}

func consume(amount decimal.Decimal, obligations []domain.Obligation, today time.Time) ([]domain.Allocation, decimal.Decimal) {
	if !amount.IsPositive() {
		return nil, amount
	}

	ordered := byPriority(obligations)
	var allocations []domain.Allocation
	for _, o := range ordered {
		if !amount.IsPositive() {
			break
		}
		pay := decimal.Min(amount, o.RemainingAmount)
		newPaid := o.PaidAmount.Add(pay)
		newRemaining := o.RemainingAmount.Sub(pay)

		allocations = append(allocations, domain.Allocation{
			ObligationID:  o.ID,
			Kind:          o.Kind,
			SequenceLabel: o.SequenceLabel,
			DueDate:       o.DueDate,
			Applied:       pay,
			NewPaid:       newPaid,
			NewRemaining:  newRemaining,
			PrevStatus:    o.Status,
			// status from the updated amounts, so a fully covered
			// obligation comes out paid even if it was overdue
			NewStatus: EvaluateStatus(newPaid, newRemaining, o.DueDate, today, GraceDaysFor(o.Kind)),
		})
		amount = amount.Sub(pay)
	}
	return allocations, amount
}

func byPriority(obligations []domain.Obligation) []domain.Obligation {
	eligible := make([]domain.Obligation, 0, len(obligations))
	for _, o := range obligations {
		if o.Outstanding() {
			eligible = append(eligible, o)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		ti, tj := urgencyTier(eligible[i].Status), urgencyTier(eligible[j].Status)
		if ti != tj {
			return ti < tj
		}
		return eligible[i].DueDate.Before(eligible[j].DueDate)
	})
	return eligible
}

func urgencyTier(s domain.ObligationStatus) int {
	if s == domain.StatusOverdue || s == domain.StatusPartial {
		return 0
	}
	return 1
}

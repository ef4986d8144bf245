package billing

import (
	"testing"
	"time"

	"billing-engine/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outstanding(kind domain.ObligationKind, amount, paid int64, due time.Time, status domain.ObligationStatus) domain.Obligation {
	a := decimal.NewFromInt(amount)
	p := decimal.NewFromInt(paid)
	return domain.Obligation{
		ID:              uuid.New(),
		CustomerID:      "cust",
		Kind:            kind,
		Amount:          a,
		DueDate:         due,
		PaidAmount:      p,
		RemainingAmount: a.Sub(p),
		Status:          status,
	}
}

func allocationSum(d domain.Distribution) decimal.Decimal {
	sum := decimal.Zero
	for _, a := range append(append([]domain.Allocation{}, d.Installments...), d.Rents...) {
		sum = sum.Add(a.Applied)
	}
	return sum
}

func TestDistributeAcrossTwoInstallments(t *testing.T) {
	today := date(2024, 2, 1)
	installments := []domain.Obligation{
		outstanding(domain.KindInstallment, 3333, 0, date(2024, 2, 1), domain.StatusDue),
		outstanding(domain.KindInstallment, 3333, 0, date(2024, 3, 1), domain.StatusDue),
	}

	dist := Distribute(decimal.NewFromInt(5000), installments, nil, domain.TargetInstallment, today)

	require.Len(t, dist.Installments, 2)
	assert.Empty(t, dist.Rents)

	first, second := dist.Installments[0], dist.Installments[1]
	assert.True(t, first.Applied.Equal(decimal.NewFromInt(3333)))
	assert.Equal(t, domain.StatusPaid, first.NewStatus)
	assert.True(t, first.NewRemaining.IsZero())

	assert.True(t, second.Applied.Equal(decimal.NewFromInt(1667)))
	assert.Equal(t, domain.StatusPartial, second.NewStatus)
	assert.True(t, second.NewRemaining.Equal(decimal.NewFromInt(1666)))

	assert.True(t, dist.Excess.IsZero())
	assert.True(t, dist.TotalProcessed.Equal(decimal.NewFromInt(5000)))
}

func TestDistributeConservation(t *testing.T) {
	today := date(2024, 5, 1)
	installments := []domain.Obligation{
		outstanding(domain.KindInstallment, 3333, 100, date(2024, 2, 1), domain.StatusPartial),
		outstanding(domain.KindInstallment, 3333, 0, date(2024, 3, 1), domain.StatusOverdue),
		outstanding(domain.KindInstallment, 3333, 0, date(2024, 6, 1), domain.StatusDue),
	}
	rents := []domain.Obligation{
		outstanding(domain.KindRent, 3000, 0, date(2024, 4, 5), domain.StatusOverdue),
		outstanding(domain.KindRent, 3000, 0, date(2024, 5, 5), domain.StatusDue),
	}

	for _, amount := range []int64{1, 2500, 7000, 15000, 100000} {
		dist := Distribute(decimal.NewFromInt(amount), installments, rents, domain.TargetAuto, today)
		total := allocationSum(dist).Add(dist.Excess)
		assert.True(t, total.Equal(decimal.NewFromInt(amount)), "amount=%d", amount)
		assert.True(t, dist.TotalProcessed.Equal(decimal.NewFromInt(amount).Sub(dist.Excess)))
	}
}

func TestDistributeStatusConsistency(t *testing.T) {
	today := date(2024, 5, 1)
	rents := []domain.Obligation{
		outstanding(domain.KindRent, 3000, 0, date(2024, 2, 5), domain.StatusOverdue),
		outstanding(domain.KindRent, 3000, 0, date(2024, 3, 5), domain.StatusOverdue),
	}

	dist := Distribute(decimal.NewFromInt(4000), nil, rents, domain.TargetRent, today)
	for _, a := range dist.Rents {
		if a.NewRemaining.IsZero() {
			assert.Equal(t, domain.StatusPaid, a.NewStatus)
		} else {
			assert.NotEqual(t, domain.StatusPaid, a.NewStatus)
		}
	}
	// a fully covered obligation is paid even though it was overdue
	assert.Equal(t, domain.StatusPaid, dist.Rents[0].NewStatus)
}

func TestDistributeUrgencyBeatsDueDate(t *testing.T) {
	today := date(2024, 5, 1)
	sameDay := date(2024, 4, 1)
	calm := outstanding(domain.KindInstallment, 2000, 0, sameDay, domain.StatusDue)
	urgent := outstanding(domain.KindInstallment, 2000, 500, sameDay, domain.StatusOverdue)

	// insufficient funds for both; the urgent one must win regardless of
	// input order
	dist := Distribute(decimal.NewFromInt(1000), []domain.Obligation{calm, urgent}, nil, domain.TargetInstallment, today)
	require.Len(t, dist.Installments, 1)
	assert.Equal(t, urgent.ID, dist.Installments[0].ObligationID)
}

func TestDistributeOrdersByDueDateWithinTier(t *testing.T) {
	today := date(2024, 6, 1)
	late := outstanding(domain.KindRent, 3000, 0, date(2024, 5, 5), domain.StatusDue)
	early := outstanding(domain.KindRent, 3000, 0, date(2024, 4, 5), domain.StatusDue)

	dist := Distribute(decimal.NewFromInt(3000), nil, []domain.Obligation{late, early}, domain.TargetRent, today)
	require.Len(t, dist.Rents, 1)
	assert.Equal(t, early.ID, dist.Rents[0].ObligationID)
}

func TestDistributeTargetKinds(t *testing.T) {
	today := date(2024, 5, 1)
	installments := []domain.Obligation{outstanding(domain.KindInstallment, 3000, 0, date(2024, 4, 1), domain.StatusDue)}
	rents := []domain.Obligation{outstanding(domain.KindRent, 3000, 0, date(2024, 4, 5), domain.StatusDue)}

	t.Run("installment only", func(t *testing.T) {
		dist := Distribute(decimal.NewFromInt(10000), installments, rents, domain.TargetInstallment, today)
		assert.Len(t, dist.Installments, 1)
		assert.Empty(t, dist.Rents)
		assert.True(t, dist.Excess.Equal(decimal.NewFromInt(7000)))
	})

	t.Run("rent only", func(t *testing.T) {
		dist := Distribute(decimal.NewFromInt(10000), installments, rents, domain.TargetRent, today)
		assert.Empty(t, dist.Installments)
		assert.Len(t, dist.Rents, 1)
		assert.True(t, dist.Excess.Equal(decimal.NewFromInt(7000)))
	})

	t.Run("auto satisfies installments first", func(t *testing.T) {
		dist := Distribute(decimal.NewFromInt(4000), installments, rents, domain.TargetAuto, today)
		require.Len(t, dist.Installments, 1)
		require.Len(t, dist.Rents, 1)
		assert.True(t, dist.Installments[0].Applied.Equal(decimal.NewFromInt(3000)))
		assert.True(t, dist.Rents[0].Applied.Equal(decimal.NewFromInt(1000)))
		assert.True(t, dist.Excess.IsZero())
	})
}

func TestDistributeSkipsSettledObligations(t *testing.T) {
	today := date(2024, 5, 1)
	settled := outstanding(domain.KindInstallment, 3000, 3000, date(2024, 4, 1), domain.StatusPaid)
	open := outstanding(domain.KindInstallment, 3000, 0, date(2024, 6, 1), domain.StatusDue)

	dist := Distribute(decimal.NewFromInt(1000), []domain.Obligation{settled, open}, nil, domain.TargetInstallment, today)
	require.Len(t, dist.Installments, 1)
	assert.Equal(t, open.ID, dist.Installments[0].ObligationID)
}

func TestDistributeNothingEligible(t *testing.T) {
	dist := Distribute(decimal.NewFromInt(500), nil, nil, domain.TargetAuto, date(2024, 5, 1))
	assert.True(t, dist.Empty())
	assert.True(t, dist.Excess.Equal(decimal.NewFromInt(500)))
	assert.True(t, dist.TotalProcessed.IsZero())
}

func TestDistributeDoesNotMutateInputs(t *testing.T) {
	today := date(2024, 5, 1)
	obligations := []domain.Obligation{
		outstanding(domain.KindInstallment, 3000, 0, date(2024, 4, 1), domain.StatusDue),
	}
	before := obligations[0]

	_ = Distribute(decimal.NewFromInt(3000), obligations, nil, domain.TargetInstallment, today)

	assert.True(t, obligations[0].PaidAmount.Equal(before.PaidAmount))
	assert.True(t, obligations[0].RemainingAmount.Equal(before.RemainingAmount))
	assert.Equal(t, before.Status, obligations[0].Status)
}

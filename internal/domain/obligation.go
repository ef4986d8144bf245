package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ObligationKind string

const (
	KindInstallment ObligationKind = "installment"
	KindRent        ObligationKind = "rent"
)

type ObligationStatus string

const (
	StatusDue     ObligationStatus = "due"
	StatusPartial ObligationStatus = "partial"
	StatusPaid    ObligationStatus = "paid"
	StatusOverdue ObligationStatus = "overdue"
)

// Obligation is one scheduled amount a customer owes: a single installment of
// a deferred-payment plan or one month of rent. Rows are never deleted; paid
// obligations stay as the audit trail.
//
// Invariants: RemainingAmount = Amount - PaidAmount, both non-negative;
// Status == paid exactly when RemainingAmount is zero.
type Obligation struct {
	ID         uuid.UUID      `json:"id"`
	CustomerID string         `json:"customer_id"`
	Kind       ObligationKind `json:"kind"`

	// SequenceLabel is the installment number ("1", "2", ...) for
	// installments and the billing-period key ("2024-05-01") for rent.
	SequenceLabel string `json:"sequence_label"`

	Amount          decimal.Decimal  `json:"amount"`
	DueDate         time.Time        `json:"due_date"`
	PaidAmount      decimal.Decimal  `json:"paid_amount"`
	RemainingAmount decimal.Decimal  `json:"remaining_amount"`
	Status          ObligationStatus `json:"status"`

	// Rent only: first-period pro-ration.
	IsProrated   bool            `json:"is_prorated,omitempty"`
	ProratedDays int             `json:"prorated_days,omitempty"`
	DailyRate    decimal.Decimal `json:"daily_rate,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o Obligation) Outstanding() bool {
	return o.RemainingAmount.IsPositive()
}

// RentSubscriber is an active rent customer together with the monthly amount
// taken from their most recent full (non-prorated) rent obligation. The
// scheduler uses it to generate the next period.
type RentSubscriber struct {
	CustomerID    string
	MonthlyAmount decimal.Decimal
}

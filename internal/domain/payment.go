package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TargetKind string

const (
	TargetInstallment TargetKind = "installment"
	TargetRent        TargetKind = "rent"
	TargetAuto        TargetKind = "auto"
)

func (t TargetKind) Valid() bool {
	switch t {
	case TargetInstallment, TargetRent, TargetAuto:
		return true
	}
	return false
}

// PaymentRequest is the transient input of the payment operation; it is not
// persisted as an entity.
type PaymentRequest struct {
	CustomerID    string
	Amount        decimal.Decimal
	TargetKind    TargetKind
	Mode          string
	Remarks       string
	EffectiveDate *time.Time
}

// Allocation is one obligation's share of a distributed payment.
type Allocation struct {
	ObligationID  uuid.UUID        `json:"obligation_id"`
	Kind          ObligationKind   `json:"kind"`
	SequenceLabel string           `json:"sequence_label"`
	DueDate       time.Time        `json:"due_date"`
	Applied       decimal.Decimal  `json:"applied"`
	NewPaid       decimal.Decimal  `json:"new_paid"`
	NewRemaining  decimal.Decimal  `json:"new_remaining"`
	PrevStatus    ObligationStatus `json:"prev_status"`
	NewStatus     ObligationStatus `json:"new_status"`
}

// Distribution is the pure calculation result of splitting a payment across
// outstanding obligations. Conservation holds: the sum of all allocation
// amounts plus Excess equals the original payment amount.
type Distribution struct {
	Installments   []Allocation
	Rents          []Allocation
	Excess         decimal.Decimal
	TotalProcessed decimal.Decimal
}

func (d Distribution) Empty() bool {
	return len(d.Installments) == 0 && len(d.Rents) == 0
}

// PaymentResult is what the orchestrator returns after the distribution has
// been applied to storage.
type PaymentResult struct {
	CustomerID     string          `json:"customer_id"`
	Installments   []Allocation    `json:"installment_allocations"`
	Rents          []Allocation    `json:"rent_allocations"`
	Excess         decimal.Decimal `json:"excess"`
	TotalProcessed decimal.Decimal `json:"total_processed"`
	TransactionIDs []uuid.UUID     `json:"transaction_ids"`
}

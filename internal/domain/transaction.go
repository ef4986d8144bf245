package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionKind string

const (
	TxInstallment TransactionKind = "installment"
	TxRent        TransactionKind = "rent"
	TxDeposit     TransactionKind = "deposit"
)

// TransactionRecord is an append-only audit row: one per obligation touched by
// a payment, plus one deposit row when a payment overflows into credit.
// Records are immutable once written.
type TransactionRecord struct {
	ID           uuid.UUID
	CustomerID   string
	Amount       decimal.Decimal
	ObligationID *uuid.UUID
	Kind         TransactionKind
	Status       string
	OccurredAt   time.Time
	Remarks      string
}

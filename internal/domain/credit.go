package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditBalance is the standing credit a customer has accumulated from
// payments that exceeded their outstanding obligations. Never negative.
type CreditBalance struct {
	CustomerID string
	Balance    decimal.Decimal
	UpdatedAt  time.Time
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentPlanRequest creates a fixed-total deferred-payment plan split
// into Count monthly installments starting one month after StartDate.
type InstallmentPlanRequest struct {
	CustomerID  string
	TotalAmount decimal.Decimal
	DownPayment decimal.Decimal
	Count       int
	StartDate   time.Time
}

// RentPlanRequest enrolls a customer into monthly rent billing from JoinDate.
// CycleCount > 0 generates that many full months up front; zero means
// catch-up: generate every period from the join month through the current
// month inclusive.
type RentPlanRequest struct {
	CustomerID    string
	MonthlyAmount decimal.Decimal
	JoinDate      time.Time
	CycleCount    int
}

// DuesObligation is an outstanding obligation decorated with its current
// overdue-days count for display.
type DuesObligation struct {
	Obligation
	OverdueDays int `json:"overdue_days"`
}

// DuesSummary is the customer-facing view of everything currently owed.
type DuesSummary struct {
	CustomerID       string           `json:"customer_id"`
	Installments     []DuesObligation `json:"installments"`
	Rents            []DuesObligation `json:"rents"`
	TotalOutstanding decimal.Decimal  `json:"total_outstanding"`
	CreditBalance    decimal.Decimal  `json:"credit_balance"`
	GeneratedAt      time.Time        `json:"generated_at"`
}

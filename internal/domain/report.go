package domain

import "time"

// CustomerError is one customer's failure inside a batch job. Batch jobs
// collect these and keep going; they never abort the whole pass.
type CustomerError struct {
	CustomerID string `json:"customer_id"`
	Step       string `json:"step"`
	Message    string `json:"message"`
}

// DailyRunReport is what a single scheduler invocation returns.
type DailyRunReport struct {
	RunDate                 time.Time       `json:"run_date"`
	AlreadyRan              bool            `json:"already_ran"`
	GeneratedCount          int             `json:"generated_count"`
	OverdueRentCount        int             `json:"overdue_rent_count"`
	OverdueInstallmentCount int             `json:"overdue_installment_count"`
	AffectedCustomerCount   int             `json:"affected_customer_count"`
	Errors                  []CustomerError `json:"errors"`
}

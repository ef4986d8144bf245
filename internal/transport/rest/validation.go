package rest

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"time"

	"billing-engine/internal/domain"

	"github.com/shopspring/decimal"
)

type rawPaymentRequest struct {
	CustomerID    string      `json:"customer_id"`
	Amount        interface{} `json:"amount"`
	TargetKind    string      `json:"target_kind"`
	Mode          string      `json:"mode"`
	Remarks       string      `json:"remarks"`
	EffectiveDate interface{} `json:"effective_date"`
}

// ValidatePaymentRequest parses and validates JSON input for a payment.
// Amounts arrive as JSON numbers or strings; strings survive round-tripping
// through clients that would mangle large numbers.
func ValidatePaymentRequest(r *http.Request) (*domain.PaymentRequest, error) {
	var raw rawPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && err != io.EOF {
		return nil, err
	}

	if raw.CustomerID == "" {
		return nil, &domain.ValidationError{Field: "customer_id", Message: "customer_id is required"}
	}

	amount, err := toDecimal(raw.Amount, "amount")
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, &domain.ValidationError{Field: "amount", Message: "amount must be a positive number"}
	}

	target := domain.TargetKind(raw.TargetKind)
	if target != "" && !target.Valid() {
		return nil, &domain.ValidationError{Field: "target_kind", Message: "target_kind must be installment, rent or auto"}
	}

	effective, err := toDatePtr(raw.EffectiveDate, "effective_date")
	if err != nil {
		return nil, err
	}

	return &domain.PaymentRequest{
		CustomerID:    raw.CustomerID,
		Amount:        amount,
		TargetKind:    target,
		Mode:          raw.Mode,
		Remarks:       raw.Remarks,
		EffectiveDate: effective,
	}, nil
}

type rawInstallmentPlanRequest struct {
	CustomerID  string      `json:"customer_id"`
	TotalAmount interface{} `json:"total_amount"`
	DownPayment interface{} `json:"down_payment"`
	Count       interface{} `json:"count"`
	StartDate   interface{} `json:"start_date"`
}

func ValidateInstallmentPlanRequest(r *http.Request) (*domain.InstallmentPlanRequest, error) {
	var raw rawInstallmentPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && err != io.EOF {
		return nil, err
	}

	if raw.CustomerID == "" {
		return nil, &domain.ValidationError{Field: "customer_id", Message: "customer_id is required"}
	}

	total, err := toDecimal(raw.TotalAmount, "total_amount")
	if err != nil {
		return nil, err
	}
	down, err := toDecimal(raw.DownPayment, "down_payment")
	if err != nil {
		return nil, err
	}
	if down.IsNegative() {
		return nil, &domain.ValidationError{Field: "down_payment", Message: "down_payment must not be negative"}
	}

	count, err := toInt(raw.Count, "count")
	if err != nil {
		return nil, err
	}
	if count < 1 {
		return nil, &domain.ValidationError{Field: "count", Message: "count must be at least 1"}
	}

	start, err := toDatePtr(raw.StartDate, "start_date")
	if err != nil {
		return nil, err
	}

	req := &domain.InstallmentPlanRequest{
		CustomerID:  raw.CustomerID,
		TotalAmount: total,
		DownPayment: down,
		Count:       count,
	}
	if start != nil {
		req.StartDate = *start
	}
	return req, nil
}

type rawRentPlanRequest struct {
	CustomerID    string      `json:"customer_id"`
	MonthlyAmount interface{} `json:"monthly_amount"`
	JoinDate      interface{} `json:"join_date"`
	CycleCount    interface{} `json:"cycle_count"`
}

func ValidateRentPlanRequest(r *http.Request) (*domain.RentPlanRequest, error) {
	var raw rawRentPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && err != io.EOF {
		return nil, err
	}

	if raw.CustomerID == "" {
		return nil, &domain.ValidationError{Field: "customer_id", Message: "customer_id is required"}
	}

	monthly, err := toDecimal(raw.MonthlyAmount, "monthly_amount")
	if err != nil {
		return nil, err
	}
	if !monthly.IsPositive() {
		return nil, &domain.ValidationError{Field: "monthly_amount", Message: "monthly_amount must be a positive number"}
	}

	join, err := toDatePtr(raw.JoinDate, "join_date")
	if err != nil {
		return nil, err
	}
	if join == nil {
		return nil, &domain.ValidationError{Field: "join_date", Message: "join_date is required"}
	}

	cycles, err := toInt(raw.CycleCount, "cycle_count")
	if err != nil {
		return nil, err
	}

	return &domain.RentPlanRequest{
		CustomerID:    raw.CustomerID,
		MonthlyAmount: monthly,
		JoinDate:      *join,
		CycleCount:    cycles,
	}, nil
}

func toDecimal(v interface{}, field string) (decimal.Decimal, error) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, nil
	case float64:
		return decimal.NewFromFloat(t), nil
	case string:
		if t == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(t)
		if err != nil {
			return decimal.Zero, &domain.ValidationError{Field: field, Message: field + " must be a number"}
		}
		return d, nil
	default:
		return decimal.Zero, &domain.ValidationError{Field: field, Message: field + " must be a number"}
	}
}

func toInt(v interface{}, field string) (int, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case float64:
		if t != math.Trunc(t) {
			return 0, &domain.ValidationError{Field: field, Message: field + " must be an integer"}
		}
		return int(t), nil
	default:
		return 0, &domain.ValidationError{Field: field, Message: field + " must be an integer"}
	}
}

func toDatePtr(v interface{}, field string) (*time.Time, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		if t == "" {
			return nil, nil
		}
		parsed, err := time.Parse("2006-01-02", t)
		if err != nil {
			return nil, &domain.ValidationError{Field: field, Message: field + " must be YYYY-MM-DD or empty"}
		}
		return &parsed, nil
	default:
		return nil, &domain.ValidationError{Field: field, Message: field + " must be YYYY-MM-DD or empty"}
	}
}

package rest

import (
	"errors"
	"net/http"

	"billing-engine/internal/domain"
)

func (h *Handler) createInstallmentPlan(w http.ResponseWriter, r *http.Request) {
	req, err := ValidateInstallmentPlanRequest(r)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			ErrorBadRequest(w, vErr.Error())
			return
		}
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	schedule, err := h.plans.CreateInstallmentPlan(r.Context(), *req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	SuccessCreated(w, "installment plan created", map[string]interface{}{
		"customer_id": req.CustomerID,
		"obligations": schedule,
	})
}

func (h *Handler) createRentPlan(w http.ResponseWriter, r *http.Request) {
	req, err := ValidateRentPlanRequest(r)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			ErrorBadRequest(w, vErr.Error())
			return
		}
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	created, err := h.plans.CreateRentPlan(r.Context(), *req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	SuccessCreated(w, "rent plan created", map[string]interface{}{
		"customer_id": req.CustomerID,
		"obligations": created,
	})
}

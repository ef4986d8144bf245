package rest

import (
	"errors"
	"net/http"

	"billing-engine/internal/domain"
)

func (h *Handler) processPayment(w http.ResponseWriter, r *http.Request) {
	req, err := ValidatePaymentRequest(r)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			ErrorBadRequest(w, vErr.Error())
			return
		}
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	result, err := h.payments.ProcessPayment(r.Context(), *req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	Success(w, "payment processed", result)
}

package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) getDues(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customer_id")
	if customerID == "" {
		ErrorBadRequest(w, "customer_id is required")
		return
	}

	summary, err := h.dues.Summary(r.Context(), customerID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	Success(w, "dues summary", summary)
}

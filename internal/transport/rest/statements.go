package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"billing-engine/internal/domain"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) startStatement(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customer_id")
	if customerID == "" {
		ErrorBadRequest(w, "customer_id is required")
		return
	}

	// optional column selection; an empty body means the full set
	var body struct {
		Fields []string `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err != io.EOF {
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	statementID, err := h.statements.StartStatement(r.Context(), customerID, body.Fields)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	SuccessAccepted(w, "statement queued", map[string]interface{}{"statement_id": statementID})
}

func (h *Handler) getStatement(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customer_id")
	statementID := chi.URLParam(r, "statement_id")
	if customerID == "" || statementID == "" {
		ErrorBadRequest(w, "customer_id and statement_id are required")
		return
	}
	// statement keys carry the "statements:" prefix; accept bare uuids too
	if !strings.HasPrefix(statementID, "statements:") {
		statementID = "statements:" + statementID
	}

	statement, err := h.statements.GetStatement(r.Context(), statementID, customerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			ErrorNotFound(w, "statement not found")
			return
		}
		h.writeServiceError(w, err)
		return
	}

	Success(w, "statement status", statement)
}

func (h *Handler) listStatements(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customer_id")
	if customerID == "" {
		ErrorBadRequest(w, "customer_id is required")
		return
	}

	statements, err := h.statements.ListStatements(r.Context(), customerID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	Success(w, "statements", map[string]interface{}{"statements": statements})
}

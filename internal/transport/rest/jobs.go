package rest

import "net/http"

// runDaily exposes the daily billing job for external cron setups. The job is
// idempotent, so double triggering (in-process cron plus this endpoint) only
// costs a marker lookup.
func (h *Handler) runDaily(w http.ResponseWriter, r *http.Request) {
	report, err := h.scheduler.RunDaily(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	if report.AlreadyRan {
		Success(w, "daily billing already ran today", report)
		return
	}
	Success(w, "daily billing finished", report)
}

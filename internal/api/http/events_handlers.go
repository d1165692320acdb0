package http

import (
	"net/http"

	"github.com/darasahub/darasa/internal/audit"
)

// GET /events?after=0&limit=100  (admin)
// Tail of the lifecycle event log, for sync and diagnostics.
func ListEventsHandler(logStore *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		after := parseInt64Default(r.URL.Query().Get("after"), 0)
		limit := parseIntDefault(r.URL.Query().Get("limit"), 100)
		events, err := logStore.Since(r.Context(), after, limit)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/voyago-ai/flight-concierge/internal/middleware"
	"github.com/voyago-ai/flight-concierge/pkg/logger"
)

// writeJSON writes a JSON response. Encode failures after the header is
// sent cannot be reported to the client, only logged.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Global().Error("failed to encode response", "error", err)
	}
}

// writeError writes a JSON error response, echoing the request's
// correlation id so clients can quote it in support reports.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	body := map[string]string{"error": message}
	if cid := middleware.GetCorrelationID(r.Context()); cid != "" {
		body["correlation_id"] = cid
	}
	writeJSON(w, status, body)
}

package api

import (
	"encoding/json"
	"net/http"

	"github.com/coursepilot/coursepilot/internal/log"
)

// ErrorResponse is the JSON body of every non-2xx response. Error is a
// stable machine-readable code; Message is for humans.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON encodes data as the response body. Once the status line is out an
// encoding failure can no longer reach the client, so it is only logged.
func writeJSON(logger log.Logger, w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response body", "error", err)
	}
}

// writeError writes a JSON error response with the given code and message.
func writeError(logger log.Logger, w http.ResponseWriter, status int, code, message string) {
	writeJSON(logger, w, status, ErrorResponse{Error: code, Message: message})
}

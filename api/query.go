package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/coursepilot/coursepilot/internal/agent"
	"github.com/coursepilot/coursepilot/internal/llm"
	"github.com/coursepilot/coursepilot/internal/log"
	"github.com/coursepilot/coursepilot/internal/session"
	"github.com/coursepilot/coursepilot/internal/tools"
)

// QueryHandler answers user questions over HTTP.
type QueryHandler struct {
	orc      *agent.Orchestrator
	sessions *session.Store
	logger   log.Logger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(orc *agent.Orchestrator, sessions *session.Store, logger log.Logger) *QueryHandler {
	return &QueryHandler{orc: orc, sessions: sessions, logger: logger}
}

// RegisterRoutes registers query routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/query", h.query)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.clearSession)
}

// QueryRequest is the body of POST /api/query. SessionID is optional; a
// missing one mints a fresh session whose ID comes back in the response.
type QueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// QueryResponse is the body of a successful POST /api/query.
type QueryResponse struct {
	Answer    string         `json:"answer"`
	Sources   []tools.Source `json:"sources"`
	SessionID string         `json:"session_id"`
}

func (h *QueryHandler) query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(h.logger, w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}
	if req.Query == "" {
		writeError(h.logger, w, http.StatusBadRequest, "invalid_request", "query must not be empty")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	answer, err := h.orc.Answer(r.Context(), sessionID, req.Query)
	if err != nil {
		h.writeQueryError(w, r, err)
		return
	}

	sources := answer.Sources
	if sources == nil {
		sources = []tools.Source{}
	}
	writeJSON(h.logger, w, http.StatusOK, QueryResponse{
		Answer:    answer.Text,
		Sources:   sources,
		SessionID: sessionID,
	})
}

// writeQueryError maps orchestrator failures to HTTP statuses: client
// mistakes to 400, upstream model failures to 502, the rest to 500.
func (h *QueryHandler) writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, agent.ErrEmptyQuery), errors.Is(err, agent.ErrEmptySessionID):
		writeError(h.logger, w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		if ee, ok := llm.AsEndpointError(err); ok {
			h.logger.Error("model endpoint failure",
				"kind", ee.Kind.String(),
				"path", r.URL.Path,
				"error", err)
			writeError(h.logger, w, http.StatusBadGateway, ee.Kind.String(), ee.Kind.UserMessage())
			return
		}
		h.logger.Error("query failed", "path", r.URL.Path, "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "internal_error", "query could not be processed")
	}
}

// clearSession drops a conversation's history. Clearing an unknown session
// succeeds; the outcome is the same either way.
func (h *QueryHandler) clearSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(h.logger, w, http.StatusBadRequest, "invalid_request", "session id is required")
		return
	}
	h.sessions.Clear(id)
	w.WriteHeader(http.StatusNoContent)
}

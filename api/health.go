package api

import (
	"net/http"

	"github.com/coursepilot/coursepilot/internal/log"
	"github.com/coursepilot/coursepilot/internal/vectorstore"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	store  *vectorstore.Store
	logger log.Logger
}

// NewHealthHandler creates a new health handler.
// store is the vector index used for readiness checks.
func NewHealthHandler(store *vectorstore.Store, logger log.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

// RegisterRoutes registers health routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.liveness)
	mux.HandleFunc("GET /ready", h.readiness)
}

// liveness is a liveness probe endpoint.
// Returns 200 OK if the process is alive.
func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readiness is a readiness probe endpoint.
// Returns 200 OK when the vector index is open and answering.
func (h *HealthHandler) readiness(w http.ResponseWriter, _ *http.Request) {
	if h.store == nil {
		http.Error(w, "vector store not configured", http.StatusServiceUnavailable)
		return
	}
	// Count touches both collections' state without network or model calls.
	_ = h.store.CourseCount()
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

package api

import (
	"errors"
	"net/http"

	"github.com/coursepilot/coursepilot/internal/log"
	"github.com/coursepilot/coursepilot/internal/vectorstore"
)

// CoursesHandler exposes the course index over HTTP.
type CoursesHandler struct {
	store  *vectorstore.Store
	logger log.Logger
}

// NewCoursesHandler creates a new courses handler.
func NewCoursesHandler(store *vectorstore.Store, logger log.Logger) *CoursesHandler {
	return &CoursesHandler{store: store, logger: logger}
}

// RegisterRoutes registers course routes on the given mux.
func (h *CoursesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/courses", h.stats)
	mux.HandleFunc("GET /api/courses/{title}/outline", h.outline)
	mux.HandleFunc("DELETE /api/courses/{title}", h.deleteCourse)
}

// StatsResponse is the body of GET /api/courses.
type StatsResponse struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

func (h *CoursesHandler) stats(w http.ResponseWriter, r *http.Request) {
	titles, err := h.store.CourseTitles(r.Context())
	if err != nil {
		h.logger.Error("failed to list courses", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "internal_error", "could not list courses")
		return
	}
	if titles == nil {
		titles = []string{}
	}
	writeJSON(h.logger, w, http.StatusOK, StatsResponse{
		TotalCourses: len(titles),
		CourseTitles: titles,
	})
}

func (h *CoursesHandler) outline(w http.ResponseWriter, r *http.Request) {
	title := r.PathValue("title")
	outline, err := h.store.Outline(r.Context(), title)
	if err != nil {
		if errors.Is(err, vectorstore.ErrCourseNotFound) {
			writeError(h.logger, w, http.StatusNotFound, "not_found", "no such course")
			return
		}
		h.logger.Error("failed to load outline", "course", title, "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "internal_error", "could not load outline")
		return
	}
	writeJSON(h.logger, w, http.StatusOK, outline)
}

func (h *CoursesHandler) deleteCourse(w http.ResponseWriter, r *http.Request) {
	title := r.PathValue("title")
	if err := h.store.DeleteCourse(r.Context(), title); err != nil {
		if errors.Is(err, vectorstore.ErrCourseNotFound) {
			writeError(h.logger, w, http.StatusNotFound, "not_found", "no such course")
			return
		}
		h.logger.Error("failed to delete course", "course", title, "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "internal_error", "could not delete course")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

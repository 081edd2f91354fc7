package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/course-advisor/internal/service"
)

// CourseHandler serves the public, read-only catalog.
type CourseHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

// NewCourseHandler creates a CourseHandler.
func NewCourseHandler(catalog *service.CatalogService, logger *slog.Logger) *CourseHandler {
	return &CourseHandler{catalog: catalog, logger: logger}
}

// HandleList returns every course ordered by code.
//
// HTTP: GET /api/courses
func (h *CourseHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	courses, err := h.catalog.ListCourses(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, courses)
}

// HandleGet returns one course. The code is case-insensitive.
//
// HTTP: GET /api/courses/{code}
func (h *CourseHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	course, err := h.catalog.GetCourse(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, course)
}

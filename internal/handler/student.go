package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/course-advisor/internal/apperror"
	"github.com/sakif/course-advisor/internal/auth"
	"github.com/sakif/course-advisor/internal/model"
	"github.com/sakif/course-advisor/internal/service"
)

// StudentHandler serves the caller's own record. Every route sits behind
// auth.RequireAuth.
type StudentHandler struct {
	accounts *service.AccountService
	catalog  *service.CatalogService
	logger   *slog.Logger
}

// NewStudentHandler creates a StudentHandler.
func NewStudentHandler(accounts *service.AccountService, catalog *service.CatalogService, logger *slog.Logger) *StudentHandler {
	return &StudentHandler{accounts: accounts, catalog: catalog, logger: logger}
}

// currentUser loads the stored account of the authenticated caller.
func (h *StudentHandler) currentUser(r *http.Request) (*model.User, error) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return nil, apperror.Unauthorized("valid authentication required")
	}
	return h.accounts.GetUser(r.Context(), id.Email)
}

// HandleMe returns the caller's account. The password digest is never
// serialised.
//
// HTTP: GET /api/me
func (h *StudentHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, user)
}

// HandleListCompleted resolves the caller's completed codes to courses.
//
// HTTP: GET /api/me/completed
func (h *StudentHandler) HandleListCompleted(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	courses, err := h.catalog.CompletedCourses(r.Context(), *user)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, courses)
}

type addCompletedRequest struct {
	Code string `json:"code"`
}

type addCompletedResponse struct {
	User  *model.User `json:"user"`
	Added bool        `json:"added"`
}

// HandleAddCompleted records a course as completed by the caller.
//
// HTTP: POST /api/me/completed {"code": "CSCI100"}
//
// Responds 201 when the list changed and 200 when the course was already
// there.
func (h *StudentHandler) HandleAddCompleted(w http.ResponseWriter, r *http.Request) {
	var req addCompletedRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	fresh, added, err := h.accounts.AddCompletedCourse(r.Context(), *user, req.Code)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, h.logger, status, addCompletedResponse{User: fresh, Added: added})
}

// HandleEligibility reports whether the caller can take a course.
//
// HTTP: GET /api/courses/{code}/eligibility
func (h *StudentHandler) HandleEligibility(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.catalog.CheckEligibility(r.Context(), *user, chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if result.Missing == nil {
		result.Missing = []string{}
	}
	writeJSON(w, h.logger, http.StatusOK, result)
}

package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/course-advisor/internal/apperror"
	"github.com/sakif/course-advisor/internal/catalog"
	"github.com/sakif/course-advisor/internal/model"
	"github.com/sakif/course-advisor/internal/service"
)

// AdminHandler serves account management and catalog maintenance. Every
// route sits behind auth.RequireAuth and auth.RequireAdmin.
type AdminHandler struct {
	accounts *service.AccountService
	catalog  *service.CatalogService
	logger   *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(accounts *service.AccountService, catalog *service.CatalogService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{accounts: accounts, catalog: catalog, logger: logger}
}

// HandleListUsers returns the listing view of every account.
//
// HTTP: GET /api/admin/users
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, users)
}

type createUserResponse struct {
	Email   string `json:"email"`
	Role    string `json:"role"`
	Warning string `json:"warning,omitempty"`
}

// HandleCreateUser creates an account.
//
// HTTP: POST /api/admin/users {"name","surname","email","password","role"}
//
// An unrecognised role is saved as student and flagged in "warning".
func (h *AdminHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in service.NewUserInput
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.accounts.CreateUser(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := createUserResponse{Email: user.Email, Role: user.Role.String()}
	if _, ok := model.ParseRole(in.Role); !ok {
		resp.Warning = "Role not valid, saving as student!"
	}
	writeJSON(w, h.logger, http.StatusCreated, resp)
}

type clearResponse struct {
	Removed int64 `json:"removed"`
}

// HandleClearCourses empties the catalog.
//
// HTTP: DELETE /api/admin/courses
func (h *AdminHandler) HandleClearCourses(w http.ResponseWriter, r *http.Request) {
	n, err := h.catalog.ClearCourses(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, clearResponse{Removed: n})
}

// importResponse is catalog.Report on the wire.
type importResponse struct {
	DryRun   bool     `json:"dryRun"`
	Read     int      `json:"read"`
	Accepted int      `json:"accepted"`
	Skipped  []string `json:"skipped"`
	Warnings []string `json:"warnings"`
}

func newImportResponse(report catalog.Report, dryRun bool) importResponse {
	resp := importResponse{
		DryRun:   dryRun,
		Read:     report.Read,
		Accepted: report.Accepted,
		Skipped:  make([]string, 0, len(report.Skipped)),
		Warnings: make([]string, 0, len(report.Warnings)),
	}
	for _, issue := range report.Skipped {
		resp.Skipped = append(resp.Skipped, issue.String())
	}
	for _, issue := range report.Warnings {
		resp.Warnings = append(resp.Warnings, issue.String())
	}
	return resp
}

// HandleImport loads a JSON catalog from the request body with the same
// rules as the JSON file loader.
//
// HTTP: POST /api/admin/courses/import[?dryRun=true]
//
// With dryRun the body is only validated and the report returned.
func (h *AdminHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	dryRun := false
	if v := r.URL.Query().Get("dryRun"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, h.logger, apperror.ValidationFailed("dryRun", "dryRun must be true or false"))
			return
		}
		dryRun = parsed
	}

	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	report, err := h.catalog.ImportJSONFrom(r.Context(), body, dryRun)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	if !dryRun && report.Accepted > 0 {
		status = http.StatusCreated
	}
	writeJSON(w, h.logger, status, newImportResponse(report, dryRun))
}

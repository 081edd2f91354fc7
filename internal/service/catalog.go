// Package service holds the business rules of the advisor. It sits between
// the front ends and the persistence gateway:
//
//	console.Session / handler.* → CatalogService, AccountService → repository.*
//
// Services accept and return domain values (model.Course, model.User) and
// domain errors (apperror). They know nothing about HTTP, terminals or SQL, so
// the menu client and the JSON API share one implementation.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sakif/course-advisor/internal/apperror"
	"github.com/sakif/course-advisor/internal/catalog"
	"github.com/sakif/course-advisor/internal/model"
	"github.com/sakif/course-advisor/internal/repository"
)

// CatalogService reads the course catalog and runs the ingestion pipeline
// against the course store.
type CatalogService struct {
	courses repository.CourseRepository
	loader  *catalog.Loader
	logger  *slog.Logger
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(courses repository.CourseRepository, loader *catalog.Loader, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		courses: courses,
		loader:  loader,
		logger:  logger,
	}
}

// Eligibility is the answer to "can this student take that course?".
type Eligibility struct {
	Course  model.Course `json:"course"`
	Missing []string     `json:"missing"`
	CanTake bool         `json:"canTake"`
}

// GetCourse returns the course with the given code. The code is normalised
// first, so "csci100 " finds CSCI100.
func (s *CatalogService) GetCourse(ctx context.Context, code string) (*model.Course, error) {
	code = model.NormalizeCode(code)
	if code == "" {
		return nil, apperror.ValidationFailed("code", "course code is required")
	}

	course, err := s.courses.GetCourse(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: getting course %s: %w", code, err)
	}
	return course, nil
}

// ListCourses returns the whole catalog in ascending code order.
func (s *CatalogService) ListCourses(ctx context.Context) ([]model.Course, error) {
	courses, err := s.courses.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: listing courses: %w", err)
	}
	return courses, nil
}

// ImportCSV loads a CSV catalog with the strict loader and inserts every
// course. Nothing is inserted if the file fails validation. Codes already in
// the store are reported as skipped.
func (s *CatalogService) ImportCSV(ctx context.Context, path string) (catalog.Report, error) {
	courses, err := s.loader.LoadCSV(path)
	if err != nil {
		return catalog.Report{}, err
	}

	report := catalog.Report{Read: len(courses)}
	for _, c := range courses {
		if err := s.courses.InsertCourse(ctx, c); err != nil {
			if errors.Is(err, apperror.ErrConflict) {
				report.Skipped = append(report.Skipped, catalog.Issue{Code: c.Code, Reason: "course already exists"})
				continue
			}
			return report, fmt.Errorf("service/catalog: inserting course %s: %w", c.Code, err)
		}
		report.Accepted++
	}

	s.logger.Info("CSV catalog imported",
		slog.String("path", path),
		slog.Int("inserted", report.Accepted),
		slog.Int("skipped", len(report.Skipped)),
	)
	return report, nil
}

// ImportJSON streams a JSON catalog file into the course store.
func (s *CatalogService) ImportJSON(ctx context.Context, path string) (catalog.Report, error) {
	report, err := s.loader.LoadJSON(ctx, path, s.courses)
	if err != nil {
		return report, err
	}

	s.logger.Info("JSON catalog imported",
		slog.String("path", path),
		slog.Int("inserted", report.Accepted),
		slog.Int("skipped", len(report.Skipped)),
		slog.Int("warnings", len(report.Warnings)),
	)
	return report, nil
}

// ImportJSONFrom reads a JSON catalog from r. With dryRun set the records are
// validated against an in-memory sink and the store is left untouched.
func (s *CatalogService) ImportJSONFrom(ctx context.Context, r io.Reader, dryRun bool) (catalog.Report, error) {
	var sink catalog.Sink = s.courses
	if dryRun {
		sink = &catalog.MemorySink{}
	}

	report, err := s.loader.ReadJSON(ctx, r, sink)
	if err != nil {
		return report, err
	}

	s.logger.Info("JSON catalog received",
		slog.Bool("dryRun", dryRun),
		slog.Int("accepted", report.Accepted),
		slog.Int("skipped", len(report.Skipped)),
	)
	return report, nil
}

// ConvertCSVToJSON rewrites a CSV catalog as a JSON catalog on disk. The store
// is not touched.
func (s *CatalogService) ConvertCSVToJSON(src, dst string) (catalog.Report, error) {
	return s.loader.ConvertCSVToJSON(src, dst)
}

// ClearCourses empties the catalog and returns how many courses were removed.
func (s *CatalogService) ClearCourses(ctx context.Context) (int64, error) {
	n, err := s.courses.ClearCourses(ctx)
	if err != nil {
		return 0, fmt.Errorf("service/catalog: clearing courses: %w", err)
	}
	s.logger.Info("catalog cleared", slog.Int64("removed", n))
	return n, nil
}

// CheckEligibility reports whether user has completed every prerequisite of
// the course with the given code.
func (s *CatalogService) CheckEligibility(ctx context.Context, user model.User, code string) (Eligibility, error) {
	course, err := s.GetCourse(ctx, code)
	if err != nil {
		return Eligibility{}, err
	}

	missing := course.MissingPrerequisites(user.CompletedCourses)
	return Eligibility{
		Course:  *course,
		Missing: missing,
		CanTake: len(missing) == 0,
	}, nil
}

// CompletedCourses resolves the user's completed codes to catalog entries in
// the order they were added. A code that is no longer in the catalog comes
// back with an empty title.
func (s *CatalogService) CompletedCourses(ctx context.Context, user model.User) ([]model.Course, error) {
	out := make([]model.Course, 0, len(user.CompletedCourses))
	for _, code := range user.CompletedCourses {
		course, err := s.courses.GetCourse(ctx, code)
		switch {
		case errors.Is(err, apperror.ErrNotFound):
			out = append(out, model.NewCourse(code, ""))
		case err != nil:
			return nil, fmt.Errorf("service/catalog: resolving completed course %s: %w", code, err)
		default:
			out = append(out, *course)
		}
	}
	return out, nil
}

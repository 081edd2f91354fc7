// Package repository declares the persistence gateway the services depend on.
// internal/repository/sqlite is the production implementation; service tests
// use in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/course-advisor/internal/model"
)

// CourseRepository stores the catalog. Courses are keyed by code and never
// edited in place; the only removal is a catalog-wide clear.
type CourseRepository interface {
	// InsertCourse returns an apperror.ErrConflict error if the code exists.
	InsertCourse(ctx context.Context, course model.Course) error
	// GetCourse returns an apperror.ErrNotFound error for unknown codes.
	GetCourse(ctx context.Context, code string) (*model.Course, error)
	// ListCourses returns every course ordered by code, ascending.
	ListCourses(ctx context.Context) ([]model.Course, error)
	// ClearCourses deletes every course and reports how many were removed.
	ClearCourses(ctx context.Context) (int64, error)
}

// UserRepository stores accounts keyed by email.
type UserRepository interface {
	// InsertUser returns an apperror.ErrConflict error if the email exists.
	InsertUser(ctx context.Context, user *model.User) error
	// GetUserByEmail returns an apperror.ErrNotFound error for unknown emails.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdateCompletedCourses replaces the completed list and reports whether
	// the stored value changed.
	UpdateCompletedCourses(ctx context.Context, email string, codes []string) (bool, error)
	// ListUsers returns every account's listing view, ordered by email.
	ListUsers(ctx context.Context) ([]model.UserSummary, error)
}

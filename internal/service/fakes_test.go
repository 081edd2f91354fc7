package service

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/sakif/course-advisor/internal/apperror"
	"github.com/sakif/course-advisor/internal/auth"
	"github.com/sakif/course-advisor/internal/catalog"
	"github.com/sakif/course-advisor/internal/model"
	"github.com/sakif/course-advisor/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeCourseRepo is an in-memory repository.CourseRepository.
type fakeCourseRepo struct {
	mu      sync.Mutex
	courses map[string]model.Course
	// set to a non-nil error to simulate a database failure
	insertErr error
	getErr    error
}

var _ repository.CourseRepository = (*fakeCourseRepo)(nil)

func newFakeCourseRepo(courses ...model.Course) *fakeCourseRepo {
	f := &fakeCourseRepo{courses: make(map[string]model.Course)}
	for _, c := range courses {
		f.courses[c.Code] = c
	}
	return f
}

func (f *fakeCourseRepo) InsertCourse(_ context.Context, c model.Course) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, ok := f.courses[c.Code]; ok {
		return apperror.Conflict("course", c.Code)
	}
	f.courses[c.Code] = c
	return nil
}

func (f *fakeCourseRepo) GetCourse(_ context.Context, code string) (*model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	c, ok := f.courses[code]
	if !ok {
		return nil, apperror.NotFound("course", code)
	}
	return &c, nil
}

func (f *fakeCourseRepo) ListCourses(context.Context) ([]model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Course, 0, len(f.courses))
	for _, c := range f.courses {
		out = append(out, c)
	}
	model.SortByCode(out)
	return out, nil
}

func (f *fakeCourseRepo) ClearCourses(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.courses))
	f.courses = make(map[string]model.Course)
	return n, nil
}

// fakeUserRepo is an in-memory repository.UserRepository keyed by email.
type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]model.User
	nextID int
	// counts calls so tests can check the re-fetch after a write
	gets      int
	insertErr error
	updateErr error
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]model.User), nextID: 1}
}

func (f *fakeUserRepo) InsertUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, ok := f.users[u.Email]; ok {
		return apperror.Conflict("user", u.Email)
	}
	u.ID = "user-" + strconv.Itoa(f.nextID)
	f.nextID++
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	stored := *u
	stored.CompletedCourses = slices.Clone(u.CompletedCourses)
	f.users[u.Email] = stored
	return nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	u, ok := f.users[email]
	if !ok {
		return nil, apperror.NotFound("user", email)
	}
	u.CompletedCourses = slices.Clone(u.CompletedCourses)
	return &u, nil
}

func (f *fakeUserRepo) UpdateCompletedCourses(_ context.Context, email string, codes []string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return false, f.updateErr
	}
	u, ok := f.users[email]
	if !ok {
		return false, apperror.NotFound("user", email)
	}
	if slices.Equal(u.CompletedCourses, codes) {
		return false, nil
	}
	u.CompletedCourses = slices.Clone(codes)
	u.UpdatedAt = time.Now()
	f.users[email] = u
	return true, nil
}

func (f *fakeUserRepo) ListUsers(context.Context) ([]model.UserSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.UserSummary, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// abcuCourses is a small slice of the ABCU catalog.
func abcuCourses() []model.Course {
	return []model.Course{
		model.NewCourse("CSCI100", "Introduction to Computer Science"),
		model.NewCourse("CSCI101", "Introduction to Programming in C++", "CSCI100"),
		model.NewCourse("CSCI200", "Data Structures", "CSCI101"),
		model.NewCourse("MATH201", "Discrete Mathematics"),
		model.NewCourse("CSCI300", "Introduction to Algorithms", "CSCI200", "MATH201"),
	}
}

func newTestCatalogService(t *testing.T, repo *fakeCourseRepo) *CatalogService {
	t.Helper()
	logger := discardLogger()
	return NewCatalogService(repo, catalog.NewLoader(logger), logger)
}

// newTestAccountService wires an AccountService with fakes, a cost-4 hasher
// and a throwaway JWT secret.
func newTestAccountService(t *testing.T, users *fakeUserRepo, courses *fakeCourseRepo) *AccountService {
	t.Helper()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return NewAccountService(users, courses, auth.NewPasswordServiceWithCost(4), ts, discardLogger())
}

package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/sakif/course-advisor/internal/apperror"
	"github.com/sakif/course-advisor/internal/auth"
	"github.com/sakif/course-advisor/internal/model"
)

func createStudent(t *testing.T, svc *AccountService, email string) *model.User {
	t.Helper()
	u, err := svc.CreateUser(context.Background(), NewUserInput{
		Name: "Test", Surname: "Student", Email: email, Password: "s3cret", Role: "student",
	})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return u
}

// =========================================================================
// CreateUser TESTS
// =========================================================================

func TestCreateUser_HashesPassword(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAccountService(t, users, newFakeCourseRepo())

	u, err := svc.CreateUser(context.Background(), NewUserInput{
		Name: " Ada ", Surname: "Lovelace", Email: " ada@abcu.edu ", Password: "hunter2", Role: "Admin",
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if u.Email != "ada@abcu.edu" || u.Name != "Ada" {
		t.Errorf("user = %+v, want trimmed name and email", u)
	}
	if u.Role != model.RoleAdmin {
		t.Errorf("Role = %q, want admin", u.Role)
	}
	if u.PasswordHash == "hunter2" || !strings.HasPrefix(u.PasswordHash, "$2") {
		t.Errorf("PasswordHash = %q, want a bcrypt digest", u.PasswordHash)
	}
	if !svc.VerifyPassword(*u, "hunter2") {
		t.Error("VerifyPassword() = false for the original password")
	}
	if u.CompletedCourses == nil || len(u.CompletedCourses) != 0 {
		t.Errorf("CompletedCourses = %#v, want empty", u.CompletedCourses)
	}
}

func TestCreateUser_InvalidRoleSavedAsStudent(t *testing.T) {
	svc := newTestAccountService(t, newFakeUserRepo(), newFakeCourseRepo())

	u, err := svc.CreateUser(context.Background(), NewUserInput{
		Email: "bob@abcu.edu", Password: "pw", Role: "superuser",
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if u.Role != model.RoleStudent {
		t.Errorf("Role = %q, want student", u.Role)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAccountService(t, users, newFakeCourseRepo())
	createStudent(t, svc, "dup@abcu.edu")

	_, err := svc.CreateUser(context.Background(), NewUserInput{Email: "dup@abcu.edu", Password: "other"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("CreateUser() duplicate error = %v, want ErrConflict", err)
	}

	stored, _ := users.GetUserByEmail(context.Background(), "dup@abcu.edu")
	if !svc.VerifyPassword(*stored, "s3cret") {
		t.Error("duplicate CreateUser() overwrote the existing account")
	}
}

func TestCreateUser_Validation(t *testing.T) {
	svc := newTestAccountService(t, newFakeUserRepo(), newFakeCourseRepo())

	tests := []struct {
		name string
		in   NewUserInput
	}{
		{"empty email", NewUserInput{Email: "  ", Password: "pw"}},
		{"empty password", NewUserInput{Email: "x@abcu.edu"}},
		{"password too long", NewUserInput{Email: "x@abcu.edu", Password: strings.Repeat("a", 73)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUser(context.Background(), tt.in)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("CreateUser() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestCreateUser_RepositoryError(t *testing.T) {
	users := newFakeUserRepo()
	users.insertErr = errors.New("database is on fire")
	svc := newTestAccountService(t, users, newFakeCourseRepo())

	if _, err := svc.CreateUser(context.Background(), NewUserInput{Email: "a@b.c", Password: "pw"}); err == nil {
		t.Fatal("CreateUser() should propagate repository errors")
	}
}

// =========================================================================
// Authenticate TESTS
// =========================================================================

func TestAuthenticate(t *testing.T) {
	svc := newTestAccountService(t, newFakeUserRepo(), newFakeCourseRepo())
	createStudent(t, svc, "stu@abcu.edu")

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"correct credentials", "stu@abcu.edu", "s3cret", nil},
		{"email is trimmed", "  stu@abcu.edu ", "s3cret", nil},
		{"unknown user", "ghost@abcu.edu", "s3cret", apperror.ErrNotFound},
		{"wrong password", "stu@abcu.edu", "nope", apperror.ErrUnauthorized},
		{"empty password", "stu@abcu.edu", "", apperror.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := svc.Authenticate(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Authenticate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if u.Email != "stu@abcu.edu" {
				t.Errorf("Email = %q", u.Email)
			}
		})
	}
}

// =========================================================================
// AddCompletedCourse TESTS
// =========================================================================

func TestAddCompletedCourse_RefetchesStoredUser(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAccountService(t, users, newFakeCourseRepo(abcuCourses()...))
	u := createStudent(t, svc, "stu@abcu.edu")

	getsBefore := users.gets
	fresh, added, err := svc.AddCompletedCourse(context.Background(), *u, " csci100 ")
	if err != nil {
		t.Fatalf("AddCompletedCourse() error = %v", err)
	}

	if !added {
		t.Error("added = false on first add")
	}
	if !slices.Equal(fresh.CompletedCourses, []string{"CSCI100"}) {
		t.Errorf("CompletedCourses = %v, want [CSCI100]", fresh.CompletedCourses)
	}
	if users.gets-getsBefore < 2 {
		t.Errorf("user read %d times, want a load and a reload", users.gets-getsBefore)
	}
	if len(u.CompletedCourses) != 0 {
		t.Error("caller's snapshot was mutated")
	}
}

func TestAddCompletedCourse_Twice(t *testing.T) {
	svc := newTestAccountService(t, newFakeUserRepo(), newFakeCourseRepo(abcuCourses()...))
	u := createStudent(t, svc, "stu@abcu.edu")
	ctx := context.Background()

	u, _, err := svc.AddCompletedCourse(ctx, *u, "CSCI100")
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	u, added, err := svc.AddCompletedCourse(ctx, *u, "CSCI100")
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if added {
		t.Error("added = true for a course already completed")
	}
	if !slices.Equal(u.CompletedCourses, []string{"CSCI100"}) {
		t.Errorf("CompletedCourses = %v, want a single CSCI100", u.CompletedCourses)
	}
}

func TestAddCompletedCourse_StaleSnapshotKeepsStoredCodes(t *testing.T) {
	svc := newTestAccountService(t, newFakeUserRepo(), newFakeCourseRepo(abcuCourses()...))
	stale := createStudent(t, svc, "stu@abcu.edu")
	ctx := context.Background()

	if _, _, err := svc.AddCompletedCourse(ctx, *stale, "CSCI100"); err != nil {
		t.Fatal(err)
	}
	u, _, err := svc.AddCompletedCourse(ctx, *stale, "MATH201")
	if err != nil {
		t.Fatal(err)
	}

	if !slices.Equal(u.CompletedCourses, []string{"CSCI100", "MATH201"}) {
		t.Errorf("CompletedCourses = %v, want [CSCI100 MATH201]", u.CompletedCourses)
	}
}

func TestAddCompletedCourse_UnknownCourse(t *testing.T) {
	svc := newTestAccountService(t, newFakeUserRepo(), newFakeCourseRepo(abcuCourses()...))
	u := createStudent(t, svc, "stu@abcu.edu")

	_, added, err := svc.AddCompletedCourse(context.Background(), *u, "NOPE999")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if added {
		t.Error("added = true for an unknown course")
	}
}

func TestAddCompletedCourse_UpdateError(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAccountService(t, users, newFakeCourseRepo(abcuCourses()...))
	u := createStudent(t, svc, "stu@abcu.edu")
	users.updateErr = errors.New("disk full")

	if _, _, err := svc.AddCompletedCourse(context.Background(), *u, "CSCI100"); err == nil {
		t.Fatal("AddCompletedCourse() should propagate update errors")
	}
}

// =========================================================================
// ListUsers / IssueToken / EnsureAdmin TESTS
// =========================================================================

func TestListUsers(t *testing.T) {
	svc := newTestAccountService(t, newFakeUserRepo(), newFakeCourseRepo())
	createStudent(t, svc, "b@abcu.edu")
	createStudent(t, svc, "a@abcu.edu")

	users, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 2 || users[0].Email != "a@abcu.edu" {
		t.Errorf("ListUsers() = %+v", users)
	}
}

func TestIssueToken_CarriesEmailAndRole(t *testing.T) {
	svc := newTestAccountService(t, newFakeUserRepo(), newFakeCourseRepo())
	u := createStudent(t, svc, "stu@abcu.edu")

	token, err := svc.IssueToken(*u)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	ts, _ := auth.NewTokenService("test-secret-at-least-16-chars!!")
	id, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if id.Email != "stu@abcu.edu" || id.Role != model.RoleStudent {
		t.Errorf("identity = %+v", id)
	}
}

func TestIssueToken_NotConfigured(t *testing.T) {
	svc := NewAccountService(newFakeUserRepo(), newFakeCourseRepo(), auth.NewPasswordServiceWithCost(4), nil, discardLogger())

	if _, err := svc.IssueToken(model.User{Email: "x@abcu.edu"}); err == nil {
		t.Fatal("IssueToken() without a TokenService should fail")
	}
}

func TestEnsureAdmin(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAccountService(t, users, newFakeCourseRepo())
	ctx := context.Background()
	in := NewUserInput{Name: "Admin", Surname: "User", Email: "root@abcu.edu", Password: "changeme", Role: "student"}

	created, err := svc.EnsureAdmin(ctx, in)
	if err != nil || !created {
		t.Fatalf("EnsureAdmin() = %v, %v; want true, nil", created, err)
	}

	u, _ := users.GetUserByEmail(ctx, "root@abcu.edu")
	if u.Role != model.RoleAdmin {
		t.Errorf("bootstrap Role = %q, want admin", u.Role)
	}

	created, err = svc.EnsureAdmin(ctx, in)
	if err != nil || created {
		t.Errorf("second EnsureAdmin() = %v, %v; want false, nil", created, err)
	}

	created, err = svc.EnsureAdmin(ctx, NewUserInput{})
	if err != nil || created {
		t.Errorf("unconfigured EnsureAdmin() = %v, %v; want false, nil", created, err)
	}
}

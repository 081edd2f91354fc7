package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/course-advisor/internal/apperror"
	"github.com/sakif/course-advisor/internal/auth"
	"github.com/sakif/course-advisor/internal/model"
	"github.com/sakif/course-advisor/internal/repository"
)

// AccountService owns user accounts: creation, login and the completed
// course list.
//
// DEPENDENCIES (injected via NewAccountService):
//   - users    repository.UserRepository   → account records
//   - courses  repository.CourseRepository → existence check for completed courses
//   - hasher   auth.Hasher                 → bcrypt digests
//   - tokens   *auth.TokenService          → JWTs for the HTTP API (may be nil)
//   - logger   *slog.Logger
type AccountService struct {
	users   repository.UserRepository
	courses repository.CourseRepository
	hasher  auth.Hasher
	tokens  *auth.TokenService
	logger  *slog.Logger
}

// NewAccountService creates an AccountService. tokens may be nil for front
// ends that never issue JWTs; IssueToken then fails.
func NewAccountService(
	users repository.UserRepository,
	courses repository.CourseRepository,
	hasher auth.Hasher,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		users:   users,
		courses: courses,
		hasher:  hasher,
		tokens:  tokens,
		logger:  logger,
	}
}

// NewUserInput is what an administrator supplies to create an account.
// Role is free text; see model.ParseRole.
type NewUserInput struct {
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// CreateUser hashes the password and stores a new account.
//
// An unrecognised role is saved as student and logged at Warn. An email that
// is already registered yields an apperror.ErrConflict error.
func (s *AccountService) CreateUser(ctx context.Context, in NewUserInput) (*model.User, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if in.Password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	role, ok := model.ParseRole(in.Role)
	if !ok {
		s.logger.Warn("role not valid, saving as student",
			slog.String("email", email),
			slog.String("role", in.Role),
		)
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("user", email)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/account: looking up %s: %w", email, err)
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := model.NewUser(strings.TrimSpace(in.Name), strings.TrimSpace(in.Surname), email, digest, role)
	if err := s.users.InsertUser(ctx, &user); err != nil {
		return nil, fmt.Errorf("service/account: inserting user %s: %w", email, err)
	}

	s.logger.Info("user created", slog.String("email", email), slog.String("role", role.String()))
	return &user, nil
}

// Authenticate returns the account for email if password matches its digest.
// An unknown email yields apperror.ErrNotFound and a wrong password
// apperror.ErrUnauthorized.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Info("login failed: unknown user", slog.String("email", email))
		}
		return nil, fmt.Errorf("service/account: authenticating %s: %w", email, err)
	}

	if !s.VerifyPassword(*user, password) {
		s.logger.Info("login failed: wrong password", slog.String("email", email))
		return nil, apperror.Unauthorized("wrong password")
	}

	s.logger.Info("user logged in", slog.String("email", email), slog.String("role", user.Role.String()))
	return user, nil
}

// VerifyPassword reports whether plaintext matches the user's digest.
func (s *AccountService) VerifyPassword(user model.User, plaintext string) bool {
	return s.hasher.Verify(plaintext, user.PasswordHash)
}

// GetUser returns the stored account for email.
func (s *AccountService) GetUser(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("service/account: getting user %s: %w", email, err)
	}
	return user, nil
}

// AddCompletedCourse records code as completed by user and returns the stored
// account as it is after the write, along with whether anything changed.
//
// The course must exist in the catalog. Adding a course twice is not an
// error; the second call reports added=false.
func (s *AccountService) AddCompletedCourse(ctx context.Context, user model.User, code string) (*model.User, bool, error) {
	code = model.NormalizeCode(code)
	if code == "" {
		return nil, false, apperror.ValidationFailed("code", "course code is required")
	}

	if _, err := s.courses.GetCourse(ctx, code); err != nil {
		return nil, false, fmt.Errorf("service/account: checking course %s: %w", code, err)
	}

	// Start from the stored record, not the caller's snapshot, so a stale
	// snapshot cannot drop codes written elsewhere.
	current, err := s.users.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return nil, false, fmt.Errorf("service/account: loading user %s: %w", user.Email, err)
	}

	next, added := current.WithCompletedCourse(code)
	if added {
		modified, err := s.users.UpdateCompletedCourses(ctx, current.Email, next.CompletedCourses)
		if err != nil {
			return nil, false, fmt.Errorf("service/account: updating completed courses of %s: %w", current.Email, err)
		}
		added = modified
	}

	fresh, err := s.users.GetUserByEmail(ctx, current.Email)
	if err != nil {
		return nil, false, fmt.Errorf("service/account: reloading user %s: %w", current.Email, err)
	}

	if added {
		s.logger.Info("completed course added", slog.String("email", fresh.Email), slog.String("code", code))
	}
	return fresh, added, nil
}

// ListUsers returns the listing view of every account.
func (s *AccountService) ListUsers(ctx context.Context) ([]model.UserSummary, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/account: listing users: %w", err)
	}
	return users, nil
}

// IssueToken signs a JWT for user.
func (s *AccountService) IssueToken(user model.User) (string, error) {
	if s.tokens == nil {
		return "", errors.New("service/account: token issuing is not configured")
	}
	token, err := s.tokens.Generate(user)
	if err != nil {
		return "", fmt.Errorf("service/account: generating token for %s: %w", user.Email, err)
	}
	return token, nil
}

// EnsureAdmin creates the bootstrap administrator described by in unless an
// account with that email already exists. in.Role is ignored. It reports
// whether an account was created.
func (s *AccountService) EnsureAdmin(ctx context.Context, in NewUserInput) (bool, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return false, nil
	}

	in.Role = model.RoleAdmin.String()
	_, err := s.CreateUser(ctx, in)
	switch {
	case errors.Is(err, apperror.ErrConflict):
		s.logger.Debug("bootstrap admin already present", slog.String("email", in.Email))
		return false, nil
	case err != nil:
		return false, fmt.Errorf("service/account: creating bootstrap admin: %w", err)
	}

	s.logger.Info("bootstrap admin created", slog.String("email", in.Email))
	return true, nil
}

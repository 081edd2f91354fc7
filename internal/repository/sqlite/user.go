package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/course-advisor/internal/apperror"
	"github.com/sakif/course-advisor/internal/model"
	"github.com/sakif/course-advisor/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// InsertUser stores a new account and fills in ID and timestamps on user.
// The UNIQUE constraint on email backs up the service-level duplicate check.
func (db *DB) InsertUser(ctx context.Context, user *model.User) error {
	completed, err := encodeList(user.CompletedCourses)
	if err != nil {
		return fmt.Errorf("sqlite: encoding completed courses of %s: %w", user.Email, err)
	}

	now := time.Now()
	id := xid.New().String()

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, name, surname, password_hash, role, completed_courses, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		user.Email,
		user.Name,
		user.Surname,
		user.PasswordHash,
		string(user.Role),
		completed,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetUserByEmail returns the stored account for email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var (
		u         model.User
		role      string
		completed string
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, name, surname, password_hash, role, completed_courses, created_at, updated_at
		 FROM users WHERE email = ?`,
		email,
	).Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Surname,
		&u.PasswordHash,
		&role,
		&completed,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", email, err)
	}

	u.Role, _ = model.ParseRole(role)
	if u.CompletedCourses, err = decodeList(completed); err != nil {
		return nil, fmt.Errorf("sqlite: decoding completed courses of %s: %w", email, err)
	}
	return &u, nil
}

// UpdateCompletedCourses overwrites the completed list of the account.
//
// modified is false when the stored list already equals codes. SQLite counts
// a same-value UPDATE as a change, so the WHERE clause filters those out.
// An unknown email is reported as apperror.ErrNotFound.
func (db *DB) UpdateCompletedCourses(ctx context.Context, email string, codes []string) (bool, error) {
	completed, err := encodeList(codes)
	if err != nil {
		return false, fmt.Errorf("sqlite: encoding completed courses of %s: %w", email, err)
	}

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET completed_courses = ?, updated_at = ?
		 WHERE email = ? AND completed_courses <> ?`,
		completed,
		time.Now(),
		email,
		completed,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: updating completed courses of %s: %w", email, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: counting updated users: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	var exists int
	err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking user %s: %w", email, err)
	}
	if exists == 0 {
		return false, apperror.NotFound("user", email)
	}
	return false, nil
}

// ListUsers returns the listing view of every account ordered by email.
func (db *DB) ListUsers(ctx context.Context) ([]model.UserSummary, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT name, surname, email, role, completed_courses FROM users ORDER BY email ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.UserSummary{}
	for rows.Next() {
		var (
			s         model.UserSummary
			role      string
			completed string
		)
		if err := rows.Scan(&s.Name, &s.Surname, &s.Email, &role, &completed); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		s.Role, _ = model.ParseRole(role)
		codes, err := decodeList(completed)
		if err != nil {
			return nil, fmt.Errorf("sqlite: decoding completed courses of %s: %w", s.Email, err)
		}
		s.CompletedCourses = len(codes)
		users = append(users, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user rows: %w", err)
	}

	return users, nil
}

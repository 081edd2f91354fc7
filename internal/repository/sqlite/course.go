package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/course-advisor/internal/apperror"
	"github.com/sakif/course-advisor/internal/catalog"
	"github.com/sakif/course-advisor/internal/model"
	"github.com/sakif/course-advisor/internal/repository"
)

var (
	_ repository.CourseRepository = (*DB)(nil)
	_ catalog.Sink                = (*DB)(nil)
)

// InsertCourse stores a new course. A second course with the same code is
// rejected with apperror.ErrConflict; courses are never overwritten.
func (db *DB) InsertCourse(ctx context.Context, course model.Course) error {
	prereqs, err := encodeList(course.Prerequisites)
	if err != nil {
		return fmt.Errorf("sqlite: encoding prerequisites of %s: %w", course.Code, err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO courses (id, code, title, prerequisites, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		xid.New().String(),
		course.Code,
		course.Title,
		prereqs,
		time.Now(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("course", course.Code)
		}
		return fmt.Errorf("sqlite: inserting course %s: %w", course.Code, err)
	}

	return nil
}

// GetCourse looks a course up by its exact code.
func (db *DB) GetCourse(ctx context.Context, code string) (*model.Course, error) {
	var (
		c       model.Course
		prereqs string
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT code, title, prerequisites FROM courses WHERE code = ?`,
		code,
	).Scan(&c.Code, &c.Title, &prereqs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("course", code)
		}
		return nil, fmt.Errorf("sqlite: getting course %s: %w", code, err)
	}

	if c.Prerequisites, err = decodeList(prereqs); err != nil {
		return nil, fmt.Errorf("sqlite: decoding prerequisites of %s: %w", code, err)
	}
	return &c, nil
}

// ListCourses returns the catalog ordered by code. SQLite's default BINARY
// collation gives the same order as model.SortByCode.
func (db *DB) ListCourses(ctx context.Context) ([]model.Course, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT code, title, prerequisites FROM courses ORDER BY code ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing courses: %w", err)
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		var (
			c       model.Course
			prereqs string
		)
		if err := rows.Scan(&c.Code, &c.Title, &prereqs); err != nil {
			return nil, fmt.Errorf("sqlite: scanning course row: %w", err)
		}
		if c.Prerequisites, err = decodeList(prereqs); err != nil {
			return nil, fmt.Errorf("sqlite: decoding prerequisites of %s: %w", c.Code, err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating course rows: %w", err)
	}

	return courses, nil
}

// ClearCourses empties the catalog. User records keep their completed codes.
func (db *DB) ClearCourses(ctx context.Context) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM courses`)
	if err != nil {
		return 0, fmt.Errorf("sqlite: clearing courses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting cleared courses: %w", err)
	}
	return n, nil
}

package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sakif/course-advisor/internal/apperror"
	"github.com/sakif/course-advisor/internal/model"
)

// csvRow is one parsed CSV record with its source line.
type csvRow struct {
	line   int
	fields []string
}

// course builds a Course from the row. Fields from the third onward are
// prerequisites; they are trimmed and empty ones dropped.
func (r csvRow) course() model.Course {
	var prereqs []string
	for _, f := range r.fields[2:] {
		if p := strings.TrimSpace(f); p != "" {
			prereqs = append(prereqs, p)
		}
	}
	return model.NewCourse(strings.TrimSpace(r.fields[0]), strings.TrimSpace(r.fields[1]), prereqs...)
}

// malformed returns why the row cannot become a course, or "" if it can.
func (r csvRow) malformed() string {
	if len(r.fields) < 2 {
		return fmt.Sprintf("row must contain at least course code and title, got %d field(s)", len(r.fields))
	}
	if strings.TrimSpace(r.fields[0]) == "" {
		return "course code missing"
	}
	if strings.TrimSpace(r.fields[1]) == "" {
		return "course title missing"
	}
	return ""
}

// readCSV parses the whole file into rows. Records may have any number of
// fields; blank lines are ignored; a leading UTF-8 byte order mark is dropped.
func readCSV(r io.Reader) ([]csvRow, error) {
	dec := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(dec)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows []csvRow
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parsing CSV: %w", err)
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, csvRow{line: line, fields: fields})
	}
}

// LoadCSV reads a catalog from a CSV file with Strict validation.
//
// Every row needs a code and a title; further fields are prerequisite codes.
// The batch is all-or-nothing: a missing file, a malformed row, or a
// prerequisite that is not defined in the same file makes LoadCSV return nil
// courses and an error naming the problem.
func (l *Loader) LoadCSV(path string) ([]model.Course, error) {
	f, err := os.Open(path)
	if err != nil {
		l.logger.Error("could not open catalog file", slog.String("path", path), slog.String("error", err.Error()))
		return nil, openError(path, err)
	}
	defer f.Close()

	rows, err := readCSV(f)
	if err != nil {
		l.logger.Error("could not parse catalog file", slog.String("path", path), slog.String("error", err.Error()))
		return nil, apperror.ValidationFailed(path, fmt.Sprintf("could not parse file '%s': %v", path, err))
	}

	courses := make([]model.Course, 0, len(rows))
	for _, row := range rows {
		if reason := row.malformed(); reason != "" {
			issue := Issue{Line: row.line, Reason: reason}
			l.logger.Error("malformed catalog row, load aborted", issue.logAttrs()...)
			return nil, apperror.ValidationFailed(path, issue.String())
		}
		courses = append(courses, row.course())
	}

	if issues := Validate(courses, NewCodeSet(courses), Strict); len(issues) > 0 {
		issue := issues[0]
		l.logger.Error("catalog reference check failed, load aborted", issue.logAttrs()...)
		return nil, apperror.ValidationFailed(issue.Prerequisite, issue.String())
	}

	l.logger.Info("catalog file loaded", slog.String("path", path), slog.Int("courses", len(courses)))
	return courses, nil
}

func openError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: fmt.Sprintf("could not open file '%s'", path),
			Field:   path,
		}
	}
	return fmt.Errorf("could not open file '%s': %w", path, err)
}

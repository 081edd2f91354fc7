package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/sakif/course-advisor/internal/apperror"
	"github.com/sakif/course-advisor/internal/model"
)

// Record is the JSON interchange shape of a course:
//
//	{"code": "CS201", "title": "Data Structures", "prerequisites": ["CS101"]}
//
// A missing or null "prerequisites" reads as an empty list; on output it is
// always an array.
type Record struct {
	Code          string   `json:"code"`
	Title         string   `json:"title"`
	Prerequisites []string `json:"prerequisites"`
}

// RecordFromCourse converts a Course to its interchange form.
func RecordFromCourse(c model.Course) Record {
	prereqs := c.Prerequisites
	if prereqs == nil {
		prereqs = []string{}
	}
	return Record{Code: c.Code, Title: c.Title, Prerequisites: prereqs}
}

// course normalises the record: code, title and prerequisites are trimmed,
// empty prerequisites dropped.
func (r Record) course() model.Course {
	var prereqs []string
	for _, p := range r.Prerequisites {
		if p = strings.TrimSpace(p); p != "" {
			prereqs = append(prereqs, p)
		}
	}
	return model.NewCourse(strings.TrimSpace(r.Code), strings.TrimSpace(r.Title), prereqs...)
}

// Sink receives courses one at a time as LoadJSON accepts them.
//
// An error wrapping apperror.ErrConflict means "already there": the record is
// reported as skipped and loading continues. Any other error stops the load.
type Sink interface {
	InsertCourse(ctx context.Context, c model.Course) error
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(ctx context.Context, c model.Course) error

func (f SinkFunc) InsertCourse(ctx context.Context, c model.Course) error { return f(ctx, c) }

// MemorySink collects courses in memory and rejects duplicate codes with a
// conflict, like the database does. Used for dry runs.
type MemorySink struct {
	mu      sync.Mutex
	courses []model.Course
	seen    CodeSet
}

func (m *MemorySink) InsertCourse(_ context.Context, c model.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = CodeSet{}
	}
	if m.seen.Has(c.Code) {
		return apperror.Conflict("course", c.Code)
	}
	m.seen.Add(c.Code)
	m.courses = append(m.courses, c)
	return nil
}

// Courses returns the accepted courses in insertion order.
func (m *MemorySink) Courses() []model.Course {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Course, len(m.courses))
	copy(out, m.courses)
	return out
}

// LoadJSON reads a JSON array of course records from path and hands each
// acceptable record to sink as soon as it is checked.
//
// Records without a code or title are skipped. Prerequisites that do not name
// a code present anywhere in the document are reported as warnings but do not
// stop the record from being inserted. A file that cannot be read or parsed
// aborts before anything is inserted; a sink failure aborts mid-way, leaving
// earlier inserts in place.
func (l *Loader) LoadJSON(ctx context.Context, path string, sink Sink) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		l.logger.Error("could not open JSON catalog", slog.String("path", path), slog.String("error", err.Error()))
		return Report{}, openError(path, err)
	}
	defer f.Close()

	return l.ReadJSON(ctx, f, sink)
}

// ReadJSON is LoadJSON over an already opened source.
func (l *Loader) ReadJSON(ctx context.Context, r io.Reader, sink Sink) (Report, error) {
	var records []Record
	dec := json.NewDecoder(r)
	if err := dec.Decode(&records); err != nil {
		l.logger.Error("could not parse JSON catalog", slog.String("error", err.Error()))
		return Report{}, apperror.ValidationFailed("json", fmt.Sprintf("an error occurred while reading the JSON file: %v", err))
	}
	// The document is a single array; anything after it is malformed input.
	if _, err := dec.Token(); err != io.EOF {
		l.logger.Error("could not parse JSON catalog", slog.String("error", "extra data after the course list"))
		return Report{}, apperror.ValidationFailed("json", "an error occurred while reading the JSON file: extra data after the course list")
	}

	var report Report
	report.Read = len(records)

	known := CodeSet{}
	for _, rec := range records {
		known.Add(strings.TrimSpace(rec.Code))
	}

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		c := rec.course()
		index := i + 1

		if c.Code == "" || c.Title == "" {
			issue := Issue{Line: index, Code: c.Code, Reason: "course code or title missing"}
			l.logger.Warn("skipping JSON record", issue.logAttrs()...)
			report.Skipped = append(report.Skipped, issue)
			continue
		}

		for _, issue := range CheckReferences(c, known) {
			issue.Line = index
			l.logger.Warn("course references unknown prerequisite", issue.logAttrs()...)
			report.Warnings = append(report.Warnings, issue)
		}

		if err := sink.InsertCourse(ctx, c); err != nil {
			if errors.Is(err, apperror.ErrConflict) {
				issue := Issue{Line: index, Code: c.Code, Reason: "course already exists"}
				l.logger.Warn("skipping duplicate course", issue.logAttrs()...)
				report.Skipped = append(report.Skipped, issue)
				continue
			}
			l.logger.Error("inserting course failed, load aborted",
				slog.String("code", c.Code),
				slog.String("error", err.Error()),
			)
			return report, fmt.Errorf("catalog: inserting course %s: %w", c.Code, err)
		}
		report.Accepted++
	}

	l.logger.Info("JSON catalog loaded",
		slog.Int("read", report.Read),
		slog.Int("inserted", report.Accepted),
		slog.Int("skipped", len(report.Skipped)),
		slog.Int("warnings", len(report.Warnings)),
	)
	return report, nil
}

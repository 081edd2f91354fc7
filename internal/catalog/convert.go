package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/sakif/course-advisor/internal/apperror"
)

// jsonIndent matches the four-space layout of the catalog files shipped with
// the advisor.
const jsonIndent = "    "

// ConvertCSVToJSON rewrites the CSV catalog at src as a JSON array at dst.
//
// Unlike LoadCSV this is lenient: rows without a code or title are skipped and
// reported, and prerequisites that name no kept row are only warned about.
// Kept rows are written in source order. If src does not exist nothing is
// written. A write failure may leave dst partially written.
func (l *Loader) ConvertCSVToJSON(src, dst string) (Report, error) {
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		l.logger.Error("CSV source not found", slog.String("path", src))
		return Report{}, &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: fmt.Sprintf("file not found: %s", src),
			Field:   src,
		}
	}

	in, err := os.Open(src)
	if err != nil {
		l.logger.Error("could not open CSV source", slog.String("path", src), slog.String("error", err.Error()))
		return Report{}, openError(src, err)
	}
	defer in.Close()

	records, report, err := l.convertRows(in)
	if err != nil {
		return report, err
	}

	out, err := os.Create(dst)
	if err != nil {
		l.logger.Error("could not create JSON file", slog.String("path", dst), slog.String("error", err.Error()))
		return report, fmt.Errorf("an error occurred while writing the JSON file '%s': %w", dst, err)
	}
	defer out.Close()

	if err := WriteJSON(out, records); err != nil {
		l.logger.Error("writing JSON file failed", slog.String("path", dst), slog.String("error", err.Error()))
		return report, fmt.Errorf("an error occurred while writing the JSON file '%s': %w", dst, err)
	}
	if err := out.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return report, fmt.Errorf("an error occurred while writing the JSON file '%s': %w", dst, err)
	}

	report.Accepted = len(records)
	l.logger.Info("JSON file data written",
		slog.String("path", dst),
		slog.Int("courses", report.Accepted),
		slog.Int("skipped", len(report.Skipped)),
		slog.Int("warnings", len(report.Warnings)),
	)
	return report, nil
}

// convertRows parses CSV from r and returns the kept rows as records.
func (l *Loader) convertRows(r io.Reader) ([]Record, Report, error) {
	var report Report

	rows, err := readCSV(r)
	if err != nil {
		l.logger.Error("CSV file read fail", slog.String("error", err.Error()))
		return nil, report, apperror.ValidationFailed("csv", fmt.Sprintf("CSV file read fail: %v", err))
	}
	report.Read = len(rows)

	kept := make([]csvRow, 0, len(rows))
	known := CodeSet{}
	for _, row := range rows {
		if reason := row.malformed(); reason != "" {
			issue := Issue{Line: row.line, Reason: reason}
			l.logger.Warn("skipping malformed CSV row", issue.logAttrs()...)
			report.Skipped = append(report.Skipped, issue)
			continue
		}
		kept = append(kept, row)
		known.Add(row.course().Code)
	}

	records := make([]Record, 0, len(kept))
	for _, row := range kept {
		c := row.course()
		for _, issue := range CheckReferences(c, known) {
			issue.Line = row.line
			l.logger.Warn("course references unknown prerequisite", issue.logAttrs()...)
			report.Warnings = append(report.Warnings, issue)
		}
		records = append(records, RecordFromCourse(c))
	}

	return records, report, nil
}

// WriteJSON encodes records as an indented JSON array. Field order is always
// code, title, prerequisites.
func WriteJSON(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", jsonIndent)
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}

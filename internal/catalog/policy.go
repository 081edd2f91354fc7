// Package catalog turns course definition files into validated model.Course
// values.
//
// Three entry points share one parser and one reference check, but differ in
// how much they tolerate:
//
//	LoadCSV           strict    bad row or dangling prerequisite aborts the whole batch
//	LoadJSON          advisory  bad record skipped, dangling prerequisite logged, streamed to a Sink
//	ConvertCSVToJSON  advisory  bad row skipped, dangling prerequisite logged, written as JSON
//
// Failures are returned as error values carrying a human-readable message; no
// panic leaves this package.
package catalog

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/sakif/course-advisor/internal/model"
)

// ValidationPolicy says what a reference problem does to a batch.
type ValidationPolicy int

const (
	// Strict aborts the batch on the first problem.
	Strict ValidationPolicy = iota
	// Advisory reports every problem and keeps going.
	Advisory
)

func (p ValidationPolicy) String() string {
	switch p {
	case Strict:
		return "strict"
	case Advisory:
		return "advisory"
	default:
		return fmt.Sprintf("ValidationPolicy(%d)", int(p))
	}
}

// Issue describes one problem found while reading a source.
type Issue struct {
	Line         int    // 1-based line (CSV) or record index (JSON); 0 if unknown
	Code         string // course the problem belongs to, if known
	Prerequisite string // offending prerequisite, for reference problems
	Reason       string
}

func (i Issue) String() string {
	s := i.Reason
	if i.Code != "" {
		s = fmt.Sprintf("course %s: %s", i.Code, s)
	}
	if i.Line > 0 {
		s = fmt.Sprintf("line %d: %s", i.Line, s)
	}
	return s
}

func (i Issue) logAttrs() []any {
	return []any{
		slog.Int("line", i.Line),
		slog.String("code", i.Code),
		slog.String("prerequisite", i.Prerequisite),
		slog.String("reason", i.Reason),
	}
}

// Report summarises a lenient run.
type Report struct {
	Read     int     // records parsed from the source
	Accepted int     // records inserted (LoadJSON) or written (ConvertCSVToJSON)
	Skipped  []Issue // records dropped
	Warnings []Issue // records kept despite a reference problem
}

// CodeSet is the set of course codes known to a batch.
type CodeSet map[string]struct{}

// NewCodeSet collects the non-empty codes of courses.
func NewCodeSet(courses []model.Course) CodeSet {
	set := make(CodeSet, len(courses))
	for _, c := range courses {
		set.Add(c.Code)
	}
	return set
}

func (s CodeSet) Add(code string) {
	if code != "" {
		s[code] = struct{}{}
	}
}

func (s CodeSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// CheckReferences returns one Issue per prerequisite of c that is either
// absent from known or equal to c's own code. A course that requires itself
// can never be taken, so it counts as a reference problem too.
func CheckReferences(c model.Course, known CodeSet) []Issue {
	var issues []Issue
	for _, p := range c.Prerequisites {
		switch {
		case p == c.Code:
			issues = append(issues, Issue{
				Code:         c.Code,
				Prerequisite: p,
				Reason:       "lists itself as a prerequisite",
			})
		case !known.Has(p):
			issues = append(issues, Issue{
				Code:         c.Code,
				Prerequisite: p,
				Reason:       fmt.Sprintf("missing prerequisite: %s", p),
			})
		}
	}
	return issues
}

// Validate checks every course against known under policy. Under Strict only
// the first problem is returned; under Advisory all of them are.
func Validate(courses []model.Course, known CodeSet, policy ValidationPolicy) []Issue {
	var issues []Issue
	for _, c := range courses {
		found := CheckReferences(c, known)
		if len(found) == 0 {
			continue
		}
		if policy == Strict {
			return found[:1]
		}
		issues = append(issues, found...)
	}
	return issues
}

// Loader runs the ingestion entry points and logs every issue it meets.
type Loader struct {
	logger *slog.Logger
}

// NewLoader returns a Loader that reports through logger. A nil logger
// discards reports.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{logger: logger.With(slog.String("component", "catalog"))}
}

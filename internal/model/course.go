// Package model defines the catalog and account data structures and the pure
// rules over them (prerequisite eligibility, role parsing, completed-course
// bookkeeping). Nothing in this package touches storage or I/O.
package model

import (
	"slices"
	"strings"
)

// Course is one entry of the catalog.
//
// Prerequisites are course codes. Their order has no meaning for eligibility but
// is preserved so listings show them the way the source file declared them.
type Course struct {
	Code          string   `json:"code"`
	Title         string   `json:"title"`
	Prerequisites []string `json:"prerequisites"`
}

// NewCourse builds a Course and guarantees a non-nil prerequisite slice, so the
// JSON form always carries an array.
func NewCourse(code, title string, prerequisites ...string) Course {
	prereqs := make([]string, 0, len(prerequisites))
	prereqs = append(prereqs, prerequisites...)
	return Course{Code: code, Title: title, Prerequisites: prereqs}
}

// CanTake reports whether every prerequisite of c appears in completed.
// A course without prerequisites can always be taken.
func (c Course) CanTake(completed []string) bool {
	return len(c.MissingPrerequisites(completed)) == 0
}

// MissingPrerequisites returns the prerequisites of c absent from completed,
// in declaration order.
func (c Course) MissingPrerequisites(completed []string) []string {
	done := make(map[string]struct{}, len(completed))
	for _, code := range completed {
		done[code] = struct{}{}
	}

	var missing []string
	for _, p := range c.Prerequisites {
		if _, ok := done[p]; !ok {
			missing = append(missing, p)
		}
	}
	return missing
}

// SortByCode orders courses by code, ascending, using plain byte-wise string
// comparison (the same ordering the database uses for ORDER BY code).
func SortByCode(courses []Course) {
	slices.SortStableFunc(courses, func(a, b Course) int {
		return strings.Compare(a.Code, b.Code)
	})
}

// NormalizeCode canonicalises a course code typed by a person: surrounding
// whitespace is dropped and letters are upper-cased ("  cs101 " -> "CS101").
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

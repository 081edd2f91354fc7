package model

import (
	"slices"
	"strings"
	"time"
)

// Role is the closed set of account roles. Admins see the catalog-loading and
// user-management operations; the stored shape is identical for both.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// ParseRole converts operator input into a Role.
//
// Input is trimmed and lower-cased first. Anything other than "student" or
// "admin" yields RoleStudent and ok=false; the caller is expected to warn the
// operator that the account is being saved as a student.
func ParseRole(s string) (role Role, ok bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleStudent:
		return RoleStudent, true
	default:
		return RoleStudent, false
	}
}

func (r Role) String() string { return string(r) }

// User is an account. Email is the unique lookup key.
//
// A User value is a snapshot of the stored record. Mutations go through
// WithCompletedCourse (which returns a new value) and are persisted by the
// account service, which then re-reads the record.
type User struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Surname          string    `json:"surname"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Role             Role      `json:"role"`
	CompletedCourses []string  `json:"completedCourses"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// NewUser assembles a User from an already-hashed password digest.
func NewUser(name, surname, email, passwordHash string, role Role) User {
	return User{
		Name:             name,
		Surname:          surname,
		Email:            email,
		PasswordHash:     passwordHash,
		Role:             role,
		CompletedCourses: []string{},
	}
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasCompleted reports whether code is in the user's completed list.
func (u User) HasCompleted(code string) bool {
	return slices.Contains(u.CompletedCourses, code)
}

// CanTake is the user-side delegate of Course.CanTake.
func (u User) CanTake(c Course) bool {
	return c.CanTake(u.CompletedCourses)
}

// WithCompletedCourse returns a copy of u with code appended to the completed
// list. When code is already present the copy is unchanged and added is false.
// The receiver's slice is never shared with the result.
func (u User) WithCompletedCourse(code string) (next User, added bool) {
	next = u
	next.CompletedCourses = slices.Clone(u.CompletedCourses)
	if next.CompletedCourses == nil {
		next.CompletedCourses = []string{}
	}
	if u.HasCompleted(code) {
		return next, false
	}
	next.CompletedCourses = append(next.CompletedCourses, code)
	return next, true
}

// UserSummary is the listing view of an account. It never carries the password
// digest.
type UserSummary struct {
	Name             string `json:"name"`
	Surname          string `json:"surname"`
	Email            string `json:"email"`
	Role             Role   `json:"role"`
	CompletedCourses int    `json:"completedCourses"`
}

// FullName is "Name Surname" with empty parts dropped.
func (s UserSummary) FullName() string {
	return strings.TrimSpace(s.Name + " " + s.Surname)
}

// Summary projects u onto its listing view.
func (u User) Summary() UserSummary {
	return UserSummary{
		Name:             u.Name,
		Surname:          u.Surname,
		Email:            u.Email,
		Role:             u.Role,
		CompletedCourses: len(u.CompletedCourses),
	}
}

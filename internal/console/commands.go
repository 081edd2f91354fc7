package console

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sakif/course-advisor/internal/apperror"
	"github.com/sakif/course-advisor/internal/catalog"
	"github.com/sakif/course-advisor/internal/model"
	"github.com/sakif/course-advisor/internal/service"
)

func (s *Session) displayCourse(c model.Course) {
	s.println(ruler)
	s.printf("%s, %s\n", c.Code, c.Title)
	if len(c.Prerequisites) > 0 {
		s.printf("Prerequisites: %s\n", strings.Join(c.Prerequisites, ", "))
	}
	s.println(ruler)
}

func (s *Session) printCourseList(ctx context.Context) error {
	courses, err := s.catalog.ListCourses(ctx)
	if err != nil {
		s.report(err)
		return nil
	}

	s.println(ruler)
	for _, c := range courses {
		s.printf("%s, %s\n", c.Code, c.Title)
	}
	s.println(ruler)
	return nil
}

func (s *Session) printCourse(ctx context.Context) error {
	input, err := s.prompt("What course do you want to know about? ")
	if err != nil {
		return err
	}
	code := model.NormalizeCode(input)

	start := time.Now()
	course, err := s.catalog.GetCourse(ctx, code)
	elapsed := s.since(start)

	switch {
	case err == nil:
		s.displayCourse(*course)
	case errors.Is(err, apperror.ErrNotFound), errors.Is(err, apperror.ErrValidation):
		s.printf("Course number %s not found.\n", code)
	default:
		s.report(err)
	}
	s.printf(timingFormat, elapsed.Seconds())
	return nil
}

func (s *Session) addCompletedCourse(ctx context.Context) error {
	input, err := s.prompt("What course do you want to add? ")
	if err != nil {
		return err
	}
	code := model.NormalizeCode(input)

	fresh, added, err := s.accounts.AddCompletedCourse(ctx, *s.user, code)
	switch {
	case errors.Is(err, apperror.ErrNotFound), errors.Is(err, apperror.ErrValidation):
		s.printf("Course number %s not found.\n", code)
		return nil
	case err != nil:
		s.report(err)
		return nil
	}

	s.user = fresh
	if added {
		s.printf("Course number %s added.\n", code)
	} else {
		s.printf("Course number %s already completed.\n", code)
	}
	return nil
}

func (s *Session) printCompletedCourses(ctx context.Context) error {
	if len(s.user.CompletedCourses) == 0 {
		s.println("No completed courses yet!")
		return nil
	}

	courses, err := s.catalog.CompletedCourses(ctx, *s.user)
	if err != nil {
		s.report(err)
		return nil
	}
	for _, c := range courses {
		s.printf("%s: %s\n", c.Code, c.Title)
	}
	return nil
}

func (s *Session) checkEligibility(ctx context.Context) error {
	input, err := s.prompt("What course do you want to check? ")
	if err != nil {
		return err
	}
	code := model.NormalizeCode(input)

	result, err := s.catalog.CheckEligibility(ctx, *s.user, code)
	switch {
	case errors.Is(err, apperror.ErrNotFound), errors.Is(err, apperror.ErrValidation):
		s.printf("Course number %s not found.\n", code)
		return nil
	case err != nil:
		s.report(err)
		return nil
	}

	if result.CanTake {
		s.printf("You can take %s.\n", code)
		return nil
	}
	s.printf("You cannot take %s.\n", code)
	s.printf("Missing prerequisites: %s\n", strings.Join(result.Missing, ", "))
	return nil
}

func (s *Session) createUser(ctx context.Context) error {
	var in service.NewUserInput
	fields := []struct {
		label string
		dst   *string
	}{
		{"First Name: ", &in.Name},
		{"Last Name: ", &in.Surname},
		{"Email: ", &in.Email},
		{"Password: ", &in.Password},
		{"Role [student or admin]: ", &in.Role},
	}
	for _, f := range fields {
		v, err := s.prompt(f.label)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	if _, ok := model.ParseRole(in.Role); !ok {
		s.println("Role not valid, saving as student!")
	}

	_, err := s.accounts.CreateUser(ctx, in)
	switch {
	case errors.Is(err, apperror.ErrConflict):
		s.println("User already exist!")
	case err != nil:
		s.report(err)
	default:
		s.println("User correctly added!")
	}
	return nil
}

func (s *Session) listUsers(ctx context.Context) error {
	users, err := s.accounts.ListUsers(ctx)
	if err != nil {
		s.report(err)
		return nil
	}
	for _, u := range users {
		s.printf("Name: %s, Email: %s, Role: %s\n", u.FullName(), u.Email, u.Role)
	}
	return nil
}

func (s *Session) loadCSV(ctx context.Context) error {
	path, err := s.prompt("File name: ")
	if err != nil {
		return err
	}

	start := time.Now()
	report, err := s.catalog.ImportCSV(ctx, path)
	elapsed := s.since(start)

	if err != nil {
		s.report(err)
	} else {
		s.printReport("loaded", report)
	}
	s.printf(timingFormat, elapsed.Seconds())
	return nil
}

func (s *Session) loadJSON(ctx context.Context) error {
	path, err := s.prompt("File name: ")
	if err != nil {
		return err
	}

	start := time.Now()
	report, err := s.catalog.ImportJSON(ctx, path)
	elapsed := s.since(start)

	if err != nil {
		s.report(err)
		if report.Accepted > 0 {
			s.printf("%d courses were inserted before the error.\n", report.Accepted)
		}
	} else {
		s.printReport("loaded", report)
	}
	s.printf(timingFormat, elapsed.Seconds())
	return nil
}

func (s *Session) convert(_ context.Context) error {
	src, err := s.prompt("CSV File name: ")
	if err != nil {
		return err
	}
	dst, err := s.prompt("JSON File name: ")
	if err != nil {
		return err
	}

	start := time.Now()
	report, err := s.catalog.ConvertCSVToJSON(src, dst)
	elapsed := s.since(start)

	if err != nil {
		s.report(err)
	} else {
		s.printReport("written", report)
	}
	s.printf(timingFormat, elapsed.Seconds())
	return nil
}

func (s *Session) clearCourses(ctx context.Context) error {
	if _, err := s.catalog.ClearCourses(ctx); err != nil {
		s.report(err)
		return nil
	}
	s.println("Data deleted")
	return nil
}

// printReport summarises an ingestion run followed by one line per issue.
func (s *Session) printReport(verb string, r catalog.Report) {
	s.printf("%d of %d courses %s.\n", r.Accepted, r.Read, verb)
	for _, issue := range r.Skipped {
		s.printf("  skipped: %s\n", issue)
	}
	for _, issue := range r.Warnings {
		s.printf("  warning: %s\n", issue)
	}
}

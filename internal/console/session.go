// Package console is the interactive menu front end of the advisor.
//
// A Session logs one user in and then loops over a numbered menu until the
// user picks 20 or input ends. Admins see the catalog-loading and account
// options; students see only the first five. Every read goes through an
// io.Reader and every write through an io.Writer, so a session can be driven
// by a script in tests.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/course-advisor/internal/apperror"
	"github.com/sakif/course-advisor/internal/model"
	"github.com/sakif/course-advisor/internal/service"
)

// ErrLoginFailed is returned by Run when the credentials are rejected.
var ErrLoginFailed = errors.New("console: login failed")

const (
	ruler           = "------------------------------------------------------"
	adminRequired   = "You need admin role to use this function!!"
	exitChoice      = "20"
	timingFormat    = "time: %.6f seconds\n"
	welcomeMessage  = "Welcome to the course planner. Please login..."
	farewellMessage = "Thank you for using the course planner!"
)

// command is one menu entry.
type command struct {
	key       string
	label     string
	adminOnly bool
	run       func(ctx context.Context) error
}

// Session is one logged-in conversation with the menu.
type Session struct {
	catalog  *service.CatalogService
	accounts *service.AccountService
	in       *bufio.Reader
	out      io.Writer
	logger   *slog.Logger

	user     *model.User
	commands []command
	// since measures elapsed time for the timed operations.
	since func(time.Time) time.Duration
}

// NewSession creates a Session reading from in and writing to out.
func NewSession(catalog *service.CatalogService, accounts *service.AccountService, in io.Reader, out io.Writer, logger *slog.Logger) *Session {
	s := &Session{
		catalog:  catalog,
		accounts: accounts,
		in:       bufio.NewReader(in),
		out:      out,
		logger:   logger.With(slog.String("component", "console")),
		since:    time.Since,
	}
	s.commands = []command{
		{key: "1", label: "Print Course List.", run: s.printCourseList},
		{key: "2", label: "Print Course.", run: s.printCourse},
		{key: "3", label: "Add completed course", run: s.addCompletedCourse},
		{key: "4", label: "Print Completed Courses.", run: s.printCompletedCourses},
		{key: "5", label: "Check if can take a course.", run: s.checkEligibility},
		{key: "6", label: "Create a new user.", adminOnly: true, run: s.createUser},
		{key: "7", label: "List users.", adminOnly: true, run: s.listUsers},
		{key: "8", label: "Load Data from CSV file.", adminOnly: true, run: s.loadCSV},
		{key: "9", label: "Load Data from JSON file.", adminOnly: true, run: s.loadJSON},
		{key: "10", label: "Convert CSV data file to JSON data file.", adminOnly: true, run: s.convert},
		{key: "11", label: "Empty the data structure (Courses table).", adminOnly: true, run: s.clearCourses},
	}
	return s
}

// Run logs the user in and serves the menu until exit, end of input or
// cancellation of ctx. End of input is a normal exit. Rejected credentials
// return ErrLoginFailed after the reason has been printed.
func (s *Session) Run(ctx context.Context) error {
	s.println(welcomeMessage)

	if err := s.login(ctx); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.printMenu()
		choice, err := s.prompt("What would you like to do? ")
		if errors.Is(err, io.EOF) {
			s.println("")
			return nil
		}
		if err != nil {
			return err
		}

		if choice == exitChoice {
			s.println(farewellMessage)
			return nil
		}

		if err := s.dispatch(ctx, choice); err != nil {
			if errors.Is(err, io.EOF) {
				s.println("")
				return nil
			}
			return err
		}
	}
}

func (s *Session) login(ctx context.Context) error {
	email, err := s.prompt("Email: ")
	if err != nil {
		return err
	}
	password, err := s.prompt("Password: ")
	if err != nil {
		return err
	}

	user, err := s.accounts.Authenticate(ctx, email, password)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		s.println("User not found!")
		return ErrLoginFailed
	case errors.Is(err, apperror.ErrUnauthorized):
		s.println("Wrong password!")
		return ErrLoginFailed
	case err != nil:
		return fmt.Errorf("console: login: %w", err)
	}

	s.user = user
	s.logger.Info("session started", slog.String("email", user.Email), slog.String("role", user.Role.String()))
	return nil
}

func (s *Session) printMenu() {
	s.println("")
	for _, c := range s.commands {
		if c.adminOnly && !s.user.IsAdmin() {
			continue
		}
		s.printf("  %s. %s\n", c.key, c.label)
	}
	s.printf("  %s. Exit\n\n", exitChoice)
}

// dispatch runs the command behind choice. Errors from the services are
// printed and swallowed; only input errors are returned.
func (s *Session) dispatch(ctx context.Context, choice string) error {
	for _, c := range s.commands {
		if c.key != choice {
			continue
		}
		if c.adminOnly && !s.user.IsAdmin() {
			s.println(adminRequired)
			return nil
		}
		return c.run(ctx)
	}

	s.printf("%s is not a valid option.\n", choice)
	return nil
}

// prompt writes label and returns the next input line with surrounding
// whitespace removed. A final line without a newline is still returned;
// io.EOF is only reported once nothing is left.
func (s *Session) prompt(label string) (string, error) {
	s.printf("%s", label)
	line, err := s.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Session) println(line string) {
	fmt.Fprintln(s.out, line)
}

// report prints err for the user. Domain errors carry a message meant for
// people; anything else is logged as well.
func (s *Session) report(err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		s.println(appErr.Message)
		return
	}
	s.logger.Error("operation failed", slog.String("error", err.Error()))
	s.println(err.Error())
}

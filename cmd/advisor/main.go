// Command advisor is the interactive course planner. It logs one user in and
// serves the numbered menu on the terminal.
//
// Usage:
//
//	advisor [-config advisor.yaml] [-env .env]
//
// Settings come from the optional YAML file and ADVISOR_* environment
// variables; see internal/config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sakif/course-advisor/internal/auth"
	"github.com/sakif/course-advisor/internal/catalog"
	"github.com/sakif/course-advisor/internal/config"
	"github.com/sakif/course-advisor/internal/console"
	"github.com/sakif/course-advisor/internal/repository/sqlite"
	"github.com/sakif/course-advisor/internal/service"
)

type cliFlags struct {
	ConfigPath string
	EnvFile    string
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if !errors.Is(err, console.ErrLoginFailed) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("advisor", flag.ContinueOnError)
	fs.StringVar(&flags.ConfigPath, "config", "", "path to a YAML configuration file")
	fs.StringVar(&flags.EnvFile, "env", ".env", "dotenv file loaded before reading the environment")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(flags.ConfigPath, flags.EnvFile)
	if err != nil {
		return err
	}

	// Logs go to stderr so they never interleave with the menu on stdout.
	logger := cfg.Log.NewLogger(os.Stderr)

	if dir := filepath.Dir(cfg.Database.Path); cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}

	db, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()

	catalogs := service.NewCatalogService(db, catalog.NewLoader(logger), logger)
	accounts := service.NewAccountService(db, db, auth.NewPasswordServiceWithCost(cfg.Auth.BcryptCost), nil, logger)

	if cfg.Admin.Enabled() {
		if _, err := accounts.EnsureAdmin(ctx, service.NewUserInput{
			Name:     cfg.Admin.Name,
			Surname:  cfg.Admin.Surname,
			Email:    cfg.Admin.Email,
			Password: cfg.Admin.Password,
		}); err != nil {
			return err
		}
	}

	session := console.NewSession(catalogs, accounts, os.Stdin, os.Stdout, logger)
	return session.Run(ctx)
}

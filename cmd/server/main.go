// Command server runs the course advisor JSON API.
//
// Usage:
//
//	server [-config advisor.yaml] [-env .env]
//
// The API needs auth.jwt_secret (ADVISOR_AUTH_JWT_SECRET). Generate one with:
//
//	openssl rand -hex 32
//
// All real work lives in internal/server; main only loads configuration and
// starts it.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/sakif/course-advisor/internal/config"
	"github.com/sakif/course-advisor/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	envFile := flag.String("env", ".env", "dotenv file loaded before reading the environment")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger(os.Stdout)

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

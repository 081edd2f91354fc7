// Package server wires the JSON API: it opens the database, builds the
// services and mounts the handlers on a chi router.
//
// ROUTES:
//
//	POST   /api/login                         → token (body + cookie)
//	POST   /api/logout
//	GET    /api/courses                       → catalog, ordered by code
//	GET    /api/courses/{code}
//	GET    /api/me                            [auth]
//	GET    /api/me/completed                  [auth]
//	POST   /api/me/completed                  [auth]
//	GET    /api/courses/{code}/eligibility    [auth]
//	GET    /api/admin/users                   [admin]
//	POST   /api/admin/users                   [admin]
//	DELETE /api/admin/courses                 [admin]
//	POST   /api/admin/courses/import          [admin]
//
// Middleware runs in the order it is added: request ID, real IP, panic
// recovery, then request logging.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/course-advisor/internal/auth"
	"github.com/sakif/course-advisor/internal/catalog"
	"github.com/sakif/course-advisor/internal/config"
	"github.com/sakif/course-advisor/internal/handler"
	"github.com/sakif/course-advisor/internal/middleware"
	sqliteRepo "github.com/sakif/course-advisor/internal/repository/sqlite"
	"github.com/sakif/course-advisor/internal/service"
)

// shutdownTimeout bounds how long in-flight requests get after a signal.
const shutdownTimeout = 30 * time.Second

// Server is the HTTP API and the resources it owns.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB // owned by the server, closed on shutdown

	catalog  *service.CatalogService
	accounts *service.AccountService
	tokens   *auth.TokenService
}

// New opens the database named in cfg, seeds the bootstrap admin if one is
// configured and sets up the routes. The caller must call Start or Close.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("auth.jwt_secret: %w", err)
	}

	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		catalog:  service.NewCatalogService(db, catalog.NewLoader(logger), logger),
		accounts: service.NewAccountService(db, db, auth.NewPasswordServiceWithCost(cfg.Auth.BcryptCost), tokens, logger),
		tokens:   tokens,
	}

	if cfg.Admin.Enabled() {
		if _, err := s.accounts.EnsureAdmin(context.Background(), service.NewUserInput{
			Name:     cfg.Admin.Name,
			Surname:  cfg.Admin.Surname,
			Email:    cfg.Admin.Email,
			Password: cfg.Admin.Password,
		}); err != nil {
			db.Close()
			return nil, err
		}
	}

	s.setupRoutes()
	return s, nil
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	authHandler := handler.NewAuthHandler(s.accounts, s.logger)
	courseHandler := handler.NewCourseHandler(s.catalog, s.logger)
	studentHandler := handler.NewStudentHandler(s.accounts, s.catalog, s.logger)
	adminHandler := handler.NewAdminHandler(s.accounts, s.catalog, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)

		r.Get("/courses", courseHandler.HandleList)
		r.Get("/courses/{code}", courseHandler.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(s.tokens))

			r.Get("/me", studentHandler.HandleMe)
			r.Get("/me/completed", studentHandler.HandleListCompleted)
			r.Post("/me/completed", studentHandler.HandleAddCompleted)
			r.Get("/courses/{code}/eligibility", studentHandler.HandleEligibility)

			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireAdmin)

				r.Get("/users", adminHandler.HandleListUsers)
				r.Post("/users", adminHandler.HandleCreateUser)
				r.Delete("/courses", adminHandler.HandleClearCourses)
				r.Post("/courses/import", adminHandler.HandleImport)
			})
		})
	})
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests and
// closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
			slog.String("database", s.config.Database.Path),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

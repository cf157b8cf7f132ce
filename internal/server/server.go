// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer: it connects handlers, middleware and
// routes, and owns the resources that live as long as the process (the
// database connection and the profile locks).
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → Server
//	Server.New() creates: sqlite.DB → handler.Workspaces → handlers
//
// Every request opens its own service.Workspace over the profile's storage;
// nothing domain-related is shared between requests except the database.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/prompt-cards/internal/auth"
	"github.com/sakif/prompt-cards/internal/config"
	"github.com/sakif/prompt-cards/internal/handler"
	"github.com/sakif/prompt-cards/internal/middleware"
	"github.com/sakif/prompt-cards/internal/repository"
	sqliteRepo "github.com/sakif/prompt-cards/internal/repository/sqlite"
	"github.com/sakif/prompt-cards/internal/service"
)

const shutdownGrace = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection. Run closes it during graceful
// shutdown so pending WAL writes are flushed.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	tokens *auth.TokenService
	locks  *middleware.KeyedMutex
}

// New opens the database and wires every route.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.ProfileSecret)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		tokens: tokens,
		locks:  middleware.NewKeyedMutex(),
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /                                   → owner page (HTML)
//	POST   /prompts                            → add a prompt
//	POST   /prompts/{id}/delete                → delete (asks first)
//	POST   /prompts/{id}/edit                  → move back into the form
//	POST   /prompts/{id}/visibility            → make public / private
//	GET    /prompts/{id}/export                → download as HTML
//	POST   /settings                           → apply style preferences
//	POST   /auth/login | /auth/signup | /auth/logout
//	GET    /public?user={id}                   → share page (HTML)
//	GET    /public/prompts/{id}/export         → download from the share page
//	GET    /api/prompts                        → visible records (JSON)
//	GET    /api/prompts/{id}/clipboard         → clipboard payload (JSON)
//	GET    /api/public/prompts/{id}/clipboard  → clipboard payload (JSON)
//	PUT    /api/draft                          → save the add form draft
//	GET    /static/*                           → stylesheet and script
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID, RealIP, Recoverer: chi's built-ins
// 2. auth.Profile attaches the browser profile, minting one if needed
// 3. Logger runs after Profile so it can log the profile id
// 4. SerializeProfile wraps only the routes that touch a profile's storage
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(auth.Profile(s.tokens, s.config.SecureCookies, s.logger))
	s.router.Use(middleware.Logger(s.logger))

	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	renderer, err := handler.NewRenderer(s.config.TemplateDir, s.logger)
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	workspaces := handler.NewWorkspaces(s.profileStorage, service.Options{
		Passwords: auth.NewPasswordService(s.config.PasswordHashing),
		Logger:    s.logger,
	})
	pages := handler.NewPageHandler(workspaces, renderer, s.config.BaseURL, s.logger)
	prompts := handler.NewPromptHandler(workspaces, pages, renderer, s.logger)
	authHandler := handler.NewAuthHandler(workspaces, pages, s.logger)

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.SerializeProfile(s.locks))

		r.Get("/", pages.HandleOwner)
		r.Get("/public", pages.HandlePublic)

		r.Post("/prompts", prompts.HandleAdd)
		r.Post("/prompts/{id}/delete", prompts.HandleDelete)
		r.Post("/prompts/{id}/edit", prompts.HandleEdit)
		r.Post("/prompts/{id}/visibility", prompts.HandleToggleVisibility)
		r.Get("/prompts/{id}/export", prompts.HandleExport)
		r.Get("/public/prompts/{id}/export", prompts.HandlePublicExport)
		r.Post("/settings", prompts.HandleSettings)

		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/signup", authHandler.HandleSignup)
		r.Post("/auth/logout", authHandler.HandleLogout)

		r.Route("/api", func(r chi.Router) {
			r.Get("/prompts", prompts.HandleList)
			r.Get("/prompts/{id}/clipboard", prompts.HandleClipboard)
			r.Get("/public/prompts/{id}/clipboard", prompts.HandlePublicClipboard)
			r.Put("/draft", prompts.HandleSaveDraft)
		})
	})

	return nil
}

func (s *Server) profileStorage(profileID string) repository.Storage {
	return s.db.Profile(profileID)
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to shutdownGrace and closes the database.
func (s *Server) Run(ctx context.Context) error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	listenErr := make(chan error, 1)
	go func() {
		s.logger.Info("listening",
			slog.String("addr", srv.Addr),
			slog.String("database", s.config.DBPath),
			slog.Bool("password_hashing", s.config.PasswordHashing),
		)
		listenErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-listenErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listening on %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("draining connections", slog.Duration("grace", shutdownGrace))
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	s.logger.Info("stopped")
	return nil
}

// Close releases the database without serving. Used when Run is never called.
func (s *Server) Close() error {
	return s.db.Close()
}

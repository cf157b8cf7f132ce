// Package main is the entry point for the prompt card server.
//
// The main package stays minimal:
// 1. Load configuration (defaults, CONFIG_FILE, environment)
// 2. Create the logger and make sure the data directory exists
// 3. Run the server until interrupted
//
// All actual logic lives in internal/server, internal/handler and below.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sakif/prompt-cards/internal/config"
	"github.com/sakif/prompt-cards/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))

	if cfg.GeneratedSecret {
		logger.Warn("PROFILE_SECRET not set, using a random secret: browser profiles reset on restart")
	}

	// run blocks until Ctrl+C or SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, *cfg, logger)
	stop()
	if err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run prepares the file system for cfg and serves until ctx is done.
func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	// === 3. RESOLVE FILE PATHS ===
	// Relative paths are resolved against the working directory, usually the
	// project root.
	if abs, err := filepath.Abs(cfg.TemplateDir); err == nil {
		cfg.TemplateDir = abs
	}
	if abs, err := filepath.Abs(cfg.StaticDir); err == nil {
		cfg.StaticDir = abs
	}

	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return fmt.Errorf("creating database directory %s: %w", dbDir, err)
	}

	// === 4. CREATE AND RUN THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	return srv.Run(ctx)
}

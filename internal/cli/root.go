// Package cli is the operator command line for the prompt card database.
//
// Every command opens the SQLite database, works on one browser profile's
// blobs through the same service.Workspace the HTTP handlers use, and closes
// it again. It is safe to run next to the server: SQLite's busy timeout
// makes the two wait for each other.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/prompt-cards/internal/auth"
	"github.com/sakif/prompt-cards/internal/clipboard"
	"github.com/sakif/prompt-cards/internal/config"
	"github.com/sakif/prompt-cards/internal/render"
	"github.com/sakif/prompt-cards/internal/repository/sqlite"
	"github.com/sakif/prompt-cards/internal/service"
)

// Copier writes a clipboard payload. *clipboard.Writer is the real one.
type Copier interface {
	Copy(ctx context.Context, payload render.Clipboard) clipboard.Outcome
}

type App struct {
	DBPath   string
	Profile  string
	LogLevel string

	logger *slog.Logger
	// newCopier is swapped out by tests.
	newCopier func(logger *slog.Logger) Copier
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{
		newCopier: func(logger *slog.Logger) Copier { return clipboard.New(logger) },
	})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "promptcards",
		Short:        "Inspect and maintain the prompt card database",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Which browser profiles have data
  promptcards profiles

  # The cards a profile currently sees
  promptcards --profile cv1abc list

  # Copy a card as rich text, with plain text and terminal fallbacks
  promptcards --profile cv1abc copy d0f3kq

  # Load a browser's local storage dump into a new profile
  promptcards import storage.json
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level, err := config.ParseLevel(app.LogLevel)
		if err != nil {
			return err
		}
		app.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.DBPath, "db", envOr("DB_PATH", "data/prompts.db"), "Path to the SQLite database")
	cmd.PersistentFlags().StringVar(&app.Profile, "profile", envOr("PROMPTCARDS_PROFILE", ""), "Browser profile id (the value inside the "+auth.CookieName+" cookie)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("LOG_LEVEL", "warn"), "Log level (debug|info|warn|error)")

	cmd.AddCommand(newProfilesCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newCopyCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newDeleteCmd(app))
	cmd.AddCommand(newImportCmd(app))

	return cmd
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func openDB(app *App) (*sqlite.DB, error) {
	db, err := sqlite.New(app.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", app.DBPath, err)
	}
	return db, nil
}

// openWorkspace loads the --profile workspace. The caller closes db.
func openWorkspace(ctx context.Context, app *App) (*service.Workspace, *sqlite.DB, error) {
	if app.Profile == "" {
		return nil, nil, errMissingProfile
	}
	db, err := openDB(app)
	if err != nil {
		return nil, nil, err
	}
	ws := service.OpenWorkspace(ctx, db.Profile(app.Profile), service.Options{
		Passwords: auth.NewPasswordService(false),
		Logger:    app.logger,
	})
	return ws, db, nil
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

// firstLine shortens s to one line of at most n runes for table output.
func firstLine(s string, n int) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}

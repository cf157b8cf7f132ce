package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/rs/xid"
	"github.com/spf13/cobra"

	"github.com/sakif/prompt-cards/internal/clipboard"
	"github.com/sakif/prompt-cards/internal/model"
	"github.com/sakif/prompt-cards/internal/render"
	"github.com/sakif/prompt-cards/internal/repository"
	"github.com/sakif/prompt-cards/internal/service"
)

var errMissingProfile = errors.New("--profile is required (see: promptcards profiles)")

// =========================================================================
// PROFILES
// =========================================================================

func newProfilesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List browser profiles that have stored data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			profiles, err := db.Profiles(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PROFILE\tKEYS\tUPDATED")
			for _, p := range profiles {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", p.ID, p.Keys, humanize.Time(p.UpdatedAt))
			}
			return tw.Flush()
		},
	}
}

// =========================================================================
// LIST
// =========================================================================

func newListCmd(app *App) *cobra.Command {
	var asJSON, public bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the cards the profile's owner page shows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, db, err := openWorkspace(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			if public {
				ws.Session.SetView(model.ViewPublic)
			}
			records := ws.Visible()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			out := cmd.OutOrStdout()
			state := ws.Session.State()
			if state.User != nil {
				fmt.Fprintf(out, "Logged in as %s <%s>\n", state.User.Username, state.User.Email)
			} else {
				fmt.Fprintln(out, "No session: legacy collection")
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No prompts.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tVISIBILITY\tAI\tMODEL\tCREATED\tPROMPT")
			for _, r := range records {
				visibility := "private"
				if r.IsPublic {
					visibility = "public"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID, visibility, firstLine(r.AIName, 20), firstLine(r.ModelName, 20), r.Timestamp, firstLine(r.Prompt, 50))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the records as JSON")
	cmd.Flags().BoolVar(&public, "public", false, "Only the records shared on the public view")
	return cmd
}

// =========================================================================
// COPY
// =========================================================================

func newCopyCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "copy <id>",
		Short: "Copy a card to the system clipboard",
		Long: strings.TrimSpace(`
Copy a card as rich text (HTML). When no HTML-capable clipboard tool is
available it falls back to plain text, then to an OSC 52 terminal selection.
If every tier fails the plain text is printed to stdout instead.
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, db, err := openWorkspace(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			rec, err := ws.Session.Record(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}

			payload := render.ClipboardPayload(rec)
			outcome := app.newCopier(app.logger).Copy(cmd.Context(), payload)
			if !outcome.Copied() {
				fmt.Fprintf(cmd.ErrOrStderr(), "clipboard unavailable (%v), printing instead\n", outcome.Err)
				_, err := io.WriteString(cmd.OutOrStdout(), payload.Text+"\n")
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "copied to clipboard (%s)\n", outcome.Tier)
			return nil
		},
	}
}

// =========================================================================
// EXPORT
// =========================================================================

func newExportCmd(app *App) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a card as a standalone HTML document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, db, err := openWorkspace(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			rec, err := ws.Session.Record(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			doc, err := render.ExportDocument(rec)
			if err != nil {
				return writeErr(cmd, err)
			}

			path := filepath.Join(outDir, render.ExportFilename(ws.Now()))
			if err := os.WriteFile(path, doc, 0o644); err != nil {
				return writeErr(cmd, fmt.Errorf("writing export: %w", err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory to write the document to")
	return cmd
}

// =========================================================================
// DELETE
// =========================================================================

func newDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a card (asks first unless --yes)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, db, err := openWorkspace(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			confirm := service.ConfirmFunc(func(_ context.Context, rec model.PromptRecord) bool {
				if yes {
					return true
				}
				return askYesNo(cmd.InOrStdin(), cmd.ErrOrStderr(),
					fmt.Sprintf("Delete %q (%s / %s)? [y/N] ", firstLine(rec.Prompt, 60), rec.AIName, rec.ModelName))
			})

			res, err := ws.Dispatch(cmd.Context(), service.Command{Action: service.ActionDeletePrompt, ID: args[0], Confirmer: confirm})
			if err != nil {
				return writeErr(cmd, err)
			}
			if !res.Changed {
				fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking")
	return cmd
}

// askYesNo reads one line from in; only y or yes confirm.
func askYesNo(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprint(out, question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// =========================================================================
// IMPORT
// =========================================================================

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load a browser local storage dump into a profile",
		Long: strings.TrimSpace(`
Load a JSON object of local storage entries, as copied from the browser's
developer tools, into a profile. Values may be the stored JSON strings or
plain JSON. Only the prompt manager's keys are imported:

  ` + strings.Join(repository.Keys, ", ") + `

Without --profile a new profile id is minted and printed.
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			entries, skipped, err := parseStorageDump(raw)
			if err != nil {
				return writeErr(cmd, fmt.Errorf("%s: %w", args[0], err))
			}
			for _, key := range skipped {
				app.logger.Warn("skipping unknown key", slog.String("key", key))
			}

			if app.Profile == "" {
				app.Profile = xid.New().String()
				fmt.Fprintln(cmd.OutOrStdout(), "profile", app.Profile)
			}

			db, err := openDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			storage := db.Profile(app.Profile)
			for _, key := range repository.Keys {
				value, ok := entries[key]
				if !ok {
					continue
				}
				if err := storage.Put(cmd.Context(), key, value); err != nil {
					return writeErr(cmd, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d keys\n", len(entries))
			return nil
		},
	}
}

// parseStorageDump decodes {key: value} where value is either a JSON
// document encoded as a string (how local storage holds it) or the
// document itself. Keys the prompt manager does not use are returned in
// skipped, sorted, and not checked.
func parseStorageDump(raw []byte) (entries map[string][]byte, skipped []string, err error) {
	var dump map[string]json.RawMessage
	if err := json.Unmarshal(raw, &dump); err != nil {
		return nil, nil, fmt.Errorf("not a JSON object: %w", err)
	}

	entries = make(map[string][]byte, len(dump))
	for key, value := range dump {
		if !slices.Contains(repository.Keys, key) {
			skipped = append(skipped, key)
			continue
		}
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			value = json.RawMessage(s)
		}
		if !json.Valid(value) {
			return nil, nil, fmt.Errorf("value of %s is not JSON", key)
		}
		entries[key] = value
	}
	slices.Sort(skipped)
	return entries, skipped, nil
}

var _ Copier = (*clipboard.Writer)(nil)

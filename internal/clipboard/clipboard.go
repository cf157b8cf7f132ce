// Package clipboard writes a prompt record to the system clipboard from the
// command line, trying the richest form first.
//
// TIERS, IN ORDER:
//
//	Rich      → HTML via wl-copy / xclip with a text/html target
//	Plain     → plain text via the platform clipboard (pbcopy, clip, xsel...)
//	Selection → plain text as an OSC 52 escape sequence on the terminal
//	None      → nothing worked; the caller shows the text instead
//
// Every attempt reports which tier fired so callers never have to guess.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
	"github.com/mattn/go-isatty"

	"github.com/sakif/prompt-cards/internal/render"
)

// Tier names the clipboard mechanism that took the content.
type Tier int

const (
	TierNone Tier = iota
	TierRich
	TierPlain
	TierSelection
)

func (t Tier) String() string {
	switch t {
	case TierRich:
		return "rich"
	case TierPlain:
		return "plain"
	case TierSelection:
		return "selection"
	default:
		return "none"
	}
}

// Outcome reports a copy. Err is the last failure when Tier is TierNone.
type Outcome struct {
	Tier Tier
	Err  error
}

// Copied reports whether any tier took the content.
func (o Outcome) Copied() bool {
	return o.Tier != TierNone
}

// ErrNoTerminal is returned by the selection tier when output isn't a terminal.
var ErrNoTerminal = errors.New("clipboard: output is not a terminal")

// Writer tries each tier in order. The zero value is not usable; use New.
type Writer struct {
	rich      func(ctx context.Context, html string) error
	plain     func(text string) error
	selection func(text string) error
	logger    *slog.Logger
}

// Option overrides one tier, mostly for tests.
type Option func(*Writer)

func WithRich(fn func(ctx context.Context, html string) error) Option {
	return func(w *Writer) { w.rich = fn }
}

func WithPlain(fn func(text string) error) Option {
	return func(w *Writer) { w.plain = fn }
}

// WithSelection sends OSC 52 sequences to out. isTerminal gates the tier.
func WithSelection(out io.Writer, isTerminal func() bool) Option {
	return func(w *Writer) { w.selection = oscWriter(out, isTerminal) }
}

// New returns a Writer using the host's clipboard tools and stderr as the terminal.
func New(logger *slog.Logger, opts ...Option) *Writer {
	w := &Writer{
		rich:  copyHTML,
		plain: copyPlain,
		selection: oscWriter(os.Stderr, func() bool {
			fd := os.Stderr.Fd()
			return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		}),
		logger: logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Copy writes the payload, falling through the tiers until one succeeds.
func (w *Writer) Copy(ctx context.Context, payload render.Clipboard) Outcome {
	text := strings.ReplaceAll(payload.Text, "\r\n", "\n")

	attempts := []struct {
		tier Tier
		run  func() error
	}{
		{TierRich, func() error { return w.rich(ctx, payload.HTML) }},
		{TierPlain, func() error { return w.plain(text) }},
		{TierSelection, func() error { return w.selection(text) }},
	}

	var last error
	for _, a := range attempts {
		if err := ctx.Err(); err != nil {
			return Outcome{Tier: TierNone, Err: err}
		}
		if err := a.run(); err != nil {
			w.logger.Debug("clipboard tier failed", slog.String("tier", a.tier.String()), slog.String("error", err.Error()))
			last = err
			continue
		}
		return Outcome{Tier: a.tier}
	}

	w.logger.Warn("clipboard unavailable", slog.String("error", last.Error()))
	return Outcome{Tier: TierNone, Err: last}
}

// =========================================================================
// TIERS
// =========================================================================

// copyHTML offers the content as text/html. Only Wayland and X11 tools can
// set a MIME target from the command line.
func copyHTML(ctx context.Context, html string) error {
	if runtime.GOOS != "linux" && runtime.GOOS != "freebsd" {
		return fmt.Errorf("clipboard: no html target on %s", runtime.GOOS)
	}
	if err := runClipboardCmd(ctx, "wl-copy", []string{"--type", "text/html"}, html); err == nil {
		return nil
	}
	return runClipboardCmd(ctx, "xclip", []string{"-selection", "clipboard", "-t", "text/html"}, html)
}

func copyPlain(text string) error {
	if clipboard.Unsupported {
		return errors.New("clipboard: no platform clipboard tool found")
	}
	return clipboard.WriteAll(text)
}

func oscWriter(out io.Writer, isTerminal func() bool) func(string) error {
	return func(text string) error {
		if !isTerminal() {
			return ErrNoTerminal
		}
		seq := osc52.New(text)
		if os.Getenv("TMUX") != "" {
			seq = seq.Tmux()
		}
		_, err := seq.WriteTo(out)
		return err
	}
}

func runClipboardCmd(ctx context.Context, name string, args []string, stdin string) error {
	if _, err := exec.LookPath(name); err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(stdin)
	if err := cmd.Run(); err != nil {
		return errors.New(name + ": " + err.Error())
	}
	return nil
}

// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the profile's blobs
//
// One browser profile is one Workspace: its style preferences, its user
// directory, its session and its prompt collections. Every request (or CLI
// invocation) opens the workspace, runs one action to completion and flushes.
//
// DEPENDENCY INJECTION:
// Services take a *repository.Store built on the repository.Storage
// interface, NOT a *sqlite.DB. Tests pass an in-memory fake.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/prompt-cards/internal/model"
	"github.com/sakif/prompt-cards/internal/repository"
)

// PreferencesService loads and applies the profile's display preferences.
// Preferences belong to the profile, not to any user.
type PreferencesService struct {
	store  *repository.Store
	logger *slog.Logger
}

func NewPreferencesService(store *repository.Store, logger *slog.Logger) *PreferencesService {
	return &PreferencesService{store: store, logger: logger}
}

// Load returns the stored preferences with defaults filled in.
func (s *PreferencesService) Load(ctx context.Context) model.StylePreferences {
	return s.store.LoadSettings(ctx)
}

// Apply sanitizes raw form input, persists it and returns the result.
//
// INPUT IS NEVER REJECTED:
//   - "18", "18px", " 18.9" → 18 (leading integer)
//   - "", "abc", "0"        → the default
//   - "-4", "500"           → clamped into range
//
// An empty or unknown font family falls back to the default family.
func (s *PreferencesService) Apply(ctx context.Context, rawFontSize, rawCardWidth, fontFamily string) (model.StylePreferences, error) {
	prefs := model.StylePreferences{
		FontSize:   orDefault(rawFontSize, model.DefaultFontSize),
		CardWidth:  orDefault(rawCardWidth, model.DefaultCardWidth),
		FontFamily: fontFamily,
	}.Normalized()

	if err := s.store.SaveSettings(ctx, prefs); err != nil {
		return prefs, err
	}

	s.logger.Debug("style preferences applied",
		slog.Int("font_size", prefs.FontSize),
		slog.Int("card_width", prefs.CardWidth),
	)
	return prefs, nil
}

func orDefault(raw string, def int) int {
	n, ok := ParseLeadingInt(raw)
	if !ok || n == 0 {
		return def
	}
	return n
}

// ParseLeadingInt parses the integer at the start of s, ignoring leading
// whitespace and anything after the digits. ok is false if s does not
// start with an optionally signed digit.
func ParseLeadingInt(s string) (n int, ok bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}

	digits := 0
	for _, c := range []byte(s) {
		if c < '0' || c > '9' {
			break
		}
		// saturate instead of overflowing, the value is clamped anyway
		if n < 1_000_000_000 {
			n = n*10 + int(c-'0')
		}
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/sakif/prompt-cards/internal/apperror"
	"github.com/sakif/prompt-cards/internal/model"
)

// Store reads and writes the typed blobs of one profile.
//
// READ FAILURES ARE NOT FATAL:
// A missing key, a backend error or a blob that no longer decodes all mean
// "no data yet". Loads log a warning (except for plain absence) and return
// the neutral default, so a corrupted blob never locks a user out of the page.
// Saves, on the other hand, return their error: losing a write silently
// would drop user data.
type Store struct {
	storage Storage
	logger  *slog.Logger
}

// NewStore wraps a Storage with typed helpers.
func NewStore(storage Storage, logger *slog.Logger) *Store {
	return &Store{storage: storage, logger: logger}
}

// =========================================================================
// STYLE PREFERENCES
// =========================================================================

// LoadSettings returns the stored preferences, normalized. Defaults when absent.
func (s *Store) LoadSettings(ctx context.Context) model.StylePreferences {
	prefs := model.DefaultStylePreferences()
	var stored model.StylePreferences
	if s.load(ctx, KeySettings, &stored) {
		prefs = stored.Normalized()
	}
	return prefs
}

func (s *Store) SaveSettings(ctx context.Context, prefs model.StylePreferences) error {
	return s.save(ctx, KeySettings, prefs)
}

// =========================================================================
// USER DIRECTORY
// =========================================================================

// LoadUsers returns every registered user. Empty when absent.
func (s *Store) LoadUsers(ctx context.Context) []model.User {
	var users []model.User
	if !s.load(ctx, KeyUsers, &users) {
		return []model.User{}
	}
	if users == nil {
		users = []model.User{}
	}
	return users
}

func (s *Store) SaveUsers(ctx context.Context, users []model.User) error {
	if users == nil {
		users = []model.User{}
	}
	return s.save(ctx, KeyUsers, users)
}

// =========================================================================
// SESSION
// =========================================================================

// LoadSession returns the stored session, or nil when there is none. A
// stored null or a session naming no user counts as none.
func (s *Store) LoadSession(ctx context.Context) *model.Session {
	var session model.Session
	if !s.load(ctx, KeySession, &session) || session.UserID == "" {
		return nil
	}
	return &session
}

// SaveSession records userID as the active user.
func (s *Store) SaveSession(ctx context.Context, userID string, now time.Time) error {
	return s.save(ctx, KeySession, model.Session{UserID: userID, Timestamp: now})
}

func (s *Store) ClearSession(ctx context.Context) error {
	return s.remove(ctx, KeySession)
}

// =========================================================================
// LEGACY PROMPTS
// =========================================================================

// LoadLegacyPrompts returns the unscoped collection used when nobody is logged in.
func (s *Store) LoadLegacyPrompts(ctx context.Context) []model.PromptRecord {
	var prompts []model.PromptRecord
	if !s.load(ctx, KeyLegacyPrompts, &prompts) || prompts == nil {
		return []model.PromptRecord{}
	}
	return prompts
}

func (s *Store) SaveLegacyPrompts(ctx context.Context, prompts []model.PromptRecord) error {
	if prompts == nil {
		prompts = []model.PromptRecord{}
	}
	return s.save(ctx, KeyLegacyPrompts, prompts)
}

// =========================================================================
// DRAFT
// =========================================================================

func (s *Store) LoadDraft(ctx context.Context) model.Draft {
	var draft model.Draft
	s.load(ctx, KeyDraft, &draft)
	return draft
}

func (s *Store) SaveDraft(ctx context.Context, draft model.Draft) error {
	return s.save(ctx, KeyDraft, draft)
}

func (s *Store) ClearDraft(ctx context.Context) error {
	return s.remove(ctx, KeyDraft)
}

// =========================================================================
// HELPERS
// =========================================================================

// load decodes the blob at key into dst and reports whether it did.
func (s *Store) load(ctx context.Context, key string, dst any) bool {
	raw, err := s.storage.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Warn("storage read failed, using defaults", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Warn("stored blob is not valid JSON, using defaults", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return apperror.StorageUnavailable(key, err)
	}
	if err := s.storage.Put(ctx, key, raw); err != nil {
		return apperror.StorageUnavailable(key, err)
	}
	return nil
}

func (s *Store) remove(ctx context.Context, key string) error {
	if err := s.storage.Delete(ctx, key); err != nil {
		return apperror.StorageUnavailable(key, err)
	}
	return nil
}

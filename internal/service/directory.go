package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/prompt-cards/internal/apperror"
	"github.com/sakif/prompt-cards/internal/auth"
	"github.com/sakif/prompt-cards/internal/model"
	"github.com/sakif/prompt-cards/internal/repository"
)

// Directory is the profile's registered accounts.
//
// It holds the snapshot loaded when the workspace opened. Every mutation is
// flushed to storage before the method returns, so a later read (the public
// page, the next request) always sees it.
type Directory struct {
	store     *repository.Store
	passwords *auth.PasswordService
	logger    *slog.Logger
	now       func() time.Time
	users     []model.User
}

// LoadDirectory reads the directory snapshot.
//
// Records without an id, or whose id repeats an earlier record of the same
// list, get a fresh id here, and the repaired directory is written back at
// once so the next load sees the same ids.
func LoadDirectory(ctx context.Context, store *repository.Store, passwords *auth.PasswordService, logger *slog.Logger, now func() time.Time) *Directory {
	users := store.LoadUsers(ctx)

	repaired := false
	seen := make(map[string]bool, len(users))
	for i := range users {
		if users[i].ID == "" || seen[users[i].ID] {
			users[i].ID = xid.New().String()
			repaired = true
			logger.Warn("user record had a missing or duplicate id, reassigned", "email", users[i].Email, "id", users[i].ID)
		}
		seen[users[i].ID] = true
		var fixed bool
		users[i].Prompts, fixed = normalizeRecords(users[i].Prompts, logger)
		repaired = repaired || fixed
	}

	if repaired {
		if err := store.SaveUsers(ctx, users); err != nil {
			logger.Error("saving repaired user ids", "error", err)
		}
	}

	return &Directory{
		store:     store,
		passwords: passwords,
		logger:    logger,
		now:       now,
		users:     users,
	}
}

// FindByCredentials returns the first user whose email matches exactly and
// whose stored password matches. Linear scan, first match wins.
func (d *Directory) FindByCredentials(email, password string) (model.User, bool) {
	for _, u := range d.users {
		if u.Email == email && d.passwords.Matches(u.Password, password) {
			return cloneUser(u), true
		}
	}
	return model.User{}, false
}

func (d *Directory) FindByID(id string) (model.User, bool) {
	if i := d.indexOf(id); i >= 0 {
		return cloneUser(d.users[i]), true
	}
	return model.User{}, false
}

// Register creates an account with an empty prompt list and a snapshot of prefs.
// Fails with DuplicateEmail on an exact (case-sensitive) email match and
// leaves the directory untouched.
func (d *Directory) Register(ctx context.Context, username, email, password string, prefs model.StylePreferences) (model.User, error) {
	switch {
	case username == "":
		return model.User{}, apperror.ValidationFailed("username", "Please fill in all fields")
	case email == "":
		return model.User{}, apperror.ValidationFailed("email", "Please fill in all fields")
	case password == "":
		return model.User{}, apperror.ValidationFailed("password", "Please fill in all fields")
	}

	for _, u := range d.users {
		if u.Email == email {
			return model.User{}, apperror.DuplicateEmail(email)
		}
	}

	stored, err := d.passwords.Protect(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return model.User{}, apperror.ValidationFailed("password", "Password must be 72 bytes or fewer")
		}
		return model.User{}, err
	}

	user := model.User{
		ID:        xid.New().String(),
		Username:  username,
		Email:     email,
		Password:  stored,
		Prompts:   []model.PromptRecord{},
		CreatedAt: d.now().UTC(),
		Settings:  prefs,
	}

	users := append(d.users[:len(d.users):len(d.users)], user)
	if err := d.store.SaveUsers(ctx, users); err != nil {
		return model.User{}, err
	}
	d.users = users

	d.logger.Info("user registered", slog.String("user_id", user.ID))
	return cloneUser(user), nil
}

// Persist replaces the stored entry for user.ID and flushes the directory.
func (d *Directory) Persist(ctx context.Context, user model.User) error {
	i := d.indexOf(user.ID)
	if i < 0 {
		return apperror.NotFound("user", user.ID)
	}

	users := make([]model.User, len(d.users))
	copy(users, d.users)
	users[i] = cloneUser(user)

	if err := d.store.SaveUsers(ctx, users); err != nil {
		return err
	}
	d.users = users
	return nil
}

// Users returns a copy of the directory snapshot.
func (d *Directory) Users() []model.User {
	out := make([]model.User, len(d.users))
	for i, u := range d.users {
		out[i] = cloneUser(u)
	}
	return out
}

func (d *Directory) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range d.users {
		if d.users[i].ID == id {
			return i
		}
	}
	return -1
}

// cloneUser copies u including its prompt slice, so callers can't mutate the snapshot.
func cloneUser(u model.User) model.User {
	u.Prompts = cloneRecords(u.Prompts)
	return u
}

func cloneRecords(records []model.PromptRecord) []model.PromptRecord {
	out := make([]model.PromptRecord, len(records))
	copy(out, records)
	return out
}

// normalizeRecords gives every record a unique id and reports whether any
// id changed. Never returns nil.
func normalizeRecords(records []model.PromptRecord, logger *slog.Logger) ([]model.PromptRecord, bool) {
	if records == nil {
		return []model.PromptRecord{}, false
	}
	repaired := false
	seen := make(map[string]bool, len(records))
	for i := range records {
		if records[i].ID == "" || seen[records[i].ID] {
			old := records[i].ID
			records[i].ID = xid.New().String()
			repaired = true
			logger.Warn("prompt record had a missing or duplicate id, reassigned", "old_id", old, "id", records[i].ID)
		}
		seen[records[i].ID] = true
	}
	return records, repaired
}

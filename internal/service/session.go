package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/sakif/prompt-cards/internal/apperror"
	"github.com/sakif/prompt-cards/internal/model"
	"github.com/sakif/prompt-cards/internal/repository"
)

// Resolution reports how the stored session reference was resolved.
type Resolution int

const (
	// ResolutionNone: no session stored, legacy mode.
	ResolutionNone Resolution = iota
	// ResolutionUser: the session resolved to a user.
	ResolutionUser
	// ResolutionStale: a session is stored but its user is gone. Legacy mode.
	ResolutionStale
)

func (r Resolution) String() string {
	switch r {
	case ResolutionUser:
		return "user"
	case ResolutionStale:
		return "stale"
	default:
		return "none"
	}
}

// State is the complete in-memory application state of one workspace.
//
// Exactly one of two modes holds: User != nil (active session, Prompts is
// that user's collection) or User == nil (legacy mode, Prompts is the
// unscoped collection).
type State struct {
	User    *model.User
	Prompts []model.PromptRecord
	View    model.ViewMode
	Outcome Resolution
}

// Active reports whether a session is active.
func (s State) Active() bool {
	return s.User != nil
}

// ViewContext returns the filter input for this state outside a share link.
func (s State) ViewContext() ViewContext {
	return ViewContext{
		SessionActive: s.Active(),
		View:          s.View,
		Scoped:        s.Prompts,
	}
}

// SessionManager owns the State and every operation that mutates it.
//
// All mutators follow the same turn: change the in-memory state, flush it
// to storage, return. A failed flush leaves the in-memory state unchanged.
type SessionManager struct {
	store     *repository.Store
	directory *Directory
	logger    *slog.Logger
	now       func() time.Time
	state     State
}

// NewSessionManager creates a SessionManager and resolves the stored session.
func NewSessionManager(ctx context.Context, store *repository.Store, directory *Directory, logger *slog.Logger, now func() time.Time) *SessionManager {
	m := &SessionManager{
		store:     store,
		directory: directory,
		logger:    logger,
		now:       now,
	}
	m.Resolve(ctx)
	return m
}

// State returns a copy of the current state.
func (m *SessionManager) State() State {
	s := m.state
	if s.User != nil {
		u := cloneUser(*s.User)
		s.User = &u
	}
	s.Prompts = cloneRecords(s.Prompts)
	return s
}

// Resolve rebuilds the state from storage.
//
// RESOLUTION RULES:
//   - no stored session           → legacy mode, legacy collection
//   - session resolves to a user  → that user's collection, owner view
//   - session names a missing user → legacy mode; the stale reference is
//     logged and left in storage
func (m *SessionManager) Resolve(ctx context.Context) Resolution {
	m.state = State{View: model.ViewOwner}

	session := m.store.LoadSession(ctx)
	if session != nil {
		if user, ok := m.directory.FindByID(session.UserID); ok {
			m.state.User = &user
			m.state.Prompts = user.Prompts
			m.state.Outcome = ResolutionUser
			return m.state.Outcome
		}
		m.logger.Warn("session ignored",
			"error", apperror.StaleReference("user", session.UserID),
		)
		m.state.Outcome = ResolutionStale
	}

	m.state.Prompts = m.loadLegacy(ctx)
	return m.state.Outcome
}

// Login activates the session of the user matching the credentials.
// Fails with AuthFailure and no state change when nothing matches.
func (m *SessionManager) Login(ctx context.Context, email, password string) (model.User, error) {
	user, ok := m.directory.FindByCredentials(email, password)
	if !ok {
		m.logger.Info("login failed")
		return model.User{}, apperror.AuthFailed()
	}

	if err := m.store.SaveSession(ctx, user.ID, m.now().UTC()); err != nil {
		return model.User{}, err
	}

	m.state = State{
		User:    &user,
		Prompts: cloneRecords(user.Prompts),
		View:    model.ViewOwner,
		Outcome: ResolutionUser,
	}
	m.logger.Info("user logged in", slog.String("user_id", user.ID))
	return cloneUser(user), nil
}

// Logout writes the scoped collection back to the user, clears the session
// and returns to legacy mode in owner view. With no active session it still
// removes whatever session blob is stored.
func (m *SessionManager) Logout(ctx context.Context) error {
	if m.state.User != nil {
		user := cloneUser(*m.state.User)
		user.Prompts = cloneRecords(m.state.Prompts)
		if err := m.directory.Persist(ctx, user); err != nil {
			return err
		}
		m.logger.Info("user logged out", slog.String("user_id", user.ID))
	}
	// also drops a stale reference left by a deleted user
	if err := m.store.ClearSession(ctx); err != nil {
		return err
	}

	m.state = State{
		Prompts: m.loadLegacy(ctx),
		View:    model.ViewOwner,
		Outcome: ResolutionNone,
	}
	return nil
}

// loadLegacy reads the legacy collection and writes it straight back when
// ids had to be repaired, so the ids shown stay valid on the next request.
func (m *SessionManager) loadLegacy(ctx context.Context) []model.PromptRecord {
	prompts, repaired := normalizeRecords(m.store.LoadLegacyPrompts(ctx), m.logger)
	if repaired {
		if err := m.store.SaveLegacyPrompts(ctx, prompts); err != nil {
			m.logger.Error("saving repaired prompt ids", "error", err)
		}
	}
	return prompts
}

// SetView switches between owner and public view. Only meaningful with an
// active session; legacy mode always stays in owner view.
func (m *SessionManager) SetView(view model.ViewMode) {
	if m.state.User == nil {
		m.state.View = model.ViewOwner
		return
	}
	m.state.View = view
}

// persist flushes prompts as the scoped collection: onto the active user or
// into legacy storage. On success the in-memory state takes the new list.
func (m *SessionManager) persist(ctx context.Context, prompts []model.PromptRecord) error {
	if m.state.User != nil {
		user := cloneUser(*m.state.User)
		user.Prompts = prompts
		if err := m.directory.Persist(ctx, user); err != nil {
			return err
		}
		m.state.User.Prompts = cloneRecords(prompts)
	} else if err := m.store.SaveLegacyPrompts(ctx, prompts); err != nil {
		return err
	}
	m.state.Prompts = prompts
	return nil
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/prompt-cards/internal/apperror"
	"github.com/sakif/prompt-cards/internal/auth"
	"github.com/sakif/prompt-cards/internal/model"
	"github.com/sakif/prompt-cards/internal/repository"
)

// Options are the dependencies shared by every workspace.
type Options struct {
	Passwords *auth.PasswordService
	Logger    *slog.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Workspace is everything one browser profile owns, loaded and resolved.
type Workspace struct {
	Store       *repository.Store
	Preferences *PreferencesService
	Directory   *Directory
	Session     *SessionManager
	Auth        *AuthFlow

	logger *slog.Logger
	now    func() time.Time
}

// OpenWorkspace loads preferences and the directory, then resolves the session.
// The only writes before the first action are repaired record ids.
func OpenWorkspace(ctx context.Context, storage repository.Storage, opts Options) *Workspace {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	passwords := opts.Passwords
	if passwords == nil {
		passwords = auth.NewPasswordService(false)
	}

	store := repository.NewStore(storage, opts.Logger)
	prefs := NewPreferencesService(store, opts.Logger)
	dir := LoadDirectory(ctx, store, passwords, opts.Logger, now)
	session := NewSessionManager(ctx, store, dir, opts.Logger, now)

	return &Workspace{
		Store:       store,
		Preferences: prefs,
		Directory:   dir,
		Session:     session,
		Auth:        NewAuthFlow(session, dir, prefs),
		logger:      opts.Logger,
		now:         now,
	}
}

// Now returns the workspace clock's current time.
func (w *Workspace) Now() time.Time {
	return w.now()
}

// =========================================================================
// COMMAND DISPATCH
// =========================================================================

// Action names one user intent.
type Action string

const (
	ActionAddPrompt        Action = "add-prompt"
	ActionDeletePrompt     Action = "delete-prompt"
	ActionEditPrompt       Action = "edit-prompt"
	ActionToggleVisibility Action = "toggle-visibility"
	ActionSwitchView       Action = "switch-view"
	ActionSaveDraft        Action = "save-draft"
	ActionApplyStyle       Action = "apply-style"
	ActionOpenAuth         Action = "open-auth"
	ActionSelectAuthTab    Action = "select-auth-tab"
	ActionCloseAuth        Action = "close-auth"
	ActionLogin            Action = "login"
	ActionSignup           Action = "signup"
	ActionLogout           Action = "logout"
)

// StyleInput is the raw content of the style form.
type StyleInput struct {
	FontSize   string
	CardWidth  string
	FontFamily string
}

// Credentials is the content of the login or signup form.
type Credentials struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Command is one action with its arguments. Only the fields the action
// reads need to be set.
type Command struct {
	Action      Action
	ID          string
	Prompt      PromptInput
	View        model.ViewMode
	Draft       model.Draft
	Style       StyleInput
	Tab         AuthTab
	Credentials Credentials
	// Confirmer gates delete-prompt. nil skips confirmation.
	Confirmer Confirmer
}

// Result reports what an action did.
type Result struct {
	Action      Action
	Record      *model.PromptRecord
	Draft       *model.Draft
	Changed     bool
	Preferences *model.StylePreferences
}

type actionFunc func(ctx context.Context, w *Workspace, cmd Command) (Result, error)

type actionSpec struct {
	run actionFunc
	// ownerOnly actions are refused while a logged-in user is in public view.
	ownerOnly bool
}

// actions is the dispatch table from intent to core operation.
var actions = map[Action]actionSpec{
	ActionAddPrompt: {run: func(ctx context.Context, w *Workspace, cmd Command) (Result, error) {
		rec, err := w.Session.Add(ctx, cmd.Prompt)
		if err != nil {
			return Result{}, err
		}
		return Result{Record: &rec, Changed: true}, nil
	}},
	ActionDeletePrompt: {ownerOnly: true, run: func(ctx context.Context, w *Workspace, cmd Command) (Result, error) {
		deleted, err := w.Session.Delete(ctx, cmd.ID, cmd.Confirmer)
		return Result{Changed: deleted}, err
	}},
	ActionEditPrompt: {ownerOnly: true, run: func(ctx context.Context, w *Workspace, cmd Command) (Result, error) {
		draft, err := w.Session.Edit(ctx, cmd.ID)
		if err != nil {
			return Result{}, err
		}
		return Result{Draft: &draft, Changed: true}, nil
	}},
	ActionToggleVisibility: {ownerOnly: true, run: func(ctx context.Context, w *Workspace, cmd Command) (Result, error) {
		rec, changed, err := w.Session.ToggleVisibility(ctx, cmd.ID)
		if err != nil {
			return Result{}, err
		}
		res := Result{Changed: changed}
		if changed {
			res.Record = &rec
		}
		return res, nil
	}},
	ActionSwitchView: {run: func(_ context.Context, w *Workspace, cmd Command) (Result, error) {
		w.Session.SetView(model.ParseViewMode(string(cmd.View)))
		return Result{}, nil
	}},
	ActionSaveDraft: {run: func(ctx context.Context, w *Workspace, cmd Command) (Result, error) {
		if err := w.Session.SaveDraft(ctx, cmd.Draft); err != nil {
			return Result{}, err
		}
		return Result{Draft: &cmd.Draft, Changed: true}, nil
	}},
	ActionApplyStyle: {run: func(ctx context.Context, w *Workspace, cmd Command) (Result, error) {
		prefs, err := w.Preferences.Apply(ctx, cmd.Style.FontSize, cmd.Style.CardWidth, cmd.Style.FontFamily)
		if err != nil {
			return Result{}, err
		}
		return Result{Preferences: &prefs, Changed: true}, nil
	}},
	ActionOpenAuth: {run: func(_ context.Context, w *Workspace, _ Command) (Result, error) {
		w.Auth.Open()
		return Result{}, nil
	}},
	ActionSelectAuthTab: {run: func(_ context.Context, w *Workspace, cmd Command) (Result, error) {
		w.Auth.SelectTab(cmd.Tab)
		return Result{}, nil
	}},
	ActionCloseAuth: {run: func(_ context.Context, w *Workspace, _ Command) (Result, error) {
		w.Auth.Close()
		return Result{}, nil
	}},
	ActionLogin: {run: func(ctx context.Context, w *Workspace, cmd Command) (Result, error) {
		err := w.Auth.SubmitLogin(ctx, cmd.Credentials.Email, cmd.Credentials.Password)
		return Result{Changed: err == nil}, err
	}},
	ActionSignup: {run: func(ctx context.Context, w *Workspace, cmd Command) (Result, error) {
		c := cmd.Credentials
		err := w.Auth.SubmitSignup(ctx, c.Username, c.Email, c.Password, c.ConfirmPassword, w.now())
		return Result{Changed: err == nil}, err
	}},
	ActionLogout: {run: func(ctx context.Context, w *Workspace, _ Command) (Result, error) {
		err := w.Auth.Logout(ctx)
		return Result{Changed: err == nil}, err
	}},
}

// Dispatch runs cmd against the workspace.
func (w *Workspace) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	spec, ok := actions[cmd.Action]
	if !ok {
		return Result{}, apperror.ValidationFailed("action", fmt.Sprintf("unknown action %q", cmd.Action))
	}

	state := w.Session.state
	if spec.ownerOnly && state.User != nil && state.View == model.ViewPublic {
		return Result{}, apperror.Forbidden(fmt.Sprintf("%s is only available in owner view", cmd.Action))
	}

	res, err := spec.run(ctx, w, cmd)
	res.Action = cmd.Action
	if err != nil {
		w.logger.Debug("action failed", slog.String("action", string(cmd.Action)), slog.String("error", err.Error()))
	}
	return res, err
}

// Visible returns the records the owner page renders for the current state.
func (w *Workspace) Visible() []model.PromptRecord {
	return FilterVisible(w.Session.state.ViewContext())
}

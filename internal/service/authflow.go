package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sakif/prompt-cards/internal/apperror"
)

// AuthState is the state of the login/signup flow.
type AuthState int

const (
	AuthAnonymous AuthState = iota
	AuthModalOpen
	AuthAuthenticated
)

func (s AuthState) String() string {
	switch s {
	case AuthModalOpen:
		return "modal-open"
	case AuthAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// AuthTab selects the visible form inside the open modal.
type AuthTab string

const (
	TabLogin  AuthTab = "login"
	TabSignup AuthTab = "signup"
)

// ParseAuthTab maps a raw value to a tab. ok is false for anything else.
func ParseAuthTab(s string) (AuthTab, bool) {
	switch AuthTab(s) {
	case TabLogin:
		return TabLogin, true
	case TabSignup:
		return TabSignup, true
	}
	return "", false
}

// SignupSwitchDelay is how long the signup success message stays before the
// modal switches to the login tab.
const SignupSwitchDelay = 2 * time.Second

// Inline messages shown in the modal.
const (
	MsgFillAllFields    = "Please fill in all fields"
	MsgPasswordMismatch = "Passwords do not match"
	MsgSignupSuccess    = "Account created successfully! You can now login."
)

// AuthView is what the modal shows.
type AuthView struct {
	State   AuthState
	Tab     AuthTab
	Error   string
	Success string
	// SwitchAt is when the pending switch to the login tab fires; zero if none.
	SwitchAt time.Time
}

// AuthFlow is the login/signup state machine:
//
//	Anonymous ──Open──▶ ModalOpen(login|signup) ──SubmitLogin ok──▶ Authenticated
//	    ▲                    │  ▲ SelectTab                              │
//	    └───────Close────────┘  └─ SubmitSignup ok, Tick after 2s         │
//	    ▲                                                                │
//	    └──────────────────────────── Logout ────────────────────────────┘
type AuthFlow struct {
	session *SessionManager
	dir     *Directory
	prefs   *PreferencesService
	view    AuthView
}

// NewAuthFlow starts Authenticated when the session manager has an active
// session, otherwise Anonymous.
func NewAuthFlow(session *SessionManager, dir *Directory, prefs *PreferencesService) *AuthFlow {
	f := &AuthFlow{session: session, dir: dir, prefs: prefs}
	f.view.Tab = TabLogin
	if session.state.User != nil {
		f.view.State = AuthAuthenticated
	}
	return f
}

// View returns the current modal state.
func (f *AuthFlow) View() AuthView {
	return f.view
}

// Open shows the modal on the login tab with no messages.
func (f *AuthFlow) Open() {
	if f.view.State != AuthAnonymous {
		return
	}
	f.view = AuthView{State: AuthModalOpen, Tab: TabLogin}
}

// SelectTab switches the visible form. No model change.
func (f *AuthFlow) SelectTab(tab AuthTab) {
	if f.view.State != AuthModalOpen {
		return
	}
	f.view.Tab = tab
}

func (f *AuthFlow) Close() {
	if f.view.State != AuthModalOpen {
		return
	}
	f.view = AuthView{State: AuthAnonymous, Tab: TabLogin}
}

// SubmitLogin validates locally and then logs in. On failure the modal stays
// open on the login tab with an inline error, which is also returned.
func (f *AuthFlow) SubmitLogin(ctx context.Context, email, password string) error {
	f.ensureOpen(TabLogin)

	if email == "" || password == "" {
		f.view.Error = MsgFillAllFields
		return apperror.ValidationFailed("email", MsgFillAllFields)
	}

	if _, err := f.session.Login(ctx, email, password); err != nil {
		f.view.Error = messageFor(err)
		return err
	}

	f.view = AuthView{State: AuthAuthenticated, Tab: TabLogin}
	return nil
}

// SubmitSignup validates locally and registers the account with the current
// style preferences. On success the modal shows a success message and
// schedules the switch to the login tab SignupSwitchDelay after now.
// Username and email are trimmed; the passwords are taken as typed.
func (f *AuthFlow) SubmitSignup(ctx context.Context, username, email, password, confirm string, now time.Time) error {
	f.ensureOpen(TabSignup)
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)

	if username == "" || email == "" || password == "" || confirm == "" {
		f.view.Error = MsgFillAllFields
		f.view.Success = ""
		return apperror.ValidationFailed("username", MsgFillAllFields)
	}
	if password != confirm {
		f.view.Error = MsgPasswordMismatch
		f.view.Success = ""
		return apperror.ValidationFailed("confirmPassword", MsgPasswordMismatch)
	}

	if _, err := f.dir.Register(ctx, username, email, password, f.prefs.Load(ctx)); err != nil {
		f.view.Error = messageFor(err)
		f.view.Success = ""
		return err
	}

	f.view.Error = ""
	f.view.Success = MsgSignupSuccess
	f.view.SwitchAt = now.Add(SignupSwitchDelay)
	return nil
}

// Tick fires the pending switch to the login tab once its deadline passed.
func (f *AuthFlow) Tick(now time.Time) {
	if f.view.SwitchAt.IsZero() || now.Before(f.view.SwitchAt) {
		return
	}
	f.view.SwitchAt = time.Time{}
	f.view.Success = ""
	if f.view.State == AuthModalOpen {
		f.view.Tab = TabLogin
	}
}

// Logout ends the session and returns to Anonymous.
func (f *AuthFlow) Logout(ctx context.Context) error {
	if err := f.session.Logout(ctx); err != nil {
		return err
	}
	f.view = AuthView{State: AuthAnonymous, Tab: TabLogin}
	return nil
}

// ensureOpen opens the modal on tab when a submit arrives without it,
// as happens when every request rebuilds the flow.
func (f *AuthFlow) ensureOpen(tab AuthTab) {
	if f.view.State == AuthAnonymous {
		f.view = AuthView{State: AuthModalOpen, Tab: tab}
		return
	}
	if f.view.State == AuthModalOpen {
		f.view.Tab = tab
	}
}

// messageFor returns the inline text for err. Internal errors get a generic line.
func messageFor(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && !errors.Is(err, apperror.ErrStorageUnavailable) {
		return appErr.Message
	}
	return "Something went wrong, please try again"
}

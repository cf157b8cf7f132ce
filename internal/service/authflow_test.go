package service

import (
	"context"
	"testing"
	"time"

	"github.com/sakif/prompt-cards/internal/apperror"
	"github.com/sakif/prompt-cards/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthFlow_OpenSelectClose(t *testing.T) {
	w, _ := newTestWorkspace(t)
	f := w.Auth

	assert.Equal(t, AuthAnonymous, f.View().State)

	f.Open()
	assert.Equal(t, AuthView{State: AuthModalOpen, Tab: TabLogin}, f.View())

	f.SelectTab(TabSignup)
	assert.Equal(t, TabSignup, f.View().Tab)

	f.Close()
	assert.Equal(t, AuthAnonymous, f.View().State)

	// tab selection needs an open modal
	f.SelectTab(TabSignup)
	assert.Equal(t, TabLogin, f.View().Tab)
}

func TestAuthFlow_SignupMessages(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantErr error
		wantMsg string
	}{
		{"missing field", Credentials{Username: "ann", Email: "a@x", Password: "pw"}, apperror.ErrValidation, MsgFillAllFields},
		{"blank username", Credentials{Username: "  ", Email: "a@x", Password: "pw", ConfirmPassword: "pw"}, apperror.ErrValidation, MsgFillAllFields},
		{"mismatch", Credentials{Username: "ann", Email: "a@x", Password: "pw", ConfirmPassword: "px"}, apperror.ErrValidation, MsgPasswordMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := newTestWorkspace(t)
			c := tt.creds

			err := w.Auth.SubmitSignup(context.Background(), c.Username, c.Email, c.Password, c.ConfirmPassword, fixedNow)

			assert.ErrorIs(t, err, tt.wantErr)
			view := w.Auth.View()
			assert.Equal(t, AuthModalOpen, view.State)
			assert.Equal(t, TabSignup, view.Tab)
			assert.Equal(t, tt.wantMsg, view.Error)
			assert.Empty(t, w.Directory.Users())
		})
	}
}

func TestAuthFlow_SignupTrimsNameAndEmail(t *testing.T) {
	w, _ := newTestWorkspace(t)
	ctx := context.Background()

	require.NoError(t, w.Auth.SubmitSignup(ctx, " ann ", "\ta@x ", " pw ", " pw ", fixedNow))

	users := w.Directory.Users()
	require.Len(t, users, 1)
	assert.Equal(t, "ann", users[0].Username)
	assert.Equal(t, "a@x", users[0].Email)
	assert.Equal(t, " pw ", users[0].Password)

	err := w.Auth.SubmitSignup(ctx, "bob", " a@x", "pw", "pw", fixedNow)
	assert.ErrorIs(t, err, apperror.ErrDuplicateEmail)
}

func TestAuthFlow_SignupDuplicateEmail(t *testing.T) {
	w, _ := newTestWorkspace(t)
	ctx := context.Background()
	require.NoError(t, w.Auth.SubmitSignup(ctx, "ann", "a@x", "pw", "pw", fixedNow))

	err := w.Auth.SubmitSignup(ctx, "bob", "a@x", "pw", "pw", fixedNow)

	assert.ErrorIs(t, err, apperror.ErrDuplicateEmail)
	assert.Equal(t, "Email already in use", w.Auth.View().Error)
	assert.Empty(t, w.Auth.View().Success)
}

func TestAuthFlow_SignupSuccessThenTick(t *testing.T) {
	w, _ := newTestWorkspace(t)
	ctx := context.Background()
	_, err := w.Preferences.Apply(ctx, "20", "640", "")
	require.NoError(t, err)

	require.NoError(t, w.Auth.SubmitSignup(ctx, "ann", "a@x", "pw", "pw", fixedNow))

	view := w.Auth.View()
	assert.Equal(t, MsgSignupSuccess, view.Success)
	assert.Equal(t, TabSignup, view.Tab)
	assert.Equal(t, fixedNow.Add(SignupSwitchDelay), view.SwitchAt)

	users := w.Directory.Users()
	require.Len(t, users, 1)
	assert.Equal(t, 20, users[0].Settings.FontSize, "signup snapshots the current preferences")
	assert.False(t, w.Session.State().Active(), "signup does not log in")

	w.Auth.Tick(fixedNow.Add(time.Second))
	assert.Equal(t, TabSignup, w.Auth.View().Tab)

	w.Auth.Tick(fixedNow.Add(SignupSwitchDelay))
	view = w.Auth.View()
	assert.Equal(t, TabLogin, view.Tab)
	assert.Empty(t, view.Success)
	assert.True(t, view.SwitchAt.IsZero())
}

func TestAuthFlow_LoginFailureKeepsModal(t *testing.T) {
	w, _ := newTestWorkspace(t)
	ctx := context.Background()
	w.Auth.Open()

	err := w.Auth.SubmitLogin(ctx, "a@x", "pw")
	assert.ErrorIs(t, err, apperror.ErrAuthFailure)
	assert.Equal(t, "Invalid email or password", w.Auth.View().Error)
	assert.Equal(t, AuthModalOpen, w.Auth.View().State)

	err = w.Auth.SubmitLogin(ctx, "", "pw")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, MsgFillAllFields, w.Auth.View().Error)
}

func TestAuthFlow_LoginAndLogout(t *testing.T) {
	w, _ := newTestWorkspace(t)
	ctx := context.Background()
	_, err := w.Directory.Register(ctx, "ann", "a@x", "pw", model.DefaultStylePreferences())
	require.NoError(t, err)

	require.NoError(t, w.Auth.SubmitLogin(ctx, "a@x", "pw"))
	assert.Equal(t, AuthAuthenticated, w.Auth.View().State)
	assert.True(t, w.Session.State().Active())

	// the modal can't be opened while authenticated
	w.Auth.Open()
	assert.Equal(t, AuthAuthenticated, w.Auth.View().State)

	require.NoError(t, w.Auth.Logout(ctx))
	assert.Equal(t, AuthAnonymous, w.Auth.View().State)
	assert.False(t, w.Session.State().Active())
}

func TestParseAuthTab(t *testing.T) {
	tab, ok := ParseAuthTab("signup")
	assert.True(t, ok)
	assert.Equal(t, TabSignup, tab)

	_, ok = ParseAuthTab("admin")
	assert.False(t, ok)
}

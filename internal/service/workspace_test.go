package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/sakif/prompt-cards/internal/apperror"
	"github.com/sakif/prompt-cards/internal/auth"
	"github.com/sakif/prompt-cards/internal/model"
	"github.com/sakif/prompt-cards/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =========================================================================
// FAKE STORAGE
// =========================================================================
//
// memStorage implements repository.Storage in memory, the same interface
// the sqlite ProfileStorage satisfies. failPut simulates a full or broken
// backend so the "write failed, nothing changed" paths can be exercised.

type memStorage struct {
	blobs   map[string][]byte
	failGet error
	failPut error
	puts    int
}

func newMemStorage() *memStorage {
	return &memStorage{blobs: make(map[string][]byte)}
}

func (m *memStorage) Get(_ context.Context, key string) ([]byte, error) {
	if m.failGet != nil {
		return nil, m.failGet
	}
	v, ok := m.blobs[key]
	if !ok {
		return nil, apperror.NotFound("key", key)
	}
	return v, nil
}

func (m *memStorage) Put(_ context.Context, key string, value []byte) error {
	if m.failPut != nil {
		return m.failPut
	}
	m.puts++
	m.blobs[key] = value
	return nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	if m.failPut != nil {
		return m.failPut
	}
	delete(m.blobs, key)
	return nil
}

// seed writes v as JSON under key, bypassing the store.
func (m *memStorage) seed(t *testing.T, key string, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	m.blobs[key] = raw
}

// decode reads the JSON blob under key into dst.
func (m *memStorage) decode(t *testing.T, key string, dst any) {
	t.Helper()
	raw, ok := m.blobs[key]
	require.True(t, ok, "no blob stored under %s", key)
	require.NoError(t, json.Unmarshal(raw, dst))
}

// =========================================================================
// HELPERS
// =========================================================================

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testOptions() Options {
	return Options{
		Passwords: auth.NewPasswordService(false),
		Logger:    testLogger(),
		Clock:     func() time.Time { return fixedNow },
	}
}

// openWorkspace opens a workspace over mem as a fresh request would.
func openWorkspace(t *testing.T, mem *memStorage) *Workspace {
	t.Helper()
	return OpenWorkspace(context.Background(), mem, testOptions())
}

func newTestWorkspace(t *testing.T) (*Workspace, *memStorage) {
	t.Helper()
	mem := newMemStorage()
	return openWorkspace(t, mem), mem
}

func input(prompt string) PromptInput {
	return PromptInput{Prompt: prompt, AIName: "X", ModelName: "Y", Result: "Z"}
}

// signupAndLogin registers an account and logs it in.
func signupAndLogin(t *testing.T, w *Workspace, email string) model.User {
	t.Helper()
	ctx := context.Background()
	_, err := w.Dispatch(ctx, Command{Action: ActionSignup, Credentials: Credentials{
		Username: "ann", Email: email, Password: "pw", ConfirmPassword: "pw",
	}})
	require.NoError(t, err)
	_, err = w.Dispatch(ctx, Command{Action: ActionLogin, Credentials: Credentials{Email: email, Password: "pw"}})
	require.NoError(t, err)
	return *w.Session.State().User
}

func ids(records []model.PromptRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func prompts(records []model.PromptRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Prompt)
	}
	return out
}

// =========================================================================
// DISPATCH TESTS
// =========================================================================

func TestDispatch_UnknownAction(t *testing.T) {
	w, _ := newTestWorkspace(t)

	_, err := w.Dispatch(context.Background(), Command{Action: "launch-rockets"})

	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestDispatch_OwnerOnlyActionsRefusedInPublicView(t *testing.T) {
	w, _ := newTestWorkspace(t)
	ctx := context.Background()
	signupAndLogin(t, w, "a@x")

	res, err := w.Dispatch(ctx, Command{Action: ActionAddPrompt, Prompt: input("A")})
	require.NoError(t, err)
	id := res.Record.ID

	_, err = w.Dispatch(ctx, Command{Action: ActionSwitchView, View: model.ViewPublic})
	require.NoError(t, err)

	for _, action := range []Action{ActionDeletePrompt, ActionEditPrompt, ActionToggleVisibility} {
		_, err := w.Dispatch(ctx, Command{Action: action, ID: id})
		assert.ErrorIs(t, err, apperror.ErrForbidden, "action %s", action)
	}
	assert.Len(t, w.Session.State().Prompts, 1)
}

func TestDispatch_ResultCarriesAction(t *testing.T) {
	w, _ := newTestWorkspace(t)

	res, err := w.Dispatch(context.Background(), Command{Action: ActionApplyStyle, Style: StyleInput{FontSize: "20"}})

	require.NoError(t, err)
	assert.Equal(t, ActionApplyStyle, res.Action)
	require.NotNil(t, res.Preferences)
	assert.Equal(t, 20, res.Preferences.FontSize)
}

func TestWorkspace_StateSurvivesReopen(t *testing.T) {
	w, mem := newTestWorkspace(t)
	ctx := context.Background()
	user := signupAndLogin(t, w, "a@x")
	_, err := w.Dispatch(ctx, Command{Action: ActionAddPrompt, Prompt: input("A")})
	require.NoError(t, err)

	// next request
	w2 := openWorkspace(t, mem)

	state := w2.Session.State()
	require.True(t, state.Active())
	assert.Equal(t, user.ID, state.User.ID)
	assert.Equal(t, []string{"A"}, prompts(state.Prompts))
	assert.Equal(t, AuthAuthenticated, w2.Auth.View().State)
}

// =========================================================================
// END-TO-END SCENARIOS
// =========================================================================

func TestScenario_LegacyAdd(t *testing.T) {
	w, mem := newTestWorkspace(t)

	res, err := w.Dispatch(context.Background(), Command{Action: ActionAddPrompt, Prompt: input("Q")})
	require.NoError(t, err)

	var stored []model.PromptRecord
	mem.decode(t, repository.KeyLegacyPrompts, &stored)
	require.Len(t, stored, 1)
	assert.Equal(t, "Q", stored[0].Prompt)
	assert.Equal(t, "X", stored[0].AIName)
	assert.Equal(t, "Y", stored[0].ModelName)
	assert.Equal(t, "Z", stored[0].Result)
	assert.False(t, stored[0].IsPublic)
	assert.Equal(t, res.Record.ID, stored[0].ID)
	assert.Equal(t, "3/14/2025, 9:26:53 AM", stored[0].Timestamp)
}

func TestScenario_SignupLoginAdd(t *testing.T) {
	w, mem := newTestWorkspace(t)
	ctx := context.Background()

	user := signupAndLogin(t, w, "a@x")
	_, err := w.Dispatch(ctx, Command{Action: ActionAddPrompt, Prompt: input("A")})
	require.NoError(t, err)

	var users []model.User
	mem.decode(t, repository.KeyUsers, &users)
	require.Len(t, users, 1)
	assert.Equal(t, user.ID, users[0].ID)
	assert.Equal(t, []string{"A"}, prompts(users[0].Prompts))

	_, hasLegacy := mem.blobs[repository.KeyLegacyPrompts]
	assert.False(t, hasLegacy, "legacy collection untouched")
}

func TestScenario_PublicViewAndShareLink(t *testing.T) {
	w, mem := newTestWorkspace(t)
	ctx := context.Background()
	user := signupAndLogin(t, w, "a@x")

	var second string
	for i, p := range []string{"A", "B", "C"} {
		res, err := w.Dispatch(ctx, Command{Action: ActionAddPrompt, Prompt: input(p)})
		require.NoError(t, err)
		if i == 1 {
			second = res.Record.ID
		}
	}
	_, err := w.Dispatch(ctx, Command{Action: ActionToggleVisibility, ID: second})
	require.NoError(t, err)

	_, err = w.Dispatch(ctx, Command{Action: ActionSwitchView, View: model.ViewPublic})
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, prompts(w.Visible()))

	// share link opened in the same browser profile
	shared, err := ResolveShare(openWorkspace(t, mem).Directory.Users(), user.ID, fixedNow)
	require.NoError(t, err)
	assert.False(t, shared.Sample)
	assert.Equal(t, "ann's Shared Prompts", shared.Title)
	assert.Equal(t, []string{"B"}, prompts(shared.Prompts))
}

func TestScenario_UnknownShareShowsSamples(t *testing.T) {
	shared, err := ResolveShare(nil, "nobody", fixedNow)

	require.NoError(t, err)
	assert.True(t, shared.Sample)
	assert.Equal(t, SampleTitle, shared.Title)
	assert.Equal(t, []string{"sample1", "sample2"}, ids(shared.Prompts))
}

func TestScenario_EditThenAbandon(t *testing.T) {
	w, mem := newTestWorkspace(t)
	ctx := context.Background()

	res, err := w.Dispatch(ctx, Command{Action: ActionAddPrompt, Prompt: input("Q")})
	require.NoError(t, err)

	edit, err := w.Dispatch(ctx, Command{Action: ActionEditPrompt, ID: res.Record.ID})
	require.NoError(t, err)
	require.NotNil(t, edit.Draft)
	assert.Equal(t, "Q", edit.Draft.Prompt)

	// the user walks away without resubmitting
	w2 := openWorkspace(t, mem)
	assert.Empty(t, w2.Session.State().Prompts)
	assert.Equal(t, "Q", w2.Session.Draft(ctx).Prompt)
}

func TestScenario_StaleSessionFallsBackToLegacy(t *testing.T) {
	mem := newMemStorage()
	mem.seed(t, repository.KeySession, model.Session{UserID: "ghost", Timestamp: fixedNow})
	mem.seed(t, repository.KeyLegacyPrompts, []model.PromptRecord{{ID: "l1", Prompt: "legacy"}})

	w := openWorkspace(t, mem)

	state := w.Session.State()
	assert.False(t, state.Active())
	assert.Equal(t, ResolutionStale, state.Outcome)
	assert.Equal(t, []string{"legacy"}, prompts(state.Prompts))
	_, kept := mem.blobs[repository.KeySession]
	assert.True(t, kept, "stale session is left in storage")
}

func TestScenario_WriteFailureKeepsState(t *testing.T) {
	w, mem := newTestWorkspace(t)
	ctx := context.Background()
	_, err := w.Dispatch(ctx, Command{Action: ActionAddPrompt, Prompt: input("A")})
	require.NoError(t, err)

	mem.failPut = errors.New("quota exceeded")
	_, err = w.Dispatch(ctx, Command{Action: ActionAddPrompt, Prompt: input("B")})

	assert.ErrorIs(t, err, apperror.ErrStorageUnavailable)
	assert.Equal(t, []string{"A"}, prompts(w.Session.State().Prompts))
}

package clipboard

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/prompt-cards/internal/render"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

var payload = render.Clipboard{HTML: "<div><b>Q</b></div>", Text: "Prompt: Q\r\nAI: X"}

func fails(msg string) func(string) error {
	return func(string) error { return errors.New(msg) }
}

func TestCopy_Tiers(t *testing.T) {
	richFails := WithRich(func(context.Context, string) error { return errors.New("no wl-copy") })
	richOK := WithRich(func(context.Context, string) error { return nil })

	tests := []struct {
		name     string
		opts     []Option
		terminal bool
		want     Tier
	}{
		{"rich", []Option{richOK}, true, TierRich},
		{"plain fallback", []Option{richFails, WithPlain(func(string) error { return nil })}, true, TierPlain},
		{"selection fallback", []Option{richFails, WithPlain(fails("no xsel"))}, true, TierSelection},
		{"none", []Option{richFails, WithPlain(fails("no xsel"))}, false, TierNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			opts := append(tt.opts, WithSelection(&out, func() bool { return tt.terminal }))
			w := New(testLogger(), opts...)

			got := w.Copy(context.Background(), payload)

			assert.Equal(t, tt.want, got.Tier)
			assert.Equal(t, tt.want != TierNone, got.Copied())
			if tt.want == TierNone {
				assert.ErrorIs(t, got.Err, ErrNoTerminal)
			} else {
				assert.NoError(t, got.Err)
			}
		})
	}
}

func TestCopy_PassesContentToEachTier(t *testing.T) {
	var gotHTML, gotText string
	w := New(testLogger(),
		WithRich(func(_ context.Context, html string) error {
			gotHTML = html
			return errors.New("unsupported")
		}),
		WithPlain(func(text string) error {
			gotText = text
			return nil
		}),
	)

	out := w.Copy(context.Background(), payload)

	require.Equal(t, TierPlain, out.Tier)
	assert.Equal(t, payload.HTML, gotHTML)
	assert.Equal(t, "Prompt: Q\nAI: X", gotText, "CRLF normalized")
}

func TestCopy_SelectionWritesOSC52(t *testing.T) {
	t.Setenv("TMUX", "")
	var out bytes.Buffer
	w := New(testLogger(),
		WithRich(func(context.Context, string) error { return errors.New("x") }),
		WithPlain(fails("x")),
		WithSelection(&out, func() bool { return true }),
	)

	res := w.Copy(context.Background(), render.Clipboard{Text: "hello"})

	require.Equal(t, TierSelection, res.Tier)
	assert.Contains(t, out.String(), "\x1b]52;c;"+base64.StdEncoding.EncodeToString([]byte("hello")))
}

func TestCopy_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	w := New(testLogger(), WithRich(func(context.Context, string) error {
		called = true
		return nil
	}))

	res := w.Copy(ctx, payload)

	assert.False(t, called)
	assert.Equal(t, TierNone, res.Tier)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "rich", TierRich.String())
	assert.Equal(t, "selection", TierSelection.String())
	assert.Equal(t, "none", Tier(42).String())
}

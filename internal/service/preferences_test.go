package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/prompt-cards/internal/apperror"
	"github.com/sakif/prompt-cards/internal/model"
	"github.com/sakif/prompt-cards/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPreferences(t *testing.T) (*PreferencesService, *memStorage) {
	t.Helper()
	mem := newMemStorage()
	logger := testLogger()
	return NewPreferencesService(repository.NewStore(mem, logger), logger), mem
}

func TestParseLeadingInt(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"18", 18, true},
		{"18px", 18, true},
		{" 18.9", 18, true},
		{"-4", -4, true},
		{"+7", 7, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-", 0, false},
		{"99999999999999999999", 1_000_000_000, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n, ok := ParseLeadingInt(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.GreaterOrEqual(t, n, tt.want)
				if tt.want < 1_000_000_000 {
					assert.Equal(t, tt.want, n)
				}
			}
		})
	}
}

func TestApply_ClampsAndDefaults(t *testing.T) {
	tests := []struct {
		name       string
		font       string
		width      string
		family     string
		wantFont   int
		wantWidth  int
		wantFamily string
	}{
		{"in range", "18", "600", model.FontFamilies[1], 18, 600, model.FontFamilies[1]},
		{"units ignored", "20px", "640px", "", 20, 640, model.DefaultFontFamily},
		{"too small", "3", "50", "", model.MinFontSize, model.MinCardWidth, model.DefaultFontFamily},
		{"too large", "500", "99999", "", model.MaxFontSize, model.MaxCardWidth, model.DefaultFontFamily},
		{"negative", "-4", "-1", "", model.MinFontSize, model.MinCardWidth, model.DefaultFontFamily},
		{"empty", "", "", "", model.DefaultFontSize, model.DefaultCardWidth, model.DefaultFontFamily},
		{"zero", "0", "0", "", model.DefaultFontSize, model.DefaultCardWidth, model.DefaultFontFamily},
		{"garbage", "abc", "wide", "Comic Sans", model.DefaultFontSize, model.DefaultCardWidth, model.DefaultFontFamily},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestPreferences(t)

			got, err := svc.Apply(context.Background(), tt.font, tt.width, tt.family)

			require.NoError(t, err)
			assert.Equal(t, tt.wantFont, got.FontSize)
			assert.Equal(t, tt.wantWidth, got.CardWidth)
			assert.Equal(t, tt.wantFamily, got.FontFamily)
		})
	}
}

func TestApply_Persists(t *testing.T) {
	svc, mem := newTestPreferences(t)
	ctx := context.Background()

	_, err := svc.Apply(ctx, "18", "600", model.FontFamilies[2])
	require.NoError(t, err)

	var stored model.StylePreferences
	mem.decode(t, repository.KeySettings, &stored)
	assert.Equal(t, model.StylePreferences{FontSize: 18, CardWidth: 600, FontFamily: model.FontFamilies[2]}, stored)
	assert.Equal(t, stored, svc.Load(ctx))
}

func TestApply_WriteFailure(t *testing.T) {
	svc, mem := newTestPreferences(t)
	mem.failPut = errors.New("disk full")

	_, err := svc.Apply(context.Background(), "18", "600", "")

	assert.ErrorIs(t, err, apperror.ErrStorageUnavailable)
	assert.Equal(t, model.DefaultStylePreferences(), svc.Load(context.Background()))
}

func TestLoad_DefaultsWhenUnreadable(t *testing.T) {
	svc, mem := newTestPreferences(t)
	mem.blobs[repository.KeySettings] = []byte("{not json")

	assert.Equal(t, model.DefaultStylePreferences(), svc.Load(context.Background()))
}

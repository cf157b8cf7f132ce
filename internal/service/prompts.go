package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/rs/xid"
	"github.com/sakif/prompt-cards/internal/apperror"
	"github.com/sakif/prompt-cards/internal/model"
	"github.com/sakif/prompt-cards/internal/render"
)

// PromptInput is the content of the add-prompt form.
type PromptInput struct {
	Prompt    string
	AIName    string
	ModelName string
	Result    string
}

// Confirmer asks whether a record may really be deleted.
type Confirmer interface {
	Confirm(ctx context.Context, record model.PromptRecord) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, record model.PromptRecord) bool

func (f ConfirmFunc) Confirm(ctx context.Context, record model.PromptRecord) bool {
	return f(ctx, record)
}

// Add validates input and appends a new private record to the scoped collection.
//
// The four fields are trimmed; the first empty one fails with ValidationError
// and nothing is stored. Line breaks in the result become <br> and the
// result is sanitized. On success the draft is cleared.
func (m *SessionManager) Add(ctx context.Context, in PromptInput) (model.PromptRecord, error) {
	in = PromptInput{
		Prompt:    strings.TrimSpace(in.Prompt),
		AIName:    strings.TrimSpace(in.AIName),
		ModelName: strings.TrimSpace(in.ModelName),
		Result:    strings.TrimSpace(in.Result),
	}

	for _, f := range []struct{ name, value string }{
		{"prompt", in.Prompt},
		{"aiName", in.AIName},
		{"modelName", in.ModelName},
		{"result", in.Result},
	} {
		if f.value == "" {
			return model.PromptRecord{}, apperror.ValidationFailed(f.name, "Please fill in all fields.")
		}
	}

	record := model.PromptRecord{
		ID:        xid.New().String(),
		Prompt:    in.Prompt,
		AIName:    in.AIName,
		ModelName: in.ModelName,
		Result:    render.Sanitize(render.LineBreaks(in.Result)),
		Timestamp: m.now().Format(model.TimestampLayout),
		IsPublic:  false,
	}

	prompts := append(cloneRecords(m.state.Prompts), record)
	if err := m.persist(ctx, prompts); err != nil {
		return model.PromptRecord{}, err
	}

	if err := m.store.ClearDraft(ctx); err != nil {
		m.logger.Warn("clearing draft after add", "error", err)
	}

	m.logger.Info("prompt added", slog.String("id", record.ID), slog.Bool("scoped", m.state.User != nil))
	return record, nil
}

// Delete removes the record with id, keeping the order of the rest.
//
// confirm may be nil to skip confirmation. A declined confirmation changes
// nothing and returns deleted=false.
func (m *SessionManager) Delete(ctx context.Context, id string, confirm Confirmer) (bool, error) {
	i := m.indexOf(id)
	if i < 0 {
		return false, apperror.NotFound("prompt", id)
	}

	if confirm != nil && !confirm.Confirm(ctx, m.state.Prompts[i]) {
		return false, nil
	}

	prompts := slices.Delete(cloneRecords(m.state.Prompts), i, i+1)
	if err := m.persist(ctx, prompts); err != nil {
		return false, err
	}

	m.logger.Info("prompt deleted", slog.String("id", id))
	return true, nil
}

// Edit moves a record back into the draft and deletes it without confirmation.
//
// DESTRUCTIVE FIRST:
// The record is gone as soon as Edit returns. It only comes back if the
// draft is submitted again with Add.
func (m *SessionManager) Edit(ctx context.Context, id string) (model.Draft, error) {
	i := m.indexOf(id)
	if i < 0 {
		return model.Draft{}, apperror.NotFound("prompt", id)
	}
	record := m.state.Prompts[i]

	draft := model.Draft{
		Prompt:    record.Prompt,
		AIName:    record.AIName,
		ModelName: record.ModelName,
		Result:    render.PlainText(record.Result),
	}
	if err := m.store.SaveDraft(ctx, draft); err != nil {
		return model.Draft{}, err
	}

	if _, err := m.Delete(ctx, id, nil); err != nil {
		return model.Draft{}, err
	}
	return draft, nil
}

// ToggleVisibility flips isPublic on the record with id.
// In legacy mode it does nothing and reports changed=false.
func (m *SessionManager) ToggleVisibility(ctx context.Context, id string) (model.PromptRecord, bool, error) {
	if m.state.User == nil {
		return model.PromptRecord{}, false, nil
	}

	i := m.indexOf(id)
	if i < 0 {
		return model.PromptRecord{}, false, apperror.NotFound("prompt", id)
	}

	prompts := cloneRecords(m.state.Prompts)
	prompts[i].IsPublic = !prompts[i].IsPublic
	if err := m.persist(ctx, prompts); err != nil {
		return model.PromptRecord{}, false, err
	}

	m.logger.Info("prompt visibility changed", slog.String("id", id), slog.Bool("public", prompts[i].IsPublic))
	return prompts[i], true, nil
}

// Record returns the record with id from the scoped collection.
func (m *SessionManager) Record(id string) (model.PromptRecord, error) {
	i := m.indexOf(id)
	if i < 0 {
		return model.PromptRecord{}, apperror.NotFound("prompt", id)
	}
	return m.state.Prompts[i], nil
}

// =========================================================================
// DRAFT
// =========================================================================

// SaveDraft stores the unsaved form content.
func (m *SessionManager) SaveDraft(ctx context.Context, draft model.Draft) error {
	return m.store.SaveDraft(ctx, draft)
}

// Draft returns the unsaved form content, empty when there is none.
func (m *SessionManager) Draft(ctx context.Context) model.Draft {
	return m.store.LoadDraft(ctx)
}

func (m *SessionManager) ClearDraft(ctx context.Context) error {
	return m.store.ClearDraft(ctx)
}

func (m *SessionManager) indexOf(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(m.state.Prompts, func(r model.PromptRecord) bool {
		return r.ID == id
	})
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/prompt-cards/internal/apperror"
	"github.com/sakif/prompt-cards/internal/model"
	"github.com/sakif/prompt-cards/internal/render"
	"github.com/sakif/prompt-cards/internal/service"
)

// maxDraftBytes bounds the JSON body of a draft save.
const maxDraftBytes = 1 << 20

// PromptHandler serves the prompt card actions, downloads and JSON endpoints.
type PromptHandler struct {
	workspaces *Workspaces
	pages      *PageHandler
	renderer   *Renderer
	logger     *slog.Logger
}

func NewPromptHandler(workspaces *Workspaces, pages *PageHandler, renderer *Renderer, logger *slog.Logger) *PromptHandler {
	return &PromptHandler{
		workspaces: workspaces,
		pages:      pages,
		renderer:   renderer,
		logger:     logger,
	}
}

// open loads the workspace and applies the view mode the form carries.
func (h *PromptHandler) open(w http.ResponseWriter, r *http.Request) (*service.Workspace, bool) {
	ws, err := h.workspaces.Open(r)
	if err != nil {
		internalError(w, h.logger, "opening workspace", err)
		return nil, false
	}
	ws.Session.SetView(viewFrom(r))
	return ws, true
}

// fail answers a failed form action with the owner page and the error's status.
func (h *PromptHandler) fail(w http.ResponseWriter, r *http.Request, ws *service.Workspace, err error, f flash) {
	status, _ := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("prompt action failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
	}
	if f.FormError == "" {
		f.FormError, _ = publicMessage(err)
	}
	h.pages.renderOwner(w, r, ws, status, f)
}

// HandleAdd adds a record from the add-prompt form.
//
// HTTP: POST /prompts
// FORM: prompt, aiName, modelName, result, view
//
// On a validation error the page is rendered again with the input kept.
func (h *PromptHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.open(w, r)
	if !ok {
		return
	}

	in := service.PromptInput{
		Prompt:    r.FormValue("prompt"),
		AIName:    r.FormValue("aiName"),
		ModelName: r.FormValue("modelName"),
		Result:    r.FormValue("result"),
	}
	if _, err := ws.Dispatch(r.Context(), service.Command{Action: service.ActionAddPrompt, Prompt: in}); err != nil {
		draft := model.Draft(in)
		h.fail(w, r, ws, err, flash{Draft: &draft})
		return
	}

	redirect(w, r, ownerURL(ws.Session.State().View))
}

// confirmPage is the data of confirm.html.
type confirmPage struct {
	Title  string
	Prefs  model.StylePreferences
	Card   render.Card
	View   model.ViewMode
	Action string
}

// HandleDelete removes a record once the deletion is confirmed.
//
// HTTP: POST /prompts/{id}/delete
// FORM: confirm=yes, view
//
// Without confirm=yes nothing is deleted and a confirmation page is shown;
// its form posts back here with confirm=yes.
func (h *PromptHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.open(w, r)
	if !ok {
		return
	}

	var asked *model.PromptRecord
	confirm := service.ConfirmFunc(func(_ context.Context, rec model.PromptRecord) bool {
		asked = &rec
		return r.FormValue("confirm") == "yes"
	})

	id := chi.URLParam(r, "id")
	res, err := ws.Dispatch(r.Context(), service.Command{Action: service.ActionDeletePrompt, ID: id, Confirmer: confirm})
	if err != nil {
		h.fail(w, r, ws, err, flash{})
		return
	}

	if !res.Changed && asked != nil {
		state := ws.Session.State()
		card := render.Cards([]model.PromptRecord{*asked}, render.Context{SessionActive: state.Active(), View: state.View})[0]
		card.Actions = nil
		h.renderer.Render(w, http.StatusOK, "confirm", confirmPage{
			Title:  "Delete prompt?",
			Prefs:  ws.Preferences.Load(r.Context()),
			Card:   card,
			View:   state.View,
			Action: r.URL.Path,
		})
		return
	}

	redirect(w, r, ownerURL(ws.Session.State().View))
}

// HandleEdit moves a record back into the add form.
//
// HTTP: POST /prompts/{id}/edit
//
// The record is deleted right away; it only returns if the form is submitted.
func (h *PromptHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.open(w, r)
	if !ok {
		return
	}

	if _, err := ws.Dispatch(r.Context(), service.Command{Action: service.ActionEditPrompt, ID: chi.URLParam(r, "id")}); err != nil {
		h.fail(w, r, ws, err, flash{})
		return
	}

	redirect(w, r, ownerURL(ws.Session.State().View)+"#add-prompt")
}

// HandleToggleVisibility flips a record between public and private.
//
// HTTP: POST /prompts/{id}/visibility
func (h *PromptHandler) HandleToggleVisibility(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.open(w, r)
	if !ok {
		return
	}

	if _, err := ws.Dispatch(r.Context(), service.Command{Action: service.ActionToggleVisibility, ID: chi.URLParam(r, "id")}); err != nil {
		h.fail(w, r, ws, err, flash{})
		return
	}

	redirect(w, r, ownerURL(ws.Session.State().View))
}

// HandleSettings applies the style form. Input is clamped, never rejected.
//
// HTTP: POST /settings
// FORM: fontSize, cardWidth, fontFamily, view
func (h *PromptHandler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.open(w, r)
	if !ok {
		return
	}

	style := service.StyleInput{
		FontSize:   r.FormValue("fontSize"),
		CardWidth:  r.FormValue("cardWidth"),
		FontFamily: r.FormValue("fontFamily"),
	}
	if _, err := ws.Dispatch(r.Context(), service.Command{Action: service.ActionApplyStyle, Style: style}); err != nil {
		h.fail(w, r, ws, err, flash{})
		return
	}

	redirect(w, r, ownerURL(ws.Session.State().View))
}

// HandleExport downloads a record of the scoped collection as an HTML document.
//
// HTTP: GET /prompts/{id}/export
func (h *PromptHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.open(w, r)
	if !ok {
		return
	}

	rec, err := ws.Session.Record(chi.URLParam(r, "id"))
	if err != nil {
		status, _ := statusFor(err)
		http.Error(w, http.StatusText(status), status)
		return
	}
	h.writeExport(w, ws, rec)
}

func (h *PromptHandler) writeExport(w http.ResponseWriter, ws *service.Workspace, rec model.PromptRecord) {
	doc, err := render.ExportDocument(rec)
	if err != nil {
		internalError(w, h.logger, "rendering export", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+render.ExportFilename(ws.Now())+`"`)
	if _, err := w.Write(doc); err != nil {
		h.logger.Warn("writing export", slog.String("error", err.Error()))
	}
}

// =========================================================================
// JSON ENDPOINTS
// =========================================================================

// HandleList returns the records the owner page currently shows.
//
// HTTP: GET /api/prompts?view=owner|public
func (h *PromptHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.open(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ws.Visible())
}

// HandleClipboard returns the rich and plain clipboard forms of a record.
//
// HTTP: GET /api/prompts/{id}/clipboard
// RESPONSE: {"html": "...", "text": "..."}
func (h *PromptHandler) HandleClipboard(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.open(w, r)
	if !ok {
		return
	}

	rec, err := ws.Session.Record(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, render.ClipboardPayload(rec))
}

// HandleSaveDraft stores the add form's unsaved content.
//
// HTTP: PUT /api/draft
// BODY: {"promptInput": "...", "aiNameInput": "...", "modelNameInput": "...", "resultInput": "..."}
func (h *PromptHandler) HandleSaveDraft(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.open(w, r)
	if !ok {
		return
	}

	var draft model.Draft
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDraftBytes)).Decode(&draft); err != nil {
		h.logger.Warn("invalid draft JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "Invalid JSON body"))
		return
	}

	if _, err := ws.Dispatch(r.Context(), service.Command{Action: service.ActionSaveDraft, Draft: draft}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =========================================================================
// SHARE VIEW DOWNLOADS
// =========================================================================

// sharedRecord finds a public record of the share link's user, or a sample.
func (h *PromptHandler) sharedRecord(r *http.Request, ws *service.Workspace) (model.PromptRecord, error) {
	id := chi.URLParam(r, "id")
	shared, err := service.ResolveShare(ws.Directory.Users(), r.URL.Query().Get("user"), ws.Now())
	if errors.Is(err, service.ErrMissingShareID) {
		return model.PromptRecord{}, apperror.ValidationFailed("user", "user is required")
	}
	if err != nil {
		return model.PromptRecord{}, err
	}
	for _, rec := range shared.Prompts {
		if rec.ID == id {
			return rec, nil
		}
	}
	return model.PromptRecord{}, apperror.NotFound("prompt", id)
}

// HandlePublicExport downloads a shared record.
//
// HTTP: GET /public/prompts/{id}/export?user={id}
func (h *PromptHandler) HandlePublicExport(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.open(w, r)
	if !ok {
		return
	}

	rec, err := h.sharedRecord(r, ws)
	if err != nil {
		status, _ := statusFor(err)
		http.Error(w, http.StatusText(status), status)
		return
	}
	h.writeExport(w, ws, rec)
}

// HandlePublicClipboard returns the clipboard forms of a shared record.
//
// HTTP: GET /api/public/prompts/{id}/clipboard?user={id}
func (h *PromptHandler) HandlePublicClipboard(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.open(w, r)
	if !ok {
		return
	}

	rec, err := h.sharedRecord(r, ws)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, render.ClipboardPayload(rec))
}

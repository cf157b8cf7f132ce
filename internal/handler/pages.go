package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/prompt-cards/internal/model"
	"github.com/sakif/prompt-cards/internal/render"
	"github.com/sakif/prompt-cards/internal/service"
)

const (
	ownerTitle       = "AI Prompt Manager"
	emptyOwnerText   = "No prompts yet. Add your first prompt above."
	emptyPublicText  = "No public prompts yet."
	emptySharedText  = "This user has not shared any prompts yet."
	signupRefreshURL = "/?auth=login"
)

// PageHandler renders the owner page and the public share page.
type PageHandler struct {
	workspaces *Workspaces
	renderer   *Renderer
	baseURL    string
	logger     *slog.Logger
}

func NewPageHandler(workspaces *Workspaces, renderer *Renderer, baseURL string, logger *slog.Logger) *PageHandler {
	return &PageHandler{
		workspaces: workspaces,
		renderer:   renderer,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// ownerPage is the data of owner.html.
type ownerPage struct {
	Title        string
	Prefs        model.StylePreferences
	FontFamilies []string
	User         *model.User
	View         model.ViewMode
	Auth         service.AuthView
	Draft        model.Draft
	Cards        []render.Card
	EmptyText    string
	ShareURL     string

	// FormError is the add-prompt validation message.
	FormError string
}

// flash is what a failed or finished action adds to the re-rendered page.
type flash struct {
	FormError string
	// Draft replaces the stored draft, so rejected input is not lost.
	Draft *model.Draft
}

// HandleOwner serves the owner page.
//
// HTTP: GET /?view=owner|public&auth=login|signup
//
// The view mode and the open auth tab live in the URL, since every request
// rebuilds the workspace from storage.
func (h *PageHandler) HandleOwner(w http.ResponseWriter, r *http.Request) {
	ws, err := h.workspaces.Open(r)
	if err != nil {
		internalError(w, h.logger, "opening workspace", err)
		return
	}

	ctx := r.Context()
	q := r.URL.Query()
	if _, err := ws.Dispatch(ctx, service.Command{Action: service.ActionSwitchView, View: model.ParseViewMode(q.Get("view"))}); err != nil {
		internalError(w, h.logger, "switching view", err)
		return
	}
	if tab, ok := service.ParseAuthTab(q.Get("auth")); ok {
		// errors are impossible for these two, they only move the modal
		_, _ = ws.Dispatch(ctx, service.Command{Action: service.ActionOpenAuth})
		_, _ = ws.Dispatch(ctx, service.Command{Action: service.ActionSelectAuthTab, Tab: tab})
	}

	h.renderOwner(w, r, ws, http.StatusOK, flash{})
}

// renderOwner renders the owner page for the workspace's current state.
func (h *PageHandler) renderOwner(w http.ResponseWriter, r *http.Request, ws *service.Workspace, status int, f flash) {
	ctx := r.Context()
	state := ws.Session.State()

	cardCtx := render.Context{
		SessionActive: state.Active(),
		View:          state.View,
		BaseURL:       baseURL(h.baseURL, r),
	}
	page := ownerPage{
		Title:        ownerTitle,
		Prefs:        ws.Preferences.Load(ctx),
		FontFamilies: model.FontFamilies,
		User:         state.User,
		View:         state.View,
		Auth:         ws.Auth.View(),
		Draft:        ws.Session.Draft(ctx),
		EmptyText:    emptyOwnerText,
		FormError:    f.FormError,
	}
	if f.Draft != nil {
		page.Draft = *f.Draft
	}
	if state.User != nil {
		cardCtx.OwnerID = state.User.ID
		page.ShareURL = render.ShareURL(cardCtx.BaseURL, state.User.ID)
		if state.View == model.ViewPublic {
			page.EmptyText = emptyPublicText
		}
	}
	page.Cards = render.Cards(ws.Visible(), cardCtx)

	h.renderer.Render(w, status, "owner", page)
}

// publicPage is the data of public.html.
type publicPage struct {
	Title     string
	Prefs     model.StylePreferences
	Sample    bool
	Cards     []render.Card
	EmptyText string
}

// HandlePublic serves the read-only share page.
//
// HTTP: GET /public?user={id}
//
// A missing id redirects to the owner page. An id this profile has never
// seen renders the built-in samples.
func (h *PageHandler) HandlePublic(w http.ResponseWriter, r *http.Request) {
	ws, err := h.workspaces.Open(r)
	if err != nil {
		internalError(w, h.logger, "opening workspace", err)
		return
	}

	userID := r.URL.Query().Get("user")
	shared, err := service.ResolveShare(ws.Directory.Users(), userID, ws.Now())
	if errors.Is(err, service.ErrMissingShareID) {
		redirect(w, r, "/")
		return
	}
	if err != nil {
		internalError(w, h.logger, "resolving share link", err)
		return
	}
	if shared.Sample {
		h.logger.Info("share link did not resolve, showing samples", slog.String("user_id", userID))
	}

	page := publicPage{
		Title:     shared.Title,
		Prefs:     ws.Preferences.Load(r.Context()),
		Sample:    shared.Sample,
		EmptyText: emptySharedText,
		Cards: render.Cards(shared.Prompts, render.Context{
			ShareLink:     true,
			SharedUserID:  userID,
			SessionActive: ws.Session.State().Active(),
		}),
	}
	h.renderer.Render(w, http.StatusOK, "public", page)
}

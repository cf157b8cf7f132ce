// Package handler contains the HTTP request handlers of the prompt card manager.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming request (form values, query params, JSON bodies)
// 2. Open the requesting profile's workspace and dispatch one action
// 3. Write the response: a redirect, a rendered page or JSON
//
// Handlers hold no business rules. Everything a page can do is a
// service.Command run through Workspace.Dispatch.
package handler

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/sakif/prompt-cards/internal/auth"
	"github.com/sakif/prompt-cards/internal/model"
	"github.com/sakif/prompt-cards/internal/repository"
	"github.com/sakif/prompt-cards/internal/service"
)

var errNoProfile = errors.New("handler: request has no browser profile")

// StorageFunc returns the blob storage of one browser profile.
type StorageFunc func(profileID string) repository.Storage

// Workspaces opens the workspace of the profile making a request.
type Workspaces struct {
	storage StorageFunc
	opts    service.Options
}

func NewWorkspaces(storage StorageFunc, opts service.Options) *Workspaces {
	return &Workspaces{storage: storage, opts: opts}
}

// Open loads the workspace of the profile attached by auth.Profile.
func (ws *Workspaces) Open(r *http.Request) (*service.Workspace, error) {
	profileID, ok := auth.ProfileIDFromContext(r.Context())
	if !ok {
		return nil, errNoProfile
	}
	return service.OpenWorkspace(r.Context(), ws.storage(profileID), ws.opts), nil
}

// =========================================================================
// TEMPLATES
// =========================================================================

// pageNames are the page templates; each is parsed together with base.html.
var pageNames = []string{"owner", "public", "confirm"}

var templateFuncs = template.FuncMap{
	// cssVars renders the style preferences as :root custom properties.
	"cssVars": func(p model.StylePreferences) template.CSS {
		var b strings.Builder
		for _, v := range p.CSSVariables() {
			fmt.Fprintf(&b, "%s: %s; ", v.Name, v.Value)
		}
		return template.CSS(b.String())
	},
	"initial": func(u *model.User) string {
		if u == nil {
			return ""
		}
		return u.Initial()
	},
}

// Renderer executes the page templates.
//
// Each page gets its own template set (base.html + the page), so every page
// can define "content" without clashing. Templates are parsed once at startup.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

func NewRenderer(templateDir string, logger *slog.Logger) (*Renderer, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFiles(
			filepath.Join(templateDir, "base.html"),
			filepath.Join(templateDir, name+".html"),
		)
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages, logger: logger}, nil
}

// Render writes page with status. A template failure after the header was
// sent can only be logged.
func (rn *Renderer) Render(w http.ResponseWriter, status int, page string, data any) {
	tmpl, ok := rn.pages[page]
	if !ok {
		rn.logger.Error("unknown page template", slog.String("page", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		rn.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
	}
}

// =========================================================================
// REQUEST HELPERS
// =========================================================================

// baseURL is the configured public URL, or the one the request came in on.
func baseURL(configured string, r *http.Request) string {
	if configured != "" {
		return configured
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// ownerURL is the owner page keeping the view mode.
func ownerURL(view model.ViewMode) string {
	if view == model.ViewPublic {
		return "/?view=public"
	}
	return "/"
}

// viewFrom reads the view mode a form or link carries. It is not persisted.
func viewFrom(r *http.Request) model.ViewMode {
	return model.ParseViewMode(r.FormValue("view"))
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// internalError logs err and answers with a bare 500.
func internalError(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	logger.Error(msg, slog.String("error", err.Error()))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

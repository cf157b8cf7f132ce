package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/prompt-cards/internal/service"
)

// AuthHandler serves the login, signup and logout forms of the auth modal.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLogin  → check credentials, start the session, back to the owner page
//   - HandleSignup → register the account, show the success message, then the login tab
//   - HandleLogout → write the collection back, end the session
//
// A failed submit re-renders the owner page with the modal open and its inline
// message, the same place the browser version showed it.
type AuthHandler struct {
	workspaces *Workspaces
	pages      *PageHandler
	logger     *slog.Logger
}

func NewAuthHandler(workspaces *Workspaces, pages *PageHandler, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		workspaces: workspaces,
		pages:      pages,
		logger:     logger,
	}
}

// HandleLogin starts a session for the matching account.
//
// HTTP: POST /auth/login
// FORM: email, password
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ws, err := h.workspaces.Open(r)
	if err != nil {
		internalError(w, h.logger, "opening workspace", err)
		return
	}

	cmd := service.Command{Action: service.ActionLogin, Credentials: service.Credentials{
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}}
	if _, err := ws.Dispatch(r.Context(), cmd); err != nil {
		h.fail(w, r, ws, err)
		return
	}

	redirect(w, r, "/")
}

// HandleSignup registers an account with the profile's current style preferences.
//
// HTTP: POST /auth/signup
// FORM: username, email, password, confirmPassword
//
// SUCCESS:
// The page shows the success message on the signup tab and refreshes to the
// login tab after service.SignupSwitchDelay. Signing up does not log in.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	ws, err := h.workspaces.Open(r)
	if err != nil {
		internalError(w, h.logger, "opening workspace", err)
		return
	}

	cmd := service.Command{Action: service.ActionSignup, Credentials: service.Credentials{
		Username:        r.FormValue("username"),
		Email:           r.FormValue("email"),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirmPassword"),
	}}
	if _, err := ws.Dispatch(r.Context(), cmd); err != nil {
		h.fail(w, r, ws, err)
		return
	}

	delay := strconv.Itoa(int(service.SignupSwitchDelay.Seconds()))
	w.Header().Set("Refresh", delay+"; url="+signupRefreshURL)
	h.pages.renderOwner(w, r, ws, http.StatusOK, flash{})
}

// HandleLogout ends the session.
//
// HTTP: POST /auth/logout (never GET, it changes state)
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ws, err := h.workspaces.Open(r)
	if err != nil {
		internalError(w, h.logger, "opening workspace", err)
		return
	}

	if _, err := ws.Dispatch(r.Context(), service.Command{Action: service.ActionLogout}); err != nil {
		internalError(w, h.logger, "logging out", err)
		return
	}

	redirect(w, r, "/")
}

func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, ws *service.Workspace, err error) {
	status, _ := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("auth action failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
	}
	h.pages.renderOwner(w, r, ws, status, flash{})
}

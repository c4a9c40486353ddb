package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/streamerhub/hub-server-go/internal/audit"
	"github.com/streamerhub/hub-server-go/internal/auth"
	"github.com/streamerhub/hub-server-go/internal/middleware"
	"github.com/streamerhub/hub-server-go/internal/service"
	"github.com/streamerhub/hub-server-go/internal/util"
)

type AuthHandler struct {
	oauthService *service.OAuthService
	cookies      *auth.Cookies
	baseURL      string
}

func NewAuthHandler(oauthService *service.OAuthService, cookies *auth.Cookies, baseURL string) *AuthHandler {
	return &AuthHandler{
		oauthService: oauthService,
		cookies:      cookies,
		baseURL:      baseURL,
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/kick", h.KickAuth)
	r.Get("/kick/callback", h.KickCallback)
	r.Post("/kick/complete", h.KickComplete)
	r.Get("/me", h.Me)
	r.Post("/logout", h.Logout)

	return r
}

// KickAuth starts a login flow: fresh state and PKCE pair go into
// short-lived cookies, then the browser is sent to Kick's consent screen.
func (h *AuthHandler) KickAuth(w http.ResponseWriter, r *http.Request) {
	redirectTo := safeRedirect(r.URL.Query().Get("redirectTo"))

	start, err := h.oauthService.BeginLogin(redirectTo)
	if err != nil {
		if err == service.ErrProviderNotConfigured {
			writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "Kick OAuth not configured"})
			return
		}
		log.Error().Err(err).Msg("failed to start Kick login")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to initiate OAuth"})
		return
	}

	h.cookies.SetState(w, start.State)
	h.cookies.SetVerifier(w, start.CodeVerifier)

	http.Redirect(w, r, start.AuthURL, http.StatusTemporaryRedirect)
}

// KickCallback validates the provider redirect, exchanges the code and
// establishes the session. Every failure collapses to a reason code on the
// login error page; nothing upstream-specific reaches the browser.
func (h *AuthHandler) KickCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errMsg := query.Get("error"); errMsg != "" {
		log.Warn().Str("error", errMsg).Msg("OAuth error from Kick")
		h.failLogin(w, r, service.ReasonOAuthError)
		return
	}

	code := query.Get("code")
	state := query.Get("state")
	if code == "" || state == "" {
		h.failLogin(w, r, service.ReasonMissingParams)
		return
	}

	storedState := auth.Read(r, auth.StateCookie)
	if storedState == "" || !util.ConstantTimeEqual(storedState, state) {
		h.failLogin(w, r, service.ReasonInvalidState)
		return
	}

	verifier := auth.Read(r, auth.VerifierCookie)
	if verifier == "" {
		h.failLogin(w, r, service.ReasonMissingVerifier)
		return
	}

	// A decode failure only loses the redirect target, not the login.
	redirectTo := "/"
	if parsed := auth.DecodeState(state); parsed != nil {
		redirectTo = safeRedirect(parsed.RedirectTo)
	}

	persistentID := auth.Read(r, auth.PersistentIDCookie)

	result, err := h.oauthService.CompleteCallback(r.Context(), code, verifier, persistentID)
	if err != nil {
		log.Error().Err(err).Msg("Kick OAuth callback failed")
		h.failLogin(w, r, service.ReasonAuthFailed)
		return
	}

	h.establishSession(w, r, result)

	audit.LogFromRequest(r, audit.Event{
		Type:   audit.EventLoginSuccess,
		UserID: result.User.ID,
		KickID: result.User.KickID,
	})

	http.Redirect(w, r, h.baseURL+redirectTo, http.StatusTemporaryRedirect)
}

// KickComplete is the browser-escape-hatch: the client fetched the profile
// itself (Kick blocks some server-side callers) and posts it here together
// with the access token.
func (h *AuthHandler) KickComplete(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token    string          `json:"token"`
		UserData json.RawMessage `json:"userData"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if body.Token == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No token provided"})
		return
	}

	persistentID := auth.Read(r, auth.PersistentIDCookie)

	result, err := h.oauthService.CompleteWithProfile(r.Context(), body.UserData, persistentID)
	if err != nil {
		log.Error().Err(err).Msg("failed to complete authentication")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to complete authentication"})
		return
	}

	h.establishSession(w, r, result)

	audit.LogFromRequest(r, audit.Event{
		Type:   audit.EventLoginSuccess,
		UserID: result.User.ID,
		KickID: result.User.KickID,
	})

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if user := middleware.GetUser(r.Context()); user != nil {
		audit.LogFromRequest(r, audit.Event{
			Type:   audit.EventLogout,
			UserID: user.ID,
		})
	}

	h.cookies.ClearSession(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// establishSession sets the session cookie, persists a pseudo-identity when
// one was used and consumes the flow cookies so the callback cannot be
// replayed.
func (h *AuthHandler) establishSession(w http.ResponseWriter, r *http.Request, result *service.LoginResult) {
	h.cookies.SetSession(w, result.SessionToken)
	if result.PseudoID != "" {
		h.cookies.SetPersistentID(w, result.PseudoID)
		audit.LogFromRequest(r, audit.Event{
			Type:   audit.EventPseudoIdentity,
			UserID: result.User.ID,
			KickID: result.User.KickID,
		})
	}
	h.cookies.ClearFlow(w)
}

func (h *AuthHandler) failLogin(w http.ResponseWriter, r *http.Request, reason string) {
	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventLoginFailure,
		Details: map[string]interface{}{"reason": reason},
	})

	h.cookies.ClearFlow(w)
	http.Redirect(w, r, h.baseURL+"/auth/login?auth=error&message="+reason, http.StatusTemporaryRedirect)
}

// safeRedirect keeps post-login redirects on-site.
func safeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "/"
	}
	return target
}

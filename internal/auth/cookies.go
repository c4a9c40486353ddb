package auth

import (
	"net/http"
	"time"
)

// Cookie names. The state and verifier cookies live only for the provider
// round trip and are deleted explicitly once consumed (replay defense).
const (
	StateCookie        = "oauth_state"
	VerifierCookie     = "kick_code_verifier"
	SessionCookie      = "auth_session"
	PersistentIDCookie = "kick_persistent_id"
)

const (
	flowCookieTTL         = 10 * time.Minute
	persistentIDCookieTTL = 365 * 24 * time.Hour
)

// Cookies sets and clears the auth cookies with consistent scoping.
// All cookies are httpOnly, SameSite=Lax, path "/", and Secure in production.
type Cookies struct {
	secure bool
}

func NewCookies(secure bool) *Cookies {
	return &Cookies{secure: secure}
}

func (c *Cookies) set(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *Cookies) clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *Cookies) SetState(w http.ResponseWriter, state string) {
	c.set(w, StateCookie, state, flowCookieTTL)
}

func (c *Cookies) SetVerifier(w http.ResponseWriter, verifier string) {
	c.set(w, VerifierCookie, verifier, flowCookieTTL)
}

func (c *Cookies) SetSession(w http.ResponseWriter, token string) {
	c.set(w, SessionCookie, token, SessionTokenTTL)
}

func (c *Cookies) SetPersistentID(w http.ResponseWriter, id string) {
	c.set(w, PersistentIDCookie, id, persistentIDCookieTTL)
}

// ClearFlow deletes the short-lived state and verifier cookies so a replayed
// callback fails state validation.
func (c *Cookies) ClearFlow(w http.ResponseWriter) {
	c.clear(w, StateCookie)
	c.clear(w, VerifierCookie)
}

func (c *Cookies) ClearSession(w http.ResponseWriter) {
	c.clear(w, SessionCookie)
}

// Read returns the named cookie value or "" when absent.
func Read(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

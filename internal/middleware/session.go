package middleware

import (
	"context"
	"net/http"

	"github.com/streamerhub/hub-server-go/internal/audit"
	"github.com/streamerhub/hub-server-go/internal/auth"
	apperrors "github.com/streamerhub/hub-server-go/internal/errors"
	"github.com/streamerhub/hub-server-go/internal/httputil"
	"github.com/streamerhub/hub-server-go/internal/model"
)

type contextKey string

const UserContextKey contextKey = "user"

// GetUser returns the authenticated user from the request context, or nil.
// A missing, expired or tampered session always reads as anonymous.
func GetUser(ctx context.Context) *model.User {
	if user, ok := ctx.Value(UserContextKey).(*model.User); ok {
		return user
	}
	return nil
}

// SessionMiddleware resolves the session cookie into a User on the request
// context. It never rejects: handlers that need authentication compose it
// with RequireUser or RequireAdmin.
type SessionMiddleware struct {
	tokens *auth.TokenCodec
}

func NewSessionMiddleware(tokens *auth.TokenCodec) *SessionMiddleware {
	return &SessionMiddleware{tokens: tokens}
}

func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.Read(r, auth.SessionCookie)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		user := m.tokens.Verify(token)
		if user == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUser(r.Context()) == nil {
			httputil.WriteError(w, apperrors.Unauthorized("Unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests from non-admin users with 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r.Context())
		if user == nil {
			httputil.WriteError(w, apperrors.Unauthorized("Unauthorized"))
			return
		}
		if !user.IsAdmin {
			httputil.WriteError(w, apperrors.Forbidden("Admin access required"))
			return
		}

		audit.LogFromRequest(r, audit.Event{
			Type:   audit.EventAdminAction,
			UserID: user.ID,
			Details: map[string]interface{}{
				"method": r.Method,
				"path":   r.URL.Path,
			},
		})

		next.ServeHTTP(w, r)
	})
}

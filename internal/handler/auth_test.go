package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamerhub/hub-server-go/internal/auth"
	"github.com/streamerhub/hub-server-go/internal/kick"
	"github.com/streamerhub/hub-server-go/internal/middleware"
	"github.com/streamerhub/hub-server-go/internal/model"
	"github.com/streamerhub/hub-server-go/internal/repository"
	"github.com/streamerhub/hub-server-go/internal/service"
)

const testBaseURL = "http://localhost:3000"

type stubUserRepo struct {
	upsertFunc func(ctx context.Context, params model.UpsertUserParams) (*model.User, error)
}

func (s *stubUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return nil, nil
}

func (s *stubUserRepo) FindByKickID(ctx context.Context, kickID string) (*model.User, error) {
	return nil, nil
}

func (s *stubUserRepo) Upsert(ctx context.Context, params model.UpsertUserParams) (*model.User, error) {
	return s.upsertFunc(ctx, params)
}

func (s *stubUserRepo) AddPoints(ctx context.Context, id string, delta int) (*model.User, error) {
	return nil, nil
}

func (s *stubUserRepo) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	return nil, nil
}

func (s *stubUserRepo) WithTx(tx *sqlx.Tx) repository.UserRepository {
	return s
}

func defaultUpsert(ctx context.Context, params model.UpsertUserParams) (*model.User, error) {
	return &model.User{
		ID:       "user-1",
		KickID:   params.KickID,
		Username: params.Username,
		Points:   model.StartingPoints,
	}, nil
}

func newTestAuthHandler(t *testing.T, clientID string) *AuthHandler {
	t.Helper()
	kickClient := kick.NewClient(clientID, "secret", "http://localhost:8080/api/auth/kick/callback")
	tokens := auth.NewTokenCodec("test-secret-at-least-32-characters!!")
	oauthService := service.NewOAuthService(kickClient, &stubUserRepo{upsertFunc: defaultUpsert}, tokens)
	return NewAuthHandler(oauthService, auth.NewCookies(false), testBaseURL)
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestKickAuth(t *testing.T) {
	t.Run("redirects to provider with flow cookies", func(t *testing.T) {
		h := newTestAuthHandler(t, "client-id")

		req := httptest.NewRequest(http.MethodGet, "/kick?redirectTo=/giveaways", nil)
		rec := httptest.NewRecorder()
		h.KickAuth(rec, req)

		assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
		location := rec.Header().Get("Location")
		assert.Contains(t, location, "id.kick.com/oauth/authorize")
		assert.Contains(t, location, "code_challenge_method=S256")

		state := cookieByName(rec, auth.StateCookie)
		require.NotNil(t, state)
		assert.NotEmpty(t, state.Value)

		verifier := cookieByName(rec, auth.VerifierCookie)
		require.NotNil(t, verifier)
		assert.NotEmpty(t, verifier.Value)
	})

	t.Run("off-site redirect target is discarded", func(t *testing.T) {
		h := newTestAuthHandler(t, "client-id")

		req := httptest.NewRequest(http.MethodGet, "/kick?redirectTo=https://evil.example", nil)
		rec := httptest.NewRecorder()
		h.KickAuth(rec, req)

		state := cookieByName(rec, auth.StateCookie)
		require.NotNil(t, state)
		decoded := auth.DecodeState(state.Value)
		require.NotNil(t, decoded)
		assert.Equal(t, "/", decoded.RedirectTo)
	})

	t.Run("unconfigured provider returns 501", func(t *testing.T) {
		h := newTestAuthHandler(t, "")

		req := httptest.NewRequest(http.MethodGet, "/kick", nil)
		rec := httptest.NewRecorder()
		h.KickAuth(rec, req)

		assert.Equal(t, http.StatusNotImplemented, rec.Code)
	})
}

func TestKickCallbackFailures(t *testing.T) {
	state := auth.EncodeState("/")

	tests := []struct {
		name       string
		query      string
		cookies    []*http.Cookie
		wantReason string
	}{
		{
			name:       "provider error param",
			query:      "error=access_denied",
			wantReason: service.ReasonOAuthError,
		},
		{
			name:       "missing code",
			query:      "state=" + state,
			wantReason: service.ReasonMissingParams,
		},
		{
			name:       "missing state",
			query:      "code=abc",
			wantReason: service.ReasonMissingParams,
		},
		{
			name:       "no state cookie",
			query:      "code=abc&state=" + state,
			wantReason: service.ReasonInvalidState,
		},
		{
			name:  "state cookie mismatch",
			query: "code=abc&state=" + state,
			cookies: []*http.Cookie{
				{Name: auth.StateCookie, Value: auth.EncodeState("/")},
			},
			wantReason: service.ReasonInvalidState,
		},
		{
			name:  "missing verifier cookie",
			query: "code=abc&state=" + state,
			cookies: []*http.Cookie{
				{Name: auth.StateCookie, Value: state},
			},
			wantReason: service.ReasonMissingVerifier,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestAuthHandler(t, "client-id")

			req := httptest.NewRequest(http.MethodGet, "/kick/callback?"+tc.query, nil)
			for _, c := range tc.cookies {
				req.AddCookie(c)
			}
			rec := httptest.NewRecorder()
			h.KickCallback(rec, req)

			assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
			location := rec.Header().Get("Location")
			assert.True(t, strings.HasPrefix(location, testBaseURL+"/auth/login?auth=error"), location)
			assert.Contains(t, location, "message="+tc.wantReason)

			// no session on failure, flow cookies consumed
			assert.Nil(t, cookieByName(rec, auth.SessionCookie))
			stateCookie := cookieByName(rec, auth.StateCookie)
			require.NotNil(t, stateCookie)
			assert.Equal(t, -1, stateCookie.MaxAge)
		})
	}
}

func TestKickCallbackSuccess(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "auth-code", r.PostForm.Get("code"))
		assert.Equal(t, "verifier-abc", r.PostForm.Get("code_verifier"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-123","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	profileServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"42","username":"streamfan"}`))
	}))
	defer profileServer.Close()

	kickClient := kick.NewClient("client-id", "secret", "http://localhost:8080/api/auth/kick/callback",
		kick.WithTokenEndpoint(tokenServer.URL),
		kick.WithProfileEndpoints([]string{profileServer.URL}))
	tokens := auth.NewTokenCodec("test-secret-at-least-32-characters!!")
	oauthService := service.NewOAuthService(kickClient, &stubUserRepo{upsertFunc: defaultUpsert}, tokens)
	h := NewAuthHandler(oauthService, auth.NewCookies(false), testBaseURL)

	state := auth.EncodeState("/giveaways")
	req := httptest.NewRequest(http.MethodGet, "/kick/callback?code=auth-code&state="+state, nil)
	req.AddCookie(&http.Cookie{Name: auth.StateCookie, Value: state})
	req.AddCookie(&http.Cookie{Name: auth.VerifierCookie, Value: "verifier-abc"})
	rec := httptest.NewRecorder()
	h.KickCallback(rec, req)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, testBaseURL+"/giveaways", rec.Header().Get("Location"))

	session := cookieByName(rec, auth.SessionCookie)
	require.NotNil(t, session)
	verified := tokens.Verify(session.Value)
	require.NotNil(t, verified)
	assert.Equal(t, "42", verified.KickID)

	// real identity resolved, so no pseudo cookie
	assert.Nil(t, cookieByName(rec, auth.PersistentIDCookie))

	// flow cookies are consumed with the successful callback
	for _, name := range []string{auth.StateCookie, auth.VerifierCookie} {
		c := cookieByName(rec, name)
		require.NotNil(t, c, name)
		assert.Equal(t, -1, c.MaxAge, name)
	}
}

func TestKickComplete(t *testing.T) {
	t.Run("missing token returns 400", func(t *testing.T) {
		h := newTestAuthHandler(t, "client-id")

		req := httptest.NewRequest(http.MethodPost, "/kick/complete", strings.NewReader(`{"userData":{"id":"1"}}`))
		rec := httptest.NewRecorder()
		h.KickComplete(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("profile payload establishes session", func(t *testing.T) {
		h := newTestAuthHandler(t, "client-id")

		body := `{"token":"at-123","userData":{"data":[{"user_id":555,"username":"streamfan"}]}}`
		req := httptest.NewRequest(http.MethodPost, "/kick/complete", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.KickComplete(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		session := cookieByName(rec, auth.SessionCookie)
		require.NotNil(t, session)
		assert.NotEmpty(t, session.Value)

		// real identity, so no pseudo cookie
		assert.Nil(t, cookieByName(rec, auth.PersistentIDCookie))
	})

	t.Run("unrecognizable payload falls back to pseudo-identity", func(t *testing.T) {
		h := newTestAuthHandler(t, "client-id")

		body := `{"token":"at-123","userData":{"unexpected":"shape"}}`
		req := httptest.NewRequest(http.MethodPost, "/kick/complete", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.KickComplete(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, cookieByName(rec, auth.SessionCookie))

		persistent := cookieByName(rec, auth.PersistentIDCookie)
		require.NotNil(t, persistent)
		assert.True(t, strings.HasPrefix(persistent.Value, "kick_"), persistent.Value)
	})
}

func TestMe(t *testing.T) {
	h := newTestAuthHandler(t, "client-id")

	t.Run("unauthenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		rec := httptest.NewRecorder()
		h.Me(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("authenticated", func(t *testing.T) {
		user := &model.User{ID: "user-1", Username: "streamfan"}
		ctx := context.WithValue(context.Background(), middleware.UserContextKey, user)

		req := httptest.NewRequest(http.MethodGet, "/me", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		h.Me(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"streamfan"`)
	})
}

func TestLogout(t *testing.T) {
	h := newTestAuthHandler(t, "client-id")

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	session := cookieByName(rec, auth.SessionCookie)
	require.NotNil(t, session)
	assert.Empty(t, session.Value)
	assert.Equal(t, -1, session.MaxAge)
}

func TestSafeRedirect(t *testing.T) {
	assert.Equal(t, "/giveaways", safeRedirect("/giveaways"))
	assert.Equal(t, "/", safeRedirect(""))
	assert.Equal(t, "/", safeRedirect("https://evil.example"))
	assert.Equal(t, "/", safeRedirect("//evil.example"))
}

package kick

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	authorizeURL = "https://id.kick.com/oauth/authorize"
	tokenURL     = "https://id.kick.com/oauth/token"

	oauthScopes = "user:read channel:read"
)

// profileEndpoints are probed strictly in this order. Kick intermittently
// blocks or reshapes responses for server-side callers, so the official
// public endpoint goes first and the legacy ones act as fallbacks.
var profileEndpoints = []string{
	"https://api.kick.com/public/v1/users",
	"https://kick.com/api/v2/user",
	"https://kick.com/api/v1/user",
	"https://kick.com/oauth/userinfo",
	"https://id.kick.com/oauth/userinfo",
}

// Tokens is the token endpoint response. Used once to fetch a profile, never
// persisted.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in"`
}

// Profile is the normalized user shape regardless of which endpoint
// produced it.
type Profile struct {
	ID          string
	Username    string
	DisplayName string
	Avatar      *string
	Email       *string
}

// ExchangeError carries the upstream status and body from a failed code
// exchange for diagnosis. The body is never surfaced to end users.
type ExchangeError struct {
	Status int
	Body   string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("kick token exchange failed: status %d", e.Status)
}

type Client struct {
	clientID     string
	clientSecret string
	redirectURI  string
	httpClient   *http.Client

	tokenEndpoint    string
	profileEndpoints []string
}

// Option overrides client defaults. Used by tests to point the client at
// local servers.
type Option func(*Client)

func WithTokenEndpoint(endpoint string) Option {
	return func(c *Client) { c.tokenEndpoint = endpoint }
}

func WithProfileEndpoints(endpoints []string) Option {
	return func(c *Client) { c.profileEndpoints = endpoints }
}

func NewClient(clientID, clientSecret, redirectURI string, opts ...Option) *Client {
	c := &Client{
		clientID:         clientID,
		clientSecret:     clientSecret,
		redirectURI:      redirectURI,
		httpClient:       &http.Client{Timeout: 10 * time.Second},
		tokenEndpoint:    tokenURL,
		profileEndpoints: profileEndpoints,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Configured() bool {
	return c.clientID != ""
}

// AuthURL builds the authorize redirect with the state and PKCE challenge.
func (c *Client) AuthURL(state, codeChallenge string) string {
	params := url.Values{
		"client_id":             {c.clientID},
		"response_type":         {"code"},
		"redirect_uri":          {c.redirectURI},
		"state":                 {state},
		"scope":                 {oauthScopes},
		"code_challenge":        {codeChallenge},
		"code_challenge_method": {"S256"},
	}
	return authorizeURL + "?" + params.Encode()
}

// ExchangeCode trades the authorization code plus PKCE verifier for tokens.
// Any non-2xx response is returned as *ExchangeError and is fatal for the
// current flow.
func (c *Client) ExchangeCode(ctx context.Context, code, codeVerifier string) (*Tokens, error) {
	data := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {c.redirectURI},
		"code_verifier": {codeVerifier},
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.tokenEndpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().Int("status", resp.StatusCode).Msg("kick token exchange failed")
		return nil, &ExchangeError{Status: resp.StatusCode, Body: string(body)}
	}

	var tokens Tokens
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	return &tokens, nil
}

// FetchProfile probes the candidate endpoints in priority order and returns
// the first recognizable profile. Every per-endpoint failure (non-OK status,
// non-JSON body, unrecognized shape) moves to the next candidate; exhausting
// all candidates returns nil without an error so login can proceed with a
// pseudo-identity.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) *Profile {
	for _, endpoint := range c.profileEndpoints {
		profile := c.tryProfileEndpoint(ctx, endpoint, accessToken)
		if profile != nil {
			log.Info().Str("endpoint", endpoint).Str("kickId", profile.ID).Msg("kick profile resolved")
			return profile
		}
	}

	log.Warn().Msg("all kick profile endpoints exhausted, proceeding without profile")
	return nil
}

func (c *Client) tryProfileEndpoint(ctx context.Context, endpoint, accessToken string) *Profile {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("endpoint", endpoint).Msg("kick profile endpoint unreachable")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Debug().Int("status", resp.StatusCode).Str("endpoint", endpoint).Msg("kick profile endpoint rejected request")
		return nil
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		log.Debug().Str("endpoint", endpoint).Msg("kick profile endpoint returned non-JSON body")
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}

	return ParseProfile(body)
}

// ParseProfile accepts the known Kick user-object shapes:
// {data:[user, ...]}, a bare {id|user_id|sub, ...} object, or {user:{...}}.
func ParseProfile(body []byte) *Profile {
	var envelope struct {
		Data []json.RawMessage `json:"data"`
		User json.RawMessage   `json:"user"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}

	if len(envelope.Data) > 0 {
		return parseUserObject(envelope.Data[0])
	}
	if len(envelope.User) > 0 {
		return parseUserObject(envelope.User)
	}
	return parseUserObject(body)
}

// flexibleID accepts both numeric and string identifiers; the endpoints
// disagree on which one they return.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexibleID(n.String())
		return nil
	}
	// Unrecognized id types degrade to "missing", not a parse failure.
	*f = ""
	return nil
}

type rawUser struct {
	ID             flexibleID `json:"id"`
	UserID         flexibleID `json:"user_id"`
	Sub            string     `json:"sub"`
	Name           string     `json:"name"`
	Username       string     `json:"username"`
	Slug           string     `json:"slug"`
	Email          string     `json:"email"`
	ProfilePicture string     `json:"profile_picture"`
	ProfilePic     string     `json:"profile_pic"`
	Avatar         string     `json:"avatar"`
	Picture        string     `json:"picture"`
}

func parseUserObject(data []byte) *Profile {
	var u rawUser
	if err := json.Unmarshal(data, &u); err != nil {
		return nil
	}

	id := firstNonEmpty(string(u.UserID), string(u.ID), u.Sub)
	if id == "" {
		return nil
	}

	username := firstNonEmpty(u.Username, u.Name, u.Slug)
	if username == "" {
		username = "kick_user"
	}

	profile := &Profile{
		ID:          id,
		Username:    username,
		DisplayName: firstNonEmpty(u.Name, u.Slug, u.Username, username),
	}
	if avatar := firstNonEmpty(u.ProfilePicture, u.ProfilePic, u.Avatar, u.Picture); avatar != "" {
		profile.Avatar = &avatar
	}
	if u.Email != "" {
		email := u.Email
		profile.Email = &email
	}
	return profile
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

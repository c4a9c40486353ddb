package auth

import (
	"encoding/base64"
	"encoding/json"

	"github.com/google/uuid"
)

// OAuthState is the per-flow value echoed back by the provider. It is not
// secret, only unguessable; tampering is caught by the cookie comparison in
// the callback handler, not by the encoding.
type OAuthState struct {
	Nonce      string `json:"nonce"`
	RedirectTo string `json:"redirectTo,omitempty"`
}

// EncodeState bundles a fresh nonce with the post-login redirect target into
// an opaque URL-safe string.
func EncodeState(redirectTo string) string {
	state := OAuthState{
		Nonce:      uuid.NewString(),
		RedirectTo: redirectTo,
	}
	data, _ := json.Marshal(state)
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeState returns nil on any malformed input so callers can treat every
// bad state uniformly.
func DecodeState(s string) *OAuthState {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil
	}
	var state OAuthState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil
	}
	return &state
}

package auth

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateRoundTrip(t *testing.T) {
	encoded := EncodeState("/giveaways")

	decoded := DecodeState(encoded)
	require.NotNil(t, decoded)
	assert.Equal(t, "/giveaways", decoded.RedirectTo)
	assert.NotEmpty(t, decoded.Nonce)
}

func TestStateNonceIsFresh(t *testing.T) {
	a := DecodeState(EncodeState("/"))
	b := DecodeState(EncodeState("/"))
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.NotEqual(t, a.Nonce, b.Nonce)
}

func TestStateEmptyRedirect(t *testing.T) {
	decoded := DecodeState(EncodeState(""))
	require.NotNil(t, decoded)
	assert.Empty(t, decoded.RedirectTo)
}

func TestDecodeStateMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "empty string",
			input: "",
		},
		{
			name:  "not base64",
			input: "%%%not-base64%%%",
		},
		{
			name:  "base64 but not json",
			input: base64.RawURLEncoding.EncodeToString([]byte("plain text")),
		},
		{
			name:  "standard base64 padding",
			input: base64.StdEncoding.EncodeToString([]byte(`{"nonce":"x"}`)) + "==",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Nil(t, DecodeState(tc.input))
		})
	}
}

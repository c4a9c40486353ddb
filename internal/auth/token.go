package auth

import (
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/streamerhub/hub-server-go/internal/model"
)

// SessionTokenTTL bounds how long a signed session stays valid. Sessions are
// self-contained; there is no server-side session store to revoke against.
const SessionTokenTTL = 7 * 24 * time.Hour

type sessionClaims struct {
	User json.RawMessage `json:"user"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies the self-contained session credential.
type TokenCodec struct {
	secret []byte
}

func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret)}
}

// Sign embeds the full user record in an HS256 JWT with a 7-day expiry.
func (c *TokenCodec) Sign(user *model.User) (string, error) {
	payload, err := json.Marshal(user)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := sessionClaims{
		User: payload,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTokenTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify checks signature and expiry. Returns nil on any failure; callers
// must treat nil as "not authenticated", never as an error to propagate.
func (c *TokenCodec) Verify(token string) *model.User {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil
	}

	var user model.User
	if err := json.Unmarshal(claims.User, &user); err != nil {
		return nil
	}
	return &user
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/streamerhub/hub-server-go/internal/auth"
	"github.com/streamerhub/hub-server-go/internal/kick"
	"github.com/streamerhub/hub-server-go/internal/model"
	"github.com/streamerhub/hub-server-go/internal/repository"
	"github.com/streamerhub/hub-server-go/internal/util"
)

var ErrProviderNotConfigured = errors.New("kick OAuth not configured")

// Failure reasons surfaced to the login error page. Nothing upstream-specific
// crosses this boundary.
const (
	ReasonOAuthError      = "oauth_error"
	ReasonMissingParams   = "missing_params"
	ReasonInvalidState    = "invalid_state"
	ReasonMissingVerifier = "missing_verifier"
	ReasonAuthFailed      = "auth_failed"
)

// LoginStart carries everything the handler needs to send the browser to the
// provider: the values to store in cookies and the authorize URL.
type LoginStart struct {
	AuthURL      string
	State        string
	CodeVerifier string
}

// LoginResult is a completed authentication. PseudoID is non-empty when the
// identity was synthesized rather than resolved from the provider, so the
// handler can persist it for a year.
type LoginResult struct {
	User         *model.User
	SessionToken string
	PseudoID     string
}

type OAuthService struct {
	kick     *kick.Client
	userRepo repository.UserRepository
	tokens   *auth.TokenCodec
}

func NewOAuthService(kickClient *kick.Client, userRepo repository.UserRepository, tokens *auth.TokenCodec) *OAuthService {
	return &OAuthService{
		kick:     kickClient,
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// BeginLogin generates the state and PKCE pair for a fresh flow and builds
// the authorize URL.
func (s *OAuthService) BeginLogin(redirectTo string) (*LoginStart, error) {
	if !s.kick.Configured() {
		return nil, ErrProviderNotConfigured
	}

	state := auth.EncodeState(redirectTo)
	verifier, err := auth.GenerateCodeVerifier()
	if err != nil {
		return nil, err
	}

	return &LoginStart{
		AuthURL:      s.kick.AuthURL(state, auth.CodeChallengeS256(verifier)),
		State:        state,
		CodeVerifier: verifier,
	}, nil
}

// CompleteCallback runs the exchange and profile-resolution steps of the
// flow. persistentID is the previously issued pseudo-identity from the
// browser, or "" when none exists. A nil profile is a handled condition, not
// a failure: the login proceeds with a pseudo-identity.
func (s *OAuthService) CompleteCallback(ctx context.Context, code, codeVerifier, persistentID string) (*LoginResult, error) {
	tokens, err := s.kick.ExchangeCode(ctx, code, codeVerifier)
	if err != nil {
		var exchangeErr *kick.ExchangeError
		if errors.As(err, &exchangeErr) {
			log.Error().
				Int("status", exchangeErr.Status).
				Str("body", exchangeErr.Body).
				Msg("kick code exchange rejected")
		}
		return nil, err
	}

	profile := s.kick.FetchProfile(ctx, tokens.AccessToken)
	return s.establishSession(ctx, profile, persistentID)
}

// CompleteWithProfile finishes a flow whose profile was fetched from the
// browser because Kick blocked the server-side call. rawProfile may be nil
// or unrecognizable; the pseudo-identity fallback covers both.
func (s *OAuthService) CompleteWithProfile(ctx context.Context, rawProfile json.RawMessage, persistentID string) (*LoginResult, error) {
	var profile *kick.Profile
	if len(rawProfile) > 0 {
		profile = kick.ParseProfile(rawProfile)
	}
	return s.establishSession(ctx, profile, persistentID)
}

func (s *OAuthService) establishSession(ctx context.Context, profile *kick.Profile, persistentID string) (*LoginResult, error) {
	var params model.UpsertUserParams
	var pseudoID string

	switch {
	case profile != nil:
		params = model.UpsertUserParams{
			KickID:      profile.ID,
			Username:    profile.Username,
			DisplayName: profile.DisplayName,
			Avatar:      profile.Avatar,
			Email:       profile.Email,
		}
	case persistentID != "":
		// Reuse and refresh the previously issued pseudo-identity.
		pseudoID = persistentID
		params = pseudoUserParams(persistentID)
	default:
		pseudoID = mintPseudoID()
		params = pseudoUserParams(pseudoID)
		log.Info().Str("kickId", pseudoID).Msg("minted pseudo-identity for unresolvable profile")
	}

	user, err := s.userRepo.Upsert(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	token, err := s.tokens.Sign(user)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	log.Info().
		Str("userId", user.ID).
		Str("kickId", user.KickID).
		Bool("pseudo", profile == nil).
		Msg("login successful")

	return &LoginResult{User: user, SessionToken: token, PseudoID: pseudoID}, nil
}

func pseudoUserParams(kickID string) model.UpsertUserParams {
	return model.UpsertUserParams{
		KickID:      kickID,
		Username:    "kick_user",
		DisplayName: "kick_user",
	}
}

// mintPseudoID produces a stable random identity for a browser whose real
// provider id could not be resolved.
func mintPseudoID() string {
	return fmt.Sprintf("kick_%d_%s", time.Now().UnixMilli(), util.ShortID())
}

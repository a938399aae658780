// Package tokens persists the dashboard session: the access and refresh tokens
// issued by the backend (or the demo tokens minted by the mock service).
package tokens

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"

	// TokenTypeBearer is the token_type the backend reports.
	TokenTypeBearer = "bearer"
)

// Store is a plain key/value accessor over persistent storage. Get never fails:
// a missing key, an empty value or an unreadable backend all report absent.
type Store interface {
	Get(ctx context.Context, name string) (string, bool)
	Set(ctx context.Context, name, value string) error
	Remove(ctx context.Context, name string) error
}

// Session is the stored (access, refresh) pair. Both are present or neither is.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse is the wire shape of the login and refresh endpoints.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
}

func (s Session) Valid() bool {
	return s.AccessToken != "" && s.RefreshToken != ""
}

// Response renders the session as a bearer token response.
func (s Session) Response() TokenResponse {
	return TokenResponse{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken, TokenType: TokenTypeBearer}
}

// OAuth2Token converts the session for code that speaks golang.org/x/oauth2.
func (s Session) OAuth2Token() *oauth2.Token {
	return &oauth2.Token{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken, TokenType: TokenTypeBearer}
}

// SessionFromToken validates a decoded login/refresh response. Both tokens are
// required; a response missing either is treated as malformed.
func SessionFromToken(tok *oauth2.Token) (Session, error) {
	if tok == nil || !tok.Valid() {
		return Session{}, errors.New("token response has no usable access token")
	}
	if tok.RefreshToken == "" {
		return Session{}, errors.New("token response has no refresh token")
	}
	return Session{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken}, nil
}

// LoadSession returns the stored session. ok is false unless both tokens are present.
func LoadSession(ctx context.Context, s Store) (Session, bool) {
	access, okA := s.Get(ctx, AccessTokenKey)
	refresh, okR := s.Get(ctx, RefreshTokenKey)
	if !okA || !okR {
		return Session{}, false
	}
	return Session{AccessToken: access, RefreshToken: refresh}, true
}

// SaveSession writes both tokens. If the second write fails the first is rolled
// back so no partial session is left behind.
func SaveSession(ctx context.Context, s Store, session Session) error {
	if !session.Valid() {
		return errors.New("session requires both access and refresh tokens")
	}
	if err := s.Set(ctx, AccessTokenKey, session.AccessToken); err != nil {
		return fmt.Errorf("saving access token: %w", err)
	}
	if err := s.Set(ctx, RefreshTokenKey, session.RefreshToken); err != nil {
		return errors.Join(fmt.Errorf("saving refresh token: %w", err), ClearSession(ctx, s))
	}
	return nil
}

// ClearSession removes both tokens, attempting each removal even if one fails.
func ClearSession(ctx context.Context, s Store) error {
	return errors.Join(s.Remove(ctx, AccessTokenKey), s.Remove(ctx, RefreshTokenKey))
}

package devapi

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/water-dashboard/internal/errors"
	"github.com/jrsteele09/water-dashboard/tokens"
	"github.com/jrsteele09/water-dashboard/users"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims carried by access and refresh tokens.
type Claims struct {
	Role       users.Role `json:"role"`
	Email      string     `json:"email"`
	Type       string     `json:"type"`
	Generation int64      `json:"gen,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject.
func (c *Claims) UserID() (int, error) {
	return strconv.Atoi(c.Subject)
}

// issuer creates and checks token pairs. Access tokens are stamped with the
// current generation; bumping it invalidates every access token issued so far.
type issuer struct {
	signer        Signer
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	now           func() time.Time
	generation    atomic.Int64
	refresh       *refreshManager
}

func newIssuer(signer Signer, accessExpiry, refreshExpiry time.Duration, now func() time.Time) *issuer {
	return &issuer{
		signer:        signer,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		now:           now,
		refresh:       newRefreshManager(),
	}
}

// issue creates a new pair for the profile. The refresh token becomes the only
// one the user may redeem.
func (i *issuer) issue(p users.Profile) (tokens.TokenResponse, error) {
	access, err := i.sign(p, tokenTypeAccess, i.accessExpiry, uuid.NewString())
	if err != nil {
		return tokens.TokenResponse{}, err
	}
	jti := uuid.NewString()
	refresh, err := i.sign(p, tokenTypeRefresh, i.refreshExpiry, jti)
	if err != nil {
		return tokens.TokenResponse{}, err
	}
	i.refresh.track(p.ID, jti)
	return tokens.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokens.TokenTypeBearer,
		ExpiresIn:    int64(i.accessExpiry.Seconds()),
	}, nil
}

func (i *issuer) sign(p users.Profile, tokenType string, ttl time.Duration, jti string) (string, error) {
	now := i.now()
	claims := &Claims{
		Role:  p.Role,
		Email: p.Email,
		Type:  tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(p.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
	}
	if tokenType == tokenTypeAccess {
		claims.Generation = i.generation.Load()
	}
	return i.signer.Sign(claims)
}

// parse verifies signature, expiry and token type.
func (i *issuer) parse(raw, tokenType string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, i.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{i.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "%v", err)
	}
	if claims.Type != tokenType {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "expected %s token, got %q", tokenType, claims.Type)
	}
	if tokenType == tokenTypeAccess && claims.Generation < i.generation.Load() {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "access token revoked")
	}
	return claims, nil
}

// expireAccessTokens revokes every access token issued so far.
func (i *issuer) expireAccessTokens() {
	i.generation.Add(1)
}

// rotate redeems a refresh token. Only the latest token issued to the user is
// accepted, and it is consumed.
func (i *issuer) rotate(raw string) (*Claims, error) {
	claims, err := i.parse(raw, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "subject %q", claims.Subject)
	}
	if !i.refresh.consume(userID, claims.ID) {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "refresh token %s superseded", claims.ID)
	}
	return claims, nil
}

// refreshManager remembers the single live refresh token id per user.
type refreshManager struct {
	mu     sync.Mutex
	latest map[int]string
}

func newRefreshManager() *refreshManager {
	return &refreshManager{latest: make(map[int]string)}
}

func (m *refreshManager) track(userID int, jti string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest[userID] = jti
}

func (m *refreshManager) consume(userID int, jti string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latest[userID] != jti || jti == "" {
		return false
	}
	delete(m.latest, userID)
	return true
}

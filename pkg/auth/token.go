package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	// ErrTokenInvalid is returned when a token fails signature or claim
	// validation for any reason. Callers must not distinguish further.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims are the JWT claims carried by a bearer token. The subject is
// the user ID; role and org scope are embedded so that request
// authorization never needs a user lookup.
type Claims struct {
	Role          Role   `json:"role"`
	LocalOfficeID *int64 `json:"local_office_id,omitempty"`
	RegionID      *int64 `json:"region_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 bearer tokens
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a token manager. The secret must come from
// configuration, never from source.
func NewTokenManager(secret []byte, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: secret, ttl: ttl}
}

// TTL returns the lifetime of issued tokens
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue mints a signed token for the principal
func (m *TokenManager) Issue(p Principal) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:          p.Role,
		LocalOfficeID: p.LocalOfficeID,
		RegionID:      p.RegionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token and reconstructs the principal.
// Any failure, expiry included, collapses to ErrTokenInvalid.
func (m *TokenManager) Verify(tokenString string) (*Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrTokenInvalid
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if !claims.Role.Valid() {
		return nil, ErrTokenInvalid
	}
	return &Principal{
		ID:            id,
		Role:          claims.Role,
		LocalOfficeID: claims.LocalOfficeID,
		RegionID:      claims.RegionID,
	}, nil
}

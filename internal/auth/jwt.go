// Package auth issues and checks the session credentials for the auction site.
//
// A signed-in user carries an HS256 JWT in the HttpOnly "token" cookie. The
// token's subject is the internal user ID; nothing else about the user lives
// in the token, so a rename or email change never invalidates a session.
//
// Sign-in paths that end in a token cookie:
//   - POST /auth/register and POST /auth/login (username + password, bcrypt)
//   - GET  /auth/github/callback (optional, only when GitHub creds are set)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is written into every token and required on validation.
const Issuer = "auctions"

// DefaultTokenTTL is how long a session lasts when the config doesn't say.
const DefaultTokenTTL = 24 * time.Hour

// TokenService signs and verifies session tokens with one HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService rejects secrets shorter than 16 bytes. A ttl of zero or
// less falls back to DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL is the lifetime of tokens from Generate. The cookie MaxAge uses it too.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Generate signs a token for userID that expires after TTL.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration signs a token with an explicit lifetime. A negative
// d yields an already-expired token, which the tests rely on.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()
	c := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		Issuer:    Issuer,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate returns the user ID in a well-formed, unexpired token.
//
// Only HS256 is accepted; pinning the method stops a forged token from
// picking "none" or an asymmetric algorithm.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	var c jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.New("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}
	if !token.Valid {
		return "", errors.New("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", errors.New("auth: token has no subject")
	}
	return c.Subject, nil
}

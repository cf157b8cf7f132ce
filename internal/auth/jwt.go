// Package auth identifies browser profiles and checks account passwords.
//
// PROFILE IDENTITY OVERVIEW:
// Every browser that visits the app gets its own "profile": the server-side
// stand-in for that browser's local storage. The profile id travels in a
// signed cookie:
//  1. First visit: no cookie → mint an xid, sign it, Set-Cookie: profile=<jwt>
//  2. Later visits: middleware validates the JWT and puts the id in the context
//  3. A tampered, expired or foreign cookie is treated like no cookie
//
// Accounts (users, sessions) live INSIDE a profile and are handled by the
// service layer. This package never decides who is logged in.
//
// The token is an HS256 JWT whose subject is the profile id.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "prompt-cards"

// ProfileLifetime is how long a profile cookie stays valid.
// Roughly the cap browsers put on cookie lifetimes.
const ProfileLifetime = 400 * 24 * time.Hour

// TokenService signs and verifies profile tokens with an HMAC secret.
type TokenService struct {
	secret []byte
}

// NewTokenService rejects secrets shorter than 16 characters.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: profile secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. "sub" carries the profile id.
type claims struct {
	jwt.RegisteredClaims
}

// Generate signs a token for profileID valid for ProfileLifetime.
func (s *TokenService) Generate(profileID string) (string, error) {
	return s.GenerateWithDuration(profileID, ProfileLifetime)
}

// GenerateWithDuration signs a token with a custom lifetime. Tests use negative durations.
func (s *TokenService) GenerateWithDuration(profileID string, d time.Duration) (string, error) {
	now := time.Now()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   profileID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(d)),
	}}).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing profile token: %w", err)
	}
	return signed, nil
}

// Validate returns the profile id of a token this service signed. Only
// HS256 is accepted, and the issuer and an expiry must be present.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", errors.New("auth: profile token expired")
	case err != nil:
		return "", fmt.Errorf("auth: invalid profile token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" {
		return "", errors.New("auth: profile token carries no profile")
	}
	return c.Subject, nil
}

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/utafrali/salesonboard/pkg/errors"
)

// Claims is the subset of the backend's access-token claims the CLI reports.
// Both id claim spellings seen from the backend are accepted.
type Claims struct {
	AccountID string `json:"id"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// TokenInfo describes the cached token without contacting the server.
type TokenInfo struct {
	Subject   string
	Email     string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that has passed.
func (t *TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// ParseToken decodes a JWT without verifying its signature. The client holds
// no signing key; the result is informational only.
func ParseToken(raw string) (*TokenInfo, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}

	info := &TokenInfo{Subject: claims.Subject, Email: claims.Email, Role: claims.Role}
	if info.Subject == "" {
		info.Subject = claims.UserID
	}
	if info.Subject == "" {
		info.Subject = claims.AccountID
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// TokenInfo decodes the cached token. It never affects IsAuthenticated.
func (s *Service) TokenInfo(ctx context.Context) (*TokenInfo, error) {
	token, err := s.sessions.Token(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, apperrors.AuthRequired()
	}
	return ParseToken(token)
}

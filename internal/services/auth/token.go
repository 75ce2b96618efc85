package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the client can read from an access token without the
// signing key.
type TokenInfo struct {
	Subject   string
	UserID    string
	Role      string
	Type      string
	ExpiresAt time.Time
}

// Expired reports whether the token expiry has passed at now. Tokens
// without an exp claim never expire client-side.
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

type platformClaims struct {
	Role   string `json:"role"`
	UserID string `json:"userId"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// InspectToken decodes the claims of token without verifying the
// signature. The result is for display only; the server remains the
// authority on validity.
func InspectToken(token string) (TokenInfo, error) {
	var claims platformClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return TokenInfo{}, fmt.Errorf("auth: malformed token: %w", err)
	}

	info := TokenInfo{
		Subject: claims.Subject,
		UserID:  claims.UserID,
		Role:    claims.Role,
		Type:    claims.Type,
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

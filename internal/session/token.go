package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the subset of bearer token claims the client reads.
// The signature is not verified: the server remains the only authority.
type TokenClaims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

type bearerClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// InspectToken decodes the claims of a JWT bearer token. ok is false for
// opaque tokens.
func InspectToken(token string) (TokenClaims, bool) {
	var claims bearerClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return TokenClaims{}, false
	}
	out := TokenClaims{Subject: claims.Subject, Role: claims.Role}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, true
}

// TokenExpired reports whether token is a JWT whose exp lies before now.
// Opaque tokens and tokens without exp are never considered expired.
func TokenExpired(token string, now time.Time) bool {
	claims, ok := InspectToken(token)
	if !ok || claims.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(claims.ExpiresAt)
}

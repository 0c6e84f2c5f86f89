package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleOwner  = "owner"
	RoleWalker = "walker"
	RoleAdmin  = "admin"
)

// Claims is issued by the identity service. WalkerVerified mirrors the
// walker's onboarding state at token issue time.
type Claims struct {
	UserID         string `json:"user_id"`
	Role           string `json:"role"`
	WalkerVerified bool   `json:"walker_verified,omitempty"`
	jwt.RegisteredClaims
}

// SignToken mints an HS256 token. The service itself only verifies tokens;
// this exists for local tooling and tests.
func SignToken(secret string, claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

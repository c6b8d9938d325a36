// Package auth provides GitHub OAuth login and signed session tokens.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/commitdigest/commitdigest/internal/domain/model"
)

// ErrUnauthenticated is the uniform rejection for any session token problem:
// bad signature, expiry, malformed token, or an unresolvable subject. Callers
// must not distinguish these cases in responses; logs may.
var ErrUnauthenticated = errors.New("unauthenticated")

// Claims is the decoded session token payload. Username and GitHubID are
// denormalized for convenience; the stored user resolved via Subject is
// authoritative.
type Claims struct {
	Username string `json:"username"`
	GitHubID int64  `json:"github_id"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies signed session tokens. It is a pure function
// of its inputs and the configured signing secret, so any server instance
// can verify any token.
type Sessions struct {
	secret   []byte
	lifetime time.Duration
}

// NewSessions creates a Sessions unit with the given signing secret and
// token lifetime.
func NewSessions(secret string, lifetime time.Duration) *Sessions {
	return &Sessions{secret: []byte(secret), lifetime: lifetime}
}

// Issue mints a signed session token for the user. The subject is the
// user's internal id.
func (s *Sessions) Issue(user *model.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: user.Username,
		GitHubID: user.GitHubID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks the token's signature and expiry and returns its claims.
// Every failure mode collapses to ErrUnauthenticated.
func (s *Sessions) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrUnauthenticated
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrUnauthenticated
	}

	return claims, nil
}

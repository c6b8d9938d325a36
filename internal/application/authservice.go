// Package application contains the use-case services wiring ports together.
package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/commitdigest/commitdigest/internal/auth"
	"github.com/commitdigest/commitdigest/internal/domain/model"
	"github.com/commitdigest/commitdigest/internal/domain/port/driven"
)

// LoginResult is what a completed OAuth login hands back to the HTTP layer:
// the session token for the redirect and the stored user record.
type LoginResult struct {
	Token string
	User  model.PublicUser
}

// AuthService completes OAuth logins and resolves session tokens to users.
// The user store it receives must be the encrypting decorator, so tokens
// written here land encrypted and tokens read back are plaintext.
type AuthService struct {
	users    driven.UserStore
	sessions *auth.Sessions
}

// NewAuthService creates an AuthService.
func NewAuthService(users driven.UserStore, sessions *auth.Sessions) *AuthService {
	return &AuthService{users: users, sessions: sessions}
}

// Login persists the verified OAuth profile and mints a session token.
// A first login creates the user; a repeat login updates username, avatar
// and the stored access token under the same internal id.
func (s *AuthService) Login(ctx context.Context, profile *auth.Profile) (*LoginResult, error) {
	user, err := s.users.Upsert(ctx, model.User{
		GitHubID:    profile.GitHubID,
		Username:    profile.Username,
		AvatarURL:   profile.AvatarURL,
		AccessToken: profile.AccessToken,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	token, err := s.sessions.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	slog.Info("user logged in", "user_id", user.ID, "username", user.Username)

	return &LoginResult{Token: token, User: user.Public()}, nil
}

// Authenticate verifies a session token and resolves its subject to a stored
// user. Every failure collapses to auth.ErrUnauthenticated; the caller must
// not learn whether the token was malformed, expired, or orphaned.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.sessions.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("resolve session subject: %w", err)
	}
	if user == nil {
		slog.Warn("session subject no longer exists", "user_id", claims.Subject)
		return nil, auth.ErrUnauthenticated
	}

	return user, nil
}

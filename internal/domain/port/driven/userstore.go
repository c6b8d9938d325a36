package driven

import (
	"context"

	"github.com/commitdigest/commitdigest/internal/domain/model"
)

// UserUpdate is a partial update of a user record. Nil fields are left
// untouched, so callers updating one field never have to re-supply the rest.
type UserUpdate struct {
	Username    *string
	AvatarURL   *string
	AccessToken *string
}

// UserStore defines the driven port for user persistence. Implementations
// below the encrypting decorator store the access token exactly as given;
// callers above the decorator only ever see plaintext tokens.
type UserStore interface {
	// FindByGitHubID retrieves a user by GitHub account id.
	// Returns nil, nil if no such user exists.
	FindByGitHubID(ctx context.Context, githubID int64) (*model.User, error)

	// FindByID retrieves a user by internal id. Returns nil, nil if no such
	// user exists.
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Upsert creates the user when no record with the same GitHub id exists,
	// assigning a fresh internal id, and otherwise updates username, avatar
	// and access token in place. The internal id and creation time of an
	// existing record never change. Concurrent first logins for the same
	// GitHub id must resolve to a single record.
	Upsert(ctx context.Context, user model.User) (*model.User, error)

	// Update applies a partial update to the user with the given internal id.
	// Returns ErrUserNotFound if no such user exists.
	Update(ctx context.Context, id string, update UserUpdate) (*model.User, error)
}

// Package memory implements the driven persistence ports on in-process maps.
// It is a development-only profile: credentials live in process memory, so
// it is not horizontally scalable and loses state on restart.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/commitdigest/commitdigest/internal/domain/model"
	"github.com/commitdigest/commitdigest/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.UserStore = (*UserRepo)(nil)

// UserRepo is the in-memory implementation of the UserStore port interface.
// All state is owned by the instance; there is no package-level map.
type UserRepo struct {
	mu    sync.RWMutex
	users map[string]model.User // keyed by internal id
}

// NewUserRepo creates an empty in-memory UserRepo.
func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[string]model.User)}
}

// FindByGitHubID retrieves a user by GitHub account id. Returns nil, nil if
// no such user exists.
func (r *UserRepo) FindByGitHubID(_ context.Context, githubID int64) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.GitHubID == githubID {
			u := user
			return &u, nil
		}
	}
	return nil, nil
}

// FindByID retrieves a user by internal id. Returns nil, nil if no such
// user exists.
func (r *UserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	u := user
	return &u, nil
}

// Upsert inserts a new user or updates the existing one with the same
// GitHub id. The mutex serializes concurrent first logins so they converge
// on a single record.
func (r *UserRepo) Upsert(_ context.Context, user model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()

	for id, existing := range r.users {
		if existing.GitHubID == user.GitHubID {
			existing.Username = user.Username
			existing.AvatarURL = user.AvatarURL
			existing.AccessToken = user.AccessToken
			existing.UpdatedAt = now
			r.users[id] = existing
			u := existing
			return &u, nil
		}
	}

	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user

	u := user
	return &u, nil
}

// Update applies a partial update to the user with the given internal id.
func (r *UserRepo) Update(_ context.Context, id string, update driven.UserUpdate) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("update user %s: %w", id, driven.ErrUserNotFound)
	}

	if update.Username != nil {
		user.Username = *update.Username
	}
	if update.AvatarURL != nil {
		user.AvatarURL = *update.AvatarURL
	}
	if update.AccessToken != nil {
		user.AccessToken = *update.AccessToken
	}
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user

	u := user
	return &u, nil
}

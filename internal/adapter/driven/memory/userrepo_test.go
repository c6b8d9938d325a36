package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commitdigest/commitdigest/internal/domain/model"
	"github.com/commitdigest/commitdigest/internal/domain/port/driven"
)

func TestUserRepo_UpsertCreatesAndUpdates(t *testing.T) {
	repo := NewUserRepo()
	ctx := context.Background()

	first, err := repo.Upsert(ctx, model.User{GitHubID: 42, Username: "alice", AccessToken: "t1"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	second, err := repo.Upsert(ctx, model.User{GitHubID: 42, Username: "alice-renamed", AccessToken: "t2"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "alice-renamed", second.Username)
	assert.Equal(t, "t2", second.AccessToken)

	found, err := repo.FindByGitHubID(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)
}

func TestUserRepo_ConcurrentFirstLogin(t *testing.T) {
	repo := NewUserRepo()
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Upsert(ctx, model.User{GitHubID: 42, Username: "alice", AccessToken: "t"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	repo.mu.RLock()
	defer repo.mu.RUnlock()
	assert.Len(t, repo.users, 1)
}

func TestUserRepo_FindMissing(t *testing.T) {
	repo := NewUserRepo()
	ctx := context.Background()

	user, err := repo.FindByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = repo.FindByGitHubID(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepo_UpdatePartial(t *testing.T) {
	repo := NewUserRepo()
	ctx := context.Background()

	created, err := repo.Upsert(ctx, model.User{GitHubID: 42, Username: "alice", AccessToken: "old"})
	require.NoError(t, err)

	token := "new"
	updated, err := repo.Update(ctx, created.ID, driven.UserUpdate{AccessToken: &token})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.AccessToken)
	assert.Equal(t, "alice", updated.Username)
}

func TestUserRepo_UpdateMissing(t *testing.T) {
	repo := NewUserRepo()
	token := "t"
	_, err := repo.Update(context.Background(), "nope", driven.UserUpdate{AccessToken: &token})
	assert.ErrorIs(t, err, driven.ErrUserNotFound)
}

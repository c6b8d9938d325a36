package sqlite

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commitdigest/commitdigest/internal/domain/model"
	"github.com/commitdigest/commitdigest/internal/domain/port/driven"
)

func seedUser(t *testing.T, db *DB, githubID int64) *model.User {
	t.Helper()
	user, err := NewUserRepo(db).Upsert(context.Background(), model.User{
		GitHubID:    githubID,
		Username:    "alice",
		AccessToken: "t",
	})
	require.NoError(t, err)
	return user
}

func TestReportRepo_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReportRepo(db)
	ctx := context.Background()
	user := seedUser(t, db, 42)

	created, err := repo.Create(ctx, model.Report{
		UserID:         user.ID,
		RepositoryName: "alice/widget",
		Content:        json.RawMessage(`{"summary":{"title":"Auth rework"}}`),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.GeneratedAt.IsZero())

	found, err := repo.GetByIDForUser(ctx, created.ID, user.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "alice/widget", found.RepositoryName)
	assert.JSONEq(t, `{"summary":{"title":"Auth rework"}}`, string(found.Content))
}

func TestReportRepo_GetScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReportRepo(db)
	ctx := context.Background()
	owner := seedUser(t, db, 42)

	created, err := repo.Create(ctx, model.Report{
		UserID:         owner.ID,
		RepositoryName: "alice/widget",
		Content:        json.RawMessage(`{}`),
	})
	require.NoError(t, err)

	found, err := repo.GetByIDForUser(ctx, created.ID, "someone-else")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestReportRepo_ListByUserNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReportRepo(db)
	ctx := context.Background()
	user := seedUser(t, db, 42)

	older := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)

	_, err := repo.Create(ctx, model.Report{
		UserID: user.ID, RepositoryName: "alice/old",
		Content: json.RawMessage(`{}`), GeneratedAt: older,
	})
	require.NoError(t, err)
	_, err = repo.Create(ctx, model.Report{
		UserID: user.ID, RepositoryName: "alice/new",
		Content: json.RawMessage(`{}`), GeneratedAt: newer,
	})
	require.NoError(t, err)

	reports, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "alice/new", reports[0].RepositoryName)
	assert.Equal(t, "alice/old", reports[1].RepositoryName)
}

func TestReportRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReportRepo(db)
	ctx := context.Background()
	user := seedUser(t, db, 42)

	created, err := repo.Create(ctx, model.Report{
		UserID: user.ID, RepositoryName: "alice/widget", Content: json.RawMessage(`{}`),
	})
	require.NoError(t, err)

	err = repo.DeleteByIDForUser(ctx, created.ID, user.ID)
	require.NoError(t, err)

	found, err := repo.GetByIDForUser(ctx, created.ID, user.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestReportRepo_DeleteWrongOwner(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReportRepo(db)
	ctx := context.Background()
	user := seedUser(t, db, 42)

	created, err := repo.Create(ctx, model.Report{
		UserID: user.ID, RepositoryName: "alice/widget", Content: json.RawMessage(`{}`),
	})
	require.NoError(t, err)

	err = repo.DeleteByIDForUser(ctx, created.ID, "someone-else")
	assert.ErrorIs(t, err, driven.ErrReportNotFound)
}

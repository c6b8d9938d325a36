package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commitdigest/commitdigest/internal/domain/model"
	"github.com/commitdigest/commitdigest/internal/domain/port/driven"
	"github.com/commitdigest/commitdigest/internal/metrics"
)

type fakeReportStore struct {
	created []model.Report
	reports []model.Report
	failAll bool
}

func (f *fakeReportStore) Create(_ context.Context, report model.Report) (*model.Report, error) {
	if f.failAll {
		return nil, errors.New("store down")
	}
	report.ID = uuid.NewString()
	report.GeneratedAt = time.Now().UTC()
	f.created = append(f.created, report)
	return &report, nil
}

func (f *fakeReportStore) ListByUser(_ context.Context, userID string) ([]model.Report, error) {
	var out []model.Report
	for _, r := range f.reports {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReportStore) GetByIDForUser(_ context.Context, id, userID string) (*model.Report, error) {
	for _, r := range f.reports {
		if r.ID == id && r.UserID == userID {
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeReportStore) DeleteByIDForUser(_ context.Context, id, userID string) error {
	for i, r := range f.reports {
		if r.ID == id && r.UserID == userID {
			f.reports = append(f.reports[:i], f.reports[i+1:]...)
			return nil
		}
	}
	return driven.ErrReportNotFound
}

type fakeGenerator struct {
	gotMarkdown string
	result      json.RawMessage
	err         error
}

func (f *fakeGenerator) Generate(_ context.Context, commitsMarkdown string) (json.RawMessage, error) {
	f.gotMarkdown = commitsMarkdown
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeGitHubClient serves GetCommit from a map and fails for absent shas.
type fakeGitHubClient struct {
	details map[string]*model.Commit
	calls   int
}

func (f *fakeGitHubClient) ListUserRepos(context.Context) ([]model.Repository, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeGitHubClient) ListBranches(context.Context, string, string) ([]string, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeGitHubClient) ListCommits(context.Context, string, string, string, int) ([]model.Commit, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeGitHubClient) GetCommit(_ context.Context, _, _, sha string) (*model.Commit, error) {
	f.calls++
	if detail, ok := f.details[sha]; ok {
		return detail, nil
	}
	return nil, fmt.Errorf("commit %s: %w", sha, driven.ErrNotFound)
}

func newReportService(store *fakeReportStore, gen *fakeGenerator, client *fakeGitHubClient) *ReportService {
	factory := func(token string) driven.GitHubClient { return client }
	return NewReportService(store, gen, factory, metrics.New("test"))
}

func reportUser() *model.User {
	return &model.User{ID: "user-1", GitHubID: 42, Username: "alice", AccessToken: "gho_tok"}
}

func TestReportService_GenerateFormatsEnrichedCommits(t *testing.T) {
	store := &fakeReportStore{}
	gen := &fakeGenerator{result: json.RawMessage(`{"summary":{"title":"Dia produtivo"}}`)}
	client := &fakeGitHubClient{details: map[string]*model.Commit{
		"abc1234def": {
			SHA:     "abc1234def",
			Message: "feat: add parser",
			Author:  &model.CommitAuthor{Name: "Alice", Date: "2026-02-01T10:00:00Z"},
			Stats:   &model.CommitStats{Additions: 10, Deletions: 2, Total: 12},
			Files: []model.CommitFile{
				{Filename: "parser.go", Status: "added", Additions: 10, Deletions: 2, Patch: "@@ -0,0 +1,10 @@"},
			},
		},
	}}
	service := newReportService(store, gen, client)

	commits := []model.Commit{{SHA: "abc1234def", Message: "feat: add parser"}}
	report, err := service.Generate(context.Background(), reportUser(), "alice/widget", commits)

	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":{"title":"Dia produtivo"}}`, string(report.Content))
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "user-1", report.UserID)
	assert.Equal(t, "alice/widget", report.RepositoryName)

	md := gen.gotMarkdown
	assert.Contains(t, md, "## Commit: abc1234")
	assert.Contains(t, md, "**Message:** feat: add parser")
	assert.Contains(t, md, "**Author:** Alice (2026-02-01T10:00:00Z)")
	assert.Contains(t, md, "**Stats:** +10 -2 (12 changes)")
	assert.Contains(t, md, "**Files changed (1):**")
	assert.Contains(t, md, "### File: parser.go [added] (+10/-2)")
	assert.Contains(t, md, "```diff\n@@ -0,0 +1,10 @@\n```")

	require.Len(t, store.created, 1)
}

func TestReportService_EnrichmentFailureFallsBackToBasicInfo(t *testing.T) {
	store := &fakeReportStore{}
	gen := &fakeGenerator{result: json.RawMessage(`{}`)}
	client := &fakeGitHubClient{details: map[string]*model.Commit{}}
	service := newReportService(store, gen, client)

	commits := []model.Commit{{SHA: "deadbeef123", Message: "fix: flaky test"}}
	_, err := service.Generate(context.Background(), reportUser(), "alice/widget", commits)

	require.NoError(t, err)
	assert.Contains(t, gen.gotMarkdown, "## Commit: deadbee")
	assert.Contains(t, gen.gotMarkdown, "**Message:** fix: flaky test")
	assert.NotContains(t, gen.gotMarkdown, "**Stats:**")
}

func TestReportService_CapsCommitCount(t *testing.T) {
	store := &fakeReportStore{}
	gen := &fakeGenerator{result: json.RawMessage(`{}`)}
	client := &fakeGitHubClient{details: map[string]*model.Commit{}}
	service := newReportService(store, gen, client)

	commits := make([]model.Commit, 120)
	for i := range commits {
		commits[i] = model.Commit{SHA: fmt.Sprintf("sha%07d", i), Message: "m"}
	}

	_, err := service.Generate(context.Background(), reportUser(), "alice/widget", commits)

	require.NoError(t, err)
	assert.Equal(t, maxReportCommits, client.calls, "only capped commits get enriched")
}

func TestReportService_RejectsBadRepositoryName(t *testing.T) {
	service := newReportService(&fakeReportStore{}, &fakeGenerator{}, &fakeGitHubClient{})

	for _, name := range []string{"", "widget", "alice/", "/widget", "a/b/c"} {
		_, err := service.Generate(context.Background(), reportUser(), name, nil)
		assert.Error(t, err, "name %q", name)
	}
}

func TestReportService_GeneratorErrorDoesNotPersist(t *testing.T) {
	store := &fakeReportStore{}
	gen := &fakeGenerator{err: errors.New("model overloaded")}
	service := newReportService(store, gen, &fakeGitHubClient{})

	_, err := service.Generate(context.Background(), reportUser(), "alice/widget", nil)

	require.Error(t, err)
	assert.Empty(t, store.created)
}

func TestReportService_ListReturnsSummaries(t *testing.T) {
	store := &fakeReportStore{reports: []model.Report{
		{
			ID: "r1", UserID: "user-1", RepositoryName: "alice/widget",
			Content:     json.RawMessage(`{"summary":{"title":"Refatoração"}}`),
			GeneratedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: "r2", UserID: "someone-else", RepositoryName: "x/y",
			Content: json.RawMessage(`{}`),
		},
	}}
	service := newReportService(store, &fakeGenerator{}, &fakeGitHubClient{})

	summaries, err := service.List(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "r1", summaries[0].ID)
	assert.Equal(t, "Refatoração", summaries[0].Summary)
}

func TestReportService_GetScopedToOwner(t *testing.T) {
	store := &fakeReportStore{reports: []model.Report{
		{ID: "r1", UserID: "user-1", Content: json.RawMessage(`{}`)},
	}}
	service := newReportService(store, &fakeGenerator{}, &fakeGitHubClient{})

	report, err := service.Get(context.Background(), "r1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "r1", report.ID)

	_, err = service.Get(context.Background(), "r1", "someone-else")
	assert.ErrorIs(t, err, driven.ErrReportNotFound)
}

func TestReportService_Delete(t *testing.T) {
	store := &fakeReportStore{reports: []model.Report{
		{ID: "r1", UserID: "user-1"},
	}}
	service := newReportService(store, &fakeGenerator{}, &fakeGitHubClient{})

	require.NoError(t, service.Delete(context.Background(), "r1", "user-1"))
	assert.ErrorIs(t, service.Delete(context.Background(), "r1", "user-1"), driven.ErrReportNotFound)
}

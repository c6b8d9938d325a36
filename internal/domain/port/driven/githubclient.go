package driven

import (
	"context"

	"github.com/commitdigest/commitdigest/internal/domain/model"
)

// GitHubClient defines the driven port for the GitHub REST API, scoped to a
// single user's access token.
type GitHubClient interface {
	// ListUserRepos returns the repositories the token's user owns plus the
	// repositories of every organization they belong to, deduplicated and
	// sorted by most recently updated.
	ListUserRepos(ctx context.Context) ([]model.Repository, error)

	// ListBranches returns the branch names of a repository.
	ListBranches(ctx context.Context, owner, repo string) ([]string, error)

	// ListCommits returns one page of commits (30 per page), optionally
	// filtered by branch. page is 1-based.
	ListCommits(ctx context.Context, owner, repo, branch string, page int) ([]model.Commit, error)

	// GetCommit returns a single commit with stats and changed files.
	GetCommit(ctx context.Context, owner, repo, sha string) (*model.Commit, error)
}

// GitHubClientFactory builds a GitHubClient for one user's access token.
// Clients are constructed per request; the server never holds a
// process-global token.
type GitHubClientFactory func(token string) GitHubClient

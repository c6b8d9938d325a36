// Package github implements the GitHubClient port using the go-github library.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/commitdigest/commitdigest/internal/domain/model"
	"github.com/commitdigest/commitdigest/internal/domain/port/driven"
)

// commitsPerPage is the page size of the commits listing, matching what the
// frontend's infinite scroll requests.
const commitsPerPage = 30

// Compile-time interface satisfaction check.
var _ driven.GitHubClient = (*Client)(nil)

// Client implements the driven.GitHubClient port for one user's token.
type Client struct {
	gh *gh.Client
}

// NewClient creates a GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with token auth)
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return &Client{gh: client}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and
// base URL. This constructor is intended for testing, allowing injection of
// an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// ListUserRepos returns the authenticated user's own repositories plus the
// repositories of every organization they belong to, deduplicated by id and
// sorted by most recently updated.
func (c *Client) ListUserRepos(ctx context.Context) ([]model.Repository, error) {
	ownRepos, resp, err := c.gh.Repositories.ListByAuthenticatedUser(ctx, &gh.RepositoryListByAuthenticatedUserOptions{
		Type:        "owner",
		Sort:        "updated",
		ListOptions: gh.ListOptions{PerPage: 100},
	})
	if err != nil {
		return nil, mapAPIError("listing repositories", err)
	}
	logRateLimit(resp, "user/repos", len(ownRepos))

	orgs, _, err := c.gh.Organizations.List(ctx, "", &gh.ListOptions{PerPage: 100})
	if err != nil {
		return nil, mapAPIError("listing organizations", err)
	}

	seen := make(map[int64]bool, len(ownRepos))
	updated := make(map[int64]time.Time)
	var repos []model.Repository
	for _, r := range ownRepos {
		seen[r.GetID()] = true
		updated[r.GetID()] = r.GetUpdatedAt().Time
		repos = append(repos, mapRepository(r))
	}

	for _, org := range orgs {
		orgRepos, resp, err := c.gh.Repositories.ListByOrg(ctx, org.GetLogin(), &gh.RepositoryListByOrgOptions{
			Type:        "member",
			ListOptions: gh.ListOptions{PerPage: 100},
		})
		if err != nil {
			return nil, mapAPIError(fmt.Sprintf("listing repositories for org %s", org.GetLogin()), err)
		}
		logRateLimit(resp, "orgs/"+org.GetLogin()+"/repos", len(orgRepos))

		for _, r := range orgRepos {
			if seen[r.GetID()] {
				continue
			}
			seen[r.GetID()] = true
			updated[r.GetID()] = r.GetUpdatedAt().Time
			repos = append(repos, mapRepository(r))
		}
	}

	sort.SliceStable(repos, func(i, j int) bool {
		return updated[repos[i].ID].After(updated[repos[j].ID])
	})

	if repos == nil {
		repos = []model.Repository{}
	}
	return repos, nil
}

// ListBranches returns the branch names of a repository.
func (c *Client) ListBranches(ctx context.Context, owner, repo string) ([]string, error) {
	branches, resp, err := c.gh.Repositories.ListBranches(ctx, owner, repo, &gh.BranchListOptions{
		ListOptions: gh.ListOptions{PerPage: 100},
	})
	if err != nil {
		return nil, mapAPIError(fmt.Sprintf("listing branches for %s/%s", owner, repo), err)
	}
	logRateLimit(resp, owner+"/"+repo+"/branches", len(branches))

	names := make([]string, 0, len(branches))
	for _, b := range branches {
		names = append(names, b.GetName())
	}
	return names, nil
}

// ListCommits returns one page of commits, optionally filtered by branch.
func (c *Client) ListCommits(ctx context.Context, owner, repo, branch string, page int) ([]model.Commit, error) {
	if page < 1 {
		page = 1
	}

	opts := &gh.CommitsListOptions{
		SHA: branch,
		ListOptions: gh.ListOptions{
			PerPage: commitsPerPage,
			Page:    page,
		},
	}

	commits, resp, err := c.gh.Repositories.ListCommits(ctx, owner, repo, opts)
	if err != nil {
		return nil, mapAPIError(fmt.Sprintf("listing commits for %s/%s (page %d)", owner, repo, page), err)
	}
	logRateLimit(resp, owner+"/"+repo+"/commits", len(commits))

	result := make([]model.Commit, 0, len(commits))
	for _, commit := range commits {
		result = append(result, mapCommit(commit))
	}
	return result, nil
}

// GetCommit returns a single commit with stats and changed files.
func (c *Client) GetCommit(ctx context.Context, owner, repo, sha string) (*model.Commit, error) {
	commit, resp, err := c.gh.Repositories.GetCommit(ctx, owner, repo, sha, nil)
	if err != nil {
		return nil, mapAPIError(fmt.Sprintf("fetching commit %s/%s@%s", owner, repo, sha), err)
	}
	logRateLimit(resp, owner+"/"+repo+"/commit", 1)

	mapped := mapCommit(commit)

	if commit.Stats != nil {
		mapped.Stats = &model.CommitStats{
			Additions: commit.Stats.GetAdditions(),
			Deletions: commit.Stats.GetDeletions(),
			Total:     commit.Stats.GetTotal(),
		}
	}

	if len(commit.Files) > 0 {
		files := make([]model.CommitFile, 0, len(commit.Files))
		for _, f := range commit.Files {
			files = append(files, model.CommitFile{
				Filename:  f.GetFilename(),
				Status:    f.GetStatus(),
				Additions: f.GetAdditions(),
				Deletions: f.GetDeletions(),
				Changes:   f.GetChanges(),
				Patch:     f.GetPatch(),
			})
		}
		mapped.Files = files
	}

	return &mapped, nil
}

// mapCommit converts a go-github RepositoryCommit to a domain model Commit.
// It uses GetXxx() helper methods exclusively to avoid nil pointer panics.
func mapCommit(commit *gh.RepositoryCommit) model.Commit {
	mapped := model.Commit{
		SHA:     commit.GetSHA(),
		Message: commit.GetCommit().GetMessage(),
		URL:     commit.GetHTMLURL(),
	}

	if author := commit.GetCommit().GetAuthor(); author != nil {
		mapped.Author = &model.CommitAuthor{
			Name:  author.GetName(),
			Email: author.GetEmail(),
			Date:  author.GetDate().Format(time.RFC3339),
		}
	}

	return mapped
}

// mapRepository converts a go-github Repository to a domain model Repository.
func mapRepository(r *gh.Repository) model.Repository {
	defaultBranch := r.GetDefaultBranch()
	if defaultBranch == "" {
		defaultBranch = "main"
	}

	return model.Repository{
		ID:            r.GetID(),
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Private:       r.GetPrivate(),
		DefaultBranch: defaultBranch,
		Owner: model.RepoOwner{
			Login:     r.GetOwner().GetLogin(),
			AvatarURL: r.GetOwner().GetAvatarURL(),
		},
	}
}

// mapAPIError translates GitHub API errors into port sentinels so handlers
// can map them to response codes without importing go-github.
func mapAPIError(op string, err error) error {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", op, driven.ErrNotFound)
		case http.StatusForbidden:
			return fmt.Errorf("%s: %w", op, driven.ErrForbidden)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

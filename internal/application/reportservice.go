package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/commitdigest/commitdigest/internal/domain/model"
	"github.com/commitdigest/commitdigest/internal/domain/port/driven"
	"github.com/commitdigest/commitdigest/internal/metrics"
)

// maxReportCommits caps how many commits feed one report. Patches are large;
// beyond this the prompt stops fitting the model's useful context anyway.
const maxReportCommits = 50

// ReportSummary is the list-view projection of a report: everything except
// the full content document.
type ReportSummary struct {
	ID             string    `json:"id"`
	RepositoryName string    `json:"repositoryName"`
	GeneratedAt    time.Time `json:"generatedAt"`
	Summary        string    `json:"summary"`
}

// ReportService turns a commit selection into a persisted AI report and
// serves the per-user report history.
type ReportService struct {
	reports       driven.ReportStore
	generator     driven.ReportGenerator
	clientFactory driven.GitHubClientFactory
	metrics       *metrics.Metrics
}

// NewReportService creates a ReportService.
func NewReportService(
	reports driven.ReportStore,
	generator driven.ReportGenerator,
	clientFactory driven.GitHubClientFactory,
	m *metrics.Metrics,
) *ReportService {
	return &ReportService{
		reports:       reports,
		generator:     generator,
		clientFactory: clientFactory,
		metrics:       m,
	}
}

// Generate produces a report for the given commits, persists it for the user,
// and returns it. Commits beyond the cap are dropped. Each commit is enriched
// with stats and file patches using the caller's own token; an enrichment
// failure for one commit falls back to its basic info rather than failing
// the whole report.
func (s *ReportService) Generate(ctx context.Context, user *model.User, repositoryName string, commits []model.Commit) (*model.Report, error) {
	start := time.Now()

	owner, repo, err := splitRepoName(repositoryName)
	if err != nil {
		return nil, err
	}

	if len(commits) > maxReportCommits {
		slog.Info("capping report commits", "requested", len(commits), "cap", maxReportCommits)
		commits = commits[:maxReportCommits]
	}

	client := s.clientFactory(user.AccessToken)
	enriched := s.enrichCommits(ctx, client, owner, repo, commits)

	content, err := s.generator.Generate(ctx, formatCommits(enriched))
	if err != nil {
		s.metrics.RecordReportGeneration("error", 0)
		return nil, fmt.Errorf("generate report for %s: %w", repositoryName, err)
	}

	report, err := s.reports.Create(ctx, model.Report{
		UserID:         user.ID,
		RepositoryName: repositoryName,
		Content:        content,
	})
	if err != nil {
		s.metrics.RecordReportGeneration("error", 0)
		return nil, fmt.Errorf("persist report for %s: %w", repositoryName, err)
	}

	s.metrics.RecordReportGeneration("success", time.Since(start).Seconds())
	slog.Info("report generated",
		"user_id", user.ID,
		"repository", repositoryName,
		"commits", len(commits),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return report, nil
}

// List returns the user's report history, newest first, as summaries.
func (s *ReportService) List(ctx context.Context, userID string) ([]ReportSummary, error) {
	reports, err := s.reports.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ReportSummary, 0, len(reports))
	for _, r := range reports {
		summaries = append(summaries, ReportSummary{
			ID:             r.ID,
			RepositoryName: r.RepositoryName,
			GeneratedAt:    r.GeneratedAt,
			Summary:        r.Title(),
		})
	}
	return summaries, nil
}

// Get returns one of the user's reports with its full content.
func (s *ReportService) Get(ctx context.Context, id, userID string) (*model.Report, error) {
	report, err := s.reports.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, driven.ErrReportNotFound
	}
	return report, nil
}

// Delete removes one of the user's reports.
func (s *ReportService) Delete(ctx context.Context, id, userID string) error {
	return s.reports.DeleteByIDForUser(ctx, id, userID)
}

// enrichCommits fetches stats and file patches for each commit. A commit
// whose detail fetch fails keeps its basic info.
func (s *ReportService) enrichCommits(ctx context.Context, client driven.GitHubClient, owner, repo string, commits []model.Commit) []model.Commit {
	enriched := make([]model.Commit, 0, len(commits))
	for _, commit := range commits {
		detailed, err := client.GetCommit(ctx, owner, repo, commit.SHA)
		if err != nil {
			slog.Warn("commit enrichment failed, using basic info",
				"repository", owner+"/"+repo,
				"sha", commit.SHA,
				"error", err,
			)
			enriched = append(enriched, commit)
			continue
		}
		enriched = append(enriched, *detailed)
	}
	return enriched
}

// formatCommits renders the commit selection as the markdown document the
// report prompt consumes: one section per commit, patches in diff blocks.
func formatCommits(commits []model.Commit) string {
	sections := make([]string, 0, len(commits))
	for _, commit := range commits {
		var b strings.Builder

		sha := commit.SHA
		if len(sha) > 7 {
			sha = sha[:7]
		}
		fmt.Fprintf(&b, "## Commit: %s\n", sha)
		fmt.Fprintf(&b, "**Message:** %s", commit.Message)

		if commit.Author != nil {
			fmt.Fprintf(&b, "\n**Author:** %s (%s)", commit.Author.Name, commit.Author.Date)
		}
		if commit.Stats != nil {
			fmt.Fprintf(&b, "\n**Stats:** +%d -%d (%d changes)",
				commit.Stats.Additions, commit.Stats.Deletions, commit.Stats.Total)
		}

		if len(commit.Files) > 0 {
			fmt.Fprintf(&b, "\n**Files changed (%d):**", len(commit.Files))
			for _, file := range commit.Files {
				fmt.Fprintf(&b, "\n\n### File: %s [%s] (+%d/-%d)",
					file.Filename, file.Status, file.Additions, file.Deletions)
				if file.Patch != "" {
					fmt.Fprintf(&b, "\n```diff\n%s\n```", file.Patch)
				}
			}
		}

		sections = append(sections, b.String())
	}
	return strings.Join(sections, "\n\n---\n\n")
}

// splitRepoName splits an "owner/repo" full name.
func splitRepoName(fullName string) (owner, repo string, err error) {
	parts := strings.Split(fullName, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository name %q, expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}

package usecase

import (
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/naka-gawa/github-devlog/internal/domain"
	"github.com/stretchr/testify/assert"
)

var (
	june1 = time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)
	june2 = time.Date(2023, 6, 2, 11, 30, 0, 0, time.UTC)
)

func ts(t time.Time) *github.Timestamp { return &github.Timestamp{Time: t} }

func TestNormalizeCommits(t *testing.T) {
	byRepo := map[string][]*github.RepositoryCommit{
		"repo-a": {
			{Commit: &github.Commit{Message: github.String("fix: bug\nwith newline"), Author: &github.CommitAuthor{Date: ts(june1)}}},
			{Commit: &github.Commit{Message: github.String(`say "hi"`), Author: &github.CommitAuthor{Date: ts(june2)}}},
		},
	}
	expected := []domain.Row{
		{At: june1, Repository: "repo-a", Activity: domain.KindCommit, Description: "fix: bug with newline"},
		{At: june2, Repository: "repo-a", Activity: domain.KindCommit, Description: "say hi"},
	}
	assert.Equal(t, expected, NormalizeCommits(byRepo))
	assert.Empty(t, NormalizeCommits(map[string][]*github.RepositoryCommit{}))
}

func TestNormalizeIssues(t *testing.T) {
	issues := []*github.Issue{
		{Title: github.String("Crash\r\non start"), CreatedAt: ts(june1), Repository: &github.Repository{Name: github.String("other-repo")}},
		{Title: github.String("No repo"), CreatedAt: ts(june2)},
	}
	expected := []domain.Row{
		{At: june1, Repository: "other-repo", Activity: domain.KindIssue, Description: "Crash  on start"},
		{At: june2, Repository: "current", Activity: domain.KindIssue, Description: "No repo"},
	}
	assert.Equal(t, expected, NormalizeIssues(issues, "current"))
}

func TestNormalizePullRequests(t *testing.T) {
	pulls := []*github.PullRequest{
		{
			Title:     github.String(`Add "feature"`),
			CreatedAt: ts(june1),
			Base:      &github.PullRequestBranch{Repo: &github.Repository{Name: github.String("base-repo")}},
		},
		{Title: github.String("No base"), CreatedAt: ts(june2)},
	}
	expected := []domain.Row{
		{At: june1, Repository: "base-repo", Activity: domain.KindPullRequest, Description: "Add feature"},
		{At: june2, Repository: "current", Activity: domain.KindPullRequest, Description: "No base"},
	}
	assert.Equal(t, expected, NormalizePullRequests(pulls, "current"))
}

func TestNormalizeForks(t *testing.T) {
	forks := []*github.Repository{
		{Name: github.String("my-fork"), CreatedAt: ts(june1), Parent: &github.Repository{Name: github.String("upstream")}},
		{Name: github.String("plain-fork"), CreatedAt: ts(june2)},
		{CreatedAt: ts(june2), Parent: &github.Repository{}},
	}
	expected := []domain.Row{
		{At: june1, Repository: "my-fork", Activity: domain.KindFork, Description: "Forked from upstream"},
		{At: june2, Repository: "plain-fork", Activity: domain.KindFork, Description: "Fork"},
		{At: june2, Repository: "current", Activity: domain.KindFork, Description: "Forked from current"},
	}
	assert.Equal(t, expected, NormalizeForks(forks, "current"))
}

func TestNormalizeReleases(t *testing.T) {
	releases := []*github.RepositoryRelease{
		{Name: github.String("v1.0\nfinal"), CreatedAt: ts(june1)},
		{CreatedAt: ts(june2)},
	}
	expected := []domain.Row{
		{At: june1, Repository: "current", Activity: domain.KindRelease, Description: "v1.0 final"},
		{At: june2, Repository: "current", Activity: domain.KindRelease, Description: ""},
	}
	assert.Equal(t, expected, NormalizeReleases(releases, "current"))
}

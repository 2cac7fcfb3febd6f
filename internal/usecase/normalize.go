package usecase

import (
	"fmt"
	"sort"

	"github.com/google/go-github/v62/github"
	"github.com/naka-gawa/github-devlog/internal/domain"
)

// NormalizeCommits maps commits to rows, using the grouping key as the repository.
func NormalizeCommits(byRepo map[string][]*github.RepositoryCommit) []domain.Row {
	repos := make([]string, 0, len(byRepo))
	for repo := range byRepo {
		repos = append(repos, repo)
	}
	sort.Strings(repos)

	var rows []domain.Row
	for _, repo := range repos {
		for _, c := range byRepo[repo] {
			rows = append(rows, domain.Row{
				At:          c.GetCommit().GetAuthor().GetDate().Time,
				Repository:  repo,
				Activity:    domain.KindCommit,
				Description: domain.SanitizeDescription(c.GetCommit().GetMessage()),
			})
		}
	}
	return rows
}

// NormalizeIssues maps issues to rows. The issue's own repository wins over
// the repository being processed.
func NormalizeIssues(issues []*github.Issue, repo string) []domain.Row {
	rows := make([]domain.Row, 0, len(issues))
	for _, issue := range issues {
		rows = append(rows, domain.Row{
			At:          issue.GetCreatedAt().Time,
			Repository:  firstNonEmpty(issue.GetRepository().GetName(), repo),
			Activity:    domain.KindIssue,
			Description: domain.SanitizeDescription(issue.GetTitle()),
		})
	}
	return rows
}

// NormalizePullRequests maps pull requests to rows, preferring the base repository name.
func NormalizePullRequests(pulls []*github.PullRequest, repo string) []domain.Row {
	rows := make([]domain.Row, 0, len(pulls))
	for _, pr := range pulls {
		rows = append(rows, domain.Row{
			At:          pr.GetCreatedAt().Time,
			Repository:  firstNonEmpty(pr.GetBase().GetRepo().GetName(), repo),
			Activity:    domain.KindPullRequest,
			Description: domain.SanitizeDescription(pr.GetTitle()),
		})
	}
	return rows
}

// NormalizeForks maps forks to rows named after the fork itself.
func NormalizeForks(forks []*github.Repository, repo string) []domain.Row {
	rows := make([]domain.Row, 0, len(forks))
	for _, fork := range forks {
		description := "Fork"
		if fork.Parent != nil {
			description = fmt.Sprintf("Forked from %s", firstNonEmpty(fork.GetParent().GetName(), repo))
		}
		rows = append(rows, domain.Row{
			At:          fork.GetCreatedAt().Time,
			Repository:  firstNonEmpty(fork.GetName(), repo),
			Activity:    domain.KindFork,
			Description: domain.SanitizeDescription(description),
		})
	}
	return rows
}

// NormalizeReleases maps releases to rows. Unnamed releases get an empty description.
func NormalizeReleases(releases []*github.RepositoryRelease, repo string) []domain.Row {
	rows := make([]domain.Row, 0, len(releases))
	for _, release := range releases {
		rows = append(rows, domain.Row{
			At:          release.GetCreatedAt().Time,
			Repository:  repo,
			Activity:    domain.KindRelease,
			Description: domain.SanitizeDescription(release.GetName()),
		})
	}
	return rows
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

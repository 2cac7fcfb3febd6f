// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v62/github"
	"github.com/naka-gawa/github-devlog/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

// Fetcher defines the behavior of a gateway for fetching activity from GitHub.
//
// The listing methods never fail: a page that cannot be fetched is logged and
// the records gathered before it are returned.
type Fetcher interface {
	FetchRateLimit(ctx context.Context) (*domain.Quota, error)
	FetchRepositories(ctx context.Context, window domain.TimeWindow, excluded string) []*github.Repository
	FetchCommits(ctx context.Context, owner, repo string, window domain.TimeWindow) map[string][]*github.RepositoryCommit
	FetchIssues(ctx context.Context, owner string, window domain.TimeWindow) []*github.Issue
	FetchPullRequests(ctx context.Context, owner, repo string, window domain.TimeWindow) []*github.PullRequest
	FetchForks(ctx context.Context, owner, repo string) []*github.Repository
	FetchReleases(ctx context.Context, owner, repo string) []*github.RepositoryRelease
}

// ViewerResolver looks up the login that owns the token.
type ViewerResolver interface {
	ResolveViewer(ctx context.Context) (string, error)
}

// Options configures a GitHubGateway.
type Options struct {
	Token string
	// SecondaryRateLimitWait enables the secondary rate limit waiter with the
	// given single sleep limit. Zero disables it.
	SecondaryRateLimitWait time.Duration
	// APIURL and GraphQLURL override the public github.com endpoints.
	APIURL     string
	GraphQLURL string
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        zerolog.Logger
}

// viewerQuery fetches the login of the authenticated user.
type viewerQuery struct {
	Viewer struct {
		Login githubv4.String
	}
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(opts Options, logger zerolog.Logger) (*GitHubGateway, error) {
	var base http.RoundTripper = http.DefaultTransport
	if opts.SecondaryRateLimitWait > 0 {
		rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil,
			github_ratelimit.WithSingleSleepLimit(opts.SecondaryRateLimitWait, nil),
			github_ratelimit.WithLimitDetectedCallback(func(cb *github_ratelimit.CallbackContext) {
				ev := logger.Warn()
				if cb.SleepUntil != nil {
					ev = ev.Time("sleep_until", *cb.SleepUntil)
				}
				ev.Msg("Secondary rate limit detected, sleeping")
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
		}
		base = rateLimitWaiter
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   base,
			Source: ts,
		},
	}

	restClient := github.NewClient(httpClient)
	if opts.APIURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(opts.APIURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid API URL %q: %w", opts.APIURL, err)
		}
		restClient.BaseURL = baseURL
	}

	graphqlClient := githubv4.NewClient(httpClient)
	if opts.GraphQLURL != "" {
		graphqlClient = githubv4.NewEnterpriseClient(opts.GraphQLURL, httpClient)
	}

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        logger,
	}, nil
}

// ResolveViewer returns the login of the token's owner.
func (g *GitHubGateway) ResolveViewer(ctx context.Context) (string, error) {
	var q viewerQuery
	if err := g.graphqlClient.Query(ctx, &q, nil); err != nil {
		return "", fmt.Errorf("failed to resolve authenticated user with GraphQL API: %w", err)
	}
	login := string(q.Viewer.Login)
	if login == "" {
		return "", fmt.Errorf("GraphQL API returned an empty viewer login")
	}
	g.logger.Debug().Str("login", login).Msg("Resolved authenticated user")
	return login, nil
}

// FetchRateLimit reads the core quota from the rate limit endpoint.
func (g *GitHubGateway) FetchRateLimit(ctx context.Context) (*domain.Quota, error) {
	limits, _, err := g.restClient.RateLimit.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rate limit: %w", err)
	}
	core := limits.GetCore()
	if core == nil {
		return nil, fmt.Errorf("rate limit response has no core resource")
	}
	return &domain.Quota{
		Limit:     core.Limit,
		Remaining: core.Remaining,
		Reset:     core.Reset.Time,
	}, nil
}

// FetchRepositories lists every repository the authenticated user owns,
// keeping those created on or after the since date and not excluded by name.
func (g *GitHubGateway) FetchRepositories(ctx context.Context, window domain.TimeWindow, excluded string) []*github.Repository {
	g.logger.Info().Msg("Fetching repositories...")
	list := func(ctx context.Context, lo github.ListOptions) ([]*github.Repository, *github.Response, error) {
		return g.restClient.Repositories.ListByAuthenticatedUser(ctx, &github.RepositoryListByAuthenticatedUserOptions{
			Visibility:  "all",
			Affiliation: "owner",
			ListOptions: lo,
		})
	}
	keep := func(repo *github.Repository) bool {
		if !window.CreatedOnOrAfterSince(repo.GetCreatedAt().Time) {
			return false
		}
		return excluded == "" || repo.GetName() != excluded
	}
	repos := walkPages(ctx, g.logger, "repositories", list, keep)
	g.logger.Info().Int("count", len(repos)).Msg("Completed fetching repositories.")
	return repos
}

// FetchCommits lists the owner's commits to repo within the window, keyed by
// repository name. The map is empty when no commits were found.
func (g *GitHubGateway) FetchCommits(ctx context.Context, owner, repo string, window domain.TimeWindow) map[string][]*github.RepositoryCommit {
	list := func(ctx context.Context, lo github.ListOptions) ([]*github.RepositoryCommit, *github.Response, error) {
		return g.restClient.Repositories.ListCommits(ctx, owner, repo, &github.CommitsListOptions{
			Author:      owner,
			Since:       window.Since,
			Until:       window.Until,
			ListOptions: lo,
		})
	}
	commits := walkPages(ctx, g.logger, "commits/"+repo, list, nil)
	byRepo := make(map[string][]*github.RepositoryCommit)
	if len(commits) > 0 {
		byRepo[repo] = commits
	}
	g.logger.Debug().Str("repo", repo).Int("count", len(commits)).Msg("Fetched commits")
	return byRepo
}

// FetchIssues lists issues created by owner across every repository the
// token can see. Pull requests reported by the issues endpoint are dropped.
func (g *GitHubGateway) FetchIssues(ctx context.Context, owner string, window domain.TimeWindow) []*github.Issue {
	list := func(ctx context.Context, lo github.ListOptions) ([]*github.Issue, *github.Response, error) {
		return g.restClient.Issues.List(ctx, true, &github.IssueListOptions{
			Filter:      "created",
			Since:       window.Since,
			ListOptions: lo,
		})
	}
	keep := func(issue *github.Issue) bool {
		return window.Contains(issue.GetCreatedAt().Time) &&
			issue.GetUser().GetLogin() == owner &&
			!issue.IsPullRequest()
	}
	issues := walkPages(ctx, g.logger, "issues", list, keep)
	g.logger.Debug().Int("count", len(issues)).Msg("Fetched issues")
	return issues
}

// FetchPullRequests lists pull requests of every state opened by owner on
// repo within the window.
func (g *GitHubGateway) FetchPullRequests(ctx context.Context, owner, repo string, window domain.TimeWindow) []*github.PullRequest {
	list := func(ctx context.Context, lo github.ListOptions) ([]*github.PullRequest, *github.Response, error) {
		return g.restClient.PullRequests.List(ctx, owner, repo, &github.PullRequestListOptions{
			State:       "all",
			ListOptions: lo,
		})
	}
	keep := func(pr *github.PullRequest) bool {
		return window.Contains(pr.GetCreatedAt().Time) && pr.GetUser().GetLogin() == owner
	}
	pulls := walkPages(ctx, g.logger, "pulls/"+repo, list, keep)
	g.logger.Debug().Str("repo", repo).Int("count", len(pulls)).Msg("Fetched pull requests")
	return pulls
}

// FetchForks lists every fork of repo. No time or author filter applies.
func (g *GitHubGateway) FetchForks(ctx context.Context, owner, repo string) []*github.Repository {
	list := func(ctx context.Context, lo github.ListOptions) ([]*github.Repository, *github.Response, error) {
		return g.restClient.Repositories.ListForks(ctx, owner, repo, &github.RepositoryListForksOptions{ListOptions: lo})
	}
	forks := walkPages(ctx, g.logger, "forks/"+repo, list, nil)
	g.logger.Debug().Str("repo", repo).Int("count", len(forks)).Msg("Fetched forks")
	return forks
}

// FetchReleases lists every release of repo. No time or author filter applies.
func (g *GitHubGateway) FetchReleases(ctx context.Context, owner, repo string) []*github.RepositoryRelease {
	list := func(ctx context.Context, lo github.ListOptions) ([]*github.RepositoryRelease, *github.Response, error) {
		return g.restClient.Repositories.ListReleases(ctx, owner, repo, &lo)
	}
	releases := walkPages(ctx, g.logger, "releases/"+repo, list, nil)
	g.logger.Debug().Str("repo", repo).Int("count", len(releases)).Msg("Fetched releases")
	return releases
}

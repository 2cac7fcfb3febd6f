// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"

	"github.com/naka-gawa/github-devlog/internal/domain"
	"github.com/naka-gawa/github-devlog/internal/gateway"
	"github.com/rs/zerolog"
)

// CapacityGovernor waits for API quota before traversal starts.
type CapacityGovernor interface {
	EnsureCapacity(ctx context.Context) error
}

// RowSink persists normalized rows.
type RowSink interface {
	Initialize() error
	Append(rows []domain.Row) error
}

// Options carries the per-run settings of an Exporter.
type Options struct {
	Owner        string
	Window       domain.TimeWindow
	ExcludedRepo string
	OutputPath   string
}

// Exporter is the use case for exporting GitHub activity to the CSV log.
// It sequences the quota check, the repository listing and the per
// repository fetches, and flushes each repository's rows before moving on.
type Exporter struct {
	fetcher  gateway.Fetcher
	governor CapacityGovernor
	sink     RowSink
	opts     Options
	logger   zerolog.Logger
}

// NewExporter creates a new Exporter instance.
func NewExporter(fetcher gateway.Fetcher, governor CapacityGovernor, sink RowSink, opts Options, logger zerolog.Logger) *Exporter {
	return &Exporter{
		fetcher:  fetcher,
		governor: governor,
		sink:     sink,
		opts:     opts,
		logger:   logger,
	}
}

// Run performs the export. Repositories are processed in listing order and
// every repository writes commits, issues, pull requests, forks and releases
// in that order.
//
// A cancelled context ends the run with the context error. Rows of
// repositories finished before the cancellation stay in the file.
//
// Issues are not scoped to a repository, so the same issues are written once
// for every repository processed.
func (e *Exporter) Run(ctx context.Context) (*domain.Summary, error) {
	e.logger.Debug().
		Str("owner", e.opts.Owner).
		Time("since", e.opts.Window.Since).
		Time("until", e.opts.Window.Until).
		Msg("Usecase: Starting export...")

	if err := e.sink.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize output: %w", err)
	}
	if err := e.governor.EnsureCapacity(ctx); err != nil {
		return nil, err
	}

	summary := domain.NewSummary(e.opts.OutputPath)
	repos := e.fetcher.FetchRepositories(ctx, e.opts.Window, e.opts.ExcludedRepo)
	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("export interrupted while listing repositories: %w", err)
	}
	for i, repo := range repos {
		name := repo.GetName()
		e.logger.Info().Str("repo", name).Int("index", i+1).Int("of", len(repos)).Msg("Processing repository")

		commits := e.fetcher.FetchCommits(ctx, e.opts.Owner, name, e.opts.Window)
		issues := e.fetcher.FetchIssues(ctx, e.opts.Owner, e.opts.Window)
		pulls := e.fetcher.FetchPullRequests(ctx, e.opts.Owner, name, e.opts.Window)
		forks := e.fetcher.FetchForks(ctx, e.opts.Owner, name)
		releases := e.fetcher.FetchReleases(ctx, e.opts.Owner, name)
		// A cancelled fetch returns truncated results; don't write them.
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("export interrupted at %s: %w", name, err)
		}

		batch := domain.Batch{
			Repository:   name,
			Commits:      NormalizeCommits(commits),
			Issues:       NormalizeIssues(issues, name),
			PullRequests: NormalizePullRequests(pulls, name),
			Forks:        NormalizeForks(forks, name),
			Releases:     NormalizeReleases(releases, name),
		}
		if err := e.sink.Append(batch.Rows()); err != nil {
			return summary, fmt.Errorf("failed to write rows for %s: %w", name, err)
		}
		summary.Record(batch)
	}

	e.logger.Debug().Int("repositories", len(repos)).Int("rows", summary.Rows()).Msg("Usecase: Export complete.")
	return summary, nil
}

// Package governor checks the remaining API quota before a run and waits for
// the quota to reset when it is exhausted.
package governor

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/naka-gawa/github-devlog/internal/domain"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
)

// QuotaFetcher reads the current core quota.
type QuotaFetcher interface {
	FetchRateLimit(ctx context.Context) (*domain.Quota, error)
}

// Options configures a Governor.
type Options struct {
	// Interruptible lets a cancelled context end the wait early.
	Interruptible bool
	// Location is used to display the reset instant. Defaults to UTC.
	Location *time.Location
	// Progress receives the countdown bar. Defaults to io.Discard.
	Progress io.Writer
}

// Governor blocks the run until API quota is available.
type Governor struct {
	quota  QuotaFetcher
	logger zerolog.Logger
	opts   Options

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration, interruptible bool) error
}

// New creates a Governor.
func New(quota QuotaFetcher, logger zerolog.Logger, opts Options) *Governor {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	return &Governor{
		quota:  quota,
		logger: logger,
		opts:   opts,
		now:    time.Now,
		sleep:  sleep,
	}
}

// EnsureCapacity returns immediately while quota remains. When the quota is
// exhausted it waits until the reset instant, counting down one second at a
// time. A failed quota check is logged and ignored.
//
// The only error returned is the context error of an interrupted wait.
func (g *Governor) EnsureCapacity(ctx context.Context) error {
	quota, err := g.quota.FetchRateLimit(ctx)
	if err != nil {
		g.logger.Error().Err(err).Msg("Error checking rate limit")
		return nil
	}
	if quota.Remaining > 0 {
		g.logger.Info().Int("remaining", quota.Remaining).Int("limit", quota.Limit).Msg("Rate limit remaining")
		return nil
	}

	wait := quota.Reset.Sub(g.now())
	g.logger.Warn().
		Str("reset_at", quota.Reset.In(g.opts.Location).Format("2006-01-02 15:04:05")).
		Str("timezone", g.opts.Location.String()).
		Msg("Rate limit exceeded")
	if wait <= 0 {
		return nil
	}
	g.logger.Info().Str("wait", FormatDuration(wait)).Msg("Waiting before retrying...")

	bar := progressbar.NewOptions64(int64((wait+time.Second-1)/time.Second),
		progressbar.OptionSetDescription("Rate limit reset"),
		progressbar.OptionSetWriter(g.opts.Progress),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
	)
	defer func() { _ = bar.Finish() }()

	for remaining := wait; remaining > 0; {
		step := min(time.Second, remaining)
		if err := g.sleep(ctx, step, g.opts.Interruptible); err != nil {
			return fmt.Errorf("rate limit wait interrupted: %w", err)
		}
		remaining -= step
		_ = bar.Add(1)
	}
	g.logger.Info().Msg("Rate limit reset, continuing")
	return nil
}

func sleep(ctx context.Context, d time.Duration, interruptible bool) error {
	if !interruptible {
		time.Sleep(d)
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FormatDuration renders d as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

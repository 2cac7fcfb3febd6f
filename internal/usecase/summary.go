package usecase

import (
	"fmt"
	"strings"

	"github.com/montanaflynn/stats"
	"github.com/naka-gawa/github-devlog/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RowStats describes how rows were spread across repositories.
type RowStats struct {
	Mean   float64
	Median float64
	Max    float64
}

// ComputeRowStats returns per repository row statistics, with the mean rounded
// to two places. ok is false when no repository was processed.
func ComputeRowStats(summary *domain.Summary) (RowStats, bool) {
	data := make(stats.Float64Data, 0, len(summary.Repositories))
	for _, repo := range summary.Repositories {
		data = append(data, float64(repo.Total))
	}
	if data.Len() == 0 {
		return RowStats{}, false
	}
	mean, err := data.Mean()
	if err != nil {
		return RowStats{}, false
	}
	if rounded, err := stats.Round(mean, 2); err == nil {
		mean = rounded
	}
	median, err := data.Median()
	if err != nil {
		return RowStats{}, false
	}
	maxRows, err := data.Max()
	if err != nil {
		return RowStats{}, false
	}
	return RowStats{Mean: mean, Median: median, Max: maxRows}, true
}

// KindLabel turns an activity kind into a display label, e.g. "Pull Request".
func KindLabel(kind domain.ActivityKind) string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(kind), "_", " "))
}

// LogSummary writes the run summary to logger.
func LogSummary(logger zerolog.Logger, summary *domain.Summary) {
	ev := logger.Info().Int("repositories", len(summary.Repositories)).Int("rows", summary.Rows())
	parts := make([]string, 0, len(domain.Kinds))
	for _, kind := range domain.Kinds {
		ev = ev.Int(string(kind), summary.Totals[kind])
		parts = append(parts, fmt.Sprintf("%s %d", KindLabel(kind), summary.Totals[kind]))
	}
	if rs, ok := ComputeRowStats(summary); ok {
		ev = ev.Float64("rows_per_repo_mean", rs.Mean).
			Float64("rows_per_repo_median", rs.Median).
			Float64("rows_per_repo_max", rs.Max)
	}
	ev.Msg("Export summary: " + strings.Join(parts, ", "))
}

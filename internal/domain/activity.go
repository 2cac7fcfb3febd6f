// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"strings"
	"time"
)

// ActivityKind is the discriminator written into the CSV activity column.
type ActivityKind string

const (
	KindCommit      ActivityKind = "commit"
	KindIssue       ActivityKind = "issue"
	KindPullRequest ActivityKind = "pull_request"
	KindFork        ActivityKind = "fork"
	KindRelease     ActivityKind = "release"
)

// Kinds lists every activity kind in the order rows are written.
var Kinds = []ActivityKind{KindCommit, KindIssue, KindPullRequest, KindFork, KindRelease}

// Header is the CSV header row.
var Header = []string{"date", "time", "repository", "activity", "description"}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// DefaultSince is used when no start date is given.
var DefaultSince = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// TimeWindow bounds which records are included. Until is captured once per run.
type TimeWindow struct {
	Since time.Time
	Until time.Time
}

// Contains reports whether t falls within [Since, Until).
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Since) && t.Before(w.Until)
}

// SinceDate truncates Since to its calendar date in UTC.
func (w TimeWindow) SinceDate() time.Time {
	s := w.Since.UTC()
	return time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)
}

// CreatedOnOrAfterSince compares calendar dates only, so a repository created
// earlier on the since day is still selected.
func (w TimeWindow) CreatedOnOrAfterSince(created time.Time) bool {
	c := created.UTC()
	day := time.Date(c.Year(), c.Month(), c.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(w.SinceDate())
}

// Row is one line of the activity log.
type Row struct {
	At          time.Time
	Repository  string
	Activity    ActivityKind
	Description string
}

// Record renders the row in header column order.
func (r Row) Record() []string {
	at := r.At.UTC()
	return []string{
		at.Format(dateLayout),
		at.Format(timeLayout),
		r.Repository,
		string(r.Activity),
		r.Description,
	}
}

var descriptionReplacer = strings.NewReplacer("\n", " ", "\r", " ", `"`, "")

// SanitizeDescription replaces line breaks with spaces and drops double quotes.
func SanitizeDescription(s string) string {
	return descriptionReplacer.Replace(s)
}

// Batch holds the normalized rows of one repository iteration.
type Batch struct {
	Repository   string
	Commits      []Row
	Issues       []Row
	PullRequests []Row
	Forks        []Row
	Releases     []Row
}

// Rows flattens the batch as commits, issues, pull requests, forks, releases.
func (b Batch) Rows() []Row {
	rows := make([]Row, 0, b.Len())
	rows = append(rows, b.Commits...)
	rows = append(rows, b.Issues...)
	rows = append(rows, b.PullRequests...)
	rows = append(rows, b.Forks...)
	rows = append(rows, b.Releases...)
	return rows
}

// Len is the total number of rows in the batch.
func (b Batch) Len() int {
	return len(b.Commits) + len(b.Issues) + len(b.PullRequests) + len(b.Forks) + len(b.Releases)
}

// Count returns the number of rows of a single kind.
func (b Batch) Count(kind ActivityKind) int {
	switch kind {
	case KindCommit:
		return len(b.Commits)
	case KindIssue:
		return len(b.Issues)
	case KindPullRequest:
		return len(b.PullRequests)
	case KindFork:
		return len(b.Forks)
	case KindRelease:
		return len(b.Releases)
	}
	return 0
}

// Quota is the core API budget reported by the quota-status endpoint.
type Quota struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

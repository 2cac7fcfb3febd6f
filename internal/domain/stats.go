package domain

// RepoStats holds the rows written for a single repository.
type RepoStats struct {
	Name   string               `json:"name"`
	Counts map[ActivityKind]int `json:"counts"`
	Total  int                  `json:"total"`
}

// Summary describes a finished export run.
type Summary struct {
	OutputPath   string               `json:"output_path"`
	Repositories []*RepoStats         `json:"repositories"`
	Totals       map[ActivityKind]int `json:"totals"`
}

// NewSummary creates an empty summary for the given output file.
func NewSummary(outputPath string) *Summary {
	return &Summary{
		OutputPath:   outputPath,
		Repositories: []*RepoStats{},
		Totals:       make(map[ActivityKind]int),
	}
}

// Record adds one repository iteration to the summary.
func (s *Summary) Record(b Batch) {
	repo := &RepoStats{Name: b.Repository, Counts: make(map[ActivityKind]int), Total: b.Len()}
	for _, kind := range Kinds {
		n := b.Count(kind)
		repo.Counts[kind] = n
		s.Totals[kind] += n
	}
	s.Repositories = append(s.Repositories, repo)
}

// Rows is the number of data rows written across all repositories.
func (s *Summary) Rows() int {
	total := 0
	for _, n := range s.Totals {
		total += n
	}
	return total
}

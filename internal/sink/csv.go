// Package sink writes activity rows to the CSV log.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/naka-gawa/github-devlog/internal/domain"
)

// CSVSink owns the output file. Every write opens, writes and closes the file,
// so rows already appended survive an interrupted run.
type CSVSink struct {
	path string
}

// NewCSVSink creates a sink for the file at path.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

// Path returns the output file path.
func (s *CSVSink) Path() string { return s.path }

// Initialize creates or truncates the output file and writes the header row.
func (s *CSVSink) Initialize() error {
	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", s.path, err)
	}
	return s.write(file, [][]string{domain.Header})
}

// Append writes rows to the end of the output file.
func (s *CSVSink) Append(rows []domain.Row) error {
	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.Record())
	}
	return s.write(file, records)
}

func (s *CSVSink) write(file *os.File, records [][]string) error {
	writer := csv.NewWriter(file)
	if err := writer.WriteAll(records); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", s.path, err)
	}
	return nil
}

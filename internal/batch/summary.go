// Copyright 2026 The Sessiontag Authors
// SPDX-License-Identifier: MIT

package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/davetashner/sessiontag/internal/classify"
)

// FileResult statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// SummaryFileName is written into the output directory after a batch run.
const SummaryFileName = "validation_summary.json"

// FileResult records the outcome of one input file.
type FileResult struct {
	Status       string            `json:"status"`
	InputFile    string            `json:"input_file"`
	OutputFile   string            `json:"output_file,omitempty"`
	ValidFormat  bool              `json:"valid_format"`
	HasDecision  bool              `json:"has_decision"`
	Decision     classify.Decision `json:"decision,omitempty"`
	RetriesUsed  int               `json:"retries_used"`
	UsedFallback bool              `json:"used_fallback"`
	Error        string            `json:"error,omitempty"`
}

// Summary aggregates a batch run.
type Summary struct {
	RunID        string       `json:"run_id"`
	Model        string       `json:"model"`
	StartedAt    time.Time    `json:"started_at"`
	TotalFiles   int          `json:"total_files"`
	Successful   int          `json:"successful"`
	Errors       int          `json:"errors"`
	ValidFormats int          `json:"valid_formats"`
	HasDecisions int          `json:"has_decisions"`
	Conversions  int          `json:"conversions"`
	DropOffs     int          `json:"drop_offs"`
	Results      []FileResult `json:"results"`
}

// finish derives the aggregate counters from the per-file results.
func (s *Summary) finish() {
	for _, r := range s.Results {
		if r.Status != StatusSuccess {
			s.Errors++
			continue
		}
		s.Successful++
		if r.ValidFormat {
			s.ValidFormats++
		}
		if r.HasDecision {
			s.HasDecisions++
		}
		switch r.Decision {
		case classify.Conversion:
			s.Conversions++
		case classify.DropOff:
			s.DropOffs++
		}
	}
}

// Write persists the summary as indented JSON at path.
func (s *Summary) Write(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("batch: marshal summary: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

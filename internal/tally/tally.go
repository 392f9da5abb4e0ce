// Copyright 2026 The Sessiontag Authors
// SPDX-License-Identifier: MIT

// Package tally scans classification result files for "Tag:" lines and
// aggregates Conversion vs Drop-Off counts. Matching is deliberately
// tolerant: it accepts tag-value variants (converted, abandoned, ...) and
// skips chain-of-thought blocks so reasoning text never shadows the answer.
package tally

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// TagType classifies what a file's Tag line said.
type TagType string

const (
	TagConversion TagType = "Conversion"
	TagDropOff    TagType = "Drop-Off"

	// TagMixed means the tag value matched both conversion and drop-off
	// variants; it counts as neither.
	TagMixed TagType = "Mixed"

	// TagUnknown means a Tag line existed but its value matched no variant.
	TagUnknown TagType = "Unknown"

	// TagNone means no Tag line was found at all.
	TagNone TagType = "None"
)

// tagLinePattern finds a Tag line and captures its value up to the first
// period, bracket, or end of line. Case-insensitive, tolerant of spacing
// around the colon.
var tagLinePattern = regexp.MustCompile(`(?i)Tag\s*:\s*([^\n.\[\]]+)`)

// thinkSeparator splits chain-of-thought reasoning from the final answer in
// outputs of reasoning models. Only text after the last separator is
// scanned when one is present.
const thinkSeparator = "</think>"

// Tag-value variants, checked as lowercase substrings.
var (
	conversionVariants = []string{"conversion", "convert", "converted", "success", "completed"}
	dropOffVariants    = []string{"drop-off", "dropoff", "drop off", "drop_off", "abandon", "abandoned", "exit", "left"}
)

// FileTag is the per-file analysis result.
type FileTag struct {
	File   string  `json:"file"`
	HasTag bool    `json:"has_tag"`
	Type   TagType `json:"type"`
	Value  string  `json:"value,omitempty"`
}

// Summary aggregates the analysis of a set of files.
type Summary struct {
	TotalFiles  int       `json:"total_files"`
	Conversions int       `json:"conversions"`
	DropOffs    int       `json:"drop_offs"`
	Mixed       int       `json:"mixed"`
	Unknown     int       `json:"unknown"`
	Untagged    int       `json:"untagged"`
	Files       []FileTag `json:"files"`
}

// Decisive returns the number of files with a clear Conversion or Drop-Off.
func (s *Summary) Decisive() int {
	return s.Conversions + s.DropOffs
}

// ConversionRate is the share of decisive files tagged Conversion, in
// percent. Zero when nothing was decisive.
func (s *Summary) ConversionRate() float64 {
	if s.Decisive() == 0 {
		return 0
	}
	return float64(s.Conversions) / float64(s.Decisive()) * 100
}

// DropOffRate is the share of decisive files tagged Drop-Off, in percent.
func (s *Summary) DropOffRate() float64 {
	if s.Decisive() == 0 {
		return 0
	}
	return float64(s.DropOffs) / float64(s.Decisive()) * 100
}

// Analyze inspects one result document for a Tag line.
func Analyze(content string) (TagType, string) {
	// Reasoning models wrap deliberation in <think>...</think>; only the
	// text after the block holds the answer.
	if idx := strings.LastIndex(content, thinkSeparator); idx >= 0 {
		content = content[idx+len(thinkSeparator):]
	}

	m := tagLinePattern.FindStringSubmatch(content)
	if m == nil {
		return TagNone, ""
	}
	value := strings.TrimSpace(m[1])

	lower := strings.ToLower(value)
	isConversion := containsAny(lower, conversionVariants)
	isDropOff := containsAny(lower, dropOffVariants)

	switch {
	case isConversion && isDropOff:
		return TagMixed, value
	case isConversion:
		return TagConversion, value
	case isDropOff:
		return TagDropOff, value
	default:
		return TagUnknown, value
	}
}

// AnalyzeFile reads and analyzes one file.
func AnalyzeFile(path string) (FileTag, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided path
	if err != nil {
		return FileTag{}, fmt.Errorf("tally: read %s: %w", path, err)
	}

	tagType, value := Analyze(string(data))
	return FileTag{
		File:   path,
		HasTag: tagType != TagNone,
		Type:   tagType,
		Value:  value,
	}, nil
}

// AnalyzeDir analyzes every matching file directly under dir and returns the
// aggregate summary. Files are processed in name order so the report is
// stable across runs.
func AnalyzeDir(dir string, extensions []string) (*Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("tally: read dir %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if len(extensions) > 0 && !slices.Contains(extensions, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	slices.Sort(paths)

	summary := &Summary{}
	for _, path := range paths {
		ft, err := AnalyzeFile(path)
		if err != nil {
			return nil, err
		}
		summary.add(ft)
	}
	return summary, nil
}

func (s *Summary) add(ft FileTag) {
	s.TotalFiles++
	s.Files = append(s.Files, ft)
	switch ft.Type {
	case TagConversion:
		s.Conversions++
	case TagDropOff:
		s.DropOffs++
	case TagMixed:
		s.Mixed++
	case TagUnknown:
		s.Unknown++
	case TagNone:
		s.Untagged++
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Copyright 2026 The Sessiontag Authors
// SPDX-License-Identifier: MIT

package classify

import (
	"regexp"
	"strings"
)

// Patterns holds the compiled expressions that define a well-formed
// classification answer. They are data, not hard-coded literals, so the
// format contract can be tuned without touching the retry machinery.
type Patterns struct {
	// TagLine must match the first non-empty line of a valid answer:
	// "Tag: Conversion [reason]" or "Tag: Drop-Off [reason]", optional
	// trailing period, case-insensitive.
	TagLine *regexp.Regexp

	// StepLine must match at least one line below the tag line:
	// "<integer>) <text>".
	StepLine *regexp.Regexp

	// DecisionWords matches a whole-word Conversion or Drop-Off anywhere.
	// The first capture group is the decision word.
	DecisionWords *regexp.Regexp
}

// DefaultPatterns returns the standard format contract.
func DefaultPatterns() Patterns {
	return Patterns{
		TagLine:       regexp.MustCompile(`(?i)^\s*Tag:\s*(Conversion|Drop-Off)\s*\[.*?\]\.?\s*$`),
		StepLine:      regexp.MustCompile(`(?m)^\d+\)\s+.+$`),
		DecisionWords: regexp.MustCompile(`(?i)\b(Conversion|Drop-Off)\b`),
	}
}

// ValidationResult is the outcome of checking one model response. It is
// derived purely from the response text and carries no side effects.
type ValidationResult struct {
	// FormatValid reports whether the response matched the required shape:
	// a Tag line first, then at least one numbered step.
	FormatValid bool

	// HasDecision reports whether a decision word appeared anywhere.
	HasDecision bool

	// Decision is the first decision word found, or NoDecision.
	Decision Decision
}

// Valid reports whether the response is acceptable as a final answer.
func (r ValidationResult) Valid() bool {
	return r.FormatValid && r.HasDecision
}

// Validator checks raw model output against a set of Patterns.
// All methods are pure functions over the input text.
type Validator struct {
	patterns Patterns
}

// NewValidator creates a Validator with the given patterns.
func NewValidator(p Patterns) *Validator {
	return &Validator{patterns: p}
}

// Evaluate runs every predicate once and bundles the results.
func (v *Validator) Evaluate(text string) ValidationResult {
	return ValidationResult{
		FormatValid: v.IsValidFormat(text),
		HasDecision: v.HasDecision(text),
		Decision:    v.ExtractDecision(text),
	}
}

// IsValidFormat checks the required structure: after stripping whitespace and
// any backtick code fences, the first non-empty line must be a Tag line and
// at least one numbered step line must appear somewhere below it.
func (v *Validator) IsValidFormat(text string) bool {
	cleaned := strings.TrimSpace(strings.Trim(strings.TrimSpace(text), "`"))

	var lines []string
	for _, line := range strings.Split(cleaned, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) == 0 {
		return false
	}
	if !v.patterns.TagLine.MatchString(lines[0]) {
		return false
	}

	// At least one step line anywhere below the tag line.
	steps := strings.Join(lines[1:], "\n")
	return v.patterns.StepLine.MatchString(steps)
}

// HasDecision reports whether the text contains a whole-word Conversion or
// Drop-Off anywhere, in any case.
func (v *Validator) HasDecision(text string) bool {
	return v.patterns.DecisionWords.MatchString(text)
}

// ExtractDecision returns the first decision word found in the text,
// normalized to its canonical form, or NoDecision if none is present.
func (v *Validator) ExtractDecision(text string) Decision {
	m := v.patterns.DecisionWords.FindStringSubmatch(text)
	if m == nil {
		return NoDecision
	}
	return ParseDecision(m[1])
}

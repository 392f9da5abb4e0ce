// Copyright 2026 The Sessiontag Authors
// SPDX-License-Identifier: MIT

package classify

import (
	"fmt"
	"regexp"
)

// FallbackRules holds the signal patterns used by the deterministic fallback.
// Like the validator Patterns, they are data so the heuristics can be tuned
// per application without touching the classifier.
type FallbackRules struct {
	// StartedGoal detects that a goal action (adding an item) was begun.
	StartedGoal *regexp.Regexp

	// TerminalGoal detects a terminal 2xx success tied to the goal action.
	TerminalGoal *regexp.Regexp

	// SuccessSignal detects any generic terminal backend success marker.
	SuccessSignal *regexp.Regexp
}

// DefaultFallbackRules returns the standard signal set, tuned for backend
// logs of an item-add conversion funnel.
func DefaultFallbackRules() FallbackRules {
	return FallbackRules{
		StartedGoal:   regexp.MustCompile(`(?i)Add Item|/api/items|items`),
		TerminalGoal:  regexp.MustCompile(`(?i)POST\s+/api/items.*?(200|201)`),
		SuccessSignal: regexp.MustCompile(`status_code["']?\s*:\s*2\d\d|→\s*200`),
	}
}

// Classify applies the heuristics in order and always produces a decisive
// label with a reason:
//
//  1. goal action started without terminal success → Drop-Off
//  2. any generic terminal success signal → Conversion
//  3. otherwise → Drop-Off
//
// A final safety net forces Drop-Off if the label is somehow indeterminate,
// so callers never receive NoDecision from this path.
func (r FallbackRules) Classify(logText string) (Decision, string) {
	var (
		decision Decision
		reason   string
	)

	switch {
	case r.StartedGoal.MatchString(logText) && !r.TerminalGoal.MatchString(logText):
		decision = DropOff
		reason = `"Add Item" started without terminal success.`
	case r.SuccessSignal.MatchString(logText):
		decision = Conversion
		reason = "Observed terminal backend success on a goal endpoint."
	default:
		decision = DropOff
		reason = "No business goal reached terminal success."
	}

	if decision != Conversion && decision != DropOff {
		decision = DropOff
		reason = "Unable to determine outcome - defaulting to Drop-Off."
	}

	return decision, reason
}

// Render classifies the log and formats the result in the same shape as a
// valid model answer, so downstream consumers treat fallback and model
// output uniformly. The output always satisfies IsValidFormat.
func (r FallbackRules) Render(logText string) string {
	decision, reason := r.Classify(logText)
	return fmt.Sprintf(`Tag: %s [%s]
1) Parsed backend/frontend events
2) Applied deterministic rules
3) Emitted conservative label`, decision, reason)
}

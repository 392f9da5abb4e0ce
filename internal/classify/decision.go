// Package classify implements validated session classification: prompt
// construction, output validation, corrective retry, and a deterministic
// fallback that guarantees a decisive label. The package owns no file or
// network I/O; it talks to a model through llm.Provider and reports attempt
// details through an optional AttemptSink.
package classify

import "strings"

// Decision is the binary outcome of a session classification.
type Decision string

const (
	// Conversion means the session reached a business goal.
	Conversion Decision = "Conversion"

	// DropOff means the session ended without reaching a goal.
	DropOff Decision = "Drop-Off"

	// NoDecision means no decision word was found in the text.
	NoDecision Decision = ""
)

// ParseDecision normalizes a matched decision word to its canonical form.
// Unrecognized input maps to NoDecision.
func ParseDecision(word string) Decision {
	switch strings.ToLower(word) {
	case "conversion":
		return Conversion
	case "drop-off":
		return DropOff
	default:
		return NoDecision
	}
}

// String returns the canonical spelling, or "None" when no decision exists.
func (d Decision) String() string {
	if d == NoDecision {
		return "None"
	}
	return string(d)
}

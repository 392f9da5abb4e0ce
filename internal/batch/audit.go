package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/davetashner/sessiontag/internal/classify"
)

// fileSink writes one file per attempt into an audit folder, mirroring the
// prompt, raw response, and validation verdict of each model call.
type fileSink struct {
	dir string
}

// Compile-time check that fileSink satisfies classify.AttemptSink.
var _ classify.AttemptSink = (*fileSink)(nil)

func newFileSink(dir string) (*fileSink, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("batch: create attempt dir %s: %w", dir, err)
	}
	return &fileSink{dir: dir}, nil
}

// RecordAttempt writes attempt_1_initial.txt for the first call and
// attempt_N_retry.txt for each correction.
func (s *fileSink) RecordAttempt(a classify.Attempt) error {
	name := fmt.Sprintf("attempt_%d_retry.txt", a.Number)
	if a.Number == 1 {
		name = "attempt_1_initial.txt"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "PROMPT:\n%s\n\n", a.Prompt)
	fmt.Fprintf(&sb, "RESPONSE:\n%s\n\n", a.Response)
	sb.WriteString("VALIDATION:\n")
	fmt.Fprintf(&sb, "  Valid format: %t\n", a.Result.FormatValid)
	fmt.Fprintf(&sb, "  Has decision: %t\n", a.Result.HasDecision)
	fmt.Fprintf(&sb, "  Decision: %s\n", a.Result.Decision)

	return os.WriteFile(filepath.Join(s.dir, name), []byte(sb.String()), 0o600)
}

// RecordFinal writes the terminal record: final_success.txt when the model
// produced a valid answer, final_fallback.txt when the deterministic
// fallback decided.
func (s *fileSink) RecordFinal(out *classify.Outcome) error {
	name := "final_fallback.txt"
	label := "FALLBACK RESULT"
	if out.Valid {
		name = "final_success.txt"
		label = "FINAL SUCCESSFUL RESULT"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:\n", label)
	fmt.Fprintf(&sb, "Retries used: %d\n", out.RetriesUsed)
	fmt.Fprintf(&sb, "Valid: %t\n\n", out.Valid)
	fmt.Fprintf(&sb, "RESPONSE:\n%s\n", out.FinalText)

	return os.WriteFile(filepath.Join(s.dir, name), []byte(sb.String()), 0o600)
}

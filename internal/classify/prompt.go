// Copyright 2026 The Sessiontag Authors
// SPDX-License-Identifier: MIT

package classify

import "strings"

// rulesTemplate is the fixed instruction block sent before every log. It
// spells out the output contract literally so the validator and the model
// agree on what a well-formed answer looks like.
const rulesTemplate = `Decide ONLY: Conversion or Drop-Off.
Analyze the following log file. Determine if the session was a drop-off or a conversion. Provide a reason for your classification
Output EXACTLY:
Tag: Conversion || Drop-Off [Short reason].
1) [Step 1]
2) [Step 2]
3) [Step 3]
…
Now analyze the log:`

// retryFormatSuffix is sent when the previous answer contained a decision
// word but did not match the required shape.
const retryFormatSuffix = `Your last answer was invalid. Output ONLY in this exact format:

Tag: Conversion || Drop-Off [Short reason].
1) [Step 1]
2) [Step 2]
3) [Step 3]
…
Do not include any other text.`

// retryDecisionSuffix is sent when the previous answer contained no decision
// word at all.
const retryDecisionSuffix = `You must make a clear decision. Your response must include either "Conversion" or "Drop-Off" and follow this exact format:

Tag: Conversion || Drop-Off [Short reason].
1) [Step 1]
2) [Step 2]
3) [Step 3]
…`

// PromptBuilder assembles the initial and corrective prompts. Retry prompts
// always repeat the full original log, never the model's previous output.
type PromptBuilder struct{}

// NewPromptBuilder returns a PromptBuilder.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// Build produces the initial prompt: an optional terminal-success map, the
// fixed rule block, then the log text.
func (b *PromptBuilder) Build(logText, endpointMap string) string {
	var sb strings.Builder
	if endpointMap != "" {
		sb.WriteString("Terminal success map:\n")
		sb.WriteString(endpointMap)
		sb.WriteString("\n\n")
	}
	sb.WriteString(rulesTemplate)
	sb.WriteString("\n")
	sb.WriteString(logText)
	return sb.String()
}

// BuildRetry produces a corrective prompt for the attempt after prev. If the
// previous response lacked a decision word entirely, the decision admonition
// is used; otherwise the format admonition. The full original log is
// appended again so the model re-analyzes from scratch.
func (b *PromptBuilder) BuildRetry(logText string, prev ValidationResult) string {
	suffix := retryFormatSuffix
	if !prev.HasDecision {
		suffix = retryDecisionSuffix
	}
	return strings.TrimSpace(suffix + "\n\nNow analyze the log:\n" + logText)
}

package classify_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/davetashner/sessiontag/internal/classify"
)

func TestPromptBuilder_Build(t *testing.T) {
	b := classify.NewPromptBuilder()

	prompt := b.Build("GET /home 200\nPOST /api/items", "")
	assert.Contains(t, prompt, "Decide ONLY: Conversion or Drop-Off.")
	assert.Contains(t, prompt, "Tag: Conversion || Drop-Off [Short reason].")
	assert.Contains(t, prompt, "Now analyze the log:")
	assert.True(t, strings.HasSuffix(prompt, "GET /home 200\nPOST /api/items"),
		"log text must come last")
	assert.NotContains(t, prompt, "Terminal success map")
}

func TestPromptBuilder_Build_WithEndpointMap(t *testing.T) {
	b := classify.NewPromptBuilder()

	prompt := b.Build("some log", "POST /api/items -> 201")
	assert.True(t, strings.HasPrefix(prompt, "Terminal success map:\nPOST /api/items -> 201"),
		"endpoint map must lead the prompt")
	assert.Contains(t, prompt, "Decide ONLY: Conversion or Drop-Off.")
	assert.Contains(t, prompt, "some log")
}

func TestPromptBuilder_BuildRetry_SuffixSelection(t *testing.T) {
	b := classify.NewPromptBuilder()

	t.Run("missing decision uses decision admonition", func(t *testing.T) {
		prev := classify.ValidationResult{FormatValid: false, HasDecision: false}
		prompt := b.BuildRetry("the log", prev)
		assert.Contains(t, prompt, "You must make a clear decision.")
		assert.NotContains(t, prompt, "Your last answer was invalid.")
		assert.Contains(t, prompt, "Now analyze the log:\nthe log")
	})

	t.Run("decision present but bad format uses format admonition", func(t *testing.T) {
		prev := classify.ValidationResult{FormatValid: false, HasDecision: true}
		prompt := b.BuildRetry("the log", prev)
		assert.Contains(t, prompt, "Your last answer was invalid.")
		assert.NotContains(t, prompt, "You must make a clear decision.")
		assert.Contains(t, prompt, "Now analyze the log:\nthe log")
	})
}

func TestPromptBuilder_BuildRetry_RepeatsOriginalLog(t *testing.T) {
	b := classify.NewPromptBuilder()

	// Retry prompts carry the original log, never the previous model output.
	prompt := b.BuildRetry("original session log", classify.ValidationResult{})
	assert.Contains(t, prompt, "original session log")
}

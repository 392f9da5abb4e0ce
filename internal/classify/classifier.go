// Copyright 2026 The Sessiontag Authors
// SPDX-License-Identifier: MIT

package classify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/davetashner/sessiontag/internal/llm"
)

// defaultRetryDelay is the fixed pause between validation retries, so
// corrective attempts do not hammer the backend.
const defaultRetryDelay = 500 * time.Millisecond

// Request describes one classification job. It is immutable once built;
// the classifier never mutates it.
type Request struct {
	// LogText is the session log to classify.
	LogText string

	// EndpointMap, when non-empty, is prefixed to the initial prompt as a
	// "Terminal success map" section to ground the model's notion of a
	// terminal success.
	EndpointMap string

	// Model, Temperature, TopP, and MaxTokens are passed through to the
	// provider. Nil pointers mean provider defaults.
	Model       string
	Temperature *float64
	TopP        *float64
	MaxTokens   int

	// MaxRetries is the number of corrective attempts after the initial
	// call. Zero means a single attempt with no correction.
	MaxRetries int

	// Timeout bounds each individual model call. Zero means no per-call
	// deadline beyond the caller's context.
	Timeout time.Duration
}

// Outcome is the final result of one classification request.
type Outcome struct {
	// FinalText is the answer handed to the caller. When Valid is false it
	// is the deterministic fallback rendering, never a model response.
	FinalText string

	// LastResponse is the raw text of the final model call, kept for audit
	// even when it failed validation.
	LastResponse string

	// Valid reports whether the last model response satisfied both the
	// format and decision checks.
	Valid bool

	// RetriesUsed counts corrective attempts taken; zero means the first
	// call was already valid. Always <= Request.MaxRetries.
	RetriesUsed int

	// Decision is the label extracted from FinalText. Never NoDecision:
	// the fallback guarantees a decisive label when the model fails.
	Decision Decision
}

// Attempt captures one prompt/response/validation triple for auditing.
type Attempt struct {
	// Number is 1-based; 1 is the initial call, 2.. are retries.
	Number int

	// Prompt is the exact text sent to the model.
	Prompt string

	// Response is the raw model output.
	Response string

	// Result is the validation of Response.
	Result ValidationResult
}

// AttemptSink receives attempt records as they happen. Implementations own
// any persistence; the classifier itself does no I/O. Sink errors abort the
// classification so a requested audit trail is never silently incomplete.
type AttemptSink interface {
	RecordAttempt(a Attempt) error
}

// Classifier drives the validated-classification state machine: call the
// model, validate, retry with corrective prompting, and fall back to the
// deterministic heuristic when retries are exhausted. One request is fully
// resolved before the next begins; the classifier holds no per-request state.
type Classifier struct {
	provider   llm.Provider
	validator  *Validator
	prompts    *PromptBuilder
	fallback   FallbackRules
	retryDelay time.Duration
	sink       AttemptSink
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithPatterns replaces the default validation patterns.
func WithPatterns(p Patterns) Option {
	return func(c *Classifier) {
		c.validator = NewValidator(p)
	}
}

// WithFallbackRules replaces the default fallback heuristics.
func WithFallbackRules(r FallbackRules) Option {
	return func(c *Classifier) {
		c.fallback = r
	}
}

// WithRetryDelay sets the fixed pause before each corrective attempt.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Classifier) {
		c.retryDelay = d
	}
}

// WithAttemptSink installs an audit sink. Nil disables auditing.
func WithAttemptSink(s AttemptSink) Option {
	return func(c *Classifier) {
		c.sink = s
	}
}

// New creates a Classifier backed by the given provider.
func New(provider llm.Provider, opts ...Option) *Classifier {
	c := &Classifier{
		provider:   provider,
		validator:  NewValidator(DefaultPatterns()),
		prompts:    NewPromptBuilder(),
		fallback:   DefaultFallbackRules(),
		retryDelay: defaultRetryDelay,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Classify resolves one request completely: initial call, up to
// req.MaxRetries corrective attempts, then the deterministic fallback if the
// model never produced a valid answer.
//
// Transport failures (timeout, connection error) are returned as errors and
// do not consume validation retries; invalid output is a normal outcome, not
// an error. The returned Outcome is non-nil exactly when err is nil.
func (c *Classifier) Classify(ctx context.Context, req Request) (*Outcome, error) {
	prompt := c.prompts.Build(req.LogText, req.EndpointMap)

	text, err := c.call(ctx, req, prompt)
	if err != nil {
		return nil, err
	}

	result := c.validator.Evaluate(text)
	slog.Debug("initial attempt evaluated",
		"format_valid", result.FormatValid,
		"has_decision", result.HasDecision,
		"decision", result.Decision.String())
	if err := c.record(Attempt{Number: 1, Prompt: prompt, Response: text, Result: result}); err != nil {
		return nil, err
	}

	if result.Valid() {
		return &Outcome{
			FinalText:    strings.TrimSpace(text),
			LastResponse: text,
			Valid:        true,
			RetriesUsed:  0,
			Decision:     result.Decision,
		}, nil
	}

	retries := 0
	for range req.MaxRetries {
		retries++
		if err := c.wait(ctx); err != nil {
			return nil, err
		}

		// Suffix choice depends on the previous response: missing decision
		// beats wrong format.
		prompt = c.prompts.BuildRetry(req.LogText, result)
		text, err = c.call(ctx, req, prompt)
		if err != nil {
			return nil, err
		}

		result = c.validator.Evaluate(text)
		slog.Debug("retry attempt evaluated",
			"retry", retries,
			"format_valid", result.FormatValid,
			"has_decision", result.HasDecision,
			"decision", result.Decision.String())
		if err := c.record(Attempt{Number: retries + 1, Prompt: prompt, Response: text, Result: result}); err != nil {
			return nil, err
		}

		if result.Valid() {
			return &Outcome{
				FinalText:    strings.TrimSpace(text),
				LastResponse: text,
				Valid:        true,
				RetriesUsed:  retries,
				Decision:     result.Decision,
			}, nil
		}
	}

	// Exhausted: the model never produced a valid answer. The final text
	// comes from the deterministic fallback so every request yields a
	// usable, decisive label.
	fallback := c.fallback.Render(req.LogText)
	slog.Debug("retries exhausted, using deterministic fallback", "retries", retries)
	return &Outcome{
		FinalText:    fallback,
		LastResponse: text,
		Valid:        false,
		RetriesUsed:  retries,
		Decision:     c.validator.ExtractDecision(fallback),
	}, nil
}

// call performs one model invocation with the request's per-call timeout.
func (c *Classifier) call(ctx context.Context, req Request, prompt string) (string, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	resp, err := c.provider.Complete(ctx, llm.Request{
		Prompt:      prompt,
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
	})
	if err != nil {
		return "", fmt.Errorf("classify: model call failed: %w", err)
	}
	return resp.Content, nil
}

// wait sleeps for the configured retry delay, aborting early if the context
// is cancelled.
func (c *Classifier) wait(ctx context.Context) error {
	if c.retryDelay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(c.retryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// record forwards an attempt to the sink, if one is installed.
func (c *Classifier) record(a Attempt) error {
	if c.sink == nil {
		return nil
	}
	if err := c.sink.RecordAttempt(a); err != nil {
		return fmt.Errorf("classify: record attempt %d: %w", a.Number, err)
	}
	return nil
}

// Copyright 2026 The Sessiontag Authors
// SPDX-License-Identifier: MIT

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	// defaultOllamaBaseURL is the local Ollama server address.
	defaultOllamaBaseURL = "http://localhost:11434"

	// defaultOllamaModel is the model used when no override is provided.
	defaultOllamaModel = "llama3.3:70b"

	// defaultOllamaRetries bounds the transient-status retries (429, 5xx).
	// Timeouts and connection failures are never retried here; they
	// propagate to the caller immediately.
	defaultOllamaRetries = 3
)

// OllamaProvider implements Provider against an Ollama generation endpoint:
// POST {base}/api/generate with a JSON body
// {model, prompt, stream:false, options:{temperature, top_p, num_predict}}
// and a JSON response carrying the text in the "response" field.
type OllamaProvider struct {
	baseURL    string
	model      string
	maxRetries int
	httpClient *http.Client
}

// Compile-time check that OllamaProvider satisfies the Provider interface.
var _ Provider = (*OllamaProvider)(nil)

// OllamaOption configures an OllamaProvider.
type OllamaOption func(*OllamaProvider)

// WithOllamaBaseURL overrides the server address.
func WithOllamaBaseURL(url string) OllamaOption {
	return func(p *OllamaProvider) {
		p.baseURL = strings.TrimRight(url, "/")
	}
}

// WithOllamaModel overrides the default model for all requests.
func WithOllamaModel(model string) OllamaOption {
	return func(p *OllamaProvider) {
		p.model = model
	}
}

// WithOllamaMaxRetries sets the maximum number of transient-status retries.
func WithOllamaMaxRetries(n int) OllamaOption {
	return func(p *OllamaProvider) {
		p.maxRetries = n
	}
}

// WithOllamaHTTPClient replaces the underlying HTTP client. The client's
// timeout applies per attempt; callers normally control deadlines through
// the request context instead.
func WithOllamaHTTPClient(c *http.Client) OllamaOption {
	return func(p *OllamaProvider) {
		p.httpClient = c
	}
}

// NewOllamaProvider creates a provider talking to a local or remote Ollama
// server. Unlike the Anthropic provider there is no API key to validate, so
// construction cannot fail.
func NewOllamaProvider(opts ...OllamaOption) *OllamaProvider {
	p := &OllamaProvider{
		baseURL:    defaultOllamaBaseURL,
		model:      defaultOllamaModel,
		maxRetries: defaultOllamaRetries,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ollamaOptions is the nested options object of a generate request.
type ollamaOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
}

// ollamaGenerateRequest is the wire body for POST /api/generate.
type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

// ollamaGenerateResponse is the subset of the reply we consume.
type ollamaGenerateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// Complete sends a generate request to the Ollama server. HTTP 429 and 5xx
// statuses are retried with constant backoff up to the configured limit;
// any other failure is returned as-is.
func (p *OllamaProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  model,
		Prompt: req.Prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: req.Temperature,
			TopP:        req.TopP,
			NumPredict:  req.MaxTokens,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}

	var out ollamaGenerateResponse
	backoff := retry.WithMaxRetries(uint64(max(p.maxRetries, 0)), retry.NewConstant(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		return p.generate(ctx, body, &out)
	})
	if err != nil {
		return nil, err
	}

	return &Response{
		Content: strings.TrimSpace(out.Response),
		Model:   out.Model,
		Usage: Usage{
			InputTokens:  out.PromptEvalCount,
			OutputTokens: out.EvalCount,
		},
	}, nil
}

// generate performs one HTTP round trip. Transient statuses are wrapped in
// retry.RetryableError so the backoff loop tries again; everything else is
// permanent.
func (p *OllamaProvider) generate(ctx context.Context, body []byte, out *ollamaGenerateResponse) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ollama: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		// Timeout or connection failure: fatal for this call.
		return fmt.Errorf("ollama: request to %s failed: %w", p.baseURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		statusErr := fmt.Errorf("ollama: server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return retry.RetryableError(statusErr)
		}
		return statusErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ollama: decode response: %w", err)
	}
	return nil
}

// Model returns the default model configured for this provider.
func (p *OllamaProvider) Model() string {
	return p.model
}

// BaseURL returns the server address this provider talks to.
func (p *OllamaProvider) BaseURL() string {
	return p.baseURL
}

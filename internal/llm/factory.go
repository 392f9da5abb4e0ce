// Copyright 2026 The Sessiontag Authors
// SPDX-License-Identifier: MIT

package llm

import "fmt"

// Provider names accepted by New. Selection is always explicit; the factory
// never infers a backend from the model name.
const (
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderMock      = "mock"
)

// Options carries the provider-independent settings the factory understands.
type Options struct {
	// Provider is one of the Provider* constants. Empty defaults to ollama,
	// the backend the batch scripts were originally written against.
	Provider string

	// Model is the default model identifier, passed through to the provider.
	Model string

	// BaseURL overrides the backend address (Ollama server or API proxy).
	BaseURL string

	// MaxRetries bounds transient-error retries inside the provider.
	// Zero or negative means provider default.
	MaxRetries int
}

// New constructs the configured provider. Unknown provider names are an
// error rather than a silent default so configuration typos surface early.
func New(opts Options) (Provider, error) {
	name := opts.Provider
	if name == "" {
		name = ProviderOllama
	}

	switch name {
	case ProviderAnthropic:
		aOpts := []AnthropicOption{}
		if opts.Model != "" {
			aOpts = append(aOpts, WithModel(opts.Model))
		}
		if opts.BaseURL != "" {
			aOpts = append(aOpts, WithBaseURL(opts.BaseURL))
		}
		if opts.MaxRetries > 0 {
			aOpts = append(aOpts, WithMaxRetries(opts.MaxRetries))
		}
		return NewAnthropicProvider(aOpts...)

	case ProviderOllama:
		oOpts := []OllamaOption{}
		if opts.Model != "" {
			oOpts = append(oOpts, WithOllamaModel(opts.Model))
		}
		if opts.BaseURL != "" {
			oOpts = append(oOpts, WithOllamaBaseURL(opts.BaseURL))
		}
		if opts.MaxRetries > 0 {
			oOpts = append(oOpts, WithOllamaMaxRetries(opts.MaxRetries))
		}
		return NewOllamaProvider(oOpts...), nil

	case ProviderMock:
		return NewMockProvider(), nil

	default:
		return nil, fmt.Errorf("llm: unknown provider %q (want %s, %s, or %s)",
			name, ProviderAnthropic, ProviderOllama, ProviderMock)
	}
}

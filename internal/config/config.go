// Package config handles .sessiontag.yaml / .sessiontag.toml settings files.
package config

import "time"

// Config represents the contents of a sessiontag settings file. All fields
// are optional; unset fields fall back to built-in defaults, and CLI flags
// override the file.
type Config struct {
	// Provider selects the model backend: "anthropic", "ollama", or "mock".
	Provider string `yaml:"provider,omitempty" toml:"provider"`

	// Model is the model identifier passed to the provider.
	Model string `yaml:"model,omitempty" toml:"model"`

	// BaseURL overrides the backend address (Ollama server or API proxy).
	BaseURL string `yaml:"base_url,omitempty" toml:"base_url"`

	// Temperature and TopP are sampling parameters in [0,1].
	Temperature *float64 `yaml:"temperature,omitempty" toml:"temperature"`
	TopP        *float64 `yaml:"top_p,omitempty" toml:"top_p"`

	// MaxTokens limits response length per model call.
	MaxTokens int `yaml:"max_tokens,omitempty" toml:"max_tokens"`

	// MaxRetries is the number of corrective validation retries per log.
	// Pointer so an explicit 0 can be distinguished from unset.
	MaxRetries *int `yaml:"max_retries,omitempty" toml:"max_retries"`

	// Timeout bounds each model call, e.g. "600s". RetryDelay is the pause
	// before each corrective retry; FileDelay the pause between files in a
	// batch. All parsed by time.ParseDuration.
	Timeout    string `yaml:"timeout,omitempty" toml:"timeout"`
	RetryDelay string `yaml:"retry_delay,omitempty" toml:"retry_delay"`
	FileDelay  string `yaml:"file_delay,omitempty" toml:"file_delay"`

	// Extensions lists the log file extensions scanned in directory mode.
	Extensions []string `yaml:"extensions,omitempty" toml:"extensions"`

	// Audit enables per-file attempt folders.
	Audit *bool `yaml:"audit,omitempty" toml:"audit"`

	// EndpointMap is the terminal-success map text prefixed to prompts.
	EndpointMap string `yaml:"endpoint_map,omitempty" toml:"endpoint_map"`

	// Concurrency is the number of files classified at once in batch mode.
	// The default of 1 keeps requests strictly sequential to respect
	// backend rate limits.
	Concurrency int `yaml:"concurrency,omitempty" toml:"concurrency"`
}

// File names probed by Load, in order.
const (
	YAMLFileName = ".sessiontag.yaml"
	TOMLFileName = ".sessiontag.toml"
)

// Built-in defaults, matching the parameters the batch scripts were tuned
// with.
const (
	DefaultModel       = "llama3.3:70b"
	DefaultTemperature = 0.1
	DefaultTopP        = 0.2
	DefaultMaxTokens   = 2000
	DefaultMaxRetries  = 2
	DefaultTimeout     = 600 * time.Second
	DefaultRetryDelay  = 500 * time.Millisecond
	DefaultFileDelay   = 2 * time.Second
)

// DefaultExtensions are the log file extensions scanned in directory mode.
var DefaultExtensions = []string{".txt", ".json", ".log"}

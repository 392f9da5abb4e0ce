// Copyright 2026 The Sessiontag Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/davetashner/sessiontag/internal/batch"
	"github.com/davetashner/sessiontag/internal/config"
	"github.com/davetashner/sessiontag/internal/llm"
)

// Classify-specific flag values.
var (
	classifyOutput      string
	classifyProvider    string
	classifyModel       string
	classifyBaseURL     string
	classifyTemperature float64
	classifyTopP        float64
	classifyMaxTokens   int
	classifyMaxRetries  int
	classifyTimeout     time.Duration
	classifyRetryDelay  time.Duration
	classifyFileDelay   time.Duration
	classifyExtensions  []string
	classifyLimit       int
	classifyAudit       bool
	classifyEndpointMap string
	classifyConcurrency int
)

// classifyCmd is the subcommand for classifying log files.
var classifyCmd = &cobra.Command{
	Use:   "classify <path>",
	Short: "Classify session log files as Conversion or Drop-Off",
	Long: `Classify one log file, or every matching log file in a directory, through
the configured LLM backend. Each file is resolved completely (including any
corrective retries and the deterministic fallback) before the next begins, and
the validated answer is written to '<stem>_validated.txt' in the output
directory along with a machine-readable run summary.

Settings can also come from a .sessiontag.yaml or .sessiontag.toml file next
to the logs; flags override the file, which overrides built-in defaults.`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	f := classifyCmd.Flags()
	f.StringVarP(&classifyOutput, "output", "o", "", "output directory (default: <input dir>/validated_sessions)")
	f.StringVar(&classifyProvider, "provider", "", "model backend: anthropic, ollama, or mock (default: ollama)")
	f.StringVarP(&classifyModel, "model", "m", "", "model identifier (default: "+config.DefaultModel+")")
	f.StringVar(&classifyBaseURL, "base-url", "", "backend address override (Ollama server or API proxy)")
	f.Float64Var(&classifyTemperature, "temperature", config.DefaultTemperature, "sampling temperature")
	f.Float64Var(&classifyTopP, "top-p", config.DefaultTopP, "nucleus sampling threshold")
	f.IntVar(&classifyMaxTokens, "max-tokens", config.DefaultMaxTokens, "response token limit per model call")
	f.IntVar(&classifyMaxRetries, "max-retries", config.DefaultMaxRetries, "corrective retries per file before fallback")
	f.DurationVar(&classifyTimeout, "timeout", config.DefaultTimeout, "per-model-call timeout")
	f.DurationVar(&classifyRetryDelay, "retry-delay", config.DefaultRetryDelay, "pause before each corrective retry")
	f.DurationVar(&classifyFileDelay, "file-delay", config.DefaultFileDelay, "pause between files in sequential mode")
	f.StringSliceVar(&classifyExtensions, "ext", nil, "log file extensions scanned in directory mode (default: .txt,.json,.log)")
	f.IntVar(&classifyLimit, "limit", 0, "process only the first N discovered files (0 = all)")
	f.BoolVar(&classifyAudit, "audit", false, "write per-file attempt folders with every prompt and response")
	f.StringVar(&classifyEndpointMap, "endpoint-map", "", "terminal-success map text included in the initial prompt")
	f.IntVar(&classifyConcurrency, "concurrency", 0, "files classified at once (default 1: strictly sequential)")
}

func runClassify(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	info, err := os.Stat(inputPath)
	if err != nil {
		return exitError(ExitInvalidArgs, "sessiontag: path %q does not exist (check the path and try again)", inputPath)
	}

	inputDir := inputPath
	if !info.IsDir() {
		inputDir = filepath.Dir(inputPath)
	}

	fileCfg, err := config.Load(inputDir)
	if err != nil {
		return exitError(ExitInvalidArgs, "sessiontag: %v", err)
	}

	opts, provOpts, err := resolveClassifyOptions(cmd.Flags(), fileCfg, inputDir)
	if err != nil {
		return err
	}

	provider, err := llm.New(provOpts)
	if err != nil {
		return exitError(ExitInvalidArgs, "sessiontag: %v", err)
	}

	proc := batch.NewProcessor(provider, opts)

	files, err := proc.Discover(inputPath)
	if err != nil {
		return exitError(ExitInvalidArgs, "sessiontag: %v", err)
	}
	if len(files) == 0 {
		return exitError(ExitInvalidArgs, "sessiontag: no matching log files in %q", inputPath)
	}

	slog.Info("starting run", "files", len(files), "model", opts.Model, "output", opts.OutputDir)

	summary, err := proc.Run(cmd.Context(), files)
	if err != nil {
		return exitError(ExitTotalFailure, "sessiontag: run failed (%v)", err)
	}

	summaryPath := filepath.Join(opts.OutputDir, batch.SummaryFileName)
	if err := summary.Write(summaryPath); err != nil {
		return exitError(ExitTotalFailure, "sessiontag: %v", err)
	}

	printRunSummary(cmd, summary, summaryPath)

	switch {
	case summary.Errors == summary.TotalFiles:
		return exitError(ExitTotalFailure, "")
	case summary.Errors > 0:
		return exitError(ExitPartialFailure, "")
	}
	return nil
}

// resolveClassifyOptions merges flags over the settings file over built-in
// defaults. Explicitly passed flags always win, even at their default value.
func resolveClassifyOptions(flags *pflag.FlagSet, fileCfg *config.Config, inputDir string) (batch.Options, llm.Options, error) {
	opts := batch.Options{
		Model:      config.DefaultModel,
		MaxTokens:  config.DefaultMaxTokens,
		MaxRetries: config.DefaultMaxRetries,
		Timeout:    config.DefaultTimeout,
		RetryDelay: config.DefaultRetryDelay,
		FileDelay:  config.DefaultFileDelay,
		Extensions: config.DefaultExtensions,
	}
	temperature := config.DefaultTemperature
	topP := config.DefaultTopP

	// Settings file layer.
	if fileCfg.Model != "" {
		opts.Model = fileCfg.Model
	}
	if fileCfg.Temperature != nil {
		temperature = *fileCfg.Temperature
	}
	if fileCfg.TopP != nil {
		topP = *fileCfg.TopP
	}
	if fileCfg.MaxTokens > 0 {
		opts.MaxTokens = fileCfg.MaxTokens
	}
	if fileCfg.MaxRetries != nil {
		opts.MaxRetries = *fileCfg.MaxRetries
	}
	if len(fileCfg.Extensions) > 0 {
		opts.Extensions = fileCfg.Extensions
	}
	if fileCfg.Audit != nil {
		opts.Audit = *fileCfg.Audit
	}
	if fileCfg.EndpointMap != "" {
		opts.EndpointMap = fileCfg.EndpointMap
	}
	if fileCfg.Concurrency > 0 {
		opts.Concurrency = fileCfg.Concurrency
	}
	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"timeout", fileCfg.Timeout, &opts.Timeout},
		{"retry_delay", fileCfg.RetryDelay, &opts.RetryDelay},
		{"file_delay", fileCfg.FileDelay, &opts.FileDelay},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return batch.Options{}, llm.Options{}, exitError(ExitInvalidArgs,
				"sessiontag: invalid %s %q in settings file (%v)", d.name, d.raw, err)
		}
		*d.dst = parsed
	}

	// Flag layer.
	if flags.Changed("model") {
		opts.Model = classifyModel
	}
	if flags.Changed("temperature") {
		temperature = classifyTemperature
	}
	if flags.Changed("top-p") {
		topP = classifyTopP
	}
	if flags.Changed("max-tokens") {
		opts.MaxTokens = classifyMaxTokens
	}
	if flags.Changed("max-retries") {
		opts.MaxRetries = classifyMaxRetries
	}
	if flags.Changed("timeout") {
		opts.Timeout = classifyTimeout
	}
	if flags.Changed("retry-delay") {
		opts.RetryDelay = classifyRetryDelay
	}
	if flags.Changed("file-delay") {
		opts.FileDelay = classifyFileDelay
	}
	if flags.Changed("ext") {
		opts.Extensions = classifyExtensions
	}
	if flags.Changed("audit") {
		opts.Audit = classifyAudit
	}
	if classifyEndpointMap != "" {
		opts.EndpointMap = classifyEndpointMap
	}
	if flags.Changed("concurrency") {
		opts.Concurrency = classifyConcurrency
	}
	opts.Limit = classifyLimit
	opts.Temperature = &temperature
	opts.TopP = &topP

	if temperature < 0 || temperature > 1 {
		return batch.Options{}, llm.Options{}, exitError(ExitInvalidArgs,
			"sessiontag: --temperature must be between 0.0 and 1.0 (got %.2f)", temperature)
	}
	if topP < 0 || topP > 1 {
		return batch.Options{}, llm.Options{}, exitError(ExitInvalidArgs,
			"sessiontag: --top-p must be between 0.0 and 1.0 (got %.2f)", topP)
	}
	if opts.MaxRetries < 0 {
		return batch.Options{}, llm.Options{}, exitError(ExitInvalidArgs,
			"sessiontag: --max-retries must be >= 0 (got %d)", opts.MaxRetries)
	}

	// Extensions are matched lowercase with a leading dot.
	for i, ext := range opts.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		opts.Extensions[i] = ext
	}

	opts.OutputDir = classifyOutput
	if opts.OutputDir == "" {
		opts.OutputDir = filepath.Join(inputDir, "validated_sessions")
	}

	providerName := fileCfg.Provider
	if classifyProvider != "" {
		providerName = classifyProvider
	}
	baseURL := fileCfg.BaseURL
	if classifyBaseURL != "" {
		baseURL = classifyBaseURL
	}

	provOpts := llm.Options{
		Provider: providerName,
		Model:    opts.Model,
		BaseURL:  baseURL,
	}
	return opts, provOpts, nil
}

// printRunSummary writes the human-readable run recap to stdout.
func printRunSummary(cmd *cobra.Command, s *batch.Summary, summaryPath string) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Processed %d file(s): %d succeeded, %d failed\n", s.TotalFiles, s.Successful, s.Errors)
	fmt.Fprintf(w, "  valid format: %d, decisions: %d (%d conversions, %d drop-offs)\n",
		s.ValidFormats, s.HasDecisions, s.Conversions, s.DropOffs)
	fmt.Fprintf(w, "Summary written to %s\n", summaryPath)
}

// Copyright 2026 The Sessiontag Authors
// SPDX-License-Identifier: MIT

// Package batch drives validated classification over log files: it reads
// each file, resolves one classification completely (including retries and
// fallback) before the next begins, persists per-file outputs and optional
// attempt audit folders, and produces a machine-readable run summary.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/davetashner/sessiontag/internal/classify"
	"github.com/davetashner/sessiontag/internal/llm"
)

// Options configures a batch run. Zero values mean sensible defaults where
// noted; model parameters pass through to the classifier unchanged.
type Options struct {
	// OutputDir receives `<stem>_validated.txt` files, attempt folders, and
	// the run summary.
	OutputDir string

	// Model, Temperature, TopP, MaxTokens, MaxRetries, and Timeout shape
	// each classification request.
	Model       string
	Temperature *float64
	TopP        *float64
	MaxTokens   int
	MaxRetries  int
	Timeout     time.Duration

	// RetryDelay is the fixed pause before each corrective retry.
	RetryDelay time.Duration

	// EndpointMap is the terminal-success map text included in prompts.
	EndpointMap string

	// Extensions filters directory scans. Empty means no filtering beyond
	// regular files.
	Extensions []string

	// Limit restricts a run to the first N discovered files (0 = all).
	Limit int

	// FileDelay is the pause between files when running sequentially, to
	// throttle request rate. Ignored when Concurrency > 1.
	FileDelay time.Duration

	// Audit enables per-file attempt folders.
	Audit bool

	// Concurrency is the number of files classified at once. Values < 1
	// mean 1: strictly sequential, the default for rate-limited backends.
	// Each classification stays atomic regardless.
	Concurrency int
}

// Processor runs classifications over files using a single provider.
type Processor struct {
	provider llm.Provider
	opts     Options
}

// NewProcessor creates a Processor for one batch run.
func NewProcessor(provider llm.Provider, opts Options) *Processor {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Processor{provider: provider, opts: opts}
}

// Discover lists the files to process: path itself when it is a regular
// file, otherwise the directory's entries matching the configured
// extensions, sorted by name and capped by Limit.
func (p *Processor) Discover(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("batch: stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("batch: read dir %s: %w", path, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if len(p.opts.Extensions) > 0 && !slices.Contains(p.opts.Extensions, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	slices.Sort(files)

	if p.opts.Limit > 0 && len(files) > p.opts.Limit {
		files = files[:p.opts.Limit]
	}
	return files, nil
}

// Run processes the given files and returns the aggregated summary. File
// errors (unreadable input, transport failure) do not abort the run; they
// are recorded per file so the batch keeps going. Only context cancellation
// stops a run early.
func (p *Processor) Run(ctx context.Context, files []string) (*Summary, error) {
	summary := &Summary{
		RunID:      uuid.NewString(),
		Model:      p.opts.Model,
		StartedAt:  time.Now().UTC(),
		TotalFiles: len(files),
		Results:    make([]FileResult, len(files)),
	}

	if err := os.MkdirAll(p.opts.OutputDir, 0o750); err != nil {
		return nil, fmt.Errorf("batch: create output dir: %w", err)
	}

	if p.opts.Concurrency == 1 {
		for i, file := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			summary.Results[i] = p.ProcessFile(ctx, file)
			if p.opts.FileDelay > 0 && i < len(files)-1 {
				if err := sleepCtx(ctx, p.opts.FileDelay); err != nil {
					return nil, err
				}
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.opts.Concurrency)
		for i, file := range files {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				summary.Results[i] = p.ProcessFile(gctx, file)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	summary.finish()
	return summary, nil
}

// ProcessFile classifies one log file and persists its output. All failure
// modes are folded into the returned FileResult; this function never panics
// the batch.
func (p *Processor) ProcessFile(ctx context.Context, inputPath string) FileResult {
	res := FileResult{
		Status:    StatusError,
		InputFile: inputPath,
	}

	logText, err := readLogFile(inputPath)
	if err != nil {
		res.Error = err.Error()
		slog.Error("read failed", "file", inputPath, "error", err)
		return res
	}

	opts := []classify.Option{classify.WithRetryDelay(p.opts.RetryDelay)}

	var sink *fileSink
	if p.opts.Audit {
		sink, err = newFileSink(p.attemptDir(inputPath))
		if err != nil {
			res.Error = err.Error()
			slog.Error("audit folder failed", "file", inputPath, "error", err)
			return res
		}
		opts = append(opts, classify.WithAttemptSink(sink))
	}

	classifier := classify.New(p.provider, opts...)

	slog.Info("classifying", "file", filepath.Base(inputPath), "model", p.opts.Model)
	outcome, err := classifier.Classify(ctx, classify.Request{
		LogText:     logText,
		EndpointMap: p.opts.EndpointMap,
		Model:       p.opts.Model,
		Temperature: p.opts.Temperature,
		TopP:        p.opts.TopP,
		MaxTokens:   p.opts.MaxTokens,
		MaxRetries:  p.opts.MaxRetries,
		Timeout:     p.opts.Timeout,
	})
	if err != nil {
		// Transport failure: skip this file, keep the batch going.
		res.Error = err.Error()
		slog.Error("classification failed", "file", inputPath, "error", err)
		return res
	}

	if sink != nil {
		if err := sink.RecordFinal(outcome); err != nil {
			slog.Warn("final audit record failed", "file", inputPath, "error", err)
		}
	}

	outputPath := p.outputPath(inputPath)
	if err := writeResultFile(outputPath, inputPath, p.opts.Model, outcome.FinalText); err != nil {
		res.Error = err.Error()
		slog.Error("write failed", "file", outputPath, "error", err)
		return res
	}

	res.Status = StatusSuccess
	res.OutputFile = outputPath
	res.ValidFormat = outcome.Valid
	res.Decision = outcome.Decision
	res.HasDecision = outcome.Decision != classify.NoDecision
	res.RetriesUsed = outcome.RetriesUsed
	res.UsedFallback = !outcome.Valid

	slog.Info("classified",
		"file", filepath.Base(inputPath),
		"decision", outcome.Decision.String(),
		"valid", outcome.Valid,
		"retries", outcome.RetriesUsed)
	return res
}

// outputPath returns `<OutputDir>/<stem>_validated.txt` for an input file.
func (p *Processor) outputPath(inputPath string) string {
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return filepath.Join(p.opts.OutputDir, stem+"_validated.txt")
}

// attemptDir returns the audit folder for an input file. Colons in model
// names (llama3.3:70b) are not filesystem-safe, so they become dashes.
func (p *Processor) attemptDir(inputPath string) string {
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	model := strings.ReplaceAll(p.opts.Model, ":", "-")
	if model == "" {
		model = "default"
	}
	return filepath.Join(p.opts.OutputDir, fmt.Sprintf("%s_%s_attempts", stem, model))
}

// writeResultFile persists one classification with a provenance header.
func writeResultFile(outputPath, inputPath, model, finalText string) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Original file: %s\n", inputPath)
	fmt.Fprintf(&sb, "Processed on: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "Model used: %s\n", model)
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")
	sb.WriteString(finalText)
	sb.WriteString("\n")
	return os.WriteFile(outputPath, []byte(sb.String()), 0o600)
}

// readLogFile reads a log, replacing invalid UTF-8 rather than failing, since
// captured session logs frequently carry stray bytes.
func readLogFile(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided input path
	if err != nil {
		return "", fmt.Errorf("batch: read %s: %w", path, err)
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}

// sleepCtx pauses for d, returning early if the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

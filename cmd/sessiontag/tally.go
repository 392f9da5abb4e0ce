// Copyright 2026 The Sessiontag Authors
// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davetashner/sessiontag/internal/tally"
)

// Tally-specific flag values.
var (
	tallyFormat     string
	tallyOutput     string
	tallyExtensions []string
)

// tallyCmd is the subcommand for aggregating classification results.
var tallyCmd = &cobra.Command{
	Use:   "tally <dir>",
	Short: "Aggregate Tag lines across classification result files",
	Long: `Scan a directory of classification results for "Tag:" lines and report
how many sessions converted versus dropped off. Matching is tolerant of tag
variants (converted, abandoned, ...) and skips <think> reasoning blocks, so
imperfect model output still tallies correctly.`,
	Args: cobra.ExactArgs(1),
	RunE: runTally,
}

func init() {
	tallyCmd.Flags().StringVarP(&tallyFormat, "format", "f", tally.FormatTable, "output format (table, json, markdown, csv)")
	tallyCmd.Flags().StringVarP(&tallyOutput, "output", "o", "", "output file path (default: stdout)")
	tallyCmd.Flags().StringSliceVar(&tallyExtensions, "ext", []string{".txt"}, "result file extensions to scan")
}

func runTally(cmd *cobra.Command, args []string) error {
	dir := args[0]

	exts := make([]string, 0, len(tallyExtensions))
	for _, ext := range tallyExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}

	summary, err := tally.AnalyzeDir(dir, exts)
	if err != nil {
		return exitError(ExitInvalidArgs, "sessiontag: %v", err)
	}

	w := cmd.OutOrStdout()
	if tallyOutput != "" {
		if err := os.MkdirAll(filepath.Dir(tallyOutput), 0o750); err != nil {
			return exitError(ExitInvalidArgs, "sessiontag: cannot create output directory (%v)", err)
		}
		f, err := os.Create(tallyOutput) //nolint:gosec // user-provided output path
		if err != nil {
			return exitError(ExitInvalidArgs, "sessiontag: cannot create output file %q (%v)", tallyOutput, err)
		}
		defer f.Close() //nolint:errcheck // best-effort close on output file
		w = f
	}

	if err := tally.Render(w, summary, tallyFormat); err != nil {
		return exitError(ExitInvalidArgs, "sessiontag: %v", err)
	}
	return nil
}

// Copyright 2026 The Sessiontag Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/davetashner/sessiontag/internal/batch"
)

// resetCommandFlags restores every flag on cmd and its subcommands to its
// default value. The commands are package-level singletons, so flag values
// set by one test would otherwise leak into the next Execute call.
func resetCommandFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			def := strings.Trim(f.DefValue, "[]")
			var vals []string
			if def != "" {
				vals = strings.Split(def, ",")
			}
			_ = sv.Replace(vals)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
	for _, sub := range cmd.Commands() {
		resetCommandFlags(sub)
	}
}

// runCommand executes the root command in-process and returns combined output.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetCommandFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestClassifyCommand_MockProviderFallsBack(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	writeLog(t, dir, "session1.txt", `GET /api/items 200
user clicked "Add Item"
session ended`)

	out, err := runCommand(t, "classify", dir,
		"--provider", "mock",
		"--max-retries", "0",
		"--retry-delay", "1ms",
		"--file-delay", "1ms",
		"-o", outDir)
	if err != nil {
		t.Fatalf("classify failed: %v\noutput:\n%s", err, out)
	}
	if !strings.Contains(out, "Processed 1 file(s): 1 succeeded, 0 failed") {
		t.Errorf("unexpected run summary:\n%s", out)
	}

	// The mock returns empty content, so the deterministic fallback applies.
	data, readErr := os.ReadFile(filepath.Join(outDir, "session1_validated.txt"))
	if readErr != nil {
		t.Fatalf("result file not written: %v", readErr)
	}
	if !strings.Contains(string(data), "Tag: Drop-Off") {
		t.Errorf("expected fallback Drop-Off tag, got:\n%s", data)
	}
	if !strings.Contains(string(data), "Original file:") {
		t.Errorf("result file missing provenance header:\n%s", data)
	}

	summaryData, readErr := os.ReadFile(filepath.Join(outDir, batch.SummaryFileName))
	if readErr != nil {
		t.Fatalf("summary not written: %v", readErr)
	}
	var summary batch.Summary
	if err := json.Unmarshal(summaryData, &summary); err != nil {
		t.Fatalf("summary is not valid JSON: %v", err)
	}
	if summary.TotalFiles != 1 || summary.Successful != 1 {
		t.Errorf("unexpected summary counters: %+v", summary)
	}
	if summary.RunID == "" {
		t.Error("summary missing run ID")
	}
}

func TestClassifyCommand_SettingsFileModel(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	writeLog(t, dir, "s.txt", "some log")
	writeLog(t, dir, ".sessiontag.yaml", "model: tuned-model\nprovider: mock\n")

	out, err := runCommand(t, "classify", dir,
		"--max-retries", "0",
		"--retry-delay", "1ms",
		"--file-delay", "1ms",
		"-o", outDir)
	if err != nil {
		t.Fatalf("classify failed: %v\noutput:\n%s", err, out)
	}

	data, readErr := os.ReadFile(filepath.Join(outDir, "s_validated.txt"))
	if readErr != nil {
		t.Fatalf("result file not written: %v", readErr)
	}
	if !strings.Contains(string(data), "Model used: tuned-model") {
		t.Errorf("settings file model not applied:\n%s", data)
	}
}

func TestClassifyCommand_MissingPath(t *testing.T) {
	_, err := runCommand(t, "classify", filepath.Join(t.TempDir(), "nope"),
		"--provider", "mock")
	if err == nil {
		t.Fatal("expected error for missing path")
	}
	var ece *exitCodeError
	if !errors.As(err, &ece) || ece.code != ExitInvalidArgs {
		t.Errorf("expected exit code %d, got %v", ExitInvalidArgs, err)
	}
}

func TestClassifyCommand_NoMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "notes.csv", "not a log")

	_, err := runCommand(t, "classify", dir, "--provider", "mock")
	if err == nil {
		t.Fatal("expected error for empty directory")
	}
	var ece *exitCodeError
	if !errors.As(err, &ece) || ece.code != ExitInvalidArgs {
		t.Errorf("expected exit code %d, got %v", ExitInvalidArgs, err)
	}
}

func TestClassifyCommand_UnknownProvider(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "s.txt", "log")

	_, err := runCommand(t, "classify", dir, "--provider", "openai")
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if !strings.Contains(err.Error(), "unknown provider") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestClassifyCommand_InvalidTemperature(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "s.txt", "log")

	_, err := runCommand(t, "classify", dir,
		"--provider", "mock", "--temperature", "1.5")
	if err == nil {
		t.Fatal("expected error for out-of-range temperature")
	}
	var ece *exitCodeError
	if !errors.As(err, &ece) || ece.code != ExitInvalidArgs {
		t.Errorf("expected exit code %d, got %v", ExitInvalidArgs, err)
	}
}

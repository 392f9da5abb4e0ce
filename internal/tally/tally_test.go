// Copyright 2026 The Sessiontag Authors
// SPDX-License-Identifier: MIT

package tally_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/sessiontag/internal/tally"
)

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantType tally.TagType
		wantVal  string
	}{
		{
			name:     "canonical conversion",
			content:  "Tag: Conversion [User completed checkout].\n1) Logged in",
			wantType: tally.TagConversion,
			wantVal:  "Conversion",
		},
		{
			name:     "canonical drop-off",
			content:  "Tag: Drop-Off [Abandoned cart].",
			wantType: tally.TagDropOff,
			wantVal:  "Drop-Off",
		},
		{
			name:     "case and spacing variants",
			content:  "tag : converted",
			wantType: tally.TagConversion,
			wantVal:  "converted",
		},
		{
			name:     "drop off with space",
			content:  "TAG: drop off",
			wantType: tally.TagDropOff,
			wantVal:  "drop off",
		},
		{
			name:     "abandon variant",
			content:  "Tag: user abandoned the flow",
			wantType: tally.TagDropOff,
			wantVal:  "user abandoned the flow",
		},
		{
			name:     "unknown tag value",
			content:  "Tag: inconclusive",
			wantType: tally.TagUnknown,
			wantVal:  "inconclusive",
		},
		{
			name:     "no tag line at all",
			content:  "just some notes about the session",
			wantType: tally.TagNone,
			wantVal:  "",
		},
		{
			name:     "tag only inside think block is ignored",
			content:  "<think>maybe Tag: Conversion?</think>\nTag: Drop-Off [gave up].",
			wantType: tally.TagDropOff,
			wantVal:  "Drop-Off",
		},
		{
			name:     "think block with no tag after",
			content:  "<think>Tag: Conversion</think>\nno verdict here",
			wantType: tally.TagNone,
			wantVal:  "",
		},
		{
			name:     "result file with provenance header",
			content:  "Original file: a.txt\nModel used: m\n====\n\nTag: Conversion [paid].\n1) step",
			wantType: tally.TagConversion,
			wantVal:  "Conversion",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotVal := tally.Analyze(tt.content)
			assert.Equal(t, tt.wantType, gotType)
			assert.Equal(t, tt.wantVal, gotVal)
		})
	}
}

func writeResult(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestAnalyzeDir(t *testing.T) {
	dir := t.TempDir()
	writeResult(t, dir, "a_validated.txt", "Tag: Conversion [paid].")
	writeResult(t, dir, "b_validated.txt", "Tag: Drop-Off [left].")
	writeResult(t, dir, "c_validated.txt", "Tag: Drop-Off [timeout].")
	writeResult(t, dir, "d_validated.txt", "no tag here")
	writeResult(t, dir, "ignored.csv", "Tag: Conversion")

	s, err := tally.AnalyzeDir(dir, []string{".txt"})
	require.NoError(t, err)

	assert.Equal(t, 4, s.TotalFiles)
	assert.Equal(t, 1, s.Conversions)
	assert.Equal(t, 2, s.DropOffs)
	assert.Equal(t, 1, s.Untagged)
	assert.Equal(t, 3, s.Decisive())
	assert.InDelta(t, 33.3, s.ConversionRate(), 0.1)
	assert.InDelta(t, 66.7, s.DropOffRate(), 0.1)

	// Stable name ordering.
	require.Len(t, s.Files, 4)
	assert.Equal(t, "a_validated.txt", filepath.Base(s.Files[0].File))
}

func TestAnalyzeDir_Missing(t *testing.T) {
	_, err := tally.AnalyzeDir(filepath.Join(t.TempDir(), "nope"), nil)
	require.Error(t, err)
}

func TestSummary_RatesWithNoDecisiveFiles(t *testing.T) {
	s := &tally.Summary{}
	assert.Zero(t, s.ConversionRate())
	assert.Zero(t, s.DropOffRate())
}

func buildSummary(t *testing.T) *tally.Summary {
	t.Helper()
	dir := t.TempDir()
	writeResult(t, dir, "one.txt", "Tag: Conversion [ok].")
	writeResult(t, dir, "two.txt", "Tag: Drop-Off [no].")
	s, err := tally.AnalyzeDir(dir, []string{".txt"})
	require.NoError(t, err)
	return s
}

func TestRender_Table(t *testing.T) {
	// Disable ANSI codes so the assertions see plain text.
	old := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = old }()

	var buf bytes.Buffer
	require.NoError(t, tally.Render(&buf, buildSummary(t), tally.FormatTable))

	out := buf.String()
	assert.Contains(t, out, "FILE")
	assert.Contains(t, out, "one.txt")
	assert.Contains(t, out, "Conversion")
	assert.Contains(t, out, "1 conversions")
	assert.Contains(t, out, "1 drop-offs")
	assert.Contains(t, out, "conversion rate: 50.0%")
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, tally.Render(&buf, buildSummary(t), tally.FormatJSON))

	var decoded tally.Summary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 2, decoded.TotalFiles)
	assert.Equal(t, 1, decoded.Conversions)
}

func TestRender_Markdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, tally.Render(&buf, buildSummary(t), tally.FormatMarkdown))

	out := buf.String()
	assert.Contains(t, out, "# Tag Analysis")
	assert.Contains(t, out, "| File | Tag | Value |")
	assert.Contains(t, out, "| one.txt | Conversion | Conversion |")
}

func TestRender_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, tally.Render(&buf, buildSummary(t), tally.FormatCSV))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "file,has_tag,tag,value", lines[0])
	assert.Contains(t, lines[1], "Conversion")
}

func TestRender_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := tally.Render(&buf, &tally.Summary{}, "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "xml"`)
}

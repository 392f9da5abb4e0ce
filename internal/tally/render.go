// Copyright 2026 The Sessiontag Authors
// SPDX-License-Identifier: MIT

package tally

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/fatih/color"
)

// Output formats accepted by Render.
const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
)

// Shared color printers for the terminal report.
var (
	colorGreen  = color.New(color.FgGreen)
	colorRed    = color.New(color.FgRed)
	colorYellow = color.New(color.FgYellow)
	colorBold   = color.New(color.Bold)
)

// colorTagType colors decision labels in the per-file table.
func colorTagType(val string) string {
	switch TagType(val) {
	case TagConversion:
		return colorGreen.Sprint(val)
	case TagDropOff:
		return colorRed.Sprint(val)
	case TagMixed, TagUnknown, TagNone:
		return colorYellow.Sprint(val)
	default:
		return val
	}
}

// Render writes the summary to w in the requested format.
func Render(w io.Writer, s *Summary, format string) error {
	switch format {
	case FormatTable, "":
		return renderTable(w, s)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatMarkdown:
		return renderMarkdown(w, s)
	case FormatCSV:
		return renderCSV(w, s)
	default:
		return fmt.Errorf("tally: unknown format %q (want table, json, markdown, or csv)", format)
	}
}

func renderTable(w io.Writer, s *Summary) error {
	table := NewTable(
		Column{Header: "FILE"},
		Column{Header: "TAG", Color: colorTagType},
		Column{Header: "VALUE"},
	)
	for _, ft := range s.Files {
		table.AddRow(filepath.Base(ft.File), string(ft.Type), ft.Value)
	}
	if err := table.Render(w); err != nil {
		return err
	}

	fmt.Fprintln(w)
	colorBold.Fprintf(w, "  %d files", s.TotalFiles)
	fmt.Fprintf(w, ": %s, %s",
		colorGreen.Sprintf("%d conversions", s.Conversions),
		colorRed.Sprintf("%d drop-offs", s.DropOffs))
	if s.Mixed > 0 {
		fmt.Fprintf(w, ", %d mixed", s.Mixed)
	}
	if s.Unknown > 0 {
		fmt.Fprintf(w, ", %d unknown", s.Unknown)
	}
	if s.Untagged > 0 {
		fmt.Fprintf(w, ", %d untagged", s.Untagged)
	}
	fmt.Fprintln(w)

	if s.Decisive() > 0 {
		fmt.Fprintf(w, "  conversion rate: %.1f%%  drop-off rate: %.1f%%\n",
			s.ConversionRate(), s.DropOffRate())
	}
	return nil
}

func renderMarkdown(w io.Writer, s *Summary) error {
	fmt.Fprintln(w, "# Tag Analysis")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "- Total files: %d\n", s.TotalFiles)
	fmt.Fprintf(w, "- Conversions: %d\n", s.Conversions)
	fmt.Fprintf(w, "- Drop-Offs: %d\n", s.DropOffs)
	fmt.Fprintf(w, "- Mixed: %d\n", s.Mixed)
	fmt.Fprintf(w, "- Unknown: %d\n", s.Unknown)
	fmt.Fprintf(w, "- Untagged: %d\n", s.Untagged)
	if s.Decisive() > 0 {
		fmt.Fprintf(w, "- Conversion rate: %.1f%%\n", s.ConversionRate())
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| File | Tag | Value |")
	fmt.Fprintln(w, "|------|-----|-------|")
	for _, ft := range s.Files {
		fmt.Fprintf(w, "| %s | %s | %s |\n", filepath.Base(ft.File), ft.Type, ft.Value)
	}
	return nil
}

func renderCSV(w io.Writer, s *Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"file", "has_tag", "tag", "value"}); err != nil {
		return err
	}
	for _, ft := range s.Files {
		if err := cw.Write([]string{ft.File, strconv.FormatBool(ft.HasTag), string(ft.Type), ft.Value}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

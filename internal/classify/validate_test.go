// Copyright 2026 The Sessiontag Authors
// SPDX-License-Identifier: MIT

package classify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/davetashner/sessiontag/internal/classify"
)

func newValidator() *classify.Validator {
	return classify.NewValidator(classify.DefaultPatterns())
}

func TestIsValidFormat(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{
			name: "well-formed answer",
			text: "Tag: Conversion [User completed checkout].\n1) Logged in\n2) Added item\n3) Checked out",
			want: true,
		},
		{
			name: "drop-off tag",
			text: "Tag: Drop-Off [Abandoned cart].\n1) Logged in\n2) Left",
			want: true,
		},
		{
			name: "case-insensitive tag",
			text: "tag: conversion [done]\n1) step",
			want: true,
		},
		{
			name: "no trailing period on tag line",
			text: "Tag: Conversion [done]\n1) step",
			want: true,
		},
		{
			name: "code-fenced output",
			text: "```\nTag: Conversion [done].\n1) step\n```",
			want: true,
		},
		{
			name: "blank lines between tag and steps",
			text: "Tag: Conversion [done].\n\n\n1) step",
			want: true,
		},
		{
			name: "prose before the step line",
			text: "Tag: Conversion [done].\nHere are the steps:\n1) step",
			want: true,
		},
		{
			name: "free prose with decision word",
			text: "I think this was probably a conversion because...",
			want: false,
		},
		{
			name: "tag line without bracketed reason",
			text: "Tag: Conversion\n1) step",
			want: false,
		},
		{
			name: "tag line with wrong decision word",
			text: "Tag: Maybe [unsure].\n1) step",
			want: false,
		},
		{
			name: "no numbered steps",
			text: "Tag: Conversion [done].",
			want: false,
		},
		{
			name: "step without text",
			text: "Tag: Conversion [done].\n1)",
			want: false,
		},
		{
			name: "tag line not first",
			text: "Here is my answer:\nTag: Conversion [done].\n1) step",
			want: false,
		},
		{
			name: "empty string",
			text: "",
			want: false,
		},
		{
			name: "only whitespace and fences",
			text: "```   ```",
			want: false,
		},
	}

	v := newValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.IsValidFormat(tt.text))
		})
	}
}

func TestHasDecision(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"exact word", "Conversion", true},
		{"lowercase buried in prose", "this was probably a conversion because the user paid", true},
		{"drop-off hyphenated", "looks like a DROP-OFF to me", true},
		{"no decision word", "Unable to decide.", false},
		{"substring is not a whole word", "conversionary tactics", false},
		{"empty", "", false},
	}

	v := newValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.HasDecision(tt.text))
		})
	}
}

func TestExtractDecision(t *testing.T) {
	v := newValidator()

	assert.Equal(t, classify.Conversion, v.ExtractDecision("Tag: Conversion [ok]."))
	assert.Equal(t, classify.DropOff, v.ExtractDecision("a clear drop-off here"))
	assert.Equal(t, classify.NoDecision, v.ExtractDecision("nothing to see"))

	// First match wins when both words appear.
	assert.Equal(t, classify.DropOff, v.ExtractDecision("Drop-Off, not a Conversion"))
}

func TestEvaluate_ConcreteScenarios(t *testing.T) {
	v := newValidator()

	t.Run("valid answer", func(t *testing.T) {
		res := v.Evaluate("Tag: Conversion [User completed checkout].\n1) Logged in\n2) Added item\n3) Checked out")
		assert.True(t, res.FormatValid)
		assert.True(t, res.HasDecision)
		assert.Equal(t, classify.Conversion, res.Decision)
		assert.True(t, res.Valid())
	})

	t.Run("decision present but format wrong", func(t *testing.T) {
		res := v.Evaluate("I think this was probably a conversion because...")
		assert.False(t, res.FormatValid)
		assert.True(t, res.HasDecision)
		assert.False(t, res.Valid())
	})

	t.Run("no decision at all", func(t *testing.T) {
		res := v.Evaluate("Unable to decide.")
		assert.False(t, res.FormatValid)
		assert.False(t, res.HasDecision)
		assert.Equal(t, classify.NoDecision, res.Decision)
		assert.False(t, res.Valid())
	})
}

func TestParseDecision(t *testing.T) {
	assert.Equal(t, classify.Conversion, classify.ParseDecision("CONVERSION"))
	assert.Equal(t, classify.DropOff, classify.ParseDecision("drop-off"))
	assert.Equal(t, classify.NoDecision, classify.ParseDecision("maybe"))
	assert.Equal(t, "None", classify.NoDecision.String())
	assert.Equal(t, "Drop-Off", classify.DropOff.String())
}

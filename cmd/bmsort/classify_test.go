package main

import (
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/bmsort/internal/model"
)

func TestParseClassifyFlags_Defaults(t *testing.T) {
	defaults := model.DefaultSettings()
	defaults.MaxCategories = 8

	opts, err := parseClassifyFlags(nil, defaults)
	assert.NilError(t, err)
	assert.DeepEqual(t, opts.settings, defaults)
	assert.Equal(t, opts.folder, "")
	assert.Assert(t, !opts.plain)
}

func TestParseClassifyFlags_Overrides(t *testing.T) {
	opts, err := parseClassifyFlags([]string{
		"--folder", "inbox",
		"--style", "detailed",
		"--max-categories", "5",
		"--max-sub", "3",
		"--levels", "1",
		"--no-sub",
		"--fuzzy",
		"--no-check",
		"--plain",
	}, model.DefaultSettings())
	assert.NilError(t, err)

	assert.Equal(t, opts.folder, "inbox")
	assert.Assert(t, opts.plain)
	s := opts.settings
	assert.Equal(t, s.Style, model.StyleDetailed)
	assert.Equal(t, s.MaxCategories, 5)
	assert.Equal(t, s.MaxSubCategories, 3)
	assert.Equal(t, s.MaxLevels, 1)
	assert.Assert(t, !s.CreateSubCategories)
	assert.Assert(t, s.FuzzyClassification)
	assert.Assert(t, !s.CheckAccessibility)
}

func TestParseClassifyFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown style", []string{"--style", "fancy"}, `unknown style "fancy"`},
		{"custom without text", []string{"--style", "custom"}, "needs --custom"},
		{"stray argument", []string{"extra"}, "unexpected arguments: extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseClassifyFlags(tt.args, model.DefaultSettings())
			assert.Assert(t, is.ErrorContains(err, tt.want))
		})
	}
}

func TestParseClassifyFlags_Custom(t *testing.T) {
	opts, err := parseClassifyFlags([]string{"--style", "custom", "--custom", "group by language"}, model.DefaultSettings())
	assert.NilError(t, err)
	assert.Equal(t, opts.settings.Style, model.StyleCustom)
	assert.Equal(t, opts.settings.CustomRequirement, "group by language")
}

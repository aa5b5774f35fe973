package ai_test

import (
	"strings"
	"testing"

	"github.com/nikbrunner/bmsort/internal/ai"
	"github.com/nikbrunner/bmsort/internal/model"
)

func TestBuildPrompt(t *testing.T) {
	b := model.Bookmark{Title: "TanStack Router", URL: "https://tanstack.com/router"}

	tests := []struct {
		name     string
		settings model.Settings
		contains []string
		excludes []string
	}{
		{
			name:     "defaults",
			settings: model.DefaultSettings(),
			contains: []string{"TanStack Router", "https://tanstack.com/router", `"mainCategory"`, "most fitting", "at most 2 levels", "Create a sub-category"},
			excludes: []string{"fuzzy", "main categories within"},
		},
		{
			name: "limits and fuzzy",
			settings: model.Settings{
				Style:               model.StyleSimple,
				MaxCategories:       5,
				MaxSubCategories:    3,
				MaxLevels:           4,
				CreateSubCategories: true,
				FuzzyClassification: true,
			},
			contains: []string{"fuzzy classification", "broad categories", "within 5", "within 3", "at most 4 levels", "stays flat"},
		},
		{
			name: "custom without sub-categories",
			settings: model.Settings{
				Style:             model.StyleCustom,
				CustomRequirement: "group by programming language",
				MaxSubCategories:  3,
				MaxLevels:         1,
			},
			contains: []string{"Custom requirement: group by programming language", "Do not create sub-categories"},
			excludes: []string{"sub-categories under each main category"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := ai.BuildPrompt(b, tt.settings)
			for _, s := range tt.contains {
				if !strings.Contains(prompt, s) {
					t.Errorf("prompt missing %q", s)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(prompt, s) {
					t.Errorf("prompt should not contain %q", s)
				}
			}
		})
	}
}

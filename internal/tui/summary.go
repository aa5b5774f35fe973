package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/nikbrunner/bmsort/internal/classify"
)

// RenderSummary draws the category tree of a finished run under root.
// Lines are cut to width runes; width <= 0 disables cutting.
func RenderSummary(root string, summaries []classify.Summary, styles Styles, width int) string {
	var b strings.Builder
	b.WriteString(styles.Title.Render(root))

	if len(summaries) == 0 {
		b.WriteString("\n")
		b.WriteString(styles.Recent.Render("(nothing classified)"))
		return b.String()
	}

	for i, s := range summaries {
		last := i == len(summaries)-1
		branch, indent := "├── ", "│   "
		if last {
			branch, indent = "└── ", "    "
		}

		nameStyle := styles.Category
		if isFallback(s.Name) {
			nameStyle = styles.Fallback
		}
		b.WriteString("\n")
		b.WriteString(line(s.Name, s.Count, branch, width, nameStyle, styles))

		for j, sub := range s.SubCategories {
			subBranch := "├── "
			if j == len(s.SubCategories)-1 {
				subBranch = "└── "
			}
			b.WriteString("\n")
			b.WriteString(line(sub.Name, sub.Count, indent+subBranch, width, styles.Sub, styles))
		}
	}
	return b.String()
}

// line renders "<prefix><name> (<count>)". Only the name is cut to fit width.
func line(name string, count int, prefix string, width int, nameStyle lipgloss.Style, styles Styles) string {
	suffix := fmt.Sprintf(" (%d)", count)
	if width > 0 {
		name = truncate(name, width-utf8.RuneCountInString(prefix+suffix))
	}
	return styles.Branch.Render(prefix) + nameStyle.Render(name) + styles.Count.Render(suffix)
}

func isFallback(name string) bool {
	switch name {
	case classify.OverflowCategory, classify.UnclassifiedCategory, classify.InaccessibleCategory:
		return true
	}
	return false
}

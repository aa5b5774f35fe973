package ai

import (
	"fmt"
	"strings"

	"github.com/nikbrunner/bmsort/internal/model"
)

const systemPrompt = "You are a bookmark classification assistant. Classify web pages accurately from their title and URL and always answer with a JSON object."

// BuildPrompt renders the user instruction for one bookmark.
func BuildPrompt(b model.Bookmark, s model.Settings) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `Analyze this web page and classify it.

Title: %s
URL: %s

Return the result as JSON with these fields:
{
  "mainCategory": "main category name",
  "subCategory": "sub-category name (if needed)",
  "confidence": classification confidence (0-1),
  "reason": "why this category"
}`, b.Title, b.URL)

	if s.FuzzyClassification {
		sb.WriteString("\n\nIMPORTANT: use fuzzy classification. Only a rough category type is needed, do not be too precise or granular.")
	}

	switch s.Style {
	case model.StyleDetailed:
		sb.WriteString("\n\nRequirement: classify in detail, narrowing down to the specific purpose and domain where possible.")
	case model.StyleSimple:
		sb.WriteString("\n\nRequirement: classify simply, using broad categories without fine subdivisions.")
	case model.StyleCustom:
		if s.CustomRequirement != "" {
			fmt.Fprintf(&sb, "\n\nCustom requirement: %s", s.CustomRequirement)
		}
	default:
		sb.WriteString("\n\nRequirement: analyze the site's content and purpose and choose the most fitting classification.")
	}

	if s.MaxCategories > 0 {
		fmt.Fprintf(&sb, "\nKeep the number of main categories within %d.", s.MaxCategories)
	}
	if s.CreateSubCategories && s.MaxSubCategories > 0 {
		fmt.Fprintf(&sb, "\nKeep the number of sub-categories under each main category within %d.", s.MaxSubCategories)
	}

	if s.MaxLevels > 0 {
		if s.MaxLevels <= 2 {
			fmt.Fprintf(&sb, "\nUse at most %d levels of categories; do not subdivide below the second level.", s.MaxLevels)
		} else {
			fmt.Fprintf(&sb, "\nUse at most %d levels of categories; anything deeper stays flat at the current level.", s.MaxLevels)
		}
	}

	if s.CreateSubCategories {
		sb.WriteString("\nCreate a sub-category where it helps organize the bookmarks.")
	} else {
		sb.WriteString("\nDo not create sub-categories, use main categories only.")
	}

	sb.WriteString(`

Common categories (for reference only, adjust to the actual content):
- Development (programming, tools, documentation)
- Learning (tutorials, courses, references)
- News & Media (news, blogs, articles)
- Social (social networks, forums, communities)
- Entertainment (video, music, games)
- Shopping (stores, price comparison, deals)
- Services (utilities, online services)
- Work (office, collaboration, management)`)

	return sb.String()
}

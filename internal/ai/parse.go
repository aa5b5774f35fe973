package ai

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

const (
	// FallbackCategory is used when the text parser finds no main category.
	FallbackCategory = "Other"

	fallbackConfidence = 0.5
	fallbackReason     = "text parse"
)

type replyJSON struct {
	MainCategory string          `json:"mainCategory"`
	SubCategory  *string         `json:"subCategory"`
	Confidence   json.RawMessage `json:"confidence"`
	Reason       string          `json:"reason"`
}

var (
	mainMarkers = []string{"maincategory", "main category", "主分类"}
	subMarkers  = []string{"subcategory", "sub category", "sub-category", "子分类"}
	valueRe     = regexp.MustCompile(`[:：](.+)`)
)

// ParseReply decodes a classifier reply. It tries strict JSON first and falls
// back to scanning lines for category labels. strict reports which tier won.
func ParseReply(content string) (info CategoryInfo, strict bool) {
	if info, ok := parseJSON(content); ok {
		return info, true
	}
	return parseText(content), false
}

func parseJSON(content string) (CategoryInfo, bool) {
	var r replyJSON
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &r); err != nil {
		return CategoryInfo{}, false
	}
	main := strings.TrimSpace(r.MainCategory)
	if main == "" {
		return CategoryInfo{}, false
	}

	info := CategoryInfo{
		MainCategory: main,
		Confidence:   parseConfidence(r.Confidence),
		Reason:       r.Reason,
	}
	if r.SubCategory != nil {
		info.SubCategory = strings.TrimSpace(*r.SubCategory)
	}
	return info, true
}

// parseConfidence accepts a number or a quoted number.
func parseConfidence(raw json.RawMessage) float64 {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" {
		return fallbackConfidence
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallbackConfidence
	}
	return clamp(v)
}

func parseText(content string) CategoryInfo {
	info := CategoryInfo{
		MainCategory: FallbackCategory,
		Confidence:   fallbackConfidence,
		Reason:       fallbackReason,
	}

	for _, line := range strings.Split(content, "\n") {
		lower := strings.ToLower(line)
		switch {
		case containsAny(lower, mainMarkers):
			if v := markerValue(line); v != "" {
				info.MainCategory = v
			}
		case containsAny(lower, subMarkers):
			if v := markerValue(line); v != "" {
				info.SubCategory = v
			}
		}
	}
	return info
}

// markerValue returns the text after the first colon, without JSON-ish
// quoting and trailing commas.
func markerValue(line string) string {
	m := valueRe.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	v := strings.TrimSpace(m[1])
	v = strings.TrimRight(v, ",")
	v = strings.Trim(strings.TrimSpace(v), `"'*{}`)
	v = strings.TrimSpace(v)
	if v == "null" {
		return ""
	}
	return v
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

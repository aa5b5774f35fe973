package model

// Style selects how coarse or fine the classifier's categories should be.
type Style string

const (
	StyleSmart    Style = "smart"
	StyleDetailed Style = "detailed"
	StyleSimple   Style = "simple"
	StyleCustom   Style = "custom"
)

// Valid reports whether s is a known style.
func (s Style) Valid() bool {
	switch s {
	case StyleSmart, StyleDetailed, StyleSimple, StyleCustom:
		return true
	}
	return false
}

// Settings configures a classification run.
// Zero MaxCategories / MaxSubCategories mean unlimited.
type Settings struct {
	Style               Style  `json:"classificationStyle"`
	CustomRequirement   string `json:"customRequirement,omitempty"`
	MaxCategories       int    `json:"maxCategories,omitempty"`
	MaxSubCategories    int    `json:"maxSubCategories,omitempty"`
	MaxLevels           int    `json:"maxLevels"`
	CreateSubCategories bool   `json:"createSubCategories"`
	FuzzyClassification bool   `json:"fuzzyClassification"`
	CheckAccessibility  bool   `json:"checkAccessibility"`
}

// DefaultSettings returns the settings used when nothing is configured.
// Decoding JSON on top of this value keeps defaults for absent fields.
func DefaultSettings() Settings {
	return Settings{
		Style:               StyleSmart,
		MaxLevels:           2,
		CreateSubCategories: true,
		CheckAccessibility:  true,
	}
}

// Normalize clamps out-of-range values back to sane ones.
func (s Settings) Normalize() Settings {
	if !s.Style.Valid() {
		s.Style = StyleSmart
	}
	if s.MaxCategories < 0 {
		s.MaxCategories = 0
	}
	if s.MaxSubCategories < 0 {
		s.MaxSubCategories = 0
	}
	if s.MaxLevels < 1 {
		s.MaxLevels = 1
	}
	return s
}

// SubCategoriesEnabled reports whether sub-category folders may be created.
func (s Settings) SubCategoriesEnabled() bool {
	return s.CreateSubCategories && s.MaxLevels > 1
}

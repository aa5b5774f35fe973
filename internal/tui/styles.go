package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds all lipgloss styles for the progress view.
type Styles struct {
	App      lipgloss.Style
	Title    lipgloss.Style
	Status   lipgloss.Style
	Recent   lipgloss.Style
	Category lipgloss.Style
	Sub      lipgloss.Style
	Fallback lipgloss.Style // Other, Unclassified, Inaccessible
	Count    lipgloss.Style
	Branch   lipgloss.Style
	Error    lipgloss.Style
	Help     lipgloss.Style
}

// DefaultStyles returns the default style configuration.
// Industrial design: grayscale with single desaturated teal accent.
func DefaultStyles() Styles {
	primary := lipgloss.AdaptiveColor{Light: "#505050", Dark: "#A0A0A0"} // main text
	subtle := lipgloss.AdaptiveColor{Light: "#888888", Dark: "#606060"}  // secondary text
	accent := lipgloss.AdaptiveColor{Light: "#4A7070", Dark: "#5F8787"}  // desaturated teal
	warn := lipgloss.AdaptiveColor{Light: "#8A5A44", Dark: "#AF875F"}

	return Styles{
		App: lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(2).
			PaddingRight(2),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),

		Status:   lipgloss.NewStyle().Foreground(primary),
		Recent:   lipgloss.NewStyle().Foreground(subtle),
		Category: lipgloss.NewStyle().Bold(true).Foreground(primary),
		Sub:      lipgloss.NewStyle().Foreground(primary),
		Fallback: lipgloss.NewStyle().Foreground(warn),
		Count:    lipgloss.NewStyle().Foreground(subtle),
		Branch:   lipgloss.NewStyle().Foreground(subtle),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(warn),

		Help: lipgloss.NewStyle().
			Foreground(subtle).
			Padding(1, 0),
	}
}

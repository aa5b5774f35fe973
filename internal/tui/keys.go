package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings of the progress view.
type KeyMap struct {
	Hide key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Hide: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "hide"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// helpLine renders the bindings as "key: desc" pairs.
func (k KeyMap) helpLine() string {
	var parts []string
	for _, b := range []key.Binding{k.Hide, k.Quit} {
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return strings.Join(parts, "  ")
}

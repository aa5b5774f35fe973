// Package tui renders a live view of a classification run.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	progressbar "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nikbrunner/bmsort/internal/classify"
	"github.com/nikbrunner/bmsort/internal/progress"
)

// recentLines is how many past statuses stay visible under the bar.
const recentLines = 4

// DoneMsg reports the end of the run to the view.
type DoneMsg struct {
	Root      string
	Summaries []classify.Summary
	Err       error
}

type eventMsg progress.Event

type eventsClosedMsg struct{}

// ProgressModel is the bubbletea model of a running classification.
type ProgressModel struct {
	styles Styles
	keys   KeyMap
	bar    progressbar.Model
	events <-chan progress.Event

	last   progress.Event
	recent []string
	width  int

	done   *DoneMsg
	hidden bool
}

// ProgressParams holds parameters for creating a new ProgressModel.
type ProgressParams struct {
	Events <-chan progress.Event
	Total  int
	Keys   *KeyMap // optional, uses default if nil
	Styles *Styles // optional, uses default if nil
}

// NewProgressModel creates a view fed by params.Events.
func NewProgressModel(params ProgressParams) ProgressModel {
	keys := DefaultKeyMap()
	if params.Keys != nil {
		keys = *params.Keys
	}

	styles := DefaultStyles()
	if params.Styles != nil {
		styles = *params.Styles
	}

	return ProgressModel{
		styles: styles,
		keys:   keys,
		bar:    progressbar.New(progressbar.WithDefaultGradient()),
		events: params.Events,
		last:   progress.Event{Total: params.Total, Status: "starting"},
		width:  80,
	}
}

// Init implements tea.Model.
func (m ProgressModel) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func waitForEvent(events <-chan progress.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(e)
	}
}

// Update implements tea.Model.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(max(msg.Width-8, 10), 60)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Hide) || key.Matches(msg, m.keys.Quit) {
			m.hidden = true
			return m, tea.Quit
		}
		return m, nil

	case eventMsg:
		e := progress.Event(msg)
		if e.Status != "" && e.Status != m.last.Status {
			m.recent = append(m.recent, m.last.Status)
			if len(m.recent) > recentLines {
				m.recent = m.recent[len(m.recent)-recentLines:]
			}
		}
		if e.Progress < m.last.Progress {
			e.Progress = m.last.Progress
		}
		m.last = e
		return m, waitForEvent(m.events)

	case eventsClosedMsg:
		return m, nil

	case DoneMsg:
		m.done = &msg
		m.last.Progress = 100
		m.last.Processed = m.last.Total
		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model.
func (m ProgressModel) View() string {
	var b strings.Builder
	inner := max(m.width-4, 20)

	b.WriteString(m.styles.Title.Render("Classifying bookmarks"))
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(m.last.Progress / 100))
	b.WriteString("\n")

	counter := fmt.Sprintf("%d/%d ", m.last.Processed, m.last.Total)
	b.WriteString(m.styles.Count.Render(counter))
	b.WriteString(m.styles.Status.Render(truncate(m.last.Status, inner-len(counter))))
	b.WriteString("\n")

	for _, r := range m.recent {
		b.WriteString(m.styles.Recent.Render(truncate(r, inner)))
		b.WriteString("\n")
	}

	switch {
	case m.done != nil && m.done.Err != nil:
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render("Error: " + m.done.Err.Error()))
		b.WriteString("\n")
	case m.done != nil:
		b.WriteString("\n")
		b.WriteString(RenderSummary(m.done.Root, m.done.Summaries, m.styles, inner))
		b.WriteString("\n")
	default:
		b.WriteString(m.styles.Help.Render(m.keys.helpLine()))
	}

	return m.styles.App.Render(b.String())
}

// Done reports whether the run finished while the view was open.
func (m ProgressModel) Done() bool {
	return m.done != nil
}

// Hidden reports whether the user dismissed the view before the run ended.
func (m ProgressModel) Hidden() bool {
	return m.hidden
}

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-orrery/internal/state"
)

// sparkRunes are the bar heights of the illumination sparkline.
var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// EventsModel lists recent simulation events with an illumination trace.
type EventsModel struct {
	width    int
	height   int
	snapshot state.Snapshot
}

// NewEventsModel creates an empty events view.
func NewEventsModel() EventsModel {
	return EventsModel{}
}

// SetSize updates the viewport size.
func (m EventsModel) SetSize(width, height int) EventsModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData updates the view with a state snapshot.
func (m EventsModel) UpdateData(s state.Snapshot) EventsModel {
	m.snapshot = s
	return m
}

// View renders the events view.
func (m EventsModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	timeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	var b strings.Builder
	b.WriteString(titleStyle.Render("Illumination"))
	b.WriteString("  ")
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("#d0c8ff")).Render(sparkline(m.snapshot.History, max(m.width-16, 10))))
	b.WriteString("\n\n")
	b.WriteString(titleStyle.Render("Events"))
	b.WriteString("\n")

	events := m.snapshot.Events
	if len(events) == 0 {
		b.WriteString(dimStyle.Render("  No events yet"))
		return b.String()
	}

	// Newest first, as many as fit.
	rows := max(m.height-4, 1)
	for i := len(events) - 1; i >= 0 && rows > 0; i-- {
		e := events[i]
		line := fmt.Sprintf("  %s  %s",
			timeStyle.Render(e.SimTime.UTC().Format("2006-01-02 15:04:05")),
			eventStyle(e.Type).Render(fmt.Sprintf("%-17s", e.Type)))
		if e.Detail != "" {
			line += "  " + dimStyle.Render(e.Detail)
		}
		b.WriteString(line)
		b.WriteString("\n")
		rows--
	}
	return strings.TrimRight(b.String(), "\n")
}

func eventStyle(t state.EventType) lipgloss.Style {
	var color string
	switch t {
	case state.EventNewMoon, state.EventFullMoon:
		color = "#d0c8ff"
	case state.EventEclipseAlignment:
		color = "220"
	default:
		color = "#9D4EDD"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(t == state.EventEclipseAlignment)
}

// sparkline renders the most recent width history samples, one rune each.
func sparkline(history []state.HistoryEntry, width int) string {
	if len(history) > width {
		history = history[len(history)-width:]
	}
	out := make([]rune, len(history))
	top := len(sparkRunes) - 1
	for i, h := range history {
		level := int(h.Illumination*float64(top) + 0.5)
		out[i] = sparkRunes[min(max(level, 0), top)]
	}
	return string(out)
}

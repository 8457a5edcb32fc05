package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/behave/internal/events"
)

const traceTailSize = 8

// TracePaneModel displays node evaluation counters and a tail of the
// most recent node resolutions.
type TracePaneModel struct {
	started   int
	resolved  int
	succeeded int
	failed    int
	tail      []string
	width     int
	height    int
	focused   bool
}

// NewTracePaneModel creates a new trace pane model.
func NewTracePaneModel() TracePaneModel {
	return TracePaneModel{}
}

// Update handles messages for the trace pane.
func (m TracePaneModel) Update(msg tea.Msg) (TracePaneModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case events.NodeStartedEvent:
		m.started++

	case events.NodeResolvedEvent:
		m.resolved++
		outcome := "✗"
		if msg.Result {
			m.succeeded++
			outcome = "✓"
		} else {
			m.failed++
		}

		name := msg.Label
		if name == "" {
			name = msg.Path
		}
		line := fmt.Sprintf("%s %s (%s)", outcome, name, msg.Kind)
		m.tail = append(m.tail, line)
		if len(m.tail) > traceTailSize {
			m.tail = m.tail[len(m.tail)-traceTailSize:]
		}
	}

	return m, nil
}

// View renders the trace pane.
func (m TracePaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder

	title := StyleTitle.Render("Node Trace")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", lipgloss.Width(title)))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Started:   %d\n", m.started))
	b.WriteString(fmt.Sprintf("Resolved:  %d\n", m.resolved))
	b.WriteString(fmt.Sprintf("Succeeded: %s\n", StyleSucceeded.Render(fmt.Sprintf("%d", m.succeeded))))
	b.WriteString(fmt.Sprintf("Failed:    %s\n", StyleFailed.Render(fmt.Sprintf("%d", m.failed))))

	b.WriteString("\n")

	// Progress bar of resolved vs started node evaluations
	if m.started > 0 {
		barWidth := min(m.width-4, 40)
		doneWidth := (m.resolved * barWidth) / m.started
		if doneWidth > barWidth {
			doneWidth = barWidth
		}
		pendingWidth := barWidth - doneWidth

		bar := StyleSucceeded.Render(strings.Repeat("=", max(0, doneWidth)))
		bar += StyleMuted.Render(strings.Repeat(".", max(0, pendingWidth)))

		b.WriteString(fmt.Sprintf("[%s]  %d/%d\n\n", bar, m.resolved, m.started))
	}

	for _, line := range m.tail {
		b.WriteString(line)
		b.WriteString("\n")
	}

	content := b.String()

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(content)
}

// SetSize updates the pane dimensions.
func (m *TracePaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused updates the focus state.
func (m *TracePaneModel) SetFocused(focused bool) {
	m.focused = focused
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

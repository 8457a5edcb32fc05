package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/behave/internal/events"
)

// RunState represents the state of a single scenario run.
type RunState struct {
	RunID     string
	Scenario  string
	Tree      string
	Status    string // "running", "succeeded", "failed", "aborted"
	Output    []string
	StartTime time.Time
	Duration  time.Duration
}

// RunPaneModel represents the run list and simulation log viewport pane.
type RunPaneModel struct {
	runs        map[string]*RunState // runID -> state
	runOrder    []string             // insertion order for display
	selectedIdx int                  // which run is selected in list
	viewport    viewport.Model       // scrollable log viewport
	width       int
	height      int
	focused     bool
	updateTag   int // for debouncing
}

// NewRunPaneModel creates a new run pane model.
func NewRunPaneModel() RunPaneModel {
	vp := viewport.New(0, 0)
	return RunPaneModel{
		runs:     make(map[string]*RunState),
		viewport: vp,
	}
}

// tickMsg is used for debouncing viewport updates.
type tickMsg struct {
	tag int
}

// Update handles messages for the run pane.
func (m RunPaneModel) Update(msg tea.Msg) (RunPaneModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()

	case tea.KeyMsg:
		if !m.focused {
			break
		}

		switch msg.String() {
		case KeyJ, KeyDown:
			if m.selectedIdx < len(m.runOrder)-1 {
				m.selectedIdx++
				m.updateViewportContent()
			}
		case KeyK, KeyUp:
			if m.selectedIdx > 0 {
				m.selectedIdx--
				m.updateViewportContent()
			}
		default:
			// Delegate other keys to viewport for scrolling
			m.viewport, cmd = m.viewport.Update(msg)
		}

	case events.RunStartedEvent:
		if _, exists := m.runs[msg.RunID]; !exists {
			m.runs[msg.RunID] = &RunState{
				RunID:     msg.RunID,
				Scenario:  msg.Scenario,
				Tree:      msg.Tree,
				Status:    "running",
				Output:    []string{fmt.Sprintf("tree %q, seed %d", msg.Tree, msg.Seed)},
				StartTime: msg.Timestamp,
			}
			m.runOrder = append(m.runOrder, msg.RunID)
			// Auto-select first run
			if len(m.runOrder) == 1 {
				m.selectedIdx = 0
				m.updateViewportContent()
			}
		}

	case events.SimLogEvent:
		if run, exists := m.runs[msg.RunID]; exists {
			run.Output = append(run.Output, msg.Line)
			// If this is the selected run, update viewport with debouncing
			if m.selectedRunID() == msg.RunID {
				m.updateTag++
				tag := m.updateTag
				return m, tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg {
					return tickMsg{tag: tag}
				})
			}
		}

	case events.RunFinishedEvent:
		if run, exists := m.runs[msg.RunID]; exists {
			run.Duration = msg.Duration
			switch {
			case msg.Aborted:
				run.Status = "aborted"
				run.Output = append(run.Output, fmt.Sprintf("\n[Aborted after %v: %v]", msg.Duration, msg.Err))
			case msg.Result:
				run.Status = "succeeded"
				run.Output = append(run.Output, fmt.Sprintf("\n[Succeeded in %v]", msg.Duration))
			default:
				run.Status = "failed"
				run.Output = append(run.Output, fmt.Sprintf("\n[Failed in %v]", msg.Duration))
			}
			if m.selectedRunID() == msg.RunID {
				m.updateViewportContent()
			}
		}

	case tickMsg:
		// Only update if this tick matches the current tag (debouncing)
		if msg.tag == m.updateTag {
			m.updateViewportContent()
		}
	}

	return m, cmd
}

// View renders the run pane.
func (m RunPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	// Split into two columns: run list (left) and viewport (right)
	listWidth := 25
	viewportWidth := m.width - listWidth - 4 // account for borders and padding

	listContent := m.renderRunList(listWidth)
	viewportContent := m.viewport.View()

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		listContent,
		lipgloss.NewStyle().
			Width(viewportWidth).
			Height(m.height-2).
			Render(viewportContent),
	)

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(content)
}

// renderRunList renders the run list column.
func (m RunPaneModel) renderRunList(width int) string {
	var b strings.Builder

	title := StyleTitle.Render("Runs")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", min(width, lipgloss.Width(title))))
	b.WriteString("\n\n")

	if len(m.runOrder) == 0 {
		b.WriteString(StyleMuted.Render("Waiting..."))
	} else {
		for i, runID := range m.runOrder {
			run := m.runs[runID]
			icon := m.StatusIcon(run.Status)
			name := run.Scenario
			if len(name) > width-6 {
				name = name[:width-9] + "..."
			}

			line := fmt.Sprintf("%s %s", icon, name)
			if i == m.selectedIdx {
				line = lipgloss.NewStyle().
					Background(lipgloss.Color("62")).
					Foreground(lipgloss.Color("0")).
					Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(m.height - 2).
		Render(b.String())
}

// StatusIcon returns a styled status indicator.
func (m RunPaneModel) StatusIcon(status string) string {
	switch status {
	case "running":
		return StyleRunning.Render("●")
	case "succeeded":
		return StyleSucceeded.Render("✓")
	case "failed":
		return StyleFailed.Render("✗")
	case "aborted":
		return StyleAborted.Render("✗")
	default:
		return StyleMuted.Render("○")
	}
}

// selectedRunID returns the run ID of the currently selected run.
func (m RunPaneModel) selectedRunID() string {
	if m.selectedIdx >= 0 && m.selectedIdx < len(m.runOrder) {
		return m.runOrder[m.selectedIdx]
	}
	return ""
}

// updateViewportContent updates the viewport with the selected run's log.
func (m *RunPaneModel) updateViewportContent() {
	runID := m.selectedRunID()
	if runID == "" {
		m.viewport.SetContent("Waiting for runs...")
		return
	}

	run, exists := m.runs[runID]
	if !exists {
		m.viewport.SetContent("Waiting for runs...")
		return
	}

	content := strings.Join(run.Output, "\n")
	m.viewport.SetContent(content)
	// Auto-scroll to bottom
	m.viewport.GotoBottom()
}

// resizeViewport resizes the viewport based on pane dimensions.
func (m *RunPaneModel) resizeViewport() {
	listWidth := 25
	viewportWidth := m.width - listWidth - 4
	viewportHeight := m.height - 4 // account for borders

	if viewportWidth < 10 {
		viewportWidth = 10
	}
	if viewportHeight < 5 {
		viewportHeight = 5
	}

	m.viewport.Width = viewportWidth
	m.viewport.Height = viewportHeight
}

// SetSize updates the pane dimensions.
func (m *RunPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.resizeViewport()
}

// SetFocused updates the focus state.
func (m *RunPaneModel) SetFocused(focused bool) {
	m.focused = focused
}

package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/behave/internal/config"
	"github.com/aristath/behave/internal/events"
)

// PaneID identifies which pane is focused.
type PaneID int

const (
	PaneRunList PaneID = iota
	PaneRunLog
	PaneTrace
)

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	runPane           RunPaneModel
	tracePane         TracePaneModel
	settingsPane      SettingsPaneModel
	focusedPane       PaneID
	eventSub          <-chan events.Event
	width             int
	height            int
	quitting          bool
	showSettings      bool
	config            *config.BehaveConfig
	globalConfigPath  string
	projectConfigPath string
}

// New creates a new TUI model.
// It subscribes to all events from the event bus using SubscribeAll.
func New(bus *events.Bus, cfg *config.BehaveConfig, globalPath, projectPath string) Model {
	return Model{
		runPane:           NewRunPaneModel(),
		tracePane:         NewTracePaneModel(),
		settingsPane:      NewSettingsPaneModel(cfg, globalPath, projectPath),
		focusedPane:       PaneRunList,
		eventSub:          bus.SubscribeAll(256),
		config:            cfg,
		globalConfigPath:  globalPath,
		projectConfigPath: projectPath,
	}
}

// Init initializes the model and returns the initial command.
func (m Model) Init() tea.Cmd {
	return waitForEvent(m.eventSub)
}

// waitForEvent returns a command that waits for the next event from the event bus.
func waitForEvent(sub <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-sub
		if !ok {
			return nil // bus closed
		}
		return event
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// If settings panel is open, route all keys to it (modal behavior)
		if m.showSettings {
			switch msg.String() {
			case KeySettings, "esc":
				m.showSettings = false
				m.settingsPane.SetVisible(false)
			default:
				var cmd tea.Cmd
				m.settingsPane, cmd = m.settingsPane.Update(msg)
				cmds = append(cmds, cmd)

				// Check if settings pane closed itself (after save)
				if !m.settingsPane.IsVisible() {
					m.showSettings = false
				}
			}
			return m, tea.Batch(cmds...)
		}

		switch msg.String() {
		case KeyQuit, KeyCtrlC:
			m.quitting = true
			return m, tea.Quit

		case KeySettings:
			m.showSettings = true
			m.settingsPane.SetVisible(true)
			cmds = append(cmds, m.settingsPane.Init())

		case KeyTab:
			m.focusedPane = (m.focusedPane + 1) % 3
			m.updateFocusStates()

		case KeyShiftTab:
			m.focusedPane = (m.focusedPane + 2) % 3 // +2 is equivalent to -1 mod 3
			m.updateFocusStates()

		case KeyPane1:
			m.focusedPane = PaneRunList
			m.updateFocusStates()

		case KeyPane2:
			m.focusedPane = PaneRunLog
			m.updateFocusStates()

		case KeyPane3:
			m.focusedPane = PaneTrace
			m.updateFocusStates()

		default:
			// Delegate to focused pane
			switch m.focusedPane {
			case PaneRunList, PaneRunLog:
				var cmd tea.Cmd
				m.runPane, cmd = m.runPane.Update(msg)
				cmds = append(cmds, cmd)
			case PaneTrace:
				var cmd tea.Cmd
				m.tracePane, cmd = m.tracePane.Update(msg)
				cmds = append(cmds, cmd)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.computeLayout()
		m.settingsPane.SetSize(msg.Width, msg.Height)

	case events.RunStartedEvent, events.SimLogEvent, events.RunFinishedEvent:
		// Forward run events to run pane
		var cmd tea.Cmd
		m.runPane, cmd = m.runPane.Update(msg)
		cmds = append(cmds, cmd)
		cmds = append(cmds, waitForEvent(m.eventSub))

	case events.NodeStartedEvent, events.NodeResolvedEvent:
		// Forward node events to trace pane
		var cmd tea.Cmd
		m.tracePane, cmd = m.tracePane.Update(msg)
		cmds = append(cmds, cmd)
		cmds = append(cmds, waitForEvent(m.eventSub))

	case tickMsg:
		// Debounce ticks belong to the run pane's viewport
		var cmd tea.Cmd
		m.runPane, cmd = m.runPane.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	// If settings panel is visible, render it as overlay
	if m.showSettings {
		return m.settingsPane.View()
	}

	leftPane := m.runPane.View()
	rightPane := m.tracePane.View()

	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)
	helpBar := HelpView()

	return lipgloss.JoinVertical(lipgloss.Left, mainContent, helpBar)
}

// computeLayout calculates pane dimensions and updates all child models.
func (m *Model) computeLayout() {
	leftWidth := (m.width * 60) / 100 // runs and log
	rightWidth := m.width - leftWidth // node trace
	availableHeight := m.height - 1   // reserve 1 line for help bar

	m.runPane.SetSize(leftWidth, availableHeight)
	m.tracePane.SetSize(rightWidth, availableHeight)

	m.updateFocusStates()
}

// updateFocusStates updates the focus state of all panes.
func (m *Model) updateFocusStates() {
	m.runPane.SetFocused(m.focusedPane == PaneRunList || m.focusedPane == PaneRunLog)
	m.tracePane.SetFocused(m.focusedPane == PaneTrace)
}

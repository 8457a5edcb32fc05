package tui

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/behave/internal/config"
)

// SettingsPaneModel manages the settings form overlay.
type SettingsPaneModel struct {
	form        *huh.Form
	config      *config.BehaveConfig
	globalPath  string
	projectPath string
	width       int
	height      int
	visible     bool
	saved       bool
	err         error

	// Form field bindings (strings for Huh)
	saveTarget   string
	parallelism  string
	runTimeoutMS string
	dbPath       string
	treesFile    string
	traceEnabled bool
}

// NewSettingsPaneModel creates a new settings pane.
func NewSettingsPaneModel(cfg *config.BehaveConfig, globalPath, projectPath string) SettingsPaneModel {
	m := SettingsPaneModel{
		config:      cfg,
		globalPath:  globalPath,
		projectPath: projectPath,

		saveTarget:   "global",
		parallelism:  strconv.Itoa(cfg.Runner.Parallelism),
		runTimeoutMS: strconv.Itoa(cfg.Runner.RunTimeoutMS),
		dbPath:       cfg.Runner.DBPath,
		treesFile:    cfg.Runner.TreesFile,
		traceEnabled: cfg.Trace.Enabled,
	}

	m.buildForm()
	return m
}

func validateInt(s string) error {
	if _, err := strconv.Atoi(s); err != nil {
		return fmt.Errorf("must be a number")
	}
	return nil
}

// buildForm constructs the Huh form with all settings fields.
func (m *SettingsPaneModel) buildForm() {
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("saveTarget").
				Title("Save To").
				Options(
					huh.NewOption("Global (~/.behave/config.json)", "global"),
					huh.NewOption("Project (.behave/config.json)", "project"),
				).
				Value(&m.saveTarget),
		).Title("Save Target"),

		huh.NewGroup(
			huh.NewInput().
				Key("parallelism").
				Title("Parallel Runs").
				Value(&m.parallelism).
				Validate(validateInt).
				Placeholder("4"),

			huh.NewInput().
				Key("runTimeoutMS").
				Title("Run Timeout (ms)").
				Value(&m.runTimeoutMS).
				Validate(validateInt).
				Placeholder("30000"),

			huh.NewInput().
				Key("dbPath").
				Title("Database Path").
				Value(&m.dbPath).
				Placeholder(".behave/behave.db"),

			huh.NewInput().
				Key("treesFile").
				Title("Tree Definitions File").
				Value(&m.treesFile).
				Placeholder(".behave/trees.json"),
		).Title("Runner Settings"),

		huh.NewGroup(
			huh.NewConfirm().
				Key("traceEnabled").
				Title("Node Trace").
				Affirmative("Enabled").
				Negative("Disabled").
				Value(&m.traceEnabled),
		).Title("Trace Settings"),
	)
}

// Init initializes the settings pane.
func (m SettingsPaneModel) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the settings pane.
func (m SettingsPaneModel) Update(msg tea.Msg) (SettingsPaneModel, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			// Cancel without saving
			m.visible = false
			m.saved = false
			return m, nil
		}
	}

	// Delegate to form
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	// Check if form is completed
	if m.form.State == huh.StateCompleted {
		m.applyFormToConfig()

		targetPath := m.globalPath
		if m.saveTarget == "project" {
			targetPath = m.projectPath
		}

		if err := config.Save(m.config, targetPath); err != nil {
			m.err = err
			m.saved = false
		} else {
			m.saved = true
			m.err = nil
		}

		// Hide form after successful save
		if m.saved {
			m.visible = false
		}
	}

	return m, cmd
}

// applyFormToConfig copies form field values back to the config struct.
func (m *SettingsPaneModel) applyFormToConfig() {
	if n, err := strconv.Atoi(m.parallelism); err == nil && n > 0 {
		m.config.Runner.Parallelism = n
	}
	if n, err := strconv.Atoi(m.runTimeoutMS); err == nil && n > 0 {
		m.config.Runner.RunTimeoutMS = n
	}
	if m.dbPath != "" {
		m.config.Runner.DBPath = m.dbPath
	}
	if m.treesFile != "" {
		m.config.Runner.TreesFile = m.treesFile
	}
	m.config.Trace.Enabled = m.traceEnabled
}

// View renders the settings pane.
func (m SettingsPaneModel) View() string {
	if !m.visible {
		return ""
	}

	var content string

	if m.saved && m.form.State == huh.StateCompleted {
		content = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true).
			Render("✓ Settings saved successfully!")
	} else if m.err != nil {
		content = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true).
			Render(fmt.Sprintf("✗ Error saving: %v", m.err))
	} else {
		content = m.form.View()
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(m.width - 4).
		Height(m.height - 4)

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		Render("⚙ Settings")

	body := style.Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, title, body)
}

// SetSize updates the dimensions of the settings pane.
func (m *SettingsPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	if m.form != nil {
		m.form.WithWidth(w - 8).WithHeight(h - 8)
	}
}

// SetVisible shows or hides the settings pane.
func (m *SettingsPaneModel) SetVisible(v bool) {
	m.visible = v
	m.saved = false
	m.err = nil

	// Reset form state when showing
	if v && m.form != nil {
		m.buildForm()
	}
}

// IsVisible returns whether the settings pane is currently visible.
func (m SettingsPaneModel) IsVisible() bool {
	return m.visible
}

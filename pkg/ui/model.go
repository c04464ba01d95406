package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rolltodo/pkg/api"
	"rolltodo/pkg/config"
	"rolltodo/pkg/keymaps"
	"rolltodo/pkg/state"
)

// InputMode represents the current input mode
type InputMode int

const (
	LoginMode InputMode = iota
	NormalMode
	AddMode
	DeleteConfirmMode
	HelpViewMode
)

// Model represents the application state
type Model struct {
	mgr *state.Manager
	ctx context.Context

	table         table.Model
	spinner       spinner.Model
	width, height int
	err           error
	status        string

	// Last state published by the manager
	snap state.State

	// rows maps table rows to positions in snap.Tasks
	rows []int

	// Configuration
	config config.Config
	styles config.Styles
	keyMap keymaps.KeyMap

	taskFilter state.Filter

	// Form state
	mode          InputMode
	registering   bool
	rollInput     textinput.Model
	passwordInput textinput.Model
	taskInput     textinput.Model
	dateInput     textinput.Model
	timeInput     textinput.Model
	activeInput   int

	// Delete confirmation target
	deleting *api.Task

	// Alerts wait here until acknowledged, oldest first
	alerts []state.Alert

	celebrating  bool
	celebrateSeq int
}

// NewModel creates a new UI model with the provided configuration
func NewModel(ctx context.Context, mgr *state.Manager, cfg config.Config, styles config.Styles) Model {
	// Create an empty column - the title will be empty to avoid showing a header
	columns := []table.Column{
		{Title: "", Width: 60},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	rollInput := textinput.New()
	rollInput.Placeholder = "Roll number"
	rollInput.Focus()
	rollInput.Width = 30

	passwordInput := textinput.New()
	passwordInput.Placeholder = "Password"
	passwordInput.EchoMode = textinput.EchoPassword
	passwordInput.EchoCharacter = '•'
	passwordInput.Width = 30

	taskInput := textinput.New()
	taskInput.Placeholder = "What needs to be done?"
	taskInput.Width = 40

	dateInput := textinput.New()
	dateInput.Placeholder = "Date (YYYY-MM-DD, optional)"
	dateInput.Width = 40

	timeInput := textinput.New()
	timeInput.Placeholder = "Time (HH:MM, optional)"
	timeInput.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		mgr:           mgr,
		ctx:           ctx,
		table:         t,
		spinner:       sp,
		snap:          mgr.Snapshot(),
		config:        cfg,
		styles:        styles,
		keyMap:        keymaps.BuildKeyMap(cfg.KeyMap),
		taskFilter:    state.AllTasks,
		mode:          LoginMode,
		rollInput:     rollInput,
		passwordInput: passwordInput,
		taskInput:     taskInput,
		dateInput:     dateInput,
		timeInput:     timeInput,
	}
	m.applyStyles()
	m.syncMode()
	m.refreshRows()

	return m
}

// Init restores the cached session (required by Bubble Tea Model interface)
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.run(opRestore, m.mgr.Restore),
	)
}

// palette resolves the colors for the current preferences.
func (m Model) palette() config.Palette {
	return m.styles.Palette(string(m.snap.Prefs.Theme), m.snap.Prefs.DarkMode)
}

// applyStyles restyles the widgets after a preference change.
func (m *Model) applyStyles() {
	p := m.palette()

	s := table.DefaultStyles()
	// Remove the header border and styling to make it invisible
	s.Header = s.Header.
		BorderStyle(lipgloss.HiddenBorder()).
		BorderBottom(false).
		Bold(false).
		Foreground(lipgloss.NoColor{})
	s.Cell = s.Cell.Foreground(lipgloss.Color(p.Text))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(p.SelectedFg)).
		Background(lipgloss.Color(p.SelectedBg)).
		Bold(true)
	m.table.SetStyles(s)

	m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(p.Accent))
}

// resetLoginInputs clears the login form
func (m *Model) resetLoginInputs() {
	m.rollInput.Reset()
	m.passwordInput.Reset()
	m.activeInput = 0
	m.rollInput.Focus()
	m.passwordInput.Blur()
}

// resetTaskInputs clears the add form
func (m *Model) resetTaskInputs() {
	m.taskInput.Reset()
	m.dateInput.Reset()
	m.timeInput.Reset()
	m.activeInput = 0
	m.taskInput.Focus()
	m.dateInput.Blur()
	m.timeInput.Blur()
}

// syncMode follows the session: the login screen while logged out, the task
// list once logged in.
func (m *Model) syncMode() {
	loggedIn := m.snap.Session.LoggedIn()
	switch {
	case loggedIn && m.mode == LoginMode:
		m.mode = NormalMode
		m.resetLoginInputs()
	case !loggedIn && m.mode != LoginMode:
		m.mode = LoginMode
		m.deleting = nil
		m.resetLoginInputs()
	}
}

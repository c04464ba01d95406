package ui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"rolltodo/pkg/state"
	"rolltodo/pkg/utils"
)

// Errors the manager reports without raising an alert.
var inlineErrors = []error{
	state.ErrBusy,
	state.ErrNotLoggedIn,
	state.ErrInvalidState,
	state.ErrEmptyTask,
	state.ErrMissingLogin,
	state.ErrInvalidDate,
	state.ErrInvalidTime,
	state.ErrUnknownTheme,
}

func inline(err error) bool {
	for _, target := range inlineErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		// Pending alerts are modal
		if len(m.alerts) > 0 {
			switch msg.String() {
			case "enter", "esc", " ":
				m.alerts = m.alerts[1:]
			}
			return m, nil
		}
		return m.handleKey(msg)

	case stateMsg:
		cmds = append(cmds, m.handleState(msg))

	case opDoneMsg:
		m.reportError(string(msg.op), msg.err)

	case loginDoneMsg:
		m.reportError("login", msg.err)

	case registerDoneMsg:
		m.reportError("register", msg.err)
		if msg.err == nil && msg.result.OK() {
			m.registering = false
			m.passwordInput.Reset()
			m.focusInput(1)
		}

	case celebrationDoneMsg:
		if msg.seq == m.celebrateSeq {
			m.celebrating = false
		}

	case copiedMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.status = "Copied: " + msg.text
		}

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetWidth(msg.Width - 4)
		m.table.SetHeight(max(msg.Height-8, 3))
	}

	switch m.mode {
	case LoginMode, AddMode:
		cmds = append(cmds, m.updateInput(msg))
	case NormalMode:
		m.table, cmd = m.table.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// reportError shows local precondition failures inline. Store failures are
// already on screen as alerts.
func (m *Model) reportError(op string, err error) {
	if err == nil {
		return
	}
	if inline(err) {
		m.err = err
		return
	}
	utils.Debug("operation failed", "op", op, "error", err)
}

// handleState applies a manager notification
func (m *Model) handleState(msg stateMsg) tea.Cmd {
	var cmd tea.Cmd

	selectedID := ""
	if t, _, ok := m.selected(); ok {
		selectedID = t.ID
	}

	m.snap = msg.state
	switch e := msg.event.(type) {
	case state.Alert:
		m.alerts = append(m.alerts, e)
	case state.Celebration:
		m.celebrateSeq++
		m.celebrating = true
		cmd = celebrate(m.celebrateSeq)
	case state.InputsCleared:
		m.resetTaskInputs()
	case state.PreferencesChanged:
		m.applyStyles()
	case state.SessionEnded:
		m.taskFilter = state.AllTasks
		m.status = ""
	}

	m.syncMode()
	m.refreshRows()
	if selectedID != "" {
		m.followTask(selectedID)
	}
	return cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case LoginMode:
		return m.handleLoginKey(msg)
	case NormalMode:
		return m.handleNormalKey(msg)
	case AddMode:
		return m.handleAddKey(msg)

	case DeleteConfirmMode:
		// Handle delete confirmation
		switch msg.String() {
		case "y", "Y":
			var cmd tea.Cmd
			if m.deleting != nil {
				id, mgr := m.deleting.ID, m.mgr
				utils.Debug("deleting task", "task_id", id)
				cmd = m.run(opDelete, func(ctx context.Context) error {
					return mgr.Delete(ctx, id)
				})
			}
			m.mode = NormalMode
			m.deleting = nil
			return m, cmd

		case "n", "N", "esc":
			m.mode = NormalMode
			m.deleting = nil
		}

	case HelpViewMode:
		if msg.String() == "esc" || key.Matches(msg, m.keyMap.ShowHelp) {
			m.mode = NormalMode
		}
	}
	return m, nil
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	mgr := m.mgr

	switch {
	case msg.String() == "esc":
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.ToggleRegister):
		m.registering = !m.registering
		m.err = nil
		return m, nil

	case msg.String() == "ctrl+t":
		next := string(m.snap.Prefs.Theme.Next())
		return m, m.run(opTheme, func(context.Context) error { return mgr.SetTheme(next) })

	case msg.String() == "ctrl+n":
		return m, m.run(opDarkMode, func(context.Context) error { return mgr.ToggleDarkMode() })

	case msg.String() == "tab", msg.String() == "down":
		m.focusNextInput()
		return m, nil

	case msg.String() == "shift+tab", msg.String() == "up":
		m.focusPreviousInput()
		return m, nil

	case msg.String() == "enter":
		if m.snap.Busy {
			return m, nil
		}
		if m.activeInput == 0 {
			m.focusNextInput()
			return m, nil
		}
		return m, m.submitLogin()
	}

	return m, m.updateInput(msg)
}

func (m Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	mgr := m.mgr
	m.status = ""

	switch {
	case key.Matches(msg, m.keyMap.ShowHelp):
		m.mode = HelpViewMode

	case key.Matches(msg, m.keyMap.QuitApp):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.ToggleStatus):
		if t, _, ok := m.selected(); ok {
			id := t.ID
			return m, m.run(opToggle, func(ctx context.Context) error {
				return mgr.Toggle(ctx, id)
			})
		}

	case key.Matches(msg, m.keyMap.AddTask):
		m.mode = AddMode
		m.err = nil
		m.resetTaskInputs()

	case key.Matches(msg, m.keyMap.DeleteTask):
		if t, _, ok := m.selected(); ok {
			m.mode = DeleteConfirmMode
			m.deleting = &t
		}

	case key.Matches(msg, m.keyMap.MoveUp), key.Matches(msg, m.keyMap.MoveDown):
		_, i, ok := m.selected()
		if !ok {
			return m, nil
		}
		if m.taskFilter != state.AllTasks {
			m.status = "Clear the filter to reorder tasks"
			return m, nil
		}
		move := mgr.MoveDown
		if key.Matches(msg, m.keyMap.MoveUp) {
			move = mgr.MoveUp
		}
		return m, m.run(opMove, func(ctx context.Context) error {
			return move(ctx, i)
		})

	case key.Matches(msg, m.keyMap.Refresh):
		return m, m.run(opLoad, mgr.Load)

	case key.Matches(msg, m.keyMap.Logout):
		return m, m.run(opLogout, func(context.Context) error { return mgr.Logout() })

	case key.Matches(msg, m.keyMap.ToggleDarkMode):
		return m, m.run(opDarkMode, func(context.Context) error { return mgr.ToggleDarkMode() })

	case key.Matches(msg, m.keyMap.CycleTheme):
		next := string(m.snap.Prefs.Theme.Next())
		return m, m.run(opTheme, func(context.Context) error { return mgr.SetTheme(next) })

	case key.Matches(msg, m.keyMap.CopyTask):
		if t, _, ok := m.selected(); ok {
			return m, copyTask(t)
		}

	case key.Matches(msg, m.keyMap.ShowDoneTasks):
		m.toggleFilter(state.DoneTasks)

	case key.Matches(msg, m.keyMap.ShowUndoneTasks):
		m.toggleFilter(state.UndoneTasks)

	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = NormalMode
		m.err = nil
		m.resetTaskInputs()
		return m, nil

	case "tab":
		m.focusNextInput()
		return m, nil

	case "shift+tab":
		m.focusPreviousInput()
		return m, nil

	case "enter":
		// Submit on enter from the last field
		if m.activeInput == 2 {
			return m, m.submitForm()
		}
		m.focusNextInput()
		return m, nil
	}

	return m, m.updateInput(msg)
}

package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rolltodo/pkg/api"
	"rolltodo/pkg/state"
	"rolltodo/pkg/utils"
)

// How long the completion celebration stays on screen.
const celebrationTime = 3 * time.Second

type operation string

const (
	opRestore  operation = "restore"
	opLoad     operation = "load"
	opAdd      operation = "add"
	opDelete   operation = "delete"
	opToggle   operation = "toggle"
	opMove     operation = "move"
	opLogout   operation = "logout"
	opTheme    operation = "theme"
	opDarkMode operation = "dark mode"
)

// stateMsg carries a manager notification into the event loop.
type stateMsg struct {
	event state.Event
	state state.State
}

// opDoneMsg reports the end of a manager call.
type opDoneMsg struct {
	op  operation
	err error
}

type loginDoneMsg struct {
	result api.LoginResult
	err    error
}

type registerDoneMsg struct {
	result api.RegisterResult
	err    error
}

type celebrationDoneMsg struct{ seq int }

type copiedMsg struct {
	text string
	err  error
}

// Forward returns an observer that hands every notification to send, usually
// a tea.Program's Send.
func Forward(send func(tea.Msg)) state.Observer {
	return func(e state.Event, s state.State) {
		send(stateMsg{event: e, state: s})
	}
}

// run executes a manager call off the event loop.
func (m Model) run(op operation, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m Model) login(roll, password string) tea.Cmd {
	ctx, mgr := m.ctx, m.mgr
	return func() tea.Msg {
		res, err := mgr.Login(ctx, roll, password)
		return loginDoneMsg{result: res, err: err}
	}
}

func (m Model) register(roll, password string) tea.Cmd {
	ctx, mgr := m.ctx, m.mgr
	return func() tea.Msg {
		res, err := mgr.Register(ctx, roll, password)
		return registerDoneMsg{result: res, err: err}
	}
}

func celebrate(seq int) tea.Cmd {
	return tea.Tick(celebrationTime, func(time.Time) tea.Msg {
		return celebrationDoneMsg{seq: seq}
	})
}

func copyTask(t api.Task) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{text: t.Text, err: clipboard.WriteAll(t.Text)}
	}
}

// refreshRows rebuilds the table from the snapshot and the active filter
func (m *Model) refreshRows() {
	m.rows = m.snap.Visible(m.taskFilter)

	tableRows := make([]table.Row, 0, len(m.rows))
	for _, i := range m.rows {
		tableRows = append(tableRows, table.Row{m.formatTask(m.snap.Tasks[i])})
	}
	m.table.SetRows(tableRows)

	if c := m.table.Cursor(); c >= len(tableRows) && len(tableRows) > 0 {
		m.table.SetCursor(len(tableRows) - 1)
	}
}

// formatTask renders one table row
func (m Model) formatTask(t api.Task) string {
	status := "[ ]"
	if t.Completed {
		status = "[x]"
	}

	text := t.Text
	if t.Completed {
		text = lipgloss.NewStyle().Strikethrough(true).Render(text)
	}

	var when []string
	if t.Date != "" {
		when = append(when, t.Date)
	}
	if t.Time != "" {
		when = append(when, t.Time)
	}
	if len(when) == 0 {
		return fmt.Sprintf("%s %s", status, text)
	}

	due := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.palette().Muted)).
		Render(strings.Join(when, " "))
	return fmt.Sprintf("%s %s  %s", status, text, due)
}

// selected returns the task under the cursor and its index in snap.Tasks
func (m Model) selected() (api.Task, int, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.rows) {
		return api.Task{}, -1, false
	}
	i := m.rows[c]
	return m.snap.Tasks[i], i, true
}

// followTask keeps the cursor on id after the rows changed
func (m *Model) followTask(id string) {
	for row, i := range m.rows {
		if m.snap.Tasks[i].ID == id {
			m.table.SetCursor(row)
			return
		}
	}
}

func (m *Model) inputs() []*textinput.Model {
	if m.mode == LoginMode {
		return []*textinput.Model{&m.rollInput, &m.passwordInput}
	}
	return []*textinput.Model{&m.taskInput, &m.dateInput, &m.timeInput}
}

// focusInput moves focus to the input at position i, wrapping around
func (m *Model) focusInput(i int) {
	inputs := m.inputs()
	n := len(inputs)
	m.activeInput = ((i % n) + n) % n
	for j, in := range inputs {
		if j == m.activeInput {
			in.Focus()
		} else {
			in.Blur()
		}
	}
}

// focusNextInput cycles through the form inputs
func (m *Model) focusNextInput() {
	m.focusInput(m.activeInput + 1)
}

// focusPreviousInput cycles through the form inputs
func (m *Model) focusPreviousInput() {
	m.focusInput(m.activeInput - 1)
}

// updateInput forwards msg to the focused input
func (m *Model) updateInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	inputs := m.inputs()
	if m.activeInput < len(inputs) {
		in := inputs[m.activeInput]
		*in, cmd = in.Update(msg)
	}
	return cmd
}

// submitLogin validates the login form before handing it to the manager
func (m *Model) submitLogin() tea.Cmd {
	roll := strings.TrimSpace(m.rollInput.Value())
	password := m.passwordInput.Value()
	if roll == "" || password == "" {
		m.err = state.ErrMissingLogin
		return nil
	}

	m.err = nil
	if m.registering {
		utils.Info("registering", "roll_number", roll)
		return m.register(roll, password)
	}
	utils.Info("logging in", "roll_number", roll)
	return m.login(roll, password)
}

// submitForm validates the add form before handing it to the manager
func (m *Model) submitForm() tea.Cmd {
	text, date, clock, err := state.ValidateTask(m.taskInput.Value(), m.dateInput.Value(), m.timeInput.Value())
	if err != nil {
		m.err = err
		return nil
	}

	m.err = nil
	m.mode = NormalMode
	mgr := m.mgr
	return m.run(opAdd, func(ctx context.Context) error {
		return mgr.Add(ctx, text, date, clock)
	})
}

// toggleFilter switches between f and no filter
func (m *Model) toggleFilter(f state.Filter) {
	if m.taskFilter == f {
		m.taskFilter = state.AllTasks
	} else {
		m.taskFilter = f
	}
	m.refreshRows()
}

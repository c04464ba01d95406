package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// View renders the UI based on the current mode
func (m Model) View() string {
	var sb strings.Builder
	p := m.palette()

	switch m.mode {
	case LoginMode:
		title := " Login "
		if m.registering {
			title = " Register "
		}
		sb.WriteString(m.titleBar(title, p.Accent))
		sb.WriteString("\n\n")
		sb.WriteString(m.renderLogin())

	case NormalMode:
		sb.WriteString(m.titleBar(" Todo List · "+m.snap.Session.Identity+" ", p.Accent))
		if m.snap.Busy {
			sb.WriteString(" " + m.spinner.View())
		}
		sb.WriteString("\n\n")

		if len(m.rows) == 0 {
			sb.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(p.Muted)).
				Render("No tasks yet. Press " + m.keyMap.AddTask.Help().Key + " to add one."))
			sb.WriteString("\n")
		} else {
			sb.WriteString(m.table.View())
			sb.WriteString("\n")
		}

		pending, completed := m.snap.Counts()
		info := fmt.Sprintf("Pending: %d | Completed: %d (%s) | theme: %s",
			pending, completed, m.taskFilter, m.snap.Prefs.Theme)
		if m.snap.Prefs.DarkMode {
			info += ", dark"
		}
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(p.Text)).Render(info))
		sb.WriteString("\n")

		if m.celebrating {
			sb.WriteString(lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color(p.Success)).
				Render("🎉 Well done! Task completed."))
			sb.WriteString("\n")
		}
		if m.status != "" {
			sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(p.Muted)).Render(m.status))
			sb.WriteString("\n")
		}

	case AddMode:
		sb.WriteString(m.titleBar(" Add New Task ", p.Accent))
		sb.WriteString("\n\n")
		sb.WriteString(m.renderForm())
		if m.snap.Busy {
			sb.WriteString("\n\n" + m.spinner.View() + " saving")
		}

	case DeleteConfirmMode:
		sb.WriteString(m.titleBar(" Delete Task ", p.Error))
		sb.WriteString("\n\n")

		if m.deleting != nil {
			sb.WriteString("Are you sure you want to delete this task?\n\n")
			sb.WriteString(fmt.Sprintf("Task: %s\n", m.deleting.Text))
			if m.deleting.Date != "" {
				sb.WriteString(fmt.Sprintf("Due: %s %s\n", m.deleting.Date, m.deleting.Time))
			}
			sb.WriteString("\n")
			sb.WriteString(lipgloss.NewStyle().Bold(true).Render("Press Y to confirm, N to cancel"))
		}

	case HelpViewMode:
		sb.WriteString(m.renderHelp())
	}

	if len(m.alerts) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(m.renderAlert())
	}

	// Error message if any
	if m.err != nil {
		sb.WriteString("\n\n")
		sb.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Error)).
			Render(fmt.Sprintf("Error: %v", m.err)))
	}

	// Add help status bar at the bottom
	sb.WriteString("\n")
	sb.WriteString(m.helpBar())

	if p.Background == "" {
		return sb.String()
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(p.Background)).
		Foreground(lipgloss.Color(p.Text)).
		Width(m.width).
		Render(sb.String())
}

func (m Model) titleBar(text, bg string) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(m.palette().SelectedFg)).
		Background(lipgloss.Color(bg)).
		Padding(0, 1).
		Render(text)
}

// renderLogin renders the login and registration form
func (m Model) renderLogin() string {
	var sb strings.Builder

	sb.WriteString("Roll number:\n")
	sb.WriteString(m.rollInput.View())
	sb.WriteString("\n\n")

	sb.WriteString("Password:\n")
	sb.WriteString(m.passwordInput.View())
	sb.WriteString("\n\n")

	switch {
	case m.snap.Busy && m.registering:
		sb.WriteString(m.spinner.View() + " creating account")
	case m.snap.Busy:
		sb.WriteString(m.spinner.View() + " logging in")
	case m.registering:
		sb.WriteString("Already registered? Press " + m.keyMap.ToggleRegister.Help().Key + " to log in.")
	default:
		sb.WriteString("New here? Press " + m.keyMap.ToggleRegister.Help().Key + " to register.")
	}

	return sb.String()
}

// renderForm renders the input form for adding tasks
func (m Model) renderForm() string {
	var sb strings.Builder

	sb.WriteString("Task:\n")
	sb.WriteString(m.taskInput.View())
	sb.WriteString("\n\n")

	sb.WriteString("Date (YYYY-MM-DD):\n")
	sb.WriteString(m.dateInput.View())
	sb.WriteString("\n\n")

	sb.WriteString("Time (HH:MM):\n")
	sb.WriteString(m.timeInput.View())

	return sb.String()
}

// renderAlert shows the oldest unacknowledged alert
func (m Model) renderAlert() string {
	p := m.palette()
	a := m.alerts[0]

	color := p.Accent
	if a.Failure {
		color = p.Error
	}

	var body strings.Builder
	if a.Title != "" {
		body.WriteString(lipgloss.NewStyle().Bold(true).Render(a.Title))
		body.WriteString("\n")
	}
	body.WriteString(a.Message)
	body.WriteString("\n\n")
	hint := "enter to dismiss"
	if n := len(m.alerts) - 1; n > 0 {
		hint = fmt.Sprintf("%s (%d more)", hint, n)
	}
	body.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(p.Muted)).Render(hint))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(color)).
		Padding(0, 1).
		Render(body.String())
}

// renderHelp renders the fullscreen list of key bindings
func (m Model) renderHelp() string {
	var sb strings.Builder
	p := m.palette()

	sb.WriteString(lipgloss.NewStyle().Bold(true).Render("Available Commands"))
	sb.WriteString("\n\n")

	// Define a style for command keys
	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(p.Accent)).
		Bold(true)

	// Define a style for command descriptions
	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(p.Text))

	addCommand := func(binding key.Binding) {
		sb.WriteString(fmt.Sprintf("%s: %s\n",
			descStyle.Render(binding.Help().Desc),
			keyStyle.Render(binding.Help().Key)))
	}

	addCommand(m.keyMap.QuitApp)
	addCommand(m.keyMap.ShowHelp)
	addCommand(m.keyMap.ToggleStatus)
	addCommand(m.keyMap.AddTask)
	addCommand(m.keyMap.DeleteTask)
	addCommand(m.keyMap.CopyTask)
	addCommand(m.keyMap.Refresh)
	addCommand(m.keyMap.ShowDoneTasks)
	addCommand(m.keyMap.ShowUndoneTasks)

	sb.WriteString("\n")
	sb.WriteString(lipgloss.NewStyle().Bold(true).Render("Ordering"))
	sb.WriteString("\n\n")
	addCommand(m.keyMap.MoveUp)
	addCommand(m.keyMap.MoveDown)

	sb.WriteString("\n")
	sb.WriteString(lipgloss.NewStyle().Bold(true).Render("Session and Appearance"))
	sb.WriteString("\n\n")
	addCommand(m.keyMap.Logout)
	addCommand(m.keyMap.CycleTheme)
	addCommand(m.keyMap.ToggleDarkMode)

	return sb.String()
}

// helpBar renders a sleek status bar with available actions
func (m Model) helpBar() string {
	var actions []string
	p := m.palette()

	// Define styles for keys and descriptions
	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(p.Accent)).
		Bold(true)
	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(p.Text))
	separatorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(p.Border))

	separator := separatorStyle.Render(" • ")

	addAction := func(k, desc string) {
		actions = append(actions, fmt.Sprintf("%s %s", keyStyle.Render(k), descStyle.Render(desc)))
	}
	addBinding := func(b key.Binding, desc string) {
		addAction(b.Help().Key, desc)
	}

	if len(m.alerts) > 0 {
		addAction("enter", "dismiss")
		return strings.Join(actions, separator)
	}

	switch m.mode {
	case LoginMode:
		addAction("tab", "next field")
		addAction("enter", "submit")
		addBinding(m.keyMap.ToggleRegister, "login/register")
		addAction("ctrl+t", "theme")
		addAction("ctrl+n", "dark")
		addAction("esc", "quit")

	case NormalMode:
		addBinding(m.keyMap.AddTask, "add")
		addBinding(m.keyMap.DeleteTask, "del")
		addBinding(m.keyMap.ToggleStatus, "toggle")
		addAction(m.keyMap.MoveUp.Help().Key+"/"+m.keyMap.MoveDown.Help().Key, "move")
		addBinding(m.keyMap.Refresh, "refresh")
		addBinding(m.keyMap.Logout, "logout")
		addBinding(m.keyMap.ShowHelp, "help")
		addBinding(m.keyMap.QuitApp, "quit")

	case AddMode:
		addAction("tab", "next field")
		addAction("enter", "save")
		addAction("esc", "cancel")

	case DeleteConfirmMode:
		addAction("y", "confirm")
		addAction("n", "cancel")

	case HelpViewMode:
		addAction(m.keyMap.ShowHelp.Help().Key+"/esc", "back")
	}

	return strings.Join(actions, separator)
}

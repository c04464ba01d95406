// Package state owns the client view of a user's task list: the session, the
// ordered task cache and the display preferences.
//
// State only changes through Reduce. A Manager applies events produced by
// calls to the Task Store and notifies observers with the resulting state.
package state

import (
	"fmt"
	"strings"

	"rolltodo/pkg/api"
)

// SessionStatus is the session state machine:
// LoggedOut -> LoggingIn -> LoggedIn -> LoggedOut, and LoggingIn -> LoggedOut
// when the credential check fails.
type SessionStatus int

const (
	LoggedOut SessionStatus = iota
	LoggingIn
	LoggedIn
)

func (s SessionStatus) String() string {
	switch s {
	case LoggingIn:
		return "logging in"
	case LoggedIn:
		return "logged in"
	default:
		return "logged out"
	}
}

// Session identifies the current user.
type Session struct {
	Identity string
	Status   SessionStatus
}

// LoggedIn reports whether task operations are permitted.
func (s Session) LoggedIn() bool {
	return s.Status == LoggedIn && s.Identity != ""
}

// Active reports whether identity is the logged-in user.
func (s Session) Active(identity string) bool {
	return s.LoggedIn() && s.Identity == identity
}

// Theme is one of a fixed set of colour themes.
type Theme string

const (
	ThemeDefault Theme = "default"
	ThemeBlue    Theme = "blue"
	ThemeGreen   Theme = "green"
	ThemePink    Theme = "pink"
)

// Themes lists the selectable themes in menu order.
var Themes = []Theme{ThemeDefault, ThemeBlue, ThemeGreen, ThemePink}

// ParseTheme validates a theme name.
func ParseTheme(name string) (Theme, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, t := range Themes {
		if string(t) == name {
			return t, nil
		}
	}
	return ThemeDefault, fmt.Errorf("%w: %q (choose one of default, blue, green, pink)", ErrUnknownTheme, name)
}

// Next returns the theme after t, wrapping around.
func (t Theme) Next() Theme {
	for i, th := range Themes {
		if th == t {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return ThemeDefault
}

// Preferences are cosmetic settings persisted in local storage.
type Preferences struct {
	Theme    Theme
	DarkMode bool
}

// State is the whole application state.
type State struct {
	Session Session

	// Tasks is a projection of the store's collection, replaced by every
	// successful load.
	Tasks []api.Task

	// Busy is set while login, registration, load, add or delete run.
	Busy bool

	Prefs Preferences
}

// Initial returns the state at program start.
func Initial() State {
	return State{Prefs: Preferences{Theme: ThemeDefault}}
}

// Counts returns the number of pending and completed tasks.
func (s State) Counts() (pending, completed int) {
	for _, t := range s.Tasks {
		if t.Completed {
			completed++
		} else {
			pending++
		}
	}
	return pending, completed
}

// IndexOf returns the position of the task with id, or -1.
func (s State) IndexOf(id string) int {
	for i, t := range s.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// TaskIDs returns the ids in display order.
func (s State) TaskIDs() []string {
	ids := make([]string, len(s.Tasks))
	for i, t := range s.Tasks {
		ids[i] = t.ID
	}
	return ids
}

func (s State) clone() State {
	s.Tasks = cloneTasks(s.Tasks)
	return s
}

func cloneTasks(tasks []api.Task) []api.Task {
	if tasks == nil {
		return nil
	}
	out := make([]api.Task, len(tasks))
	copy(out, tasks)
	return out
}

// Event is anything dispatched through a Manager. Events that change state
// are handled by Reduce; notices pass through unchanged to observers.
type Event interface {
	event()
}

type (
	// SessionRestored marks a session recovered from local storage.
	SessionRestored struct{ Identity string }

	// LoginStarted moves LoggedOut to LoggingIn and raises the busy flag.
	LoginStarted struct{ Identity string }

	// LoginSucceeded moves LoggingIn to LoggedIn.
	LoginSucceeded struct{ Identity string }

	// LoginRejected moves LoggingIn back to LoggedOut.
	LoginRejected struct{}

	// SessionEnded clears the session and the task cache.
	SessionEnded struct{}

	BusyChanged struct{ Busy bool }

	// TasksLoaded replaces the cache with a fetched collection.
	TasksLoaded struct {
		Identity string
		Tasks    []api.Task
	}

	// TaskToggled flips a task's completion flag after the store acked it.
	TaskToggled struct {
		Identity string
		ID       string
	}

	// TasksSwapped exchanges two positions of the cache.
	TasksSwapped struct{ I, J int }

	PreferencesChanged struct{ Prefs Preferences }
)

// Notices carry no state change.
type (
	// Alert is a message the user must acknowledge.
	Alert struct {
		Title   string
		Message string
		Failure bool
	}

	// Celebration fires once per toggle into the completed state.
	Celebration struct{ TaskID string }

	// InputsCleared asks the view to reset the add-task inputs.
	InputsCleared struct{}
)

func (SessionRestored) event()    {}
func (LoginStarted) event()       {}
func (LoginSucceeded) event()     {}
func (LoginRejected) event()      {}
func (SessionEnded) event()       {}
func (BusyChanged) event()        {}
func (TasksLoaded) event()        {}
func (TaskToggled) event()        {}
func (TasksSwapped) event()       {}
func (PreferencesChanged) event() {}
func (Alert) event()              {}
func (Celebration) event()        {}
func (InputsCleared) event()      {}

func (a Alert) String() string {
	if a.Title == "" {
		return a.Message
	}
	return a.Title + ": " + a.Message
}

// Reduce returns the state after e. It never mutates s.
func Reduce(s State, e Event) State {
	s = s.clone()

	switch e := e.(type) {
	case SessionRestored:
		if e.Identity == "" {
			return s
		}
		s.Session = Session{Identity: e.Identity, Status: LoggedIn}
		s.Tasks = nil

	case LoginStarted:
		if s.Session.Status != LoggedOut {
			return s
		}
		s.Session = Session{Identity: e.Identity, Status: LoggingIn}
		s.Busy = true

	case LoginSucceeded:
		if s.Session.Status != LoggingIn || s.Session.Identity != e.Identity {
			return s
		}
		s.Session.Status = LoggedIn
		s.Tasks = nil

	case LoginRejected:
		if s.Session.Status == LoggingIn {
			s.Session = Session{Status: LoggedOut}
		}

	case SessionEnded:
		s.Session = Session{Status: LoggedOut}
		s.Tasks = nil

	case BusyChanged:
		s.Busy = e.Busy

	case TasksLoaded:
		// A response for a previous session must not leak into this one.
		if !s.Session.Active(e.Identity) {
			return s
		}
		s.Tasks = cloneTasks(e.Tasks)
		if s.Tasks == nil {
			s.Tasks = []api.Task{}
		}

	case TaskToggled:
		if !s.Session.Active(e.Identity) {
			return s
		}
		if i := s.IndexOf(e.ID); i >= 0 {
			s.Tasks[i].Completed = !s.Tasks[i].Completed
		}

	case TasksSwapped:
		if !s.Session.LoggedIn() || !inRange(e.I, len(s.Tasks)) || !inRange(e.J, len(s.Tasks)) {
			return s
		}
		s.Tasks[e.I], s.Tasks[e.J] = s.Tasks[e.J], s.Tasks[e.I]

	case PreferencesChanged:
		s.Prefs = e.Prefs
	}

	return s
}

func inRange(i, n int) bool {
	return i >= 0 && i < n
}

package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"rolltodo/pkg/api"
	"rolltodo/pkg/database"
	"rolltodo/pkg/utils"
)

// Observer receives every dispatched event with the state after it.
type Observer func(Event, State)

var errNoMove = errors.New("no movement needed")

type subscription struct {
	id int
	fn Observer
}

// Manager is the single owner of State. Its operations call the Task Store
// and apply the outcome through Reduce.
//
// Login, Register, Load, Add and Delete are guarded by the busy flag and fail
// with ErrBusy while another of them runs. Toggle and the moves are not, so
// their completions may interleave in arrival order.
type Manager struct {
	store   api.Store
	storage database.LocalStorage

	// notifyMu orders deliveries: it is held from reduce until every
	// observer has returned. Observers must not dispatch.
	notifyMu sync.Mutex

	mu     sync.Mutex
	state  State
	subs   []subscription
	nextID int

	background sync.WaitGroup
}

// NewManager creates a Manager in the logged-out state.
func NewManager(store api.Store, storage database.LocalStorage) *Manager {
	return &Manager{
		store:   store,
		storage: storage,
		state:   Initial(),
	}
}

// Subscribe registers fn and returns a function removing it.
func (m *Manager) Subscribe(fn Observer) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.subs = append(m.subs, subscription{id: id, fn: fn})
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, s := range m.subs {
			if s.id == id {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Counts returns the number of pending and completed tasks.
func (m *Manager) Counts() (pending, completed int) {
	return m.Snapshot().Counts()
}

// Wait blocks until background work (the order fix-up) has finished.
func (m *Manager) Wait() {
	m.background.Wait()
}

func (m *Manager) dispatch(events ...Event) State {
	s, _ := m.dispatchIf(nil, events...)
	return s
}

// dispatchIf applies events only when check accepts the current state. Check
// and apply happen under one lock; observers run after it is released, in
// the order the states were produced.
func (m *Manager) dispatchIf(check func(State) error, events ...Event) (State, error) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	if check != nil {
		if err := check(m.state); err != nil {
			s := m.state.clone()
			m.mu.Unlock()
			return s, err
		}
	}
	states := make([]State, len(events))
	for i, e := range events {
		m.state = Reduce(m.state, e)
		states[i] = m.state.clone()
	}
	subs := make([]subscription, len(m.subs))
	copy(subs, m.subs)
	s := m.state.clone()
	m.mu.Unlock()

	for i, e := range events {
		for _, sub := range subs {
			sub.fn(e, states[i])
		}
	}
	return s, nil
}

func (m *Manager) alert(title string, err error) {
	m.dispatch(Alert{Title: title, Message: err.Error(), Failure: true})
}

func requireIdle(s State) error {
	if s.Busy {
		return ErrBusy
	}
	return nil
}

func requireLoggedIn(s State) error {
	if !s.Session.LoggedIn() {
		return ErrNotLoggedIn
	}
	return nil
}

func requireIdleLoggedIn(s State) error {
	if err := requireLoggedIn(s); err != nil {
		return err
	}
	return requireIdle(s)
}

func requireIdleLoggedOut(s State) error {
	if err := requireIdle(s); err != nil {
		return err
	}
	if s.Session.Status != LoggedOut {
		return ErrInvalidState
	}
	return nil
}

// Restore reads the persisted preferences and identity. With a cached
// identity the session resumes logged in and the collection is loaded.
func (m *Manager) Restore(ctx context.Context) error {
	m.RestorePreferences()

	identity, ok, err := m.storage.GetItem(database.KeyRollNumber)
	if err != nil {
		return fmt.Errorf("read cached roll number: %w", err)
	}
	if !ok || identity == "" {
		return nil
	}

	utils.Info("restoring session", "roll_number", identity)
	m.dispatch(SessionRestored{Identity: identity})
	return m.Load(ctx)
}

// Login checks credentials with the store. On success the identity is
// persisted, the one-time order fix-up is started in the background and the
// collection is loaded. A rejection is reported in the result and as an alert.
func (m *Manager) Login(ctx context.Context, identity, secret string) (api.LoginResult, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" || secret == "" {
		return api.LoginResult{}, ErrMissingLogin
	}
	if _, err := m.dispatchIf(requireIdleLoggedOut, LoginStarted{Identity: identity}); err != nil {
		return api.LoginResult{}, err
	}
	defer m.dispatch(BusyChanged{Busy: false})

	res, err := m.store.Login(ctx, identity, secret)
	if err != nil {
		utils.Error("login request failed", "roll_number", identity, "error", err)
		m.dispatch(LoginRejected{})
		m.alert("Login failed", err)
		return api.LoginResult{}, fmt.Errorf("login: %w", err)
	}
	if !res.Success {
		utils.Info("login rejected", "roll_number", identity, "message", res.Message)
		m.dispatch(LoginRejected{}, Alert{Title: "Login failed", Message: res.Message, Failure: true})
		return res, nil
	}

	if s := m.dispatch(LoginSucceeded{Identity: identity}); !s.Session.Active(identity) {
		utils.Info("session ended before login completed", "roll_number", identity)
		return res, nil
	}
	if err := m.storage.SetItem(database.KeyRollNumber, identity); err != nil {
		utils.Warn("could not persist roll number", "error", err)
	}
	// A logout may have cleared the key between the two steps above
	if !m.Snapshot().Session.Active(identity) {
		if err := m.storage.RemoveItem(database.KeyRollNumber); err != nil {
			utils.Warn("could not clear roll number", "error", err)
		}
		return res, nil
	}
	m.normalizeOrder(ctx, identity)

	if err := m.load(ctx); err != nil {
		utils.Warn("initial load after login failed", "error", err)
	}
	return res, nil
}

// normalizeOrder fires the store's legacy order fix-up without waiting.
func (m *Manager) normalizeOrder(ctx context.Context, identity string) {
	ctx = context.WithoutCancel(ctx)
	m.background.Add(1)
	go func() {
		defer m.background.Done()
		if err := m.store.NormalizeOrder(ctx, identity); err != nil {
			utils.Warn("order fix-up failed", "roll_number", identity, "error", err)
			return
		}
		utils.Debug("order fix-up done", "roll_number", identity)
	}()
}

// Register creates an account. The store's answer is shown as an alert.
func (m *Manager) Register(ctx context.Context, identity, secret string) (api.RegisterResult, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" || secret == "" {
		return api.RegisterResult{}, ErrMissingLogin
	}
	if _, err := m.dispatchIf(requireIdleLoggedOut, BusyChanged{Busy: true}); err != nil {
		return api.RegisterResult{}, err
	}
	defer m.dispatch(BusyChanged{Busy: false})

	res, err := m.store.Register(ctx, identity, secret)
	if err != nil {
		utils.Error("register request failed", "roll_number", identity, "error", err)
		m.alert("Registration failed", err)
		return res, fmt.Errorf("register: %w", err)
	}
	if res.OK() {
		m.dispatch(Alert{Title: "Registration", Message: res.Message})
	} else {
		m.dispatch(Alert{Title: "Registration failed", Message: res.Error, Failure: true})
	}
	return res, nil
}

// Logout forgets the persisted identity and clears the task cache.
func (m *Manager) Logout() error {
	err := m.storage.RemoveItem(database.KeyRollNumber)
	if err != nil {
		utils.Warn("could not clear roll number", "error", err)
	}
	m.dispatch(SessionEnded{})
	return err
}

// Load replaces the cache with the store's collection. On failure the cache
// keeps its previous value; the error is logged and returned, never alerted.
func (m *Manager) Load(ctx context.Context) error {
	if _, err := m.dispatchIf(requireIdleLoggedIn, BusyChanged{Busy: true}); err != nil {
		return err
	}
	defer m.dispatch(BusyChanged{Busy: false})
	return m.load(ctx)
}

func (m *Manager) load(ctx context.Context) error {
	s := m.Snapshot()
	if !s.Session.LoggedIn() {
		return ErrNotLoggedIn
	}
	identity := s.Session.Identity

	tasks, err := m.store.ListTasks(ctx, identity)
	if err != nil {
		utils.Error("error fetching tasks", "roll_number", identity, "error", err)
		return fmt.Errorf("load tasks: %w", err)
	}
	utils.Debug("loaded tasks", "roll_number", identity, "count", len(tasks))
	m.dispatch(TasksLoaded{Identity: identity, Tasks: tasks})
	return nil
}

// ValidateTask trims and checks the add-task inputs without any request.
func ValidateTask(text, date, clock string) (string, string, string, error) {
	text = strings.TrimSpace(text)
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)

	if text == "" {
		return "", "", "", ErrEmptyTask
	}
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return "", "", "", ErrInvalidDate
		}
	}
	if clock != "" {
		if _, err := time.Parse("15:04", clock); err != nil {
			return "", "", "", ErrInvalidTime
		}
	}
	return text, date, clock, nil
}

// Add creates a task and then reloads the whole collection, whether or not
// the create succeeded, so the cache always shows the store's records.
func (m *Manager) Add(ctx context.Context, text, date, clock string) error {
	text, date, clock, err := ValidateTask(text, date, clock)
	if err != nil {
		return err
	}
	s, err := m.dispatchIf(requireIdleLoggedIn, BusyChanged{Busy: true})
	if err != nil {
		return err
	}
	defer m.dispatch(BusyChanged{Busy: false})
	identity := s.Session.Identity

	return Resync(ctx, func(ctx context.Context) error {
		_, err := m.store.CreateTask(ctx, identity, text, date, clock)
		if err != nil {
			utils.Error("error adding task", "error", err)
			m.alert("Add task failed", err)
			err = fmt.Errorf("add task: %w", err)
		}
		m.dispatch(InputsCleared{})
		return err
	}, m.load)
}

// Delete removes a task and reloads. A failed delete corrects itself since
// the reload shows whatever the store still holds.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if _, err := m.dispatchIf(requireIdleLoggedIn, BusyChanged{Busy: true}); err != nil {
		return err
	}
	defer m.dispatch(BusyChanged{Busy: false})

	return Resync(ctx, func(ctx context.Context) error {
		if err := m.store.DeleteTask(ctx, id); err != nil {
			utils.Error("error deleting task", "task_id", id, "error", err)
			m.alert("Delete task failed", err)
			return fmt.Errorf("delete task: %w", err)
		}
		return nil
	}, m.load)
}

// Toggle flips a task's completion on the store, then locally once the store
// has acknowledged it. A Celebration follows every flip into completed.
func (m *Manager) Toggle(ctx context.Context, id string) error {
	s := m.Snapshot()
	if err := requireLoggedIn(s); err != nil {
		return err
	}
	identity := s.Session.Identity

	if err := m.store.ToggleTask(ctx, id); err != nil {
		utils.Error("error toggling task", "task_id", id, "error", err)
		m.alert("Toggle task failed", err)
		return fmt.Errorf("toggle task: %w", err)
	}

	s = m.dispatch(TaskToggled{Identity: identity, ID: id})
	if !s.Session.Active(identity) {
		return nil
	}
	if i := s.IndexOf(id); i >= 0 && s.Tasks[i].Completed {
		m.dispatch(Celebration{TaskID: id})
	}
	return nil
}

// MoveUp swaps the task at index with the one above it.
func (m *Manager) MoveUp(ctx context.Context, index int) error {
	return m.move(ctx, index, index-1)
}

// MoveDown swaps the task at index with the one below it.
func (m *Manager) MoveDown(ctx context.Context, index int) error {
	return m.move(ctx, index, index+1)
}

// move swaps two positions immediately and submits the full order. When the
// store refuses, the collection is reloaded to the last confirmed order.
func (m *Manager) move(ctx context.Context, index, neighbor int) error {
	var identity string
	var ids []string

	op := Optimistic{
		Apply: func() (bool, error) {
			s, err := m.dispatchIf(func(s State) error {
				if err := requireLoggedIn(s); err != nil {
					return err
				}
				if !inRange(index, len(s.Tasks)) || !inRange(neighbor, len(s.Tasks)) {
					return errNoMove
				}
				return nil
			}, TasksSwapped{I: index, J: neighbor})
			if errors.Is(err, errNoMove) {
				return false, nil
			}
			if err != nil {
				return false, err
			}
			identity = s.Session.Identity
			ids = s.TaskIDs()
			return true, nil
		},
		Commit: func(ctx context.Context) error {
			return m.store.ReorderTasks(ctx, identity, ids)
		},
		Compensate: m.load,
	}

	if err := op.Run(ctx); err != nil {
		if errors.Is(err, ErrNotLoggedIn) {
			return err
		}
		utils.Error("error saving task order", "roll_number", identity, "error", err)
		m.dispatch(Alert{
			Title:   "Reorder failed",
			Message: fmt.Sprintf("could not save the new order, order reverted (%v)", err),
			Failure: true,
		})
		return fmt.Errorf("reorder tasks: %w", err)
	}
	return nil
}

// RestorePreferences applies the persisted theme and dark mode. Invalid
// stored values fall back to the defaults.
func (m *Manager) RestorePreferences() {
	m.dispatch(PreferencesChanged{Prefs: m.readPreferences()})
}

func (m *Manager) readPreferences() Preferences {
	prefs := Preferences{Theme: ThemeDefault}

	if v, ok, err := m.storage.GetItem(database.KeyTheme); err == nil && ok {
		if th, perr := ParseTheme(v); perr == nil {
			prefs.Theme = th
		} else {
			utils.Warn("ignoring stored theme", "value", v)
		}
	}
	if v, ok, err := m.storage.GetItem(database.KeyDarkMode); err == nil && ok {
		if err := json.Unmarshal([]byte(v), &prefs.DarkMode); err != nil {
			utils.Warn("ignoring stored dark mode", "value", v)
		}
	}
	return prefs
}

// SetTheme validates, persists and applies a theme.
func (m *Manager) SetTheme(name string) error {
	th, err := ParseTheme(name)
	if err != nil {
		return err
	}
	if err := m.storage.SetItem(database.KeyTheme, string(th)); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	prefs := m.Snapshot().Prefs
	prefs.Theme = th
	m.dispatch(PreferencesChanged{Prefs: prefs})
	return nil
}

// ToggleDarkMode flips and persists the dark mode preference.
func (m *Manager) ToggleDarkMode() error {
	prefs := m.Snapshot().Prefs
	prefs.DarkMode = !prefs.DarkMode

	if err := m.storage.SetItem(database.KeyDarkMode, strconv.FormatBool(prefs.DarkMode)); err != nil {
		return fmt.Errorf("save dark mode: %w", err)
	}
	m.dispatch(PreferencesChanged{Prefs: prefs})
	return nil
}

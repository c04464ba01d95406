package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"rolltodo/pkg/api"
	"rolltodo/pkg/state"
	"rolltodo/pkg/utils"
)

// FormatTask renders a task as a checklist line.
func FormatTask(t api.Task) string {
	status := "[ ]"
	if t.Completed {
		status = "[x]"
	}
	line := fmt.Sprintf("%s %s", status, t.Text)
	if when := strings.TrimSpace(t.Date + " " + t.Time); when != "" {
		line += fmt.Sprintf("  (%s)", when)
	}
	return line
}

// HandleList prints the loaded tasks, numbered by position.
func HandleList(mgr *state.Manager, w io.Writer, filter state.Filter) error {
	s := mgr.Snapshot()
	if !s.Session.LoggedIn() {
		return state.ErrNotLoggedIn
	}

	shown := 0
	for i, t := range s.Tasks {
		if !filter.Match(t) {
			continue
		}
		fmt.Fprintf(w, "%3d. %s\n", i+1, FormatTask(t))
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(w, "No tasks.")
	}

	pending, completed := s.Counts()
	fmt.Fprintf(w, "pending: %d  completed: %d\n", pending, completed)
	return nil
}

// taskAt resolves a 1-based position in the loaded order.
func taskAt(s state.State, n int) (api.Task, error) {
	if n < 1 || n > len(s.Tasks) {
		return api.Task{}, fmt.Errorf("%w: %d (have %d)", state.ErrTaskOutOfRange, n, len(s.Tasks))
	}
	return s.Tasks[n-1], nil
}

// HandleRemove deletes the task at position n.
func HandleRemove(ctx context.Context, mgr *state.Manager, w io.Writer, n int) error {
	s := mgr.Snapshot()
	if !s.Session.LoggedIn() {
		return state.ErrNotLoggedIn
	}
	t, err := taskAt(s, n)
	if err != nil {
		return err
	}
	if err := mgr.Delete(ctx, t.ID); err != nil {
		return err
	}
	fmt.Fprintf(w, "Deleted: %s\n", t.Text)
	return nil
}

// HandleToggle flips the completion of the task at position n.
func HandleToggle(ctx context.Context, mgr *state.Manager, w io.Writer, n int) error {
	s := mgr.Snapshot()
	if !s.Session.LoggedIn() {
		return state.ErrNotLoggedIn
	}
	t, err := taskAt(s, n)
	if err != nil {
		return err
	}

	celebrated := false
	stop := mgr.Subscribe(func(e state.Event, _ state.State) {
		if c, ok := e.(state.Celebration); ok && c.TaskID == t.ID {
			celebrated = true
		}
	})
	defer stop()

	if err := mgr.Toggle(ctx, t.ID); err != nil {
		return err
	}

	s = mgr.Snapshot()
	if i := s.IndexOf(t.ID); i >= 0 {
		fmt.Fprintln(w, FormatTask(s.Tasks[i]))
	}
	if celebrated {
		fmt.Fprintln(w, "Well done!")
	}
	return nil
}

// HandleMove moves the task at position n one step with the store's
// single-step move and reloads the order.
func HandleMove(ctx context.Context, store api.Store, mgr *state.Manager, w io.Writer, n int, direction string) error {
	s := mgr.Snapshot()
	if !s.Session.LoggedIn() {
		return state.ErrNotLoggedIn
	}
	t, err := taskAt(s, n)
	if err != nil {
		return err
	}

	dir := api.Direction(strings.ToLower(direction))
	if dir != api.Up && dir != api.Down {
		return fmt.Errorf("invalid direction %q: use up or down", direction)
	}

	err = state.Resync(ctx, func(ctx context.Context) error {
		return store.MoveTask(ctx, s.Session.Identity, t.ID, dir)
	}, mgr.Load)
	if err != nil {
		utils.Error("error moving task", "task_id", t.ID, "error", err)
		return fmt.Errorf("move task: %w", err)
	}

	return HandleList(mgr, w, state.AllTasks)
}

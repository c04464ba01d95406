package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"rolltodo/pkg/api"
	"rolltodo/pkg/state"
	"rolltodo/pkg/utils"
)

// HandlePurge deletes every task passing filter, asking on in first unless
// skipConfirm is set.
func HandlePurge(ctx context.Context, mgr *state.Manager, w io.Writer, in io.Reader, filter state.Filter, skipConfirm bool) error {
	s := mgr.Snapshot()
	if !s.Session.LoggedIn() {
		return state.ErrNotLoggedIn
	}

	var victims []api.Task
	for _, t := range s.Tasks {
		if filter.Match(t) {
			victims = append(victims, t)
		}
	}
	if len(victims) == 0 {
		fmt.Fprintln(w, "Nothing to delete.")
		return nil
	}

	// Show confirmation unless --yes flag is used
	if !skipConfirm {
		fmt.Fprintf(w, "Are you sure you want to delete %d task(s)? (y/N): ", len(victims))
		response, _ := bufio.NewReader(in).ReadString('\n')
		response = strings.ToLower(strings.TrimSpace(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(w, "Operation cancelled.")
			return nil
		}
	}

	deleted := 0
	for _, t := range victims {
		if err := mgr.Delete(ctx, t.ID); err != nil {
			if api.IsNotFound(err) {
				// Already gone on the store
				utils.Debug("purge: task already deleted", "task_id", t.ID)
				deleted++
				continue
			}
			utils.Warn("purge: delete failed", "task_id", t.ID, "error", err)
			continue
		}
		deleted++
	}

	fmt.Fprintf(w, "Successfully deleted %d task(s)\n", deleted)
	if deleted < len(victims) {
		return fmt.Errorf("%d task(s) could not be deleted", len(victims)-deleted)
	}
	return nil
}

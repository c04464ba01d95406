package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"rolltodo/pkg/state"
)

// HandleAddTask processes the add command
func HandleAddTask(ctx context.Context, mgr *state.Manager, w io.Writer, taskText, dateStr, timeStr string) error {
	if err := mgr.Add(ctx, taskText, dateStr, timeStr); err != nil {
		return err
	}
	fmt.Fprintf(w, "Task added: %s\n", strings.TrimSpace(taskText))
	return nil
}

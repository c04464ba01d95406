package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"rolltodo/pkg/api"
	"rolltodo/pkg/state"
	"rolltodo/pkg/utils"
)

var (
	dateRegex = regexp.MustCompile(`^(?:(\d{2})\.(\d{2})\.(\d{4})|(\d{4})-(\d{2})-(\d{2})):?$`)
	timeRegex = regexp.MustCompile(`\s+@(\d{2}:\d{2})$`)
)

// HandleImportCommand creates every task found in filename. Completed tasks
// are created and then toggled. The list is reloaded once at the end.
func HandleImportCommand(ctx context.Context, store api.Store, mgr *state.Manager, w io.Writer, filename string) error {
	s := mgr.Snapshot()
	if !s.Session.LoggedIn() {
		return state.ErrNotLoggedIn
	}

	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	tasks, err := ParseTasks(content, formatOf(filename))
	if err != nil {
		return err
	}

	var tasksAdded int
	err = state.Resync(ctx, func(ctx context.Context) error {
		for _, t := range tasks {
			text, date, clock, err := state.ValidateTask(t.Text, t.Date, t.Time)
			if err != nil {
				fmt.Fprintf(w, "Skipping '%s': %v\n", t.Text, err)
				continue
			}
			created, err := store.CreateTask(ctx, s.Session.Identity, text, date, clock)
			if err != nil {
				utils.Error("import: error adding task", "task", text, "error", err)
				fmt.Fprintf(w, "Error adding task '%s': %v\n", text, err)
				continue
			}
			if t.Completed {
				if err := store.ToggleTask(ctx, created.ID); err != nil {
					fmt.Fprintf(w, "Error completing task '%s': %v\n", text, err)
				}
			}
			tasksAdded++
		}
		return nil
	}, mgr.Load)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Successfully imported %d task(s) from %s\n", tasksAdded, filename)
	return nil
}

func formatOf(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	}
	return "txt"
}

// ParseTasks decodes tasks written by EncodeTasks, or hand-written txt lists.
func ParseTasks(content []byte, format string) ([]api.Task, error) {
	var tasks []api.Task
	switch format {
	case "json":
		if err := json.Unmarshal(content, &tasks); err != nil {
			return nil, fmt.Errorf("error parsing JSON: %w", err)
		}
		return tasks, nil
	case "yaml":
		if err := yaml.Unmarshal(content, &tasks); err != nil {
			return nil, fmt.Errorf("error parsing YAML: %w", err)
		}
		return tasks, nil
	}
	return parseText(string(content)), nil
}

// parseText reads "DD.MM.YYYY:" or "YYYY-MM-DD:" date headers followed by
// "- [x] text" lines.
func parseText(content string) []api.Task {
	var tasks []api.Task
	currentDate := ""

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if line == undatedHeader {
			currentDate = ""
			continue
		}

		// Check if line contains a date (DD.MM.YYYY: or YYYY-MM-DD: format)
		if dateMatch := dateRegex.FindStringSubmatch(line); dateMatch != nil {
			layout := "2006-01-02"
			if dateMatch[1] != "" {
				layout = "02.01.2006"
			}
			d, err := time.Parse(layout, strings.TrimSuffix(line, ":"))
			if err != nil {
				// Tasks under a bad header are imported undated
				utils.Warn("import: invalid date header", "header", line, "error", err)
				currentDate = ""
				continue
			}
			currentDate = d.Format("2006-01-02")
			continue
		}

		// Check if line is a task (starts with -)
		if !strings.HasPrefix(line, "- ") {
			continue
		}
		taskText := strings.TrimSpace(strings.TrimPrefix(line, "- "))

		completed := false
		if strings.HasPrefix(taskText, "[x]") {
			completed = true
			taskText = strings.TrimSpace(strings.TrimPrefix(taskText, "[x]"))
		} else if strings.HasPrefix(taskText, "[ ]") {
			taskText = strings.TrimSpace(strings.TrimPrefix(taskText, "[ ]"))
		}

		clock := ""
		if m := timeRegex.FindStringSubmatch(taskText); m != nil {
			clock = m[1]
			taskText = strings.TrimSpace(strings.TrimSuffix(taskText, m[0]))
		}
		if taskText == "" {
			continue
		}

		tasks = append(tasks, api.Task{
			Text:      taskText,
			Completed: completed,
			Date:      currentDate,
			Time:      clock,
		})
	}

	return tasks
}

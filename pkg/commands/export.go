package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"rolltodo/pkg/api"
	"rolltodo/pkg/state"
)

// undatedHeader starts a block of tasks without a date in txt files.
const undatedHeader = "undated:"

// HandleExportCommand writes the loaded tasks to filename as json, txt or yaml.
func HandleExportCommand(mgr *state.Manager, w io.Writer, filename, exportType string) error {
	s := mgr.Snapshot()
	if !s.Session.LoggedIn() {
		return state.ErrNotLoggedIn
	}

	content, err := EncodeTasks(s.Tasks, exportType)
	if err != nil {
		return err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	if err := os.WriteFile(filename, content, 0644); err != nil {
		return fmt.Errorf("error writing file: %w", err)
	}

	fmt.Fprintf(w, "Successfully exported %d task(s) to %s\n", len(s.Tasks), filename)
	return nil
}

// EncodeTasks serializes tasks in the given format.
func EncodeTasks(tasks []api.Task, exportType string) ([]byte, error) {
	if tasks == nil {
		tasks = []api.Task{}
	}

	switch exportType {
	case "json":
		content, err := json.MarshalIndent(tasks, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("error marshaling tasks to JSON: %w", err)
		}
		return content, nil

	case "yaml", "yml":
		content, err := yaml.Marshal(tasks)
		if err != nil {
			return nil, fmt.Errorf("error marshaling tasks to YAML: %w", err)
		}
		return content, nil

	case "txt":
		var lines []string
		lastHeader := ""
		for i, task := range tasks {
			header := undatedHeader
			if d, err := time.Parse("2006-01-02", task.Date); err == nil {
				header = d.Format("02.01.2006") + ":"
			}
			// Leading undated tasks need no header.
			if header != lastHeader && (i > 0 || header != undatedHeader) {
				lines = append(lines, "\n"+header)
			}
			lastHeader = header

			status := " "
			if task.Completed {
				status = "x"
			}
			line := fmt.Sprintf("- [%s] %s", status, task.Text)
			if task.Time != "" {
				line += " @" + task.Time
			}
			lines = append(lines, line)
		}
		return []byte(strings.TrimSpace(strings.Join(lines, "\n")) + "\n"), nil
	}

	return nil, fmt.Errorf("unknown export type: %s", exportType)
}

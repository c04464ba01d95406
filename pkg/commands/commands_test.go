package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rolltodo/pkg/api"
	"rolltodo/pkg/database"
	"rolltodo/pkg/state"
	"rolltodo/pkg/testutil"
)

type env struct {
	store  *testutil.FakeStore
	client *api.Client
	mgr    *state.Manager
	out    *bytes.Buffer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := testutil.NewFakeStore()
	store.AddUser("21CS001", "pw")
	srv := store.Start(t)
	client, err := api.New(api.Options{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	mgr := state.NewManager(client, database.NewMemoryStorage())
	t.Cleanup(mgr.Wait)
	return &env{store: store, client: client, mgr: mgr, out: &bytes.Buffer{}}
}

func (e *env) login(t *testing.T) {
	t.Helper()
	if err := HandleLogin(context.Background(), e.mgr, e.out, "21CS001", "pw"); err != nil {
		t.Fatalf("HandleLogin: %v", err)
	}
	e.out.Reset()
}

func TestHandleLogin(t *testing.T) {
	e := newEnv(t)
	e.store.AddTask("21CS001", "Buy milk", false)

	if err := HandleLogin(context.Background(), e.mgr, e.out, "21CS001", "wrong"); err == nil {
		t.Error("expected failure for wrong password")
	}
	if err := HandleLogin(context.Background(), e.mgr, e.out, "21CS001", "pw"); err != nil {
		t.Fatalf("HandleLogin: %v", err)
	}
	if !strings.Contains(e.out.String(), "Logged in as 21CS001 (1 pending, 0 completed)") {
		t.Errorf("unexpected output %q", e.out.String())
	}
}

func TestHandleRegister(t *testing.T) {
	e := newEnv(t)
	if err := HandleRegister(context.Background(), e.mgr, e.out, "21CS002", "pw"); err != nil {
		t.Fatalf("HandleRegister: %v", err)
	}
	if err := HandleRegister(context.Background(), e.mgr, e.out, "21CS002", "pw"); err == nil ||
		!strings.Contains(err.Error(), "User already exists") {
		t.Errorf("expected duplicate error, got %v", err)
	}
}

func TestHandleList(t *testing.T) {
	e := newEnv(t)
	e.store.AddTask("21CS001", "Buy milk", false)
	e.store.AddTask("21CS001", "Walk dog", true)
	e.login(t)

	if err := HandleList(e.mgr, e.out, state.AllTasks); err != nil {
		t.Fatalf("HandleList: %v", err)
	}
	want := "  1. [ ] Buy milk\n  2. [x] Walk dog\npending: 1  completed: 1\n"
	if e.out.String() != want {
		t.Errorf("got\n%q\nwant\n%q", e.out.String(), want)
	}

	e.out.Reset()
	HandleList(e.mgr, e.out, state.DoneTasks)
	if strings.Contains(e.out.String(), "Buy milk") || !strings.Contains(e.out.String(), "  2. [x] Walk dog") {
		t.Errorf("done filter output %q", e.out.String())
	}
}

func TestHandleList_NotLoggedIn(t *testing.T) {
	e := newEnv(t)
	if err := HandleList(e.mgr, e.out, state.AllTasks); !errors.Is(err, state.ErrNotLoggedIn) {
		t.Errorf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestHandleAddRemoveToggle(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	ctx := context.Background()

	if err := HandleAddTask(ctx, e.mgr, e.out, " Buy milk ", "2026-10-18", "09:30"); err != nil {
		t.Fatalf("HandleAddTask: %v", err)
	}
	if err := HandleAddTask(ctx, e.mgr, e.out, "   ", "", ""); !errors.Is(err, state.ErrEmptyTask) {
		t.Errorf("expected ErrEmptyTask, got %v", err)
	}

	e.out.Reset()
	if err := HandleToggle(ctx, e.mgr, e.out, 1); err != nil {
		t.Fatalf("HandleToggle: %v", err)
	}
	if e.out.String() != "[x] Buy milk  (2026-10-18 09:30)\nWell done!\n" {
		t.Errorf("unexpected toggle output %q", e.out.String())
	}

	if err := HandleRemove(ctx, e.mgr, e.out, 2); !errors.Is(err, state.ErrTaskOutOfRange) {
		t.Errorf("expected ErrTaskOutOfRange, got %v", err)
	}
	if err := HandleRemove(ctx, e.mgr, e.out, 1); err != nil {
		t.Fatalf("HandleRemove: %v", err)
	}
	if len(e.store.Tasks("21CS001")) != 0 {
		t.Error("task not deleted on the store")
	}
}

func TestHandleMove(t *testing.T) {
	e := newEnv(t)
	a := e.store.AddTask("21CS001", "a", false)
	b := e.store.AddTask("21CS001", "b", false)
	e.login(t)
	ctx := context.Background()

	if err := HandleMove(ctx, e.client, e.mgr, e.out, 2, "UP"); err != nil {
		t.Fatalf("HandleMove: %v", err)
	}
	if ids := e.mgr.Snapshot().TaskIDs(); ids[0] != b || ids[1] != a {
		t.Errorf("unexpected order %v", ids)
	}
	if e.store.Calls(testutil.RouteMove) != 1 {
		t.Error("expected the single-step move endpoint")
	}
	if err := HandleMove(ctx, e.client, e.mgr, e.out, 1, "sideways"); err == nil {
		t.Error("expected invalid direction error")
	}
}

func TestHandlePurge(t *testing.T) {
	e := newEnv(t)
	e.store.AddTask("21CS001", "done", true)
	keep := e.store.AddTask("21CS001", "open", false)
	e.login(t)
	ctx := context.Background()

	if err := HandlePurge(ctx, e.mgr, e.out, strings.NewReader("n\n"), state.DoneTasks, false); err != nil {
		t.Fatalf("HandlePurge: %v", err)
	}
	if len(e.store.Tasks("21CS001")) != 2 || !strings.Contains(e.out.String(), "Operation cancelled.") {
		t.Fatalf("cancelled purge deleted tasks: %q", e.out.String())
	}

	e.out.Reset()
	if err := HandlePurge(ctx, e.mgr, e.out, strings.NewReader("yes\n"), state.DoneTasks, false); err != nil {
		t.Fatalf("HandlePurge: %v", err)
	}
	remaining := e.store.Tasks("21CS001")
	if len(remaining) != 1 || remaining[0].ID != keep {
		t.Errorf("unexpected remaining tasks %+v", remaining)
	}
	if !strings.Contains(e.out.String(), "Successfully deleted 1 task(s)") {
		t.Errorf("unexpected output %q", e.out.String())
	}
}

func TestEncodeParseRoundTrip(t *testing.T) {
	tasks := []api.Task{
		{Text: "no date first"},
		{Text: "Buy milk", Date: "2026-10-18", Time: "09:30"},
		{Text: "Walk dog", Date: "2026-10-18", Completed: true},
		{Text: "no date later"},
	}

	for _, format := range []string{"json", "yaml", "txt"} {
		content, err := EncodeTasks(tasks, format)
		if err != nil {
			t.Fatalf("%s: EncodeTasks: %v", format, err)
		}
		got, err := ParseTasks(content, format)
		if err != nil {
			t.Fatalf("%s: ParseTasks: %v", format, err)
		}
		if len(got) != len(tasks) {
			t.Fatalf("%s: expected %d tasks, got %d", format, len(tasks), len(got))
		}
		for i := range tasks {
			if got[i].Text != tasks[i].Text || got[i].Date != tasks[i].Date ||
				got[i].Time != tasks[i].Time || got[i].Completed != tasks[i].Completed {
				t.Errorf("%s: task %d: got %+v, want %+v", format, i, got[i], tasks[i])
			}
		}
	}

	if _, err := EncodeTasks(tasks, "csv"); err == nil {
		t.Error("expected unknown export type error")
	}
}

func TestParseText_DatedBlocks(t *testing.T) {
	content := "17.10.2026:\n- [x] Buy milk\n- [ ] Walk dog +home\n\n2026-10-18:\n - Call mom\nnot a task\n"
	tasks := parseText(content)
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %+v", tasks)
	}
	if !tasks[0].Completed || tasks[0].Date != "2026-10-17" {
		t.Errorf("unexpected first task %+v", tasks[0])
	}
	if tasks[1].Text != "Walk dog +home" || tasks[1].Completed {
		t.Errorf("unexpected second task %+v", tasks[1])
	}
	if tasks[2].Text != "Call mom" || tasks[2].Date != "2026-10-18" {
		t.Errorf("unexpected third task %+v", tasks[2])
	}
}

func TestParseText_InvalidDateHeader(t *testing.T) {
	content := "31.02.2024:\n- [ ] Pay rent\n2024-13-01:\n- [ ] Dentist\n01.03.2024:\n- [ ] Taxes\n"
	tasks := parseText(content)
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %+v", tasks)
	}
	if tasks[0].Date != "" || tasks[1].Date != "" {
		t.Errorf("impossible dates must not be normalized: %+v", tasks[:2])
	}
	if tasks[2].Date != "2024-03-01" {
		t.Errorf("unexpected date %q", tasks[2].Date)
	}
}

func TestExportImport(t *testing.T) {
	e := newEnv(t)
	e.store.AddTask("21CS001", "Buy milk", true)
	e.login(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "out", "tasks.txt")
	if err := HandleExportCommand(e.mgr, e.out, path, "txt"); err != nil {
		t.Fatalf("HandleExportCommand: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "- [x] Buy milk\n" {
		t.Errorf("unexpected export %q", data)
	}

	in := filepath.Join(dir, "in.txt")
	os.WriteFile(in, []byte("18.10.2026:\n- [x] Walk dog @07:15\n- [ ] Read\n- [ ] bad @25:99\n"), 0644)
	e.out.Reset()
	if err := HandleImportCommand(context.Background(), e.client, e.mgr, e.out, in); err != nil {
		t.Fatalf("HandleImportCommand: %v", err)
	}
	if !strings.Contains(e.out.String(), "Successfully imported 2 task(s)") {
		t.Errorf("unexpected output %q", e.out.String())
	}

	s := e.mgr.Snapshot()
	if len(s.Tasks) != 3 {
		t.Fatalf("expected 3 tasks after import, got %+v", s.Tasks)
	}
	walk := s.Tasks[1]
	if walk.Text != "Walk dog" || !walk.Completed || walk.Date != "2026-10-18" || walk.Time != "07:15" {
		t.Errorf("unexpected imported task %+v", walk)
	}
	if pending, completed := s.Counts(); pending != 1 || completed != 2 {
		t.Errorf("expected 1/2, got %d/%d", pending, completed)
	}
}

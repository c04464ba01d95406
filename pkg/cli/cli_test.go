package cli

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"rolltodo/pkg/state"
	"rolltodo/pkg/testutil"
)

func TestPosition(t *testing.T) {
	if n, err := position("3"); err != nil || n != 3 {
		t.Errorf("expected 3, got %d %v", n, err)
	}
	for _, s := range []string{"0", "-1", "x", ""} {
		if _, err := position(s); err == nil {
			t.Errorf("%q: expected error", s)
		}
	}
}

func TestReadPassword(t *testing.T) {
	var out bytes.Buffer
	pw, err := readPassword(strings.NewReader("s3cret\r\nignored\n"), &out)
	if err != nil {
		t.Fatalf("readPassword: %v", err)
	}
	if pw != "s3cret" || out.String() != "Password: " {
		t.Errorf("got %q, prompt %q", pw, out.String())
	}

	pw, err = readPassword(strings.NewReader("no-newline"), &out)
	if err != nil || pw != "no-newline" {
		t.Errorf("got %q %v", pw, err)
	}
}

// run executes the root command the way main does and returns its output.
func run(t *testing.T, stdin string, argv ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(argv)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store := testutil.NewFakeStore()
	store.AddUser("21CS001", "pw")
	srv := store.Start(t)

	global := []string{"--api-url", srv.URL, "--database", filepath.Join(home, "local.db")}
	cmd := func(stdin string, argv ...string) (string, error) {
		return run(t, stdin, append(append([]string{}, global...), argv...)...)
	}

	if _, err := cmd("", "list"); !errors.Is(err, state.ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn before login, got %v", err)
	}

	if _, err := cmd("wrong\n", "login", "21CS001"); err == nil || !strings.Contains(err.Error(), "Invalid credentials") {
		t.Fatalf("expected rejected login, got %v", err)
	}
	out, err := cmd("pw\n", "login", "21CS001")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "Logged in as 21CS001 (0 pending, 0 completed)") {
		t.Errorf("unexpected login output %q", out)
	}

	// The roll number survives between runs
	if out, err = cmd("", "add", "Buy milk", "--date", "2026-10-18"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err = cmd("", "add", "Walk dog", "--date", "", "--time", "7pm"); !errors.Is(err, state.ErrInvalidTime) {
		t.Errorf("expected ErrInvalidTime, got %v", err)
	}
	if _, err = cmd("", "add", "Walk dog", "--time", ""); err != nil {
		t.Fatalf("add: %v", err)
	}

	if out, err = cmd("", "toggle", "1"); err != nil || !strings.Contains(out, "Well done!") {
		t.Errorf("toggle: %q %v", out, err)
	}
	if out, err = cmd("", "move", "2", "up"); err != nil {
		t.Fatalf("move: %v", err)
	}
	if !strings.Contains(out, "  1. [ ] Walk dog\n  2. [x] Buy milk  (2026-10-18)") {
		t.Errorf("unexpected order after move:\n%s", out)
	}

	if out, err = cmd("", "theme", "green"); err != nil || !strings.Contains(out, "Theme set to green") {
		t.Errorf("theme: %q %v", out, err)
	}
	if _, err = cmd("", "theme", "purple"); !errors.Is(err, state.ErrUnknownTheme) {
		t.Errorf("expected ErrUnknownTheme, got %v", err)
	}

	if out, err = cmd("", "status"); err != nil || !strings.Contains(out, "rollNumber   21CS001") ||
		!strings.Contains(out, "theme        green") || !strings.Contains(out, "darkMode     (not set)") {
		t.Errorf("status: %q %v", out, err)
	}

	if out, err = cmd("", "logout"); err != nil || !strings.Contains(out, "Logged out.") {
		t.Errorf("logout: %q %v", out, err)
	}
	if _, err = cmd("", "list"); !errors.Is(err, state.ErrNotLoggedIn) {
		t.Errorf("expected ErrNotLoggedIn after logout, got %v", err)
	}
	if got := store.Tasks("21CS001"); len(got) != 2 {
		t.Errorf("expected 2 tasks on the store, got %+v", got)
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	if err != nil || out != "rolltodo dev\n" {
		t.Errorf("got %q %v", out, err)
	}
}

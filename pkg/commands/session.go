package commands

import (
	"context"
	"fmt"
	"io"

	"rolltodo/pkg/database"
	"rolltodo/pkg/state"
)

// HandleLogin checks credentials and caches the roll number for later runs.
func HandleLogin(ctx context.Context, mgr *state.Manager, w io.Writer, rollNumber, password string) error {
	if mgr.Snapshot().Session.LoggedIn() {
		if err := mgr.Logout(); err != nil {
			return err
		}
	}

	res, err := mgr.Login(ctx, rollNumber, password)
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("login failed: %s", res.Message)
	}

	pending, completed := mgr.Counts()
	fmt.Fprintf(w, "Logged in as %s (%d pending, %d completed)\n", rollNumber, pending, completed)
	return nil
}

// HandleRegister creates an account.
func HandleRegister(ctx context.Context, mgr *state.Manager, w io.Writer, rollNumber, password string) error {
	res, err := mgr.Register(ctx, rollNumber, password)
	if err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("registration failed: %s", res.Error)
	}
	fmt.Fprintln(w, res.Message)
	return nil
}

// HandleLogout forgets the cached roll number.
func HandleLogout(mgr *state.Manager, w io.Writer) error {
	if err := mgr.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(w, "Logged out.")
	return nil
}

// HandleTheme stores the color theme.
func HandleTheme(mgr *state.Manager, w io.Writer, name string) error {
	if err := mgr.SetTheme(name); err != nil {
		return err
	}
	fmt.Fprintf(w, "Theme set to %s\n", mgr.Snapshot().Prefs.Theme)
	return nil
}

// HandleDarkMode flips dark mode.
func HandleDarkMode(mgr *state.Manager, w io.Writer) error {
	if err := mgr.ToggleDarkMode(); err != nil {
		return err
	}
	mode := "off"
	if mgr.Snapshot().Prefs.DarkMode {
		mode = "on"
	}
	fmt.Fprintf(w, "Dark mode %s\n", mode)
	return nil
}

// HandleStatus prints the store address and what is cached locally.
func HandleStatus(w io.Writer, storeURL string, items map[string]string) error {
	fmt.Fprintf(w, "%-12s %s\n", "task store", storeURL)
	for _, k := range []string{database.KeyRollNumber, database.KeyTheme, database.KeyDarkMode} {
		v, ok := items[k]
		if !ok {
			v = "(not set)"
		}
		fmt.Fprintf(w, "%-12s %s\n", k, v)
	}
	return nil
}

package state

import (
	"context"
	"errors"

	"rolltodo/pkg/utils"
)

var (
	ErrBusy           = errors.New("another operation is in progress")
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrInvalidState   = errors.New("operation not allowed in the current session state")
	ErrEmptyTask      = errors.New("task text is empty")
	ErrMissingLogin   = errors.New("roll number and password are required")
	ErrInvalidDate    = errors.New("invalid date format: use YYYY-MM-DD")
	ErrInvalidTime    = errors.New("invalid time format: use HH:MM")
	ErrUnknownTheme   = errors.New("unknown theme")
	ErrTaskOutOfRange = errors.New("task number out of range")
)

// Resync runs command and then resync, whatever command returned. The
// command's error is returned; a resync failure is only logged.
func Resync(ctx context.Context, command, resync func(context.Context) error) error {
	err := command(ctx)
	if rerr := resync(ctx); rerr != nil {
		utils.Warn("resync after command failed", "error", rerr)
	}
	return err
}

// Optimistic is a mutation shown to the user before the store confirms it.
type Optimistic struct {
	// Apply changes local state and reports whether anything changed.
	Apply func() (bool, error)

	// Commit pushes the applied change to the store.
	Commit func(context.Context) error

	// Compensate restores the last confirmed state after a failed commit.
	Compensate func(context.Context) error
}

// Run applies, commits, and compensates on commit failure. The returned
// error is the commit's; nothing is committed when Apply changes nothing.
func (o Optimistic) Run(ctx context.Context) error {
	applied, err := o.Apply()
	if err != nil || !applied {
		return err
	}
	if err := o.Commit(ctx); err != nil {
		if cerr := o.Compensate(ctx); cerr != nil {
			utils.Warn("compensation failed", "error", cerr)
		}
		return err
	}
	return nil
}

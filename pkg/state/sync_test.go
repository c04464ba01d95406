package state

import (
	"context"
	"errors"
	"testing"
)

func TestResync_AlwaysResyncs(t *testing.T) {
	boom := errors.New("boom")
	for _, cmdErr := range []error{nil, boom} {
		resynced := false
		err := Resync(context.Background(),
			func(context.Context) error { return cmdErr },
			func(context.Context) error { resynced = true; return errors.New("ignored") },
		)
		if !resynced {
			t.Errorf("command error %v: resync did not run", cmdErr)
		}
		if !errors.Is(err, cmdErr) && err != cmdErr {
			t.Errorf("expected %v, got %v", cmdErr, err)
		}
	}
}

func TestOptimistic(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name           string
		applied        bool
		applyErr       error
		commitErr      error
		wantCommit     bool
		wantCompensate bool
		wantErr        error
	}{
		{name: "committed", applied: true, wantCommit: true},
		{name: "commit fails", applied: true, commitErr: boom, wantCommit: true, wantCompensate: true, wantErr: boom},
		{name: "nothing applied", applied: false},
		{name: "apply fails", applyErr: ErrNotLoggedIn, wantErr: ErrNotLoggedIn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var committed, compensated bool
			err := Optimistic{
				Apply: func() (bool, error) { return tt.applied, tt.applyErr },
				Commit: func(context.Context) error {
					committed = true
					return tt.commitErr
				},
				Compensate: func(context.Context) error {
					compensated = true
					return nil
				},
			}.Run(context.Background())

			if !errors.Is(err, tt.wantErr) && err != tt.wantErr {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
			if committed != tt.wantCommit {
				t.Errorf("committed = %v, want %v", committed, tt.wantCommit)
			}
			if compensated != tt.wantCompensate {
				t.Errorf("compensated = %v, want %v", compensated, tt.wantCompensate)
			}
		})
	}
}

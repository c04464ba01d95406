// Package api is the HTTP/JSON client for the remote Task Store.
package api

import (
	"context"
	"fmt"
)

// LoginSuccessMessage is the msg the store returns for accepted credentials.
const LoginSuccessMessage = "Login successful"

// Task is a single record of a user's collection as the store serializes it.
type Task struct {
	ID         string `json:"_id" yaml:"id"`
	Text       string `json:"task" yaml:"task"`
	Completed  bool   `json:"completed" yaml:"completed"`
	RollNumber string `json:"roll_number,omitempty" yaml:"roll_number,omitempty"`
	Date       string `json:"date" yaml:"date,omitempty"`
	Time       string `json:"time" yaml:"time,omitempty"`
	Order      int    `json:"order" yaml:"order"`
}

// LoginResult is the store's answer to a credential check.
type LoginResult struct {
	Success bool
	Message string
}

// RegisterResult carries either the store's msg or its error text.
type RegisterResult struct {
	Message string
	Error   string
}

// OK reports whether registration succeeded.
func (r RegisterResult) OK() bool {
	return r.Message != ""
}

// Direction of a single-step move.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Store is the set of remote operations the client depends on.
type Store interface {
	Login(ctx context.Context, rollNumber, password string) (LoginResult, error)
	Register(ctx context.Context, rollNumber, password string) (RegisterResult, error)

	// ListTasks returns the full collection in store order.
	ListTasks(ctx context.Context, rollNumber string) ([]Task, error)

	// CreateTask returns the created record; date and time may be empty.
	CreateTask(ctx context.Context, rollNumber, text, date, clock string) (Task, error)
	DeleteTask(ctx context.Context, taskID string) error
	ToggleTask(ctx context.Context, taskID string) error

	// ReorderTasks replaces the stored order with taskIDs.
	ReorderTasks(ctx context.Context, rollNumber string, taskIDs []string) error

	// MoveTask moves one task a single step on the server side.
	MoveTask(ctx context.Context, rollNumber, taskID string, dir Direction) error

	// NormalizeOrder assigns an explicit order to legacy records lacking one.
	NormalizeOrder(ctx context.Context, rollNumber string) error
}

// Error is a non-2xx response from the store.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("task store returned status %d", e.Status)
	}
	return fmt.Sprintf("task store returned status %d: %s", e.Status, e.Message)
}

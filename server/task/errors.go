// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"fmt"

	a2a "github.com/go-a2a/a2a-purchasing"
)

// TransitionError represents an attempt to move a task along an edge outside the lifecycle graph.
type TransitionError struct {
	TaskID string
	From   a2a.TaskState
	To     a2a.TaskState
}

// Error returns the error message.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("task %s cannot move from %s to %s", e.TaskID, e.From, e.To)
}

// Is reports whether target is [a2a.ErrInvalidTransition].
func (e *TransitionError) Is(target error) bool { return target == a2a.ErrInvalidTransition }

// NewTransitionError creates a new TransitionError.
func NewTransitionError(taskID string, from, to a2a.TaskState) *TransitionError {
	return &TransitionError{
		TaskID: taskID,
		From:   from,
		To:     to,
	}
}

// StoreError represents an error from the task store.
type StoreError struct {
	Operation string
	TaskID    string
	Err       error
}

// Error returns the error message.
func (e *StoreError) Error() string {
	return fmt.Sprintf("task store %s operation failed for task %s: %v", e.Operation, e.TaskID, e.Err)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(operation, taskID string, err error) *StoreError {
	return &StoreError{
		Operation: operation,
		TaskID:    taskID,
		Err:       err,
	}
}

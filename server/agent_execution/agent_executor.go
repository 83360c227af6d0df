// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent_execution defines the contract between the protocol layer and an agent's business logic.
package agent_execution

import (
	"context"
)

// SupportedContentTypes are the output modes an executor can answer in.
var SupportedContentTypes = []string{"text", "text/plain"}

// Result is the outcome of one executor invocation.
type Result struct {
	// IsComplete reports whether the executor considers the task done.
	IsComplete bool
	// RequireUserInput asks the caller for another turn before the task can finish.
	RequireUserInput bool
	// Content is the text shown to the caller.
	Content string
}

// Executor runs an agent's business logic for one user turn.
//
// sessionID groups the turns of one conversation; an executor may keep
// per-session state keyed by it.
type Executor interface {
	Invoke(ctx context.Context, query, sessionID string) (Result, error)
}

// ExecutorFunc adapts an ordinary function to [Executor].
type ExecutorFunc func(ctx context.Context, query, sessionID string) (Result, error)

var _ Executor = ExecutorFunc(nil)

// Invoke implements [Executor].
func (f ExecutorFunc) Invoke(ctx context.Context, query, sessionID string) (Result, error) {
	return f(ctx, query, sessionID)
}

// EchoExecutor answers every query with its own text and completes immediately.
type EchoExecutor struct{}

var _ Executor = EchoExecutor{}

// Invoke implements [Executor].
func (EchoExecutor) Invoke(ctx context.Context, query, sessionID string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return Result{IsComplete: true, Content: query}, nil
}

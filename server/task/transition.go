// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	a2a "github.com/go-a2a/a2a-purchasing"
)

// edges is the status lifecycle reachable through [Store.UpdateStatus].
//
// INPUT_REQUIRED → WORKING is not listed: only [Store.Upsert] re-enters WORKING,
// when the user answers.
var edges = map[a2a.TaskState][]a2a.TaskState{
	a2a.TaskStateWorking: {
		a2a.TaskStateInputRequired,
		a2a.TaskStateCompleted,
		a2a.TaskStateFailed,
		a2a.TaskStateCanceled,
	},
}

// CanTransition reports whether a task in state from may move to state to.
func CanTransition(from, to a2a.TaskState) bool {
	for _, next := range edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

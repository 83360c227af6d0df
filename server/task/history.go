// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	a2a "github.com/go-a2a/a2a-purchasing"
)

// HistorySlice returns a copy of t carrying at most the last limit history entries.
//
// A limit of zero or less strips the history entirely; callers opt in to history.
func HistorySlice(t *a2a.Task, limit int) *a2a.Task {
	if t == nil {
		return nil
	}
	c := t.Clone()
	switch {
	case limit <= 0:
		c.History = nil
	case len(c.History) > limit:
		c.History = c.History[len(c.History)-limit:]
	}
	return c
}

// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"sync"
)

// Locker serializes work on a single task id.
type Locker interface {
	// Lock blocks until the lock for id is held.
	Lock(id string)
	// Unlock releases the lock for id.
	Unlock(id string)
}

// keyedLocker keeps one mutex per task id.
//
// Mutexes are never removed: tasks live for the lifetime of the process.
type keyedLocker struct {
	mutexes sync.Map // map[string]*sync.Mutex
}

var _ Locker = (*keyedLocker)(nil)

// NewLocker returns a [Locker] backed by a per-id mutex.
func NewLocker() Locker {
	return &keyedLocker{}
}

// Lock implements [Locker].
func (l *keyedLocker) Lock(id string) {
	mu, _ := l.mutexes.LoadOrStore(id, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
}

// Unlock implements [Locker].
func (l *keyedLocker) Unlock(id string) {
	mu, ok := l.mutexes.Load(id)
	if !ok {
		panic("task: unlock of unlocked id " + id)
	}
	mu.(*sync.Mutex).Unlock()
}

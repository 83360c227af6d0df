// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"log/slog"
	"sync"

	a2a "github.com/go-a2a/a2a-purchasing"
)

// subscriberBuffer is the number of events a slow subscriber may lag behind.
const subscriberBuffer = 32

// Broker fans task events out to the streams subscribed to each task.
type Broker struct {
	mu     sync.Mutex
	subs   map[string]map[*subscription]struct{}
	logger *slog.Logger
}

type subscription struct {
	ch     chan a2a.TaskEvent
	closed bool
}

// NewBroker returns an empty [Broker].
func NewBroker(logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		subs:   make(map[string]map[*subscription]struct{}),
		logger: logger,
	}
}

// Subscribe registers a subscriber for taskID.
//
// The returned channel is closed after a final event or when cancel is called.
// cancel is idempotent.
func (b *Broker) Subscribe(taskID string) (events <-chan a2a.TaskEvent, cancel func()) {
	sub := &subscription{ch: make(chan a2a.TaskEvent, subscriberBuffer)}

	b.mu.Lock()
	if b.subs[taskID] == nil {
		b.subs[taskID] = make(map[*subscription]struct{})
	}
	b.subs[taskID][sub] = struct{}{}
	b.mu.Unlock()

	return sub.ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.remove(taskID, sub)
	}
}

// Publish delivers ev to every subscriber of its task. A final event closes
// and removes all subscribers of the task.
func (b *Broker) Publish(ev a2a.TaskEvent) {
	taskID := ev.TaskID()

	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs[taskID] {
		select {
		case sub.ch <- ev:
		default:
			b.logger.Warn("dropping event for slow subscriber", "task_id", taskID)
		}
		if ev.IsFinal() {
			b.remove(taskID, sub)
		}
	}
}

// Subscribers returns the number of open subscriptions for taskID.
func (b *Broker) Subscribers(taskID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[taskID])
}

// remove must be called with mu held.
func (b *Broker) remove(taskID string, sub *subscription) {
	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.ch)

	delete(b.subs[taskID], sub)
	if len(b.subs[taskID]) == 0 {
		delete(b.subs, taskID)
	}
}

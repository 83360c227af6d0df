// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"testing"

	a2a "github.com/go-a2a/a2a-purchasing"
)

func status(id string, state a2a.TaskState, final bool) *a2a.TaskStatusUpdateEvent {
	return &a2a.TaskStatusUpdateEvent{ID: id, Status: a2a.TaskStatus{State: state}, Final: final}
}

func drain(ch <-chan a2a.TaskEvent) []a2a.TaskEvent {
	var out []a2a.TaskEvent
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func TestBrokerFinalEventClosesSubscribers(t *testing.T) {
	b := NewBroker(nil)
	first, _ := b.Subscribe("t1")
	second, _ := b.Subscribe("t1")
	other, cancelOther := b.Subscribe("t2")
	defer cancelOther()

	b.Publish(status("t1", a2a.TaskStateWorking, false))
	b.Publish(&a2a.TaskArtifactUpdateEvent{ID: "t1"})
	b.Publish(status("t1", a2a.TaskStateCompleted, true))

	for name, ch := range map[string]<-chan a2a.TaskEvent{"first": first, "second": second} {
		if got := drain(ch); len(got) != 3 {
			t.Errorf("%s subscriber got %d events, want 3", name, len(got))
		}
	}
	if n := b.Subscribers("t1"); n != 0 {
		t.Errorf("Subscribers(t1) = %d after final event, want 0", n)
	}
	if n := b.Subscribers("t2"); n != 1 {
		t.Errorf("Subscribers(t2) = %d, want 1", n)
	}
	select {
	case ev := <-other:
		t.Errorf("unrelated subscriber received %v", ev)
	default:
	}
}

func TestBrokerCancelIsIdempotent(t *testing.T) {
	b := NewBroker(nil)
	ch, cancel := b.Subscribe("t1")
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("channel open after cancel")
	}
	if n := b.Subscribers("t1"); n != 0 {
		t.Errorf("Subscribers(t1) = %d, want 0", n)
	}

	// Publishing after a cancel must not panic on the closed channel.
	b.Publish(status("t1", a2a.TaskStateCompleted, true))
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	b := NewBroker(nil)
	ch, cancel := b.Subscribe("t1")
	defer cancel()

	for range subscriberBuffer + 5 {
		b.Publish(status("t1", a2a.TaskStateWorking, false))
	}
	if got := len(ch); got != subscriberBuffer {
		t.Errorf("buffered events = %d, want %d", got, subscriberBuffer)
	}
}

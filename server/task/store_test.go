// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	a2a "github.com/go-a2a/a2a-purchasing"
	"github.com/go-a2a/a2a-purchasing/server/task"
)

var fixedNow = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func newStore() *task.InMemoryStore {
	return task.NewInMemoryStore(task.WithClock(func() time.Time { return fixedNow }))
}

func userMsg(text string) a2a.Message {
	return a2a.NewTextMessage(a2a.RoleUser, text)
}

func TestUpsertCreatesWorkingTask(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	got, err := s.Upsert(ctx, "t1", "s1", userMsg("2 margherita"))
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	want := &a2a.Task{
		ID:        "t1",
		SessionID: "s1",
		Status:    a2a.TaskStatus{State: a2a.TaskStateWorking, Timestamp: fixedNow},
		History:   []a2a.Message{userMsg("2 margherita")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Upsert mismatch (-want +got):\n%s", diff)
	}
}

func TestUpsertExistingTask(t *testing.T) {
	ctx := context.Background()

	t.Run("working appends", func(t *testing.T) {
		s := newStore()
		mustUpsert(t, s, "t1", "first")
		got := mustUpsert(t, s, "t1", "second")

		if got.Status.State != a2a.TaskStateWorking {
			t.Errorf("state = %s, want working", got.Status.State)
		}
		if len(got.History) != 2 {
			t.Errorf("len(history) = %d, want 2", len(got.History))
		}
	})

	t.Run("input-required re-enters working", func(t *testing.T) {
		s := newStore()
		mustUpsert(t, s, "t1", "order")
		ask := a2a.NewTextMessage(a2a.RoleAgent, "confirm?")
		if _, err := s.UpdateStatus(ctx, "t1", a2a.TaskStatus{State: a2a.TaskStateInputRequired, Message: &ask}); err != nil {
			t.Fatalf("UpdateStatus failed: %v", err)
		}

		got := mustUpsert(t, s, "t1", "yes")
		if got.Status.State != a2a.TaskStateWorking {
			t.Errorf("state = %s, want working", got.Status.State)
		}
		if diff := cmp.Diff([]string{"order", "confirm?", "yes"}, historyText(got)); diff != "" {
			t.Errorf("history mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("terminal is unchanged", func(t *testing.T) {
		s := newStore()
		mustUpsert(t, s, "t1", "order")
		done, err := s.UpdateStatus(ctx, "t1", a2a.TaskStatus{State: a2a.TaskStateCompleted})
		if err != nil {
			t.Fatalf("UpdateStatus failed: %v", err)
		}

		got := mustUpsert(t, s, "t1", "again")
		if diff := cmp.Diff(done, got); diff != "" {
			t.Errorf("terminal task changed (-want +got):\n%s", diff)
		}
	})
}

func TestUpdateStatusTransitions(t *testing.T) {
	ctx := context.Background()

	// prepare drives a fresh task into state.
	prepare := func(t *testing.T, s *task.InMemoryStore, state a2a.TaskState) {
		t.Helper()
		mustUpsert(t, s, "t1", "order")
		if state == a2a.TaskStateWorking {
			return
		}
		if _, err := s.UpdateStatus(ctx, "t1", a2a.TaskStatus{State: state}); err != nil {
			t.Fatalf("prepare %s: %v", state, err)
		}
	}

	states := []a2a.TaskState{
		a2a.TaskStateWorking,
		a2a.TaskStateInputRequired,
		a2a.TaskStateCompleted,
		a2a.TaskStateCanceled,
		a2a.TaskStateFailed,
	}
	allowed := map[[2]a2a.TaskState]bool{
		{a2a.TaskStateWorking, a2a.TaskStateInputRequired}: true,
		{a2a.TaskStateWorking, a2a.TaskStateCompleted}:     true,
		{a2a.TaskStateWorking, a2a.TaskStateCanceled}:      true,
		{a2a.TaskStateWorking, a2a.TaskStateFailed}:        true,
	}

	for _, from := range states {
		for _, to := range states {
			t.Run(fmt.Sprintf("%s to %s", from, to), func(t *testing.T) {
				s := newStore()
				prepare(t, s, from)

				_, err := s.UpdateStatus(ctx, "t1", a2a.TaskStatus{State: to})
				if allowed[[2]a2a.TaskState{from, to}] {
					if err != nil {
						t.Errorf("UpdateStatus failed: %v", err)
					}
					return
				}

				var terr *task.TransitionError
				if !errors.As(err, &terr) {
					t.Fatalf("UpdateStatus error = %v, want *TransitionError", err)
				}
				if !errors.Is(err, a2a.ErrInvalidTransition) {
					t.Error("TransitionError does not match a2a.ErrInvalidTransition")
				}

				got, err := s.Get(ctx, "t1")
				if err != nil {
					t.Fatalf("Get failed: %v", err)
				}
				if got.Status.State != from {
					t.Errorf("state after rejected transition = %s, want %s", got.Status.State, from)
				}
			})
		}
	}
}

func TestUpdateStatusUnknownTask(t *testing.T) {
	s := newStore()
	_, err := s.UpdateStatus(context.Background(), "missing", a2a.TaskStatus{State: a2a.TaskStateCompleted})
	if !errors.Is(err, a2a.ErrNotFound) {
		t.Errorf("UpdateStatus error = %v, want not found", err)
	}
}

func TestUpdateStatusRecordsMessageAndArtifacts(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	mustUpsert(t, s, "t1", "order")

	reply := a2a.NewTextMessage(a2a.RoleAgent, "order placed")
	artifact := a2a.Artifact{Parts: []a2a.Part{a2a.NewTextPart("order id 42")}}
	got, err := s.UpdateStatus(ctx, "t1", a2a.TaskStatus{State: a2a.TaskStateCompleted, Message: &reply}, artifact)
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	want := &a2a.Task{
		ID:        "t1",
		SessionID: "s1",
		Status:    a2a.TaskStatus{State: a2a.TaskStateCompleted, Message: &reply, Timestamp: fixedNow},
		Artifacts: []a2a.Artifact{artifact},
		History:   []a2a.Message{userMsg("order"), reply},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("UpdateStatus mismatch (-want +got):\n%s", diff)
	}
}

func TestReturnedTasksAreCopies(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	got := mustUpsert(t, s, "t1", "order")

	got.History[0].Parts[0].Text = "tampered"
	got.Status.State = a2a.TaskStateCompleted

	stored, err := s.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Status.State != a2a.TaskStateWorking {
		t.Errorf("stored state = %s, want working", stored.Status.State)
	}
	if stored.History[0].Parts[0].Text != "order" {
		t.Errorf("stored history changed: %q", stored.History[0].Parts[0].Text)
	}
}

func TestConcurrentUpsertSerializes(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	mustUpsert(t, s, "t1", "first")

	const n = 50
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Upsert(ctx, "t1", "s1", userMsg(fmt.Sprint(i))); err != nil {
				t.Errorf("Upsert failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.History) != n+1 {
		t.Errorf("len(history) = %d, want %d", len(got.History), n+1)
	}
}

func TestConcurrentUpdateStatusSerializes(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	mustUpsert(t, s, "t1", "order")

	terminal := []a2a.TaskState{a2a.TaskStateCompleted, a2a.TaskStateCanceled, a2a.TaskStateFailed}
	const n = 30
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		winner []a2a.TaskState
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			to := terminal[i%len(terminal)]
			_, err := s.UpdateStatus(ctx, "t1", a2a.TaskStatus{State: to})
			if err == nil {
				mu.Lock()
				winner = append(winner, to)
				mu.Unlock()
				return
			}
			var terr *task.TransitionError
			if !errors.As(err, &terr) || !errors.Is(err, a2a.ErrInvalidTransition) {
				t.Errorf("UpdateStatus(%s) error = %v, want *TransitionError", to, err)
			}
		}()
	}
	wg.Wait()

	if len(winner) != 1 {
		t.Fatalf("successful transitions = %v, want exactly one", winner)
	}
	got, err := s.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status.State != winner[0] {
		t.Errorf("state = %s, want %s", got.Status.State, winner[0])
	}
}

func TestHistorySlice(t *testing.T) {
	full := &a2a.Task{
		ID:      "t1",
		History: []a2a.Message{userMsg("a"), userMsg("b"), userMsg("c")},
	}
	tests := map[string]struct {
		limit int
		want  []string
	}{
		"zero strips":     {0, nil},
		"negative strips": {-1, nil},
		"last two":        {2, []string{"b", "c"}},
		"larger than all": {10, []string{"a", "b", "c"}},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := task.HistorySlice(full, tt.limit)
			if diff := cmp.Diff(tt.want, historyText(got), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("HistorySlice mismatch (-want +got):\n%s", diff)
			}
			if len(full.History) != 3 {
				t.Error("HistorySlice modified its input")
			}
		})
	}
}

func TestPushConfig(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	cfg := a2a.PushNotificationConfig{URL: "http://localhost:5000/notify"}
	if err := s.SetPushConfig(ctx, "missing", cfg); !errors.Is(err, a2a.ErrNotFound) {
		t.Errorf("SetPushConfig(missing) error = %v, want not found", err)
	}

	mustUpsert(t, s, "t1", "order")
	if _, err := s.PushConfig(ctx, "t1"); !errors.Is(err, a2a.ErrNotFound) {
		t.Errorf("PushConfig before set error = %v, want not found", err)
	}
	if err := s.SetPushConfig(ctx, "t1", cfg); err != nil {
		t.Fatalf("SetPushConfig failed: %v", err)
	}
	got, err := s.PushConfig(ctx, "t1")
	if err != nil {
		t.Fatalf("PushConfig failed: %v", err)
	}
	if diff := cmp.Diff(&cfg, got); diff != "" {
		t.Errorf("PushConfig mismatch (-want +got):\n%s", diff)
	}

	if err := s.SetPushConfig(ctx, "t1", a2a.PushNotificationConfig{}); !errors.Is(err, a2a.ErrValidation) {
		t.Errorf("SetPushConfig(no url) error = %v, want validation error", err)
	}
}

func mustUpsert(t *testing.T, s *task.InMemoryStore, id, text string) *a2a.Task {
	t.Helper()
	got, err := s.Upsert(context.Background(), id, "s1", userMsg(text))
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	return got
}

func historyText(t *a2a.Task) []string {
	var out []string
	for _, m := range t.History {
		out = append(out, a2a.RenderParts(m.Parts)...)
	}
	return out
}

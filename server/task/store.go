// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package task holds the task lifecycle state machine and its in-memory storage.
package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	a2a "github.com/go-a2a/a2a-purchasing"
)

const instrumentationName = "github.com/go-a2a/a2a-purchasing/server/task"

// Store owns every task known to an agent and enforces the lifecycle graph.
//
// Tasks returned by a Store are copies; mutating them never affects stored state.
type Store interface {
	// Upsert records msg against task id.
	//
	// An unknown id creates a WORKING task whose history is [msg]. A WORKING
	// task gets msg appended. An INPUT_REQUIRED task gets msg appended and
	// re-enters WORKING. A terminal task is returned unchanged.
	Upsert(ctx context.Context, id, sessionID string, msg a2a.Message) (*a2a.Task, error)

	// UpdateStatus moves task id to status, appending the status message to the
	// history and artifacts to the task. It fails with [*a2a.NotFoundError] for an
	// unknown id and [*TransitionError] for an edge outside the lifecycle graph.
	UpdateStatus(ctx context.Context, id string, status a2a.TaskStatus, artifacts ...a2a.Artifact) (*a2a.Task, error)

	// Get returns task id or [*a2a.NotFoundError].
	Get(ctx context.Context, id string) (*a2a.Task, error)

	// SetPushConfig binds a push notification configuration to an existing task.
	SetPushConfig(ctx context.Context, id string, config a2a.PushNotificationConfig) error

	// PushConfig returns the configuration bound to task id, if any.
	PushConfig(ctx context.Context, id string) (*a2a.PushNotificationConfig, error)
}

// Option configures an [InMemoryStore].
type Option func(*InMemoryStore)

// WithLogger sets the logger of the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *InMemoryStore) {
		s.logger = logger
	}
}

// WithTracer sets the tracer of the store.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *InMemoryStore) {
		s.tracer = tracer
	}
}

// WithLocker replaces the per-task lock.
func WithLocker(locker Locker) Option {
	return func(s *InMemoryStore) {
		s.locker = locker
	}
}

// WithPushConfigStore replaces the push notification config storage.
func WithPushConfigStore(store PushConfigStore) Option {
	return func(s *InMemoryStore) {
		s.pushConfigs = store
	}
}

// WithClock overrides the time source used for status timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *InMemoryStore) {
		s.now = now
	}
}

// InMemoryStore is a [Store] that keeps tasks in process memory.
//
// Task data is lost when the process stops. Mutations of one task id are
// serialized by a [Locker]; the map itself is guarded by mu.
type InMemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*a2a.Task

	locker      Locker
	pushConfigs PushConfigStore
	logger      *slog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates a new [InMemoryStore].
func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{
		tasks:       make(map[string]*a2a.Task),
		locker:      NewLocker(),
		pushConfigs: NewInMemoryPushConfigStore(),
		logger:      slog.Default(),
		tracer:      otel.GetTracerProvider().Tracer(instrumentationName),
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upsert implements [Store].
func (s *InMemoryStore) Upsert(ctx context.Context, id, sessionID string, msg a2a.Message) (*a2a.Task, error) {
	ctx, span := s.tracer.Start(ctx, "a2a.task_store.upsert", trace.WithAttributes(attribute.String("a2a.task_id", id)))
	defer span.End()

	s.locker.Lock(id)
	defer s.locker.Unlock(id)

	t, ok := s.load(id)
	if !ok {
		t = &a2a.Task{
			ID:        id,
			SessionID: sessionID,
			Status: a2a.TaskStatus{
				State:     a2a.TaskStateWorking,
				Timestamp: s.now(),
			},
			History: []a2a.Message{*msg.Clone()},
		}
		s.store(t)
		s.logger.InfoContext(ctx, "task created", "task_id", id, "session_id", sessionID)
		return t.Clone(), nil
	}

	switch t.Status.State {
	case a2a.TaskStateWorking:
		t.History = append(t.History, *msg.Clone())
	case a2a.TaskStateInputRequired:
		t.History = append(t.History, *msg.Clone())
		t.Status = a2a.TaskStatus{
			State:     a2a.TaskStateWorking,
			Timestamp: s.now(),
		}
		s.logger.InfoContext(ctx, "task resumed", "task_id", id)
	default:
		s.logger.DebugContext(ctx, "message for terminal task ignored", "task_id", id, "state", t.Status.State)
		return t.Clone(), nil
	}
	s.store(t)

	return t.Clone(), nil
}

// UpdateStatus implements [Store].
func (s *InMemoryStore) UpdateStatus(ctx context.Context, id string, status a2a.TaskStatus, artifacts ...a2a.Artifact) (*a2a.Task, error) {
	ctx, span := s.tracer.Start(ctx, "a2a.task_store.update_status", trace.WithAttributes(
		attribute.String("a2a.task_id", id),
		attribute.String("a2a.task_state", string(status.State)),
	))
	defer span.End()

	s.locker.Lock(id)
	defer s.locker.Unlock(id)

	t, ok := s.load(id)
	if !ok {
		return nil, &a2a.NotFoundError{TaskID: id}
	}
	if !CanTransition(t.Status.State, status.State) {
		err := NewTransitionError(id, t.Status.State, status.State)
		span.RecordError(err)
		return nil, err
	}

	if status.Timestamp.IsZero() {
		status.Timestamp = s.now()
	}
	status.Message = status.Message.Clone()
	t.Status = status
	if status.Message != nil {
		t.History = append(t.History, *status.Message.Clone())
	}
	for _, a := range artifacts {
		t.Artifacts = append(t.Artifacts, a.Clone())
	}
	s.store(t)

	s.logger.InfoContext(ctx, "task status updated", "task_id", id, "state", status.State)
	return t.Clone(), nil
}

// Get implements [Store].
func (s *InMemoryStore) Get(ctx context.Context, id string) (*a2a.Task, error) {
	_, span := s.tracer.Start(ctx, "a2a.task_store.get", trace.WithAttributes(attribute.String("a2a.task_id", id)))
	defer span.End()

	t, ok := s.load(id)
	if !ok {
		return nil, &a2a.NotFoundError{TaskID: id}
	}
	return t.Clone(), nil
}

// SetPushConfig implements [Store].
func (s *InMemoryStore) SetPushConfig(ctx context.Context, id string, config a2a.PushNotificationConfig) error {
	if _, ok := s.load(id); !ok {
		return &a2a.NotFoundError{TaskID: id}
	}
	if err := s.pushConfigs.SaveConfig(ctx, id, config); err != nil {
		return NewStoreError("set_push_config", id, err)
	}
	return nil
}

// PushConfig implements [Store].
func (s *InMemoryStore) PushConfig(ctx context.Context, id string) (*a2a.PushNotificationConfig, error) {
	if _, ok := s.load(id); !ok {
		return nil, &a2a.NotFoundError{TaskID: id}
	}
	return s.pushConfigs.GetConfig(ctx, id)
}

// load returns a private copy of task id that the caller may mutate and [store].
func (s *InMemoryStore) load(id string) (*a2a.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

func (s *InMemoryStore) store(t *a2a.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[t.ID] = t.Clone()
}

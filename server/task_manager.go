// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	a2a "github.com/go-a2a/a2a-purchasing"
	"github.com/go-a2a/a2a-purchasing/push"
	"github.com/go-a2a/a2a-purchasing/server/agent_execution"
	"github.com/go-a2a/a2a-purchasing/server/task"
)

// TaskManager is the interface that task managers must implement.
//
// Errors returned by a TaskManager are mapped onto JSON-RPC errors with
// [a2a.ToJSONRPCError].
type TaskManager interface {
	// OnSendTask runs one turn of a task and returns its resulting state.
	OnSendTask(ctx context.Context, params a2a.TaskSendParams) (*a2a.Task, error)

	// OnSendTaskSubscribe starts one turn of a task and streams its events.
	OnSendTaskSubscribe(ctx context.Context, params a2a.TaskSendParams) (<-chan a2a.TaskEvent, error)

	// OnGetTask retrieves a task.
	OnGetTask(ctx context.Context, params a2a.TaskQueryParams) (*a2a.Task, error)

	// OnCancelTask cancels a task.
	OnCancelTask(ctx context.Context, params a2a.TaskIDParams) (*a2a.Task, error)

	// OnSetTaskPushNotification configures push notification for a task.
	OnSetTaskPushNotification(ctx context.Context, params a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error)

	// OnGetTaskPushNotification retrieves push notification configuration for a task.
	OnGetTaskPushNotification(ctx context.Context, params a2a.TaskIDParams) (*a2a.TaskPushNotificationConfig, error)

	// OnResubscribeToTask streams the events of a running task.
	OnResubscribeToTask(ctx context.Context, params a2a.TaskQueryParams) (<-chan a2a.TaskEvent, error)
}

// ExecutorTaskManager drives an [agent_execution.Executor] through the task lifecycle.
type ExecutorTaskManager struct {
	store     task.Store
	executor  agent_execution.Executor
	broker    *Broker
	sender    *push.Sender
	supported []string

	Logger *slog.Logger
	Tracer trace.Tracer
}

var _ TaskManager = (*ExecutorTaskManager)(nil)

// NewExecutorTaskManager returns a task manager running executor against store.
//
// sender may be nil, in which case push notification methods report
// [a2a.ErrPushNotSupported].
func NewExecutorTaskManager(store task.Store, executor agent_execution.Executor, sender *push.Sender) *ExecutorTaskManager {
	newMetrics()
	return &ExecutorTaskManager{
		store:     store,
		executor:  executor,
		broker:    NewBroker(slog.Default()),
		sender:    sender,
		supported: agent_execution.SupportedContentTypes,
		Logger:    slog.Default(),
		Tracer:    otel.GetTracerProvider().Tracer(instrumentationName),
	}
}

// WithLogger sets the logger for the task manager.
func (tm *ExecutorTaskManager) WithLogger(logger *slog.Logger) *ExecutorTaskManager {
	tm.Logger = logger
	tm.broker.logger = logger
	return tm
}

// WithTracer sets the tracer for the task manager.
func (tm *ExecutorTaskManager) WithTracer(tracer trace.Tracer) *ExecutorTaskManager {
	tm.Tracer = tracer
	return tm
}

// WithSupportedContentTypes overrides the output modes the executor answers in.
func (tm *ExecutorTaskManager) WithSupportedContentTypes(types ...string) *ExecutorTaskManager {
	tm.supported = types
	return tm
}

// PushEnabled reports whether the manager can deliver push notifications.
func (tm *ExecutorTaskManager) PushEnabled() bool {
	return tm.sender != nil
}

// OnSendTask implements [TaskManager].
func (tm *ExecutorTaskManager) OnSendTask(ctx context.Context, params a2a.TaskSendParams) (*a2a.Task, error) {
	ctx, span := tm.Tracer.Start(ctx, "a2a.task_manager.OnSendTask",
		trace.WithAttributes(attribute.String("a2a.task_id", params.ID)))
	defer span.End()

	query, err := tm.begin(ctx, params)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	t, err := tm.run(ctx, params, query)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return task.HistorySlice(t, params.HistoryLength), nil
}

// OnSendTaskSubscribe implements [TaskManager].
//
// Validation errors are returned directly. Once the stream is open the turn
// runs detached from ctx, so a disconnecting client does not abort the task;
// the subscription itself ends with ctx.
func (tm *ExecutorTaskManager) OnSendTaskSubscribe(ctx context.Context, params a2a.TaskSendParams) (<-chan a2a.TaskEvent, error) {
	ctx, span := tm.Tracer.Start(ctx, "a2a.task_manager.OnSendTaskSubscribe",
		trace.WithAttributes(attribute.String("a2a.task_id", params.ID)))
	defer span.End()

	events, cancel := tm.broker.Subscribe(params.ID)

	query, err := tm.begin(ctx, params)
	if err != nil {
		cancel()
		span.RecordError(err)
		return nil, err
	}
	context.AfterFunc(ctx, cancel)

	runCtx := context.WithoutCancel(ctx)
	go func() {
		if _, err := tm.run(runCtx, params, query); err != nil {
			tm.Logger.ErrorContext(runCtx, "streaming turn failed", "task_id", params.ID, "error", err)
		}
	}()

	return events, nil
}

// begin validates a send and records the incoming message.
// It returns the query passed to the executor.
func (tm *ExecutorTaskManager) begin(ctx context.Context, params a2a.TaskSendParams) (string, error) {
	if !params.AcceptsAny(tm.supported) {
		return "", &a2a.UnsupportedModalityError{
			Requested: params.AcceptedOutputModes,
			Supported: tm.supported,
		}
	}
	if params.PushNotification != nil && params.PushNotification.URL == "" {
		return "", &a2a.ValidationError{Field: "pushNotification.url", Reason: "push notification URL is missing"}
	}
	query, ok := a2a.FirstText(params.Message.Parts)
	if !ok {
		return "", &a2a.ValidationError{Field: "message.parts", Reason: "first part must be text"}
	}

	t, err := tm.store.Upsert(ctx, params.ID, params.SessionID, params.Message)
	if err != nil {
		return "", fmt.Errorf("record message: %w", err)
	}
	if t.Status.State.IsTerminal() {
		return "", task.NewTransitionError(t.ID, t.Status.State, a2a.TaskStateWorking)
	}

	if params.PushNotification != nil {
		tm.registerPush(ctx, params.ID, *params.PushNotification)
	}
	tm.publish(ctx, t, false)

	return query, nil
}

// registerPush stores cfg for taskID when the subscriber URL passes the challenge.
// A failing URL is logged and ignored; the turn proceeds.
func (tm *ExecutorTaskManager) registerPush(ctx context.Context, taskID string, cfg a2a.PushNotificationConfig) {
	if tm.sender == nil {
		tm.Logger.WarnContext(ctx, "push notification requested but not supported", "task_id", taskID)
		return
	}
	if !tm.sender.VerifyURL(ctx, cfg.URL) {
		tm.Logger.WarnContext(ctx, "push notification URL is invalid", "task_id", taskID, "url", cfg.URL)
		return
	}
	if err := tm.store.SetPushConfig(ctx, taskID, cfg); err != nil {
		tm.Logger.ErrorContext(ctx, "store push notification config", "task_id", taskID, "error", err)
	}
}

// run invokes the executor and records the outcome.
func (tm *ExecutorTaskManager) run(ctx context.Context, params a2a.TaskSendParams, query string) (*a2a.Task, error) {
	result, execErr := tm.executor.Invoke(ctx, query, params.SessionID)

	var (
		status    a2a.TaskStatus
		artifacts []a2a.Artifact
	)
	switch {
	case execErr != nil:
		tm.Logger.ErrorContext(ctx, "executor failed", "task_id", params.ID, "error", execErr)
		status = a2a.TaskStatus{State: a2a.TaskStateFailed}
	case result.RequireUserInput:
		msg := a2a.NewTextMessage(a2a.RoleAgent, result.Content)
		status = a2a.TaskStatus{State: a2a.TaskStateInputRequired, Message: &msg}
	default:
		status = a2a.TaskStatus{State: a2a.TaskStateCompleted}
		artifacts = []a2a.Artifact{{Parts: []a2a.Part{a2a.NewTextPart(result.Content)}}}
	}

	t, err := tm.store.UpdateStatus(ctx, params.ID, status, artifacts...)
	switch {
	case errors.Is(err, a2a.ErrInvalidTransition):
		// The task moved on while the executor ran, typically a cancel.
		tm.Logger.InfoContext(ctx, "executor result discarded", "task_id", params.ID, "error", err)
		return tm.store.Get(ctx, params.ID)
	case err != nil:
		return nil, err
	}

	for _, a := range artifacts {
		tm.broker.Publish(&a2a.TaskArtifactUpdateEvent{ID: t.ID, Artifact: a, Metadata: t.Metadata})
	}
	tm.publish(ctx, t, true)

	if execErr != nil {
		return nil, fmt.Errorf("task %s: %w", params.ID, errExecutor)
	}
	return t, nil
}

// errExecutor hides executor failure detail from callers.
var errExecutor = errors.New("executor failed")

// publish emits the status of t to stream subscribers and push subscribers.
// final marks the end of a turn: terminal states and INPUT_REQUIRED.
func (tm *ExecutorTaskManager) publish(ctx context.Context, t *a2a.Task, final bool) {
	transitionCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("a2a.task_state", string(t.Status.State))))

	tm.broker.Publish(&a2a.TaskStatusUpdateEvent{
		ID:       t.ID,
		Status:   t.Status,
		Final:    final,
		Metadata: t.Metadata,
	})

	if tm.sender == nil {
		return
	}
	cfg, err := tm.store.PushConfig(ctx, t.ID)
	if err != nil {
		return
	}
	tm.sender.Dispatch(t, *cfg)
}

// OnGetTask implements [TaskManager].
func (tm *ExecutorTaskManager) OnGetTask(ctx context.Context, params a2a.TaskQueryParams) (*a2a.Task, error) {
	ctx, span := tm.Tracer.Start(ctx, "a2a.task_manager.OnGetTask",
		trace.WithAttributes(attribute.String("a2a.task_id", params.ID)))
	defer span.End()

	t, err := tm.store.Get(ctx, params.ID)
	if err != nil {
		tm.Logger.InfoContext(ctx, "task not found", "task_id", params.ID)
		return nil, err
	}
	return task.HistorySlice(t, params.HistoryLength), nil
}

// OnCancelTask implements [TaskManager].
//
// Only a WORKING task can be canceled.
func (tm *ExecutorTaskManager) OnCancelTask(ctx context.Context, params a2a.TaskIDParams) (*a2a.Task, error) {
	ctx, span := tm.Tracer.Start(ctx, "a2a.task_manager.OnCancelTask",
		trace.WithAttributes(attribute.String("a2a.task_id", params.ID)))
	defer span.End()

	t, err := tm.store.UpdateStatus(ctx, params.ID, a2a.TaskStatus{State: a2a.TaskStateCanceled})
	switch {
	case errors.Is(err, a2a.ErrInvalidTransition):
		tm.Logger.InfoContext(ctx, "task cannot be canceled", "task_id", params.ID, "error", err)
		return nil, fmt.Errorf("%w: %w", a2a.ErrTaskNotCancelable, err)
	case err != nil:
		return nil, err
	}

	tm.publish(ctx, t, true)
	return task.HistorySlice(t, 0), nil
}

// OnSetTaskPushNotification implements [TaskManager].
func (tm *ExecutorTaskManager) OnSetTaskPushNotification(ctx context.Context, params a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	ctx, span := tm.Tracer.Start(ctx, "a2a.task_manager.OnSetTaskPushNotification",
		trace.WithAttributes(attribute.String("a2a.task_id", params.ID)))
	defer span.End()

	if tm.sender == nil {
		return nil, a2a.ErrPushNotSupported
	}
	if _, err := tm.store.Get(ctx, params.ID); err != nil {
		return nil, err
	}
	if !tm.sender.VerifyURL(ctx, params.PushNotificationConfig.URL) {
		return nil, &a2a.ValidationError{Field: "pushNotificationConfig.url", Reason: "push notification URL is invalid"}
	}
	if err := tm.store.SetPushConfig(ctx, params.ID, params.PushNotificationConfig); err != nil {
		return nil, err
	}

	tm.Logger.InfoContext(ctx, "push notification configured", "task_id", params.ID, "url", params.PushNotificationConfig.URL)
	return &params, nil
}

// OnGetTaskPushNotification implements [TaskManager].
func (tm *ExecutorTaskManager) OnGetTaskPushNotification(ctx context.Context, params a2a.TaskIDParams) (*a2a.TaskPushNotificationConfig, error) {
	ctx, span := tm.Tracer.Start(ctx, "a2a.task_manager.OnGetTaskPushNotification",
		trace.WithAttributes(attribute.String("a2a.task_id", params.ID)))
	defer span.End()

	if tm.sender == nil {
		return nil, a2a.ErrPushNotSupported
	}
	if _, err := tm.store.Get(ctx, params.ID); err != nil {
		return nil, err
	}
	cfg, err := tm.store.PushConfig(ctx, params.ID)
	if err != nil {
		return nil, &a2a.ValidationError{Field: "id", Reason: "no push notification configuration for task"}
	}
	return &a2a.TaskPushNotificationConfig{ID: params.ID, PushNotificationConfig: *cfg}, nil
}

// OnResubscribeToTask implements [TaskManager].
//
// The current status is emitted first. For a task that already finished it
// is the only, final, event.
func (tm *ExecutorTaskManager) OnResubscribeToTask(ctx context.Context, params a2a.TaskQueryParams) (<-chan a2a.TaskEvent, error) {
	ctx, span := tm.Tracer.Start(ctx, "a2a.task_manager.OnResubscribeToTask",
		trace.WithAttributes(attribute.String("a2a.task_id", params.ID)))
	defer span.End()

	live, cancel := tm.broker.Subscribe(params.ID)
	t, err := tm.store.Get(ctx, params.ID)
	if err != nil {
		cancel()
		return nil, err
	}

	final := t.Status.State.IsTerminal() || t.Status.State == a2a.TaskStateInputRequired
	out := make(chan a2a.TaskEvent, subscriberBuffer)
	out <- &a2a.TaskStatusUpdateEvent{ID: t.ID, Status: t.Status, Final: final, Metadata: t.Metadata}
	if final {
		cancel()
		close(out)
		return out, nil
	}

	context.AfterFunc(ctx, cancel)
	go func() {
		defer close(out)
		for ev := range live {
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

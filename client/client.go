// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package client calls remote A2A agents over JSON-RPC on HTTP.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	a2a "github.com/go-a2a/a2a-purchasing"
	"github.com/go-a2a/a2a-purchasing/client/internal/sse"
)

const instrumentationName = "github.com/go-a2a/a2a-purchasing/client"

// maxResponseBody bounds a synchronous response body.
const maxResponseBody = 4 << 20

// Client is an A2A client bound to one agent endpoint.
type Client struct {
	url          string
	hc           *http.Client
	interceptors []Interceptor
	logger       *slog.Logger
	tracer       trace.Tracer
}

// NewClient returns a client for the agent served at url.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:    url,
		hc:     http.DefaultClient,
		logger: slog.Default(),
		tracer: otel.GetTracerProvider().Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the agent endpoint.
func (c *Client) URL() string {
	return c.url
}

// SendTask sends a message to a task and waits for the resulting task state.
func (c *Client) SendTask(ctx context.Context, params a2a.TaskSendParams) (*a2a.Task, error) {
	var t a2a.Task
	if err := c.call(ctx, a2a.NewSendTaskRequest(uuid.NewString(), params), params.ID, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTask retrieves a task.
func (c *Client) GetTask(ctx context.Context, params a2a.TaskQueryParams) (*a2a.Task, error) {
	var t a2a.Task
	if err := c.call(ctx, a2a.NewGetTaskRequest(uuid.NewString(), params), params.ID, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CancelTask cancels a task.
func (c *Client) CancelTask(ctx context.Context, params a2a.TaskIDParams) (*a2a.Task, error) {
	var t a2a.Task
	if err := c.call(ctx, a2a.NewCancelTaskRequest(uuid.NewString(), params), params.ID, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// SetTaskPushNotification registers a push notification subscriber for a task.
func (c *Client) SetTaskPushNotification(ctx context.Context, params a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	var cfg a2a.TaskPushNotificationConfig
	if err := c.call(ctx, a2a.NewSetTaskPushNotificationRequest(uuid.NewString(), params), params.ID, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetTaskPushNotification retrieves the push notification subscriber of a task.
func (c *Client) GetTaskPushNotification(ctx context.Context, params a2a.TaskIDParams) (*a2a.TaskPushNotificationConfig, error) {
	var cfg a2a.TaskPushNotificationConfig
	if err := c.call(ctx, a2a.NewGetTaskPushNotificationRequest(uuid.NewString(), params), params.ID, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// StreamResponse is one item read from an event stream.
// Exactly one of Event and Err is set.
type StreamResponse struct {
	Event a2a.TaskEvent
	Err   error
}

// SendTaskSubscribe sends a message to a task and streams its events.
//
// The channel is closed after a final event, on a stream error (delivered as
// the last item) or when ctx is done.
func (c *Client) SendTaskSubscribe(ctx context.Context, params a2a.TaskSendParams) (<-chan StreamResponse, error) {
	return c.stream(ctx, a2a.NewSendTaskStreamingRequest(uuid.NewString(), params), params.ID)
}

// Resubscribe streams the events of a task from its current status.
func (c *Client) Resubscribe(ctx context.Context, params a2a.TaskQueryParams) (<-chan StreamResponse, error) {
	return c.stream(ctx, a2a.NewTaskResubscriptionRequest(uuid.NewString(), params), params.ID)
}

// envelope is the decoded form of a JSON-RPC response.
type envelope struct {
	ID     any               `json:"id"`
	Result jsontext.Value    `json:"result"`
	Error  *a2a.JSONRPCError `json:"error"`
}

func (c *Client) call(ctx context.Context, req a2a.Request, taskID string, result any) error {
	ctx, span := c.tracer.Start(ctx, "a2a.client."+req.MethodName(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("a2a.task_id", taskID)),
	)
	defer span.End()

	resp, err := c.do(ctx, req, "application/json")
	if err != nil {
		span.RecordError(err)
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	env, err := decodeEnvelope(resp.StatusCode, body)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if env.Error != nil {
		span.RecordError(env.Error)
		return env.Error
	}
	if err := json.Unmarshal(env.Result, result); err != nil {
		return fmt.Errorf("decode %s result: %w", req.MethodName(), err)
	}
	return nil
}

func (c *Client) stream(ctx context.Context, req a2a.Request, taskID string) (<-chan StreamResponse, error) {
	ctx, span := c.tracer.Start(ctx, "a2a.client."+req.MethodName(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("a2a.task_id", taskID)),
	)

	resp, err := c.do(ctx, req, "text/event-stream")
	if err != nil {
		span.RecordError(err)
		span.End()
		return nil, err
	}

	// Errors raised before the stream opens come back as a plain envelope.
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		defer resp.Body.Close()
		defer span.End()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		env, err := decodeEnvelope(resp.StatusCode, body)
		if err != nil {
			return nil, err
		}
		if env.Error != nil {
			return nil, env.Error
		}
		return nil, fmt.Errorf("%s: expected an event stream", req.MethodName())
	}

	ch := make(chan StreamResponse, 8)
	go func() {
		defer span.End()
		defer resp.Body.Close()
		defer close(ch)

		emit := func(r StreamResponse) bool {
			select {
			case ch <- r:
				return true
			case <-ctx.Done():
				return false
			}
		}

		dec := sse.NewDecoder(resp.Body)
		for {
			ev, err := dec.Decode()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				if ctx.Err() == nil {
					emit(StreamResponse{Err: err})
				}
				return
			}

			var env envelope
			if err := json.Unmarshal([]byte(ev.Data), &env); err != nil {
				emit(StreamResponse{Err: fmt.Errorf("decode event: %w", err)})
				return
			}
			if env.Error != nil {
				emit(StreamResponse{Err: env.Error})
				return
			}
			te, err := a2a.DecodeTaskEvent(env.Result)
			if err != nil {
				emit(StreamResponse{Err: err})
				return
			}
			if !emit(StreamResponse{Event: te}) || te.IsFinal() {
				return
			}
		}
	}()
	return ch, nil
}

// do posts req through the interceptor chain.
func (c *Client) do(ctx context.Context, req a2a.Request, accept string) (*http.Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", req.MethodName(), err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", accept)

	invoker := func(_ context.Context, r *http.Request) (*http.Response, error) {
		return c.hc.Do(r)
	}
	resp, err := chainInterceptors(c.interceptors, invoker)(ctx, httpReq)
	if err != nil {
		return nil, &a2a.UnreachableRemoteError{Address: c.url, Err: err}
	}
	return resp, nil
}

// decodeEnvelope interprets a response body.
//
// JSON-RPC errors are answered with 200 or 400; 401 carries an auth error
// body; anything else without an envelope is an [*HTTPError].
func decodeEnvelope(status int, body []byte) (*envelope, error) {
	if status == http.StatusUnauthorized {
		var authBody struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &authBody); err != nil || authBody.Error == "" {
			return nil, &a2a.AuthError{Reason: http.StatusText(status)}
		}
		return nil, &a2a.AuthError{Reason: authBody.Error}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || (env.Error == nil && len(env.Result) == 0) {
		if status >= 200 && status < 300 && err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return nil, &HTTPError{StatusCode: status, Body: strings.TrimSpace(string(body))}
	}
	return &env, nil
}

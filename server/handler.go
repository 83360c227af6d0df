// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	a2a "github.com/go-a2a/a2a-purchasing"
	"github.com/go-a2a/a2a-purchasing/auth"
)

// handleJSONRPC decodes one JSON-RPC call and dispatches it to the task manager.
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		s.writeError(w, r, nil, "", &a2a.RequestDecodeError{Err: err})
		return
	}

	req, err := a2a.ParseRequest(body)
	if err != nil {
		var rejected *a2a.RejectedRequestError
		if errors.As(err, &rejected) {
			s.logger.DebugContext(r.Context(), "request rejected", "id", rejected.ID, "error", rejected.Err)
			s.writeError(w, r, rejected.ID, "", rejected.RPC)
			return
		}
		s.writeError(w, r, nil, "", err)
		return
	}
	s.logger.DebugContext(r.Context(), "rpc call",
		"method", req.MethodName(),
		"user", auth.UserFromContext(r.Context()).UserName(),
	)

	switch req := req.(type) {
	case *a2a.SendTaskRequest:
		s.handleSync(w, r, req, func(ctx context.Context) (any, error) {
			return s.taskManager.OnSendTask(ctx, req.Params)
		})
	case *a2a.GetTaskRequest:
		s.handleSync(w, r, req, func(ctx context.Context) (any, error) {
			return s.taskManager.OnGetTask(ctx, req.Params)
		})
	case *a2a.CancelTaskRequest:
		s.handleSync(w, r, req, func(ctx context.Context) (any, error) {
			return s.taskManager.OnCancelTask(ctx, req.Params)
		})
	case *a2a.SetTaskPushNotificationRequest:
		s.handleSync(w, r, req, func(ctx context.Context) (any, error) {
			return s.taskManager.OnSetTaskPushNotification(ctx, req.Params)
		})
	case *a2a.GetTaskPushNotificationRequest:
		s.handleSync(w, r, req, func(ctx context.Context) (any, error) {
			return s.taskManager.OnGetTaskPushNotification(ctx, req.Params)
		})
	case *a2a.SendTaskStreamingRequest:
		s.handleStream(w, r, req, func(ctx context.Context) (<-chan a2a.TaskEvent, error) {
			return s.taskManager.OnSendTaskSubscribe(ctx, req.Params)
		})
	case *a2a.TaskResubscriptionRequest:
		s.handleStream(w, r, req, func(ctx context.Context) (<-chan a2a.TaskEvent, error) {
			return s.taskManager.OnResubscribeToTask(ctx, req.Params)
		})
	default:
		s.writeError(w, r, req.RequestID(), req.MethodName(), a2a.NewMethodNotFoundError())
	}
}

// handleSync answers req with the single result of call.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request, req a2a.Request, call func(context.Context) (any, error)) {
	start := time.Now()
	method := req.MethodName()

	result, err := call(r.Context())
	requestLatency.Record(r.Context(), time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("rpc.method", method)))
	if err != nil {
		s.writeError(w, r, req.RequestID(), method, err)
		return
	}

	s.countRequest(r.Context(), method, "ok")
	writeJSON(w, http.StatusOK, a2a.NewResponse(req.RequestID(), result))
}

// handleStream answers req with a server-sent event stream.
//
// Errors raised before the stream opens are answered like a synchronous call.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request, req a2a.Request, open func(context.Context) (<-chan a2a.TaskEvent, error)) {
	ctx := r.Context()
	method := req.MethodName()

	events, err := open(ctx)
	if err != nil {
		s.writeError(w, r, req.RequestID(), method, err)
		return
	}

	stream, err := NewStream(w, req.RequestID())
	if err != nil {
		s.writeError(w, r, req.RequestID(), method, err)
		return
	}
	s.countRequest(ctx, method, "ok")

	activeStreams.Add(ctx, 1)
	defer activeStreams.Add(ctx, -1)

	if err := stream.Pump(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, "stream ended", "method", method, "error", err)
	}
}

// writeError maps err onto a JSON-RPC error envelope.
//
// Protocol errors are answered with 400, domain errors with 200.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, id any, method string, err error) {
	rpcErr := a2a.ToJSONRPCError(err)
	if rpcErr.Code == a2a.InternalErrorCode {
		s.logger.ErrorContext(r.Context(), "internal error", "method", method, "error", err)
	}

	status := http.StatusOK
	if a2a.IsProtocolError(rpcErr.Code) {
		status = http.StatusBadRequest
	}

	s.countRequest(r.Context(), method, "error")
	writeJSON(w, status, a2a.NewErrorResponse(id, rpcErr))
}

func (s *Server) countRequest(ctx context.Context, method, outcome string) {
	requestCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("rpc.method", method),
		attribute.String("outcome", outcome),
	))
}

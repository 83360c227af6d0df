// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"

	a2a "github.com/go-a2a/a2a-purchasing"
	"github.com/go-a2a/a2a-purchasing/internal/pool"
)

// errStreamingUnsupported is returned when the response writer cannot flush.
var errStreamingUnsupported = errors.New("streaming is not supported by the response writer")

// Stream writes JSON-RPC responses as server-sent events.
type Stream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	id      any
}

// NewStream sets the SSE headers on w and returns a stream answering request id.
func NewStream(w http.ResponseWriter, id any) (*Stream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // For Nginx proxy
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Stream{w: w, flusher: flusher, id: id}, nil
}

// Send writes one event whose data is a JSON-RPC response carrying ev.
func (s *Stream) Send(ev a2a.TaskEvent) error {
	return s.write(a2a.NewResponse(s.id, ev))
}

// SendError writes one event whose data is a JSON-RPC error response.
func (s *Stream) SendError(rpcErr *a2a.JSONRPCError) error {
	return s.write(a2a.NewErrorResponse(s.id, rpcErr))
}

func (s *Stream) write(resp *a2a.JSONRPCResponse) error {
	data, err := sonic.ConfigDefault.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	buf := pool.Bytes.Get()
	defer pool.PutBuffer(buf)
	buf.WriteString("data: ")
	buf.Write(data)
	buf.WriteString("\n\n")

	if _, err := s.w.Write(buf.Bytes()); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Pump forwards events to the stream until a final event is written, the
// channel closes or ctx is done.
func (s *Stream) Pump(ctx context.Context, events <-chan a2a.TaskEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.Send(ev); err != nil {
				return err
			}
			if ev.IsFinal() {
				return nil
			}
		}
	}
}

// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/go-a2a/a2a-purchasing/auth"
	"github.com/go-a2a/a2a-purchasing/push"
)

// Option represents an option for configuring the [Server].
type Option func(*Server)

// WithLogger sets the [*slog.Logger] for the [Server].
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithTracer sets the [trace.Tracer] for the [Server].
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Server) {
		s.tracer = tracer
	}
}

// WithGate guards the JSON-RPC endpoint with gate. Discovery endpoints stay public.
func WithGate(gate *auth.Gate) Option {
	return func(s *Server) {
		s.gate = gate
	}
}

// WithKeyManager publishes the push notification signing keys at [a2a.JWKSWellKnownPath].
func WithKeyManager(keys *push.KeyManager) Option {
	return func(s *Server) {
		s.keys = keys
	}
}

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

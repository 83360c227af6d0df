// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/go-a2a/a2a-purchasing/auth"
	"github.com/go-a2a/a2a-purchasing/client"
)

// Option configures an [Orchestrator].
type Option func(*Orchestrator)

// WithCredentials sets the credentials used for each remote, keyed by agent name.
func WithCredentials(creds map[string]auth.Credentials) Option {
	return func(o *Orchestrator) {
		o.credentials = creds
	}
}

// WithTaskCallback observes every task returned by a remote.
func WithTaskCallback(cb client.TaskCallback) Option {
	return func(o *Orchestrator) {
		o.callback = cb
	}
}

// WithHTTPClient sets the HTTP client used for discovery and task calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *Orchestrator) {
		o.hc = hc
	}
}

// WithClientOptions passes opts to every remote connection.
func WithClientOptions(opts ...client.Option) Option {
	return func(o *Orchestrator) {
		o.clientOpts = append(o.clientOpts, opts...)
	}
}

// WithLogger sets the logger of the orchestrator.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithTracer sets the tracer of the orchestrator.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = tracer
	}
}

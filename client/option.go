// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/go-a2a/a2a-purchasing/auth"
)

// Option represents an option for configuring the [Client].
type Option func(*Client)

// WithHTTPClient sets the [*http.Client] for the [Client].
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithInterceptors appends interceptors to the request chain.
func WithInterceptors(interceptors ...Interceptor) Option {
	return func(c *Client) {
		c.interceptors = append(c.interceptors, interceptors...)
	}
}

// WithCredentials authenticates every request with creds.
// Zero credentials are ignored.
func WithCredentials(creds auth.Credentials) Option {
	return func(c *Client) {
		if creds.IsZero() {
			return
		}
		c.interceptors = append(c.interceptors, CredentialsInterceptor(creds))
	}
}

// WithLogger sets the [*slog.Logger] for the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTracer sets the [trace.Tracer] for the [Client].
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}

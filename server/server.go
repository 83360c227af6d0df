// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes an agent over A2A JSON-RPC on HTTP.
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-json-experiment/json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	a2a "github.com/go-a2a/a2a-purchasing"
	"github.com/go-a2a/a2a-purchasing/auth"
	"github.com/go-a2a/a2a-purchasing/internal/pool"
	"github.com/go-a2a/a2a-purchasing/push"
)

// maxRequestBody bounds a JSON-RPC request body.
const maxRequestBody = 1 << 20

// Server implements the A2A protocol server.
type Server struct {
	taskManager TaskManager
	agentCard   *a2a.AgentCard
	router      chi.Router

	gate    *auth.Gate
	keys    *push.KeyManager
	metrics http.Handler
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewServer creates a new A2A server for card backed by tm.
//
// The served card is a copy of card whose capabilities reflect tm. The card
// must declare exactly one authentication scheme and [WithGate] must supply a
// gate enforcing it.
func NewServer(card *a2a.AgentCard, tm TaskManager, opts ...Option) (*Server, error) {
	if card == nil {
		return nil, errors.New("agent card is required")
	}
	if card.Name == "" || card.URL == "" {
		return nil, errors.New("agent card requires a name and a url")
	}
	if tm == nil {
		return nil, errors.New("task manager is required")
	}

	served := *card
	served.Capabilities.Streaming = true
	if p, ok := tm.(interface{ PushEnabled() bool }); ok {
		served.Capabilities.PushNotifications = p.PushEnabled()
	}

	s := &Server{
		taskManager: tm,
		agentCard:   &served,
		logger:      slog.Default(),
		tracer:      otel.GetTracerProvider().Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.checkGate(card.Schemes()); err != nil {
		return nil, err
	}

	newMetrics()
	s.router = s.routes()
	return s, nil
}

// checkGate reports a configuration error unless schemes names exactly one
// scheme and the configured gate enforces it.
func (s *Server) checkGate(schemes []string) error {
	switch len(schemes) {
	case 0:
		return &auth.ConfigError{Reason: "agent card declares no authentication scheme"}
	case 1:
	default:
		return &auth.ConfigError{Reason: fmt.Sprintf("agent card declares %d authentication schemes, want one", len(schemes))}
	}
	scheme, err := auth.ParseScheme(schemes[0])
	if err != nil {
		return fmt.Errorf("agent card: %w", err)
	}
	if s.gate == nil {
		return &auth.ConfigError{Reason: fmt.Sprintf("agent card declares %s but no gate is configured", scheme)}
	}
	if s.gate.Scheme() != scheme {
		return &auth.ConfigError{Reason: fmt.Sprintf("gate enforces %s but agent card declares %s", s.gate.Scheme(), scheme)}
	}
	return nil
}

// ServeHTTP implements the [http.Handler] interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// AgentCard returns the card served at [a2a.AgentCardWellKnownPath].
func (s *Server) AgentCard() *a2a.AgentCard {
	return s.agentCard
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get(a2a.AgentCardWellKnownPath, s.handleAgentCard)
	if s.keys != nil {
		r.Method(http.MethodGet, a2a.JWKSWellKnownPath, s.keys.JWKSHandler())
	}
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.gate.Middleware)
		r.Post("/", s.handleJSONRPC)
	})

	return r
}

// observe wraps every request in a span and logs its outcome.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, span := s.tracer.Start(r.Context(), "a2a.server.http",
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.path", r.URL.Path),
			),
		)
		defer span.End()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status_code", ww.Status()))
		s.logger.DebugContext(ctx, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.agentCard)
}

// writeJSON encodes v into a pooled buffer before touching w, so an encoding
// failure can still produce a clean 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	buf := pool.Bytes.Get()
	defer pool.PutBuffer(buf)

	if err := json.MarshalWrite(buf, v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

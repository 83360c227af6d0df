// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry installs the global OpenTelemetry tracer and meter providers.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/go-a2a/a2a-purchasing/internal/config"
)

// Provider owns the exporters installed by [Init].
type Provider struct {
	metrics   http.Handler
	shutdowns []func(context.Context) error
}

// Init installs the providers selected by cfg. Span output goes to w.
// With everything disabled the otel globals are left untouched.
func Init(ctx context.Context, cfg config.TelemetryConfig, w io.Writer) (*Provider, error) {
	p := &Provider{}
	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))

	if cfg.StdoutTraces {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("create stdout trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tp)
		p.shutdowns = append(p.shutdowns, tp.Shutdown)
	}

	if cfg.Metrics {
		reg := prometheus.NewRegistry()
		exp, err := otelprom.New(otelprom.WithRegisterer(reg))
		if err != nil {
			_ = p.Shutdown(ctx)
			return nil, fmt.Errorf("create prometheus exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(exp),
			sdkmetric.WithResource(res),
		)
		otel.SetMeterProvider(mp)
		p.shutdowns = append(p.shutdowns, mp.Shutdown)
		p.metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	return p, nil
}

// MetricsHandler serves the Prometheus scrape endpoint, or nil when metrics are disabled.
func (p *Provider) MetricsHandler() http.Handler {
	return p.metrics
}

// Shutdown flushes and stops every installed provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(p.shutdowns) - 1; i >= 0; i-- {
		if err := p.shutdowns[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	p.shutdowns = nil
	return errors.Join(errs...)
}

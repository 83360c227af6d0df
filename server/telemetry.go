// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/go-a2a/a2a-purchasing/server"

var (
	requestCounter    metric.Int64Counter
	transitionCounter metric.Int64Counter
	activeStreams     metric.Int64UpDownCounter
	requestLatency    metric.Float64Histogram
)

var metricOnce sync.Once

// newMetrics creates the server instruments once per process from the
// global meter provider. Instruments that fail to build fall back to no-ops.
func newMetrics() {
	metricOnce.Do(func() {
		m := otel.GetMeterProvider().Meter(instrumentationName)
		var err error

		requestCounter, err = m.Int64Counter("a2a.server.requests",
			metric.WithDescription("Count of JSON-RPC requests by method and outcome"),
		)
		if err != nil {
			otel.Handle(err)
			requestCounter = noop.Int64Counter{}
		}

		transitionCounter, err = m.Int64Counter("a2a.task.transitions",
			metric.WithDescription("Count of task status transitions by resulting state"),
		)
		if err != nil {
			otel.Handle(err)
			transitionCounter = noop.Int64Counter{}
		}

		activeStreams, err = m.Int64UpDownCounter("a2a.server.active_streams",
			metric.WithDescription("Open server-sent event streams"),
		)
		if err != nil {
			otel.Handle(err)
			activeStreams = noop.Int64UpDownCounter{}
		}

		requestLatency, err = m.Float64Histogram("a2a.server.request.duration",
			metric.WithDescription("Latency of synchronous JSON-RPC requests"),
			metric.WithUnit("s"),
		)
		if err != nil {
			otel.Handle(err)
			requestLatency = noop.Float64Histogram{}
		}
	})
}

// SPDX-FileCopyrightText: Copyright 2026 Seatwise, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package telemetry provides Prometheus metrics for the server: per-operation
// engine call counters and latencies, plus HTTP request counts by route.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the server. A nil *Metrics is
// valid and records nothing, so instrumentation call sites need no guards.
type Metrics struct {
	// Engine calls by operation and the action code the engine returned.
	// Transport failures are counted under the "error" action.
	EngineRequests *prometheus.CounterVec

	// Engine call latency by operation.
	EngineLatency *prometheus.HistogramVec

	// HTTP requests by method, route pattern and status code.
	HTTPRequests *prometheus.CounterVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates all metrics and registers them on the given registerer.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EngineRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "seatwise_engine_requests_total",
			Help: "Total decision engine calls by operation and returned action",
		}, []string{"operation", "action"}),

		EngineLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seatwise_engine_request_duration_seconds",
			Help:    "Decision engine call duration by operation",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "seatwise_http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
	}
}

// ObserveEngineCall records one engine call.
func (m *Metrics) ObserveEngineCall(operation, action string, d time.Duration) {
	if m != nil {
		m.EngineRequests.WithLabelValues(operation, action).Inc()
		m.EngineLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}

// IncrementHTTPRequest records one served HTTP request.
func (m *Metrics) IncrementHTTPRequest(method, route string, status int) {
	if m != nil {
		m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	}
}

// Middleware counts every request served below it. The route label uses the
// chi route pattern rather than the raw path so client IDs and tickets do
// not explode the cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		m.IncrementHTTPRequest(r.Method, route, ww.Status())
	})
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

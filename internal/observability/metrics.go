// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package observability sets up Prometheus metrics and OpenTelemetry tracing for the
// agent servers.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "a2a"

// Metrics holds the collectors of one server. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	rpcRequests      *prometheus.CounterVec
	rpcDuration      *prometheus.HistogramVec
	taskTransitions  *prometheus.CounterVec
	pushNotification *prometheus.CounterVec
	agentDuration    *prometheus.HistogramVec
}

// NewMetrics registers the collectors on a fresh registry together with the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rpcRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jsonrpc_requests_total",
				Help:      "Total number of JSON-RPC requests by method and result code.",
			},
			[]string{"method", "code"},
		),
		rpcDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "jsonrpc_request_duration_seconds",
				Help:      "JSON-RPC request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		taskTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "task_state_transitions_total",
				Help:      "Total number of persisted task status changes by target state.",
			},
			[]string{"state"},
		),
		pushNotification: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "push_notifications_total",
				Help:      "Total number of push notification deliveries by outcome.",
			},
			[]string{"outcome"},
		),
		agentDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "agent_invocation_duration_seconds",
				Help:      "Agent invocation duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"mode"},
		),
	}
	m.registry.MustRegister(
		m.rpcRequests,
		m.rpcDuration,
		m.taskTransitions,
		m.pushNotification,
		m.agentDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one JSON-RPC request. code is 0 for success.
func (m *Metrics) ObserveRequest(method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.rpcDuration.WithLabelValues(method).Observe(d.Seconds())
}

// TaskTransition records a persisted status change.
func (m *Metrics) TaskTransition(state string) {
	if m == nil {
		return
	}
	m.taskTransitions.WithLabelValues(state).Inc()
}

// PushNotification records a delivery attempt.
func (m *Metrics) PushNotification(ok bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.pushNotification.WithLabelValues(outcome).Inc()
}

// AgentInvocation records how long the agent took. mode is "invoke" or "stream".
func (m *Metrics) AgentInvocation(mode string, d time.Duration) {
	if m == nil {
		return
	}
	m.agentDuration.WithLabelValues(mode).Observe(d.Seconds())
}

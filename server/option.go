// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/go-a2a/a2a-samples/internal/observability"
	"github.com/go-a2a/a2a-samples/server/task"
)

// Option represents an option for configuring the [A2AServer].
type Option func(*A2AServer)

// WithEndpoint sets the path JSON-RPC requests are accepted on. Defaults to "/".
func WithEndpoint(endpoint string) Option {
	return func(s *A2AServer) {
		s.endpoint = endpoint
	}
}

// WithLogger sets the [*slog.Logger] for the [A2AServer].
func WithLogger(logger *slog.Logger) Option {
	return func(s *A2AServer) {
		s.logger = logger
	}
}

// WithTracer sets the [trace.Tracer] for the [A2AServer].
func WithTracer(tracer trace.Tracer) Option {
	return func(s *A2AServer) {
		s.tracer = tracer
	}
}

// WithMetrics exposes m on GET /metrics and records request metrics into it.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *A2AServer) {
		s.metrics = m
	}
}

// WithJWKSHandler serves h on GET /.well-known/jwks.json.
func WithJWKSHandler(h http.Handler) Option {
	return func(s *A2AServer) {
		s.jwks = h
	}
}

// TaskManagerOption configures a [BaseTaskManager].
type TaskManagerOption func(*BaseTaskManager)

// WithTaskStore sets the task store. Defaults to [task.NewInMemoryTaskStore].
func WithTaskStore(store task.TaskStore) TaskManagerOption {
	return func(tm *BaseTaskManager) {
		tm.store = store
	}
}

// WithPushNotificationConfigStore sets the push notification config store.
// Defaults to [task.NewInMemoryPushNotificationConfigStore].
func WithPushNotificationConfigStore(store task.PushNotificationConfigStore) TaskManagerOption {
	return func(tm *BaseTaskManager) {
		tm.pushStore = store
	}
}

// WithTaskManagerLogger sets the [*slog.Logger] for the task manager.
func WithTaskManagerLogger(logger *slog.Logger) TaskManagerOption {
	return func(tm *BaseTaskManager) {
		tm.logger = logger
	}
}

// WithTaskManagerTracer sets the [trace.Tracer] for the task manager.
func WithTaskManagerTracer(tracer trace.Tracer) TaskManagerOption {
	return func(tm *BaseTaskManager) {
		tm.tracer = tracer
	}
}

// WithTaskManagerMetrics records task transitions, push deliveries and agent
// timings into m.
func WithTaskManagerMetrics(m *observability.Metrics) TaskManagerOption {
	return func(tm *BaseTaskManager) {
		tm.metrics = m
	}
}

// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	m.ObserveRequest("tasks/send", 0, 10*time.Millisecond)
	m.ObserveRequest("tasks/send", 0, 20*time.Millisecond)
	m.ObserveRequest("tasks/get", -32001, time.Millisecond)
	m.TaskTransition("working")
	m.TaskTransition("completed")
	m.PushNotification(true)
	m.PushNotification(false)
	m.AgentInvocation("invoke", time.Second)

	if got := testutil.ToFloat64(m.rpcRequests.WithLabelValues("tasks/send", "0")); got != 2 {
		t.Errorf("tasks/send requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.rpcRequests.WithLabelValues("tasks/get", "-32001")); got != 1 {
		t.Errorf("tasks/get requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.pushNotification.WithLabelValues("failure")); got != 1 {
		t.Errorf("push failures = %v, want 1", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		"a2a_jsonrpc_requests_total",
		"a2a_task_state_transitions_total",
		"a2a_agent_invocation_duration_seconds",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("tasks/send", 0, time.Millisecond)
	m.TaskTransition("working")
	m.PushNotification(true)
	m.AgentInvocation("stream", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("nil metrics handler status = %d, want 404", rec.Code)
	}
}

func TestSetupTracing(t *testing.T) {
	ctx := context.Background()

	shutdown, err := SetupTracing(ctx, TracingConfig{Exporter: ExporterNone})
	if err != nil {
		t.Fatalf("SetupTracing(none): %v", err)
	}
	if err := shutdown(ctx); err != nil {
		t.Errorf("shutdown(none): %v", err)
	}

	if _, err := SetupTracing(ctx, TracingConfig{Exporter: "zipkin"}); err == nil {
		t.Error("SetupTracing(zipkin) succeeded, want error")
	}

	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err = SetupTracing(ctx, TracingConfig{ServiceName: "test", Exporter: ExporterStdout, Writer: &buf})
	if err != nil {
		t.Fatalf("SetupTracing(stdout): %v", err)
	}
	_, span := otel.Tracer("test").Start(ctx, "a2a.task_manager.OnSendTask")
	span.End()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown(stdout): %v", err)
	}
	if !strings.Contains(buf.String(), "a2a.task_manager.OnSendTask") {
		t.Errorf("exported spans missing span name:\n%s", buf.String())
	}
}

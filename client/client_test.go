// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client_test

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	a2a "github.com/go-a2a/a2a-samples"
	"github.com/go-a2a/a2a-samples/agent"
	"github.com/go-a2a/a2a-samples/auth"
	"github.com/go-a2a/a2a-samples/client"
	"github.com/go-a2a/a2a-samples/server"
)

type echoAgent struct{}

func (echoAgent) SupportedContentTypes() []string { return []string{"text"} }

func (echoAgent) Invoke(ctx context.Context, query, sessionID string) (string, error) {
	return "echo: " + query, nil
}

func (echoAgent) Stream(ctx context.Context, query, sessionID string) iter.Seq2[agent.StreamEvent, error] {
	return func(yield func(agent.StreamEvent, error) bool) {
		if !yield(agent.Progress("thinking"), nil) {
			return
		}
		yield(agent.Done(agent.Text("echo: "+query)), nil)
	}
}

type testAgent struct {
	url    string
	sender *auth.PushNotificationSenderAuth
}

func newTestAgent(t *testing.T, caps a2a.AgentCapabilities) *testAgent {
	t.Helper()
	sender := auth.NewPushNotificationSenderAuth()
	if err := sender.GenerateJWK(); err != nil {
		t.Fatalf("GenerateJWK: %v", err)
	}
	tm := server.NewAgentTaskManager(echoAgent{}, sender)

	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	card := &a2a.AgentCard{
		Name:               "Echo Agent",
		URL:                ts.URL + "/",
		Version:            "1.0.0",
		Capabilities:       caps,
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
		Skills:             []a2a.AgentSkill{{ID: "echo", Name: "Echo"}},
	}
	s, err := server.NewA2AServer(card, tm, server.WithJWKSHandler(sender.JWKSHandler()))
	if err != nil {
		t.Fatalf("NewA2AServer: %v", err)
	}
	mux.Handle("/", s)
	return &testAgent{url: ts.URL, sender: sender}
}

func newClient(t *testing.T, caps a2a.AgentCapabilities) (*client.Client, *testAgent) {
	t.Helper()
	ta := newTestAgent(t, caps)
	card, err := client.NewCardResolver(ta.url, nil).GetAgentCard(context.Background())
	if err != nil {
		t.Fatalf("GetAgentCard: %v", err)
	}
	return client.NewFromCard(card), ta
}

func sendParams(id, text string) a2a.TaskSendParams {
	return a2a.TaskSendParams{
		ID:        id,
		SessionID: "s1",
		Message:   a2a.Message{Role: a2a.RoleUser, Parts: []a2a.Part{a2a.NewTextPart(text)}},
	}
}

var ignoreTimestamp = cmpopts.IgnoreFields(a2a.TaskStatus{}, "Timestamp")

func TestSendAndGetTask(t *testing.T) {
	c, _ := newClient(t, a2a.AgentCapabilities{})
	ctx := context.Background()

	task, err := c.SendTask(ctx, sendParams("t1", "hello"))
	if err != nil {
		t.Fatalf("SendTask: %v", err)
	}
	if task.Status.State != a2a.TaskStateCompleted {
		t.Errorf("state = %s, want %s", task.Status.State, a2a.TaskStateCompleted)
	}
	wantArtifacts := []a2a.Artifact{a2a.NewArtifact(a2a.NewTextPart("echo: hello"))}
	if diff := cmp.Diff(wantArtifacts, task.Artifacts); diff != "" {
		t.Errorf("artifacts mismatch (-want +got):\n%s", diff)
	}

	zero := 0
	got, err := c.GetTask(ctx, a2a.TaskQueryParams{ID: "t1", HistoryLength: &zero})
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if diff := cmp.Diff(task.Status, got.Status, ignoreTimestamp); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
	if len(got.History) != 0 {
		t.Errorf("history = %d messages, want 0", len(got.History))
	}
}

func TestRPCErrors(t *testing.T) {
	c, _ := newClient(t, a2a.AgentCapabilities{})
	ctx := context.Background()

	_, err := c.GetTask(ctx, a2a.TaskQueryParams{ID: "missing"})
	if !client.IsTaskNotFoundError(err) {
		t.Errorf("GetTask(missing) error = %v, want task not found", err)
	}

	if _, err := c.SendTask(ctx, sendParams("t1", "hi")); err != nil {
		t.Fatalf("SendTask: %v", err)
	}
	_, err = c.CancelTask(ctx, a2a.TaskIDParams{ID: "t1"})
	if !client.IsTaskNotCancelableError(err) {
		t.Errorf("CancelTask error = %v, want not cancelable", err)
	}

	_, err = c.GetTaskPushNotification(ctx, a2a.TaskIDParams{ID: "t1"})
	if !client.IsPushNotificationNotSupportedError(err) {
		t.Errorf("GetTaskPushNotification error = %v, want not supported", err)
	}

	params := sendParams("t2", "hi")
	params.AcceptedOutputModes = []string{"image/png"}
	_, err = c.SendTask(ctx, params)
	if !client.IsContentTypeNotSupportedError(err) {
		t.Errorf("SendTask(image/png) error = %v, want content type not supported", err)
	}

	for _, err := range c.SendTaskSubscribe(ctx, sendParams("t3", "hi")) {
		if !client.IsUnsupportedOperationError(err) {
			t.Errorf("SendTaskSubscribe error = %v, want unsupported operation", err)
		}
	}
}

func TestSendTaskSubscribe(t *testing.T) {
	c, _ := newClient(t, a2a.AgentCapabilities{Streaming: true})
	ctx := context.Background()

	var (
		states    []a2a.TaskState
		artifacts []a2a.Artifact
		final     bool
	)
	for ev, err := range c.SendTaskSubscribe(ctx, sendParams("t1", "hello")) {
		if err != nil {
			t.Fatalf("stream: %v", err)
		}
		switch ev := ev.(type) {
		case *a2a.TaskStatusUpdateEvent:
			states = append(states, ev.Status.State)
			final = ev.Final
		case *a2a.TaskArtifactUpdateEvent:
			artifacts = append(artifacts, ev.Artifact)
		}
	}

	if !final {
		t.Error("last status event is not final")
	}
	wantStates := []a2a.TaskState{a2a.TaskStateWorking, a2a.TaskStateCompleted, a2a.TaskStateCompleted}
	if diff := cmp.Diff(wantStates, states); diff != "" {
		t.Errorf("states mismatch (-want +got):\n%s", diff)
	}
	wantArtifacts := []a2a.Artifact{a2a.NewArtifact(a2a.NewTextPart("echo: hello"))}
	if diff := cmp.Diff(wantArtifacts, artifacts); diff != "" {
		t.Errorf("artifacts mismatch (-want +got):\n%s", diff)
	}

	for _, err := range c.Resubscribe(ctx, a2a.TaskQueryParams{ID: "t1"}) {
		if !client.IsUnsupportedOperationError(err) {
			t.Errorf("Resubscribe error = %v, want unsupported operation", err)
		}
	}
}

func TestPushNotifications(t *testing.T) {
	c, ta := newClient(t, a2a.AgentCapabilities{PushNotifications: true})
	ctx := context.Background()

	receiver := auth.NewPushNotificationReceiverAuth()
	if err := receiver.LoadJWKS(ctx, ta.url+"/.well-known/jwks.json"); err != nil {
		t.Fatalf("LoadJWKS: %v", err)
	}

	var (
		mu     sync.Mutex
		states []a2a.TaskState
	)
	listener := client.NewPushListener(func(ctx context.Context, task *a2a.Task) error {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, task.Status.State)
		return nil
	}, receiver, nil)
	hook := httptest.NewServer(listener)
	t.Cleanup(hook.Close)

	params := sendParams("t1", "hello")
	params.PushNotification = &a2a.PushNotificationConfig{URL: hook.URL + "/notify"}
	if _, err := c.SendTask(ctx, params); err != nil {
		t.Fatalf("SendTask: %v", err)
	}

	mu.Lock()
	got := states
	mu.Unlock()
	want := []a2a.TaskState{a2a.TaskStateWorking, a2a.TaskStateCompleted}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("notified states mismatch (-want +got):\n%s", diff)
	}

	cfg, err := c.GetTaskPushNotification(ctx, a2a.TaskIDParams{ID: "t1"})
	if err != nil {
		t.Fatalf("GetTaskPushNotification: %v", err)
	}
	if cfg.PushNotificationConfig.URL != hook.URL+"/notify" {
		t.Errorf("url = %q", cfg.PushNotificationConfig.URL)
	}
}

func TestPushListenerRejectsUnsigned(t *testing.T) {
	receiver := auth.NewPushNotificationReceiverAuth()
	listener := client.NewPushListener(func(context.Context, *a2a.Task) error {
		t.Error("handler called for an unsigned notification")
		return nil
	}, receiver, nil)

	rec := httptest.NewRecorder()
	listener.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/notify", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = httptest.NewRecorder()
	listener.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notify?validationToken=abc", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "abc" {
		t.Errorf("validation = %d %q, want 200 abc", rec.Code, rec.Body.String())
	}
}

func TestRetryInterceptor(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":"1","result":{"id":"t1","status":{"state":"completed"}}}`))
	}))
	t.Cleanup(ts.Close)

	retry := client.RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	c := client.New(ts.URL, client.WithRetry(retry))
	task, err := c.GetTask(context.Background(), a2a.TaskQueryParams{ID: "t1"})
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.Status.State != a2a.TaskStateCompleted || calls.Load() != 3 {
		t.Errorf("state = %s after %d calls", task.Status.State, calls.Load())
	}

	calls.Store(-10)
	retry.MaxRetries = 1
	c = client.New(ts.URL, client.WithRetry(retry))
	_, err = c.GetTask(context.Background(), a2a.TaskQueryParams{ID: "t1"})
	var httpErr *client.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("error = %v, want 503", err)
	}
}

func TestBearerToken(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`{"jsonrpc":"2.0","id":"1","result":{"id":"t1","status":{"state":"working"}}}`))
	}))
	t.Cleanup(ts.Close)

	c := client.New(ts.URL, client.WithBearerToken("secret"))
	if _, err := c.GetTask(context.Background(), a2a.TaskQueryParams{ID: "t1"}); err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got != "Bearer secret" {
		t.Errorf("Authorization = %q", got)
	}
}

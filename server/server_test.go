// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server_test

import (
	"bufio"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/go-cmp/cmp"

	a2a "github.com/go-a2a/a2a-samples"
	"github.com/go-a2a/a2a-samples/agent"
	"github.com/go-a2a/a2a-samples/auth"
	"github.com/go-a2a/a2a-samples/internal/observability"
	"github.com/go-a2a/a2a-samples/server"
)

func testCard(caps a2a.AgentCapabilities) *a2a.AgentCard {
	return &a2a.AgentCard{
		Name:               "Test Agent",
		URL:                "http://localhost:10002/",
		Version:            "1.0.0",
		Capabilities:       caps,
		DefaultInputModes:  []string{"text", "text/plain"},
		DefaultOutputModes: []string{"text", "text/plain"},
		Skills:             []a2a.AgentSkill{{ID: "echo", Name: "Echo"}},
	}
}

func newTestServer(t *testing.T, caps a2a.AgentCapabilities, a *fakeAgent, opts ...server.Option) *httptest.Server {
	t.Helper()
	tm, _, _ := newManager(a)
	s, err := server.NewA2AServer(testCard(caps), tm, opts...)
	if err != nil {
		t.Fatalf("NewA2AServer: %v", err)
	}
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return ts
}

// rpcResponse keeps the result raw so each test decodes it into its own type.
type rpcResponse struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      any               `json:"id"`
	Result  jsontext.Value    `json:"result,omitzero"`
	Error   *a2a.JSONRPCError `json:"error,omitzero"`
}

func post(t *testing.T, url, body string) (*http.Response, rpcResponse) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	var out rpcResponse
	if err := json.UnmarshalRead(resp.Body, &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, out
}

func TestNewA2AServerRejectsInvalidCard(t *testing.T) {
	card := testCard(a2a.AgentCapabilities{})
	card.Skills = nil
	if _, err := server.NewA2AServer(card, server.NewAgentTaskManager(&fakeAgent{}, nil)); err == nil {
		t.Error("NewA2AServer accepted a card without skills")
	}
	if _, err := server.NewA2AServer(testCard(a2a.AgentCapabilities{}), nil); err == nil {
		t.Error("NewA2AServer accepted a nil task manager")
	}
}

func TestAgentCardEndpoint(t *testing.T) {
	ts := newTestServer(t, a2a.AgentCapabilities{Streaming: true}, &fakeAgent{})

	resp, err := http.Get(ts.URL + "/.well-known/agent.json")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var got a2a.AgentCard
	if err := json.UnmarshalRead(resp.Body, &got); err != nil {
		t.Fatalf("decode card: %v", err)
	}
	if diff := cmp.Diff(testCard(a2a.AgentCapabilities{Streaming: true}), &got); diff != "" {
		t.Errorf("agent card mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONRPCErrors(t *testing.T) {
	ts := newTestServer(t, a2a.AgentCapabilities{}, &fakeAgent{result: "ok"})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   int
	}{
		{name: "parse error", body: `{"jsonrpc":`, wantStatus: http.StatusBadRequest, wantCode: a2a.JSONParseErrorCode},
		{name: "wrong version", body: `{"jsonrpc":"1.0","id":1,"method":"tasks/get"}`, wantStatus: http.StatusBadRequest, wantCode: a2a.InvalidRequestErrorCode},
		{name: "unknown method", body: `{"jsonrpc":"2.0","id":1,"method":"tasks/unknown","params":{}}`, wantStatus: http.StatusOK, wantCode: a2a.MethodNotFoundErrorCode},
		{name: "invalid params", body: `{"jsonrpc":"2.0","id":1,"method":"tasks/send","params":{"id":""}}`, wantStatus: http.StatusOK, wantCode: a2a.InvalidParamsErrorCode},
		{name: "task not found", body: `{"jsonrpc":"2.0","id":1,"method":"tasks/get","params":{"id":"nope"}}`, wantStatus: http.StatusOK, wantCode: a2a.TaskNotFoundErrorCode},
		{name: "push not supported", body: `{"jsonrpc":"2.0","id":1,"method":"tasks/pushNotification/get","params":{"id":"t"}}`, wantStatus: http.StatusOK, wantCode: a2a.PushNotificationNotSupportedErrorCode},
		{name: "streaming not supported", body: `{"jsonrpc":"2.0","id":1,"method":"tasks/sendSubscribe","params":{"id":"t","message":{"role":"user","parts":[{"type":"text","text":"hi"}]}}}`, wantStatus: http.StatusOK, wantCode: a2a.UnsupportedOperationErrorCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := post(t, ts.URL, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if out.Error == nil {
				t.Fatalf("response carries no error: %+v", out)
			}
			if out.Error.Code != tt.wantCode {
				t.Errorf("error code = %d, want %d", out.Error.Code, tt.wantCode)
			}
			if out.JSONRPC != a2a.JSONRPCVersion {
				t.Errorf("jsonrpc = %q", out.JSONRPC)
			}
		})
	}
}

func TestTasksSendAndGet(t *testing.T) {
	ts := newTestServer(t, a2a.AgentCapabilities{}, &fakeAgent{result: "MISSING_INFO: due date"})

	_, out := post(t, ts.URL, `{"jsonrpc":"2.0","id":"req-1","method":"tasks/send","params":{
		"id":"task-1","sessionId":"s1",
		"message":{"role":"user","parts":[{"type":"text","text":"track my report"}]}}}`)
	if out.Error != nil {
		t.Fatalf("tasks/send error: %v", out.Error)
	}
	if out.ID != "req-1" {
		t.Errorf("response id = %v, want req-1", out.ID)
	}
	var sent a2a.Task
	if err := json.Unmarshal(out.Result, &sent); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	if sent.Status.State != a2a.TaskStateInputRequired {
		t.Errorf("state = %s, want %s", sent.Status.State, a2a.TaskStateInputRequired)
	}

	_, out = post(t, ts.URL, `{"jsonrpc":"2.0","id":2,"method":"tasks/get","params":{"id":"task-1","historyLength":0}}`)
	if out.Error != nil {
		t.Fatalf("tasks/get error: %v", out.Error)
	}
	var got a2a.Task
	if err := json.Unmarshal(out.Result, &got); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	if got.ID != "task-1" || len(got.History) != 0 || len(got.Artifacts) != 1 {
		t.Errorf("tasks/get = %+v", got)
	}
}

func readEvents(t *testing.T, r io.Reader) []*a2a.SendTaskStreamingResponse {
	t.Helper()
	var events []*a2a.SendTaskStreamingResponse
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		data, ok := strings.CutPrefix(sc.Text(), "data: ")
		if !ok {
			continue
		}
		ev := new(a2a.SendTaskStreamingResponse)
		if err := json.Unmarshal([]byte(data), ev); err != nil {
			t.Fatalf("decode event %q: %v", data, err)
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("read stream: %v", err)
	}
	return events
}

func TestTasksSendSubscribe(t *testing.T) {
	a := &fakeAgent{events: []agent.StreamEvent{
		agent.Progress("Processing the activity tracking request..."),
		agent.Done(agent.Text("Activity added.")),
	}}
	ts := newTestServer(t, a2a.AgentCapabilities{Streaming: true}, a)

	resp, err := http.Post(ts.URL, "application/json", strings.NewReader(`{"jsonrpc":"2.0","id":7,"method":"tasks/sendSubscribe","params":{
		"id":"task-1","message":{"role":"user","parts":[{"type":"text","text":"add report"}]}}}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q, want text/event-stream", ct)
	}
	events := readEvents(t, resp.Body)

	var kinds []string
	for _, ev := range events {
		switch r := ev.Result.(type) {
		case *a2a.TaskStatusUpdateEvent:
			kind := "status:" + string(r.Status.State)
			if r.Final {
				kind += ":final"
			}
			kinds = append(kinds, kind)
		case *a2a.TaskArtifactUpdateEvent:
			kinds = append(kinds, "artifact:"+a2a.TextParts(r.Artifact.Parts)[0])
		default:
			t.Fatalf("unexpected event %+v", ev)
		}
	}
	want := []string{
		"status:working",
		"status:completed",
		"artifact:Activity added.",
		"status:completed:final",
	}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("event sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestTasksSendSubscribeValidationError(t *testing.T) {
	ts := newTestServer(t, a2a.AgentCapabilities{Streaming: true}, &fakeAgent{modes: []string{"text"}})

	resp, out := post(t, ts.URL, `{"jsonrpc":"2.0","id":1,"method":"tasks/sendSubscribe","params":{
		"id":"task-1","acceptedOutputModes":["image/png"],
		"message":{"role":"user","parts":[{"type":"text","text":"hi"}]}}}`)
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}
	if out.Error == nil || out.Error.Code != a2a.ContentTypeNotSupportedErrorCode {
		t.Errorf("error = %+v, want code %d", out.Error, a2a.ContentTypeNotSupportedErrorCode)
	}
}

func TestPushNotificationMethods(t *testing.T) {
	ts := newTestServer(t, a2a.AgentCapabilities{PushNotifications: true}, &fakeAgent{result: "ok"})

	_, out := post(t, ts.URL, `{"jsonrpc":"2.0","id":1,"method":"tasks/send","params":{
		"id":"task-1","message":{"role":"user","parts":[{"type":"text","text":"hi"}]}}}`)
	if out.Error != nil {
		t.Fatalf("tasks/send error: %v", out.Error)
	}

	_, out = post(t, ts.URL, `{"jsonrpc":"2.0","id":2,"method":"tasks/pushNotification/set","params":{
		"id":"task-1","pushNotificationConfig":{"url":"`+hookURL+`"}}}`)
	if out.Error != nil {
		t.Fatalf("set error: %v", out.Error)
	}

	_, out = post(t, ts.URL, `{"jsonrpc":"2.0","id":3,"method":"tasks/pushNotification/get","params":{"id":"task-1"}}`)
	if out.Error != nil {
		t.Fatalf("get error: %v", out.Error)
	}
	var got a2a.TaskPushNotificationConfig
	if err := json.Unmarshal(out.Result, &got); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if got.PushNotificationConfig.URL != hookURL {
		t.Errorf("url = %q, want %q", got.PushNotificationConfig.URL, hookURL)
	}

	_, out = post(t, ts.URL, `{"jsonrpc":"2.0","id":4,"method":"tasks/pushNotification/set","params":{
		"id":"task-1","pushNotificationConfig":{"url":""}}}`)
	if out.Error == nil || out.Error.Code != a2a.InvalidParamsErrorCode {
		t.Errorf("empty url error = %+v", out.Error)
	}
}

func TestWellKnownJWKSAndMetrics(t *testing.T) {
	sender := auth.NewPushNotificationSenderAuth()
	if err := sender.GenerateJWK(); err != nil {
		t.Fatalf("GenerateJWK: %v", err)
	}
	metrics := observability.NewMetrics()
	ts := newTestServer(t, a2a.AgentCapabilities{}, &fakeAgent{result: "ok"},
		server.WithJWKSHandler(sender.JWKSHandler()),
		server.WithMetrics(metrics),
	)

	post(t, ts.URL, `{"jsonrpc":"2.0","id":1,"method":"tasks/get","params":{"id":"nope"}}`)

	resp, err := http.Get(ts.URL + "/.well-known/jwks.json")
	if err != nil {
		t.Fatalf("GET jwks: %v", err)
	}
	var jwks struct {
		Keys []map[string]any `json:"keys"`
	}
	err = json.UnmarshalRead(resp.Body, &jwks)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("decode jwks: %v", err)
	}
	if len(jwks.Keys) != 1 {
		t.Errorf("jwks keys = %d, want 1", len(jwks.Keys))
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `a2a_jsonrpc_requests_total{code="-32001",method="tasks/get"} 1`) {
		t.Errorf("metrics output missing request counter:\n%s", body)
	}
}

func TestWithEndpoint(t *testing.T) {
	ts := newTestServer(t, a2a.AgentCapabilities{}, &fakeAgent{result: "ok"}, server.WithEndpoint("/a2a"))

	resp, out := post(t, ts.URL+"/a2a", `{"jsonrpc":"2.0","id":1,"method":"tasks/get","params":{"id":"nope"}}`)
	if resp.StatusCode != http.StatusOK || out.Error == nil || out.Error.Code != a2a.TaskNotFoundErrorCode {
		t.Errorf("POST /a2a = %d %+v", resp.StatusCode, out.Error)
	}
}

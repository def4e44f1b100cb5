// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/google/go-cmp/cmp"
)

func TestTaskStateIsTerminal(t *testing.T) {
	tests := map[TaskState]bool{
		TaskStateSubmitted:     false,
		TaskStateWorking:       false,
		TaskStateInputRequired: false,
		TaskStateCompleted:     true,
		TaskStateCanceled:      true,
		TaskStateFailed:        true,
	}
	for state, want := range tests {
		t.Run(string(state), func(t *testing.T) {
			if got := state.IsTerminal(); got != want {
				t.Errorf("IsTerminal() = %v, want %v", got, want)
			}
		})
	}
}

func TestPartJSON(t *testing.T) {
	tests := []struct {
		name string
		part Part
		want string
	}{
		{
			name: "text",
			part: NewTextPart("hello"),
			want: `{"type":"text","text":"hello"}`,
		},
		{
			name: "data",
			part: NewDataPart(map[string]any{"k": "v"}),
			want: `{"type":"data","data":{"k":"v"}}`,
		},
		{
			name: "file by uri",
			part: NewFilePart(FileContent{Name: "a.xlsx", URI: "file:///tmp/a.xlsx"}),
			want: `{"type":"file","file":{"name":"a.xlsx","uri":"file:///tmp/a.xlsx"}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.part, json.Deterministic(true))
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if diff := cmp.Diff(tt.want, string(got)); diff != "" {
				t.Errorf("Marshal mismatch (-want +got):\n%s", diff)
			}
			if err := tt.part.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestPartValidate(t *testing.T) {
	tests := []struct {
		name string
		part Part
	}{
		{name: "unknown type", part: Part{Type: "image"}},
		{name: "data without data", part: Part{Type: PartTypeData}},
		{name: "file without file", part: Part{Type: PartTypeFile}},
		{name: "file with both", part: NewFilePart(FileContent{Bytes: "AA==", URI: "x"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.part.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestTaskClone(t *testing.T) {
	orig := &Task{
		ID:        "task-1",
		SessionID: "session-1",
		Status:    NewTaskStatus(TaskStateWorking, NewAgentTextMessage("thinking")),
		Artifacts: []Artifact{NewArtifact(NewDataPart(map[string]any{"a": 1.0}))},
		History:   []Message{{Role: RoleUser, Parts: []Part{NewTextPart("hi")}}},
		Metadata:  map[string]any{"m": "v"},
	}

	c := orig.Clone()
	if diff := cmp.Diff(orig, c); diff != "" {
		t.Fatalf("Clone mismatch (-want +got):\n%s", diff)
	}

	c.Artifacts[0].Parts[0].Data["a"] = 2.0
	c.Status.Message.Parts[0].Text = "changed"
	c.History[0].Parts[0].Text = "changed"
	c.Metadata["m"] = "changed"

	if orig.Artifacts[0].Parts[0].Data["a"] != 1.0 {
		t.Error("artifact data shared with clone")
	}
	if orig.Status.Message.Parts[0].Text != "thinking" {
		t.Error("status message shared with clone")
	}
	if orig.History[0].Parts[0].Text != "hi" {
		t.Error("history shared with clone")
	}
	if orig.Metadata["m"] != "v" {
		t.Error("metadata shared with clone")
	}
}

func TestTaskWithHistory(t *testing.T) {
	msg := func(s string) Message { return Message{Role: RoleUser, Parts: []Part{NewTextPart(s)}} }
	task := &Task{ID: "t", History: []Message{msg("1"), msg("2"), msg("3")}}
	intp := func(n int) *int { return &n }

	tests := []struct {
		name string
		n    *int
		want []Message
	}{
		{name: "nil keeps all", n: nil, want: task.History},
		{name: "zero drops", n: intp(0), want: nil},
		{name: "last two", n: intp(2), want: []Message{msg("2"), msg("3")}},
		{name: "larger than history", n: intp(10), want: task.History},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := task.WithHistory(tt.n)
			if diff := cmp.Diff(tt.want, got.History); diff != "" {
				t.Errorf("History mismatch (-want +got):\n%s", diff)
			}
		})
	}
	if len(task.History) != 3 {
		t.Errorf("WithHistory mutated the receiver: %d messages left", len(task.History))
	}
}

func TestSendTaskStreamingResponseUnmarshal(t *testing.T) {
	ts := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		resp *SendTaskStreamingResponse
	}{
		{
			name: "status event",
			resp: NewStreamingEvent("1", &TaskStatusUpdateEvent{
				ID:     "task-1",
				Status: TaskStatus{State: TaskStateCompleted, Timestamp: ts},
				Final:  true,
			}),
		},
		{
			name: "artifact event",
			resp: NewStreamingEvent("2", &TaskArtifactUpdateEvent{
				ID:       "task-1",
				Artifact: NewArtifact(NewTextPart("done")),
			}),
		},
		{
			name: "error",
			resp: NewStreamingError("3", NewInternalError("An error occurred while streaming the response")),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.resp)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			var got SendTaskStreamingResponse
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if diff := cmp.Diff(tt.resp, &got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAsJSONRPCError(t *testing.T) {
	notFound := NewTaskNotFoundError()
	wrapped := fmt.Errorf("lookup: %w", notFound)

	if got := AsJSONRPCError(wrapped); got != notFound {
		t.Errorf("AsJSONRPCError(wrapped) = %v, want %v", got, notFound)
	}

	got := AsJSONRPCError(errors.New("boom"))
	want := &JSONRPCError{Code: InternalErrorCode, Message: "boom"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AsJSONRPCError mismatch (-want +got):\n%s", diff)
	}
}

func TestTaskSendParamsValidate(t *testing.T) {
	valid := TaskSendParams{
		ID:      "t",
		Message: Message{Role: RoleUser, Parts: []Part{NewTextPart("hi")}},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	noID := valid
	noID.ID = ""
	if err := noID.Validate(); err == nil {
		t.Error("Validate() with empty ID = nil, want error")
	}

	badRole := valid
	badRole.Message.Role = "system"
	if err := badRole.Validate(); err == nil {
		t.Error("Validate() with bad role = nil, want error")
	}
}

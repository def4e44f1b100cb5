// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// A2A RPC method names.
const (
	// MethodTasksSend is the method name for sending a task.
	MethodTasksSend = "tasks/send"
	// MethodTasksGet is the method name for getting a task.
	MethodTasksGet = "tasks/get"
	// MethodTasksCancel is the method name for canceling a task.
	MethodTasksCancel = "tasks/cancel"
	// MethodTasksPushNotificationSet is the method name for setting push notification configuration.
	MethodTasksPushNotificationSet = "tasks/pushNotification/set"
	// MethodTasksPushNotificationGet is the method name for getting push notification configuration.
	MethodTasksPushNotificationGet = "tasks/pushNotification/get"
	// MethodTasksSendSubscribe is the method name for sending a task and subscribing to updates.
	MethodTasksSendSubscribe = "tasks/sendSubscribe"
	// MethodTasksResubscribe is the method name for resubscribing to task updates.
	MethodTasksResubscribe = "tasks/resubscribe"
)

// JSONRPCVersion is the only JSON-RPC version spoken.
const JSONRPCVersion = "2.0"

// JSONRPCMessage is the base structure for all JSON-RPC 2.0 messages.
type JSONRPCMessage struct {
	// JSONRPC version, always "2.0".
	JSONRPC string `json:"jsonrpc"`
	// ID is a unique identifier for the request/response correlation.
	ID any `json:"id"` // string, number, or null
}

// NewJSONRPCMessage creates a new [JSONRPCMessage] with the given id.
func NewJSONRPCMessage(id any) JSONRPCMessage {
	return JSONRPCMessage{
		JSONRPC: JSONRPCVersion,
		ID:      id,
	}
}

// JSONRPCRequest represents a JSON-RPC 2.0 request whose params are not yet decoded.
type JSONRPCRequest struct {
	JSONRPCMessage

	// Method identifies the operation to perform.
	Method string `json:"method"`
	// Params contains parameters for the method.
	Params jsontext.Value `json:"params,omitzero"`
}

// DecodeParams unmarshals the request params into v.
func (r *JSONRPCRequest) DecodeParams(v any) error {
	if len(r.Params) == 0 {
		return fmt.Errorf("missing params for %s", r.Method)
	}
	if err := json.Unmarshal(r.Params, v); err != nil {
		return fmt.Errorf("decode %s params: %w", r.Method, err)
	}
	return nil
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPCMessage

	// Result contains the successful result data.
	// Mutually exclusive with Error.
	Result any `json:"result,omitzero"`
	// Error contains an error object if the request failed.
	// Mutually exclusive with Result.
	Error *JSONRPCError `json:"error,omitzero"`
}

// NewJSONRPCResponse returns a success response for id.
func NewJSONRPCResponse(id, result any) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPCMessage: NewJSONRPCMessage(id),
		Result:         result,
	}
}

// NewJSONRPCErrorResponse returns an error response for id.
func NewJSONRPCErrorResponse(id any, err *JSONRPCError) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPCMessage: NewJSONRPCMessage(id),
		Error:          err,
	}
}

// SendTaskRequest represents a request to initiate or continue a task.
type SendTaskRequest struct {
	JSONRPCMessage

	// Method is always "tasks/send".
	Method string         `json:"method"`
	Params TaskSendParams `json:"params"`
}

// NewSendTaskRequest creates a new [SendTaskRequest].
func NewSendTaskRequest(id any, params TaskSendParams) *SendTaskRequest {
	return &SendTaskRequest{
		JSONRPCMessage: NewJSONRPCMessage(id),
		Method:         MethodTasksSend,
		Params:         params,
	}
}

// SendTaskResponse represents a response to a [SendTaskRequest].
type SendTaskResponse struct {
	JSONRPCMessage

	Result *Task         `json:"result,omitzero"`
	Error  *JSONRPCError `json:"error,omitzero"`
}

// SendTaskStreamingRequest represents a request to send a task and subscribe to updates.
type SendTaskStreamingRequest struct {
	JSONRPCMessage

	// Method is always "tasks/sendSubscribe".
	Method string         `json:"method"`
	Params TaskSendParams `json:"params"`
}

// NewSendTaskStreamingRequest creates a new [SendTaskStreamingRequest].
func NewSendTaskStreamingRequest(id any, params TaskSendParams) *SendTaskStreamingRequest {
	return &SendTaskStreamingRequest{
		JSONRPCMessage: NewJSONRPCMessage(id),
		Method:         MethodTasksSendSubscribe,
		Params:         params,
	}
}

// TaskEvent is the result carried by a [SendTaskStreamingResponse]:
// a [*TaskStatusUpdateEvent] or a [*TaskArtifactUpdateEvent].
type TaskEvent interface {
	// TaskID returns the task ID that this event is for.
	TaskID() string
}

// TaskID implements [TaskEvent].
func (e *TaskStatusUpdateEvent) TaskID() string { return e.ID }

// TaskID implements [TaskEvent].
func (e *TaskArtifactUpdateEvent) TaskID() string { return e.ID }

var (
	_ TaskEvent = (*TaskStatusUpdateEvent)(nil)
	_ TaskEvent = (*TaskArtifactUpdateEvent)(nil)
)

// SendTaskStreamingResponse is one element of a tasks/sendSubscribe stream.
type SendTaskStreamingResponse struct {
	JSONRPCMessage

	Result TaskEvent     `json:"result,omitzero"`
	Error  *JSONRPCError `json:"error,omitzero"`
}

// NewStreamingEvent wraps event in a streaming response for request id.
func NewStreamingEvent(id any, event TaskEvent) *SendTaskStreamingResponse {
	return &SendTaskStreamingResponse{
		JSONRPCMessage: NewJSONRPCMessage(id),
		Result:         event,
	}
}

// NewStreamingError wraps err in a streaming response for request id.
func NewStreamingError(id any, err *JSONRPCError) *SendTaskStreamingResponse {
	return &SendTaskStreamingResponse{
		JSONRPCMessage: NewJSONRPCMessage(id),
		Error:          err,
	}
}

// UnmarshalJSON implements [json.Unmarshaler].
//
// The result is decoded as an artifact event when it carries an "artifact" member,
// and as a status event otherwise.
func (r *SendTaskStreamingResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		JSONRPCMessage
		Result jsontext.Value `json:"result,omitzero"`
		Error  *JSONRPCError  `json:"error,omitzero"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal streaming response: %w", err)
	}
	r.JSONRPCMessage = raw.JSONRPCMessage
	r.Error = raw.Error
	r.Result = nil
	if len(raw.Result) == 0 || raw.Result.Kind() == 'n' {
		return nil
	}

	var probe map[string]jsontext.Value
	if err := json.Unmarshal(raw.Result, &probe); err != nil {
		return fmt.Errorf("unmarshal streaming result: %w", err)
	}
	if _, ok := probe["artifact"]; ok {
		var ev TaskArtifactUpdateEvent
		if err := json.Unmarshal(raw.Result, &ev); err != nil {
			return fmt.Errorf("unmarshal artifact event: %w", err)
		}
		r.Result = &ev
		return nil
	}
	var ev TaskStatusUpdateEvent
	if err := json.Unmarshal(raw.Result, &ev); err != nil {
		return fmt.Errorf("unmarshal status event: %w", err)
	}
	r.Result = &ev
	return nil
}

// GetTaskRequest represents a tasks/get request.
type GetTaskRequest struct {
	JSONRPCMessage

	Method string          `json:"method"`
	Params TaskQueryParams `json:"params"`
}

// NewGetTaskRequest creates a new [GetTaskRequest].
func NewGetTaskRequest(id any, params TaskQueryParams) *GetTaskRequest {
	return &GetTaskRequest{
		JSONRPCMessage: NewJSONRPCMessage(id),
		Method:         MethodTasksGet,
		Params:         params,
	}
}

// GetTaskResponse represents a response to a [GetTaskRequest].
type GetTaskResponse struct {
	JSONRPCMessage

	Result *Task         `json:"result,omitzero"`
	Error  *JSONRPCError `json:"error,omitzero"`
}

// CancelTaskRequest represents a tasks/cancel request.
type CancelTaskRequest struct {
	JSONRPCMessage

	Method string       `json:"method"`
	Params TaskIDParams `json:"params"`
}

// NewCancelTaskRequest creates a new [CancelTaskRequest].
func NewCancelTaskRequest(id any, params TaskIDParams) *CancelTaskRequest {
	return &CancelTaskRequest{
		JSONRPCMessage: NewJSONRPCMessage(id),
		Method:         MethodTasksCancel,
		Params:         params,
	}
}

// SetTaskPushNotificationRequest represents a tasks/pushNotification/set request.
type SetTaskPushNotificationRequest struct {
	JSONRPCMessage

	Method string                     `json:"method"`
	Params TaskPushNotificationConfig `json:"params"`
}

// NewSetTaskPushNotificationRequest creates a new [SetTaskPushNotificationRequest].
func NewSetTaskPushNotificationRequest(id any, params TaskPushNotificationConfig) *SetTaskPushNotificationRequest {
	return &SetTaskPushNotificationRequest{
		JSONRPCMessage: NewJSONRPCMessage(id),
		Method:         MethodTasksPushNotificationSet,
		Params:         params,
	}
}

// GetTaskPushNotificationRequest represents a tasks/pushNotification/get request.
type GetTaskPushNotificationRequest struct {
	JSONRPCMessage

	Method string       `json:"method"`
	Params TaskIDParams `json:"params"`
}

// NewGetTaskPushNotificationRequest creates a new [GetTaskPushNotificationRequest].
func NewGetTaskPushNotificationRequest(id any, params TaskIDParams) *GetTaskPushNotificationRequest {
	return &GetTaskPushNotificationRequest{
		JSONRPCMessage: NewJSONRPCMessage(id),
		Method:         MethodTasksPushNotificationGet,
		Params:         params,
	}
}

// TaskPushNotificationResponse represents a response to either push notification request.
type TaskPushNotificationResponse struct {
	JSONRPCMessage

	Result *TaskPushNotificationConfig `json:"result,omitzero"`
	Error  *JSONRPCError               `json:"error,omitzero"`
}

// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	a2a "github.com/go-a2a/a2a-samples"
	"github.com/go-a2a/a2a-samples/agent"
)

// MissingInfoMarker in an agent answer moves the task to input-required.
const MissingInfoMarker = "MISSING_INFO:"

// streamBufferSize bounds how far the agent stream may run ahead of the client.
const streamBufferSize = 16

// AgentTaskManager drives the lifecycle of tasks answered by an [agent.Agent].
type AgentTaskManager struct {
	*BaseTaskManager

	agent  agent.Agent
	sender PushNotificationSender
}

var _ TaskManager = (*AgentTaskManager)(nil)

// NewAgentTaskManager returns a task manager for a. sender may be nil, in which
// case push notification configs never verify.
func NewAgentTaskManager(a agent.Agent, sender PushNotificationSender, opts ...TaskManagerOption) *AgentTaskManager {
	return &AgentTaskManager{
		BaseTaskManager: NewBaseTaskManager(opts...),
		agent:           a,
		sender:          sender,
	}
}

// validateRequest checks output modes and the push notification URL before any
// task is touched.
func (tm *AgentTaskManager) validateRequest(ctx context.Context, params *a2a.TaskSendParams) error {
	supported := tm.agent.SupportedContentTypes()
	if !AreModalitiesCompatible(supported, params.AcceptedOutputModes) {
		tm.logger.WarnContext(ctx, "unsupported output mode",
			"task_id", params.ID, "accepted", params.AcceptedOutputModes, "supported", supported)
		return a2a.NewIncompatibleTypesError(params.AcceptedOutputModes, supported)
	}
	if params.PushNotification != nil && params.PushNotification.URL == "" {
		tm.logger.WarnContext(ctx, "push notification url is missing", "task_id", params.ID)
		return a2a.NewInvalidParamsError("Push notification URL is missing")
	}
	return nil
}

// registerFromParams verifies and stores the push notification config carried by
// params, if any.
func (tm *AgentTaskManager) registerFromParams(ctx context.Context, params *a2a.TaskSendParams) error {
	if params.PushNotification == nil {
		return nil
	}
	ok, err := tm.registerPushNotification(ctx, params.ID, *params.PushNotification)
	if err != nil {
		tm.logger.ErrorContext(ctx, "store push notification info", "task_id", params.ID, "error", err)
		return a2a.NewInternalError("An error occurred while setting push notification info")
	}
	if !ok {
		return a2a.NewInvalidParamsError("Push notification URL is invalid")
	}
	return nil
}

// getUserQuery returns the text of the first part of the inbound message.
func getUserQuery(params *a2a.TaskSendParams) (string, error) {
	if len(params.Message.Parts) == 0 {
		return "", a2a.NewInvalidParamsError("Message has no parts")
	}
	part := params.Message.Parts[0]
	if part.Type != a2a.PartTypeText {
		return "", a2a.NewInvalidParamsError("Only text parts are supported")
	}
	return part.Text, nil
}

// fail persists a failed status carrying err and notifies. The store write does not
// depend on ctx still being live.
func (tm *AgentTaskManager) fail(ctx context.Context, span trace.Span, taskID string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	ctx = context.WithoutCancel(ctx)
	status := a2a.NewTaskStatus(a2a.TaskStateFailed, a2a.NewAgentTextMessage(err.Error()))
	failed, uerr := tm.UpdateTask(ctx, taskID, status, nil)
	if uerr != nil {
		return
	}
	tm.sendTaskNotification(ctx, failed)
}

// OnSendTask validates the request, registers its push notification config, moves
// the task to working and invokes the agent. The answer becomes the single artifact
// of this turn; the task ends completed, or input-required when the answer contains
// [MissingInfoMarker].
func (tm *AgentTaskManager) OnSendTask(ctx context.Context, params *a2a.TaskSendParams) (*a2a.Task, error) {
	ctx, span := tm.startSpan(ctx, "OnSendTask", params.ID)
	defer span.End()

	if err := tm.validateRequest(ctx, params); err != nil {
		return nil, err
	}
	if err := tm.registerFromParams(ctx, params); err != nil {
		return nil, err
	}

	if _, err := tm.UpsertTask(ctx, params); err != nil {
		return nil, a2a.NewInternalError(err.Error())
	}
	working, err := tm.UpdateTask(ctx, params.ID, a2a.NewTaskStatus(a2a.TaskStateWorking, nil), nil)
	if err != nil {
		return nil, a2a.NewInternalError(err.Error())
	}
	tm.sendTaskNotification(ctx, working)

	query, err := getUserQuery(params)
	if err != nil {
		tm.fail(ctx, span, params.ID, err)
		return nil, err
	}

	start := time.Now()
	result, err := tm.agent.Invoke(ctx, query, params.SessionID)
	tm.metrics.AgentInvocation("invoke", time.Since(start))
	if err != nil {
		tm.logger.ErrorContext(ctx, "agent invocation failed", "task_id", params.ID, "error", err)
		tm.fail(ctx, span, params.ID, err)
		return nil, a2a.NewInternalError(fmt.Sprintf("Error invoking agent: %v", err))
	}

	state := a2a.TaskStateCompleted
	if strings.Contains(result, MissingInfoMarker) {
		state = a2a.TaskStateInputRequired
	}
	part := a2a.NewTextPart(result)
	status := a2a.NewTaskStatus(state, &a2a.Message{Role: a2a.RoleAgent, Parts: []a2a.Part{part}})

	done, err := tm.UpdateTask(ctx, params.ID, status, []a2a.Artifact{a2a.NewArtifact(part)})
	if err != nil {
		return nil, a2a.NewInternalError(err.Error())
	}
	tm.sendTaskNotification(ctx, done)

	tm.logger.InfoContext(ctx, "task finished", "task_id", params.ID, "state", state)
	return done.WithHistory(params.HistoryLength), nil
}

// OnSendTaskSubscribe validates the request exactly like [AgentTaskManager.OnSendTask]
// and then streams the agent's progress. The task is not moved to working before
// the stream starts.
func (tm *AgentTaskManager) OnSendTaskSubscribe(ctx context.Context, req *a2a.SendTaskStreamingRequest) (<-chan *a2a.SendTaskStreamingResponse, error) {
	params := &req.Params
	ctx, span := tm.startSpan(ctx, "OnSendTaskSubscribe", params.ID)

	if err := tm.validateRequest(ctx, params); err != nil {
		span.End()
		return nil, err
	}
	if err := tm.registerFromParams(ctx, params); err != nil {
		span.End()
		return nil, err
	}
	if _, err := tm.UpsertTask(ctx, params); err != nil {
		span.End()
		return nil, a2a.NewInternalError(err.Error())
	}
	query, err := getUserQuery(params)
	if err != nil {
		tm.fail(ctx, span, params.ID, err)
		span.End()
		return nil, err
	}

	out := make(chan *a2a.SendTaskStreamingResponse, streamBufferSize)
	go func() {
		defer span.End()
		defer close(out)
		tm.streamGenerator(ctx, span, req, query, out)
	}()
	return out, nil
}

// streamStep is what a terminal agent event turns into.
type streamStep struct {
	status    a2a.TaskStatus
	artifacts []a2a.Artifact
}

// completedStep maps the final agent content to a status and a single artifact.
func completedStep(c agent.Content) streamStep {
	var (
		state = a2a.TaskStateCompleted
		part  a2a.Part
	)
	data := c.Data
	if data == nil {
		data = map[string]any{}
	}
	switch c.Kind {
	case agent.ContentResult:
		state = a2a.TaskStateInputRequired
		part = a2a.NewDataPart(data)
	case agent.ContentData:
		part = a2a.NewDataPart(data)
	default:
		part = a2a.NewTextPart(c.Text)
	}
	parts := []a2a.Part{part}
	return streamStep{
		status:    a2a.NewTaskStatus(state, &a2a.Message{Role: a2a.RoleAgent, Parts: parts}),
		artifacts: []a2a.Artifact{a2a.NewArtifact(part)},
	}
}

func (tm *AgentTaskManager) streamGenerator(ctx context.Context, span trace.Span, req *a2a.SendTaskStreamingRequest, query string, out chan<- *a2a.SendTaskStreamingResponse) {
	params := &req.Params
	send := func(resp *a2a.SendTaskStreamingResponse) bool {
		select {
		case out <- resp:
			return true
		case <-ctx.Done():
			tm.logger.InfoContext(ctx, "stream consumer gone", "task_id", params.ID)
			return false
		}
	}
	abort := func(err error) {
		tm.logger.ErrorContext(ctx, "An error occurred while streaming the response", "task_id", params.ID, "error", err)
		tm.fail(ctx, span, params.ID, err)
		send(a2a.NewStreamingError(req.ID, a2a.NewInternalError("An error occurred while streaming the response")))
	}

	start := time.Now()
	defer func() { tm.metrics.AgentInvocation("stream", time.Since(start)) }()

	var last *streamStep
	for ev, err := range tm.agent.Stream(ctx, query, params.SessionID) {
		if err != nil {
			abort(err)
			return
		}
		switch {
		case ev.Complete:
			step := completedStep(ev.Content)
			last = &step
		case ev.RequireUserInput:
			text := ev.Content.Text
			if text == "" {
				text = ev.Updates
			}
			last = &streamStep{status: a2a.NewTaskStatus(a2a.TaskStateInputRequired, a2a.NewAgentTextMessage(text))}
		default:
			status := a2a.NewTaskStatus(a2a.TaskStateWorking, a2a.NewAgentTextMessage(ev.Updates))
			working, err := tm.UpdateTask(ctx, params.ID, status, nil)
			if err != nil {
				abort(err)
				return
			}
			tm.sendTaskNotification(ctx, working)
			if !send(a2a.NewStreamingEvent(req.ID, &a2a.TaskStatusUpdateEvent{ID: params.ID, Status: status})) {
				return
			}
		}
	}
	if last == nil {
		tm.logger.WarnContext(ctx, "agent stream ended without an answer", "task_id", params.ID)
		return
	}

	latest, err := tm.UpdateTask(ctx, params.ID, last.status, last.artifacts)
	if err != nil {
		abort(err)
		return
	}
	tm.sendTaskNotification(ctx, latest)

	if !send(a2a.NewStreamingEvent(req.ID, &a2a.TaskStatusUpdateEvent{ID: params.ID, Status: last.status})) {
		return
	}
	for _, artifact := range last.artifacts {
		if !send(a2a.NewStreamingEvent(req.ID, &a2a.TaskArtifactUpdateEvent{ID: params.ID, Artifact: artifact})) {
			return
		}
	}
	send(a2a.NewStreamingEvent(req.ID, &a2a.TaskStatusUpdateEvent{
		ID:     params.ID,
		Status: a2a.NewTaskStatus(last.status.State, nil),
		Final:  true,
	}))
	tm.logger.InfoContext(ctx, "task stream finished", "task_id", params.ID, "state", last.status.State)
}

// OnSetTaskPushNotification verifies the URL before registering the config.
func (tm *AgentTaskManager) OnSetTaskPushNotification(ctx context.Context, params *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	ctx, span := tm.startSpan(ctx, "OnSetTaskPushNotification", params.ID)
	defer span.End()

	if _, err := tm.store.Get(ctx, params.ID); err != nil {
		return nil, tm.lookupError(ctx, span, params.ID, err)
	}
	ok, err := tm.registerPushNotification(ctx, params.ID, params.PushNotificationConfig)
	if err != nil {
		tm.logger.ErrorContext(ctx, "set push notification info", "task_id", params.ID, "error", err)
		return nil, a2a.NewInternalError("An error occurred while setting push notification info")
	}
	if !ok {
		return nil, a2a.NewInvalidParamsError("Push notification URL is invalid")
	}
	return params, nil
}

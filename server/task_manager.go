// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	a2a "github.com/go-a2a/a2a-samples"
	"github.com/go-a2a/a2a-samples/internal/observability"
	"github.com/go-a2a/a2a-samples/server/task"
)

// TaskManager is the interface that task managers must implement.
//
// Errors returned by its methods are [*a2a.JSONRPCError] values; any other error is
// reported to the caller as an internal error.
type TaskManager interface {
	// OnGetTask retrieves a task.
	OnGetTask(ctx context.Context, params *a2a.TaskQueryParams) (*a2a.Task, error)

	// OnCancelTask cancels a task.
	OnCancelTask(ctx context.Context, params *a2a.TaskIDParams) (*a2a.Task, error)

	// OnSendTask runs a task to completion and returns its final state.
	OnSendTask(ctx context.Context, params *a2a.TaskSendParams) (*a2a.Task, error)

	// OnSendTaskSubscribe starts a task and returns the stream of its updates.
	// The channel is closed after the final event or a single error response.
	OnSendTaskSubscribe(ctx context.Context, req *a2a.SendTaskStreamingRequest) (<-chan *a2a.SendTaskStreamingResponse, error)

	// OnSetTaskPushNotification configures push notification for a task.
	OnSetTaskPushNotification(ctx context.Context, params *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error)

	// OnGetTaskPushNotification retrieves push notification configuration for a task.
	OnGetTaskPushNotification(ctx context.Context, params *a2a.TaskIDParams) (*a2a.TaskPushNotificationConfig, error)

	// OnResubscribeToTask resubscribes to a task's updates.
	OnResubscribeToTask(ctx context.Context, params *a2a.TaskQueryParams) (<-chan *a2a.SendTaskStreamingResponse, error)
}

// BaseTaskManager implements the store-backed parts of [TaskManager]: task lookup,
// cancellation, push notification registration and status persistence. It is
// embedded by task managers that add the send operations.
type BaseTaskManager struct {
	store     task.TaskStore
	pushStore task.PushNotificationConfigStore

	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.Metrics
}

// NewBaseTaskManager creates a new BaseTaskManager backed by in-memory stores unless
// opts say otherwise.
func NewBaseTaskManager(opts ...TaskManagerOption) *BaseTaskManager {
	tm := &BaseTaskManager{
		store:     task.NewInMemoryTaskStore(),
		pushStore: task.NewInMemoryPushNotificationConfigStore(),
		logger:    slog.Default(),
		tracer:    otel.GetTracerProvider().Tracer("github.com/go-a2a/a2a-samples/server"),
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

// Store returns the task store.
func (tm *BaseTaskManager) Store() task.TaskStore {
	return tm.store
}

func (tm *BaseTaskManager) startSpan(ctx context.Context, op, taskID string) (context.Context, trace.Span) {
	return tm.tracer.Start(ctx, "a2a.task_manager."+op,
		trace.WithAttributes(attribute.String("a2a.task_id", taskID)))
}

// lookupError converts a store error into a protocol error.
func (tm *BaseTaskManager) lookupError(ctx context.Context, span trace.Span, taskID string, err error) error {
	if task.IsTaskNotFound(err) {
		tm.logger.InfoContext(ctx, "task not found", "task_id", taskID)
		return a2a.NewTaskNotFoundError()
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	tm.logger.ErrorContext(ctx, "task store failure", "task_id", taskID, "error", err)
	return a2a.NewInternalError(err.Error())
}

// OnGetTask retrieves a task, trimming its history to params.HistoryLength.
func (tm *BaseTaskManager) OnGetTask(ctx context.Context, params *a2a.TaskQueryParams) (*a2a.Task, error) {
	ctx, span := tm.startSpan(ctx, "OnGetTask", params.ID)
	defer span.End()

	stored, err := tm.store.Get(ctx, params.ID)
	if err != nil {
		return nil, tm.lookupError(ctx, span, params.ID, err)
	}

	tm.logger.DebugContext(ctx, "task retrieved", "task_id", params.ID, "state", stored.Status.State)
	return stored.WithHistory(params.HistoryLength), nil
}

// OnCancelTask reports that the task cannot be canceled. Running agents cannot be
// interrupted, so every known task is non-cancelable.
func (tm *BaseTaskManager) OnCancelTask(ctx context.Context, params *a2a.TaskIDParams) (*a2a.Task, error) {
	ctx, span := tm.startSpan(ctx, "OnCancelTask", params.ID)
	defer span.End()

	if _, err := tm.store.Get(ctx, params.ID); err != nil {
		return nil, tm.lookupError(ctx, span, params.ID, err)
	}
	tm.logger.InfoContext(ctx, "task cannot be canceled", "task_id", params.ID)
	return nil, a2a.NewTaskNotCancelableError()
}

// OnSetTaskPushNotification refuses to register params. A URL must pass the
// verification challenge before its config is stored, and the base manager
// has no sender to issue one.
func (tm *BaseTaskManager) OnSetTaskPushNotification(ctx context.Context, params *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	ctx, span := tm.startSpan(ctx, "OnSetTaskPushNotification", params.ID)
	defer span.End()

	if _, err := tm.store.Get(ctx, params.ID); err != nil {
		return nil, tm.lookupError(ctx, span, params.ID, err)
	}
	tm.logger.WarnContext(ctx, "push notification registration needs a verifying task manager", "task_id", params.ID)
	return nil, a2a.NewPushNotificationNotSupportedError()
}

// OnGetTaskPushNotification retrieves the push notification config of a task.
func (tm *BaseTaskManager) OnGetTaskPushNotification(ctx context.Context, params *a2a.TaskIDParams) (*a2a.TaskPushNotificationConfig, error) {
	ctx, span := tm.startSpan(ctx, "OnGetTaskPushNotification", params.ID)
	defer span.End()

	if _, err := tm.store.Get(ctx, params.ID); err != nil {
		return nil, tm.lookupError(ctx, span, params.ID, err)
	}
	cfg, err := tm.GetPushNotificationInfo(ctx, params.ID)
	if err != nil {
		tm.logger.InfoContext(ctx, "get push notification info", "task_id", params.ID, "error", err)
		return nil, a2a.NewInternalError("An error occurred while getting push notification info")
	}
	return &a2a.TaskPushNotificationConfig{ID: params.ID, PushNotificationConfig: *cfg}, nil
}

// OnResubscribeToTask is not supported.
func (tm *BaseTaskManager) OnResubscribeToTask(ctx context.Context, params *a2a.TaskQueryParams) (<-chan *a2a.SendTaskStreamingResponse, error) {
	return nil, a2a.NewUnsupportedOperationError()
}

// UpsertTask creates the task named by params, or appends the inbound message to
// the history of the existing one.
func (tm *BaseTaskManager) UpsertTask(ctx context.Context, params *a2a.TaskSendParams) (*a2a.Task, error) {
	tm.logger.InfoContext(ctx, "upserting task", "task_id", params.ID)
	return tm.store.Upsert(ctx, params)
}

// UpdateTask replaces the status of the task and appends artifacts.
// The task must already exist.
func (tm *BaseTaskManager) UpdateTask(ctx context.Context, taskID string, status a2a.TaskStatus, artifacts []a2a.Artifact) (*a2a.Task, error) {
	updated, err := tm.store.Update(ctx, taskID, func(t *a2a.Task) error {
		t.Status = status
		t.Artifacts = append(t.Artifacts, artifacts...)
		return nil
	})
	if err != nil {
		tm.logger.ErrorContext(ctx, "update task", "task_id", taskID, "error", err)
		return nil, err
	}
	tm.metrics.TaskTransition(string(status.State))
	tm.logger.DebugContext(ctx, "task status updated", "task_id", taskID, "state", status.State)
	return updated, nil
}

// SetPushNotificationInfo stores cfg for taskID.
func (tm *BaseTaskManager) SetPushNotificationInfo(ctx context.Context, taskID string, cfg a2a.PushNotificationConfig) error {
	return tm.pushStore.Set(ctx, taskID, cfg)
}

// GetPushNotificationInfo returns the config stored for taskID.
func (tm *BaseTaskManager) GetPushNotificationInfo(ctx context.Context, taskID string) (*a2a.PushNotificationConfig, error) {
	return tm.pushStore.Get(ctx, taskID)
}

// HasPushNotificationInfo reports whether a config is stored for taskID.
func (tm *BaseTaskManager) HasPushNotificationInfo(ctx context.Context, taskID string) bool {
	_, err := tm.pushStore.Get(ctx, taskID)
	if err != nil && !errors.Is(err, task.ErrPushNotificationConfigNotFound) {
		tm.logger.WarnContext(ctx, "push notification config lookup", "task_id", taskID, "error", err)
	}
	return err == nil
}

// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package task provides persistence for A2A tasks and their push notification configs.
//
// Stores serialize every read-modify-write on a task behind a store-wide lock; they
// never hand out references into their own state.
package task

import (
	"context"

	a2a "github.com/go-a2a/a2a-samples"
)

// UpdateFunc mutates a task in place while the store lock is held.
type UpdateFunc func(task *a2a.Task) error

// TaskStore defines the interface for task persistence operations.
type TaskStore interface {
	// Get retrieves a task by its ID.
	// Returns a TaskNotFoundError if the task doesn't exist.
	Get(ctx context.Context, taskID string) (*a2a.Task, error)

	// Upsert creates the task named by params in the submitted state, or, if it
	// already exists, appends the inbound message to its history and leaves
	// every other field untouched.
	Upsert(ctx context.Context, params *a2a.TaskSendParams) (*a2a.Task, error)

	// Update applies fn to the stored task and persists the result atomically.
	// Returns a TaskNotFoundError if the task doesn't exist; nothing is created.
	Update(ctx context.Context, taskID string, fn UpdateFunc) (*a2a.Task, error)

	// Initialize prepares the storage backend for use.
	Initialize(ctx context.Context) error

	// Close cleanly shuts down the storage backend.
	Close(ctx context.Context) error
}

// newTask builds the record created on the first send for a task ID.
func newTask(params *a2a.TaskSendParams) *a2a.Task {
	return &a2a.Task{
		ID:        params.ID,
		SessionID: params.SessionID,
		Status:    a2a.NewTaskStatus(a2a.TaskStateSubmitted, nil),
		History:   []a2a.Message{*params.Message.Clone()},
		Metadata:  params.Metadata,
	}
}

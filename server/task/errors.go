// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"errors"
	"fmt"
)

// ErrPushNotificationConfigNotFound is returned when no push notification config is
// registered for a task.
var ErrPushNotificationConfigNotFound = errors.New("push notification config not found")

// TaskNotFoundError represents a lookup of an unknown task ID.
type TaskNotFoundError struct {
	TaskID string
}

// Error returns the error message.
func (e TaskNotFoundError) Error() string {
	return fmt.Sprintf("task %s not found", e.TaskID)
}

// TaskStoreError represents an error from the task store.
type TaskStoreError struct {
	Operation string
	TaskID    string
	Err       error
}

// Error returns the error message.
func (e TaskStoreError) Error() string {
	return fmt.Sprintf("task store %s operation failed for task %s: %v", e.Operation, e.TaskID, e.Err)
}

// Unwrap returns the underlying error.
func (e TaskStoreError) Unwrap() error {
	return e.Err
}

// NewTaskNotFoundError creates a new TaskNotFoundError.
func NewTaskNotFoundError(taskID string) TaskNotFoundError {
	return TaskNotFoundError{TaskID: taskID}
}

// NewTaskStoreError creates a new TaskStoreError.
func NewTaskStoreError(operation, taskID string, err error) TaskStoreError {
	return TaskStoreError{
		Operation: operation,
		TaskID:    taskID,
		Err:       err,
	}
}

// IsTaskNotFound reports whether err is or wraps a TaskNotFoundError.
func IsTaskNotFound(err error) bool {
	var nf TaskNotFoundError
	return errors.As(err, &nf)
}

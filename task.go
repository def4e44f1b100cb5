// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// TaskStatus is the current state of a task together with the latest message.
//
// A status is always replaced as a whole, never merged field by field.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitzero"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// NewTaskStatus returns a status in state with msg, stamped with the current time.
func NewTaskStatus(state TaskState, msg *Message) TaskStatus {
	return TaskStatus{
		State:     state,
		Message:   msg,
		Timestamp: now(),
	}
}

// Validate reports whether s carries a state and a valid message.
func (s TaskStatus) Validate() error {
	if s.State == "" {
		return errors.New("task status state cannot be empty")
	}
	if s.Message != nil {
		if err := s.Message.Validate(); err != nil {
			return fmt.Errorf("task status message: %w", err)
		}
	}
	return nil
}

// Task represents a unit of work in the A2A protocol.
type Task struct {
	ID        string         `json:"id"`
	SessionID string         `json:"sessionId,omitzero"`
	Status    TaskStatus     `json:"status"`
	Artifacts []Artifact     `json:"artifacts,omitzero"`
	History   []Message      `json:"history,omitzero"`
	Metadata  map[string]any `json:"metadata,omitzero"`
}

// Validate checks the identity and status of t.
func (t *Task) Validate() error {
	if t.ID == "" {
		return errors.New("task ID cannot be empty")
	}
	if err := t.Status.Validate(); err != nil {
		return err
	}
	for i, a := range t.Artifacts {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("artifact %d: %w", i, err)
		}
	}
	return nil
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := &Task{
		ID:        t.ID,
		SessionID: t.SessionID,
		Status: TaskStatus{
			State:     t.Status.State,
			Message:   t.Status.Message.Clone(),
			Timestamp: t.Status.Timestamp,
		},
		Metadata: cloneMap(t.Metadata),
	}
	if t.Artifacts != nil {
		c.Artifacts = make([]Artifact, len(t.Artifacts))
		for i, a := range t.Artifacts {
			c.Artifacts[i] = a.Clone()
		}
	}
	if t.History != nil {
		c.History = make([]Message, len(t.History))
		for i := range t.History {
			c.History[i] = *t.History[i].Clone()
		}
	}
	return c
}

// WithHistory returns a copy of t whose history holds at most the last n messages.
// A nil n keeps the full history; zero drops it.
func (t *Task) WithHistory(n *int) *Task {
	c := t.Clone()
	if n == nil || c == nil {
		return c
	}
	switch {
	case *n <= 0:
		c.History = nil
	case *n < len(c.History):
		c.History = slices.Clone(c.History[len(c.History)-*n:])
	}
	return c
}

// AuthenticationInfo describes how a push notification receiver authenticates the sender.
type AuthenticationInfo struct {
	Schemes     []string `json:"schemes"`
	Credentials string   `json:"credentials,omitzero"`
}

// PushNotificationConfig is the callback a client registers to be told about task changes.
type PushNotificationConfig struct {
	URL            string              `json:"url"`
	Token          string              `json:"token,omitzero"`
	Authentication *AuthenticationInfo `json:"authentication,omitzero"`
}

// Validate checks the config names a callback URL.
func (c *PushNotificationConfig) Validate() error {
	if c == nil {
		return errors.New("push notification config cannot be nil")
	}
	if c.URL == "" {
		return errors.New("push notification URL cannot be empty")
	}
	return nil
}

// TaskPushNotificationConfig associates a [PushNotificationConfig] with a task.
type TaskPushNotificationConfig struct {
	ID                     string                 `json:"id"`
	PushNotificationConfig PushNotificationConfig `json:"pushNotificationConfig"`
}

// TaskIDParams identifies a task.
type TaskIDParams struct {
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata,omitzero"`
}

// TaskQueryParams identifies a task and how much history to return.
type TaskQueryParams struct {
	ID            string         `json:"id"`
	HistoryLength *int           `json:"historyLength,omitzero"`
	Metadata      map[string]any `json:"metadata,omitzero"`
}

// TaskSendParams are the parameters of tasks/send and tasks/sendSubscribe.
type TaskSendParams struct {
	ID                  string                  `json:"id"`
	SessionID           string                  `json:"sessionId,omitzero"`
	Message             Message                 `json:"message"`
	AcceptedOutputModes []string                `json:"acceptedOutputModes,omitzero"`
	PushNotification    *PushNotificationConfig `json:"pushNotification,omitzero"`
	HistoryLength       *int                    `json:"historyLength,omitzero"`
	Metadata            map[string]any          `json:"metadata,omitzero"`
}

// Validate checks the params name a task and carry a valid message.
func (p *TaskSendParams) Validate() error {
	if p.ID == "" {
		return errors.New("task ID cannot be empty")
	}
	if err := p.Message.Validate(); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	return nil
}

// TaskStatusUpdateEvent is streamed when a task's status changes.
type TaskStatusUpdateEvent struct {
	ID       string         `json:"id"`
	Status   TaskStatus     `json:"status"`
	Final    bool           `json:"final"`
	Metadata map[string]any `json:"metadata,omitzero"`
}

// TaskArtifactUpdateEvent is streamed when a task produces an artifact.
type TaskArtifactUpdateEvent struct {
	ID       string         `json:"id"`
	Artifact Artifact       `json:"artifact"`
	Metadata map[string]any `json:"metadata,omitzero"`
}

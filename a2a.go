// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package a2a provides the Agent2Agent protocol types used by the sample agents.
//
// The types follow the tasks/* generation of the protocol: a [Task] is created or resumed
// through tasks/send or tasks/sendSubscribe, carries a [TaskStatus] and a growing list of
// [Artifact]s, and may be observed out of band through a [PushNotificationConfig].
package a2a

import (
	"slices"
	"time"
)

// Version is the current version of the A2A protocol.
const Version = "0.1.0"

// TaskState represents the state of a Task.
type TaskState string

const (
	// TaskStateSubmitted indicates the task has been received but not yet started.
	TaskStateSubmitted TaskState = "submitted"

	// TaskStateWorking indicates the task is being worked on.
	TaskStateWorking TaskState = "working"

	// TaskStateInputRequired indicates the agent is waiting for more input on the same task.
	TaskStateInputRequired TaskState = "input-required"

	// TaskStateCompleted indicates the task has been completed.
	TaskStateCompleted TaskState = "completed"

	// TaskStateCanceled indicates the task has been canceled.
	TaskStateCanceled TaskState = "canceled"

	// TaskStateFailed indicates the task has failed.
	TaskStateFailed TaskState = "failed"

	// TaskStateUnknown is reported when the state cannot be determined.
	TaskStateUnknown TaskState = "unknown"
)

var terminalStates = []TaskState{
	TaskStateCompleted,
	TaskStateCanceled,
	TaskStateFailed,
}

// IsTerminal reports whether no further transitions are expected from s.
func (s TaskState) IsTerminal() bool {
	return slices.Contains(terminalStates, s)
}

// Role identifies the author of a [Message].
type Role string

const (
	// RoleUser is a message sent by the client.
	RoleUser Role = "user"

	// RoleAgent is a message produced by the agent.
	RoleAgent Role = "agent"
)

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

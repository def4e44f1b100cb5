// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/go-json-experiment/json"
	"gorm.io/gorm"

	a2a "github.com/go-a2a/a2a-samples"
)

// JSONColumn stores a value of T as JSON text in a single database column.
type JSONColumn[T any] struct {
	V T
}

// NewJSONColumn wraps v.
func NewJSONColumn[T any](v T) JSONColumn[T] {
	return JSONColumn[T]{V: v}
}

// Value implements the driver.Valuer interface for database storage.
func (c JSONColumn[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(c.V)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal %T: %w", c.V, err)
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database retrieval.
func (c *JSONColumn[T]) Scan(value any) error {
	var zero T
	if value == nil {
		c.V = zero
		return nil
	}

	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONColumn[%T]", value, zero)
	}

	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("cannot unmarshal JSONColumn[%T]: %w", zero, err)
	}
	c.V = v
	return nil
}

// GormDataType declares the column type used by AutoMigrate.
func (JSONColumn[T]) GormDataType() string {
	return "text"
}

// TaskModel is the database row for one task.
type TaskModel struct {
	ID        string                     `gorm:"primaryKey;size:128"`
	SessionID string                     `gorm:"size:128;index"`
	State     a2a.TaskState              `gorm:"size:32;index;not null"`
	Status    JSONColumn[a2a.TaskStatus] `gorm:"not null"`
	Artifacts JSONColumn[[]a2a.Artifact]
	History   JSONColumn[[]a2a.Message]
	Metadata  JSONColumn[map[string]any]
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for the TaskModel.
func (TaskModel) TableName() string {
	return "tasks"
}

// NewTaskModelFromTask converts a task into its database row.
func NewTaskModelFromTask(task *a2a.Task) (*TaskModel, error) {
	if task == nil {
		return nil, fmt.Errorf("task cannot be nil")
	}
	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("task is invalid: %w", err)
	}

	return &TaskModel{
		ID:        task.ID,
		SessionID: task.SessionID,
		State:     task.Status.State,
		Status:    NewJSONColumn(task.Status),
		Artifacts: NewJSONColumn(task.Artifacts),
		History:   NewJSONColumn(task.History),
		Metadata:  NewJSONColumn(task.Metadata),
	}, nil
}

// ToTask converts a TaskModel to an A2A Task.
func (m *TaskModel) ToTask() *a2a.Task {
	return &a2a.Task{
		ID:        m.ID,
		SessionID: m.SessionID,
		Status:    m.Status.V,
		Artifacts: m.Artifacts.V,
		History:   m.History.V,
		Metadata:  m.Metadata.V,
	}
}

// BeforeSave is a GORM hook keeping the indexed state column in sync with the status.
func (m *TaskModel) BeforeSave(tx *gorm.DB) error {
	if m.ID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	m.State = m.Status.V.State
	return nil
}

// PushNotificationConfigModel is the database row for a registered push notification config.
type PushNotificationConfigModel struct {
	TaskID    string                                 `gorm:"primaryKey;size:128"`
	Config    JSONColumn[a2a.PushNotificationConfig] `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for the PushNotificationConfigModel.
func (PushNotificationConfigModel) TableName() string {
	return "push_notification_configs"
}

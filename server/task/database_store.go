// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	a2a "github.com/go-a2a/a2a-samples"
)

// DatabaseTaskStore is a database implementation of TaskStore using GORM.
//
// Read-modify-write operations run inside a transaction and are additionally
// serialized by a process-local lock, so concurrent updates from one server never
// interleave inside a single Update.
type DatabaseTaskStore struct {
	db          *gorm.DB
	createTable bool

	mu sync.Mutex
}

var _ TaskStore = (*DatabaseTaskStore)(nil)

// DatabaseTaskStoreConfig holds configuration for DatabaseTaskStore.
type DatabaseTaskStoreConfig struct {
	DB          *gorm.DB
	CreateTable bool // Whether to create the table if it doesn't exist
}

// NewDatabaseTaskStore creates a new DatabaseTaskStore.
func NewDatabaseTaskStore(config DatabaseTaskStoreConfig) (*DatabaseTaskStore, error) {
	if config.DB == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}

	return &DatabaseTaskStore{
		db:          config.DB,
		createTable: config.CreateTable,
	}, nil
}

// Get retrieves a task by its ID from the database.
func (s *DatabaseTaskStore) Get(ctx context.Context, taskID string) (*a2a.Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}
	return s.get(s.db.WithContext(ctx), taskID)
}

func (s *DatabaseTaskStore) get(db *gorm.DB, taskID string) (*a2a.Task, error) {
	var model TaskModel
	if err := db.Where("id = ?", taskID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewTaskNotFoundError(taskID)
		}
		return nil, NewTaskStoreError("get", taskID, err)
	}
	return model.ToTask(), nil
}

// Upsert creates or resumes the task named by params.
func (s *DatabaseTaskStore) Upsert(ctx context.Context, params *a2a.TaskSendParams) (*a2a.Task, error) {
	if params == nil || params.ID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var task *a2a.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.get(tx, params.ID)
		switch {
		case IsTaskNotFound(err):
			task = newTask(params)
		case err != nil:
			return err
		default:
			task = existing
			task.History = append(task.History, *params.Message.Clone())
		}
		return s.save(tx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Update applies fn to the stored task within a transaction.
func (s *DatabaseTaskStore) Update(ctx context.Context, taskID string, fn UpdateFunc) (*a2a.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var task *a2a.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := s.get(tx, taskID)
		if err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return NewTaskStoreError("update", taskID, err)
		}
		task = t
		return s.save(tx, t)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *DatabaseTaskStore) save(tx *gorm.DB, task *a2a.Task) error {
	model, err := NewTaskModelFromTask(task)
	if err != nil {
		return NewTaskStoreError("save", task.ID, fmt.Errorf("failed to convert task to model: %w", err))
	}
	if err := tx.Save(model).Error; err != nil {
		return NewTaskStoreError("save", task.ID, err)
	}
	return nil
}

// Initialize creates the tasks table when configured to.
func (s *DatabaseTaskStore) Initialize(ctx context.Context) error {
	if !s.createTable {
		return nil
	}
	if err := s.db.WithContext(ctx).AutoMigrate(&TaskModel{}); err != nil {
		return NewTaskStoreError("initialize", "", err)
	}
	return nil
}

// Close cleanly shuts down the database store.
func (s *DatabaseTaskStore) Close(ctx context.Context) error {
	// The underlying connection pool is owned by whoever opened the *gorm.DB.
	return nil
}

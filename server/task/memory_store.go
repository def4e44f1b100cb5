// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"sync"

	a2a "github.com/go-a2a/a2a-samples"
)

// InMemoryTaskStore is an in-memory implementation of TaskStore.
// Task data is lost when the server process stops.
type InMemoryTaskStore struct {
	mu    sync.Mutex
	tasks map[string]*a2a.Task
}

var _ TaskStore = (*InMemoryTaskStore)(nil)

// NewInMemoryTaskStore creates a new InMemoryTaskStore.
func NewInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{
		tasks: make(map[string]*a2a.Task),
	}
}

// Get retrieves a task by its ID from the in-memory storage.
func (s *InMemoryTaskStore) Get(ctx context.Context, taskID string) (*a2a.Task, error) {
	if taskID == "" {
		return nil, errors.New("task ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, NewTaskNotFoundError(taskID)
	}
	return task.Clone(), nil
}

// Upsert creates or resumes the task named by params.
func (s *InMemoryTaskStore) Upsert(ctx context.Context, params *a2a.TaskSendParams) (*a2a.Task, error) {
	if params == nil || params.ID == "" {
		return nil, errors.New("task ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[params.ID]
	if !ok {
		task = newTask(params)
		s.tasks[params.ID] = task
		return task.Clone(), nil
	}
	task.History = append(task.History, *params.Message.Clone())
	return task.Clone(), nil
}

// Update applies fn to a private copy of the task and stores it only if fn succeeds.
func (s *InMemoryTaskStore) Update(ctx context.Context, taskID string, fn UpdateFunc) (*a2a.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, NewTaskNotFoundError(taskID)
	}
	updated := task.Clone()
	if err := fn(updated); err != nil {
		return nil, NewTaskStoreError("update", taskID, err)
	}
	s.tasks[taskID] = updated.Clone()
	return updated, nil
}

// Initialize prepares the in-memory storage for use.
func (s *InMemoryTaskStore) Initialize(ctx context.Context) error {
	return nil
}

// Close clears all tasks.
func (s *InMemoryTaskStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make(map[string]*a2a.Task)
	return nil
}

// Size returns the current number of tasks.
func (s *InMemoryTaskStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.tasks)
}

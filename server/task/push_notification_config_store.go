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

// PushNotificationConfigStore holds the push notification configs that passed URL
// verification, one per task ID. A later Set replaces the earlier config; nothing is
// ever deleted implicitly.
type PushNotificationConfigStore interface {
	// Set registers config for taskID, replacing any previous config.
	Set(ctx context.Context, taskID string, config a2a.PushNotificationConfig) error

	// Get returns the config registered for taskID.
	// Returns ErrPushNotificationConfigNotFound if there is none.
	Get(ctx context.Context, taskID string) (*a2a.PushNotificationConfig, error)

	// Initialize prepares the storage for use.
	Initialize(ctx context.Context) error
}

// InMemoryPushNotificationConfigStore is an in-memory implementation of PushNotificationConfigStore.
type InMemoryPushNotificationConfigStore struct {
	mu      sync.RWMutex
	configs map[string]a2a.PushNotificationConfig
}

var _ PushNotificationConfigStore = (*InMemoryPushNotificationConfigStore)(nil)

// NewInMemoryPushNotificationConfigStore creates a new in-memory push notification config store.
func NewInMemoryPushNotificationConfigStore() *InMemoryPushNotificationConfigStore {
	return &InMemoryPushNotificationConfigStore{
		configs: make(map[string]a2a.PushNotificationConfig),
	}
}

// Set registers config for taskID.
func (s *InMemoryPushNotificationConfigStore) Set(ctx context.Context, taskID string, config a2a.PushNotificationConfig) error {
	if taskID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.configs[taskID] = config
	return nil
}

// Get returns the config registered for taskID.
func (s *InMemoryPushNotificationConfigStore) Get(ctx context.Context, taskID string) (*a2a.PushNotificationConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	config, ok := s.configs[taskID]
	if !ok {
		return nil, ErrPushNotificationConfigNotFound
	}
	return &config, nil
}

// Initialize prepares the in-memory storage for use.
func (s *InMemoryPushNotificationConfigStore) Initialize(ctx context.Context) error {
	return nil
}

// DatabasePushNotificationConfigStore is a GORM implementation of PushNotificationConfigStore.
type DatabasePushNotificationConfigStore struct {
	db          *gorm.DB
	createTable bool
}

var _ PushNotificationConfigStore = (*DatabasePushNotificationConfigStore)(nil)

// NewDatabasePushNotificationConfigStore creates a new DatabasePushNotificationConfigStore.
func NewDatabasePushNotificationConfigStore(db *gorm.DB, createTable bool) (*DatabasePushNotificationConfigStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}
	return &DatabasePushNotificationConfigStore{db: db, createTable: createTable}, nil
}

// Set registers config for taskID.
func (s *DatabasePushNotificationConfigStore) Set(ctx context.Context, taskID string, config a2a.PushNotificationConfig) error {
	if taskID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	model := &PushNotificationConfigModel{
		TaskID: taskID,
		Config: NewJSONColumn(config),
	}
	if err := s.db.WithContext(ctx).Save(model).Error; err != nil {
		return NewTaskStoreError("set_push_config", taskID, err)
	}
	return nil
}

// Get returns the config registered for taskID.
func (s *DatabasePushNotificationConfigStore) Get(ctx context.Context, taskID string) (*a2a.PushNotificationConfig, error) {
	var model PushNotificationConfigModel
	if err := s.db.WithContext(ctx).Where("task_id = ?", taskID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPushNotificationConfigNotFound
		}
		return nil, NewTaskStoreError("get_push_config", taskID, err)
	}
	config := model.Config.V
	return &config, nil
}

// Initialize creates the push notification config table when configured to.
func (s *DatabasePushNotificationConfigStore) Initialize(ctx context.Context) error {
	if !s.createTable {
		return nil
	}
	if err := s.db.WithContext(ctx).AutoMigrate(&PushNotificationConfigModel{}); err != nil {
		return NewTaskStoreError("initialize", "", err)
	}
	return nil
}

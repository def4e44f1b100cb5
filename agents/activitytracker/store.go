// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package activitytracker

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/go-json-experiment/json"
	"github.com/redis/go-redis/v9"
)

// Activity is one tracked work item.
type Activity struct {
	WorkItem string `json:"work_item"`
	Details  string `json:"details"`
	DueDate  string `json:"due_date"`
	Progress string `json:"progress"`
}

// Row returns the spreadsheet cells of a.
func (a Activity) Row() []any {
	return []any{a.WorkItem, a.Details, a.DueDate, a.Progress}
}

// ActivityStore holds the activities recorded by one agent.
type ActivityStore interface {
	Add(ctx context.Context, a Activity) error
	List(ctx context.Context) ([]Activity, error)
}

// MemoryStore keeps activities in process memory.
type MemoryStore struct {
	mu         sync.Mutex
	activities []Activity
}

var _ ActivityStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Add implements [ActivityStore].
func (s *MemoryStore) Add(ctx context.Context, a Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities = append(s.activities, a)
	return nil
}

// List implements [ActivityStore].
func (s *MemoryStore) List(ctx context.Context) ([]Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.activities), nil
}

// RedisStore keeps activities in a Redis list so several agent processes share them.
type RedisStore struct {
	client *redis.Client
	key    string
}

var _ ActivityStore = (*RedisStore)(nil)

// NewRedisStore returns a store using the list at prefix+"list". The store owns
// client and closes it in [RedisStore.Close].
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "a2a:activities:"
	}
	return &RedisStore{client: client, key: prefix + "list"}
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Add implements [ActivityStore].
func (s *RedisStore) Add(ctx context.Context, a Activity) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}
	if err := s.client.RPush(ctx, s.key, data).Err(); err != nil {
		return fmt.Errorf("redis rpush: %w", err)
	}
	return nil
}

// List implements [ActivityStore].
func (s *RedisStore) List(ctx context.Context) ([]Activity, error) {
	vals, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}
	out := make([]Activity, 0, len(vals))
	for _, v := range vals {
		var a Activity
		if err := json.Unmarshal([]byte(v), &a); err != nil {
			return nil, fmt.Errorf("unmarshal activity: %w", err)
		}
		out = append(out, a)
	}
	return out, nil
}

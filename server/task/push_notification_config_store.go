// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"fmt"
	"slices"
	"sync"

	a2a "github.com/go-a2a/a2a-purchasing"
)

// PushConfigStore stores at most one push notification configuration per task id.
type PushConfigStore interface {
	// GetConfig retrieves the configuration for taskID.
	// Returns [a2a.NotFoundError] if none is stored.
	GetConfig(ctx context.Context, taskID string) (*a2a.PushNotificationConfig, error)

	// SaveConfig stores config for taskID, replacing any previous one.
	SaveConfig(ctx context.Context, taskID string, config a2a.PushNotificationConfig) error

	// DeleteConfig removes the configuration for taskID, if any.
	DeleteConfig(ctx context.Context, taskID string) error
}

// InMemoryPushConfigStore is an in-memory implementation of [PushConfigStore].
type InMemoryPushConfigStore struct {
	mu      sync.RWMutex
	configs map[string]a2a.PushNotificationConfig
}

var _ PushConfigStore = (*InMemoryPushConfigStore)(nil)

// NewInMemoryPushConfigStore creates a new in-memory push notification config store.
func NewInMemoryPushConfigStore() *InMemoryPushConfigStore {
	return &InMemoryPushConfigStore{
		configs: make(map[string]a2a.PushNotificationConfig),
	}
}

// GetConfig implements [PushConfigStore].
func (s *InMemoryPushConfigStore) GetConfig(ctx context.Context, taskID string) (*a2a.PushNotificationConfig, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	config, ok := s.configs[taskID]
	if !ok {
		return nil, &a2a.NotFoundError{TaskID: taskID}
	}
	c := copyPushConfig(config)
	return &c, nil
}

// SaveConfig implements [PushConfigStore].
func (s *InMemoryPushConfigStore) SaveConfig(ctx context.Context, taskID string, config a2a.PushNotificationConfig) error {
	if taskID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	if config.URL == "" {
		return &a2a.ValidationError{Field: "url", Reason: "push notification URL is missing"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.configs[taskID] = copyPushConfig(config)
	return nil
}

// DeleteConfig implements [PushConfigStore].
func (s *InMemoryPushConfigStore) DeleteConfig(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.configs, taskID)
	return nil
}

func copyPushConfig(config a2a.PushNotificationConfig) a2a.PushNotificationConfig {
	if config.Authentication != nil {
		auth := *config.Authentication
		auth.Schemes = slices.Clone(auth.Schemes)
		config.Authentication = &auth
	}
	return config
}

package memory

import (
	"context"
	"fmt"
	"sync"

	"stable-thought/core"

	"github.com/sirupsen/logrus"
)

type kvStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewStore creates a new in-memory store. Values are lost when the process exits.
func NewStore() core.KVStore {
	return &kvStore{
		values: make(map[string][]byte),
	}
}

func (s *kvStore) Get(ctx context.Context, key string) ([]byte, error) {
	log := logrus.WithField("key", key)

	s.mu.RLock()
	val, ok := s.values[key]
	s.mu.RUnlock()

	if !ok {
		log.Debug("Key not found")
		return nil, fmt.Errorf("get %s: %w", key, core.ErrNotFound)
	}

	log.WithField("data_length", len(val)).Debug("Value retrieved successfully")
	return append([]byte(nil), val...), nil
}

func (s *kvStore) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}

	s.mu.Lock()
	s.values[key] = append([]byte(nil), value...)
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"key":         key,
		"data_length": len(value),
	}).Debug("Value stored successfully")
	return nil
}

func (s *kvStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

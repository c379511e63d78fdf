// Package memory provides an in-memory implementation of the session store.
// It is suitable for tests, CLIs, and any host that discards the process
// (and with it the session) when the user is done.
package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/guildview/discord-oauth/storage"
)

// Store is an in-memory implementation of storage.SessionStore.
// The zero value is not usable; create one with New.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
	logger *slog.Logger
}

// Compile-time interface check
var _ storage.SessionStore = (*Store)(nil)

// New creates a new in-memory session store.
func New() *Store {
	return NewWithLogger(slog.Default())
}

// NewWithLogger creates a new in-memory session store with a custom logger.
// If logger is nil, slog.Default() is used.
func NewWithLogger(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		values: make(map[string]string),
		logger: logger,
	}
}

// Get retrieves the value for a key, or "" if the key is not set.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key], nil
}

// Set stores a value under a key, replacing any previous value.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Clear removes all keys.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.values)
	s.values = make(map[string]string)
	if n > 0 {
		s.logger.Debug("Cleared session store", "keys_removed", n)
	}
	return nil
}

// Len returns the number of keys currently stored. Used by tests and
// storage size metrics.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

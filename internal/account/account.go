// Package account manages the login identities used to authenticate
// against remote data archives. The store is a narrow key-value
// interface so the core stays testable with an in-memory fake.
package account

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned when no identity is stored for a provider.
var ErrNotFound = errors.New("no identity stored for provider")

// Identity is a provider login.
type Identity struct {
	User   string
	Secret string
}

// Store persists identities keyed by provider name.
type Store interface {
	// Get returns the identity for a provider, ErrNotFound if absent.
	Get(provider string) (Identity, error)

	// Set stores or replaces the identity for a provider.
	Set(provider string, id Identity) error

	// Delete removes the identity for a provider.
	Delete(provider string) error
}

// MemoryStore is an in-memory Store, used in tests and when no
// persistent store is configured.
type MemoryStore struct {
	mu         sync.RWMutex
	identities map[string]Identity
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{identities: make(map[string]Identity)}
}

// Get returns the identity for a provider.
func (s *MemoryStore) Get(provider string) (Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.identities[provider]
	if !ok {
		return Identity{}, fmt.Errorf("%w: %s", ErrNotFound, provider)
	}
	return id, nil
}

// Set stores or replaces the identity for a provider.
func (s *MemoryStore) Set(provider string, id Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.identities[provider] = id
	return nil
}

// Delete removes the identity for a provider.
func (s *MemoryStore) Delete(provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.identities, provider)
	return nil
}

// Package provider provides the provider registry.
package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the process-wide set of data providers, keyed by name.
// It is populated at startup and queried during product resolution.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]DataProvider
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]DataProvider)}
}

// Register adds a new provider.
func (r *Registry) Register(p DataProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[p.Name()]; exists {
		return fmt.Errorf("provider %q already registered", p.Name())
	}
	r.providers[p.Name()] = p
	return nil
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (DataProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	return p, ok
}

// All returns all registered providers sorted by name.
func (r *Registry) All() []DataProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]DataProvider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// For returns the providers claiming a product, sorted by name so that
// resolution order is deterministic.
func (r *Registry) For(productName string) []DataProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []DataProvider
	for _, p := range r.providers {
		for _, name := range p.Provides() {
			if name == productName {
				out = append(out, p)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

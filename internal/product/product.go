// Package product defines data products: named, versioned dataset types
// independent of where they are hosted. A product knows how to recognize
// its files by name and how to derive their time coverage from the
// filename alone.
package product

import (
	"fmt"
	"sort"
	"sync"

	"github.com/geodex/geodex/internal/model"
)

// Product is the capability set every dataset variant implements.
type Product interface {
	// Name returns the unique product name, e.g. "cloudsat_2b_cldclass".
	Name() string

	// Level returns the processing level, e.g. "2b".
	Level() string

	// Version returns the dataset version, e.g. "r05".
	Version() string

	// Matches reports whether a filename belongs to this product.
	Matches(filename string) bool

	// TimeCoverage derives the nominal time coverage of a file from its
	// name.
	TimeCoverage(filename string) (model.TimeRange, error)

	// Destination returns the product's sub-path under the data
	// directory. Downloads land there, and a filesystem scan of it
	// reconstructs the product's index.
	Destination() string
}

// Registry holds all known products, looked up by name. It follows a
// populate-then-freeze lifecycle: products are registered at startup,
// the registry is frozen, and lookups after that are lock-free reads.
type Registry struct {
	mu       sync.RWMutex
	products map[string]Product
	frozen   bool
}

// NewRegistry creates an empty product registry.
func NewRegistry() *Registry {
	return &Registry{products: make(map[string]Product)}
}

// Register adds a product. Duplicate names and registration after
// Freeze are errors.
func (r *Registry) Register(p Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("product registry is frozen, cannot register %q", p.Name())
	}
	if _, exists := r.products[p.Name()]; exists {
		return fmt.Errorf("product %q already registered", p.Name())
	}
	r.products[p.Name()] = p
	return nil
}

// Freeze marks the registry read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Get returns a product by name.
func (r *Registry) Get(name string) (Product, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[name]
	return p, ok
}

// All returns all registered products sorted by name.
func (r *Registry) All() []Product {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

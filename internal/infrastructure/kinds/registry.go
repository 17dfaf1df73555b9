// Package kinds holds the compiled-in provider kinds that plugin manifests
// bind their exported provider types to.
package kinds

import (
	"fmt"
	"sort"
	"sync"

	"kilometers.ai/locator/internal/core/domain/datasource"
	"kilometers.ai/locator/internal/core/ports"
)

// Spec is everything a kind factory receives about one declared provider
type Spec struct {
	// Metadata is the identity declared in the manifest
	Metadata datasource.ProviderMetadata

	// ModuleDir is the absolute directory of the declaring module; relative
	// file options resolve against it
	ModuleDir string

	// Options is the kind-specific option block
	Options map[string]any
}

// Factory creates a provider instance for a declared provider
type Factory func(spec Spec) (ports.Provider, error)

// Registry holds kind factories indexed by kind name
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty kind registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory for the given kind.
// Panics if the kind is already registered.
func (r *Registry) Register(kind string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[kind]; exists {
		panic(fmt.Sprintf("provider kind already registered: %s", kind))
	}
	r.factories[kind] = factory
}

// Get returns the factory for the given kind
func (r *Registry) Get(kind string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[kind]
	return factory, ok
}

// List returns all registered kinds, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Create instantiates a provider of the given kind
func (r *Registry) Create(kind string, spec Spec) (ports.Provider, error) {
	factory, ok := r.Get(kind)
	if !ok {
		return nil, fmt.Errorf("unknown provider kind: %s", kind)
	}
	return factory(spec)
}

// --- Default Global Registry ---

var defaultRegistry = NewRegistry()

// Default returns the global kind registry
func Default() *Registry {
	return defaultRegistry
}

// Register adds a factory to the default registry
func Register(kind string, factory Factory) {
	defaultRegistry.Register(kind, factory)
}

package catalog

import (
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"kilometers.ai/locator/internal/core/domain/datasource"
	"kilometers.ai/locator/internal/core/ports"
)

// Export pairs provider metadata with the deferred factory producing it.
//
// The provider is materialized on the first successful call to Provider and
// cached for the lifetime of the export. Exports from different Discover
// calls are unrelated; callers must not rely on identity across snapshots.
type Export struct {
	metadata datasource.ProviderMetadata
	module   string
	factory  ports.ProviderFactory
	logger   hclog.Logger

	mu       sync.Mutex
	provider ports.Provider
}

func newExport(t ports.ProviderType, module string, logger hclog.Logger) *Export {
	return &Export{
		metadata: t.Metadata,
		module:   module,
		factory:  t.Factory,
		logger:   logger,
	}
}

// Metadata returns the provider identity without materializing it
func (e *Export) Metadata() datasource.ProviderMetadata {
	return e.metadata
}

// Module returns the file name of the module that exported the provider
func (e *Export) Module() string {
	return e.module
}

// Provider materializes the provider on first use. A failed attempt is not
// cached; the next call runs the factory again.
func (e *Export) Provider() (ports.Provider, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.provider != nil {
		return e.provider, nil
	}
	if e.factory == nil {
		return nil, fmt.Errorf("provider %s in %s has no factory", e.metadata.Name, e.module)
	}

	p, err := e.factory()
	if err != nil {
		return nil, fmt.Errorf("failed to create provider %s from %s: %w", e.metadata.Name, e.module, err)
	}
	if p == nil {
		return nil, fmt.Errorf("factory for provider %s in %s returned nothing", e.metadata.Name, e.module)
	}

	e.provider = p
	e.logger.Debug("export materialized", "provider", e.metadata.Name, "module", e.module)
	return p, nil
}

// IsMaterialized reports whether the factory has produced the provider
func (e *Export) IsMaterialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.provider != nil
}

// Close releases a materialized provider implementing io.Closer
func (e *Export) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.provider
	e.provider = nil
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Snapshot is the set of exports produced by one Discover call
type Snapshot struct {
	folder  string
	exports []*Export
}

// Folder returns the folder the snapshot was taken from
func (s *Snapshot) Folder() string {
	return s.folder
}

// Exports returns the exports in discovery order without materializing any
func (s *Snapshot) Exports() []*Export {
	out := make([]*Export, len(s.exports))
	copy(out, s.exports)
	return out
}

// Metadata lists the identity of every export
func (s *Snapshot) Metadata() []datasource.ProviderMetadata {
	out := make([]datasource.ProviderMetadata, 0, len(s.exports))
	for _, e := range s.exports {
		out = append(out, e.metadata)
	}
	return out
}

// Len returns the number of exports
func (s *Snapshot) Len() int {
	return len(s.exports)
}

// Lookup returns every export whose metadata name equals name
func (s *Snapshot) Lookup(name string) []*Export {
	var matches []*Export
	for _, e := range s.exports {
		if e.metadata.Name == name {
			matches = append(matches, e)
		}
	}
	return matches
}

// Close closes every materialized export
func (s *Snapshot) Close() error {
	var result *multierror.Error
	for _, e := range s.exports {
		if err := e.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close %s: %w", e.metadata.Name, err))
		}
	}
	return result.ErrorOrNil()
}

package ports

import (
	"fmt"
	"strings"

	"kilometers.ai/locator/internal/core/domain/datasource"
)

// Provider is the capability every discoverable data provider implements:
// a no-argument accessor returning its root data object.
type Provider interface {
	DataSource() (any, error)
}

// ProviderFactory creates a provider instance. It is only invoked when the
// provider is first needed.
type ProviderFactory func() (Provider, error)

// ProviderType is one provider type exported by a plugin module
type ProviderType struct {
	Metadata datasource.ProviderMetadata
	Factory  ProviderFactory
}

// ModuleLoader recognizes and loads one kind of plugin module file
type ModuleLoader interface {
	// Name identifies the loader in logs
	Name() string

	// Accepts reports whether the file at path is a module this loader handles
	Accepts(path string) bool

	// Load inspects the module and returns the provider types it exports.
	// Failures are reported as *ModuleError.
	Load(path string) ([]ProviderType, error)
}

// ModuleError reports a module that could not be loaded, or the provider
// types inside it that could not be loaded. Types is empty when the module
// as a whole failed.
type ModuleError struct {
	Module string
	Types  []string
	Err    error
}

func (e *ModuleError) Error() string {
	if len(e.Types) == 0 {
		return fmt.Sprintf("module %s: %v", e.Module, e.Err)
	}
	return fmt.Sprintf("module %s: types %s: %v", e.Module, strings.Join(e.Types, ", "), e.Err)
}

func (e *ModuleError) Unwrap() error { return e.Err }

// Identifiers returns the offending module or type identifiers
func (e *ModuleError) Identifiers() []string {
	if len(e.Types) == 0 {
		return []string{e.Module}
	}
	ids := make([]string, 0, len(e.Types))
	for _, t := range e.Types {
		ids = append(ids, e.Module+"#"+t)
	}
	return ids
}

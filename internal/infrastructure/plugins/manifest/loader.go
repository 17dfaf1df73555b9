// Package manifest loads declarative plugin modules: YAML or JSON documents
// listing provider types bound to compiled-in provider kinds.
//
//	providers:
//	  - name: SalesDB
//	    kind: json
//	    shape: sales.Database
//	    description: Demo sales data
//	    options:
//	      file: sales.json
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"kilometers.ai/locator/internal/core/domain/datasource"
	"kilometers.ai/locator/internal/core/ports"
	"kilometers.ai/locator/internal/infrastructure/kinds"
)

// Suffixes recognized as manifest modules
var Suffixes = []string{".provider.yaml", ".provider.yml", ".provider.json"}

// Document is the manifest file format
type Document struct {
	Providers []Entry `yaml:"providers"`
}

// Entry declares one exported provider type
type Entry struct {
	Name        string         `yaml:"name"`
	Kind        string         `yaml:"kind"`
	Shape       string         `yaml:"shape"`
	Description string         `yaml:"description"`
	Options     map[string]any `yaml:"options"`
}

// Loader implements ports.ModuleLoader for manifest files
type Loader struct {
	kinds  *kinds.Registry
	logger hclog.Logger
}

// NewLoader creates a manifest loader resolving kinds against registry
func NewLoader(registry *kinds.Registry, logger hclog.Logger) *Loader {
	if registry == nil {
		registry = kinds.Default()
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Loader{kinds: registry, logger: logger.Named("manifest")}
}

// Name identifies the loader
func (l *Loader) Name() string { return "manifest" }

// Accepts reports whether path names a manifest module
func (l *Loader) Accepts(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	for _, s := range Suffixes {
		if strings.HasSuffix(base, s) && len(base) > len(s) {
			return true
		}
	}
	return false
}

// Load decodes the manifest and binds each entry to its kind factory
func (l *Loader) Load(path string) ([]ports.ProviderType, error) {
	module := filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ports.ModuleError{Module: module, Err: fmt.Errorf("failed to read manifest: %w", err)}
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ports.ModuleError{Module: module, Err: fmt.Errorf("failed to parse manifest: %w", err)}
	}
	if len(doc.Providers) == 0 {
		return nil, &ports.ModuleError{Module: module, Err: errors.New("manifest declares no providers")}
	}

	dir := filepath.Dir(path)
	var (
		types    []ports.ProviderType
		offended []string
		failures *multierror.Error
	)

	for i, entry := range doc.Providers {
		id := entry.Name
		if id == "" {
			id = strconv.Itoa(i)
		}

		pt, err := l.bind(entry, dir)
		if err != nil {
			offended = append(offended, id)
			failures = multierror.Append(failures, fmt.Errorf("%s: %w", id, err))
			continue
		}
		types = append(types, pt)
	}

	if failures != nil {
		return nil, &ports.ModuleError{Module: module, Types: offended, Err: failures.ErrorOrNil()}
	}

	l.logger.Debug("loaded manifest", "module", module, "providers", len(types))
	return types, nil
}

func (l *Loader) bind(entry Entry, dir string) (ports.ProviderType, error) {
	meta := datasource.ProviderMetadata{
		Name:        entry.Name,
		Shape:       datasource.Shape(entry.Shape),
		Description: entry.Description,
	}
	if err := meta.Validate(); err != nil {
		return ports.ProviderType{}, err
	}
	if entry.Kind == "" {
		return ports.ProviderType{}, errors.New("kind is required")
	}

	factory, ok := l.kinds.Get(entry.Kind)
	if !ok {
		return ports.ProviderType{}, fmt.Errorf("unknown provider kind %q", entry.Kind)
	}

	spec := kinds.Spec{
		Metadata:  meta,
		ModuleDir: dir,
		Options:   entry.Options,
	}
	return ports.ProviderType{
		Metadata: meta,
		Factory: func() (ports.Provider, error) {
			return factory(spec)
		},
	}, nil
}

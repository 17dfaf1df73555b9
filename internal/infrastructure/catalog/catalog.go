// Package catalog scans plugin folders for provider modules and pairs each
// exported provider type with a deferred factory.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"kilometers.ai/locator/internal/core/domain/datasource"
	"kilometers.ai/locator/internal/core/ports"
	"kilometers.ai/locator/internal/infrastructure/paths"
)

// Catalog discovers provider exports in plugin folders below a base path
type Catalog struct {
	paths   *paths.Resolver
	loaders []ports.ModuleLoader
	logger  hclog.Logger
}

// Option configures a Catalog
type Option func(*Catalog)

// WithLogger sets the catalog logger
func WithLogger(logger hclog.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a catalog resolving folders through resolver and handing
// module files to loaders in order
func New(resolver *paths.Resolver, loaders []ports.ModuleLoader, opts ...Option) *Catalog {
	c := &Catalog{
		paths:   resolver,
		loaders: loaders,
		logger:  hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("catalog")
	return c
}

// Paths returns the resolver the catalog was built with
func (c *Catalog) Paths() *paths.Resolver {
	return c.paths
}

// IsModule reports whether any loader accepts the file at path
func (c *Catalog) IsModule(path string) bool {
	return c.loaderFor(path) != nil
}

func (c *Catalog) loaderFor(path string) ports.ModuleLoader {
	for _, l := range c.loaders {
		if l.Accepts(path) {
			return l
		}
	}
	return nil
}

// Discover scans folder, relative to the base path, for provider modules.
//
// A folder that does not exist yields an empty snapshot and no error. When
// any module or provider type in the folder fails to load, Discover returns a
// *datasource.PluginLoadError naming every offender and no snapshot.
// Providers are not instantiated.
func (c *Catalog) Discover(folder string) (*Snapshot, error) {
	dir := c.paths.ToFullPath(folder)

	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		c.logger.Debug("plugin folder absent", "folder", folder)
		return &Snapshot{folder: folder}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to inspect plugin folder %q: %w", folder, err)
	}
	if !info.IsDir() {
		return nil, datasource.InvalidArgument("folder", fmt.Sprintf("%q is not a directory", folder))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugin folder %q: %w", folder, err)
	}

	c.logger.Debug("scanning plugin folder", "folder", folder, "entries", len(entries))

	var (
		exports   []*Export
		offenders []string
		failures  *multierror.Error
		modules   int
	)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		loader := c.loaderFor(path)
		if loader == nil {
			continue
		}
		modules++

		types, err := loader.Load(path)
		if err != nil {
			var modErr *ports.ModuleError
			if errors.As(err, &modErr) {
				offenders = append(offenders, modErr.Identifiers()...)
			} else {
				offenders = append(offenders, entry.Name())
			}
			failures = multierror.Append(failures, err)
			c.logger.Debug("module failed to load", "loader", loader.Name(), "module", entry.Name(), "error", err)
			continue
		}

		for _, t := range types {
			exports = append(exports, newExport(t, entry.Name(), c.logger))
		}
	}

	if failures != nil {
		return nil, &datasource.PluginLoadError{
			Folder:    folder,
			Offenders: offenders,
			Err:       failures.ErrorOrNil(),
		}
	}

	c.logger.Debug("scanned plugin folder", "folder", folder, "modules", modules, "exports", len(exports))
	return &Snapshot{folder: folder, exports: exports}, nil
}

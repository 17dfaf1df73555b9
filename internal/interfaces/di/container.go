package di

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/hashicorp/go-hclog"

	"kilometers.ai/locator/internal/application/services"
	"kilometers.ai/locator/internal/config"
	"kilometers.ai/locator/internal/core/ports"
	"kilometers.ai/locator/internal/infrastructure/catalog"
	"kilometers.ai/locator/internal/infrastructure/kinds"
	"kilometers.ai/locator/internal/infrastructure/paths"
	"kilometers.ai/locator/internal/infrastructure/plugins/manifest"
	"kilometers.ai/locator/internal/infrastructure/plugins/rpcplugin"
	"kilometers.ai/locator/internal/logging"

	// compiled-in provider kinds
	_ "kilometers.ai/locator/internal/infrastructure/providers/filedata"
	_ "kilometers.ai/locator/internal/infrastructure/providers/redisdata"
	_ "kilometers.ai/locator/internal/infrastructure/providers/sqldb"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger hclog.Logger

	// Infrastructure
	Paths   *paths.Resolver
	Kinds   *kinds.Registry
	Loaders []ports.ModuleLoader
	Catalog *catalog.Catalog
	Shared  *catalog.SharedDiscovery

	// Application
	Resolver *services.DataSourceResolver
}

// NewContainer creates the container, logging to logOutput
func NewContainer(cfg *config.Config, logOutput io.Writer) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	logger := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Debug:  cfg.Debug,
		Output: logOutput,
	})
	return NewContainerWithLogger(cfg, logger)
}

// NewContainerWithLogger creates the container with an existing logger
func NewContainerWithLogger(cfg *config.Config, logger hclog.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
		Kinds:  kinds.Default(),
	}

	resolver, err := paths.NewResolver(cfg.BasePath, paths.WithLogger(logger.Named("paths")))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize base path: %w", err)
	}
	c.Paths = resolver

	if cfg.CreateBasePath {
		if err := ensureDir(c.Paths.BasePath(), logger); err != nil {
			return nil, err
		}
	}

	c.Loaders = []ports.ModuleLoader{
		manifest.NewLoader(c.Kinds, logger),
		rpcplugin.NewLoader(rpcplugin.WithLogger(logger)),
	}
	c.Catalog = catalog.New(c.Paths, c.Loaders, catalog.WithLogger(logger))
	c.Shared = catalog.NewSharedDiscovery(c.Catalog)
	c.Resolver = services.NewDataSourceResolver(c.Catalog, logger)

	logger.Debug("container initialized", "base_path", c.Paths.BasePath(), "kinds", c.Kinds.List())
	return c, nil
}

// ensureDir creates dir when it does not exist yet
func ensureDir(dir string, logger hclog.Logger) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to inspect base path: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create base path: %w", err)
	}
	logger.Info("created base path", "path", dir)
	return nil
}

// Shutdown releases materialized providers and plugin processes
func (c *Container) Shutdown() error {
	if c.Resolver == nil {
		return nil
	}
	return c.Resolver.Close()
}

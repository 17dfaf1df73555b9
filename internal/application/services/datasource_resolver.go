package services

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"kilometers.ai/locator/internal/core/domain/datasource"
	"kilometers.ai/locator/internal/core/traversal"
	"kilometers.ai/locator/internal/infrastructure/catalog"
)

// Discoverer produces export snapshots for plugin folders
type Discoverer interface {
	Discover(folder string) (*catalog.Snapshot, error)
}

// DataSourceResolver finds providers by name, materializes them and walks
// their data along a definition's relation path.
type DataSourceResolver struct {
	discoverer Discoverer
	logger     hclog.Logger

	mu       sync.Mutex
	retained []*catalog.Snapshot
}

// NewDataSourceResolver creates a resolver over discoverer
func NewDataSourceResolver(discoverer Discoverer, logger hclog.Logger) *DataSourceResolver {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &DataSourceResolver{
		discoverer: discoverer,
		logger:     logger.Named("resolver"),
	}
}

// FindExport scans folder and returns the single export named name.
// It returns nil and no error when nothing matches, and
// *datasource.AmbiguousPluginError when more than one export matches.
func (r *DataSourceResolver) FindExport(folder, name string) (*catalog.Export, error) {
	_, export, err := r.find(folder, name)
	return export, err
}

func (r *DataSourceResolver) find(folder, name string) (*catalog.Snapshot, *catalog.Export, error) {
	if folder == "" {
		return nil, nil, datasource.InvalidArgument("folder", "cannot be empty")
	}
	if name == "" {
		return nil, nil, nil
	}

	snapshot, err := r.discoverer.Discover(folder)
	if err != nil {
		return nil, nil, err
	}

	matches := snapshot.Lookup(name)
	switch len(matches) {
	case 0:
		return snapshot, nil, nil
	case 1:
		return snapshot, matches[0], nil
	default:
		return nil, nil, &datasource.AmbiguousPluginError{Folder: folder, Name: name, Count: len(matches)}
	}
}

// Resolution is the outcome of locating a definition's provider
type Resolution struct {
	// Export is the provider export the definition named
	Export *catalog.Export

	// Root is the object returned by the provider
	Root any

	// Target is the object the relation path addresses; nil when the path
	// reached a value that is not currently available
	Target any
}

// Resolve locates the provider named by def, obtains its root object and
// walks def.RelationPath from it.
//
// When no provider matches, Resolve returns nil and no error and leaves the
// definition's resolved shapes empty. On success the root and target shapes
// are written back onto def. A nil target with no error means either that no
// provider matched or that the path reached a value that is not currently
// available; use Locate to tell the two apart.
func (r *DataSourceResolver) Resolve(def *datasource.Definition) (any, error) {
	res, err := r.Locate(def)
	if err != nil || res == nil {
		return nil, err
	}
	return res.Target, nil
}

// Locate does the work of Resolve and reports what was found. It returns a
// nil Resolution and no error when no provider matches.
//
// Materialized providers stay open until Close, so targets handed out earlier
// keep working while other providers of the same folder are resolved.
func (r *DataSourceResolver) Locate(def *datasource.Definition) (*Resolution, error) {
	if def == nil {
		return nil, datasource.InvalidArgument("definition", "cannot be nil")
	}
	def.ClearResolvedShapes()

	snapshot, export, err := r.find(def.Folder, def.ProviderName)
	if err != nil {
		return nil, err
	}
	if export == nil {
		r.logger.Debug("provider not found", "folder", def.Folder, "provider", def.ProviderName)
		return nil, nil
	}

	provider, err := export.Provider()
	if err != nil {
		return nil, err
	}
	r.retain(snapshot)

	root, err := provider.DataSource()
	if err != nil {
		return nil, fmt.Errorf("provider %s failed to return its data: %w", def.ProviderName, err)
	}
	def.RootShape = datasource.RootShapeOf(root, export.Metadata().Shape)

	target, err := traversal.TraversePath(root, def.RelationPath)
	if err != nil {
		return nil, err
	}
	def.TargetShape = datasource.ShapeOf(target)
	if def.RelationPath.IsEmpty() && target != nil {
		def.TargetShape = def.RootShape
	}

	r.logger.Debug("resolved data source",
		"folder", def.Folder,
		"provider", def.ProviderName,
		"path", def.RelationPath.String(),
		"root_shape", def.RootShape,
		"target_shape", def.TargetShape)
	return &Resolution{Export: export, Root: root, Target: target}, nil
}

// ListProviders returns the metadata of every provider in folder without
// materializing any of them
func (r *DataSourceResolver) ListProviders(folder string) ([]datasource.ProviderMetadata, error) {
	if folder == "" {
		return nil, datasource.InvalidArgument("folder", "cannot be empty")
	}
	snapshot, err := r.discoverer.Discover(folder)
	if err != nil {
		return nil, err
	}
	return snapshot.Metadata(), nil
}

// Close releases every provider materialized by this resolver
func (r *DataSourceResolver) Close() error {
	r.mu.Lock()
	retained := r.retained
	r.retained = nil
	r.mu.Unlock()

	var result *multierror.Error
	for _, snapshot := range retained {
		if err := snapshot.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("folder %s: %w", snapshot.Folder(), err))
		}
	}
	return result.ErrorOrNil()
}

// retain keeps snapshot, and the providers materialized from it, alive until Close
func (r *DataSourceResolver) retain(snapshot *catalog.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, held := range r.retained {
		if held == snapshot {
			return
		}
	}
	r.retained = append(r.retained, snapshot)
}

package catalog

import (
	"golang.org/x/sync/singleflight"
)

// SharedDiscovery collapses concurrent discoveries of the same folder into a
// single scan. Callers of an in-flight scan receive the same snapshot.
//
// The catalog itself performs no de-duplication; interactive callers that may
// trigger overlapping scans wrap it with SharedDiscovery.
type SharedDiscovery struct {
	catalog *Catalog
	group   singleflight.Group
}

// NewSharedDiscovery wraps catalog
func NewSharedDiscovery(catalog *Catalog) *SharedDiscovery {
	return &SharedDiscovery{catalog: catalog}
}

// Discover scans folder, joining a scan already in flight for the same
// folder. shared reports whether the snapshot was handed to more than one caller.
func (s *SharedDiscovery) Discover(folder string) (snapshot *Snapshot, shared bool, err error) {
	key := s.catalog.paths.ToFullPath(folder)

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		return s.catalog.Discover(folder)
	})
	if err != nil {
		return nil, shared, err
	}
	return v.(*Snapshot), shared, nil
}

// Package paths converts between plugin folder paths relative to a base
// directory and absolute filesystem paths.
//
// Paths crossing the package boundary are relative to the base directory so
// stored definitions stay valid when the installation moves. Internally every
// path is reduced to forward slashes before it is compared, and converted back
// to the platform separator only at the filesystem boundary.
package paths

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"kilometers.ai/locator/internal/core/domain/datasource"
)

// Resolver owns the base directory. It is meant to be configured once during
// start-up and then only read; concurrent SetBasePath calls while other
// goroutines resolve paths are not guarded.
type Resolver struct {
	base   string
	logger hclog.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithLogger sets the logger used for skipped directories during enumeration
func WithLogger(logger hclog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a resolver rooted at base
func NewResolver(base string, opts ...Option) (*Resolver, error) {
	r := &Resolver{logger: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.SetBasePath(base); err != nil {
		return nil, err
	}
	return r, nil
}

// DefaultBasePath returns the directory holding the running executable
func DefaultBasePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// SetBasePath normalizes p to an absolute directory path ending with a
// separator and makes it the base path.
func (r *Resolver) SetBasePath(p string) error {
	if strings.TrimSpace(p) == "" {
		return datasource.InvalidArgument("base path", "cannot be empty")
	}

	native := filepath.FromSlash(toSlash(p))
	abs, err := filepath.Abs(native)
	if err != nil {
		return datasource.InvalidArgument("base path", err.Error())
	}

	r.base = withTrailingSeparator(abs)
	return nil
}

// BasePath returns the normalized base path, always ending with a separator
func (r *Resolver) BasePath() string {
	return r.base
}

// ToFullPath joins relative onto the base path. An absolute argument is
// returned cleaned.
func (r *Resolver) ToFullPath(relative string) string {
	native := filepath.FromSlash(toSlash(relative))
	if filepath.IsAbs(native) {
		return filepath.Clean(native)
	}
	return filepath.Join(r.base, native)
}

// ToRelativePath expresses full relative to the base path. The base path
// itself maps to ".". A path on a different volume is returned cleaned.
func (r *Resolver) ToRelativePath(full string) (string, error) {
	if full == "" {
		return "", datasource.InvalidArgument("full path", "cannot be empty")
	}
	if r.base == "" {
		return "", datasource.InvalidArgument("base path", "is not set")
	}

	target := filepath.FromSlash(toSlash(full))
	if !filepath.IsAbs(target) {
		target = filepath.Join(r.base, target)
	}

	baseVol, targetVol := filepath.VolumeName(r.base), filepath.VolumeName(target)
	if !sameComponent(baseVol, targetVol) {
		return filepath.Clean(target), nil
	}

	from := components(toSlash(r.base[len(baseVol):]))
	to := components(toSlash(target[len(targetVol):]))

	common := 0
	for common < len(from) && common < len(to) && sameComponent(from[common], to[common]) {
		common++
	}

	parts := make([]string, 0, len(from)-common+len(to)-common)
	for range from[common:] {
		parts = append(parts, "..")
	}
	parts = append(parts, to[common:]...)

	if len(parts) == 0 {
		return ".", nil
	}
	return filepath.FromSlash(strings.Join(parts, "/")), nil
}

// NormalizeRelative returns the canonical relative form of a folder path
func (r *Resolver) NormalizeRelative(relative string) (string, error) {
	return r.ToRelativePath(r.ToFullPath(relative))
}

// EnumeratePluginFolders walks the base path and returns, relative to it, the
// distinct sorted set of directories containing at least one file accepted
// by isModule.
func (r *Resolver) EnumeratePluginFolders(isModule func(path string) bool) ([]string, error) {
	if isModule == nil {
		return nil, datasource.InvalidArgument("module predicate", "cannot be nil")
	}

	root := filepath.Clean(r.base)
	found := make(map[string]struct{})

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			r.logger.Warn("skipping unreadable path", "path", p, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isModule(p) {
			return nil
		}

		rel, err := r.ToRelativePath(filepath.Dir(p))
		if err != nil {
			return err
		}
		found[rel] = struct{}{}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}

	folders := make([]string, 0, len(found))
	for f := range found {
		folders = append(folders, f)
	}
	sort.Strings(folders)

	r.logger.Debug("enumerated plugin folders", "base", r.base, "count", len(folders))
	return folders, nil
}

// toSlash converts both separator conventions to forward slashes
func toSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

func withTrailingSeparator(p string) string {
	if strings.HasSuffix(p, string(filepath.Separator)) {
		return p
	}
	return p + string(filepath.Separator)
}

func components(slashed string) []string {
	cleaned := path.Clean("/" + slashed)
	var out []string
	for _, c := range strings.Split(cleaned, "/") {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func sameComponent(a, b string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}

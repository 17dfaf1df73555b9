// Package testfixtures provides builders for plugin folders and definitions
// used across package tests.
package testfixtures

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"kilometers.ai/locator/internal/core/domain/datasource"
)

type manifestEntry struct {
	Name        string         `yaml:"name"`
	Kind        string         `yaml:"kind"`
	Shape       string         `yaml:"shape,omitempty"`
	Description string         `yaml:"description,omitempty"`
	Options     map[string]any `yaml:"options,omitempty"`
}

// ManifestBuilder provides a builder pattern for *.provider.yaml documents
type ManifestBuilder struct {
	entries []manifestEntry
}

// NewManifestBuilder creates an empty manifest
func NewManifestBuilder() *ManifestBuilder {
	return &ManifestBuilder{}
}

// WithProvider appends a provider; later calls configure the last one added
func (b *ManifestBuilder) WithProvider(name, kind string) *ManifestBuilder {
	b.entries = append(b.entries, manifestEntry{Name: name, Kind: kind})
	return b
}

// WithShape sets the shape of the last provider
func (b *ManifestBuilder) WithShape(shape string) *ManifestBuilder {
	b.last().Shape = shape
	return b
}

// WithDescription sets the description of the last provider
func (b *ManifestBuilder) WithDescription(description string) *ManifestBuilder {
	b.last().Description = description
	return b
}

// WithOption sets a kind option on the last provider
func (b *ManifestBuilder) WithOption(key string, value any) *ManifestBuilder {
	e := b.last()
	if e.Options == nil {
		e.Options = map[string]any{}
	}
	e.Options[key] = value
	return b
}

func (b *ManifestBuilder) last() *manifestEntry {
	if len(b.entries) == 0 {
		panic("testfixtures: WithProvider must be called first")
	}
	return &b.entries[len(b.entries)-1]
}

// Build renders the manifest as YAML
func (b *ManifestBuilder) Build() string {
	data, err := yaml.Marshal(map[string]any{"providers": b.entries})
	if err != nil {
		panic(err)
	}
	return string(data)
}

// WriteTo writes the manifest below base at the slash-separated path rel
func (b *ManifestBuilder) WriteTo(t testing.TB, base, rel string) {
	t.Helper()
	WriteFile(t, base, rel, b.Build())
}

// WriteFile writes body below base at the slash-separated path rel,
// creating parent directories
func WriteFile(t testing.TB, base, rel, body string) {
	t.Helper()
	p := filepath.Join(base, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(p), err)
	}
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
}

// DefinitionBuilder provides a builder pattern for definitions
type DefinitionBuilder struct {
	folder   string
	provider string
	path     string
}

// NewDefinitionBuilder creates a builder targeting SalesDB in plugins/sales
func NewDefinitionBuilder() *DefinitionBuilder {
	return &DefinitionBuilder{folder: "plugins/sales", provider: "SalesDB"}
}

// InFolder sets the plugin folder
func (b *DefinitionBuilder) InFolder(folder string) *DefinitionBuilder {
	b.folder = folder
	return b
}

// ForProvider sets the provider name
func (b *DefinitionBuilder) ForProvider(name string) *DefinitionBuilder {
	b.provider = name
	return b
}

// WithPath sets the relation path text
func (b *DefinitionBuilder) WithPath(path string) *DefinitionBuilder {
	b.path = path
	return b
}

// Build creates the definition; it panics on a malformed path
func (b *DefinitionBuilder) Build() *datasource.Definition {
	return &datasource.Definition{
		Folder:       b.folder,
		ProviderName: b.provider,
		RelationPath: datasource.MustParseRelationPath(b.path),
	}
}

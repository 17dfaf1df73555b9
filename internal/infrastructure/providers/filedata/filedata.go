// Package filedata provides the json and yaml provider kinds: the root
// object is the decoded content of a file shipped with the plugin module.
package filedata

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"kilometers.ai/locator/internal/core/ports"
	"kilometers.ai/locator/internal/infrastructure/kinds"
)

func init() {
	kinds.Register("json", NewJSON)
	kinds.Register("yaml", NewYAML)
}

// Decoder turns file content into an object graph
type Decoder func(data []byte) (any, error)

// Provider serves a data file as its root object
type Provider struct {
	path   string
	decode Decoder
}

// NewJSON creates a provider reading a JSON document from option "file"
func NewJSON(spec kinds.Spec) (ports.Provider, error) {
	return newProvider(spec, decodeJSON)
}

// NewYAML creates a provider reading a YAML document from option "file"
func NewYAML(spec kinds.Spec) (ports.Provider, error) {
	return newProvider(spec, decodeYAML)
}

func newProvider(spec kinds.Spec, decode Decoder) (*Provider, error) {
	path, err := spec.Path("file")
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", spec.Metadata.Name, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("provider %s: %s is a directory", spec.Metadata.Name, path)
	}

	return &Provider{path: path, decode: decode}, nil
}

// DataSource reads and decodes the file
func (p *Provider) DataSource() (any, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}
	root, err := p.decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", p.path, err)
	}
	return root, nil
}

func decodeJSON(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeYAML(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

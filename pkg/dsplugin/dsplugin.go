// Package dsplugin is the contract between kmds and out-of-process data
// source plugins. A plugin is an executable named kmds-plugin-<name> that
// calls Serve with its providers; kmds launches it through hashicorp/go-plugin
// and talks to it over net/rpc.
package dsplugin

import (
	"encoding/json"
	"fmt"
	"net/rpc"
	"sort"

	"github.com/hashicorp/go-plugin"
)

// PluginName is the key under which the data source plugin is dispensed
const PluginName = "datasource"

// Handshake is shared by kmds and every plugin executable
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "KMDS_PLUGIN",
	MagicCookieValue: "kmds_datasource_provider",
}

// Descriptor is the identity a plugin declares for one provider
type Descriptor struct {
	Name        string `json:"name"`
	Shape       string `json:"shape"`
	Description string `json:"description"`
}

// Source is implemented by plugin executables
type Source interface {
	// Describe lists the providers the plugin exports
	Describe() ([]Descriptor, error)

	// Root returns the root data object of the named provider. The value
	// must be JSON encodable; it crosses the process boundary as JSON.
	Root(name string) (any, error)
}

// Provider is one provider served by Providers
type Provider struct {
	Descriptor
	Root func() (any, error)
}

// Providers is a Source backed by a static provider list
type Providers []Provider

// Describe lists the descriptors sorted by name
func (ps Providers) Describe() ([]Descriptor, error) {
	out := make([]Descriptor, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Descriptor)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Root invokes the named provider
func (ps Providers) Root(name string) (any, error) {
	for _, p := range ps {
		if p.Name == name {
			return p.Root()
		}
	}
	return nil, fmt.Errorf("provider %q is not served by this plugin", name)
}

// Serve runs the plugin server. It blocks until kmds disconnects.
func Serve(impl Source) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins:         PluginMap(impl),
	})
}

// PluginMap returns the go-plugin plugin set. impl may be nil on the client side.
func PluginMap(impl Source) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginName: &DataSourcePlugin{Impl: impl},
	}
}

// DataSourcePlugin implements plugin.Plugin over net/rpc
type DataSourcePlugin struct {
	Impl Source
}

// Server returns the RPC server wrapping the plugin implementation
func (p *DataSourcePlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &RPCServer{Impl: p.Impl}, nil
}

// Client returns the RPC client used by kmds
func (p *DataSourcePlugin) Client(_ *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &RPCClient{client: c}, nil
}

// RPCServer is the plugin-side RPC endpoint
type RPCServer struct {
	Impl Source
}

// Describe answers Plugin.Describe
func (s *RPCServer) Describe(_ interface{}, resp *[]Descriptor) error {
	descriptors, err := s.Impl.Describe()
	if err != nil {
		return err
	}
	*resp = descriptors
	return nil
}

// Root answers Plugin.Root with the JSON encoded root object
func (s *RPCServer) Root(name string, resp *[]byte) error {
	root, err := s.Impl.Root(name)
	if err != nil {
		return err
	}
	data, err := json.Marshal(root)
	if err != nil {
		return fmt.Errorf("provider %q returned a value that cannot be encoded: %w", name, err)
	}
	*resp = data
	return nil
}

// RPCClient is the kmds-side view of a plugin. It implements Source.
type RPCClient struct {
	client *rpc.Client
}

// Describe calls Plugin.Describe
func (c *RPCClient) Describe() ([]Descriptor, error) {
	var resp []Descriptor
	if err := c.client.Call("Plugin.Describe", new(interface{}), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Root calls Plugin.Root and decodes the JSON graph
func (c *RPCClient) Root(name string) (any, error) {
	var resp []byte
	if err := c.client.Call("Plugin.Root", name, &resp); err != nil {
		return nil, err
	}
	var root any
	if err := json.Unmarshal(resp, &root); err != nil {
		return nil, fmt.Errorf("provider %q sent an undecodable root: %w", name, err)
	}
	return root, nil
}

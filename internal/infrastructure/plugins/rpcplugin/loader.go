// Package rpcplugin loads out-of-process plugin executables (kmds-plugin-*)
// through hashicorp/go-plugin.
//
// Provider metadata comes from a sidecar <name>.manifest.json next to the
// executable. When the sidecar is missing the executable is started once and
// asked to describe itself. Executables are only kept running while a
// provider from them is materialized.
package rpcplugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"kilometers.ai/locator/internal/core/domain/datasource"
	"kilometers.ai/locator/internal/core/ports"
	"kilometers.ai/locator/pkg/dsplugin"
)

// Prefix every plugin executable name starts with
const Prefix = "kmds-plugin-"

// Sidecar is the optional metadata file shipped next to a plugin executable
type Sidecar struct {
	Name        string                `json:"name"`
	Version     string                `json:"version"`
	Description string                `json:"description"`
	Providers   []dsplugin.Descriptor `json:"providers"`
}

// Session is a running plugin process
type Session struct {
	Source dsplugin.Source
	Kill   func()
}

// Launcher starts the plugin executable at path
type Launcher func(path string) (*Session, error)

// Loader implements ports.ModuleLoader for plugin executables
type Loader struct {
	logger hclog.Logger
	launch Launcher
}

// Option configures a Loader
type Option func(*Loader)

// WithLogger sets the loader logger, also handed to go-plugin
func WithLogger(logger hclog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithLauncher replaces the process launcher
func WithLauncher(launch Launcher) Option {
	return func(l *Loader) {
		if launch != nil {
			l.launch = launch
		}
	}
}

// NewLoader creates a plugin executable loader
func NewLoader(opts ...Option) *Loader {
	l := &Loader{logger: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.Named("rpcplugin")
	if l.launch == nil {
		l.launch = ExecLauncher(l.logger)
	}
	return l
}

// ExecLauncher starts plugin executables as child processes speaking net/rpc
func ExecLauncher(logger hclog.Logger) Launcher {
	return func(path string) (*Session, error) {
		client := plugin.NewClient(&plugin.ClientConfig{
			HandshakeConfig:  dsplugin.Handshake,
			Plugins:          dsplugin.PluginMap(nil),
			Cmd:              exec.Command(path),
			AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
			Logger:           logger,
			Managed:          true,
		})

		rpcClient, err := client.Client()
		if err != nil {
			client.Kill()
			return nil, fmt.Errorf("failed to start plugin: %w", err)
		}

		raw, err := rpcClient.Dispense(dsplugin.PluginName)
		if err != nil {
			client.Kill()
			return nil, fmt.Errorf("failed to dispense plugin: %w", err)
		}

		source, ok := raw.(dsplugin.Source)
		if !ok {
			client.Kill()
			return nil, fmt.Errorf("plugin does not implement the datasource contract")
		}

		return &Session{Source: source, Kill: client.Kill}, nil
	}
}

// Name identifies the loader
func (l *Loader) Name() string { return "rpcplugin" }

// Accepts reports whether path names a plugin executable
func (l *Loader) Accepts(path string) bool {
	base := filepath.Base(path)
	if !strings.HasPrefix(base, Prefix) || len(base) == len(Prefix) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	return ext == "" || ext == ".exe"
}

// Load reads the provider descriptors of the executable at path. No process
// is left running.
func (l *Loader) Load(path string) ([]ports.ProviderType, error) {
	module := filepath.Base(path)

	if err := checkExecutable(path); err != nil {
		return nil, &ports.ModuleError{Module: module, Err: err}
	}

	descriptors, err := l.describe(path)
	if err != nil {
		return nil, &ports.ModuleError{Module: module, Err: err}
	}
	if len(descriptors) == 0 {
		return nil, &ports.ModuleError{Module: module, Err: errors.New("plugin declares no providers")}
	}

	mod := &sharedModule{path: path, launch: l.launch, logger: l.logger}

	var (
		types    []ports.ProviderType
		offended []string
	)
	for i, d := range descriptors {
		meta := datasource.ProviderMetadata{
			Name:        d.Name,
			Shape:       datasource.Shape(d.Shape),
			Description: d.Description,
		}
		if err := meta.Validate(); err != nil {
			offended = append(offended, fmt.Sprintf("%d", i))
			continue
		}
		name := d.Name
		types = append(types, ports.ProviderType{
			Metadata: meta,
			Factory: func() (ports.Provider, error) {
				p, err := mod.open(name)
				if err != nil {
					return nil, err
				}
				return p, nil
			},
		})
	}
	if len(offended) > 0 {
		return nil, &ports.ModuleError{Module: module, Types: offended, Err: errors.New("provider descriptor without a name")}
	}

	l.logger.Debug("loaded plugin executable", "module", module, "providers", len(types))
	return types, nil
}

func (l *Loader) describe(path string) ([]dsplugin.Descriptor, error) {
	sidecar, err := loadSidecar(sidecarPath(path))
	if err == nil {
		return sidecar.Providers, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	l.logger.Debug("no sidecar manifest, asking plugin to describe itself", "path", path)

	session, err := l.launch(path)
	if err != nil {
		return nil, err
	}
	defer session.Kill()

	descriptors, err := session.Source.Describe()
	if err != nil {
		return nil, fmt.Errorf("plugin failed to describe itself: %w", err)
	}
	return descriptors, nil
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("plugin file not found: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("plugin path is a directory")
	}
	if runtime.GOOS != "windows" && info.Mode()&0o111 == 0 {
		return fmt.Errorf("plugin file is not executable")
	}
	return nil
}

// loadSidecar loads plugin metadata from its JSON sidecar
func loadSidecar(path string) (*Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sidecar Sidecar
	if err := json.Unmarshal(data, &sidecar); err != nil {
		return nil, fmt.Errorf("failed to parse sidecar manifest %s: %w", filepath.Base(path), err)
	}
	return &sidecar, nil
}

// sidecarPath returns the expected sidecar path for a plugin executable
func sidecarPath(pluginPath string) string {
	return filepath.Join(filepath.Dir(pluginPath), pluginName(pluginPath)+".manifest.json")
}

// pluginName strips the prefix and any extension from the executable name
func pluginName(pluginPath string) string {
	name := strings.TrimPrefix(filepath.Base(pluginPath), Prefix)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

package rpcplugin

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"

	"kilometers.ai/locator/pkg/dsplugin"
)

// sharedModule runs one plugin process for all providers materialized from
// the same module. The process is killed when the last provider is closed.
type sharedModule struct {
	path   string
	launch Launcher
	logger hclog.Logger

	mu      sync.Mutex
	session *Session
	refs    int
}

func (m *sharedModule) open(name string) (*provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		session, err := m.launch(m.path)
		if err != nil {
			return nil, err
		}
		m.session = session
		m.logger.Debug("plugin process started", "module", filepath.Base(m.path))
	}
	m.refs++

	return &provider{name: name, module: m, source: m.session.Source}, nil
}

func (m *sharedModule) release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refs--
	if m.refs > 0 || m.session == nil {
		return
	}
	m.session.Kill()
	m.session = nil
	m.logger.Debug("plugin process stopped", "module", filepath.Base(m.path))
}

// provider proxies DataSource calls to the plugin process
type provider struct {
	name   string
	module *sharedModule
	source dsplugin.Source
	once   sync.Once
}

// DataSource fetches the provider root from the plugin
func (p *provider) DataSource() (any, error) {
	root, err := p.source.Root(p.name)
	if err != nil {
		return nil, fmt.Errorf("plugin %s: %w", filepath.Base(p.module.path), err)
	}
	return root, nil
}

// Close releases the plugin process reference
func (p *provider) Close() error {
	p.once.Do(p.module.release)
	return nil
}

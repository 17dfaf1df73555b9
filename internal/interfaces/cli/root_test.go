package cli

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kilometers.ai/locator/internal/config"
	"kilometers.ai/locator/internal/core/domain/datasource"
	"kilometers.ai/locator/internal/core/testfixtures"
	"kilometers.ai/locator/internal/interfaces/di"
)

var salesManifest = testfixtures.NewManifestBuilder().
	WithProvider("SalesDB", "json").
	WithShape("sales.Database").
	WithDescription("Customer orders").
	WithOption("file", "sales.json").
	WithProvider("Regions", "yaml").
	WithOption("file", "regions.yaml").
	Build()

const salesData = `{"Customers":{"Acme":{"Region":"EU","Orders":[{"Total":12}]},"Initech":null}}`

// newTestContainer builds a container over a base path holding one healthy
// and one broken plugin folder
func newTestContainer(t *testing.T) *CLIContainer {
	t.Helper()
	base := t.TempDir()
	testfixtures.WriteFile(t, base, "plugins/sales/sales.provider.yaml", salesManifest)
	testfixtures.WriteFile(t, base, "plugins/sales/sales.json", salesData)
	testfixtures.WriteFile(t, base, "plugins/sales/regions.yaml", "- EU\n- US\n")
	testfixtures.WriteFile(t, base, "plugins/broken/garbled.provider.yaml", "providers: [unclosed")

	cfg := &config.Config{
		BasePath: base,
		LogLevel: "info",
		File:     filepath.Join(base, "kmds.yaml"),
	}
	c, err := di.NewContainerWithLogger(cfg, nil)
	require.NoError(t, err)
	return &CLIContainer{Container: c}
}

func execute(t *testing.T, container *CLIContainer, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(container)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// TestFoldersCommand tests plugin folder listing
func TestFoldersCommand(t *testing.T) {
	out, err := execute(t, newTestContainer(t), "folders")
	require.NoError(t, err)

	assert.Contains(t, out, filepath.FromSlash("plugins/sales"))
	assert.Contains(t, out, filepath.FromSlash("plugins/broken"))
}

// TestProvidersCommand tests provider listing in each format
func TestProvidersCommand(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		out, err := execute(t, newTestContainer(t), "providers", "plugins/sales")
		require.NoError(t, err)
		assert.Contains(t, out, "NAME")
		assert.Contains(t, out, "SalesDB")
		assert.Contains(t, out, "sales.Database")
		assert.Contains(t, out, "Customer orders")
		assert.Contains(t, out, "Regions")
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, newTestContainer(t), "providers", "plugins/sales", "--format", "json")
		require.NoError(t, err)
		assert.Contains(t, out, `"name": "Regions"`)
		assert.Contains(t, out, `"name": "SalesDB"`)
	})

	t.Run("empty folder", func(t *testing.T) {
		out, err := execute(t, newTestContainer(t), "providers", "plugins/none")
		require.NoError(t, err)
		assert.Contains(t, out, "No providers in plugins/none")
	})

	t.Run("broken folder", func(t *testing.T) {
		_, err := execute(t, newTestContainer(t), "providers", "plugins/broken")
		assert.ErrorIs(t, err, datasource.ErrPluginLoad)
	})
}

// TestResolveCommand tests resolution output and failures
func TestResolveCommand(t *testing.T) {
	t.Run("member path as json", func(t *testing.T) {
		out, err := execute(t, newTestContainer(t),
			"resolve", "--folder", "plugins/sales", "--provider", "SalesDB", "--path", "Customers.Acme")
		require.NoError(t, err)
		assert.Contains(t, out, "Root shape:   sales.Database")
		assert.Contains(t, out, "Target shape: map[string]interface {}")
		assert.Contains(t, out, `"Region": "EU"`)
	})

	t.Run("index path as yaml", func(t *testing.T) {
		out, err := execute(t, newTestContainer(t),
			"resolve", "--folder", "plugins/sales", "--provider", "SalesDB",
			"--path", "Customers.Acme.Orders[0]", "--format", "yaml")
		require.NoError(t, err)
		assert.Contains(t, out, "Total: 12")
	})

	t.Run("unknown provider", func(t *testing.T) {
		out, err := execute(t, newTestContainer(t),
			"resolve", "--folder", "plugins/sales", "--provider", "Nope")
		require.NoError(t, err)
		assert.Contains(t, out, `No provider named "Nope"`)
	})

	t.Run("null target", func(t *testing.T) {
		out, err := execute(t, newTestContainer(t),
			"resolve", "--folder", "plugins/sales", "--provider", "SalesDB", "--path", "Customers.Initech")
		require.NoError(t, err)
		assert.NotContains(t, out, "No provider named")
		assert.Contains(t, out, "Root shape:   sales.Database")
		assert.Contains(t, out, "Target shape: (not available)")
		assert.Contains(t, out, "Target is null")
	})

	t.Run("stale path", func(t *testing.T) {
		_, err := execute(t, newTestContainer(t),
			"resolve", "--folder", "plugins/sales", "--provider", "SalesDB", "--path", "Customers.Globex")
		assert.ErrorIs(t, err, datasource.ErrUnknownMember)
	})

	t.Run("bad path", func(t *testing.T) {
		_, err := execute(t, newTestContainer(t),
			"resolve", "--folder", "plugins/sales", "--provider", "SalesDB", "--path", "Customers..Acme")
		assert.ErrorIs(t, err, datasource.ErrInvalidArgument)
	})

	t.Run("missing flags", func(t *testing.T) {
		_, err := execute(t, newTestContainer(t), "resolve", "--folder", "plugins/sales")
		assert.Error(t, err)
	})
}

// TestValidateCommand tests folder validation
func TestValidateCommand(t *testing.T) {
	out, err := execute(t, newTestContainer(t), "validate", "plugins/sales")
	require.NoError(t, err)
	assert.Contains(t, out, "plugins/sales (2 providers)")
	assert.Contains(t, out, "All plugin folders load cleanly")

	out, err = execute(t, newTestContainer(t), "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 plugin folders failed to load")
	assert.Contains(t, out, "offenders: garbled.provider.yaml")
}

// TestConfigCommands tests show, path and set-base
func TestConfigCommands(t *testing.T) {
	container := newTestContainer(t)
	out, err := execute(t, container, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "base_path: "+container.Container.Config.BasePath)
	assert.Contains(t, out, "log_level: info")

	container = newTestContainer(t)
	cfgFile := container.Container.Config.File
	out, err = execute(t, container, "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, cfgFile)

	container = newTestContainer(t)
	cfgFile = container.Container.Config.File
	newBase := t.TempDir()
	_, err = execute(t, container, "config", "set-base", newBase)
	require.NoError(t, err)

	loaded, err := config.Load(config.LoadOptions{File: cfgFile})
	require.NoError(t, err)
	assert.Equal(t, newBase, loaded.BasePath)
	assert.Equal(t, "info", loaded.LogLevel)
}

// TestVersionCommand tests version output without a container
func TestVersionCommand(t *testing.T) {
	out, err := execute(t, &CLIContainer{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "kmds version "+Version)
	assert.Contains(t, out, "Go version:")
}

// TestDescribeError tests error messages per error kind
func TestDescribeError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		prefix string
	}{
		{"load", &datasource.PluginLoadError{Folder: "p", Offenders: []string{"a"}}, "plugin folder is broken: "},
		{"ambiguous", &datasource.AmbiguousPluginError{Folder: "p", Name: "X", Count: 2}, "plugin folder is misconfigured: "},
		{"member", fmt.Errorf("walk: %w", datasource.ErrUnknownMember), "relation path no longer matches"},
		{"argument", datasource.InvalidArgument("folder", "empty"), "invalid input: "},
		{"other", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, DescribeError(tt.err), tt.prefix)
		})
	}
}

// TestRender tests output formats
func TestRender(t *testing.T) {
	v := map[string]any{"Region": "EU"}

	var buf bytes.Buffer
	require.NoError(t, render(&buf, FormatJSON, v))
	assert.JSONEq(t, `{"Region":"EU"}`, buf.String())

	buf.Reset()
	require.NoError(t, render(&buf, FormatYAML, v))
	assert.Equal(t, "Region: EU\n", buf.String())

	buf.Reset()
	require.NoError(t, render(&buf, FormatDump, v))
	assert.Contains(t, buf.String(), `"Region"`)

	assert.Error(t, render(&buf, "xml", v))
	assert.Error(t, render(&buf, FormatJSON, func() {}))
}

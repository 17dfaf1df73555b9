package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, "kmds.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("kmds", pflag.ContinueOnError)
	flags.String("base-path", "", "")
	flags.String("log-level", "info", "")
	flags.Bool("debug", false, "")
	return flags
}

// TestLoad_Defaults tests loading without any config source
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoadOptions{SearchPaths: []string{t.TempDir()}})
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Debug)
	assert.True(t, cfg.CreateBasePath)
	assert.NotEmpty(t, cfg.BasePath, "base path defaults to the executable directory")
	assert.Empty(t, cfg.File)
}

// TestLoad_Precedence tests file, environment and flag layering
func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := writeConfig(t, dir, "base_path: /srv/kmds\nlog_level: warn\ndebug: false\n")

	tests := []struct {
		name         string
		env          map[string]string
		args         []string
		expectBase   string
		expectLevel  string
		expectDebug  bool
	}{
		{
			name:        "FileOnly_ShouldApplyFile",
			expectBase:  "/srv/kmds",
			expectLevel: "warn",
		},
		{
			name:        "Environment_ShouldOverrideFile",
			env:         map[string]string{"KMDS_LOG_LEVEL": "debug", "KMDS_DEBUG": "true"},
			expectBase:  "/srv/kmds",
			expectLevel: "debug",
			expectDebug: true,
		},
		{
			name:        "Flags_ShouldOverrideEnvironment",
			env:         map[string]string{"KMDS_BASE_PATH": "/opt/env"},
			args:        []string{"--base-path", "/opt/flag", "--log-level", "error"},
			expectBase:  "/opt/flag",
			expectLevel: "error",
		},
		{
			name:        "UnsetFlags_ShouldNotOverride",
			env:         map[string]string{"KMDS_BASE_PATH": "/opt/env"},
			expectBase:  "/opt/env",
			expectLevel: "warn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			flags := testFlags()
			require.NoError(t, flags.Parse(tt.args))

			cfg, err := Load(LoadOptions{SearchPaths: []string{dir}, Flags: flags})
			require.NoError(t, err)

			assert.Equal(t, tt.expectBase, cfg.BasePath)
			assert.Equal(t, tt.expectLevel, cfg.LogLevel)
			assert.Equal(t, tt.expectDebug, cfg.Debug)
			assert.Equal(t, file, cfg.File)
		})
	}
}

// TestLoad_ExplicitFile tests forcing a config file
func TestLoad_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(p, []byte("log_level: trace\n"), 0o644))

	cfg, err := Load(LoadOptions{File: p})
	require.NoError(t, err)
	assert.Equal(t, "trace", cfg.LogLevel)

	_, err = Load(LoadOptions{File: filepath.Join(dir, "missing.yaml")})
	assert.Error(t, err, "an explicit file must exist")
}

// TestLoad_RejectsInvalidValues tests validation
func TestLoad_RejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "log_level: loud\n")

	_, err := Load(LoadOptions{SearchPaths: []string{dir}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")

	broken := t.TempDir()
	writeConfig(t, broken, "base_path: [unclosed\n")
	_, err = Load(LoadOptions{SearchPaths: []string{broken}})
	assert.Error(t, err)
}

// TestSave_RoundTrips tests writing settings back
func TestSave_RoundTrips(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "kmds.yaml")

	require.NoError(t, Save(&Config{BasePath: "/srv/kmds", LogLevel: "debug", Debug: true}, p))

	cfg, err := Load(LoadOptions{File: p})
	require.NoError(t, err)
	assert.Equal(t, "/srv/kmds", cfg.BasePath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Debug)
	assert.False(t, cfg.CreateBasePath, "an explicit false survives the default")

	assert.Error(t, Save(&Config{BasePath: "", LogLevel: "info"}, p))
}

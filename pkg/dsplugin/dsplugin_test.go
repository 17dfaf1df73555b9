package dsplugin

import (
	"errors"
	"testing"

	"github.com/hashicorp/go-plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dispense(t *testing.T, impl Source) Source {
	t.Helper()
	client, _ := plugin.TestPluginRPCConn(t, PluginMap(impl), nil)
	t.Cleanup(func() { _ = client.Close() })

	raw, err := client.Dispense(PluginName)
	require.NoError(t, err)

	source, ok := raw.(Source)
	require.True(t, ok, "dispensed plugin should implement Source")
	return source
}

// TestRPC_Describe tests descriptor transport
func TestRPC_Describe(t *testing.T) {
	source := dispense(t, Providers{
		{Descriptor: Descriptor{Name: "SalesDB", Shape: "sales.Database", Description: "Demo"}},
		{Descriptor: Descriptor{Name: "Archive"}},
	})

	descriptors, err := source.Describe()
	require.NoError(t, err)
	assert.Equal(t, []Descriptor{
		{Name: "Archive"},
		{Name: "SalesDB", Shape: "sales.Database", Description: "Demo"},
	}, descriptors)
}

// TestRPC_Root tests root object transport
func TestRPC_Root(t *testing.T) {
	source := dispense(t, Providers{
		{
			Descriptor: Descriptor{Name: "SalesDB"},
			Root: func() (any, error) {
				return map[string]any{"Customers": map[string]any{"Acme": map[string]any{"Region": "EU"}}}, nil
			},
		},
		{
			Descriptor: Descriptor{Name: "Offline"},
			Root:       func() (any, error) { return nil, errors.New("database offline") },
		},
		{
			Descriptor: Descriptor{Name: "Broken"},
			Root:       func() (any, error) { return map[string]any{"fn": func() {}}, nil },
		},
	})

	tests := []struct {
		name        string
		provider    string
		expected    any
		expectError string
	}{
		{
			name:     "ServedProvider_ShouldDecodeGraph",
			provider: "SalesDB",
			expected: map[string]any{"Customers": map[string]any{"Acme": map[string]any{"Region": "EU"}}},
		},
		{
			name:        "FailingProvider_ShouldPropagateError",
			provider:    "Offline",
			expectError: "database offline",
		},
		{
			name:        "UnencodableRoot_ShouldFail",
			provider:    "Broken",
			expectError: "cannot be encoded",
		},
		{
			name:        "UnknownProvider_ShouldFail",
			provider:    "Unknown",
			expectError: "not served",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := source.Root(tt.provider)
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, root)
		})
	}
}

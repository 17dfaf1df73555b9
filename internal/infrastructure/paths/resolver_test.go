package paths

import (
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"kilometers.ai/locator/internal/core/domain/datasource"
)

func newTestResolver(t *testing.T, base string) *Resolver {
	t.Helper()
	r, err := NewResolver(base)
	require.NoError(t, err)
	return r
}

// TestSetBasePath_ValidatesInput tests base path normalization
func TestSetBasePath_ValidatesInput(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    string
		expectError bool
	}{
		{name: "TrailingSeparator_ShouldBeKept", input: "/app/", expected: "/app/"},
		{name: "MissingSeparator_ShouldBeAppended", input: "/app", expected: "/app/"},
		{name: "Backslashes_ShouldBeNormalized", input: `/app\plugins`, expected: "/app/plugins/"},
		{name: "DotSegments_ShouldBeCleaned", input: "/app/./plugins/../data", expected: "/app/data/"},
		{name: "Root_ShouldStayRoot", input: "/", expected: "/"},
		{name: "Empty_ShouldFail", input: "", expectError: true},
		{name: "Whitespace_ShouldFail", input: "   ", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if filepath.Separator != '/' && !tt.expectError {
				t.Skip("expectations use POSIX separators")
			}

			r := &Resolver{}
			err := r.SetBasePath(tt.input)

			if tt.expectError {
				assert.ErrorIs(t, err, datasource.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, r.BasePath())
		})
	}
}

// TestSetBasePath_RelativeInputBecomesAbsolute tests that relative bases are anchored
func TestSetBasePath_RelativeInputBecomesAbsolute(t *testing.T) {
	r := newTestResolver(t, "plugins")

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(r.BasePath()))
	assert.Equal(t, filepath.Join(wd, "plugins")+string(filepath.Separator), r.BasePath())
}

// TestBasePath_AlwaysEndsWithSeparator tests the trailing separator invariant
func TestBasePath_AlwaysEndsWithSeparator(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		parts := rapid.SliceOfN(rapid.StringMatching(`[a-z0-9_-]{1,8}`), 1, 5).Draw(t, "parts")
		p := string(filepath.Separator) + strings.Join(parts, string(filepath.Separator))
		if rapid.Bool().Draw(t, "trailing") {
			p += string(filepath.Separator)
		}

		r := &Resolver{}
		require.NoError(t, r.SetBasePath(p))
		assert.True(t, strings.HasSuffix(r.BasePath(), string(filepath.Separator)), "base %q lacks separator", r.BasePath())
	})
}

// TestToFullPath_JoinsOntoBase tests full path construction
func TestToFullPath_JoinsOntoBase(t *testing.T) {
	if filepath.Separator != '/' {
		t.Skip("expectations use POSIX separators")
	}
	r := newTestResolver(t, "/app/")

	assert.Equal(t, "/app/plugins/sales", r.ToFullPath("plugins/sales"))
	assert.Equal(t, "/app/plugins/sales", r.ToFullPath(`plugins\sales`))
	assert.Equal(t, "/app", r.ToFullPath(""))
	assert.Equal(t, "/opt/other", r.ToFullPath("/opt/other/"))
}

// TestToRelativePath_ComputesRelativeForms tests relative path computation
func TestToRelativePath_ComputesRelativeForms(t *testing.T) {
	if filepath.Separator != '/' {
		t.Skip("expectations use POSIX separators")
	}
	r := newTestResolver(t, "/app/")

	tests := []struct {
		name     string
		full     string
		expected string
	}{
		{name: "Child_ShouldBeRelative", full: "/app/plugins/sales", expected: "plugins/sales"},
		{name: "ChildWithTrailingSlash_ShouldDropIt", full: "/app/plugins/sales/", expected: "plugins/sales"},
		{name: "MixedSeparators_ShouldNormalize", full: `/app\plugins/sales`, expected: "plugins/sales"},
		{name: "Base_ShouldBeDot", full: "/app/", expected: "."},
		{name: "Sibling_ShouldClimb", full: "/other/x", expected: "../other/x"},
		{name: "PrefixSibling_ShouldNotMatchPartially", full: "/application/x", expected: "../application/x"},
		{name: "Relative_ShouldBeAnchoredAtBase", full: "plugins/./sales", expected: "plugins/sales"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ToRelativePath(tt.full)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := r.ToRelativePath("")
	assert.ErrorIs(t, err, datasource.ErrInvalidArgument)

	_, err = (&Resolver{}).ToRelativePath("/app/x")
	assert.ErrorIs(t, err, datasource.ErrInvalidArgument)
}

// TestToRelativePath_RoundTrip tests ToRelativePath(ToFullPath(R)) == normalized R
func TestToRelativePath_RoundTrip(t *testing.T) {
	base := t.TempDir()

	rapid.Check(t, func(t *rapid.T) {
		r := &Resolver{}
		require.NoError(t, r.SetBasePath(base))

		segs := rapid.SliceOfN(rapid.SampledFrom([]string{"plugins", "sales", "hr", ".", "v1", "data-2", "x_y"}), 1, 6).Draw(t, "segs")
		sep := rapid.SampledFrom([]string{"/", `\`}).Draw(t, "sep")
		rel := strings.Join(segs, sep)

		got, err := r.ToRelativePath(r.ToFullPath(rel))
		require.NoError(t, err)

		expected := filepath.FromSlash(path.Clean(strings.ReplaceAll(rel, `\`, "/")))
		assert.Equal(t, expected, got)

		normalized, err := r.NormalizeRelative(rel)
		require.NoError(t, err)
		assert.Equal(t, expected, normalized)
	})
}

// TestEnumeratePluginFolders_FindsModuleDirectories tests recursive folder enumeration
func TestEnumeratePluginFolders_FindsModuleDirectories(t *testing.T) {
	base := t.TempDir()
	write := func(rel string) {
		full := filepath.Join(base, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("providers: []\n"), 0o644))
	}

	write("root.provider.yaml")
	write("plugins/sales/sales.provider.yaml")
	write("plugins/sales/extra.provider.yaml")
	write("plugins/hr/deep/hr.provider.yaml")
	write("plugins/docs/readme.txt")

	r := newTestResolver(t, base)
	folders, err := r.EnumeratePluginFolders(func(p string) bool {
		return strings.HasSuffix(p, ".provider.yaml")
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		".",
		filepath.FromSlash("plugins/hr/deep"),
		filepath.FromSlash("plugins/sales"),
	}, folders)
}

// TestEnumeratePluginFolders_MissingBaseIsEmpty tests enumeration of an absent base
func TestEnumeratePluginFolders_MissingBaseIsEmpty(t *testing.T) {
	r := newTestResolver(t, filepath.Join(t.TempDir(), "missing"))

	folders, err := r.EnumeratePluginFolders(func(string) bool { return true })
	require.NoError(t, err)
	assert.Empty(t, folders)

	_, err = r.EnumeratePluginFolders(nil)
	assert.ErrorIs(t, err, datasource.ErrInvalidArgument)
}

// TestDefaultBasePath_IsExecutableDirectory tests the default base path
func TestDefaultBasePath_IsExecutableDirectory(t *testing.T) {
	dir, err := DefaultBasePath()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(dir))
}

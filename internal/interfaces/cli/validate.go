package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"kilometers.ai/locator/internal/core/domain/datasource"
)

// NewValidateCommand creates the validate command
func NewValidateCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [folder...]",
		Short: "Check that plugin folders load cleanly",
		Long: `Scan plugin folders and report every module that fails to load.

Without arguments every plugin folder below the base path is checked.
Providers are not instantiated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), container, args)
		},
	}
}

// runValidate handles the validation process
func runValidate(out io.Writer, container *CLIContainer, folders []string) error {
	c := container.Container

	fmt.Fprintf(out, "🔍 Validating plugin folders under %s\n\n", c.Paths.BasePath())

	if len(folders) == 0 {
		found, err := c.Paths.EnumeratePluginFolders(c.Catalog.IsModule)
		if err != nil {
			return fmt.Errorf("failed to enumerate plugin folders: %w", err)
		}
		folders = found
	}
	if len(folders) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No plugin folders found"))
		return nil
	}

	var broken int
	for _, folder := range folders {
		snapshot, err := c.Catalog.Discover(folder)
		if err != nil {
			broken++
			fmt.Fprintf(out, "❌ %s\n", folder)
			var loadErr *datasource.PluginLoadError
			if errors.As(err, &loadErr) {
				fmt.Fprintf(out, "   offenders: %s\n", strings.Join(loadErr.Offenders, ", "))
			} else {
				fmt.Fprintf(out, "   %s\n", DescribeError(err))
			}
			continue
		}

		fmt.Fprintf(out, "✅ %s (%d providers)\n", folder, snapshot.Len())
		if err := snapshot.Close(); err != nil {
			c.Logger.Warn("failed to release snapshot", "folder", folder, "error", err)
		}
	}

	fmt.Fprintln(out)
	if broken > 0 {
		return fmt.Errorf("%d of %d plugin folders failed to load", broken, len(folders))
	}
	fmt.Fprintln(out, "✅ All plugin folders load cleanly")
	return nil
}

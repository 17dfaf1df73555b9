package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewFoldersCommand creates the folders command
func NewFoldersCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "folders",
		Short: "List plugin folders below the base path",
		Long: `List every directory below the base path that contains at least one
plugin module (a *.provider.yaml manifest or a kmds-plugin-* executable).
Folders are printed relative to the base path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := container.Container
			folders, err := c.Paths.EnumeratePluginFolders(c.Catalog.IsModule)
			if err != nil {
				return fmt.Errorf("failed to enumerate plugin folders: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(folders) == 0 {
				fmt.Fprintf(out, "No plugin folders found under %s\n", c.Paths.BasePath())
				return nil
			}
			for _, f := range folders {
				fmt.Fprintln(out, f)
			}
			return nil
		},
	}
}

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"kilometers.ai/locator/internal/application/services"
	"kilometers.ai/locator/internal/core/domain/datasource"
)

// ResolveFlags holds command-line flags for the resolve command
type ResolveFlags struct {
	Folder   string
	Provider string
	Path     string
	Format   string
}

// NewResolveCommand creates the resolve command
func NewResolveCommand(container *CLIContainer) *cobra.Command {
	flags := &ResolveFlags{}

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a data source definition and print its target",
		Long: `Find a provider by name in a plugin folder, instantiate it and walk its
data along a relation path. The shapes of the root and of the target are
printed before the target itself.

Examples:
  kmds resolve --folder plugins/sales --provider SalesDB
  kmds resolve --folder plugins/sales --provider SalesDB --path Customers.Acme
  kmds resolve --folder plugins/sales --provider SalesDB --path 'Customers.Acme.Orders[0]' --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := datasource.NewDefinition(flags.Folder, flags.Provider, flags.Path)
			if err != nil {
				return err
			}

			res, err := container.Container.Resolver.Locate(def)
			if err != nil {
				return err
			}
			return printResolution(cmd.OutOrStdout(), def, res, flags.Format)
		},
	}

	cmd.Flags().StringVar(&flags.Folder, "folder", "", "Plugin folder relative to the base path")
	cmd.Flags().StringVar(&flags.Provider, "provider", "", "Provider name")
	cmd.Flags().StringVar(&flags.Path, "path", "", "Relation path, e.g. Customers.Acme.Orders[0]")
	cmd.Flags().StringVar(&flags.Format, "format", FormatJSON, "Output format (json, yaml, dump)")
	_ = cmd.MarkFlagRequired("folder")
	_ = cmd.MarkFlagRequired("provider")

	return cmd
}

// printResolution writes the shapes and the target; a nil resolution means
// the folder has no provider with the requested name
func printResolution(w io.Writer, def *datasource.Definition, res *services.Resolution, format string) error {
	if res == nil {
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("No provider named %q in %s", def.ProviderName, def.Folder)))
		return nil
	}

	fmt.Fprintf(w, "Root shape:   %s\n", shapeOrUnavailable(def.RootShape))
	fmt.Fprintf(w, "Target shape: %s\n", shapeOrUnavailable(def.TargetShape))

	if res.Target == nil {
		fmt.Fprintln(w, mutedStyle.Render("Target is null"))
		return nil
	}
	return render(w, format, res.Target)
}

func shapeOrUnavailable(s datasource.Shape) string {
	if s.IsZero() {
		return "(not available)"
	}
	return s.String()
}

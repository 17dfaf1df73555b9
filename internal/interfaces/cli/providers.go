package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"kilometers.ai/locator/internal/core/domain/datasource"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// NewProvidersCommand creates the providers command
func NewProvidersCommand(container *CLIContainer) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "providers <folder>",
		Short: "List the providers exported by a plugin folder",
		Long: `List the name, shape and description of every provider in a plugin
folder. Providers are not instantiated.

Examples:
  kmds providers plugins/sales
  kmds providers plugins/sales --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			providers, err := container.Container.Resolver.ListProviders(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format != "table" {
				return render(out, format, providers)
			}
			if len(providers) == 0 {
				fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("No providers in %s", args[0])))
				return nil
			}
			fmt.Fprintln(out, providerTable(providers))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format (table, json, yaml, dump)")
	return cmd
}

// providerTable renders provider metadata as a bordered table
func providerTable(providers []datasource.ProviderMetadata) string {
	rows := make([][]string, 0, len(providers))
	for _, p := range providers {
		rows = append(rows, []string{p.Name, p.Shape.String(), p.Description})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("NAME", "SHAPE", "DESCRIPTION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}

package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"kilometers.ai/locator/internal/config"
)

// NewConfigCommand creates the config command
func NewConfigCommand(container *CLIContainer) *cobra.Command {
	var configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `View and change the settings kmds runs with.

Settings are read from a kmds.yaml file, then KMDS_* environment variables,
then command-line flags; later sources win.`,
	}

	configCmd.AddCommand(NewConfigShowCommand(container))
	configCmd.AddCommand(NewConfigPathCommand(container))
	configCmd.AddCommand(NewConfigSetBaseCommand(container))

	return configCmd
}

// NewConfigShowCommand creates the show subcommand
func NewConfigShowCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return render(cmd.OutOrStdout(), FormatYAML, container.Container.Config)
		},
	}
}

// NewConfigPathCommand creates the path subcommand
func NewConfigPathCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath(container.Container.Config)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file path: %s\n", path)
			if container.Container.Config.File == "" {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("(file does not exist yet, defaults are in use)"))
			}
			return nil
		},
	}
}

// NewConfigSetBaseCommand creates the set-base subcommand
func NewConfigSetBaseCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "set-base <path>",
		Short: "Store the base path in the configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("failed to resolve %s: %w", args[0], err)
			}

			cfg := *container.Container.Config
			cfg.BasePath = base

			path, err := configFilePath(&cfg)
			if err != nil {
				return err
			}
			if err := config.Save(&cfg, path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✅ Base path set to %s in %s\n", base, path)
			return nil
		},
	}
}

// configFilePath is the file in use, or the default location when none was read
func configFilePath(cfg *config.Config) (string, error) {
	if cfg.File != "" {
		return cfg.File, nil
	}
	path, err := config.DefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("failed to determine config path: %w", err)
	}
	return path, nil
}

package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"kilometers.ai/locator/internal/config"
	"kilometers.ai/locator/internal/core/domain/datasource"
	"kilometers.ai/locator/internal/interfaces/di"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// CLIContainer holds the dependencies shared by commands. Container is
// built from configuration before a command runs unless it is already set.
type CLIContainer struct {
	Container *di.Container
}

// NewRootCommand creates the kmds command tree
func NewRootCommand(container *CLIContainer) *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "kmds",
		Short: "kmds - data source locator",
		Long: `kmds discovers pluggable data providers in plugin folders below a base
directory, instantiates them on demand and navigates into the data they
expose along a relation path such as Customers.Acme.Orders[0].`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if container.Container != nil {
				return nil
			}

			configFile, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(config.LoadOptions{File: configFile, Flags: cmd.Flags()})
			if err != nil {
				return err
			}

			c, err := di.NewContainer(cfg, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			container.Container = c
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if container.Container == nil {
				return nil
			}
			return container.Container.Shutdown()
		},
	}

	rootCmd.SetVersionTemplate(versionText())

	rootCmd.PersistentFlags().String("config", "", "Config file path (default is ./kmds.yaml or $HOME/.kmds/kmds.yaml)")
	rootCmd.PersistentFlags().String("base-path", "", "Base directory containing plugin folders (default is the executable directory)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error, off)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(NewFoldersCommand(container))
	rootCmd.AddCommand(NewProvidersCommand(container))
	rootCmd.AddCommand(NewResolveCommand(container))
	rootCmd.AddCommand(NewPickCommand(container))
	rootCmd.AddCommand(NewValidateCommand(container))
	rootCmd.AddCommand(NewConfigCommand(container))
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

func versionText() string {
	return fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH)
}

// goVersion returns the Go version used to build the binary
func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

// DescribeError turns engine errors into messages for the terminal
func DescribeError(err error) string {
	switch {
	case errors.Is(err, datasource.ErrPluginLoad):
		return "plugin folder is broken: " + err.Error()
	case errors.Is(err, datasource.ErrAmbiguousPlugin):
		return "plugin folder is misconfigured: " + err.Error()
	case errors.Is(err, datasource.ErrUnknownMember):
		return "relation path no longer matches the provider schema: " + err.Error()
	case errors.Is(err, datasource.ErrInvalidArgument):
		return "invalid input: " + err.Error()
	default:
		return err.Error()
	}
}

// Execute runs the root command and exits with status 1 on failure
func Execute(container *CLIContainer) {
	rootCmd := NewRootCommand(container)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", DescribeError(err))
		if container.Container != nil {
			_ = container.Container.Shutdown()
		}
		os.Exit(1)
	}
}

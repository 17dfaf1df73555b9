package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-plugin"

	"kilometers.ai/locator/internal/interfaces/cli"
)

func main() {
	container := &cli.CLIContainer{}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		if container.Container != nil {
			container.Container.Logger.Info("received shutdown signal, shutting down")
			if err := container.Container.Shutdown(); err != nil {
				fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
			}
		}
		// Kills plugin processes still held by a snapshot
		plugin.CleanupClients()
		os.Exit(130)
	}()

	cli.Execute(container)
}

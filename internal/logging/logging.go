// Package logging builds the hclog loggers used across kmds and handed to
// go-plugin for plugin process output.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
)

// Options configures a logger
type Options struct {
	// Name prefixes every line; defaults to "kmds"
	Name string

	// Level is an hclog level name; unknown names fall back to info
	Level string

	// Debug forces debug level regardless of Level
	Debug bool

	// Output defaults to os.Stderr
	Output io.Writer

	// JSON switches to JSON lines
	JSON bool
}

// New creates a logger from opts
func New(opts Options) hclog.Logger {
	name := opts.Name
	if name == "" {
		name = "kmds"
	}

	level := hclog.LevelFromString(opts.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	if opts.Debug && level > hclog.Debug {
		level = hclog.Debug
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      level,
		Output:     output,
		JSONFormat: opts.JSON,
	})
}

// PluginLogger creates the logger a plugin executable writes to stderr.
// go-plugin parses JSON lines from the plugin and re-emits them through the
// host logger, so the level is left at trace and filtered by the host.
func PluginLogger(name string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.Trace,
		Output:     os.Stderr,
		JSONFormat: true,
	})
}

// DebugLogFile is the file in the temp directory that receives debug output
// while a full screen UI owns the terminal
const DebugLogFile = "kmds-debug.log"

// OpenDebugLog opens DebugLogFile for appending, creating it when needed
func OpenDebugLog() (*os.File, error) {
	p := filepath.Join(os.TempDir(), DebugLogFile)
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open debug log: %w", err)
	}
	return f, nil
}

// Quiet returns the logger used while a full screen UI owns the terminal.
// With a nil output only errors are kept, and those are discarded; otherwise
// debug lines go to output.
func Quiet(output io.Writer) hclog.Logger {
	level := hclog.Debug
	if output == nil {
		level = hclog.Error
		output = io.Discard
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "kmds",
		Level:  level,
		Output: output,
	})
}

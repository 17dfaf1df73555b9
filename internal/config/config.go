// Package config loads kmds settings from kmds.yaml, KMDS_* environment
// variables and command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"kilometers.ai/locator/internal/infrastructure/paths"
)

// Keys
const (
	KeyBasePath       = "base_path"
	KeyLogLevel       = "log_level"
	KeyDebug          = "debug"
	KeyCreateBasePath = "create_base_path"
)

// EnvPrefix is prepended to upper-cased keys when reading the environment
const EnvPrefix = "KMDS"

// FileName is the config file name without extension
const FileName = "kmds"

// flagKeys maps persistent flag names onto config keys
var flagKeys = map[string]string{
	"base-path": KeyBasePath,
	"log-level": KeyLogLevel,
	"debug":     KeyDebug,
}

// Config holds the effective settings
type Config struct {
	BasePath string `mapstructure:"base_path" yaml:"base_path"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	Debug    bool   `mapstructure:"debug" yaml:"debug"`

	// CreateBasePath creates a missing base path directory at startup
	CreateBasePath bool `mapstructure:"create_base_path" yaml:"create_base_path"`

	// File is the config file that was read, empty when none was found
	File string `mapstructure:"-" yaml:"-"`
}

// LoadOptions controls where settings are read from
type LoadOptions struct {
	// File forces a specific config file; it must exist
	File string

	// SearchPaths are searched for kmds.yaml when File is empty.
	// Defaults to DefaultSearchPaths.
	SearchPaths []string

	// Flags are bound for keys whose flags were set on the command line
	Flags *pflag.FlagSet
}

// DefaultSearchPaths returns the working directory and $HOME/.kmds
func DefaultSearchPaths() []string {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".kmds"))
	}
	return dirs
}

// DefaultConfigPath returns $HOME/.kmds/kmds.yaml
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".kmds", FileName+".yaml"), nil
}

// Load reads the effective configuration
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()

	base, err := paths.DefaultBasePath()
	if err != nil {
		base = "."
	}
	v.SetDefault(KeyBasePath, base)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyCreateBasePath, true)

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		searchPaths := opts.SearchPaths
		if searchPaths == nil {
			searchPaths = DefaultSearchPaths()
		}
		for _, p := range searchPaths {
			v.AddConfigPath(p)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BasePath) == "" {
		return fmt.Errorf("%s cannot be empty", KeyBasePath)
	}
	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		return fmt.Errorf("%s %q is not a valid level (trace, debug, info, warn, error, off)", KeyLogLevel, c.LogLevel)
	}
	return nil
}

// Save writes the settings to path as YAML, creating parent directories
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set(KeyBasePath, cfg.BasePath)
	v.Set(KeyLogLevel, cfg.LogLevel)
	v.Set(KeyDebug, cfg.Debug)
	v.Set(KeyCreateBasePath, cfg.CreateBasePath)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

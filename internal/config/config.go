// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"previewd/internal/issue"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "previewd"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"
	// EnvPrefix is the prefix for environment variable overrides
	// (e.g. PREVIEWD_MAX_CONTAINERS, PREVIEWD_IDLE_TIMEOUT).
	EnvPrefix = "PREVIEWD"
)

// ConfigDir returns the previewd configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	// Allow tests to override the config directory
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state. Callers that want caching can wrap this function.
//
// Precedence, lowest to highest: defaults, config file, PREVIEWD_* env vars.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*PreviewConfig, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("max_containers", defaults.MaxContainers)
	v.SetDefault("idle_timeout", defaults.IdleTimeout)
	v.SetDefault("cleanup_timeout", defaults.CleanupTimeout)
	v.SetDefault("health_timeout", defaults.HealthTimeout)
	v.SetDefault("health_interval", defaults.HealthInterval)
	v.SetDefault("sweep_interval", defaults.SweepInterval)
	v.SetDefault("engine_timeout", defaults.EngineTimeout)
	v.SetDefault("memory", defaults.Memory)
	v.SetDefault("cpus", defaults.CPUs)
	v.SetDefault("network_name", defaults.NetworkName)
	v.SetDefault("base_port", defaults.BasePort)
	v.SetDefault("engine", string(defaults.Engine))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""

	// If a custom config file path is set via --config flag, use it exclusively.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithSuggestion("Run 'previewd config show' to see the effective configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		if err := mergeConfigFile(v, opts.ConfigFilePath); err != nil {
			return nil, "", err
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}

		tomlPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(tomlPath) {
			if err := mergeConfigFile(v, tomlPath); err != nil {
				return nil, "", err
			}
			resolvedPath = tomlPath
		}
		// If no config file found, use defaults (no error)
	}

	var cfg PreviewConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check timer values are positive Go durations (e.g. \"10m\", \"30s\")").
			WithSuggestion("Check base_port is in range 1-65535").
			WithSuggestion("Check engine is \"docker\", \"podman\", or unset").
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// mergeConfigFile reads a TOML config file into viper, wrapping parse
// failures with actionable guidance.
func mergeConfigFile(v *viper.Viper, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	v.SetConfigType(ConfigFileExt)
	if err := v.MergeConfig(f); err != nil {
		return issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestion("Check that the file contains valid TOML syntax").
			WithSuggestion("Verify the configuration keys match the documented options").
			WithSuggestion("See 'previewd config --help' for configuration options").
			Wrap(err).
			BuildError()
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(cfgDir, 0o755)
}

// Save writes the configuration to the config file as TOML.
func Save(cfg *PreviewConfig) error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)

	if err := os.WriteFile(cfgPath, []byte(GenerateTOML(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateTOML generates a TOML representation of the configuration.
func GenerateTOML(cfg *PreviewConfig) string {
	var sb strings.Builder

	sb.WriteString("# previewd configuration file\n\n")
	sb.WriteString(fmt.Sprintf("max_containers = %d\n", cfg.MaxContainers))
	sb.WriteString(fmt.Sprintf("idle_timeout = %q\n", cfg.IdleTimeout))
	sb.WriteString(fmt.Sprintf("cleanup_timeout = %q\n", cfg.CleanupTimeout))
	sb.WriteString(fmt.Sprintf("health_timeout = %q\n", cfg.HealthTimeout))
	sb.WriteString(fmt.Sprintf("health_interval = %q\n", cfg.HealthInterval))
	sb.WriteString(fmt.Sprintf("sweep_interval = %q\n", cfg.SweepInterval))
	sb.WriteString(fmt.Sprintf("engine_timeout = %q\n", cfg.EngineTimeout))
	sb.WriteString(fmt.Sprintf("memory = %q\n", cfg.Memory))
	sb.WriteString(fmt.Sprintf("cpus = %q\n", cfg.CPUs))
	sb.WriteString(fmt.Sprintf("network_name = %q\n", cfg.NetworkName))
	sb.WriteString(fmt.Sprintf("base_port = %d\n", cfg.BasePort))
	if cfg.Engine != ContainerEngineAuto {
		sb.WriteString(fmt.Sprintf("engine = %q\n", cfg.Engine))
	}

	return sb.String()
}

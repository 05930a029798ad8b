// FILE: strategic-logger/internal/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lconfig "github.com/lixenwraith/config"
)

// Default returns the built-in configuration: a single split-console
// strategy over an in-process pipeline with the worker pool enabled.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Output: "none",
		},
		Queue: QueueConfig{
			Capacity: 1000,
		},
		Pool: PoolConfig{
			Enabled:       true,
			Size:          4,
			TaskTimeoutMS: 5000,
		},
		Strategies: []StrategyConfig{
			{
				Type:     "console",
				MinLevel: "debug",
				Console: &ConsoleOptions{
					Format: "text",
					Split:  true,
				},
			},
		},
	}
}

// Load builds the configuration from defaults, an optional TOML file,
// STRATLOG_-prefixed environment variables, and CLI arguments, in
// ascending precedence.
func Load(cliArgs []string) (*Config, error) {
	configPath := GetConfigPath()

	cfg, err := lconfig.NewBuilder().
		WithDefaults(Default()).
		WithEnvPrefix("STRATLOG_").
		WithFile(configPath).
		WithArgs(cliArgs).
		WithSources(
			lconfig.SourceCLI,
			lconfig.SourceEnv,
			lconfig.SourceFile,
			lconfig.SourceDefault,
		).
		Build()

	if err != nil {
		if !strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	finalConfig := &Config{}
	if err := cfg.Scan(finalConfig, ""); err != nil {
		return nil, fmt.Errorf("failed to scan config: %w", err)
	}

	return finalConfig, finalConfig.Validate()
}

// GetConfigPath resolves the config file path from the environment,
// falling back to the default location.
func GetConfigPath() string {
	if configFile := os.Getenv("STRATLOG_CONFIG_FILE"); configFile != "" {
		if filepath.IsAbs(configFile) {
			return configFile
		}
		if configDir := os.Getenv("STRATLOG_CONFIG_DIR"); configDir != "" {
			return filepath.Join(configDir, configFile)
		}
		return configFile
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "strategic-logger.toml"
	}
	return filepath.Join(home, ".config", "strategic-logger", "config.toml")
}

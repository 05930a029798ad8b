// FILE: strategic-logger/internal/config/validation.go
package config

import (
	"fmt"
	"net/url"

	"github.com/Hypn-Tech/strategic-logger/core"
)

// Validate checks the configuration and fills in defaults for
// unspecified fields.
func (c *Config) Validate() error {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if _, err := core.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	switch c.Logging.Output {
	case "", "none", "stdout", "stderr":
	default:
		return fmt.Errorf("logging: invalid output %q", c.Logging.Output)
	}

	if c.Queue.Capacity <= 0 {
		c.Queue.Capacity = 1000
	}
	if c.Pool.Size <= 0 {
		c.Pool.Size = 4
	}
	if c.Pool.TaskTimeoutMS <= 0 {
		c.Pool.TaskTimeoutMS = 5000
	}

	for i := range c.Strategies {
		if err := validateStrategy(i, &c.Strategies[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStrategy(index int, cfg *StrategyConfig) error {
	if cfg.MinLevel == "" {
		cfg.MinLevel = "debug"
	}
	if _, err := core.ParseLevel(cfg.MinLevel); err != nil {
		return fmt.Errorf("strategy[%d]: %w", index, err)
	}

	switch cfg.Type {
	case "console":
		if cfg.Console == nil {
			cfg.Console = &ConsoleOptions{}
		}
		switch cfg.Console.Format {
		case "", "text", "json":
		default:
			return fmt.Errorf("strategy[%d]: invalid console format %q", index, cfg.Console.Format)
		}

	case "http":
		if cfg.HTTP == nil {
			return fmt.Errorf("strategy[%d]: http strategy requires an [strategies.http] section", index)
		}
		return validateHTTPStrategy(index, cfg.HTTP)

	default:
		return fmt.Errorf("strategy[%d]: unknown type %q", index, cfg.Type)
	}
	return nil
}

func validateHTTPStrategy(index int, opts *HTTPOptions) error {
	if opts.URL == "" {
		return fmt.Errorf("strategy[%d]: http strategy requires 'url'", index)
	}

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return fmt.Errorf("strategy[%d]: invalid URL: %w", index, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("strategy[%d]: URL must use http or https scheme", index)
	}

	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.FlushIntervalMS <= 0 {
		opts.FlushIntervalMS = 5000
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryDelayMS <= 0 {
		opts.RetryDelayMS = 1000
	}
	if opts.TimeoutSeconds <= 0 {
		opts.TimeoutSeconds = 30
	}
	if opts.Headers == nil {
		opts.Headers = make(map[string]string)
	}
	return nil
}

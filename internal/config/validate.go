package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateLimits(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("logging.color must be auto, always or never, got %q", c.Logging.Color)
	}
	return nil
}

func (c *Config) validateLimits() error {
	if c.Limits.MaxConns < 0 {
		return errors.New("limits.max_conns must be non-negative")
	}
	if c.Limits.MaxConns > 0 && c.Limits.MaxConns <= 5 {
		return errors.New("limits.max_conns must be greater than 5 when set")
	}
	return nil
}

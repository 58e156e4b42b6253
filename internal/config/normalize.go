package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	return c.normalizeDaemon()
}

func envOverride(name string, dst *string) {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		*dst = value
	}
}

func (c *Config) normalizeLogging() error {
	envOverride("RQSERVICE_LOG_FORMAT", &c.Logging.Format)
	envOverride("RQSERVICE_LOG_LEVEL", &c.Logging.Level)

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Color = strings.ToLower(strings.TrimSpace(c.Logging.Color))
	if c.Logging.Color == "" {
		c.Logging.Color = defaultLogColor
	}

	outputs := make([]string, 0, len(c.Logging.Outputs))
	for _, out := range c.Logging.Outputs {
		out = strings.TrimSpace(out)
		switch out {
		case "":
			continue
		case "stdout", "stderr":
		default:
			expanded, err := ExpandPath(out)
			if err != nil {
				return fmt.Errorf("logging.outputs: %w", err)
			}
			out = expanded
		}
		outputs = append(outputs, out)
	}
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}
	c.Logging.Outputs = outputs
	return nil
}

func (c *Config) normalizeDaemon() error {
	c.Daemon.NullDevice = strings.TrimSpace(c.Daemon.NullDevice)
	if c.Daemon.NullDevice == "" {
		c.Daemon.NullDevice = defaultNullDevice
	}
	workDir := strings.TrimSpace(c.Daemon.WorkDir)
	if workDir == "" {
		workDir = defaultWorkDir
	}
	var err error
	if c.Daemon.WorkDir, err = ExpandPath(workDir); err != nil {
		return fmt.Errorf("daemon.work_dir: %w", err)
	}
	return nil
}

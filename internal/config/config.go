package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// SettingsEnv names an explicit settings file.
const SettingsEnv = "RQSERVICE_SETTINGS"

// Logging controls log output.
type Logging struct {
	Format string `toml:"format"`
	// Level overrides the level derived from the verbose flag when set.
	Level string `toml:"level"`
	// Outputs lists log destinations: "stdout", "stderr" or file paths.
	Outputs []string `toml:"outputs"`
	// Color is auto, always or never.
	Color string `toml:"color"`
}

// Limits contains process resource limits.
type Limits struct {
	// MaxConns raises RLIMIT_NOFILE to fit this many connections when > 0.
	MaxConns int `toml:"max_conns"`
}

// Daemon contains settings applied while detaching.
type Daemon struct {
	NullDevice string `toml:"null_device"`
	WorkDir    string `toml:"work_dir"`
}

// Config is the ambient settings of a service process.
type Config struct {
	Logging Logging `toml:"logging"`
	Limits  Limits  `toml:"limits"`
	Daemon  Daemon  `toml:"daemon"`
}

// Load reads settings from path, or from $RQSERVICE_SETTINGS, or from the
// per-user settings file, taking the first that is non-empty. A missing file
// leaves the defaults in place. It returns the file consulted and whether it
// existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, err := settingsPath(path)
	if err != nil {
		return nil, "", false, err
	}
	found, err := decodeFile(resolved, &cfg)
	if err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, found, nil
}

func settingsPath(explicit string) (string, error) {
	for _, candidate := range []string{explicit, os.Getenv(SettingsEnv), defaultSettingsPath} {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			return ExpandPath(candidate)
		}
	}
	return "", errors.New("no settings path")
}

func decodeFile(path string, cfg *Config) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read settings: %w", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return false, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return true, nil
}

// ExpandPath resolves a leading "~" to the home directory and makes the
// result absolute. An empty path stays empty.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	return abs, nil
}

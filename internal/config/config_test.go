package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"rqservice/internal/config"
)

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv(config.SettingsEnv, "")
	t.Setenv("RQSERVICE_LOG_FORMAT", "")
	t.Setenv("RQSERVICE_LOG_LEVEL", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected settings file to be absent in temp HOME")
	}
	if resolved != filepath.Join(tempHome, ".config", "rqservice", "settings.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected console format, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Level != "" {
		t.Fatalf("expected empty level so verbosity decides, got %q", cfg.Logging.Level)
	}
	if cfg.Daemon.NullDevice != "/dev/null" || cfg.Daemon.WorkDir != "/" {
		t.Fatalf("unexpected daemon defaults %+v", cfg.Daemon)
	}
	if cfg.Limits.MaxConns != 0 {
		t.Fatalf("expected no connection budget, got %d", cfg.Limits.MaxConns)
	}
	if len(cfg.Logging.Outputs) != 1 || cfg.Logging.Outputs[0] != "stderr" || cfg.Logging.Color != "auto" {
		t.Fatalf("unexpected logging defaults %+v", cfg.Logging)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "settings.toml")

	type payload struct {
		Logging struct {
			Format string `toml:"format"`
			Level  string `toml:"level"`
		} `toml:"logging"`
		Limits struct {
			MaxConns int `toml:"max_conns"`
		} `toml:"limits"`
	}
	custom := payload{}
	custom.Logging.Format = "JSON"
	custom.Logging.Level = " Debug "
	custom.Limits.MaxConns = 1024
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom settings: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom settings: %v", err)
	}
	t.Setenv("RQSERVICE_LOG_FORMAT", "")
	t.Setenv("RQSERVICE_LOG_LEVEL", "")

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution %q exists=%v", resolved, exists)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging, got %+v", cfg.Logging)
	}
	if cfg.Limits.MaxConns != 1024 {
		t.Fatalf("expected max conns 1024, got %d", cfg.Limits.MaxConns)
	}
}

func TestLoadFromEnvPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "env.toml")
	if err := os.WriteFile(path, []byte("[daemon]\nwork_dir = \""+dir+"\"\n"), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	t.Setenv(config.SettingsEnv, path)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected env path %q, got %q exists=%v", path, resolved, exists)
	}
	if cfg.Daemon.WorkDir != dir {
		t.Fatalf("expected work dir %q, got %q", dir, cfg.Daemon.WorkDir)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, []byte("[logging]\nformat = \"console\"\nlevel = \"warn\"\n"), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	t.Setenv("RQSERVICE_LOG_FORMAT", "json")
	t.Setenv("RQSERVICE_LOG_LEVEL", "error")

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "error" {
		t.Fatalf("expected env overrides, got %+v", cfg.Logging)
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Setenv("RQSERVICE_LOG_FORMAT", "")
	t.Setenv("RQSERVICE_LOG_LEVEL", "")

	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"bad format", "[logging]\nformat = \"xml\"\n", "logging.format"},
		{"bad level", "[logging]\nlevel = \"loud\"\n", "logging.level"},
		{"bad color", "[logging]\ncolor = \"rainbow\"\n", "logging.color"},
		{"small budget", "[limits]\nmax_conns = 3\n", "limits.max_conns"},
		{"unknown key", "[limits]\nmax_conn = 30\n", "parse settings"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write settings: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestExpandPathHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := config.ExpandPath("~/run/svc.pid")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "run", "svc.pid") {
		t.Fatalf("unexpected expansion %q", got)
	}
}

func TestLoadExpandsLogOutputs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("RQSERVICE_LOG_FORMAT", "")
	t.Setenv("RQSERVICE_LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "settings.toml")
	content := "[logging]\noutputs = [\"stdout\", \"~/logs/svc.log\", \" \"]\ncolor = \"Never\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := []string{"stdout", filepath.Join(home, "logs", "svc.log")}
	if len(cfg.Logging.Outputs) != len(want) || cfg.Logging.Outputs[0] != want[0] || cfg.Logging.Outputs[1] != want[1] {
		t.Fatalf("expected outputs %v, got %v", want, cfg.Logging.Outputs)
	}
	if cfg.Logging.Color != "never" {
		t.Fatalf("expected color never, got %q", cfg.Logging.Color)
	}
}

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Outputs lists destinations: "stdout", "stderr" or file paths.
	// Defaults to stderr.
	Outputs []string
	// Color is "always", "never" or "auto". Auto colours console output
	// only when every destination is a terminal.
	Color string
	// LevelVar, when set, receives the parsed level and stays live so the
	// caller can change it after construction.
	LevelVar *slog.LevelVar
}

// New builds a console or JSON logger. Debug level adds source locations.
func New(opts Options) (*slog.Logger, error) {
	levelVar := opts.LevelVar
	if levelVar == nil {
		levelVar = new(slog.LevelVar)
	}
	levelVar.Set(ParseLevel(opts.Level))
	source := levelVar.Level() <= slog.LevelDebug

	w, terminal, err := openOutputs(opts.Outputs)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		color, err := colorMode(opts.Color, terminal)
		if err != nil {
			return nil, err
		}
		return slog.New(newConsoleHandler(w, levelVar, source, color)), nil
	case "json":
		return slog.New(newJSONHandler(w, levelVar, source)), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

// LevelForVerbosity maps the verbose flag count to a level name: none keeps
// warnings and errors, one adds info, two or more add debug.
func LevelForVerbosity(verbose int) string {
	switch {
	case verbose >= 2:
		return "debug"
	case verbose == 1:
		return "info"
	default:
		return "warn"
	}
}

// ParseLevel converts a level name to a slog level. Unknown names map to
// info.
func ParseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return l
}

func colorMode(mode string, terminal bool) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return terminal, nil
	case "always":
		return true, nil
	case "never":
		return false, nil
	default:
		return false, fmt.Errorf("log color: unsupported value %q", mode)
	}
}

// openOutputs opens every named destination once and reports whether all
// of them are terminals.
func openOutputs(names []string) (io.Writer, bool, error) {
	var files []io.Writer
	terminal := true
	opened := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || opened[name] {
			continue
		}
		opened[name] = true
		f, err := openOutput(name)
		if err != nil {
			return nil, false, err
		}
		terminal = terminal && isTerminal(f)
		files = append(files, f)
	}

	switch len(files) {
	case 0:
		return os.Stderr, isTerminal(os.Stderr), nil
	case 1:
		return files[0], terminal, nil
	default:
		return io.MultiWriter(files...), terminal, nil
	}
}

func openOutput(name string) (*os.File, error) {
	switch name {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", name, err)
	}
	return f, nil
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// newJSONHandler emits slog's JSON with a "ts" key, lower-case levels and
// file:line sources.
func newJSONHandler(w io.Writer, level slog.Leveler, source bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		AddSource:   source,
		ReplaceAttr: jsonAttr,
	})
}

func jsonAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339))
	case slog.LevelKey:
		return slog.String(slog.LevelKey, strings.ToLower(a.Value.String()))
	case slog.SourceKey:
		if src, ok := a.Value.Any().(*slog.Source); ok && src != nil {
			return slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
		}
	}
	return a
}

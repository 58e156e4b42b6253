package options

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"rqservice/internal/logging"
)

var (
	// ErrSpecOverflow reports a short-flag specification longer than the
	// fixed bound of 4*MaxOptions bytes.
	ErrSpecOverflow = errors.New("option specification overflow")
	// ErrUnknownFlag reports a flag or config-file tag that is not registered.
	ErrUnknownFlag = errors.New("illegal argument")
	// ErrInvalidArguments reports a command line the scanner rejected.
	ErrInvalidArguments = errors.New("invalid command line")
	// ErrHelpRequested is returned after usage has been written because the
	// help tag was given. Callers should exit successfully.
	ErrHelpRequested = errors.New("help requested")
)

const maxSpecLen = 4 * MaxOptions

// Options names the tags with special meaning during parsing. A zero tag
// disables the corresponding behaviour.
type Options struct {
	ImportTag  byte
	HelpTag    byte
	VerboseTag byte

	// Usage receives help text when the help tag is present. Defaults to
	// io.Discard.
	Usage  io.Writer
	Logger *slog.Logger
}

// Result is the outcome of a successful Process call.
type Result struct {
	Verbose int
	Args    []string
}

// BuildSpec derives the short-flag specification for every registered tag in
// ascending order; parameterised tags are followed by ':'.
func BuildSpec(reg *Registry) (string, error) {
	return buildSpec(reg.Entries(), maxSpecLen)
}

func buildSpec(entries []*Entry, limit int) (string, error) {
	var b strings.Builder
	for _, entry := range entries {
		b.WriteByte(entry.Tag)
		if entry.TakesValue() {
			b.WriteByte(':')
		}
		if b.Len() >= limit {
			return "", fmt.Errorf("%w: limit %d bytes", ErrSpecOverflow, limit)
		}
	}
	return b.String(), nil
}

// Process scans args with short-flag conventions and merges every recognised
// flag into reg, left to right. The import tag loads its config file on the
// spot, so flags after it override the file and flags before it do not.
func Process(reg *Registry, args []string, opts Options) (Result, error) {
	spec, err := BuildSpec(reg)
	if err != nil {
		return Result{}, err
	}
	logger := loggerOrDiscard(opts.Logger)
	logger.Debug("option specification", logging.String("spec", spec))

	if err := rejectLongFlags(reg, args); err != nil {
		return Result{}, err
	}

	scan := &scanner{reg: reg, opts: opts}
	fs, err := scan.flagSet(spec)
	if err != nil {
		return Result{}, err
	}

	if err := fs.Parse(args); err != nil {
		// Set errors lose their identity inside pflag's message.
		if scan.err != nil {
			return Result{}, scan.err
		}
		if strings.HasPrefix(err.Error(), "unknown shorthand flag") {
			return Result{}, fmt.Errorf("%w: %w", ErrUnknownFlag, err)
		}
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}

	if opts.HelpTag != 0 {
		if count, _ := reg.Count(opts.HelpTag); count > 0 {
			out := opts.Usage
			if out == nil {
				out = io.Discard
			}
			if err := Usage(out, reg); err != nil {
				return Result{}, fmt.Errorf("write usage: %w", err)
			}
			return Result{}, ErrHelpRequested
		}
	}

	result := Result{Args: fs.Args()}
	if opts.VerboseTag != 0 {
		result.Verbose, _ = reg.Count(opts.VerboseTag)
	}
	return result, nil
}

// rejectLongFlags refuses "--name" tokens; every option is a single
// character. Scanning stops at a bare "--". Values of parameterised flags
// are skipped so "-U --x" still sets U to "--x".
func rejectLongFlags(reg *Registry, args []string) error {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return nil
		case strings.HasPrefix(arg, "--"):
			return fmt.Errorf("%w: %s", ErrUnknownFlag, arg)
		case len(arg) > 1 && arg[0] == '-':
			for j := 1; j < len(arg); j++ {
				entry := reg.Lookup(arg[j])
				if entry == nil {
					break
				}
				if entry.TakesValue() {
					if j == len(arg)-1 {
						i++
					}
					break
				}
			}
		}
	}
	return nil
}

type scanner struct {
	reg  *Registry
	opts Options
	err  error
}

func (s *scanner) flagSet(spec string) (*pflag.FlagSet, error) {
	fs := pflag.NewFlagSet("options", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.SortFlags = false

	for i := 0; i < len(spec); i++ {
		tag := spec[i]
		entry := s.reg.Lookup(tag)
		if entry == nil {
			return nil, fmt.Errorf("build flags %q: %w", tag, ErrUnknownTag)
		}
		name := string(rune(tag))
		flag := fs.VarPF(&tagValue{scan: s, entry: entry}, name, name, entry.Details)
		if i+1 < len(spec) && spec[i+1] == ':' {
			i++
			continue
		}
		flag.NoOptDefVal = "+1"
	}
	return fs, nil
}

// tagValue adapts one registry entry to pflag. Set runs in scan order.
type tagValue struct {
	scan  *scanner
	entry *Entry
}

func (v *tagValue) String() string {
	if !v.entry.TakesValue() {
		return strconv.Itoa(v.entry.count)
	}
	value, _ := v.entry.Value()
	return value
}

func (v *tagValue) Type() string {
	if v.entry.TakesValue() {
		return "string"
	}
	return "count"
}

func (v *tagValue) Set(raw string) error {
	err := v.apply(raw)
	if err != nil && v.scan.err == nil {
		v.scan.err = err
	}
	return err
}

func (v *tagValue) apply(raw string) error {
	reg := v.scan.reg
	tag := v.entry.Tag
	switch {
	case !v.entry.TakesValue():
		return reg.Increment(tag)
	case tag == v.scan.opts.ImportTag:
		return LoadFile(reg, raw, v.scan.opts)
	default:
		return reg.SetValue(tag, raw)
	}
}

func loggerOrDiscard(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return logging.NewNop()
}

package options_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"rqservice/internal/options"
	"rqservice/internal/testsupport"
)

func newTestRegistry(t *testing.T) *options.Registry {
	t.Helper()

	reg := options.NewRegistry()
	defs := []struct {
		tag     byte
		param   string
		details string
	}{
		{'X', "filename", "Config file which contains parameters"},
		{'C', "ip:port,ip:port", "Controllers to connect to."},
		{'D', "", "Run as a daemon"},
		{'P', "file", "save PID in <file>, only used with -D option"},
		{'U', "username", "assume identity of <username> (only when run as root)"},
		{'V', "", "verbose (print errors/warnings to stdout)"},
		{'h', "", "print this help and exit"},
	}
	for _, d := range defs {
		if err := reg.Register(d.tag, d.param, d.details); err != nil {
			t.Fatalf("register %q: %v", d.tag, err)
		}
	}
	return reg
}

func testOptions(usage *bytes.Buffer) options.Options {
	opts := options.Options{ImportTag: 'X', HelpTag: 'h', VerboseTag: 'V'}
	if usage != nil {
		opts.Usage = usage
	}
	return opts
}

func TestBuildSpec(t *testing.T) {
	reg := options.NewRegistry()
	_ = reg.Register('D', "", "daemon")
	_ = reg.Register('U', "username", "user")
	_ = reg.Register('h', "", "help")

	spec, err := options.BuildSpec(reg)
	if err != nil {
		t.Fatalf("BuildSpec: %v", err)
	}
	if spec != "DU:h" {
		t.Fatalf("expected spec DU:h, got %q", spec)
	}
}

func TestProcessFlagsAndValues(t *testing.T) {
	reg := options.NewRegistry()
	_ = reg.Register('D', "", "daemon")
	_ = reg.Register('U', "username", "user")
	_ = reg.Register('h', "", "help")

	if _, err := options.Process(reg, []string{"-D", "-U", "alice"}, options.Options{HelpTag: 'h'}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if count, _ := reg.Count('D'); count != 1 {
		t.Fatalf("expected D count 1, got %d", count)
	}
	if value, ok, _ := reg.Get('U'); !ok || value != "alice" {
		t.Fatalf("expected U=alice, got %q (ok=%v)", value, ok)
	}
	if count, _ := reg.Count('h'); count != 0 {
		t.Fatalf("expected h untouched, got %d", count)
	}
}

func TestProcessShortFlagForms(t *testing.T) {
	reg := newTestRegistry(t)
	res, err := options.Process(reg, []string{"-DV", "-Ubob", "-VV", "-P", "/run/svc.pid", "extra"}, testOptions(nil))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if count, _ := reg.Count('D'); count != 1 {
		t.Fatalf("expected D count 1, got %d", count)
	}
	if res.Verbose != 3 {
		t.Fatalf("expected verbosity 3, got %d", res.Verbose)
	}
	if value, _, _ := reg.Get('U'); value != "bob" {
		t.Fatalf("expected attached value bob, got %q", value)
	}
	if value, _, _ := reg.Get('P'); value != "/run/svc.pid" {
		t.Fatalf("unexpected pid path %q", value)
	}
	if len(res.Args) != 1 || res.Args[0] != "extra" {
		t.Fatalf("expected positional args [extra], got %v", res.Args)
	}
}

func TestProcessLastValueWins(t *testing.T) {
	reg := newTestRegistry(t)
	if _, err := options.Process(reg, []string{"-U", "alice", "-U", "bob", "-Ucarol"}, testOptions(nil)); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if value, _, _ := reg.Get('U'); value != "carol" {
		t.Fatalf("expected carol, got %q", value)
	}
}

func TestProcessUnknownFlag(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := options.Process(reg, []string{"-D", "-Z"}, testOptions(nil))
	if !errors.Is(err, options.ErrUnknownFlag) {
		t.Fatalf("expected ErrUnknownFlag, got %v", err)
	}
	if !strings.Contains(err.Error(), "Z") {
		t.Fatalf("expected error to name the flag, got %q", err)
	}
}

func TestProcessMissingParameter(t *testing.T) {
	reg := newTestRegistry(t)
	if _, err := options.Process(reg, []string{"-U"}, testOptions(nil)); !errors.Is(err, options.ErrInvalidArguments) {
		t.Fatalf("expected ErrInvalidArguments, got %v", err)
	}
}

func TestProcessHelpWritesUsage(t *testing.T) {
	reg := newTestRegistry(t)
	var usage bytes.Buffer
	_, err := options.Process(reg, []string{"-D", "-h"}, testOptions(&usage))
	if !errors.Is(err, options.ErrHelpRequested) {
		t.Fatalf("expected ErrHelpRequested, got %v", err)
	}
	if !strings.HasPrefix(usage.String(), "Usage:\n") {
		t.Fatalf("expected usage output, got %q", usage.String())
	}
}

func TestProcessImportPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteFile(t, dir, "svc.conf", "U bob\nC ctl:1\n")

	cases := []struct {
		name string
		args []string
		want string
	}{
		{"flag before import", []string{"-U", "alice", "-X", path}, "bob"},
		{"flag after import", []string{"-X", path, "-U", "alice"}, "alice"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reg := newTestRegistry(t)
			if _, err := options.Process(reg, tc.args, testOptions(nil)); err != nil {
				t.Fatalf("Process: %v", err)
			}
			if value, _, _ := reg.Get('U'); value != tc.want {
				t.Fatalf("expected U=%q, got %q", tc.want, value)
			}
			if value, _, _ := reg.Get('C'); value != "ctl:1" {
				t.Fatalf("expected controller from file, got %q", value)
			}
			if _, ok, _ := reg.Get('X'); ok {
				t.Fatal("import tag must not store a value")
			}
		})
	}
}

func TestProcessCountsAcrossSources(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteFile(t, dir, "svc.conf", "D\n  D ignored text\nV\n")

	reg := newTestRegistry(t)
	res, err := options.Process(reg, []string{"-D", "-X", path, "-DD"}, testOptions(nil))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if count, _ := reg.Count('D'); count != 5 {
		t.Fatalf("expected D count 5, got %d", count)
	}
	if res.Verbose != 1 {
		t.Fatalf("expected verbosity 1 from file, got %d", res.Verbose)
	}
}

func TestProcessImportErrorKeepsIdentity(t *testing.T) {
	reg := newTestRegistry(t)
	missing := filepath.Join(t.TempDir(), "missing.conf")
	_, err := options.Process(reg, []string{"-X", missing}, testOptions(nil))
	if !errors.Is(err, options.ErrConfigOpen) {
		t.Fatalf("expected ErrConfigOpen, got %v", err)
	}
}

func TestProcessRejectsLongFlags(t *testing.T) {
	for _, args := range [][]string{{"--D"}, {"-D", "--U=alice"}, {"--help"}} {
		reg := newTestRegistry(t)
		_, err := options.Process(reg, args, testOptions(nil))
		if !errors.Is(err, options.ErrUnknownFlag) {
			t.Fatalf("%v: expected ErrUnknownFlag, got %v", args, err)
		}
		if count, _ := reg.Count('D'); count != 0 {
			t.Fatalf("%v: nothing may be applied before rejection, D count %d", args, count)
		}
	}
}

func TestProcessLongFlagLookalikes(t *testing.T) {
	reg := newTestRegistry(t)
	res, err := options.Process(reg, []string{"-U", "--odd", "-D", "--", "--tail"}, testOptions(nil))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if value, _, _ := reg.Get('U'); value != "--odd" {
		t.Fatalf("expected U=--odd, got %q", value)
	}
	if len(res.Args) != 1 || res.Args[0] != "--tail" {
		t.Fatalf("expected positional [--tail], got %v", res.Args)
	}
}

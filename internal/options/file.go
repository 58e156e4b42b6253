package options

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"rqservice/internal/logging"
)

var (
	// ErrConfigOpen reports a config file that could not be opened.
	ErrConfigOpen = errors.New("unable to open parameter file")
	// ErrMissingValue reports a parameterised tag with nothing after it.
	ErrMissingValue = errors.New("missing option value")
)

// LoadFile merges the directives of a line-oriented config file into reg.
//
// Blank lines and lines starting with '#' (after leading spaces and tabs)
// are skipped. The first remaining character is the tag and the rest of the
// line, with separating whitespace and the line ending removed, is the value.
// The import tag loads the named file recursively unless the name is
// byte-identical to the file being read. Longer import cycles are not
// detected.
func LoadFile(reg *Registry, filename string, opts Options) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrConfigOpen, filename, err)
	}
	defer file.Close()

	logger := loggerOrDiscard(opts.Logger)
	logger.Debug("loading parameter file", logging.String("path", filename))

	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimLeft(scanner.Text(), " \t")
		if text == "" || text[0] == '#' {
			continue
		}

		tag := text[0]
		entry := reg.Lookup(tag)
		if entry == nil {
			return fmt.Errorf("%w %q in config file %q (line %d)", ErrUnknownFlag, string(rune(tag)), filename, line)
		}
		if !entry.TakesValue() {
			if err := reg.Increment(tag); err != nil {
				return err
			}
			continue
		}

		value := strings.TrimRight(strings.TrimLeft(text[1:], " \t"), "\r\n")
		if value == "" {
			return fmt.Errorf("%w for %q in config file %q (line %d)", ErrMissingValue, string(rune(tag)), filename, line)
		}

		if tag == opts.ImportTag && opts.ImportTag != 0 {
			if value == filename {
				logger.Debug("skipping self import", logging.String("path", filename))
				continue
			}
			if err := LoadFile(reg, value, opts); err != nil {
				return err
			}
			continue
		}

		if err := reg.SetValue(tag, value); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read parameter file %q: %w", filename, err)
	}
	return nil
}

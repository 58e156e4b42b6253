//go:build linux

package sysutil

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// ErrMaxConnsTooSmall reports a connection budget below the minimum.
var ErrMaxConnsTooSmall = errors.New("max connections must be greater than 5")

// SetMaxConns makes sure RLIMIT_NOFILE can hold maxConns connections. Each
// connection may need a second handle for file data, so a short soft limit
// is raised to 2*maxConns+3, lifting the hard limit when required.
func SetMaxConns(maxConns int) error {
	if maxConns <= 5 {
		return fmt.Errorf("%w: %d", ErrMaxConnsTooSmall, maxConns)
	}

	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err != nil {
		return fmt.Errorf("failed to getrlimit number of files: %w", err)
	}

	want := uint64(maxConns)
	if rlim.Cur >= want {
		return nil
	}
	rlim.Cur = 2*want + 3
	if rlim.Max < rlim.Cur {
		rlim.Max = rlim.Cur
	}
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &rlim); err != nil {
		return fmt.Errorf("failed to set rlimit for open files (run as root or request fewer connections): %w", err)
	}
	return nil
}

// OpenFileLimit returns the current soft and hard RLIMIT_NOFILE values.
func OpenFileLimit() (soft, hard uint64, err error) {
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err != nil {
		return 0, 0, fmt.Errorf("getrlimit: %w", err)
	}
	return rlim.Cur, rlim.Max, nil
}

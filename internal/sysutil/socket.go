//go:build linux

package sysutil

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// NewSocket creates a socket and switches it to non-blocking mode. The
// descriptor is closed when the mode cannot be set.
func NewSocket(family, sotype, proto int) (int, error) {
	fd, err := unix.Socket(family, sotype, proto)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return -1, fmt.Errorf("setting O_NONBLOCK: %w", err)
	}
	return fd, nil
}

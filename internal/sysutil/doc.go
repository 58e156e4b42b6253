// Package sysutil wraps the few raw syscalls services need at startup:
// raising the open-file limit and creating non-blocking sockets.
package sysutil

package daemon

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/gofrs/flock"
)

var (
	// ErrPIDFile reports a PID file that could not be written.
	ErrPIDFile = errors.New("pid file")
	// ErrAlreadyRunning reports a PID file locked by another process.
	ErrAlreadyRunning = errors.New("another instance holds the pid file")
)

// PIDFile is a written PID file and the lock guarding it.
type PIDFile struct {
	path string
	lock *flock.Flock
}

// WritePIDFile locks path+".lock" and writes pid followed by a newline to
// path. The lock is held until Remove.
func WritePIDFile(path string, pid int) (*PIDFile, error) {
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: lock %s: %w", ErrPIDFile, lock.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, path)
	}

	if err := writePID(path, pid); err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return &PIDFile{path: path, lock: lock}, nil
}

func writePID(path string, pid int) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: could not open %s for writing: %w", ErrPIDFile, path, err)
	}
	_, writeErr := file.WriteString(strconv.Itoa(pid) + "\n")
	closeErr := file.Close()
	if writeErr != nil {
		return fmt.Errorf("%w: write %s: %w", ErrPIDFile, path, writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("%w: could not close %s: %w", ErrPIDFile, path, closeErr)
	}
	return nil
}

// Path returns the PID file location.
func (p *PIDFile) Path() string {
	if p == nil {
		return ""
	}
	return p.path
}

// Remove deletes the PID file and its lock file, then releases the lock.
func (p *PIDFile) Remove() error {
	if p == nil {
		return nil
	}
	var errs []error
	for _, path := range []string{p.path, p.lock.Path()} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
		}
	}
	if err := p.lock.Unlock(); err != nil {
		errs = append(errs, fmt.Errorf("release pid lock: %w", err))
	}
	return errors.Join(errs...)
}

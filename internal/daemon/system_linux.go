//go:build linux

package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"os/user"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

// ChildEnv marks a process started by Spawn.
const ChildEnv = "RQSERVICE_DAEMON_CHILD"

type osSystem struct{}

// NewSystem returns the System backed by the running process.
func NewSystem() System {
	return osSystem{}
}

func (osSystem) IsSuperuser() bool {
	return unix.Getuid() == 0 || unix.Geteuid() == 0
}

func (osSystem) LookupUser(name string) (int, int, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return 0, 0, err
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return 0, 0, fmt.Errorf("parse uid %q: %w", u.Uid, err)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return 0, 0, fmt.Errorf("parse gid %q: %w", u.Gid, err)
	}
	return uid, gid, nil
}

func (osSystem) SetIdentity(uid, gid int) error {
	if err := unix.Setgid(gid); err != nil {
		return fmt.Errorf("setgid %d: %w", gid, err)
	}
	if err := unix.Setuid(uid); err != nil {
		return fmt.Errorf("setuid %d: %w", uid, err)
	}
	return nil
}

func (osSystem) IgnoreBrokenPipe() error {
	signal.Ignore(syscall.SIGPIPE)
	return nil
}

func (osSystem) Detached() bool {
	return os.Getenv(ChildEnv) == "1"
}

func (osSystem) Spawn() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Env = append(os.Environ(), ChildEnv+"=1")
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", exe, err)
	}
	return cmd.Process.Release()
}

func (osSystem) Chdir(dir string) error {
	return unix.Chdir(dir)
}

func (osSystem) RedirectStreams(device string) error {
	null, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer null.Close()
	for _, fd := range []int{unix.Stdin, unix.Stdout, unix.Stderr} {
		if err := unix.Dup3(int(null.Fd()), fd, 0); err != nil {
			return fmt.Errorf("dup onto fd %d: %w", fd, err)
		}
	}
	return nil
}

func (osSystem) Getpid() int {
	return unix.Getpid()
}

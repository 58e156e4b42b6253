package daemon

import (
	"errors"
	"fmt"
	"log/slog"

	"rqservice/internal/logging"
)

// State is a step of the daemonization sequence.
type State int

const (
	StateForeground State = iota
	StatePrivilegeCheck
	StateSignalSetup
	StateDetach
	StateStreamRedirect
	StatePIDFileWrite
	StateDaemonized
)

func (s State) String() string {
	switch s {
	case StateForeground:
		return "foreground"
	case StatePrivilegeCheck:
		return "privilege_check"
	case StateSignalSetup:
		return "signal_setup"
	case StateDetach:
		return "detach"
	case StateStreamRedirect:
		return "stream_redirect"
	case StatePIDFileWrite:
		return "pid_file_write"
	case StateDaemonized:
		return "daemonized"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrUsernameRequired reports a superuser start without a username.
	ErrUsernameRequired = errors.New("can't run as root without a username")
	// ErrUnknownUser reports a username with no system account.
	ErrUnknownUser = errors.New("can't find the user to switch to")
	// ErrIdentitySwitch reports a failed setgid/setuid.
	ErrIdentitySwitch = errors.New("failed to assume identity of user")
	// ErrDetach reports a failure to start the detached process.
	ErrDetach = errors.New("failed to detach")
	// ErrParentExit is returned to the original process once the detached
	// copy has been started. The caller should exit successfully.
	ErrParentExit = errors.New("daemon started in background")
	// ErrAlreadyDaemonized reports a second Run on the same Daemonizer.
	ErrAlreadyDaemonized = errors.New("daemonization already attempted")
)

const (
	defaultNullDevice = "/dev/null"
	defaultWorkDir    = "/"
)

// Options controls one daemonization.
type Options struct {
	// Username is the account to switch to when started as superuser.
	Username string
	// PIDFile receives the daemon's process id when set.
	PIDFile string
	// KeepStreams leaves stdin, stdout and stderr attached.
	KeepStreams bool
	// NullDevice replaces the standard streams. Defaults to /dev/null.
	NullDevice string
	// WorkDir is entered after detaching. Defaults to /.
	WorkDir string
}

// System is the process-level surface the sequence drives.
type System interface {
	IsSuperuser() bool
	LookupUser(name string) (uid, gid int, err error)
	SetIdentity(uid, gid int) error
	IgnoreBrokenPipe() error
	// Detached reports whether this process is the re-executed child.
	Detached() bool
	// Spawn starts a copy of this process in a new session.
	Spawn() error
	Chdir(dir string) error
	RedirectStreams(device string) error
	Getpid() int
}

// Daemonizer runs the sequence once. It is not reentrant and has no
// rollback.
type Daemonizer struct {
	sys    System
	logger *slog.Logger
	state  State
}

// New returns a Daemonizer in the foreground state.
func New(sys System, logger *slog.Logger) *Daemonizer {
	return &Daemonizer{sys: sys, logger: logging.NewComponentLogger(logger, "daemon")}
}

// State returns the last state entered.
func (d *Daemonizer) State() State {
	return d.state
}

// Run walks the sequence. In the original process it returns ErrParentExit
// after the detached copy starts; in the detached copy it returns the held
// PID file (nil when no path was given).
//
// A superuser start validates the target account in both processes but only
// the detached copy switches identity, as its first step.
func (d *Daemonizer) Run(opts Options) (*PIDFile, error) {
	if d.state != StateForeground {
		return nil, ErrAlreadyDaemonized
	}
	detached := d.sys.Detached()

	d.enter(StatePrivilegeCheck)
	if err := d.dropPrivileges(opts.Username, detached); err != nil {
		return nil, err
	}

	d.enter(StateSignalSetup)
	if err := d.sys.IgnoreBrokenPipe(); err != nil {
		return nil, fmt.Errorf("ignore SIGPIPE: %w", err)
	}

	d.enter(StateDetach)
	if !detached {
		if err := d.sys.Spawn(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDetach, err)
		}
		return nil, ErrParentExit
	}
	workDir := opts.WorkDir
	if workDir == "" {
		workDir = defaultWorkDir
	}
	if err := d.sys.Chdir(workDir); err != nil {
		d.logger.Warn("change working directory failed", logging.String("dir", workDir), logging.Error(err))
	}

	d.enter(StateStreamRedirect)
	if !opts.KeepStreams {
		device := opts.NullDevice
		if device == "" {
			device = defaultNullDevice
		}
		if err := d.sys.RedirectStreams(device); err != nil {
			d.logger.Warn("redirect standard streams failed", logging.String("device", device), logging.Error(err))
		}
	}

	d.enter(StatePIDFileWrite)
	var pidFile *PIDFile
	if opts.PIDFile != "" {
		var err error
		pidFile, err = WritePIDFile(opts.PIDFile, d.sys.Getpid())
		if err != nil {
			return nil, err
		}
	}

	d.enter(StateDaemonized)
	return pidFile, nil
}

// dropPrivileges is a no-op unless running as superuser; a username given
// to an unprivileged process is ignored. switchNow is false in the original
// process, which only checks that the account exists.
func (d *Daemonizer) dropPrivileges(username string, switchNow bool) error {
	if !d.sys.IsSuperuser() {
		if username != "" {
			d.logger.Debug("not superuser, keeping identity", logging.String("user", username))
		}
		return nil
	}
	if username == "" {
		return ErrUsernameRequired
	}
	uid, gid, err := d.sys.LookupUser(username)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrUnknownUser, username, err)
	}
	if !switchNow {
		return nil
	}
	if err := d.sys.SetIdentity(uid, gid); err != nil {
		return fmt.Errorf("%w %s: %w", ErrIdentitySwitch, username, err)
	}
	d.logger.Info("assumed identity", logging.String("user", username), logging.Int("uid", uid), logging.Int("gid", gid))
	return nil
}

func (d *Daemonizer) enter(state State) {
	d.state = state
	d.logger.Debug("daemon state", logging.String(logging.FieldState, state.String()))
}

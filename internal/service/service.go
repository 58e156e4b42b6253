package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"rqservice/internal/config"
	"rqservice/internal/controller"
	"rqservice/internal/daemon"
	"rqservice/internal/engine"
	"rqservice/internal/logging"
	"rqservice/internal/options"
)

// Built-in option tags.
const (
	TagImport      byte = 'X'
	TagControllers byte = 'C'
	TagDaemon      byte = 'D'
	TagPIDFile     byte = 'P'
	TagUser        byte = 'U'
	TagVerbose     byte = 'V'
	TagHelp        byte = 'h'
)

var (
	// ErrNameSet reports a second SetName call.
	ErrNameSet = errors.New("service name already set")
	// ErrClosed reports use of a Service after Close.
	ErrClosed = errors.New("service closed")
)

type builtin struct {
	tag     byte
	param   string
	details string
}

var builtins = []builtin{
	{TagImport, "filename", "Config file which contains parameters"},
	{TagControllers, "ip:port,ip:port", "Controllers to connect to"},
	{TagDaemon, "", "Run as a daemon"},
	{TagPIDFile, "file", "save PID in <file>, only used with -D option"},
	{TagUser, "username", "assume identity of <username> (only when run as root)"},
	{TagVerbose, "", "verbose (print errors/warnings to stdout)"},
	{TagHelp, "", "print this help and exit"},
}

// Handler is called by the engine when a controller connects or drops.
type Handler func(svc *Service, arg any)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used by the service and everything it drives.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.base = logger }
}

// WithUsage sets where help text is written. Defaults to io.Discard.
func WithUsage(w io.Writer) Option {
	return func(s *Service) { s.usage = w }
}

// WithDaemonSettings supplies the null device and working directory used
// when detaching.
func WithDaemonSettings(settings config.Daemon) Option {
	return func(s *Service) { s.daemonSettings = settings }
}

// Service is the context owned by a service's main control flow.
type Service struct {
	name           string
	reg            *options.Registry
	eng            engine.Engine
	base           *slog.Logger
	logger         *slog.Logger
	usage          io.Writer
	daemonSettings config.Daemon

	verbose int
	args    []string
	pidFile *daemon.PIDFile
	closed  bool
}

// New registers the built-in tags and initialises the engine.
func New(eng engine.Engine, opts ...Option) (*Service, error) {
	s := &Service{
		reg:   options.NewRegistry(),
		eng:   eng,
		usage: io.Discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.base == nil {
		s.base = logging.NewNop()
	}
	s.logger = logging.NewComponentLogger(s.base, "service")

	for _, b := range builtins {
		if err := s.reg.Register(b.tag, b.param, b.details); err != nil {
			return nil, fmt.Errorf("register built-in option: %w", err)
		}
	}
	if err := eng.Init(); err != nil {
		return nil, fmt.Errorf("init engine: %w", err)
	}
	return s, nil
}

// SetName records the service name. It can be set once.
func (s *Service) SetName(name string) error {
	if s.name != "" {
		return fmt.Errorf("%w: %q", ErrNameSet, s.name)
	}
	s.name = name
	s.base = s.base.With(logging.String(logging.FieldService, name))
	s.logger = logging.NewComponentLogger(s.base, "service")
	return nil
}

func (s *Service) Name() string {
	return s.name
}

// SetOption registers a service-specific tag. An empty param makes it a
// boolean flag. Must be called before ProcessArgs.
func (s *Service) SetOption(tag byte, param, details string) error {
	return s.reg.Register(tag, param, details)
}

// Option returns the current value of a parameterised tag.
func (s *Service) Option(tag byte) (string, bool, error) {
	return s.reg.Get(tag)
}

// OptionCount returns how often a tag occurred.
func (s *Service) OptionCount(tag byte) (int, error) {
	return s.reg.Count(tag)
}

// Registry exposes the underlying option registry.
func (s *Service) Registry() *options.Registry {
	return s.reg
}

// ProcessArgs merges the command line (without the program name) into the
// registry. It returns options.ErrHelpRequested after writing usage when
// -h is given.
func (s *Service) ProcessArgs(args []string) error {
	if s.closed {
		return ErrClosed
	}
	result, err := options.Process(s.reg, args, options.Options{
		ImportTag:  TagImport,
		HelpTag:    TagHelp,
		VerboseTag: TagVerbose,
		Usage:      s.usage,
		Logger:     logging.NewComponentLogger(s.base, "options"),
	})
	if err != nil {
		return err
	}
	s.verbose = result.Verbose
	s.args = result.Args
	return nil
}

// Verbose is the number of -V occurrences seen by ProcessArgs.
func (s *Service) Verbose() int {
	return s.verbose
}

// Args returns positional arguments left after option processing.
func (s *Service) Args() []string {
	return s.args
}

// InitDaemon daemonizes the process when -D was given and is a no-op
// otherwise. In the original process it returns daemon.ErrParentExit once
// the detached copy is running.
func (s *Service) InitDaemon(sys daemon.System) error {
	if s.closed {
		return ErrClosed
	}
	if count, _ := s.reg.Count(TagDaemon); count == 0 {
		return nil
	}
	username, _, _ := s.reg.Get(TagUser)
	pidPath, _, _ := s.reg.Get(TagPIDFile)
	// The detached process changes directory before writing the PID file.
	pidPath, err := config.ExpandPath(pidPath)
	if err != nil {
		return fmt.Errorf("pid file path: %w", err)
	}

	d := daemon.New(sys, s.base)
	pidFile, err := d.Run(daemon.Options{
		Username:    username,
		PIDFile:     pidPath,
		KeepStreams: s.verbose > 0,
		NullDevice:  s.daemonSettings.NullDevice,
		WorkDir:     s.daemonSettings.WorkDir,
	})
	if err != nil {
		return err
	}
	s.pidFile = pidFile
	return nil
}

// PIDFile returns the PID file held by the daemon, or nil.
func (s *Service) PIDFile() *daemon.PIDFile {
	return s.pidFile
}

// SetEventBase attaches the engine to an event loop.
func (s *Service) SetEventBase(base engine.EventBase) {
	s.eng.SetEventBase(base)
}

// Connect registers every controller from -C with the engine. It returns
// controller.ErrNotConfigured when -C was not given.
func (s *Service) Connect(onConnect, onDropped Handler, arg any) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	var spec *string
	if value, ok, _ := s.reg.Get(TagControllers); ok {
		spec = &value
	}
	n, err := controller.Connect(s.eng, spec, s.wrap(onConnect), s.wrap(onDropped), arg)
	if err != nil {
		return 0, err
	}
	s.logger.Info("controllers registered", logging.Int("count", n))
	return n, nil
}

func (s *Service) wrap(h Handler) engine.Handler {
	if h == nil {
		return nil
	}
	return func(arg any) { h(s, arg) }
}

// Shutdown asks the engine to stop.
func (s *Service) Shutdown() {
	s.eng.Shutdown()
}

// Close releases the engine, the PID file and the registry. Subsequent
// calls do nothing.
func (s *Service) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.eng.Cleanup()
	err := s.pidFile.Remove()
	s.pidFile = nil
	s.reg.Reset()
	if err != nil {
		return fmt.Errorf("close service: %w", err)
	}
	return nil
}

// Package engine declares the entry points rqservice needs from the
// message-queue engine and provides a standalone implementation for
// running a service without one.
package engine

import (
	"context"
	"log/slog"
	"sync"

	"rqservice/internal/logging"
)

// Handler is invoked by the engine when a controller connects or drops.
type Handler func(arg any)

// EventBase is the event loop the engine attaches to.
type EventBase interface {
	Dispatch(ctx context.Context) error
}

// Engine is the contract between a service and the queue engine.
type Engine interface {
	Init() error
	Cleanup()
	Shutdown()
	SetEventBase(base EventBase)
	AddController(addr string, onConnect, onDropped Handler, arg any)
}

// Controller is a registration recorded by Standalone.
type Controller struct {
	Addr      string
	OnConnect Handler
	OnDropped Handler
	Arg       any
}

// Standalone satisfies Engine without any network activity. It records
// controller registrations and logs every call.
type Standalone struct {
	logger *slog.Logger

	mu          sync.Mutex
	base        EventBase
	controllers []Controller
	shutdown    bool
}

// NewStandalone returns an engine that only records what it is asked to do.
func NewStandalone(logger *slog.Logger) *Standalone {
	return &Standalone{logger: logging.NewComponentLogger(logger, "engine")}
}

func (s *Standalone) Init() error {
	s.logger.Debug("engine initialised")
	return nil
}

func (s *Standalone) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controllers = nil
	s.base = nil
	s.logger.Debug("engine cleaned up")
}

func (s *Standalone) Shutdown() {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()
	s.logger.Info("engine shutdown requested")
}

func (s *Standalone) SetEventBase(base EventBase) {
	s.mu.Lock()
	s.base = base
	s.mu.Unlock()
}

func (s *Standalone) AddController(addr string, onConnect, onDropped Handler, arg any) {
	s.mu.Lock()
	s.controllers = append(s.controllers, Controller{Addr: addr, OnConnect: onConnect, OnDropped: onDropped, Arg: arg})
	s.mu.Unlock()
	s.logger.Info("controller registered", logging.String("addr", addr))
}

// Controllers returns a copy of the recorded registrations.
func (s *Standalone) Controllers() []Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Controller, len(s.controllers))
	copy(out, s.controllers)
	return out
}

// ShutdownRequested reports whether Shutdown was called.
func (s *Standalone) ShutdownRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}

// EventBase returns the attached event loop, if any.
func (s *Standalone) EventBase() EventBase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base
}

// Loop is an EventBase that idles until its context ends.
type Loop struct{}

func (Loop) Dispatch(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

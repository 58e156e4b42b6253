// Package service holds the per-process context shared by every service
// built on the queue engine: the option registry with its built-in tags,
// verbosity, daemonization and controller registration.
//
// A Service is created once by the bootstrap, passed explicitly to whatever
// needs it and closed at shutdown. Nothing here terminates the process;
// errors travel back to the caller.
package service

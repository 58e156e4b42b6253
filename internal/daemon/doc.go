// Package daemon detaches an rqservice process from its terminal.
//
// Daemonizer walks a fixed sequence of states: privilege check, signal
// setup, detach, stream redirect and PID file write. Go cannot fork a
// running runtime, so the detach step re-executes the binary in a new
// session and tells the original process to exit. The re-executed child
// recognises itself, performs the identity switch while it is still
// superuser and resumes the sequence from the redirect step. The original
// process only checks that the target account exists.
//
// The PID file carries an flock-based lock next to it so two daemons
// configured with the same PID file cannot run at once. Both files are
// removed on teardown. Every failure is
// returned to the caller; nothing here exits the process.
package daemon

// Command rqserviced runs a queue service with the shared startup scaffold:
// single-character options from the command line and imported config files,
// optional daemonization and controller registration.
//
// Usage:
//
//	rqserviced [-X filename] [-C ip:port,ip:port] [-D] [-P file] [-U username] [-V] [-h]
//
// Ambient settings (log format, file descriptor limit, daemon null device
// and working directory) are read from a TOML file located through
// $RQSERVICE_SETTINGS or ~/.config/rqservice/settings.toml.
package main

// Package config loads the ambient process settings of an rqservice binary.
//
// These settings cover concerns the option table does not: log format and
// level, the open-file budget, and where the daemon parks its working
// directory and standard streams. They live in an optional TOML file and can
// be overridden through RQSERVICE_* environment variables. Service options
// proper (controllers, PID file, identity) stay in the single-character
// option table.
package config

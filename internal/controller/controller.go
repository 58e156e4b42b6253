// Package controller turns the configured controller list into engine
// registrations.
package controller

import (
	"errors"
	"strings"

	"rqservice/internal/engine"
)

// ErrNotConfigured is returned when no controller list was supplied. It is
// not a failure; the service simply has nothing to connect to.
var ErrNotConfigured = errors.New("no controllers configured")

// Registrar is the engine entry point that accepts one controller address.
type Registrar interface {
	AddController(addr string, onConnect, onDropped engine.Handler, arg any)
}

// Split breaks a comma-separated controller list into addresses. Spaces
// around each token are trimmed and empty tokens are dropped. Address syntax
// is not checked; that is the engine's job.
func Split(spec string) []string {
	var addrs []string
	for _, token := range strings.Split(spec, ",") {
		token = strings.Trim(token, " ")
		if token == "" {
			continue
		}
		addrs = append(addrs, token)
	}
	return addrs
}

// Connect registers every address in spec with r and returns how many were
// registered. A nil spec yields ErrNotConfigured.
func Connect(r Registrar, spec *string, onConnect, onDropped engine.Handler, arg any) (int, error) {
	if spec == nil {
		return 0, ErrNotConfigured
	}
	addrs := Split(*spec)
	for _, addr := range addrs {
		r.AddController(addr, onConnect, onDropped, arg)
	}
	return len(addrs), nil
}

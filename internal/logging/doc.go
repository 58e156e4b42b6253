// Package logging assembles structured slog loggers for rqservice binaries.
//
// It owns the console and JSON handlers, maps the verbose flag onto a log
// level, and provides attribute helpers plus a no-op logger for tests and
// wiring code that cannot fail.
//
// Console lines lead with the service name, component and daemon state
// (the FieldService, FieldComponent and FieldState attributes) ahead of the
// message; other attributes follow as key=value pairs.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same shape.
package logging

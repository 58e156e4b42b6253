// Package options owns the single-character option table shared by every
// rqservice binary.
//
// A Registry is populated once at startup with the built-in and
// service-specific tags, then filled from the command line (Process) and
// from line-oriented config files (LoadFile), which may import further
// files. Usage renders the table as help text.
//
// Tags are single bytes in the range 1-126 and are addressed directly, so
// lookups never allocate and every tag maps onto exactly one short flag.
package options

package options

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// MaxOptions is the size of the tag domain. Valid tags are 1 through
// MaxOptions-1.
const MaxOptions = 127

var (
	// ErrTagRange reports a tag outside 1-126.
	ErrTagRange = errors.New("option tag out of range")
	// ErrTagInvalid reports a tag that cannot be expressed as a short flag.
	ErrTagInvalid = errors.New("option tag cannot be used as a flag")
	// ErrDuplicateTag reports a second registration of the same tag.
	ErrDuplicateTag = errors.New("option tag already registered")
	// ErrUnknownTag reports access to a tag that was never registered.
	ErrUnknownTag = errors.New("option tag not registered")
	// ErrMissingDetails reports a registration without help text.
	ErrMissingDetails = errors.New("option details are required")
)

// Entry is one registered option.
type Entry struct {
	Tag     byte
	Param   string
	Details string

	value string
	set   bool
	count int
}

// TakesValue reports whether the option carries a parameter.
func (e *Entry) TakesValue() bool {
	return e.Param != ""
}

// Value returns the current value and whether one has been assigned.
func (e *Entry) Value() (string, bool) {
	return e.value, e.set
}

// Count returns how many times the option occurred.
func (e *Entry) Count() int {
	return e.count
}

// Registry is the table of recognised options, indexed by tag byte.
type Registry struct {
	entries [MaxOptions]*Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a tag. An empty param declares a boolean flag.
func (r *Registry) Register(tag byte, param, details string) error {
	if tag == 0 || int(tag) >= MaxOptions {
		return fmt.Errorf("register %d: %w", tag, ErrTagRange)
	}
	if !flagSafe(tag) {
		return fmt.Errorf("register %q: %w", tag, ErrTagInvalid)
	}
	if details == "" {
		return fmt.Errorf("register %q: %w", tag, ErrMissingDetails)
	}
	if r.entries[tag] != nil {
		return fmt.Errorf("register %q: %w", tag, ErrDuplicateTag)
	}
	r.entries[tag] = &Entry{Tag: tag, Param: param, Details: details}
	return nil
}

// Lookup returns the entry for tag, or nil when it is not registered.
func (r *Registry) Lookup(tag byte) *Entry {
	if int(tag) >= MaxOptions {
		return nil
	}
	return r.entries[tag]
}

// Get returns the current value of a registered tag.
func (r *Registry) Get(tag byte) (string, bool, error) {
	entry := r.Lookup(tag)
	if entry == nil {
		return "", false, fmt.Errorf("get %q: %w", tag, ErrUnknownTag)
	}
	value, ok := entry.Value()
	return value, ok, nil
}

// Count returns the occurrence count of a registered tag.
func (r *Registry) Count(tag byte) (int, error) {
	entry := r.Lookup(tag)
	if entry == nil {
		return 0, fmt.Errorf("count %q: %w", tag, ErrUnknownTag)
	}
	return entry.count, nil
}

// Tags returns the registered tags in ascending byte order.
func (r *Registry) Tags() []byte {
	tags := make([]byte, 0, MaxOptions)
	for i, entry := range r.entries {
		if entry != nil {
			tags = append(tags, byte(i))
		}
	}
	return tags
}

// Entries returns the registered entries in ascending tag order.
func (r *Registry) Entries() []*Entry {
	out := make([]*Entry, 0, MaxOptions)
	for _, entry := range r.entries {
		if entry != nil {
			out = append(out, entry)
		}
	}
	return out
}

// SetValue replaces the value of a registered tag. The last write wins.
func (r *Registry) SetValue(tag byte, value string) error {
	entry := r.Lookup(tag)
	if entry == nil {
		return fmt.Errorf("set %q: %w", tag, ErrUnknownTag)
	}
	// Clone so the stored value never aliases a caller's line buffer.
	entry.value = strings.Clone(value)
	entry.set = true
	return nil
}

// Increment adds one occurrence to a registered tag.
func (r *Registry) Increment(tag byte) error {
	entry := r.Lookup(tag)
	if entry == nil {
		return fmt.Errorf("increment %q: %w", tag, ErrUnknownTag)
	}
	entry.count++
	return nil
}

// Reset drops every parsed value and count. Registrations are kept.
func (r *Registry) Reset() {
	for _, entry := range r.entries {
		if entry == nil {
			continue
		}
		entry.value = ""
		entry.set = false
		entry.count = 0
	}
}

func flagSafe(tag byte) bool {
	if tag == ':' || tag == '-' {
		return false
	}
	return unicode.IsGraphic(rune(tag)) && tag != ' '
}


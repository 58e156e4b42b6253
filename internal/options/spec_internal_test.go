package options

import (
	"errors"
	"testing"
)

func TestBuildSpecOverflow(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register('D', "", "daemon")
	_ = reg.Register('U', "username", "user")
	_ = reg.Register('h', "", "help")

	if _, err := buildSpec(reg.Entries(), 3); !errors.Is(err, ErrSpecOverflow) {
		t.Fatalf("expected ErrSpecOverflow, got %v", err)
	}
	spec, err := buildSpec(reg.Entries(), 5)
	if err != nil || spec != "DU:h" {
		t.Fatalf("expected DU:h within limit, got %q err=%v", spec, err)
	}
}

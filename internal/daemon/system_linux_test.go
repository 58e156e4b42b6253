//go:build linux

package daemon_test

import (
	"os"
	"testing"

	"rqservice/internal/daemon"
)

func TestSystemDetachedFromEnv(t *testing.T) {
	sys := daemon.NewSystem()
	t.Setenv(daemon.ChildEnv, "")
	if sys.Detached() {
		t.Fatal("expected foreground without marker")
	}
	t.Setenv(daemon.ChildEnv, "1")
	if !sys.Detached() {
		t.Fatal("expected detached with marker")
	}
}

func TestSystemGetpid(t *testing.T) {
	if got := daemon.NewSystem().Getpid(); got != os.Getpid() {
		t.Fatalf("expected %d, got %d", os.Getpid(), got)
	}
}

func TestSystemLookupCurrentUser(t *testing.T) {
	sys := daemon.NewSystem()
	if _, _, err := sys.LookupUser("no-such-user-rqservice"); err == nil {
		t.Fatal("expected lookup failure for unknown user")
	}
	uid, _, err := sys.LookupUser("root")
	if err != nil {
		t.Skipf("root account not resolvable here: %v", err)
	}
	if uid != 0 {
		t.Fatalf("expected uid 0 for root, got %d", uid)
	}
}

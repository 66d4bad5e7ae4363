package portwatch

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

// Full pipeline against a live loopback listener: sweep, process
// correlation, banner capture, snapshot assembly.
func TestWatcherRun(t *testing.T) {
	addr, port, stop := greetingListener(t, "SSH-2.0-portwatch_test\r\n")
	defer stop()

	w := NewWatcher(8, 500*time.Millisecond)
	spec := PortSpec{Start: port, End: port}

	snap, err := w.Run(context.Background(), addr, spec)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if !snap.Target.Local {
		t.Fatal("loopback target should be local")
	}
	if len(snap.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(snap.Results))
	}

	r := snap.Results[0]
	if r.State != PortOpen {
		t.Fatalf("expected the listener port open, got %s", r.State)
	}
	if !strings.HasPrefix(r.Banner, "SSH-") {
		t.Errorf("expected an SSH banner, got %q", r.Banner)
	}

	// the listener lives in this test process; if the connection table
	// was readable the pid must be ours, otherwise the unknown sentinel
	if r.PID != 0 && r.PID != os.Getpid() {
		t.Errorf("expected pid %d or unresolved, got %d", os.Getpid(), r.PID)
	}
	if r.PID == 0 && r.ProcessName != UnknownProcess {
		t.Errorf("unresolved port should carry the unknown sentinel, got %q", r.ProcessName)
	}
}

func TestWatcherRunBadTarget(t *testing.T) {
	w := NewWatcher(4, 100*time.Millisecond)

	if _, err := w.Run(context.Background(), "host.invalid.portwatch", PortSpec{Start: 80, End: 80}); err == nil {
		t.Fatal("expected a resolution error")
	}
}

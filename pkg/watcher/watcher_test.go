package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newStartedWatcher(t *testing.T, path string, opts ...WatcherOption) *Watcher {
	t.Helper()
	w, err := NewWatcher(path, opts...)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(w.Stop)
	return w
}

func waitChanged(t *testing.T, w *Watcher, timeout time.Duration) {
	t.Helper()
	select {
	case <-w.Changed():
	case <-time.After(timeout):
		t.Fatal("no change notification")
	}
}

func TestDetectsFileChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "graph:\n  tickMs: 50\n")

	w := newStartedWatcher(t, path, WithDebounceDuration(20*time.Millisecond))

	// Give the watch loop a moment to attach before mutating.
	time.Sleep(50 * time.Millisecond)
	writeFile(t, path, "graph:\n  tickMs: 25\n")

	waitChanged(t, w, 3*time.Second)
}

func TestDebounceCoalescesBurst(t *testing.T) {
	var fired atomic.Int32
	db := NewDebouncer(40 * time.Millisecond)
	for i := 0; i < 10; i++ {
		db.Trigger(func() { fired.Add(1) })
		time.Sleep(2 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Errorf("debounced burst fired %d times, want 1", got)
	}
}

func TestDebouncerCancel(t *testing.T) {
	var fired atomic.Int32
	db := NewDebouncer(20 * time.Millisecond)
	db.Trigger(func() { fired.Add(1) })
	db.Cancel()
	time.Sleep(80 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Errorf("cancelled trigger fired %d times", got)
	}
}

func TestPollingDetectsChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "a")

	w := newStartedWatcher(t, path,
		WithForcePoll(true),
		WithPollInterval(20*time.Millisecond),
		WithDebounceDuration(10*time.Millisecond))

	if !w.IsPolling() {
		t.Fatal("forced poll mode not active")
	}

	// Size change guarantees detection even with coarse mtime resolution.
	time.Sleep(30 * time.Millisecond)
	writeFile(t, path, "longer content")

	waitChanged(t, w, 3*time.Second)
}

func TestPollingReportsRemoval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "x")

	var gotRemoved atomic.Bool
	newStartedWatcher(t, path,
		WithForcePoll(true),
		WithPollInterval(20*time.Millisecond),
		WithOnError(func(err error) {
			if err == ErrFileRemoved {
				gotRemoved.Store(true)
			}
		}))

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for !gotRemoved.Load() {
		select {
		case <-deadline:
			t.Fatal("removal never reported")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestEnvForcesPolling(t *testing.T) {
	t.Setenv("GPANE_FORCE_POLLING", "1")
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "x")

	w := newStartedWatcher(t, path)
	if !w.IsPolling() {
		t.Error("GPANE_FORCE_POLLING=1 should force poll mode")
	}
}

func TestRemoteFilesystemUsesPolling(t *testing.T) {
	orig := detectFilesystemTypeFunc
	detectFilesystemTypeFunc = func(string) FilesystemType { return FSTypeNFS }
	defer func() { detectFilesystemTypeFunc = orig }()

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "x")

	w := newStartedWatcher(t, path)
	if !w.IsPolling() {
		t.Error("NFS should select poll mode")
	}
	if w.FilesystemType() != FSTypeNFS {
		t.Errorf("fs type = %v, want nfs", w.FilesystemType())
	}
}

func TestStartTwiceFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "x")

	w := newStartedWatcher(t, path)
	if err := w.Start(); err != ErrAlreadyStarted {
		t.Errorf("second start = %v, want ErrAlreadyStarted", err)
	}

	w.Stop()
	if w.IsStarted() {
		t.Error("still started after Stop")
	}
	// Stop twice is a no-op.
	w.Stop()
}

func TestMissingFileIsAllowed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-yet.yaml")

	w := newStartedWatcher(t, path,
		WithForcePoll(true),
		WithPollInterval(20*time.Millisecond),
		WithDebounceDuration(10*time.Millisecond))

	time.Sleep(30 * time.Millisecond)
	writeFile(t, path, "now it exists")

	waitChanged(t, w, 3*time.Second)
}

func TestPathIsAbsolute(t *testing.T) {
	w, err := NewWatcher("relative.yaml")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !filepath.IsAbs(w.Path()) {
		t.Errorf("path %q not absolute", w.Path())
	}
}

func TestFilesystemTypeString(t *testing.T) {
	cases := map[FilesystemType]string{
		FSTypeLocal:   "local",
		FSTypeNFS:     "nfs",
		FSTypeSMB:     "smb",
		FSTypeSSHFS:   "sshfs",
		FSTypeFUSE:    "fuse",
		FSTypeUnknown: "unknown",
	}
	for ft, want := range cases {
		if got := ft.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", ft, got, want)
		}
	}
}

func TestEnvBool(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " on "} {
		t.Setenv("GPANE_WATCH_TEST", v)
		if !envBool("GPANE_WATCH_TEST") {
			t.Errorf("envBool(%q) = false", v)
		}
	}
	for _, v := range []string{"", "0", "false", "off", "nah"} {
		t.Setenv("GPANE_WATCH_TEST", v)
		if envBool("GPANE_WATCH_TEST") {
			t.Errorf("envBool(%q) = true", v)
		}
	}
}

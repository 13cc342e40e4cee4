// Package watcher monitors the gpane config file so a running view can
// retune its simulation physics without a restart. fsnotify drives it on
// local filesystems; on network mounts, where inotify is unreliable or
// absent, it degrades to stat polling.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval paces the stat loop in polling mode.
const DefaultPollInterval = 2 * time.Second

var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDuration sets the quiet period before a change is reported.
func WithDebounceDuration(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithPollInterval sets the stat interval used in polling mode.
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.pollInterval = d }
}

// WithOnError sets the callback invoked on watch errors. Errors never stop
// the watcher; a transient stat failure on one poll is not fatal.
func WithOnError(fn func(error)) WatcherOption {
	return func(w *Watcher) { w.onError = fn }
}

// WithForcePoll skips fsnotify entirely. GPANE_FORCE_POLLING=1 does the
// same without a code change.
func WithForcePoll(force bool) WatcherOption {
	return func(w *Watcher) { w.forcePoll = force }
}

// Watcher reports changes to a single file on its Changed channel.
type Watcher struct {
	path         string
	debounce     time.Duration
	pollInterval time.Duration
	onError      func(error)
	forcePoll    bool

	mu        sync.RWMutex
	started   bool
	polling   bool
	fsType    FilesystemType
	lastMtime time.Time
	lastSize  int64

	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	cancel    context.CancelFunc
	changed   chan struct{}
}

// NewWatcher prepares a watcher for path. Nothing runs until Start.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:         abs,
		debounce:     DefaultDebounceDuration,
		pollInterval: DefaultPollInterval,
		onError:      func(error) {},
		changed:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer(w.debounce)
	return w, nil
}

// Start picks a watch strategy and begins watching. A missing file is fine;
// its creation counts as the first change.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}

	if info, err := os.Stat(w.path); err == nil {
		w.lastMtime = info.ModTime()
		w.lastSize = info.Size()
	} else if os.IsPermission(err) {
		return ErrPermission
	} else {
		w.lastMtime = time.Time{}
		w.lastSize = 0
	}

	w.fsType = detectFilesystemTypeFunc(w.path)
	w.polling = w.forcePoll || envBool("GPANE_FORCE_POLLING") ||
		envBool("GPANE_FORCE_POLL") || isRemoteFilesystem(w.fsType)

	if !w.polling {
		if fsw, err := w.attachFsnotify(); err == nil {
			w.fsWatcher = fsw
		} else {
			w.polling = true
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	if w.polling {
		go w.pollLoop(ctx)
	} else {
		go w.eventLoop(ctx, w.fsWatcher)
	}
	w.started = true
	return nil
}

// attachFsnotify watches the parent directory rather than the file itself,
// which keeps working across the delete-and-rename an atomic save does.
func (w *Watcher) attachFsnotify() (*fsnotify.Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return nil, err
	}
	return fsw, nil
}

// Stop shuts the watch loop down. The Changed channel stays open so a
// receiver blocked on it is released by process exit, not by a close racing
// the final notification.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}
	w.cancel()
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}
	w.debouncer.Cancel()
	w.started = false
}

// Changed receives one signal per debounced batch of file modifications.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changed
}

// IsPolling reports whether the stat fallback is active instead of fsnotify.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.polling
}

// IsStarted reports whether the watch loop is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Path returns the absolute watched path.
func (w *Watcher) Path() string {
	return w.path
}

// FilesystemType returns the classification made at Start.
func (w *Watcher) FilesystemType() FilesystemType {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fsType
}

// PollInterval returns the configured stat interval.
func (w *Watcher) PollInterval() time.Duration {
	return w.pollInterval
}

func (w *Watcher) eventLoop(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			switch {
			case event.Op&fsnotify.Remove != 0:
				w.onError(ErrFileRemoved)
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				w.debouncer.Trigger(w.notify)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pollOnce()
		}
	}
}

// pollOnce compares the file's mtime and size against the last observation.
func (w *Watcher) pollOnce() {
	info, err := os.Stat(w.path)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			w.mu.RLock()
			existed := !w.lastMtime.IsZero()
			w.mu.RUnlock()
			if existed {
				w.onError(ErrFileRemoved)
			}
		case os.IsPermission(err):
			w.onError(ErrPermission)
		default:
			w.onError(err)
		}
		return
	}

	w.mu.Lock()
	changed := info.ModTime().After(w.lastMtime) || info.Size() != w.lastSize
	if changed {
		w.lastMtime = info.ModTime()
		w.lastSize = info.Size()
	}
	w.mu.Unlock()

	if changed {
		w.debouncer.Trigger(w.notify)
	}
}

// notify signals the Changed channel. The send never blocks; a receiver that
// has not drained the previous signal will still observe a pending one.
func (w *Watcher) notify() {
	w.mu.RLock()
	started := w.started
	w.mu.RUnlock()
	if !started {
		return
	}
	select {
	case w.changed <- struct{}{}:
	default:
	}
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

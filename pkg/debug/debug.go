// Package debug provides conditional debug logging for gpane.
//
// Debug logging is enabled by setting the GPANE_DEBUG environment variable:
//
//	GPANE_DEBUG=1 gpane -serve :8080
//
// When enabled, debug messages are written to stderr with timestamps.
// When disabled (default), all debug functions are no-ops with zero overhead.
//
// Besides printf-style tracing, components emit structured lifecycle events
// through Event: one JSON object per line with a timestamp, component, and
// event name. Stale replies, superseded queries, and render recoveries all
// leave a line here, which is the only place they are visible.
package debug

import (
	"io"
	"log"
	"os"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

var (
	mu      sync.Mutex
	enabled bool
	logger  *log.Logger
)

func init() {
	if os.Getenv("GPANE_DEBUG") != "" {
		enabled = true
		logger = newLogger(os.Stderr)
	}
}

func newLogger(w io.Writer) *log.Logger {
	return log.New(w, "[GPANE_DEBUG] ", log.Ltime|log.Lmicroseconds)
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// SetEnabled allows programmatic control of debug logging.
func SetEnabled(e bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = e
	if e && logger == nil {
		logger = newLogger(os.Stderr)
	}
}

// SetOutput redirects debug output, primarily so tests can capture events.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w)
}

func active() (*log.Logger, bool) {
	mu.Lock()
	defer mu.Unlock()
	if !enabled || logger == nil {
		return nil, false
	}
	return logger, true
}

// Log writes a debug message if debug logging is enabled.
// Uses printf-style formatting.
func Log(format string, args ...any) {
	if l, ok := active(); ok {
		l.Printf(format, args...)
	}
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if l, ok := active(); ok {
		l.Printf("%s took %v", name, d)
	}
}

// LogEnterExit logs function entry and exit with timing.
// Usage:
//
//	func myFunc() {
//	    defer debug.LogEnterExit("myFunc")()
//	    // ...
//	}
func LogEnterExit(name string) func() {
	l, ok := active()
	if !ok {
		return func() {}
	}
	l.Printf("-> %s", name)
	start := time.Now()
	return func() {
		l.Printf("<- %s (%v)", name, time.Since(start))
	}
}

// Trace is an alias for LogEnterExit for convenience.
var Trace = LogEnterExit

// Dump logs a value with its type for debugging complex structures.
func Dump(name string, v any) {
	if l, ok := active(); ok {
		l.Printf("%s: %T = %+v", name, v, v)
	}
}

// Event writes one structured JSON event line. Fields may be nil. Events
// share the debug gate: a disabled logger drops them with no allocation
// beyond the map the caller built.
func Event(component, event string, fields map[string]any) {
	l, ok := active()
	if !ok {
		return
	}
	payload := map[string]any{
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"component": component,
		"event":     event,
	}
	for k, v := range fields {
		payload[k] = v
	}
	b, err := json.Marshal(payload)
	if err != nil {
		l.Printf("event %s: marshal failed: %v", event, err)
		return
	}
	l.Printf("%s", b)
}

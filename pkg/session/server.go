package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/graphpane/internal/backend"
	"github.com/vanderheijden86/graphpane/pkg/channel"
	"github.com/vanderheijden86/graphpane/pkg/debug"
	"github.com/vanderheijden86/graphpane/pkg/version"
)

// Server hosts sessions over websocket. Each connection binds to a session:
// a fresh ULID is minted unless the client resumes one with ?session=.
// Sessions outlive their connections, so a client that drops and redials
// picks its view back up.
type Server struct {
	exec     backend.Executor
	store    PageStore
	settings channel.Settings

	mu       sync.Mutex
	sessions map[string]*Controller
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerPageStore persists every session's state.
func WithServerPageStore(store PageStore) ServerOption {
	return func(s *Server) { s.store = store }
}

// WithChannelSettings overrides the websocket transport tuning.
func WithChannelSettings(settings channel.Settings) ServerOption {
	return func(s *Server) { s.settings = settings }
}

// NewServer creates a session server over the given executor.
func NewServer(exec backend.Executor, opts ...ServerOption) *Server {
	s := &Server{
		exec:     exec,
		settings: channel.DefaultSettings(),
		sessions: make(map[string]*Controller),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session returns the controller for id, creating it on first touch.
func (s *Server) Session(id string) *Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctrl, ok := s.sessions[id]; ok {
		return ctrl
	}
	var opts []Option
	if s.store != nil {
		opts = append(opts, WithPageStore(s.store))
	}
	ctrl := NewController(id, s.exec, opts...)
	s.sessions[id] = ctrl
	debug.Event("server", "session_created", map[string]any{"session": id})
	return ctrl
}

// SessionIDs lists the live sessions.
func (s *Server) SessionIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Handler returns the HTTP mux serving the websocket endpoint at /ws and a
// small health/version endpoint at /.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "gpane %s\n", version.Version)
	})
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = ulid.Make().String()
	}

	upgrader := channel.Upgrader(s.settings)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		debug.Log("server: upgrade failed: %v", err)
		return
	}

	ch := channel.NewWSConn(conn, s.settings)
	defer ch.Close()

	debug.Event("server", "client_attached", map[string]any{"session": sessionID})
	s.Session(sessionID).Serve(r.Context(), ch)
	debug.Event("server", "client_detached", map[string]any{"session": sessionID})
}

// ListenAndServe runs the HTTP server until the context is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		debug.Log("server: listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

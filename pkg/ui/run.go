package ui

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/graphpane/pkg/channel"
	"github.com/vanderheijden86/graphpane/pkg/config"
	"github.com/vanderheijden86/graphpane/pkg/debug"
	"github.com/vanderheijden86/graphpane/pkg/graphview"
	"github.com/vanderheijden86/graphpane/pkg/msg"
	"github.com/vanderheijden86/graphpane/pkg/session"
	"github.com/vanderheijden86/graphpane/pkg/watcher"
)

// programSurface forwards graphview.Surface calls into the bubbletea
// program as messages. post never blocks: surface calls arrive with the
// view's lock held, and some of them originate inside Update itself (Enter
// runs a query synchronously), where a direct program.Send would wait on the
// event loop that is busy calling us. Messages are queued instead and a
// dedicated goroutine feeds them to the program in post order. Calls
// arriving before bind simply wait in the queue.
type programSurface struct {
	mu      sync.Mutex
	pending []tea.Msg
	wake    chan struct{}
	quit    chan struct{}
	once    sync.Once
}

func newProgramSurface() *programSurface {
	return &programSurface{
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
	}
}

// bind starts the drain goroutine. send is program.Send, which may block
// until the event loop is free; only the drain goroutine ever waits on it.
func (s *programSurface) bind(send func(tea.Msg)) {
	go func() {
		for {
			for {
				s.mu.Lock()
				if len(s.pending) == 0 {
					s.mu.Unlock()
					break
				}
				m := s.pending[0]
				s.pending = s.pending[1:]
				s.mu.Unlock()
				send(m)
			}
			select {
			case <-s.quit:
				return
			case <-s.wake:
			}
		}
	}()
}

func (s *programSurface) post(m tea.Msg) {
	s.mu.Lock()
	s.pending = append(s.pending, m)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// close stops the drain goroutine. Queued messages are dropped; the program
// is exiting anyway.
func (s *programSurface) close() {
	s.once.Do(func() { close(s.quit) })
}

func (s *programSurface) SetTitle(title string)           { s.post(titleMsg(title)) }
func (s *programSurface) SetQuery(text string)            { s.post(queryTextMsg(text)) }
func (s *programSurface) ShowState(st graphview.State)    { s.post(stateMsg(st)) }
func (s *programSurface) ShowJSON(raw string)             { s.post(jsonMsg(raw)) }
func (s *programSurface) ShowStats(text string)           { s.post(statsMsg(text)) }
func (s *programSurface) ShowError(text string)           { s.post(errorTextMsg(text)) }
func (s *programSurface) DisplayGraph(g *graphview.Graph) { s.post(graphMsg(g)) }
func (s *programSurface) ClearGraph()                     { s.post(clearGraphMsg{}) }

var errEmbeddedNeedsController = errors.New("embedded mode requires a session controller")

// Options configures the interactive client.
type Options struct {
	Config config.Config
	// ConfigPath, when set, is watched for changes; physics edits retune
	// the running simulation without a restart.
	ConfigPath string
	// HostURL attaches to a remote session host. Empty runs embedded: the
	// session controller and backend live in this process.
	HostURL string
	// Session, with HostURL, names the session to join on the host.
	Session string
	// Controller, when embedded, handles the host side of the pipe.
	Controller *session.Controller
}

// Run starts the terminal client and blocks until it exits.
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	surface := newProgramSurface()
	defer surface.close()
	initialView := msg.ViewMode(opts.Config.UI.DefaultView)

	view := graphview.NewView(surface, opts.Config.Graph,
		graphview.WithViewMode(initialView))

	// Frame notifications route through the surface so ticks that fire
	// before the program is bound are buffered, not lost.
	renderer := graphview.NewRenderer(opts.Config.Graph.Physics,
		graphview.WithInterval(opts.Config.Graph.TickInterval()),
		graphview.WithFrameNotify(func() { surface.post(frameMsg{}) }),
	)
	defer renderer.Clear()

	model := NewModel(view, renderer, DefaultTheme())
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	surface.bind(program.Send)

	g, gctx := errgroup.WithContext(ctx)

	if opts.HostURL != "" {
		url := opts.HostURL
		if opts.Session != "" {
			url += "?session=" + opts.Session
		}
		client := graphview.NewClient(url, channel.DefaultSettings(), view)
		defer client.Close()
		g.Go(func() error {
			err := client.Run(gctx)
			if err == context.Canceled {
				return nil
			}
			return err
		})
	} else {
		if opts.Controller == nil {
			return errEmbeddedNeedsController
		}
		hostEnd, clientEnd := channel.NewPipe(64)
		defer hostEnd.Close()
		g.Go(func() error {
			opts.Controller.Serve(gctx, hostEnd)
			return nil
		})
		g.Go(func() error {
			err := view.Run(gctx, clientEnd)
			if err == context.Canceled {
				return nil
			}
			return err
		})
	}

	if opts.ConfigPath != "" {
		startConfigReload(gctx, g, opts.ConfigPath, program)
	}

	g.Go(func() error {
		_, err := program.Run()
		cancel()
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		program.Quit()
		return nil
	})

	return g.Wait()
}

// startConfigReload watches the config file and pushes physics changes into
// the running simulation.
func startConfigReload(ctx context.Context, g *errgroup.Group, path string, program *tea.Program) {
	w, err := watcher.NewWatcher(path)
	if err != nil {
		debug.Log("ui: config watch: %v", err)
		return
	}
	if err := w.Start(); err != nil {
		debug.Log("ui: config watch start: %v", err)
		return
	}
	g.Go(func() error {
		defer w.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-w.Changed():
				cfg, err := config.LoadFrom(path)
				if err != nil {
					debug.Log("ui: config reload: %v", err)
					continue
				}
				debug.Event("ui", "config_reloaded", map[string]any{"path": path})
				program.Send(physicsMsg(cfg.Graph.Physics))
			}
		}
	})
}

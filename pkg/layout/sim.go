package layout

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vanderheijden86/graphpane/pkg/metrics"
)

// DefaultTickInterval is the animation cadence.
const DefaultTickInterval = 50 * time.Millisecond

// Simulation runs the layout physics on its own ticker goroutine and hands
// each tick's positions to an observer. At most one tick loop is ever active:
// Start stops any previous loop completely before launching the next, so two
// simulations can never write conflicting coordinates to the same surface.
type Simulation struct {
	lifecycle sync.Mutex // serializes Start/Stop pairs

	mu       sync.Mutex
	cfg      Config
	interval time.Duration
	onTick   func([]Node)

	nodes []Node
	links []Link

	cancel context.CancelFunc
	done   chan struct{}

	loops int32 // active tick loops, for tests and sanity
}

// SimOption configures a Simulation.
type SimOption func(*Simulation)

// WithTickInterval overrides the animation cadence.
func WithTickInterval(d time.Duration) SimOption {
	return func(s *Simulation) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithOnTick registers the per-tick observer. It receives a private copy of
// the node slice, runs on the ticker goroutine, and must not call Stop.
func WithOnTick(fn func([]Node)) SimOption {
	return func(s *Simulation) { s.onTick = fn }
}

// NewSimulation creates a stopped simulation.
func NewSimulation(cfg Config, opts ...SimOption) *Simulation {
	s := &Simulation{
		cfg:      cfg.normalized(),
		interval: DefaultTickInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start replaces the simulation contents and launches the tick loop. Any
// previously running loop is fully stopped first.
func (s *Simulation) Start(nodes []Node, links []Link) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.stop()

	s.mu.Lock()
	s.nodes = make([]Node, len(nodes))
	copy(s.nodes, nodes)
	s.links = make([]Link, len(links))
	copy(s.links, links)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go s.run(ctx, done)
}

// Load replaces the simulation contents without starting the tick loop, for
// synchronous Settle use. Any running loop is stopped first.
func (s *Simulation) Load(nodes []Node, links []Link) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.stop()

	s.mu.Lock()
	s.nodes = make([]Node, len(nodes))
	copy(s.nodes, nodes)
	s.links = make([]Link, len(links))
	copy(s.links, links)
	s.mu.Unlock()
}

// Stop halts the tick loop and waits for it to exit. Safe to call when the
// simulation is not running. Must not be called from the OnTick observer,
// which runs on the loop being stopped.
func (s *Simulation) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.stop()
}

func (s *Simulation) stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether a tick loop is active.
func (s *Simulation) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil
}

// Nodes returns a snapshot of the current positions.
func (s *Simulation) Nodes() []Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// SetConfig swaps the physics constants. The running loop picks them up on
// its next tick; this is how config hot-reload retunes a live view.
func (s *Simulation) SetConfig(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg.normalized()
	s.mu.Unlock()
}

// Pin fixes a node at the given position, as during a drag gesture.
func (s *Simulation) Pin(i int, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.nodes) {
		return
	}
	s.nodes[i].X = x
	s.nodes[i].Y = y
	s.nodes[i].VX = 0
	s.nodes[i].VY = 0
	s.nodes[i].Pinned = true
}

// Unpin releases a previously pinned node back to the physics.
func (s *Simulation) Unpin(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.nodes) {
		return
	}
	s.nodes[i].Pinned = false
}

// Tick advances the simulation one step synchronously and returns the new
// positions. Used by the loop and directly by tests and one-shot export.
func (s *Simulation) Tick() []Node {
	defer metrics.Timer(metrics.LayoutStep)()
	s.mu.Lock()
	s.nodes = Step(s.nodes, s.links, s.cfg, s.cfg.TimeStep)
	out := make([]Node, len(s.nodes))
	copy(out, s.nodes)
	s.mu.Unlock()
	return out
}

// Settle ticks synchronously until kinetic energy drops below threshold or
// maxTicks elapse, for snapshot export. It does not start the tick loop.
func (s *Simulation) Settle(ctx context.Context, maxTicks int, threshold float64) []Node {
	var nodes []Node
	for i := 0; i < maxTicks; i++ {
		if ctx.Err() != nil {
			break
		}
		nodes = s.Tick()
		if KineticEnergy(nodes) < threshold {
			break
		}
	}
	if nodes == nil {
		nodes = s.Nodes()
	}
	return nodes
}

func (s *Simulation) run(ctx context.Context, done chan struct{}) {
	atomic.AddInt32(&s.loops, 1)
	defer atomic.AddInt32(&s.loops, -1)
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			nodes := s.Tick()
			if s.onTick != nil {
				s.onTick(nodes)
			}
		}
	}
}

// activeLoops reports how many tick loops exist right now.
func (s *Simulation) activeLoops() int32 {
	return atomic.LoadInt32(&s.loops)
}

package graphview

import (
	"context"
	"sync"
	"time"

	"github.com/vanderheijden86/graphpane/pkg/layout"
	"github.com/vanderheijden86/graphpane/pkg/metrics"
)

// Renderer owns the layout machinery for one view: the physics simulation,
// the easing animator that smooths between its ticks, and the graph being
// shown. Display replaces all three atomically, so a stale simulation can
// never keep writing positions for a graph that is no longer on screen.
type Renderer struct {
	mu       sync.Mutex
	sim      *layout.Simulation
	anim     layout.Animator
	graph    *Graph
	cfg      layout.Config
	interval time.Duration
	lastTick time.Time
	onFrame  func()
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithFrameNotify registers a callback poked after every simulation tick,
// typically to schedule a redraw. It runs on the ticker goroutine.
func WithFrameNotify(fn func()) RendererOption {
	return func(r *Renderer) { r.onFrame = fn }
}

// WithInterval overrides the tick cadence.
func WithInterval(d time.Duration) RendererOption {
	return func(r *Renderer) {
		if d > 0 {
			r.interval = d
		}
	}
}

// NewRenderer creates a renderer with the given physics constants.
func NewRenderer(cfg layout.Config, opts ...RendererOption) *Renderer {
	r := &Renderer{cfg: cfg, interval: layout.DefaultTickInterval}
	for _, opt := range opts {
		opt(r)
	}
	r.sim = layout.NewSimulation(cfg,
		layout.WithTickInterval(r.interval),
		layout.WithOnTick(r.tick),
	)
	return r
}

// Display seeds starting positions for the graph and starts the simulation.
// Any previous simulation is stopped first.
func (r *Renderer) Display(g *Graph) {
	links := make([]layout.Link, len(g.Links))
	for i, l := range g.Links {
		links[i] = layout.Link{Source: l.Source, Target: l.Target}
	}
	stopSeed := metrics.Timer(metrics.LayoutSeed)
	seeded := layout.Seed(len(g.Nodes), links)
	stopSeed()

	r.sim.Stop()
	r.mu.Lock()
	r.graph = g
	r.anim = layout.Animator{}
	r.anim.Retarget(1, layout.Points(seeded))
	r.lastTick = time.Now()
	r.mu.Unlock()
	r.sim.Start(seeded, links)
}

// Clear stops the simulation and drops the graph.
func (r *Renderer) Clear() {
	r.sim.Stop()
	r.mu.Lock()
	r.graph = nil
	r.anim = layout.Animator{}
	r.mu.Unlock()
}

// Frame returns the graph and its eased node positions for right now.
// Returns a nil graph when nothing is displayed.
func (r *Renderer) Frame() (*Graph, []layout.Point) {
	defer metrics.Timer(metrics.FrameRender)()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.graph == nil {
		return nil, nil
	}
	return r.graph, r.anim.At(r.progressLocked(time.Now()))
}

// Layout runs the physics synchronously to a near-stable state and returns
// the final positions, for one-shot snapshot export. It never starts the
// tick loop and must not be mixed with Display on the same renderer.
func (r *Renderer) Layout(ctx context.Context, g *Graph, maxTicks int, threshold float64) []layout.Node {
	links := make([]layout.Link, len(g.Links))
	for i, l := range g.Links {
		links[i] = layout.Link{Source: l.Source, Target: l.Target}
	}
	r.mu.Lock()
	cfg := r.cfg
	r.mu.Unlock()
	stopSeed := metrics.Timer(metrics.LayoutSeed)
	seeded := layout.Seed(len(g.Nodes), links)
	stopSeed()
	sim := layout.NewSimulation(cfg)
	sim.Load(seeded, links)
	return sim.Settle(ctx, maxTicks, threshold)
}

// Pin fixes a node at a layout-space position during a drag.
func (r *Renderer) Pin(i int, p layout.Point) {
	r.sim.Pin(i, p.X, p.Y)
}

// Unpin hands a dragged node back to the physics.
func (r *Renderer) Unpin(i int) {
	r.sim.Unpin(i)
}

// SetConfig retunes the physics of the running simulation in place, as
// config hot-reload does.
func (r *Renderer) SetConfig(cfg layout.Config) {
	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()
	r.sim.SetConfig(cfg)
}

// Simulation exposes the underlying simulation, mainly for snapshot export
// paths that tick it directly.
func (r *Renderer) Simulation() *layout.Simulation {
	return r.sim
}

func (r *Renderer) tick(nodes []layout.Node) {
	r.mu.Lock()
	now := time.Now()
	r.anim.Retarget(r.progressLocked(now), layout.Points(nodes))
	r.lastTick = now
	notify := r.onFrame
	r.mu.Unlock()
	if notify != nil {
		notify()
	}
}

func (r *Renderer) progressLocked(now time.Time) float64 {
	if r.interval <= 0 {
		return 1
	}
	p := float64(now.Sub(r.lastTick)) / float64(r.interval)
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

// Package layout computes force-directed positions for graph views.
//
// The physics is deliberately small: centripetal gravity toward the origin,
// a soft spring per link, pairwise repulsion between all nodes, and a
// friction factor that bleeds off velocity so the system settles. All
// constants are empirically tuned display knobs and live in Config; nothing
// here reads them from globals.
//
// Step is a pure function over value slices. Callers own the returned slice;
// the input is never mutated. That keeps the physics unit-testable without
// any rendering surface and lets a simulation be replayed deterministically.
package layout

import "math"

// Config holds the tuning constants for one simulation.
type Config struct {
	// Gravity scales the pull toward the origin, proportional to distance.
	Gravity float64 `yaml:"gravity"`
	// Friction multiplies velocities every step; below 1 the system cools.
	Friction float64 `yaml:"friction"`
	// LinkDistance is the rest length of a link's spring.
	LinkDistance float64 `yaml:"link_distance"`
	// LinkStrength is the spring rigidity. Links are a visual hint, not a
	// constraint, so this stays well below 1.
	LinkStrength float64 `yaml:"link_strength"`
	// Charge sets pairwise node force; negative repels.
	Charge float64 `yaml:"charge"`
	// TimeStep is the simulated time advanced per tick.
	TimeStep float64 `yaml:"time_step"`
}

// DefaultConfig returns the tuning that looks right for a few hundred nodes
// on a canvas a few hundred units across.
func DefaultConfig() Config {
	return Config{
		Gravity:      0.05,
		Friction:     0.9,
		LinkDistance: 400,
		LinkStrength: 0.01,
		Charge:       -3000,
		TimeStep:     1,
	}
}

// normalized returns the config with unusable values replaced by defaults so
// a partially filled config file cannot freeze or explode the simulation.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.Friction <= 0 || c.Friction > 1 {
		c.Friction = def.Friction
	}
	if c.Gravity < 0 {
		c.Gravity = def.Gravity
	}
	if c.LinkDistance <= 0 {
		c.LinkDistance = def.LinkDistance
	}
	if c.LinkStrength < 0 {
		c.LinkStrength = def.LinkStrength
	}
	if c.TimeStep <= 0 {
		c.TimeStep = def.TimeStep
	}
	return c
}

// Node is one simulated body. Pinned nodes (dragged by the user) keep their
// position but still push others around.
type Node struct {
	X, Y   float64
	VX, VY float64
	Pinned bool
}

// Link joins two nodes by index into the node slice.
type Link struct {
	Source int
	Target int
}

// Step advances the simulation by dt and returns the new node states. The
// input slices are read-only; links with out-of-range endpoints are ignored.
func Step(nodes []Node, links []Link, cfg Config, dt float64) []Node {
	out := make([]Node, len(nodes))
	copy(out, nodes)
	if len(out) == 0 || dt <= 0 {
		return out
	}
	cfg = cfg.normalized()

	fx := make([]float64, len(out))
	fy := make([]float64, len(out))

	// Pairwise charge. Coincident nodes get a deterministic nudge so the
	// force direction is defined.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			dx := out[j].X - out[i].X
			dy := out[j].Y - out[i].Y
			if dx == 0 && dy == 0 {
				dx = 0.1 * float64(j-i)
				dy = -0.1 * float64(j-i)
			}
			d2 := dx*dx + dy*dy
			d := math.Sqrt(d2)
			f := cfg.Charge / d2
			ux, uy := dx/d, dy/d
			fx[i] += f * ux
			fy[i] += f * uy
			fx[j] -= f * ux
			fy[j] -= f * uy
		}
	}

	// Springs.
	for _, l := range links {
		if l.Source < 0 || l.Source >= len(out) || l.Target < 0 || l.Target >= len(out) || l.Source == l.Target {
			continue
		}
		a, b := &out[l.Source], &out[l.Target]
		dx := b.X - a.X
		dy := b.Y - a.Y
		d := math.Hypot(dx, dy)
		if d == 0 {
			continue
		}
		f := cfg.LinkStrength * (d - cfg.LinkDistance)
		ux, uy := dx/d, dy/d
		fx[l.Source] += f * ux
		fy[l.Source] += f * uy
		fx[l.Target] -= f * ux
		fy[l.Target] -= f * uy
	}

	// Gravity and integration.
	for i := range out {
		if out[i].Pinned {
			out[i].VX = 0
			out[i].VY = 0
			continue
		}
		fx[i] -= out[i].X * cfg.Gravity
		fy[i] -= out[i].Y * cfg.Gravity

		out[i].VX = (out[i].VX + fx[i]*dt) * cfg.Friction
		out[i].VY = (out[i].VY + fy[i]*dt) * cfg.Friction
		out[i].X += out[i].VX * dt
		out[i].Y += out[i].VY * dt
	}
	return out
}

// KineticEnergy sums v² over all nodes, the settledness measure used to
// decide when a snapshot export can stop ticking.
func KineticEnergy(nodes []Node) float64 {
	var ke float64
	for _, n := range nodes {
		ke += n.VX*n.VX + n.VY*n.VY
	}
	return ke
}

package layout

// Point is a display-space coordinate.
type Point struct {
	X, Y float64
}

// EaseOutCubic maps linear progress in [0,1] onto a decelerating curve.
func EaseOutCubic(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	u := 1 - t
	return 1 - u*u*u
}

// Animator smooths the jump between simulation ticks: drawn positions glide
// from where they were toward the latest computed coordinates over one tick
// interval instead of teleporting. Retarget is called with each tick's
// output; At produces the frame for a progress value in [0,1].
type Animator struct {
	from []Point
	to   []Point
}

// Retarget sets new target positions. The current displayed frame (at the
// given progress) becomes the starting point of the next transition, so a
// retarget mid-flight never causes a visual jump.
func (a *Animator) Retarget(progress float64, targets []Point) {
	current := a.At(progress)
	a.from = current
	a.to = make([]Point, len(targets))
	copy(a.to, targets)

	// New nodes appear at their target spot rather than flying in from the
	// origin.
	for i := len(current); i < len(targets); i++ {
		a.from = append(a.from, targets[i])
	}
	a.from = a.from[:len(targets)]
}

// At returns the eased frame for progress in [0,1]. Before any Retarget it
// returns nil.
func (a *Animator) At(progress float64) []Point {
	if a.to == nil {
		return nil
	}
	t := EaseOutCubic(progress)
	out := make([]Point, len(a.to))
	for i := range a.to {
		from := a.to[i]
		if i < len(a.from) {
			from = a.from[i]
		}
		out[i] = Point{
			X: from.X + (a.to[i].X-from.X)*t,
			Y: from.Y + (a.to[i].Y-from.Y)*t,
		}
	}
	return out
}

// Points extracts display points from simulated nodes.
func Points(nodes []Node) []Point {
	out := make([]Point, len(nodes))
	for i, n := range nodes {
		out[i] = Point{X: n.X, Y: n.Y}
	}
	return out
}

package graphview

import "github.com/vanderheijden86/graphpane/pkg/layout"

// Camera maps layout-space coordinates onto a surface viewport. Pan offsets
// are in layout units; Zoom is a multiplier applied before the offset.
type Camera struct {
	OffsetX float64
	OffsetY float64
	Zoom    float64

	gesture    gestureKind
	grabX      float64
	grabY      float64
	dragTarget int
}

type gestureKind int

const (
	gestureNone gestureKind = iota
	gesturePan
	gestureDrag
)

const (
	minZoom = 0.05
	maxZoom = 20.0
)

// NewCamera returns a camera at the origin with unit zoom.
func NewCamera() *Camera {
	return &Camera{Zoom: 1, dragTarget: -1}
}

// Project converts a layout-space point to viewport coordinates.
func (c *Camera) Project(p layout.Point) layout.Point {
	return layout.Point{
		X: p.X*c.Zoom + c.OffsetX,
		Y: p.Y*c.Zoom + c.OffsetY,
	}
}

// Unproject converts viewport coordinates back to layout space.
func (c *Camera) Unproject(x, y float64) layout.Point {
	return layout.Point{
		X: (x - c.OffsetX) / c.Zoom,
		Y: (y - c.OffsetY) / c.Zoom,
	}
}

// ZoomBy scales around the given viewport point. Ignored while a pan or
// drag gesture is in flight so gestures stay mutually exclusive.
func (c *Camera) ZoomBy(factor, aroundX, aroundY float64) {
	if c.gesture != gestureNone {
		return
	}
	next := c.Zoom * factor
	if next < minZoom {
		next = minZoom
	}
	if next > maxZoom {
		next = maxZoom
	}
	if next == c.Zoom {
		return
	}
	anchor := c.Unproject(aroundX, aroundY)
	c.Zoom = next
	c.OffsetX = aroundX - anchor.X*c.Zoom
	c.OffsetY = aroundY - anchor.Y*c.Zoom
}

// BeginPan starts a pan gesture from the given viewport point. It fails if
// another gesture is already active.
func (c *Camera) BeginPan(x, y float64) bool {
	if c.gesture != gestureNone {
		return false
	}
	c.gesture = gesturePan
	c.grabX = x
	c.grabY = y
	return true
}

// BeginDrag starts dragging the node with the given index. It fails if
// another gesture is already active.
func (c *Camera) BeginDrag(node int, x, y float64) bool {
	if c.gesture != gestureNone || node < 0 {
		return false
	}
	c.gesture = gestureDrag
	c.dragTarget = node
	c.grabX = x
	c.grabY = y
	return true
}

// Dragging returns the node index being dragged, or -1.
func (c *Camera) Dragging() int {
	if c.gesture != gestureDrag {
		return -1
	}
	return c.dragTarget
}

// Move advances the active gesture to a new viewport point. For a pan it
// shifts the camera and returns no target. For a drag it returns the node
// index and the node's new layout-space position.
func (c *Camera) Move(x, y float64) (node int, pos layout.Point, moved bool) {
	switch c.gesture {
	case gesturePan:
		c.OffsetX += x - c.grabX
		c.OffsetY += y - c.grabY
		c.grabX = x
		c.grabY = y
		return -1, layout.Point{}, true
	case gestureDrag:
		c.grabX = x
		c.grabY = y
		return c.dragTarget, c.Unproject(x, y), true
	default:
		return -1, layout.Point{}, false
	}
}

// End finishes whatever gesture is active.
func (c *Camera) End() {
	c.gesture = gestureNone
	c.dragTarget = -1
}

// Active reports whether any gesture is in flight.
func (c *Camera) Active() bool {
	return c.gesture != gestureNone
}

// Reset recenters the camera at unit zoom.
func (c *Camera) Reset() {
	c.OffsetX = 0
	c.OffsetY = 0
	c.Zoom = 1
	c.End()
}

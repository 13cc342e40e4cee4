package ui

import (
	"math"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/graphpane/pkg/graphview"
	"github.com/vanderheijden86/graphpane/pkg/layout"
)

// Terminal cells are roughly twice as tall as wide; rows are compressed so
// circles in layout space still look like circles on screen.
const cellAspect = 0.55

const (
	cellEmpty = iota
	cellEdge
	cellNode
	cellLabel
)

// Canvas rasterizes a laid-out graph into styled terminal rows.
type Canvas struct {
	width  int
	height int
	runes  [][]rune
	kinds  [][]uint8
}

// NewCanvas allocates a canvas of the given cell size.
func NewCanvas(width, height int) *Canvas {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	c := &Canvas{width: width, height: height}
	c.runes = make([][]rune, height)
	c.kinds = make([][]uint8, height)
	for y := range c.runes {
		c.runes[y] = make([]rune, width)
		c.kinds[y] = make([]uint8, width)
		for x := range c.runes[y] {
			c.runes[y][x] = ' '
		}
	}
	return c
}

// CellFor maps a layout-space point through the camera into cell coordinates.
func CellFor(cam *graphview.Camera, p layout.Point) (col, row int) {
	q := cam.Project(p)
	return int(math.Round(q.X)), int(math.Round(q.Y * cellAspect))
}

// PointFor maps cell coordinates back into layout space.
func PointFor(cam *graphview.Camera, col, row int) layout.Point {
	return cam.Unproject(float64(col), float64(row)/cellAspect)
}

// NodeAt returns the index of the node rendered nearest the given cell, or
// -1 if none is within reach. Used to decide between a drag and a pan.
func NodeAt(cam *graphview.Camera, points []layout.Point, col, row int) int {
	const reach = 2.0
	best := -1
	bestDist := math.Inf(1)
	for i, p := range points {
		nc, nr := CellFor(cam, p)
		d := math.Hypot(float64(nc-col), float64(nr-row))
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	if bestDist > reach {
		return -1
	}
	return best
}

// Draw rasterizes the graph at the given positions. Edges are drawn first so
// nodes and labels paint over them.
func (c *Canvas) Draw(g *graphview.Graph, points []layout.Point, cam *graphview.Camera) {
	if g == nil || len(points) < len(g.Nodes) {
		return
	}
	for _, l := range g.Links {
		x1, y1 := CellFor(cam, points[l.Source])
		x2, y2 := CellFor(cam, points[l.Target])
		c.line(x1, y1, x2, y2)
	}
	for i, n := range g.Nodes {
		col, row := CellFor(cam, points[i])
		c.set(col, row, '●', cellNode)
		c.label(col+2, row, n.Vertex.Label())
	}
}

// Render produces the styled terminal rows.
func (c *Canvas) Render(t Theme) string {
	var b strings.Builder
	for y := 0; y < c.height; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		// Group runs of identically styled cells to keep the escape-code
		// volume down.
		x := 0
		for x < c.width {
			kind := c.kinds[y][x]
			start := x
			for x < c.width && c.kinds[y][x] == kind {
				x++
			}
			run := string(c.runes[y][start:x])
			switch kind {
			case cellNode:
				b.WriteString(t.Vertex.Render(run))
			case cellEdge:
				b.WriteString(t.Edge.Render(run))
			case cellLabel:
				b.WriteString(t.Label.Render(run))
			default:
				b.WriteString(run)
			}
		}
	}
	return b.String()
}

func (c *Canvas) set(x, y int, r rune, kind uint8) {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return
	}
	c.runes[y][x] = r
	c.kinds[y][x] = kind
}

func (c *Canvas) label(x, y int, text string) {
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if x >= c.width {
			return
		}
		c.set(x, y, r, cellLabel)
		x += w
	}
}

// line walks cells between two points. Plain Bresenham; the glyph hints at
// the segment's direction.
func (c *Canvas) line(x1, y1, x2, y2 int) {
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}
	glyph := '·'
	switch {
	case dy == 0:
		glyph = '─'
	case dx == 0:
		glyph = '│'
	}
	err := dx + dy
	x, y := x1, y1
	for {
		if c.inBounds(x, y) && c.kinds[y][x] == cellEmpty {
			c.set(x, y, glyph, cellEdge)
		}
		if x == x2 && y == y2 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func (c *Canvas) inBounds(x, y int) bool {
	return x >= 0 && x < c.width && y >= 0 && y < c.height
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

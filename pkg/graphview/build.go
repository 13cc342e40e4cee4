// Package graphview is the render-client side of the graph protocol: it
// correlates replies with the query that asked for them, partitions results
// into vertices and edges, applies the display caps, and drives whatever
// surface is attached (terminal canvas, snapshot renderer). It has no
// opinion about pixels; surfaces do the drawing.
package graphview

import (
	"fmt"

	"github.com/vanderheijden86/graphpane/pkg/debug"
	"github.com/vanderheijden86/graphpane/pkg/graph"
	"github.com/vanderheijden86/graphpane/pkg/metrics"
)

// Node is one displayable vertex. Index is the node's position in the
// Graph's slice, which is also its index in the layout simulation.
type Node struct {
	Vertex graph.Record
	Index  int
}

// Link joins two nodes by index. A Link exists only if both endpoints
// survived the vertex cap; edges never dangle.
type Link struct {
	Edge   graph.Record
	Source int
	Target int
}

// Stats records how much of the result set is actually displayed.
type Stats struct {
	ShownVertices int
	TotalVertices int
	ShownEdges    int
	TotalEdges    int
}

// Truncated reports whether either axis was cut.
func (s Stats) Truncated() bool {
	return s.ShownVertices < s.TotalVertices || s.ShownEdges < s.TotalEdges
}

// String renders the user-visible stats line. Full counts appear only when
// nothing was truncated on either axis.
func (s Stats) String() string {
	if !s.Truncated() {
		return fmt.Sprintf("Displaying all %d vertices and %d edges", s.ShownVertices, s.ShownEdges)
	}
	return fmt.Sprintf("Displaying %d of %d vertices and %d of %d edges",
		s.ShownVertices, s.TotalVertices, s.ShownEdges, s.TotalEdges)
}

// Graph is the capped, resolved structure handed to a surface for layout.
type Graph struct {
	Nodes []Node
	Links []Link
	Stats Stats
}

// Build caps the vertex list, resolves each edge's endpoints against the
// surviving vertices, and caps the resolved links. Vertex truncation is
// earliest-first; the edge cap applies after endpoint resolution so it only
// counts edges that could actually be drawn. Edges referencing a truncated
// or absent vertex are dropped silently.
func Build(vertices, edges []graph.Record, maxVertices, maxEdges int) *Graph {
	defer metrics.Timer(metrics.GraphBuild)()

	if maxVertices <= 0 {
		maxVertices = 1
	}
	if maxEdges <= 0 {
		maxEdges = 1
	}

	g := &Graph{
		Stats: Stats{
			TotalVertices: len(vertices),
			TotalEdges:    len(edges),
		},
	}

	shown := vertices
	if len(shown) > maxVertices {
		shown = shown[:maxVertices]
	}

	index := make(map[string]int, len(shown))
	g.Nodes = make([]Node, len(shown))
	for i := range shown {
		g.Nodes[i] = Node{Vertex: shown[i], Index: i}
		index[shown[i].ID()] = i
	}
	g.Stats.ShownVertices = len(g.Nodes)

	dropped := 0
	for i := range edges {
		src, okSrc := index[edges[i].OutV()]
		dst, okDst := index[edges[i].InV()]
		if !okSrc || !okDst {
			dropped++
			continue
		}
		if len(g.Links) >= maxEdges {
			continue
		}
		g.Links = append(g.Links, Link{Edge: edges[i], Source: src, Target: dst})
	}
	g.Stats.ShownEdges = len(g.Links)

	if dropped > 0 || g.Stats.Truncated() {
		debug.Event("graphview", "graph_capped", map[string]any{
			"vertices":       g.Stats.ShownVertices,
			"totalVertices":  g.Stats.TotalVertices,
			"links":          g.Stats.ShownEdges,
			"totalEdges":     g.Stats.TotalEdges,
			"danglingEdges":  dropped,
			"uniqueVertices": graph.UniqueIDCount(vertices),
		})
	}
	return g
}

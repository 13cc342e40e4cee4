// Package testutil provides test fixture generators for various graph topologies.
// All generators produce deterministic output for reproducible tests.
package testutil

import (
	"fmt"
	"math/rand"

	"github.com/vanderheijden86/graphpane/pkg/graph"
)

// GraphFixture represents an abstract graph for testing.
// This is the format used by testdata/graphs/*.json files.
type GraphFixture struct {
	Description string     `json:"description"`
	Nodes       []string   `json:"nodes"`
	Edges       [][2]int   `json:"edges"` // [from_idx, to_idx]
	Properties  Properties `json:"properties,omitempty"`
}

// Properties holds optional metadata about the fixture.
type Properties struct {
	HasCycles   bool `json:"has_cycles,omitempty"`
	IsConnected bool `json:"is_connected,omitempty"`
	Components  int  `json:"components,omitempty"`
}

// GeneratorConfig controls fixture generation.
type GeneratorConfig struct {
	Seed     int64  // Random seed for determinism (0 = 42)
	IDPrefix string // Prefix for vertex IDs (default: "v")
	// IncludeLabels adds a "label" property to generated vertices.
	IncludeLabels bool
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:     42, // Deterministic
		IDPrefix: "v",
	}
}

// Generator creates test fixtures with various topologies.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "v"
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// ============================================================================
// Graph Topology Generators
// ============================================================================

// Chain creates a linear chain: n0 -> n1 -> n2 -> ... -> n{size-1}.
func (g *Generator) Chain(size int) GraphFixture {
	nodes := make([]string, size)
	edges := make([][2]int, 0, size-1)

	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
		if i > 0 {
			edges = append(edges, [2]int{i - 1, i})
		}
	}

	return GraphFixture{
		Description: fmt.Sprintf("Linear chain of %d nodes", size),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			IsConnected: true,
			Components:  1,
		},
	}
}

// Star creates a star topology: every spoke points to a central hub (n0).
func (g *Generator) Star(spokes int) GraphFixture {
	size := spokes + 1
	nodes := make([]string, size)
	edges := make([][2]int, 0, spokes)

	nodes[0] = "hub"
	for i := 1; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
		edges = append(edges, [2]int{i, 0})
	}

	return GraphFixture{
		Description: fmt.Sprintf("Star with %d spokes pointing to hub", spokes),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			IsConnected: true,
			Components:  1,
		},
	}
}

// Diamond creates a diamond: source -> {m0..m{width-1}} -> sink.
func (g *Generator) Diamond(width int) GraphFixture {
	nodes := make([]string, 0, width+2)
	edges := make([][2]int, 0, 2*width)

	nodes = append(nodes, "source")
	for i := 0; i < width; i++ {
		nodes = append(nodes, fmt.Sprintf("m%d", i))
	}
	nodes = append(nodes, "sink")
	sink := width + 1

	for i := 1; i <= width; i++ {
		edges = append(edges, [2]int{0, i})
		edges = append(edges, [2]int{i, sink})
	}

	return GraphFixture{
		Description: fmt.Sprintf("Diamond with %d middle nodes", width),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			IsConnected: true,
			Components:  1,
		},
	}
}

// Cycle creates a directed cycle: n0 -> n1 -> ... -> n0.
func (g *Generator) Cycle(size int) GraphFixture {
	nodes := make([]string, size)
	edges := make([][2]int, 0, size)

	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
		edges = append(edges, [2]int{i, (i + 1) % size})
	}

	return GraphFixture{
		Description: fmt.Sprintf("Cycle of %d nodes", size),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			HasCycles:   true,
			IsConnected: true,
			Components:  1,
		},
	}
}

// Tree creates a complete tree of the given depth and branching factor,
// with edges pointing from parent to child.
func (g *Generator) Tree(depth, breadth int) GraphFixture {
	var nodes []string
	var edges [][2]int

	nodes = append(nodes, "root")
	level := []int{0}

	for d := 1; d <= depth; d++ {
		var next []int
		for _, parent := range level {
			for b := 0; b < breadth; b++ {
				idx := len(nodes)
				nodes = append(nodes, fmt.Sprintf("n%d_%d", d, len(next)))
				edges = append(edges, [2]int{parent, idx})
				next = append(next, idx)
			}
		}
		level = next
	}

	return GraphFixture{
		Description: fmt.Sprintf("Tree depth %d breadth %d", depth, breadth),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			IsConnected: true,
			Components:  1,
		},
	}
}

// Disconnected creates several chain components with no edges between them.
func (g *Generator) Disconnected(components, componentSize int) GraphFixture {
	var nodes []string
	var edges [][2]int

	for c := 0; c < components; c++ {
		base := len(nodes)
		for i := 0; i < componentSize; i++ {
			nodes = append(nodes, fmt.Sprintf("c%d_n%d", c, i))
			if i > 0 {
				edges = append(edges, [2]int{base + i - 1, base + i})
			}
		}
	}

	return GraphFixture{
		Description: fmt.Sprintf("%d disconnected chains of %d nodes", components, componentSize),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			IsConnected: components <= 1,
			Components:  components,
		},
	}
}

// Complete creates a complete directed graph: an edge i -> j for every i < j.
func (g *Generator) Complete(size int) GraphFixture {
	nodes := make([]string, size)
	var edges [][2]int

	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
		for j := i + 1; j < size; j++ {
			edges = append(edges, [2]int{i, j})
		}
	}

	return GraphFixture{
		Description: fmt.Sprintf("Complete graph of %d nodes", size),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			IsConnected: true,
			Components:  1,
		},
	}
}

// RandomDAG creates a random DAG where each node may link to earlier nodes
// with the given density. Deterministic for a fixed seed.
func (g *Generator) RandomDAG(size int, density float64) GraphFixture {
	nodes := make([]string, size)
	var edges [][2]int

	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
		for j := 0; j < i; j++ {
			if g.rng.Float64() < density {
				edges = append(edges, [2]int{j, i})
			}
		}
	}

	return GraphFixture{
		Description: fmt.Sprintf("Random DAG of %d nodes, density %.2f", size, density),
		Nodes:       nodes,
		Edges:       edges,
	}
}

// ============================================================================
// Record conversion
// ============================================================================

// ToRecords converts a fixture into a primary result set: all vertices
// followed by all edges, the shape a graph query typically returns.
func (g *Generator) ToRecords(gf GraphFixture) []graph.Record {
	records := make([]graph.Record, 0, len(gf.Nodes)+len(gf.Edges))
	for _, name := range gf.Nodes {
		v := graph.NewVertex(g.cfg.IDPrefix + "-" + name)
		if g.cfg.IncludeLabels {
			_ = v.SetProperty("label", name)
		}
		records = append(records, v)
	}
	for i, e := range gf.Edges {
		from := g.cfg.IDPrefix + "-" + gf.Nodes[e[0]]
		to := g.cfg.IDPrefix + "-" + gf.Nodes[e[1]]
		records = append(records, graph.NewEdge(fmt.Sprintf("%s-e%d", g.cfg.IDPrefix, i), from, to))
	}
	return records
}

// ToEdgeRecords converts only the fixture's edges, for out-of-band edge
// lists.
func (g *Generator) ToEdgeRecords(gf GraphFixture) []graph.Record {
	records := make([]graph.Record, 0, len(gf.Edges))
	for i, e := range gf.Edges {
		from := g.cfg.IDPrefix + "-" + gf.Nodes[e[0]]
		to := g.cfg.IDPrefix + "-" + gf.Nodes[e[1]]
		records = append(records, graph.NewEdge(fmt.Sprintf("%s-e%d", g.cfg.IDPrefix, i), from, to))
	}
	return records
}

// ============================================================================
// Quick helpers for common cases
// ============================================================================

// QuickChain generates a chain as records with default config.
func QuickChain(size int) []graph.Record {
	g := NewDefault()
	return g.ToRecords(g.Chain(size))
}

// QuickStar generates a star as records with default config.
func QuickStar(spokes int) []graph.Record {
	g := NewDefault()
	return g.ToRecords(g.Star(spokes))
}

// QuickDiamond generates a diamond as records with default config.
func QuickDiamond(width int) []graph.Record {
	g := NewDefault()
	return g.ToRecords(g.Diamond(width))
}

// QuickCycle generates a cycle as records with default config.
func QuickCycle(size int) []graph.Record {
	g := NewDefault()
	return g.ToRecords(g.Cycle(size))
}

// QuickDisconnected generates disconnected chains as records.
func QuickDisconnected(components, size int) []graph.Record {
	g := NewDefault()
	return g.ToRecords(g.Disconnected(components, size))
}

// Vertices generates n bare vertices v-0 .. v-{n-1} with no edges.
func Vertices(n int) []graph.Record {
	records := make([]graph.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, graph.NewVertex(fmt.Sprintf("v-%d", i)))
	}
	return records
}

// Empty returns an empty record set.
func Empty() []graph.Record {
	return []graph.Record{}
}

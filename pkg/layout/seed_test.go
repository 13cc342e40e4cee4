package layout

import (
	"math"
	"testing"
)

func TestSeedDeterministic(t *testing.T) {
	links := []Link{{Source: 0, Target: 1}, {Source: 2, Target: 3}}
	a := Seed(6, links)
	b := Seed(6, links)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("seed not deterministic at node %d: %+v != %+v", i, a[i], b[i])
		}
	}
}

func TestSeedCounts(t *testing.T) {
	if got := len(Seed(0, nil)); got != 0 {
		t.Errorf("expected 0 nodes, got %d", got)
	}
	single := Seed(1, nil)
	if len(single) != 1 || single[0].X != 0 || single[0].Y != 0 {
		t.Errorf("expected lone node at origin, got %+v", single)
	}
	if got := len(Seed(7, nil)); got != 7 {
		t.Errorf("expected 7 nodes, got %d", got)
	}
}

func TestSeedSpreadsNodes(t *testing.T) {
	nodes := Seed(5, []Link{{Source: 0, Target: 1}, {Source: 1, Target: 2}, {Source: 3, Target: 4}})
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			if nodes[i].X == nodes[j].X && nodes[i].Y == nodes[j].Y {
				t.Errorf("nodes %d and %d seeded at the same point (%f, %f)", i, j, nodes[i].X, nodes[i].Y)
			}
		}
	}
}

func TestSeedSeparatesComponents(t *testing.T) {
	// Two components of two nodes each.
	nodes := Seed(4, []Link{{Source: 0, Target: 1}, {Source: 2, Target: 3}})

	centerOf := func(i, j int) (float64, float64) {
		return (nodes[i].X + nodes[j].X) / 2, (nodes[i].Y + nodes[j].Y) / 2
	}
	ax, ay := centerOf(0, 1)
	bx, by := centerOf(2, 3)

	if math.Hypot(ax-bx, ay-by) < 50 {
		t.Errorf("expected component centers apart, got (%f,%f) vs (%f,%f)", ax, ay, bx, by)
	}
}

func TestSeedIgnoresBadLinks(t *testing.T) {
	nodes := Seed(3, []Link{{Source: -1, Target: 0}, {Source: 0, Target: 9}, {Source: 1, Target: 1}})
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(nodes))
	}
	for i, n := range nodes {
		if math.IsNaN(n.X) || math.IsNaN(n.Y) {
			t.Errorf("node %d seeded at NaN", i)
		}
	}
}

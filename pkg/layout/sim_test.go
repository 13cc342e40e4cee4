package layout

import (
	"context"
	"testing"
	"time"

	"github.com/vanderheijden86/graphpane/pkg/metrics"
)

func waitForTicks(t *testing.T, ch <-chan []Node, n int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-deadline:
			t.Fatalf("timed out waiting for tick %d of %d", i+1, n)
		}
	}
}

func TestSimulationStartStop(t *testing.T) {
	ticks := make(chan []Node, 64)
	sim := NewSimulation(DefaultConfig(),
		WithTickInterval(2*time.Millisecond),
		WithOnTick(func(nodes []Node) {
			select {
			case ticks <- nodes:
			default:
			}
		}),
	)

	sim.Start([]Node{{X: 10}, {X: -10}}, []Link{{Source: 0, Target: 1}})
	if !sim.Running() {
		t.Fatal("expected simulation to be running")
	}
	waitForTicks(t, ticks, 3)

	sim.Stop()
	if sim.Running() {
		t.Error("expected simulation stopped")
	}
	if got := sim.activeLoops(); got != 0 {
		t.Errorf("expected 0 active loops after stop, got %d", got)
	}
}

func TestSecondStartLeavesExactlyOneSimulation(t *testing.T) {
	sim := NewSimulation(DefaultConfig(), WithTickInterval(2*time.Millisecond))

	sim.Start([]Node{{X: 1}}, nil)
	sim.Start([]Node{{X: 2}, {X: 3}}, nil)
	defer sim.Stop()

	// The restart is synchronous: by the time Start returns, the old loop
	// has fully exited and exactly one loop is live.
	if got := sim.activeLoops(); got != 1 {
		t.Fatalf("expected exactly 1 active loop, got %d", got)
	}
	if got := len(sim.Nodes()); got != 2 {
		t.Errorf("expected restarted contents (2 nodes), got %d", got)
	}
}

func TestStopWithoutStart(t *testing.T) {
	sim := NewSimulation(DefaultConfig())
	sim.Stop() // must not panic or hang
	sim.Stop()
	if sim.Running() {
		t.Error("expected not running")
	}
}

func TestTickAdvancesNodes(t *testing.T) {
	sim := NewSimulation(DefaultConfig())
	sim.Start([]Node{{X: 200}}, nil)
	sim.Stop()

	before := sim.Nodes()[0]
	after := sim.Tick()[0]
	if before == after {
		t.Error("expected tick to move the node")
	}
}

func TestSettleReducesKineticEnergy(t *testing.T) {
	sim := NewSimulation(DefaultConfig())
	seed := Seed(5, []Link{{Source: 0, Target: 1}, {Source: 1, Target: 2}})
	sim.Start(seed, []Link{{Source: 0, Target: 1}, {Source: 1, Target: 2}})
	sim.Stop()

	nodes := sim.Settle(context.Background(), 2000, 0.5)
	if len(nodes) != 5 {
		t.Fatalf("expected 5 nodes, got %d", len(nodes))
	}
	if ke := KineticEnergy(nodes); ke >= 100 {
		t.Errorf("expected settled layout, kinetic energy still %f", ke)
	}
}

func TestSettleHonorsContext(t *testing.T) {
	sim := NewSimulation(DefaultConfig())
	sim.Start([]Node{{X: 500}, {X: -500}}, nil)
	sim.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	nodes := sim.Settle(ctx, 100000, 0)
	if len(nodes) != 2 {
		t.Fatalf("expected node snapshot even when cancelled, got %d nodes", len(nodes))
	}
}

func TestPinUnpin(t *testing.T) {
	sim := NewSimulation(DefaultConfig())
	sim.Start([]Node{{X: 100}, {X: -100}}, nil)
	sim.Stop()

	sim.Pin(0, 42, 24)
	nodes := sim.Tick()
	if nodes[0].X != 42 || nodes[0].Y != 24 {
		t.Errorf("pinned node moved: (%f, %f)", nodes[0].X, nodes[0].Y)
	}

	sim.Unpin(0)
	nodes = sim.Tick()
	if nodes[0].X == 42 && nodes[0].Y == 24 {
		t.Error("expected unpinned node to move again")
	}

	// Out-of-range indexes are ignored.
	sim.Pin(99, 0, 0)
	sim.Unpin(-1)
}

func TestSetConfigTakesEffect(t *testing.T) {
	sim := NewSimulation(DefaultConfig())
	sim.Start([]Node{{X: 100}}, nil)
	sim.Stop()

	frozen := DefaultConfig()
	frozen.Gravity = 0
	frozen.Charge = 0
	sim.SetConfig(frozen)

	before := sim.Nodes()[0]
	after := sim.Tick()[0]
	if before.X != after.X || before.Y != after.Y {
		t.Errorf("expected forceless config to hold node still, moved to (%f, %f)", after.X, after.Y)
	}
}

func TestTickRecordsStepTiming(t *testing.T) {
	metrics.LayoutStep.Reset()

	sim := NewSimulation(DefaultConfig())
	sim.Load([]Node{{X: 1}, {X: -1}}, nil)
	sim.Tick()
	sim.Tick()

	if got := metrics.LayoutStep.Count(); got != 2 {
		t.Errorf("layout_step count = %d, want 2", got)
	}
}

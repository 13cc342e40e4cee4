package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/graphpane/pkg/config"
	"github.com/vanderheijden86/graphpane/pkg/graph"
	"github.com/vanderheijden86/graphpane/pkg/testutil"
)

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func fileConfig(path string, latencyMs int) config.Config {
	cfg := config.DefaultConfig()
	cfg.Backend.Kind = "file"
	cfg.Backend.FixturePath = path
	cfg.Backend.LatencyMs = latencyMs
	return cfg
}

func TestFileExecutorArrayFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chain.json")
	testutil.WriteRecordsFile(t, path, testutil.QuickChain(3))

	exec, err := OpenFile(fileConfig(path, 0))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer exec.Close(context.Background())

	records, edges, err := exec.Execute(context.Background(), "g.V()")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	testutil.AssertRecordCount(t, records, 5)
	if len(edges) != 0 {
		t.Errorf("array fixture should have no out-of-band edges, got %d", len(edges))
	}
}

func TestFileExecutorWrappedFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrapped.json")
	gen := testutil.NewDefault()
	fixture := gen.Star(4)

	content := struct {
		QueryResults any `json:"queryResults"`
		EdgeResults  any `json:"edgeResults"`
	}{
		QueryResults: gen.ToRecords(fixture),
		EdgeResults:  gen.ToEdgeRecords(fixture),
	}
	writeJSON(t, path, content)

	exec, err := OpenFile(fileConfig(path, 0))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	records, edges, err := exec.Execute(context.Background(), "g.V()")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	testutil.AssertRecordCount(t, records, 9) // 5 vertices + 4 edges
	testutil.AssertRecordCount(t, edges, 4)
}

// Value-projecting queries produce scalar results, so fixtures captured from
// them contain bare strings and numbers alongside objects. Those must load as
// projection records, not fail the parse.
func TestFileExecutorScalarElements(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counts.json")
	if err := os.WriteFile(path, []byte(`["SEA", 42, {"type": "vertex", "id": "v1"}]`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	exec, err := OpenFile(fileConfig(path, 0))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	records, _, err := exec.Execute(context.Background(), "g.V().values('code')")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	testutil.AssertRecordCount(t, records, 3)

	for i, want := range []string{`"SEA"`, `42`} {
		if records[i].Kind() != graph.KindOther {
			t.Errorf("record %d kind = %v, want KindOther", i, records[i].Kind())
		}
		raw, ok := records[i].Properties().Get("value")
		if !ok {
			t.Fatalf("record %d has no value property", i)
		}
		if string(raw) != want {
			t.Errorf("record %d value = %s, want %s", i, raw, want)
		}
	}
	if !records[2].IsVertex() {
		t.Errorf("object element should stay a vertex, got kind %v", records[2].Kind())
	}
}

func TestFileExecutorEmptyQueryFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.json")
	testutil.WriteRecordsFile(t, path, testutil.Vertices(1))

	exec, err := OpenFile(fileConfig(path, 0))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	_, _, err = exec.Execute(context.Background(), "   ")
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ExecError, got %v", err)
	}
}

func TestFileExecutorLatencyHonorsContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slow.json")
	testutil.WriteRecordsFile(t, path, testutil.Vertices(1))

	exec, err := OpenFile(fileConfig(path, 5000))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _, err = exec.Execute(ctx, "g.V()")
	if err == nil {
		t.Fatal("expected context error")
	}
	if time.Since(start) > time.Second {
		t.Error("execute did not return promptly on cancellation")
	}
}

func TestFileExecutorMissingFixture(t *testing.T) {
	if _, err := OpenFile(fileConfig(filepath.Join(t.TempDir(), "absent.json"), 0)); err == nil {
		t.Error("expected error for missing fixture")
	}
}

func TestFileExecutorTitle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "airports.json")
	testutil.WriteRecordsFile(t, path, testutil.Vertices(1))

	exec, err := OpenFile(fileConfig(path, 0))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if exec.Title() != "airports" {
		t.Errorf("title = %q, want airports", exec.Title())
	}
}

func TestOpenUnknownKind(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Backend.Kind = "dynamodb"
	if _, err := Open(context.Background(), cfg); err == nil {
		t.Error("expected error for unknown backend kind")
	}
}

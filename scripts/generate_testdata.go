//go:build ignore

// generate_testdata.go creates standard record fixtures for the file backend
// and for benchmarking.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//   testdata/fixtures/small.json    (100 vertices)
//   testdata/fixtures/medium.json   (1000 vertices)
//   testdata/fixtures/capped.json   (350 vertices, past the display cap)
//   testdata/fixtures/clusters.json (disconnected components)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/graphpane/pkg/testutil"
)

type datasetSpec struct {
	name string
	size int
	desc string
	gen  func(g *testutil.Generator, size int) testutil.GraphFixture
}

func randomDAG(g *testutil.Generator, size int) testutil.GraphFixture {
	return g.RandomDAG(size, calculateDensity(size))
}

var datasets = []datasetSpec{
	{"small", 100, "100 vertices - sparse random DAG with ~10% edge density", randomDAG},
	{"medium", 1000, "1000 vertices - sparse random DAG with ~5% edge density", randomDAG},
	{"capped", 350, "350 vertices - enough to trip the vertex display cap", randomDAG},
	{"clusters", 72, "6 disconnected chains of 12 vertices", func(g *testutil.Generator, _ int) testutil.GraphFixture {
		return g.Disconnected(6, 12)
	}},
}

func main() {
	outputDir := "testdata/fixtures"
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s dataset (%d vertices)...\n", ds.name, ds.size)

		cfg := testutil.GeneratorConfig{
			Seed:          int64(ds.size), // Reproducible per-size
			IDPrefix:      ds.name,
			IncludeLabels: true,
		}

		gen := testutil.New(cfg)
		gf := ds.gen(gen, ds.size)

		// Bare-array shape: vertices followed by edges in one result set.
		records := gen.ToRecords(gf)

		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode %s: %v\n", ds.name, err)
			os.Exit(1)
		}

		outputPath := filepath.Join(outputDir, ds.name+".json")
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
			os.Exit(1)
		}

		fmt.Printf("  Written %s (%d bytes, %d edges) - %s\n", outputPath, len(data), len(gf.Edges), ds.desc)
	}

	fmt.Println("\nDone! Fixtures created in", outputDir)
}

func calculateDensity(size int) float64 {
	// Keep edge counts reasonable as vertex counts grow.
	switch {
	case size <= 100:
		return 0.1
	case size <= 500:
		return 0.05
	default:
		return 0.02
	}
}

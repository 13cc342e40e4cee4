package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/graphpane/pkg/graph"
)

// AssertRecordCount verifies the expected number of records.
func AssertRecordCount(t *testing.T, records []graph.Record, expected int) {
	t.Helper()
	if len(records) != expected {
		t.Errorf("expected %d records, got %d", expected, len(records))
	}
}

// AssertNoDuplicateIDs verifies all record IDs are unique.
func AssertNoDuplicateIDs(t *testing.T, records []graph.Record) {
	t.Helper()
	seen := make(map[string]bool)
	for i := range records {
		id := records[i].ID()
		if id == "" {
			continue
		}
		if seen[id] {
			t.Errorf("duplicate record ID: %s", id)
		}
		seen[id] = true
	}
}

// AssertVertexIDs verifies the vertex ids present in records, in order.
func AssertVertexIDs(t *testing.T, records []graph.Record, want ...string) {
	t.Helper()
	var got []string
	for i := range records {
		if records[i].IsVertex() {
			got = append(got, records[i].ID())
		}
	}
	if len(got) != len(want) {
		t.Fatalf("vertex ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("vertex id[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// AssertEdgeEndpoints verifies that an edge with the given id runs outV -> inV.
func AssertEdgeEndpoints(t *testing.T, records []graph.Record, id, outV, inV string) {
	t.Helper()
	for i := range records {
		if records[i].IsEdge() && records[i].ID() == id {
			if records[i].OutV() != outV || records[i].InV() != inV {
				t.Errorf("edge %s runs %s -> %s, want %s -> %s",
					id, records[i].OutV(), records[i].InV(), outV, inV)
			}
			return
		}
	}
	t.Errorf("edge %s not found", id)
}

// AssertJSONEqual verifies two values marshal to the same JSON.
func AssertJSONEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	exp, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected value: %v", err)
	}
	act, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual value: %v", err)
	}
	if string(exp) != string(act) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", exp, act)
	}
}

// GoldenFile compares test output against a checked-in reference file.
type GoldenFile struct {
	t      *testing.T
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper.
// If GENERATE_GOLDEN env var is set, golden files will be updated.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		dir:    dir,
		name:   name,
		update: os.Getenv("GENERATE_GOLDEN") != "",
	}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file.
// If GENERATE_GOLDEN is set, updates the golden file instead.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()

	path := g.Path()

	if g.update {
		if err := os.MkdirAll(g.dir, 0755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with GENERATE_GOLDEN=1 to create it", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}

	if string(expected) != actual {
		// Find first difference for helpful error message
		expectedLines := strings.Split(string(expected), "\n")
		actualLines := strings.Split(actual, "\n")

		for i := 0; i < len(expectedLines) || i < len(actualLines); i++ {
			var expLine, actLine string
			if i < len(expectedLines) {
				expLine = expectedLines[i]
			}
			if i < len(actualLines) {
				actLine = actualLines[i]
			}
			if expLine != actLine {
				g.t.Errorf("golden file mismatch at line %d:\nexpected: %s\nactual:   %s",
					i+1, expLine, actLine)
				return
			}
		}
		g.t.Errorf("golden file mismatch (length differs)")
	}
}

// AssertJSON compares actual value as JSON against the golden file.
func (g *GoldenFile) AssertJSON(actual interface{}) {
	g.t.Helper()

	data, err := json.MarshalIndent(actual, "", "  ")
	if err != nil {
		g.t.Fatalf("failed to marshal actual value: %v", err)
	}

	g.Assert(string(data))
}

// WriteRecordsFile writes records as a JSON array to path, creating parent
// directories. Used to stage fixtures for the file backend.
func WriteRecordsFile(t *testing.T, path string, records []graph.Record) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create fixture dir: %v", err)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal records: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
}

// GetIDs returns all record IDs in order.
func GetIDs(records []graph.Record) []string {
	ids := make([]string, 0, len(records))
	for i := range records {
		ids = append(ids, records[i].ID())
	}
	return ids
}

package graph

import (
	"testing"

	json "github.com/goccy/go-json"
)

func decodeRecords(t *testing.T, input string) []Record {
	t.Helper()
	var recs []Record
	if err := json.Unmarshal([]byte(input), &recs); err != nil {
		t.Fatalf("decode records: %v", err)
	}
	return recs
}

func TestPartition(t *testing.T) {
	recs := decodeRecords(t, `[
		{"id":"a","type":"vertex"},
		{"id":"e1","type":"edge","inV":"b","outV":"a"},
		{"count":3},
		{"id":"b","type":"vertex"}
	]`)

	vertices, edges := Partition(recs)
	if len(vertices) != 2 {
		t.Errorf("expected 2 vertices, got %d", len(vertices))
	}
	if len(edges) != 1 {
		t.Errorf("expected 1 edge, got %d", len(edges))
	}
	if len(vertices) == 2 && (vertices[0].ID() != "a" || vertices[1].ID() != "b") {
		t.Errorf("partition reordered vertices: %q, %q", vertices[0].ID(), vertices[1].ID())
	}
}

func TestUnionEdgesKeepsDuplicates(t *testing.T) {
	primary := []Record{NewEdge("e1", "a", "b")}
	extra := []Record{NewEdge("e1", "a", "b"), NewEdge("e2", "b", "c")}

	union := UnionEdges(primary, extra)
	if len(union) != 3 {
		t.Fatalf("expected 3 edges (duplicates kept), got %d", len(union))
	}
	if union[0].ID() != "e1" || union[1].ID() != "e1" || union[2].ID() != "e2" {
		t.Errorf("unexpected union order: %q %q %q", union[0].ID(), union[1].ID(), union[2].ID())
	}
}

func TestUnionEdgesEmptyExtra(t *testing.T) {
	primary := []Record{NewEdge("e1", "a", "b")}
	union := UnionEdges(primary, nil)
	if len(union) != 1 {
		t.Errorf("expected primary edges unchanged, got %d", len(union))
	}
}

func TestUniqueIDCount(t *testing.T) {
	recs := []Record{
		NewVertex("a"),
		NewVertex("a"),
		NewVertex("b"),
	}
	if got := UniqueIDCount(recs); got != 2 {
		t.Errorf("expected 2 unique ids, got %d", got)
	}

	// Records without ids each count on their own.
	anon := decodeRecords(t, `[{"count":1},{"count":2}]`)
	if got := UniqueIDCount(anon); got != 2 {
		t.Errorf("expected 2 for anonymous records, got %d", got)
	}

	if got := UniqueIDCount(nil); got != 0 {
		t.Errorf("expected 0 for empty input, got %d", got)
	}
}

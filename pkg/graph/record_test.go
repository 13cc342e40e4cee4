package graph

import (
	"bytes"
	"testing"

	json "github.com/goccy/go-json"
)

func TestRecordClassification(t *testing.T) {
	cases := []struct {
		name string
		in   string
		kind Kind
	}{
		{"vertex", `{"id":"v1","type":"vertex"}`, KindVertex},
		{"edge", `{"id":"e1","type":"edge","inV":"b","outV":"a"}`, KindEdge},
		{"projection", `{"count":42}`, KindOther},
		{"unknown type", `{"id":"x","type":"path"}`, KindOther},
		{"non-string type", `{"id":"x","type":7}`, KindOther},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var rec Record
			if err := json.Unmarshal([]byte(tc.in), &rec); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if rec.Kind() != tc.kind {
				t.Errorf("expected kind %v, got %v", tc.kind, rec.Kind())
			}
		})
	}
}

func TestRecordEdgeEndpoints(t *testing.T) {
	var rec Record
	if err := json.Unmarshal([]byte(`{"id":"e1","type":"edge","inV":"target","outV":"source"}`), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.OutV() != "source" {
		t.Errorf("expected outV 'source', got %q", rec.OutV())
	}
	if rec.InV() != "target" {
		t.Errorf("expected inV 'target', got %q", rec.InV())
	}
}

func TestRecordRoundTripKeepsUnknownFields(t *testing.T) {
	input := `{"label":"person","properties":{"age":[{"id":"p1","value":29}]},"id":"v1","type":"vertex"}`

	var rec Record
	if err := json.Unmarshal([]byte(input), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(out, []byte(input)) {
		t.Errorf("round trip changed encoding:\n in: %s\nout: %s", input, out)
	}
}

func TestNewVertexAndEdge(t *testing.T) {
	v := NewVertex("v1")
	if !v.IsVertex() || v.ID() != "v1" {
		t.Errorf("unexpected vertex: kind=%v id=%q", v.Kind(), v.ID())
	}

	e := NewEdge("e1", "a", "b")
	if !e.IsEdge() {
		t.Fatalf("expected edge, got %v", e.Kind())
	}
	if e.OutV() != "a" || e.InV() != "b" {
		t.Errorf("expected a->b, got %q->%q", e.OutV(), e.InV())
	}
}

func TestRecordLabel(t *testing.T) {
	v := NewVertex("v1")
	if v.Label() != "v1" {
		t.Errorf("expected label to fall back to id, got %q", v.Label())
	}
	if err := v.SetProperty("label", "person"); err != nil {
		t.Fatalf("set label: %v", err)
	}
	if v.Label() != "person" {
		t.Errorf("expected label 'person', got %q", v.Label())
	}
}

func TestRecordSetPropertyUpdatesAccessors(t *testing.T) {
	var rec Record
	if err := rec.SetProperty(FieldID, "x"); err != nil {
		t.Fatalf("set id: %v", err)
	}
	if err := rec.SetProperty(FieldType, TypeVertex); err != nil {
		t.Fatalf("set type: %v", err)
	}
	if rec.Kind() != KindVertex || rec.ID() != "x" {
		t.Errorf("accessors not refreshed: kind=%v id=%q", rec.Kind(), rec.ID())
	}
}

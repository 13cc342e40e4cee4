package msg

import (
	"strings"
	"testing"

	"github.com/vanderheijden86/graphpane/pkg/graph"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	env, err := New(TypeQuery, Query{QueryID: 7, Query: "g.V()"})
	if err != nil {
		t.Fatalf("new envelope: %v", err)
	}
	data, err := env.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Type != TypeQuery {
		t.Errorf("expected type %q, got %q", TypeQuery, parsed.Type)
	}

	var q Query
	if err := parsed.Decode(&q); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if q.QueryID != 7 || q.Query != "g.V()" {
		t.Errorf("unexpected payload: %+v", q)
	}
}

func TestEnvelopeWithoutPayload(t *testing.T) {
	env, err := New(TypeGetPageState, nil)
	if err != nil {
		t.Fatalf("new envelope: %v", err)
	}
	data, err := env.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "payload") {
		t.Errorf("expected payload field omitted, got %s", data)
	}

	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var q Query
	if err := parsed.Decode(&q); err == nil {
		t.Error("expected decode of empty payload to fail")
	}
}

func TestParseRejectsMissingType(t *testing.T) {
	if _, err := Parse([]byte(`{"payload":{}}`)); err == nil {
		t.Error("expected error for missing type")
	}
	if _, err := Parse([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid frame")
	}
}

func TestParseKeepsUnknownTypes(t *testing.T) {
	parsed, err := Parse([]byte(`{"type":"somethingNew","payload":{"x":1}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Type != Type("somethingNew") {
		t.Errorf("unexpected type %q", parsed.Type)
	}
}

func TestShowResultsCarriesRecords(t *testing.T) {
	env, err := New(TypeShowResults, ShowResults{
		QueryID: 3,
		Results: []graph.Record{graph.NewVertex("a"), graph.NewEdge("e1", "a", "b")},
		Edges:   []graph.Record{graph.NewEdge("e2", "b", "a")},
	})
	if err != nil {
		t.Fatalf("new envelope: %v", err)
	}
	data, err := env.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var sr ShowResults
	if err := parsed.Decode(&sr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sr.QueryID != 3 {
		t.Errorf("expected queryId 3, got %d", sr.QueryID)
	}
	if len(sr.Results) != 2 || len(sr.Edges) != 1 {
		t.Fatalf("unexpected record counts: %d results, %d edges", len(sr.Results), len(sr.Edges))
	}
	if !sr.Results[0].IsVertex() || sr.Results[0].ID() != "a" {
		t.Errorf("first record mangled: kind=%v id=%q", sr.Results[0].Kind(), sr.Results[0].ID())
	}
	if !sr.Edges[0].IsEdge() || sr.Edges[0].OutV() != "b" {
		t.Errorf("edge record mangled: kind=%v outV=%q", sr.Edges[0].Kind(), sr.Edges[0].OutV())
	}
}

func TestViewModeValid(t *testing.T) {
	if !ViewJSON.Valid() || !ViewGraph.Valid() {
		t.Error("expected known modes to be valid")
	}
	if ViewMode("table").Valid() {
		t.Error("expected unknown mode to be invalid")
	}
}

func TestPageStateFieldNames(t *testing.T) {
	env, err := New(TypeSetPageState, PageState{
		Query:          "g.V()",
		IsQueryRunning: true,
		RunningQueryID: 4,
		View:           ViewGraph,
	})
	if err != nil {
		t.Fatalf("new envelope: %v", err)
	}
	data, err := env.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	for _, field := range []string{`"query"`, `"isQueryRunning"`, `"runningQueryId"`, `"view"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("expected field %s in %s", field, data)
		}
	}
	if strings.Contains(string(data), "errorMessage") {
		t.Errorf("expected empty errorMessage omitted, got %s", data)
	}
}

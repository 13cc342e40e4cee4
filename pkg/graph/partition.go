package graph

// Partition splits a result set into its vertex and edge records, preserving
// input order. Records that are neither stay out of both lists; callers that
// need them (the JSON diagnostic view) read the original slice.
func Partition(records []Record) (vertices, edges []Record) {
	for _, rec := range records {
		switch rec.Kind() {
		case KindVertex:
			vertices = append(vertices, rec)
		case KindEdge:
			edges = append(edges, rec)
		}
	}
	return vertices, edges
}

// UnionEdges appends the out-of-band edge list to the edges found in the
// primary result set. No deduplication happens here: a query whose primary
// results already contain an edge that the companion edge query also returns
// yields that edge twice, and both copies flow into link resolution.
func UnionEdges(primary, extra []Record) []Record {
	if len(extra) == 0 {
		return primary
	}
	out := make([]Record, 0, len(primary)+len(extra))
	out = append(out, primary...)
	out = append(out, extra...)
	return out
}

// UniqueIDCount counts distinct record ids in a list. Records without an id
// each count once. Diagnostics report this alongside raw counts so duplicate
// results are visible in the logs.
func UniqueIDCount(records []Record) int {
	seen := make(map[string]struct{}, len(records))
	anonymous := 0
	for _, rec := range records {
		id := rec.ID()
		if id == "" {
			anonymous++
			continue
		}
		seen[id] = struct{}{}
	}
	return len(seen) + anonymous
}

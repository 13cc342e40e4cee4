package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/graphpane/pkg/config"
	"github.com/vanderheijden86/graphpane/pkg/graph"
	"github.com/vanderheijden86/graphpane/pkg/metrics"
)

// FileExecutor serves a fixture file as the answer to every query. It powers
// demos, the one-shot snapshot mode without a database, and deterministic
// integration tests. The optional latency simulates a slow backend so the
// stale-reply path can be exercised for real.
type FileExecutor struct {
	path    string
	title   string
	latency time.Duration

	records []graph.Record
	edges   []graph.Record
}

// OpenFile loads the fixture named by the config.
func OpenFile(cfg config.Config) (*FileExecutor, error) {
	if cfg.Backend.FixturePath == "" {
		return nil, fmt.Errorf("file backend requires fixture_path")
	}
	e := &FileExecutor{
		path:    cfg.Backend.FixturePath,
		title:   strings.TrimSuffix(filepath.Base(cfg.Backend.FixturePath), filepath.Ext(cfg.Backend.FixturePath)),
		latency: time.Duration(cfg.Backend.LatencyMs) * time.Millisecond,
	}
	if err := e.load(); err != nil {
		return nil, err
	}
	return e, nil
}

// load reads the fixture. Two shapes are accepted: a bare JSON array of
// records, or an object {"queryResults": [...], "edgeResults": [...]}.
func (e *FileExecutor) load() error {
	defer metrics.Timer(metrics.JSONParsing)()

	data, err := os.ReadFile(e.path)
	if err != nil {
		return fmt.Errorf("read fixture %s: %w", e.path, err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		records, err := decodeRecords(data)
		if err != nil {
			return fmt.Errorf("parse fixture %s: %w", e.path, err)
		}
		e.records = records
		return nil
	}

	var wrapped struct {
		QueryResults json.RawMessage `json:"queryResults"`
		EdgeResults  json.RawMessage `json:"edgeResults"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return fmt.Errorf("parse fixture %s: %w", e.path, err)
	}
	if len(wrapped.QueryResults) > 0 {
		records, err := decodeRecords(wrapped.QueryResults)
		if err != nil {
			return fmt.Errorf("parse fixture %s: queryResults: %w", e.path, err)
		}
		e.records = records
	}
	if len(wrapped.EdgeResults) > 0 {
		edges, err := decodeRecords(wrapped.EdgeResults)
		if err != nil {
			return fmt.Errorf("parse fixture %s: edgeResults: %w", e.path, err)
		}
		e.edges = edges
	}
	return nil
}

// decodeRecords parses a JSON array of results. Object elements decode as
// records directly; anything else (strings, numbers, nested arrays from
// value-projecting queries) is wrapped in a projection record under a
// "value" property, the same shape the database backends produce.
func decodeRecords(data []byte) ([]graph.Record, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	records := make([]graph.Record, 0, len(raw))
	for i, elem := range raw {
		trimmed := strings.TrimSpace(string(elem))
		if strings.HasPrefix(trimmed, "{") {
			var rec graph.Record
			if err := json.Unmarshal(elem, &rec); err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			records = append(records, rec)
			continue
		}
		var v any
		if err := json.Unmarshal(elem, &v); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		var rec graph.Record
		if err := rec.SetProperty("value", v); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Title returns the fixture's base name.
func (e *FileExecutor) Title() string {
	return e.title
}

// Close is a no-op; the file is read once at open.
func (e *FileExecutor) Close(ctx context.Context) error {
	return nil
}

// Execute returns the fixture contents after the configured latency. The
// query text is ignored except that an empty query is still an error, so the
// error path stays reachable in demos.
func (e *FileExecutor) Execute(ctx context.Context, query string) ([]graph.Record, []graph.Record, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil, &ExecError{Query: query, Cause: fmt.Errorf("empty query")}
	}
	if e.latency > 0 {
		select {
		case <-ctx.Done():
			return nil, nil, &ExecError{Query: query, Cause: ctx.Err()}
		case <-time.After(e.latency):
		}
	}

	records := make([]graph.Record, len(e.records))
	copy(records, e.records)
	edges := make([]graph.Record, len(e.edges))
	copy(edges, e.edges)
	return records, edges, nil
}

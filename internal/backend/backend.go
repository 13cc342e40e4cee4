// Package backend executes graph queries for the session host. An Executor
// turns a query string into a primary result set plus an out-of-band edge
// list; how it does that (a Neo4j server, a fixture file) is its business.
package backend

import (
	"context"
	"fmt"

	"github.com/vanderheijden86/graphpane/pkg/config"
	"github.com/vanderheijden86/graphpane/pkg/graph"
)

// Executor runs queries against a graph data source. Implementations must be
// safe for concurrent Execute calls: the host dispatches a new query without
// waiting for the previous one to finish.
type Executor interface {
	// Execute runs the query and returns the primary results and any
	// out-of-band edges. Both lists may be empty; projections that are
	// neither vertex nor edge flow through as plain records.
	Execute(ctx context.Context, query string) (records, edges []graph.Record, err error)
	// Title is the display name for views bound to this executor,
	// typically "database/graph".
	Title() string
	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// ExecError is a query execution failure. Its message is what the user sees
// in the error panel, verbatim.
type ExecError struct {
	Query string
	Cause error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Cause)
}

func (e *ExecError) Unwrap() error {
	return e.Cause
}

// Open builds the executor selected by the config.
func Open(ctx context.Context, cfg config.Config) (Executor, error) {
	switch cfg.Backend.Kind {
	case "", "neo4j":
		return OpenNeo4j(ctx, cfg)
	case "file":
		return OpenFile(cfg)
	default:
		return nil, fmt.Errorf("unknown backend kind %q", cfg.Backend.Kind)
	}
}

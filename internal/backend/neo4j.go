package backend

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/graphpane/pkg/config"
	"github.com/vanderheijden86/graphpane/pkg/debug"
	"github.com/vanderheijden86/graphpane/pkg/graph"
	"github.com/vanderheijden86/graphpane/pkg/metrics"
)

// Neo4jExecutor runs Cypher queries through the official driver. The query
// text comes from the user verbatim; no query building happens here.
type Neo4jExecutor struct {
	driver    neo4j.DriverWithContext
	database  string
	edgeQuery string
}

// OpenNeo4j connects to the server named by the config and verifies
// connectivity before returning.
func OpenNeo4j(ctx context.Context, cfg config.Config) (*Neo4jExecutor, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.Backend.URI,
		neo4j.BasicAuth(cfg.Backend.Username, cfg.BackendPassword(), ""),
	)
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return &Neo4jExecutor{
		driver:    driver,
		database:  cfg.Backend.Database,
		edgeQuery: cfg.Backend.EdgeQuery,
	}, nil
}

// Title returns "database" as the view display name.
func (e *Neo4jExecutor) Title() string {
	return e.database
}

// Close shuts the driver down.
func (e *Neo4jExecutor) Close(ctx context.Context) error {
	return e.driver.Close(ctx)
}

// Execute runs the query, and the configured companion edge query alongside
// it when one is set. The two run concurrently; either failure fails the
// whole call.
func (e *Neo4jExecutor) Execute(ctx context.Context, query string) ([]graph.Record, []graph.Record, error) {
	var records, edges []graph.Record

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer metrics.Timer(metrics.QueryExecution)()
		out, err := e.run(ctx, query)
		if err != nil {
			return err
		}
		records = out
		return nil
	})
	if e.edgeQuery != "" {
		g.Go(func() error {
			defer metrics.Timer(metrics.EdgeQuery)()
			out, err := e.run(ctx, e.edgeQuery)
			if err != nil {
				return err
			}
			// Only edges survive from the companion query; anything
			// else it projects is noise.
			for i := range out {
				if out[i].IsEdge() {
					edges = append(edges, out[i])
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, &ExecError{Query: query, Cause: err}
	}

	debug.Event("backend", "query_executed", map[string]any{
		"records": len(records),
		"edges":   len(edges),
	})
	return records, edges, nil
}

// run executes one Cypher query fully buffered and converts its records.
func (e *Neo4jExecutor) run(ctx context.Context, query string) ([]graph.Record, error) {
	result, err := neo4j.ExecuteQuery(
		ctx,
		e.driver,
		query,
		nil,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(e.database),
	)
	if err != nil {
		return nil, err
	}

	var out []graph.Record
	for _, rec := range result.Records {
		for _, value := range rec.Values {
			converted, err := convertValue(value)
			if err != nil {
				return nil, err
			}
			out = append(out, converted...)
		}
	}
	return out, nil
}

// convertValue maps one driver value onto result records. Nodes become
// vertices, relationships become edges, paths expand to their elements, and
// everything else becomes an opaque projection record.
func convertValue(value any) ([]graph.Record, error) {
	switch v := value.(type) {
	case neo4j.Node:
		return []graph.Record{nodeRecord(v)}, nil
	case neo4j.Relationship:
		return []graph.Record{relationshipRecord(v)}, nil
	case neo4j.Path:
		out := make([]graph.Record, 0, len(v.Nodes)+len(v.Relationships))
		for _, n := range v.Nodes {
			out = append(out, nodeRecord(n))
		}
		for _, r := range v.Relationships {
			out = append(out, relationshipRecord(r))
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		var rec graph.Record
		if err := rec.SetProperty("value", v); err != nil {
			return nil, fmt.Errorf("convert projection: %w", err)
		}
		return []graph.Record{rec}, nil
	}
}

func nodeRecord(n neo4j.Node) graph.Record {
	rec := graph.NewVertex(n.GetElementId())
	if len(n.Labels) > 0 {
		_ = rec.SetProperty("label", n.Labels[0])
	}
	for k, v := range n.Props {
		_ = rec.SetProperty(k, v)
	}
	return rec
}

func relationshipRecord(r neo4j.Relationship) graph.Record {
	rec := graph.NewEdge(r.GetElementId(), r.StartElementId, r.EndElementId)
	if r.Type != "" {
		_ = rec.SetProperty("label", r.Type)
	}
	for k, v := range r.Props {
		_ = rec.SetProperty(k, v)
	}
	return rec
}

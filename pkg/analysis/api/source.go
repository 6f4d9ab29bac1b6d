package api

import (
	"context"

	"github.com/ritzau/trade-graph/pkg/config"
	"github.com/ritzau/trade-graph/pkg/graph"
)

// Source provides the edge store an analysis run works on.
// Implementations encapsulate where edges come from (a CSV file, a fixture)
// and must return a fully validated store or an error, never a partial one.
type Source interface {
	// Name returns a short name for logging (e.g., "CSV").
	Name() string

	// Load reads and validates the edges.
	// It should respect the context for cancellation.
	Load(ctx context.Context, cfg *config.Config) (*graph.FlowGraph, error)
}

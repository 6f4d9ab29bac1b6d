package metrics

import (
	"fmt"

	"github.com/ritzau/trade-graph/pkg/cycles"
	"github.com/ritzau/trade-graph/pkg/graph"
	"github.com/ritzau/trade-graph/pkg/logging"
	"github.com/ritzau/trade-graph/pkg/model"
	"golang.org/x/sync/errgroup"
)

// Calculate computes every metric for the graph. The individual computations
// only read the graph, so they run concurrently.
func Calculate(fg *graph.FlowGraph, opts Options) (*model.Metrics, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	logger := logging.New("metrics")
	m := &model.Metrics{
		NodeCount: len(fg.Nodes()),
		EdgeCount: fg.EdgeCount(),
	}

	var g errgroup.Group
	g.Go(func() error {
		m.ExporterTotals = ExporterTotals(fg)
		m.ImporterTotals = ImporterTotals(fg)
		return nil
	})
	g.Go(func() error {
		m.Dependency = ComputeDependency(fg)
		return nil
	})
	g.Go(func() error {
		ranked, err := ComputeLeverageRank(fg, opts)
		if err != nil {
			return fmt.Errorf("leverage rank: %w", err)
		}
		m.LeverageRank = ranked
		return nil
	})
	g.Go(func() error {
		m.Cycles = cycles.FindSupplyCycles(fg)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("metrics calculated",
		"nodes", m.NodeCount,
		"edges", m.EdgeCount,
		"importers", len(m.Dependency),
		"cycles", len(m.Cycles),
		"iterations", opts.Iterations,
	)
	return m, nil
}

package loader

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ritzau/trade-graph/pkg/analysis/api"
	"github.com/ritzau/trade-graph/pkg/config"
	"github.com/ritzau/trade-graph/pkg/graph"
	"github.com/ritzau/trade-graph/pkg/logging"
)

// CSVSource implements api.Source for an edge CSV file
type CSVSource struct {
	open func(path string) (io.ReadCloser, error)
}

// NewCSVSource creates a source reading from the local filesystem
func NewCSVSource() api.Source {
	return &CSVSource{
		open: func(path string) (io.ReadCloser, error) { return os.Open(path) },
	}
}

func (s *CSVSource) Name() string {
	return "CSV"
}

func (s *CSVSource) Load(ctx context.Context, cfg *config.Config) (*graph.FlowGraph, error) {
	logger := logging.New("source.csv")
	logger.Debug("loading edges", "path", cfg.Edges)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.open(cfg.Edges)
	if err != nil {
		return nil, fmt.Errorf("opening edge file: %w", err)
	}
	defer func() { _ = f.Close() }()

	fg, err := Load(f, Columns{
		Source: cfg.SourceColumn,
		Target: cfg.TargetColumn,
		Weight: cfg.WeightColumn,
	})
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", cfg.Edges, err)
	}

	logger.Info("edges loaded", "path", cfg.Edges, "edges", fg.EdgeCount(), "nodes", len(fg.Nodes()))
	return fg, nil
}

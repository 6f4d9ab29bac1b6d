package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ritzau/trade-graph/pkg/analysis/api"
	"github.com/ritzau/trade-graph/pkg/config"
	"github.com/ritzau/trade-graph/pkg/graph"
	"github.com/ritzau/trade-graph/pkg/logging"
	"github.com/ritzau/trade-graph/pkg/metrics"
	"github.com/ritzau/trade-graph/pkg/model"
	"github.com/ritzau/trade-graph/pkg/pubsub"
	"github.com/ritzau/trade-graph/pkg/shock"
)

// Snapshot is the immutable result of one analysis run
type Snapshot struct {
	Graph     *graph.FlowGraph
	Metrics   *model.Metrics
	Simulator shock.Simulator // memoised per removed node, bound to Graph
	Completed time.Time
	Reason    string
}

// Sink receives every completed snapshot
type Sink interface {
	SetSnapshot(s *Snapshot)
}

// StatusPublisher is implemented by sinks that report progress while a run is
// in flight. State is one of the pubsub analysis states.
type StatusPublisher interface {
	PublishAnalysisStatus(status pubsub.AnalysisStatus) error
}

const totalPhases = 3

// Runner orchestrates loading the edges and computing the metrics
type Runner struct {
	source api.Source
	cfg    *config.Config
	sinks  []Sink
	mu     sync.Mutex // Prevent concurrent analysis runs
}

// NewRunner creates a new analysis runner
func NewRunner(source api.Source, cfg *config.Config, sinks ...Sink) *Runner {
	return &Runner{
		source: source,
		cfg:    cfg,
		sinks:  sinks,
	}
}

// Run performs a full analysis from scratch. reason is logged and carried in
// the status updates (e.g., "initial analysis", "edge file changed").
func (r *Runner) Run(ctx context.Context, reason string) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger := logging.New("analysis")
	start := time.Now()
	logger.Info("starting analysis", "reason", reason, "source", r.source.Name())

	snap, err := r.run(ctx, reason)
	if err != nil {
		r.publishStatus(pubsub.AnalysisStatus{
			State:   pubsub.StateError,
			Message: "Analysis failed",
			Reason:  reason,
			Error:   err.Error(),
		})
		return nil, err
	}

	for _, s := range r.sinks {
		s.SetSnapshot(snap)
	}
	r.publishStatus(pubsub.AnalysisStatus{
		State:   pubsub.StateReady,
		Message: "Analysis complete",
		Step:    totalPhases,
		Total:   totalPhases,
		Reason:  reason,
	})

	m := snap.Metrics
	logger.Info("analysis complete",
		"nodes", m.NodeCount,
		"edges", m.EdgeCount,
		"importers", len(m.Dependency),
		"cycles", len(m.Cycles),
		"durationMs", time.Since(start).Milliseconds(),
	)
	return snap, nil
}

func (r *Runner) run(ctx context.Context, reason string) (*Snapshot, error) {
	logger := logging.New("analysis")

	// Phase 1: load and validate edges
	logger.Debug("[1/3] loading edges")
	r.publishStatus(pubsub.AnalysisStatus{
		State:   pubsub.StateLoading,
		Message: fmt.Sprintf("Loading edges from %s", r.source.Name()),
		Step:    1,
		Total:   totalPhases,
		Reason:  reason,
	})
	fg, err := r.source.Load(ctx, r.cfg)
	if err != nil {
		return nil, fmt.Errorf("loading edges: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 2: metrics
	logger.Debug("[2/3] computing metrics", "nodes", len(fg.Nodes()), "edges", fg.EdgeCount())
	r.publishStatus(pubsub.AnalysisStatus{
		State:   pubsub.StateComputing,
		Message: fmt.Sprintf("Computing metrics for %d edges", fg.EdgeCount()),
		Step:    2,
		Total:   totalPhases,
		Reason:  reason,
	})
	m, err := metrics.Calculate(fg, metrics.Options{
		Damping:    r.cfg.Damping,
		Iterations: r.cfg.Iterations,
	})
	if err != nil {
		return nil, fmt.Errorf("computing metrics: %w", err)
	}

	// Phase 3: shock simulator for on-demand queries
	logger.Debug("[3/3] preparing shock simulator", "cacheSize", r.cfg.CacheSize)
	sim, err := shock.NewCached(fg, r.cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Graph:     fg,
		Metrics:   m,
		Simulator: sim,
		Completed: time.Now(),
		Reason:    reason,
	}, nil
}

// publishStatus forwards progress to every sink that reports it. A failed
// publish is logged and never fails the run.
func (r *Runner) publishStatus(status pubsub.AnalysisStatus) {
	for _, s := range r.sinks {
		p, ok := s.(StatusPublisher)
		if !ok {
			continue
		}
		if err := p.PublishAnalysisStatus(status); err != nil {
			logging.New("analysis").Warn("failed to publish status", "state", status.State, "error", err)
		}
	}
}

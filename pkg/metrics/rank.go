package metrics

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ritzau/trade-graph/pkg/graph"
	"github.com/ritzau/trade-graph/pkg/model"
	"gonum.org/v1/gonum/floats"
)

// ErrInvalidOptions is returned when ranking options are out of range
var ErrInvalidOptions = errors.New("invalid ranking options")

// Options configures the leverage ranking
type Options struct {
	Damping    float64 // share of rank passed along edges, in (0, 1)
	Iterations int     // number of rounds; there is no early exit
}

// DefaultOptions returns the ranking configuration used when none is given
func DefaultOptions() Options {
	return Options{
		Damping:    0.85,
		Iterations: 60,
	}
}

// Validate checks that the options can be used for ranking
func (o Options) Validate() error {
	if !(o.Damping > 0 && o.Damping < 1) {
		return fmt.Errorf("%w: damping %v not in (0, 1)", ErrInvalidOptions, o.Damping)
	}
	if o.Iterations < 1 {
		return fmt.Errorf("%w: iterations %d < 1", ErrInvalidOptions, o.Iterations)
	}
	return nil
}

// ComputeLeverageRank runs a weighted PageRank for exactly opts.Iterations rounds.
//
// Each round a node receives (1-d)/N plus d * rank(u) * w / out(u) for every
// inbound edge (u, w). Sources with zero outgoing weight pass nothing on. The
// rank they would have passed is lost during iteration, so the final scores are
// rescaled to sum to 1. The result is ordered by score descending, node ascending.
func ComputeLeverageRank(fg *graph.FlowGraph, opts Options) ([]model.RankedNode, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	nodes := fg.Nodes()
	n := len(nodes)
	if n == 0 {
		return []model.RankedNode{}, nil
	}

	// Resolve the inbound lists to indices once; the rounds then only touch slices.
	type contribution struct {
		from  int
		share float64 // w / out(from)
	}
	inbound := make([][]contribution, n)
	for v, name := range nodes {
		for _, in := range fg.IncomingEdgesOf(name) {
			out := fg.OutgoingWeightOf(in.Source)
			if out <= 0 {
				continue
			}
			u, _ := fg.NodeID(in.Source)
			inbound[v] = append(inbound[v], contribution{from: int(u), share: in.Weight / out})
		}
	}

	rank := make([]float64, n)
	next := make([]float64, n)
	for i := range rank {
		rank[i] = 1.0 / float64(n)
	}
	base := (1 - opts.Damping) / float64(n)

	for round := 0; round < opts.Iterations; round++ {
		for v := range next {
			score := base
			for _, c := range inbound[v] {
				score += opts.Damping * rank[c.from] * c.share
			}
			next[v] = score
		}
		rank, next = next, rank
	}

	if sum := floats.Sum(rank); sum > 0 {
		floats.Scale(1/sum, rank)
	}

	ranked := make([]model.RankedNode, n)
	for i, name := range nodes {
		ranked[i] = model.RankedNode{Node: name, Score: rank[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Node < ranked[j].Node
	})
	return ranked, nil
}

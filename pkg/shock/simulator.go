package shock

import (
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ritzau/trade-graph/pkg/graph"
	"github.com/ritzau/trade-graph/pkg/model"
)

// Simulator answers removal queries against a fixed edge store
type Simulator interface {
	Simulate(removed string) []model.Impact
}

// SimulateRemoval estimates the first-order supply loss of every importer if
// removed stopped exporting. Only importers that actually lose weight are
// returned, ordered by fraction lost descending, then importer ascending.
// An unknown source, or one without outgoing edges, yields an empty result.
func SimulateRemoval(fg *graph.FlowGraph, removed string) []model.Impact {
	type tally struct {
		lost  float64
		total float64
	}
	byImporter := make(map[string]*tally)

	for _, e := range fg.Edges() {
		t, ok := byImporter[e.Target]
		if !ok {
			t = &tally{}
			byImporter[e.Target] = t
		}
		t.total += e.Weight
		if e.Source == removed {
			t.lost += e.Weight
		}
	}

	impacts := make([]model.Impact, 0)
	for importer, t := range byImporter {
		if t.lost <= 0 {
			continue
		}
		impacts = append(impacts, model.Impact{
			Importer:     importer,
			FractionLost: t.lost / t.total,
			LostWeight:   t.lost,
			TotalWeight:  t.total,
		})
	}

	sort.Slice(impacts, func(i, j int) bool {
		if impacts[i].FractionLost != impacts[j].FractionLost {
			return impacts[i].FractionLost > impacts[j].FractionLost
		}
		return impacts[i].Importer < impacts[j].Importer
	})
	return impacts
}

// Summarize condenses a removal result
func Summarize(removed string, impacts []model.Impact) model.ShockSummary {
	s := model.ShockSummary{Removed: removed, Affected: len(impacts)}
	for _, imp := range impacts {
		if imp.FractionLost == 1 {
			s.Severed++
		}
		s.LostWeight += imp.LostWeight
	}
	return s
}

// Direct recomputes every query from the edge store
type Direct struct {
	graph *graph.FlowGraph
}

// NewDirect creates a simulator without memoisation
func NewDirect(fg *graph.FlowGraph) *Direct {
	return &Direct{graph: fg}
}

func (d *Direct) Simulate(removed string) []model.Impact {
	return SimulateRemoval(d.graph, removed)
}

// Cached memoises results per removed node. The cache belongs to one edge
// store; build a new Cached when the store changes.
type Cached struct {
	graph *graph.FlowGraph
	cache *lru.Cache[string, []model.Impact]
}

// NewCached creates a simulator that keeps up to size results
func NewCached(fg *graph.FlowGraph, size int) (*Cached, error) {
	cache, err := lru.New[string, []model.Impact](size)
	if err != nil {
		return nil, fmt.Errorf("creating shock cache: %w", err)
	}
	return &Cached{graph: fg, cache: cache}, nil
}

func (c *Cached) Simulate(removed string) []model.Impact {
	impacts, ok := c.cache.Get(removed)
	if !ok {
		impacts = SimulateRemoval(c.graph, removed)
		c.cache.Add(removed, impacts)
	}
	out := make([]model.Impact, len(impacts))
	copy(out, impacts)
	return out
}

// Len returns the number of memoised queries
func (c *Cached) Len() int {
	return c.cache.Len()
}

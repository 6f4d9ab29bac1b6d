package metrics

import (
	"sort"

	"github.com/ritzau/trade-graph/pkg/graph"
	"github.com/ritzau/trade-graph/pkg/model"
)

// ExporterTotals returns the aggregate outgoing weight of every node with at
// least one outgoing edge, heaviest first.
func ExporterTotals(fg *graph.FlowGraph) []model.FlowTotal {
	totals := make(map[string]float64)
	for _, e := range fg.Edges() {
		totals[e.Source] += e.Weight
	}
	return sortTotals(totals)
}

// ImporterTotals returns the aggregate inbound weight per receiving node
func ImporterTotals(fg *graph.FlowGraph) []model.FlowTotal {
	totals := make(map[string]float64)
	for _, e := range fg.Edges() {
		totals[e.Target] += e.Weight
	}
	return sortTotals(totals)
}

func sortTotals(totals map[string]float64) []model.FlowTotal {
	out := make([]model.FlowTotal, 0, len(totals))
	for node, w := range totals {
		out = append(out, model.FlowTotal{Node: node, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Node < out[j].Node
	})
	return out
}

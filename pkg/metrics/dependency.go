package metrics

import (
	"sort"

	"github.com/ritzau/trade-graph/pkg/graph"
	"github.com/ritzau/trade-graph/pkg/model"
)

// ComputeDependency returns, for every target with positive inbound weight, the
// share of that weight coming from its largest source. Per-source weights are
// summed over parallel edges; equal sums go to the lexicographically smaller source.
func ComputeDependency(fg *graph.FlowGraph) map[string]model.DependencyRecord {
	result := make(map[string]model.DependencyRecord)

	for _, target := range fg.Nodes() {
		inbound := fg.IncomingEdgesOf(target)
		if len(inbound) == 0 {
			continue
		}

		bySource := make(map[string]float64)
		total := 0.0
		for _, in := range inbound {
			bySource[in.Source] += in.Weight
			total += in.Weight
		}
		if total <= 0 {
			continue
		}

		top, topWeight := "", -1.0
		for source, w := range bySource {
			if w > topWeight || (w == topWeight && source < top) {
				top, topWeight = source, w
			}
		}

		result[target] = model.DependencyRecord{
			Importer:           target,
			TopSource:          top,
			DependencyRatio:    topWeight / total,
			TotalInboundWeight: total,
		}
	}

	return result
}

// SortedDependencies orders records by ratio descending, then importer ascending
func SortedDependencies(deps map[string]model.DependencyRecord) []model.DependencyRecord {
	out := make([]model.DependencyRecord, 0, len(deps))
	for _, d := range deps {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DependencyRatio != out[j].DependencyRatio {
			return out[i].DependencyRatio > out[j].DependencyRatio
		}
		return out[i].Importer < out[j].Importer
	})
	return out
}

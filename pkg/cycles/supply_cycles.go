package cycles

import (
	"sort"

	"github.com/ritzau/trade-graph/pkg/graph"
	"github.com/ritzau/trade-graph/pkg/model"
	"gonum.org/v1/gonum/graph/topo"
)

// FindSupplyCycles returns every group of two or more nodes that supply each
// other through some chain of edges. Self-loops alone do not form a cycle.
// Members are sorted, and cycles are ordered by their first member.
func FindSupplyCycles(fg *graph.FlowGraph) []model.Cycle {
	sccs := topo.TarjanSCC(fg.Graph())

	cycles := make([]model.Cycle, 0)
	for _, scc := range sccs {
		if len(scc) < 2 {
			continue
		}

		names := make([]string, 0, len(scc))
		for _, node := range scc {
			if name, ok := fg.NodeName(node.ID()); ok {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		cycles = append(cycles, model.Cycle{Nodes: names})
	}

	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i].Nodes[0] < cycles[j].Nodes[0]
	})
	return cycles
}

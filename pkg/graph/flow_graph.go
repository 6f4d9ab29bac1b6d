package graph

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/ritzau/trade-graph/pkg/model"
	"gonum.org/v1/gonum/graph/multi"
)

var validate = validator.New()

// Inbound is one edge entering a node, seen from the receiving side
type Inbound struct {
	Source string
	Weight float64
}

// FlowGraph is the immutable edge store every analysis reads from.
// It keeps the edges in input order and derives its index views lazily.
type FlowGraph struct {
	edges []model.Edge
	nodes []string         // sorted
	ids   map[string]int64 // node -> gonum ID, assigned in sorted order
	graph *multi.WeightedDirectedGraph

	indexOnce sync.Once
	outgoing  map[string]float64
	incoming  map[string][]Inbound
}

// New builds a FlowGraph from already typed edges.
// A single invalid edge aborts construction and no graph is returned.
func New(edges []model.Edge) (*FlowGraph, error) {
	for i, e := range edges {
		if err := checkEdge(i, 0, e); err != nil {
			return nil, err
		}
	}
	return build(append([]model.Edge(nil), edges...)), nil
}

// FromRecords parses and validates raw loader records into a FlowGraph.
// Identifiers and weights are trimmed of surrounding whitespace.
func FromRecords(records []model.Record) (*FlowGraph, error) {
	edges := make([]model.Edge, 0, len(records))
	for i, r := range records {
		r.Source = strings.TrimSpace(r.Source)
		r.Target = strings.TrimSpace(r.Target)
		r.Weight = strings.TrimSpace(r.Weight)

		if err := validate.Struct(r); err != nil {
			return nil, recordError(i, r, err)
		}

		w, err := strconv.ParseFloat(r.Weight, 64)
		if err != nil {
			return nil, &MalformedEdgeError{Index: i, Line: r.Line, Field: "weight", Value: r.Weight, Reason: "not a number", Err: err}
		}

		e := model.Edge{Source: r.Source, Target: r.Target, Weight: w}
		if err := checkEdge(i, r.Line, e); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return build(edges), nil
}

func recordError(i int, r model.Record, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &MalformedEdgeError{Index: i, Line: r.Line, Reason: err.Error(), Err: err}
	}
	field := strings.ToLower(verrs[0].Field())
	value, _ := verrs[0].Value().(string)
	return &MalformedEdgeError{Index: i, Line: r.Line, Field: field, Value: value, Reason: "missing value", Err: err}
}

func checkEdge(i, line int, e model.Edge) error {
	switch {
	case e.Source == "":
		return &MalformedEdgeError{Index: i, Line: line, Field: "source", Reason: "missing value"}
	case e.Target == "":
		return &MalformedEdgeError{Index: i, Line: line, Field: "target", Reason: "missing value"}
	case math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0):
		return &MalformedEdgeError{Index: i, Line: line, Field: "weight", Value: formatWeight(e.Weight), Reason: "not a finite number"}
	case e.Weight < 0:
		return &MalformedEdgeError{Index: i, Line: line, Field: "weight", Value: formatWeight(e.Weight), Reason: "negative weight"}
	}
	return nil
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'g', -1, 64)
}

func build(edges []model.Edge) *FlowGraph {
	seen := make(map[string]bool)
	for _, e := range edges {
		seen[e.Source] = true
		seen[e.Target] = true
	}
	nodes := make([]string, 0, len(seen))
	for n := range seen {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	fg := &FlowGraph{
		edges: edges,
		nodes: nodes,
		ids:   make(map[string]int64, len(nodes)),
		graph: multi.NewWeightedDirectedGraph(),
	}
	for i, n := range nodes {
		fg.ids[n] = int64(i)
		fg.graph.AddNode(multi.Node(i))
	}
	for _, e := range edges {
		from := fg.graph.Node(fg.ids[e.Source])
		to := fg.graph.Node(fg.ids[e.Target])
		fg.graph.SetWeightedLine(fg.graph.NewWeightedLine(from, to, e.Weight))
	}
	return fg
}

func (fg *FlowGraph) buildIndex() {
	fg.indexOnce.Do(func() {
		fg.outgoing = make(map[string]float64)
		fg.incoming = make(map[string][]Inbound)
		for _, e := range fg.edges {
			fg.outgoing[e.Source] += e.Weight
			fg.incoming[e.Target] = append(fg.incoming[e.Target], Inbound{Source: e.Source, Weight: e.Weight})
		}
	})
}

// Edges returns a copy of all edges in input order
func (fg *FlowGraph) Edges() []model.Edge {
	return append([]model.Edge(nil), fg.edges...)
}

// EdgeCount returns the number of edges
func (fg *FlowGraph) EdgeCount() int {
	return len(fg.edges)
}

// Nodes returns every node identifier in lexicographic order
func (fg *FlowGraph) Nodes() []string {
	return append([]string(nil), fg.nodes...)
}

// HasNode reports whether id appears as a source or target of any edge
func (fg *FlowGraph) HasNode(id string) bool {
	_, ok := fg.ids[id]
	return ok
}

// OutgoingWeightOf returns the summed weight of all edges leaving node.
// Unknown nodes and pure targets yield 0.
func (fg *FlowGraph) OutgoingWeightOf(node string) float64 {
	fg.buildIndex()
	return fg.outgoing[node]
}

// IncomingEdgesOf returns the edges entering node, in input order
func (fg *FlowGraph) IncomingEdgesOf(node string) []Inbound {
	fg.buildIndex()
	return append([]Inbound(nil), fg.incoming[node]...)
}

// Graph returns the underlying gonum multigraph. Callers must not modify it.
func (fg *FlowGraph) Graph() *multi.WeightedDirectedGraph {
	return fg.graph
}

// NodeID returns the gonum ID of a node identifier
func (fg *FlowGraph) NodeID(name string) (int64, bool) {
	id, ok := fg.ids[name]
	return id, ok
}

// NodeName maps a gonum ID back to its identifier
func (fg *FlowGraph) NodeName(id int64) (string, bool) {
	if id < 0 || id >= int64(len(fg.nodes)) {
		return "", false
	}
	return fg.nodes[id], true
}

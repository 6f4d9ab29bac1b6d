package graph

import (
	"errors"
	"math"
	"testing"

	"github.com/ritzau/trade-graph/pkg/model"
)

func sampleEdges() []model.Edge {
	return []model.Edge{
		{Source: "A", Target: "X", Weight: 100},
		{Source: "B", Target: "X", Weight: 50},
		{Source: "A", Target: "Y", Weight: 30},
	}
}

func TestNewFlowGraphEmpty(t *testing.T) {
	fg, err := New(nil)
	if err != nil {
		t.Fatalf("New(nil) error = %v", err)
	}

	if len(fg.Nodes()) != 0 {
		t.Errorf("Expected 0 nodes, got %d", len(fg.Nodes()))
	}
	if fg.EdgeCount() != 0 {
		t.Errorf("Expected 0 edges, got %d", fg.EdgeCount())
	}
	if w := fg.OutgoingWeightOf("A"); w != 0 {
		t.Errorf("Expected 0 outgoing weight for unknown node, got %v", w)
	}
}

func TestNodesSorted(t *testing.T) {
	fg, err := New([]model.Edge{
		{Source: "Russia", Target: "India", Weight: 10},
		{Source: "France", Target: "Egypt", Weight: 5},
		{Source: "India", Target: "Bhutan", Weight: 1},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	want := []string{"Bhutan", "Egypt", "France", "India", "Russia"}
	got := fg.Nodes()
	if len(got) != len(want) {
		t.Fatalf("Expected %d nodes, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Nodes()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	for i, name := range want {
		id, ok := fg.NodeID(name)
		if !ok || id != int64(i) {
			t.Errorf("NodeID(%s) = %d, %v; want %d", name, id, ok, i)
		}
		back, ok := fg.NodeName(id)
		if !ok || back != name {
			t.Errorf("NodeName(%d) = %s, want %s", id, back, name)
		}
	}
}

func TestOutgoingWeightOf(t *testing.T) {
	fg, err := New(sampleEdges())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		node string
		want float64
	}{
		{"A", 130},
		{"B", 50},
		{"X", 0},
		{"unknown", 0},
	}
	for _, tt := range tests {
		if got := fg.OutgoingWeightOf(tt.node); got != tt.want {
			t.Errorf("OutgoingWeightOf(%q) = %v, want %v", tt.node, got, tt.want)
		}
	}
}

func TestIncomingEdgesOf(t *testing.T) {
	fg, err := New(sampleEdges())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := fg.IncomingEdgesOf("X")
	if len(in) != 2 {
		t.Fatalf("Expected 2 incoming edges for X, got %d", len(in))
	}
	if in[0].Source != "A" || in[0].Weight != 100 || in[1].Source != "B" || in[1].Weight != 50 {
		t.Errorf("Unexpected incoming edges for X: %v", in)
	}

	if got := fg.IncomingEdgesOf("A"); len(got) != 0 {
		t.Errorf("Expected no incoming edges for A, got %v", got)
	}
	if got := fg.IncomingEdgesOf("nobody"); len(got) != 0 {
		t.Errorf("Expected no incoming edges for unknown node, got %v", got)
	}
}

func TestParallelEdgesNotDeduplicated(t *testing.T) {
	fg, err := New([]model.Edge{
		{Source: "A", Target: "X", Weight: 10},
		{Source: "A", Target: "X", Weight: 15},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if fg.EdgeCount() != 2 {
		t.Errorf("Expected 2 edges, got %d", fg.EdgeCount())
	}
	if got := fg.OutgoingWeightOf("A"); got != 25 {
		t.Errorf("Expected outgoing weight 25, got %v", got)
	}

	from, _ := fg.NodeID("A")
	to, _ := fg.NodeID("X")
	lines := fg.Graph().WeightedLines(from, to)
	count := 0
	for lines.Next() {
		count++
	}
	if count != 2 {
		t.Errorf("Expected 2 parallel lines in gonum graph, got %d", count)
	}
}

func TestSelfLoop(t *testing.T) {
	fg, err := New([]model.Edge{{Source: "A", Target: "A", Weight: 10}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := fg.OutgoingWeightOf("A"); got != 10 {
		t.Errorf("Expected outgoing weight 10, got %v", got)
	}
	in := fg.IncomingEdgesOf("A")
	if len(in) != 1 || in[0].Source != "A" {
		t.Errorf("Expected self-loop as incoming edge, got %v", in)
	}
}

func TestEdgesIsCopy(t *testing.T) {
	fg, err := New(sampleEdges())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	edges := fg.Edges()
	edges[0].Weight = 999

	if fg.Edges()[0].Weight != 100 {
		t.Error("Mutating Edges() result changed the store")
	}
}

func TestNewRejectsInvalidEdges(t *testing.T) {
	tests := []struct {
		name  string
		edge  model.Edge
		field string
	}{
		{"empty source", model.Edge{Target: "X", Weight: 1}, "source"},
		{"empty target", model.Edge{Source: "A", Weight: 1}, "target"},
		{"negative weight", model.Edge{Source: "A", Target: "X", Weight: -1}, "weight"},
		{"nan weight", model.Edge{Source: "A", Target: "X", Weight: math.NaN()}, "weight"},
		{"inf weight", model.Edge{Source: "A", Target: "X", Weight: math.Inf(1)}, "weight"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edges := append(sampleEdges(), tt.edge)
			fg, err := New(edges)
			if fg != nil {
				t.Error("Expected no graph on failure")
			}

			var mErr *MalformedEdgeError
			if !errors.As(err, &mErr) {
				t.Fatalf("Expected MalformedEdgeError, got %v", err)
			}
			if mErr.Index != 3 {
				t.Errorf("Expected index 3, got %d", mErr.Index)
			}
			if mErr.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, mErr.Field)
			}
			if !errors.Is(err, ErrMalformedEdge) {
				t.Error("Expected errors.Is(err, ErrMalformedEdge)")
			}
		})
	}
}

func TestFromRecords(t *testing.T) {
	fg, err := FromRecords([]model.Record{
		{Line: 2, Source: " A ", Target: "X", Weight: "100"},
		{Line: 3, Source: "B", Target: "X", Weight: " 0 "},
	})
	if err != nil {
		t.Fatalf("FromRecords() error = %v", err)
	}

	if !fg.HasNode("A") {
		t.Error("Expected identifiers to be trimmed")
	}
	if got := fg.OutgoingWeightOf("B"); got != 0 {
		t.Errorf("Expected zero weight edge to be kept with weight 0, got %v", got)
	}
	if fg.EdgeCount() != 2 {
		t.Errorf("Expected 2 edges, got %d", fg.EdgeCount())
	}
}

func TestFromRecordsMalformed(t *testing.T) {
	tests := []struct {
		name   string
		record model.Record
		field  string
	}{
		{"non-numeric weight", model.Record{Line: 7, Source: "A", Target: "X", Weight: "lots"}, "weight"},
		{"missing weight", model.Record{Line: 7, Source: "A", Target: "X"}, "weight"},
		{"negative weight", model.Record{Line: 7, Source: "A", Target: "X", Weight: "-3"}, "weight"},
		{"blank source", model.Record{Line: 7, Source: "  ", Target: "X", Weight: "1"}, "source"},
		{"missing target", model.Record{Line: 7, Source: "A", Weight: "1"}, "target"},
		{"nan weight", model.Record{Line: 7, Source: "A", Target: "X", Weight: "NaN"}, "weight"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := []model.Record{
				{Line: 2, Source: "A", Target: "X", Weight: "1"},
				tt.record,
			}
			fg, err := FromRecords(records)
			if fg != nil {
				t.Error("Expected no partial graph")
			}

			var mErr *MalformedEdgeError
			if !errors.As(err, &mErr) {
				t.Fatalf("Expected MalformedEdgeError, got %v", err)
			}
			if mErr.Line != 7 || mErr.Index != 1 {
				t.Errorf("Expected line 7 index 1, got line %d index %d", mErr.Line, mErr.Index)
			}
			if mErr.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, mErr.Field)
			}
		})
	}
}

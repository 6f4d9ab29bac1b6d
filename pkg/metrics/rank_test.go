package metrics

import (
	"errors"
	"math"
	"testing"

	"github.com/ritzau/trade-graph/pkg/model"
)

func rankScores(ranked []model.RankedNode) map[string]float64 {
	scores := make(map[string]float64, len(ranked))
	for _, r := range ranked {
		scores[r.Node] = r.Score
	}
	return scores
}

func TestComputeLeverageRank_Empty(t *testing.T) {
	ranked, err := ComputeLeverageRank(mustGraph(t, nil), DefaultOptions())
	if err != nil {
		t.Fatalf("ComputeLeverageRank() error = %v", err)
	}
	if len(ranked) != 0 {
		t.Errorf("Expected empty ranking, got %v", ranked)
	}
}

func TestComputeLeverageRank_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"zero damping", Options{Damping: 0, Iterations: 60}},
		{"damping one", Options{Damping: 1, Iterations: 60}},
		{"nan damping", Options{Damping: math.NaN(), Iterations: 60}},
		{"no iterations", Options{Damping: 0.85, Iterations: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeLeverageRank(exampleGraph(t), tt.opts)
			if !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("Expected ErrInvalidOptions, got %v", err)
			}
		})
	}
}

func TestComputeLeverageRank_Conservation(t *testing.T) {
	ranked, err := ComputeLeverageRank(exampleGraph(t), DefaultOptions())
	if err != nil {
		t.Fatalf("ComputeLeverageRank() error = %v", err)
	}

	sum := 0.0
	for _, r := range ranked {
		if r.Score < 0 {
			t.Errorf("Negative score for %s: %v", r.Node, r.Score)
		}
		sum += r.Score
	}
	if math.Abs(sum-1) > 1e-6*float64(len(ranked)) {
		t.Errorf("Expected scores to sum to 1, got %v", sum)
	}
}

func TestComputeLeverageRank_Ordering(t *testing.T) {
	ranked, err := ComputeLeverageRank(exampleGraph(t), DefaultOptions())
	if err != nil {
		t.Fatalf("ComputeLeverageRank() error = %v", err)
	}

	// X receives most flow, A and B only emit and tie at the teleport score.
	want := []string{"X", "Y", "A", "B"}
	if len(ranked) != len(want) {
		t.Fatalf("Expected %d nodes, got %v", len(want), ranked)
	}
	for i, w := range want {
		if ranked[i].Node != w {
			t.Errorf("ranked[%d] = %s, want %s (%v)", i, ranked[i].Node, w, ranked)
		}
	}
	if ranked[2].Score != ranked[3].Score {
		t.Errorf("Expected A and B to tie, got %v and %v", ranked[2].Score, ranked[3].Score)
	}
}

func TestComputeLeverageRank_HandComputed(t *testing.T) {
	// A -> B only. With d=0.5: B = 0.25 + 0.5*0.25 = 0.375, A = 0.25 after
	// every round, so normalised A = 0.4 and B = 0.6.
	fg := mustGraph(t, []model.Edge{{Source: "A", Target: "B", Weight: 3}})

	ranked, err := ComputeLeverageRank(fg, Options{Damping: 0.5, Iterations: 5})
	if err != nil {
		t.Fatalf("ComputeLeverageRank() error = %v", err)
	}

	scores := rankScores(ranked)
	if math.Abs(scores["A"]-0.4) > 1e-12 || math.Abs(scores["B"]-0.6) > 1e-12 {
		t.Errorf("Expected A=0.4 B=0.6, got %v", scores)
	}
}

func TestComputeLeverageRank_Deterministic(t *testing.T) {
	edges := []model.Edge{
		{Source: "United States", Target: "Saudi Arabia", Weight: 3150},
		{Source: "Russia", Target: "India", Weight: 2700},
		{Source: "France", Target: "India", Weight: 1500},
		{Source: "India", Target: "Armenia", Weight: 90},
		{Source: "China", Target: "Pakistan", Weight: 2500},
		{Source: "Pakistan", Target: "China", Weight: 5},
		{Source: "France", Target: "Qatar", Weight: 1200},
	}

	first, err := ComputeLeverageRank(mustGraph(t, edges), DefaultOptions())
	if err != nil {
		t.Fatalf("ComputeLeverageRank() error = %v", err)
	}

	for i := 0; i < 10; i++ {
		again, err := ComputeLeverageRank(mustGraph(t, edges), DefaultOptions())
		if err != nil {
			t.Fatalf("ComputeLeverageRank() error = %v", err)
		}
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("Run %d differs at %d: %v vs %v", i, j, first[j], again[j])
			}
		}
	}
}

func TestComputeLeverageRank_RunsEveryIteration(t *testing.T) {
	// Scores on this cycle still oscillate after a few rounds, so one extra
	// round must show up in the output.
	fg := mustGraph(t, []model.Edge{
		{Source: "A", Target: "B", Weight: 1},
		{Source: "B", Target: "C", Weight: 1},
		{Source: "C", Target: "A", Weight: 1},
		{Source: "A", Target: "C", Weight: 9},
	})

	few, err := ComputeLeverageRank(fg, Options{Damping: 0.85, Iterations: 3})
	if err != nil {
		t.Fatalf("ComputeLeverageRank() error = %v", err)
	}
	more, err := ComputeLeverageRank(fg, Options{Damping: 0.85, Iterations: 4})
	if err != nil {
		t.Fatalf("ComputeLeverageRank() error = %v", err)
	}

	if rankScores(few)["A"] == rankScores(more)["A"] {
		t.Error("Expected the iteration count to change the result")
	}
}

func TestComputeLeverageRank_SelfLoop(t *testing.T) {
	fg := mustGraph(t, []model.Edge{
		{Source: "A", Target: "A", Weight: 10},
		{Source: "A", Target: "B", Weight: 10},
	})

	ranked, err := ComputeLeverageRank(fg, DefaultOptions())
	if err != nil {
		t.Fatalf("ComputeLeverageRank() error = %v", err)
	}

	sum := 0.0
	for _, r := range ranked {
		if math.IsNaN(r.Score) {
			t.Fatalf("NaN score for %s", r.Node)
		}
		sum += r.Score
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("Expected scores to sum to 1, got %v", sum)
	}
}

func TestComputeLeverageRank_ZeroWeightSource(t *testing.T) {
	// A only has a zero-weight edge, so it is dangling and must not divide by zero.
	fg := mustGraph(t, []model.Edge{
		{Source: "A", Target: "B", Weight: 0},
		{Source: "C", Target: "B", Weight: 5},
	})

	ranked, err := ComputeLeverageRank(fg, DefaultOptions())
	if err != nil {
		t.Fatalf("ComputeLeverageRank() error = %v", err)
	}
	for _, r := range ranked {
		if math.IsNaN(r.Score) || math.IsInf(r.Score, 0) {
			t.Errorf("Invalid score for %s: %v", r.Node, r.Score)
		}
	}
	if ranked[0].Node != "B" {
		t.Errorf("Expected B to rank first, got %s", ranked[0].Node)
	}
}

func TestCalculate(t *testing.T) {
	m, err := Calculate(exampleGraph(t), DefaultOptions())
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}

	if m.NodeCount != 4 || m.EdgeCount != 3 {
		t.Errorf("Expected 4 nodes and 3 edges, got %d and %d", m.NodeCount, m.EdgeCount)
	}
	if len(m.Dependency) != 2 || len(m.LeverageRank) != 4 || len(m.ExporterTotals) != 2 {
		t.Errorf("Unexpected metrics: %+v", m)
	}
	if len(m.Cycles) != 0 {
		t.Errorf("Expected no cycles, got %v", m.Cycles)
	}

	if _, err := Calculate(exampleGraph(t), Options{Damping: 2, Iterations: 1}); !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("Expected ErrInvalidOptions, got %v", err)
	}
}

func TestCalculate_Empty(t *testing.T) {
	m, err := Calculate(mustGraph(t, nil), DefaultOptions())
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	if m.NodeCount != 0 || len(m.Dependency) != 0 || len(m.LeverageRank) != 0 || len(m.ExporterTotals) != 0 {
		t.Errorf("Expected empty metrics, got %+v", m)
	}
}

package model

// Record is a raw edge row as handed over by a tabular loader, before any
// parsing or validation has happened.
type Record struct {
	Line   int    // 1-based line in the source file, 0 when unknown
	Source string `validate:"required"`
	Target string `validate:"required"`
	Weight string `validate:"required"`
}

// Edge is a weighted directed transfer from Source to Target.
// Several edges may share the same (Source, Target) pair; each one counts on its own.
type Edge struct {
	Source string  `json:"source" yaml:"source"`
	Target string  `json:"target" yaml:"target"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// DependencyRecord describes how concentrated a target's inbound flow is on its
// single largest source.
type DependencyRecord struct {
	Importer           string  `json:"importer" yaml:"importer"`
	TopSource          string  `json:"top_source" yaml:"top_source"`
	DependencyRatio    float64 `json:"dependency_ratio" yaml:"dependency_ratio"`
	TotalInboundWeight float64 `json:"total_inbound_weight" yaml:"total_inbound_weight"`
}

// RankedNode is a node together with its leverage score
type RankedNode struct {
	Node  string  `json:"node" yaml:"node"`
	Score float64 `json:"score" yaml:"score"`
}

// FlowTotal is the aggregate weight leaving (or entering) a node
type FlowTotal struct {
	Node   string  `json:"node" yaml:"node"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Impact is the first-order loss an importer suffers when a source is removed.
type Impact struct {
	Importer     string  `json:"importer" yaml:"importer"`
	FractionLost float64 `json:"fraction_lost" yaml:"fraction_lost"`
	LostWeight   float64 `json:"lost_weight" yaml:"lost_weight"`
	TotalWeight  float64 `json:"total_weight" yaml:"total_weight"`
}

// ShockSummary condenses the impacts of a single removal query
type ShockSummary struct {
	Removed    string  `json:"removed" yaml:"removed"`
	Affected   int     `json:"affected" yaml:"affected"`
	Severed    int     `json:"severed" yaml:"severed"` // importers losing their entire supply
	LostWeight float64 `json:"lost_weight" yaml:"lost_weight"`
}

// Cycle is a set of nodes that supply each other, directly or indirectly
type Cycle struct {
	Nodes []string `json:"nodes" yaml:"nodes"`
}

// Metrics bundles everything computed for one edge snapshot.
type Metrics struct {
	NodeCount      int                         `json:"node_count" yaml:"node_count"`
	EdgeCount      int                         `json:"edge_count" yaml:"edge_count"`
	ExporterTotals []FlowTotal                 `json:"exporter_total" yaml:"exporter_total"`
	ImporterTotals []FlowTotal                 `json:"importer_total" yaml:"importer_total"`
	Dependency     map[string]DependencyRecord `json:"dependency" yaml:"dependency"`
	// LeverageRank scores are rescaled after the last iteration to sum to 1,
	// so they are not the raw PageRank values when some nodes export nothing.
	LeverageRank   []RankedNode                `json:"leverage_rank" yaml:"leverage_rank"`
	Cycles         []Cycle                     `json:"cycles" yaml:"cycles"`
}

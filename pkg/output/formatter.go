package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/ritzau/trade-graph/pkg/metrics"
	"github.com/ritzau/trade-graph/pkg/model"
)

// Report prints a coloured summary of the metrics to w, showing at most top
// entries per section.
func Report(w io.Writer, source string, m *model.Metrics, top int) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Fprintln(w, "Trade Graph - Leverage Report")
	bold.Fprintln(w, "=============================")
	fmt.Fprintf(w, "Edges file: %s\n", source)
	fmt.Fprintf(w, "Graph: %d nodes, %d edges\n", m.NodeCount, m.EdgeCount)
	fmt.Fprintln(w)

	if m.NodeCount == 0 {
		yellow.Fprintln(w, "No edges loaded, nothing to report.")
		return
	}

	bold.Fprintln(w, "TOP EXPORTERS BY WEIGHTED OUTFLOW:")
	for i, t := range limit(m.ExporterTotals, top) {
		fmt.Fprintf(w, "  %2d. %-24s %12.1f\n", i+1, t.Node, t.Weight)
	}
	fmt.Fprintln(w)

	bold.Fprintln(w, "LEVERAGE RANK:")
	for i, r := range limit(m.LeverageRank, top) {
		cyan.Fprintf(w, "  %2d. %-24s %.4f\n", i+1, r.Node, r.Score)
	}
	fmt.Fprintln(w)

	bold.Fprintln(w, "MOST CONCENTRATED IMPORTERS:")
	for _, d := range limit(metrics.SortedDependencies(m.Dependency), top) {
		c := green
		if d.DependencyRatio >= 0.5 {
			c = yellow
		}
		if d.DependencyRatio >= 0.8 {
			c = red
		}
		c.Fprintf(w, "  %-24s %5.1f%% from %s (of %.1f)\n",
			d.Importer, d.DependencyRatio*100, d.TopSource, d.TotalInboundWeight)
	}

	if len(m.Cycles) > 0 {
		fmt.Fprintln(w)
		bold.Fprintln(w, "RECIPROCAL SUPPLY LOOPS:")
		for _, c := range m.Cycles {
			fmt.Fprintf(w, "  %v\n", c.Nodes)
		}
	}
}

// ShockReport prints the result of a removal query
func ShockReport(w io.Writer, summary model.ShockSummary, impacts []model.Impact, top int) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	bold.Fprintf(w, "Shock simulation: remove %s\n", summary.Removed)
	if summary.Affected == 0 {
		fmt.Fprintf(w, "No importer receives anything from %s.\n", summary.Removed)
		return
	}

	fmt.Fprintf(w, "%d importers lose active supply lines (%d lose everything), %.1f total weight.\n",
		summary.Affected, summary.Severed, summary.LostWeight)
	for i, imp := range limit(impacts, top) {
		c := yellow
		if imp.FractionLost == 1 {
			c = red
		}
		c.Fprintf(w, "  %2d. %-24s %5.1f%% import pipeline removed\n", i+1, imp.Importer, imp.FractionLost*100)
	}
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

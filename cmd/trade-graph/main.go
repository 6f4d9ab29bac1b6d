package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ritzau/trade-graph/pkg/analysis"
	"github.com/ritzau/trade-graph/pkg/config"
	"github.com/ritzau/trade-graph/pkg/loader"
	"github.com/ritzau/trade-graph/pkg/logging"
	"github.com/ritzau/trade-graph/pkg/output"
	"github.com/ritzau/trade-graph/pkg/shock"
	"github.com/ritzau/trade-graph/pkg/watcher"
	"github.com/ritzau/trade-graph/pkg/web"
	"github.com/spf13/pflag"
)

func main() {
	// Parse command-line flags
	flags := pflag.NewFlagSet("trade-graph", pflag.ExitOnError)
	defineFlags(flags)
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		logging.Fatal("invalid configuration", "error", err)
	}

	level, err := logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt)
	if err != nil {
		logging.Fatal("invalid verbosity", "error", err)
	}
	if cfg.JSONLogs {
		logging.SetJSONOutput(level)
	} else {
		logging.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var server *web.Server
	var sinks []analysis.Sink
	if cfg.WebMode {
		server = web.NewServer()
		sinks = append(sinks, server)
	}
	runner := analysis.NewRunner(loader.NewCSVSource(), cfg, sinks...)

	snap, err := runner.Run(ctx, "initial analysis")
	if err != nil {
		logging.Fatal("analysis failed", "error", err)
	}
	if err := report(cfg, snap); err != nil {
		logging.Fatal("writing results failed", "error", err)
	}

	if !cfg.WebMode && !cfg.Watch {
		return
	}

	if cfg.WebMode {
		defer server.Close()
		go func() {
			if err := server.Start(cfg.Port); err != nil {
				logging.Fatal("failed to start server", "error", err)
			}
		}()
	}

	if cfg.Watch {
		if err := watchEdges(ctx, cfg, runner); err != nil {
			logging.Fatal("watching edge file failed", "error", err)
		}
		return
	}

	<-ctx.Done()
	logging.Info("shutting down")
}

func defineFlags(f *pflag.FlagSet) {
	d := config.Defaults()
	f.String("edges", d["edges"].(string), "Path to the edge CSV file")
	f.String("source-column", d["source-column"].(string), "CSV column holding the exporting node")
	f.String("target-column", d["target-column"].(string), "CSV column holding the importing node")
	f.String("weight-column", d["weight-column"].(string), "CSV column holding the flow weight")
	f.Float64("damping", d["damping"].(float64), "Leverage rank damping factor, in (0, 1)")
	f.Int("iterations", d["iterations"].(int), "Leverage rank iteration count")
	f.Int("top", d["top"].(int), "Number of entries per report section (0 for all)")
	f.String("shock", "", "Simulate the removal of this exporter")
	f.String("output", "", "Write the full metrics to this file")
	f.String("format", d["format"].(string), "Metrics file format: json or yaml")
	f.Bool("web", false, "Serve the results over HTTP")
	f.Int("port", d["port"].(int), "Port for web server (only used with --web)")
	f.Bool("watch", false, "Re-run the analysis when the edge file changes")
	f.Int("cache-size", d["cache-size"].(int), "Number of shock results kept in memory")
	f.String("verbosity", "", "Log level: trace, debug, info, warn or error")
	f.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	f.Bool("json-logs", false, "Emit logs as JSON")
}

// report prints the console summary and writes the optional metrics file
func report(cfg *config.Config, snap *analysis.Snapshot) error {
	output.Report(os.Stdout, cfg.Edges, snap.Metrics, cfg.Top)

	if cfg.Shock != "" {
		if !snap.Graph.HasNode(cfg.Shock) {
			logging.Warn("shock source is not a node of the graph", "source", cfg.Shock)
		}
		impacts := snap.Simulator.Simulate(cfg.Shock)
		output.ShockReport(os.Stdout, shock.Summarize(cfg.Shock, impacts), impacts, cfg.Top)
	}

	if cfg.Output != "" {
		if err := output.WriteFile(cfg.Output, snap.Metrics, cfg.Format); err != nil {
			return err
		}
		logging.Info("metrics written", "path", cfg.Output, "format", cfg.Format)
	}
	return nil
}

// watchEdges re-runs the analysis whenever the edge file settles after a change.
// A failed re-run is logged and the previous result stays in place.
func watchEdges(ctx context.Context, cfg *config.Config, runner *analysis.Runner) error {
	fw, err := watcher.NewFileWatcher(cfg.Edges)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), 300*time.Millisecond, 2*time.Second)
	debouncer.Start(ctx)

	for event := range debouncer.Output() {
		change := watcher.AnalyzeChanges(event)
		if !change.NeedAnalysis {
			logging.Warn(change.Reason, "paths", change.ChangedFiles)
			continue
		}

		snap, err := runner.Run(ctx, change.Reason)
		if err != nil {
			logging.Error("re-analysis failed, keeping previous result", "error", err)
			continue
		}
		if err := report(cfg, snap); err != nil {
			logging.Error("writing results failed", "error", err)
		}
	}

	logging.Info("stopped watching", "path", cfg.Edges)
	return nil
}

package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/ritzau/trade-graph/pkg/analysis"
	"github.com/ritzau/trade-graph/pkg/logging"
	"github.com/ritzau/trade-graph/pkg/metrics"
	"github.com/ritzau/trade-graph/pkg/model"
	"github.com/ritzau/trade-graph/pkg/pubsub"
	"github.com/ritzau/trade-graph/pkg/shock"
)

// ShockResponse is the body returned by the shock endpoint
type ShockResponse struct {
	Summary model.ShockSummary `json:"summary"`
	Known   bool               `json:"known"` // whether the source is a node of the graph
	Impacts []model.Impact     `json:"impacts"`
}

// Server represents the web server
type Server struct {
	router    *mux.Router
	publisher *pubsub.SSEPublisher

	mu       sync.RWMutex
	snapshot *analysis.Snapshot
}

// NewServer creates a new web server
func NewServer() *Server {
	ssePublisher := pubsub.NewSSEPublisher()

	// analysis_status: buffer the phases of the latest run, replay only the current state
	ssePublisher.ConfigureTopic(pubsub.TopicAnalysisStatus, pubsub.TopicConfig{
		BufferSize: 10,
		ReplayAll:  false,
	})

	// metrics_updated: replay the latest snapshot announcement
	ssePublisher.ConfigureTopic(pubsub.TopicMetricsUpdated, pubsub.TopicConfig{
		BufferSize: 5,
		ReplayAll:  false,
	})

	s := &Server{
		router:    mux.NewRouter(),
		publisher: ssePublisher,
	}
	s.setupRoutes()
	return s
}

// SetSnapshot replaces the analysis result served by the API and announces it
// to event subscribers
func (s *Server) SetSnapshot(snap *analysis.Snapshot) {
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	update := pubsub.MetricsUpdated{
		NodeCount: snap.Metrics.NodeCount,
		EdgeCount: snap.Metrics.EdgeCount,
		Completed: snap.Completed,
	}
	if err := s.publisher.Publish(pubsub.TopicMetricsUpdated, "updated", update); err != nil {
		logging.Warn("failed to publish metrics update", "error", err)
	}
}

// PublishAnalysisStatus publishes an analysis status event
func (s *Server) PublishAnalysisStatus(status pubsub.AnalysisStatus) error {
	return s.publisher.Publish(pubsub.TopicAnalysisStatus, status.State, status)
}

// Close ends every open event stream
func (s *Server) Close() error {
	return s.publisher.Close()
}

func (s *Server) current() *analysis.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *Server) setupRoutes() {
	// SSE subscription endpoint
	s.router.HandleFunc("/api/events", s.handleEvents).Methods("GET")

	s.router.HandleFunc("/api/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/api/metrics", s.withSnapshot(s.handleMetrics)).Methods("GET")
	s.router.HandleFunc("/api/nodes", s.withSnapshot(s.handleNodes)).Methods("GET")

	// More specific routes must come first
	s.router.HandleFunc("/api/dependency/{importer}", s.withSnapshot(s.handleDependencyOf)).Methods("GET")
	s.router.HandleFunc("/api/dependency", s.withSnapshot(s.handleDependency)).Methods("GET")
	s.router.HandleFunc("/api/rank", s.withSnapshot(s.handleRank)).Methods("GET")
	s.router.HandleFunc("/api/shock/{source}", s.withSnapshot(s.handleShock)).Methods("GET")
}

// Handler returns the router wrapped in the request logging middleware
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

type snapshotHandler func(w http.ResponseWriter, r *http.Request, snap *analysis.Snapshot)

// withSnapshot answers 503 until the first analysis has completed
func (s *Server) withSnapshot(h snapshotHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := s.current()
		if snap == nil {
			http.Error(w, "Analysis not available yet", http.StatusServiceUnavailable)
			return
		}
		h(w, r, snap)
	}
}

// handleEvents streams analysis_status and metrics_updated events. The topic
// query parameter narrows the stream to one of them.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	topics := []string{pubsub.TopicAnalysisStatus, pubsub.TopicMetricsUpdated}
	if topic := r.URL.Query().Get("topic"); topic != "" {
		if topic != pubsub.TopicAnalysisStatus && topic != pubsub.TopicMetricsUpdated {
			http.Error(w, fmt.Sprintf("Unknown topic: %s", topic), http.StatusBadRequest)
			return
		}
		topics = []string{topic}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	subs := make([]pubsub.Subscription, 0, len(topics))
	for _, topic := range topics {
		sub, err := s.publisher.Subscribe(ctx, topic)
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		defer sub.Close()
		subs = append(subs, sub)
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Send initial comment to establish connection
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	for event := range pubsub.Merge(ctx, subs...) {
		if err := pubsub.WriteSSE(w, event); err != nil {
			logging.WarnContext(ctx, "error writing SSE event", "error", err)
			return
		}
		flusher.Flush()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request, snap *analysis.Snapshot) {
	writeJSON(w, r, snap.Metrics)
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request, snap *analysis.Snapshot) {
	writeJSON(w, r, snap.Graph.Nodes())
}

func (s *Server) handleDependency(w http.ResponseWriter, r *http.Request, snap *analysis.Snapshot) {
	writeJSON(w, r, metrics.SortedDependencies(snap.Metrics.Dependency))
}

func (s *Server) handleDependencyOf(w http.ResponseWriter, r *http.Request, snap *analysis.Snapshot) {
	importer := mux.Vars(r)["importer"]
	rec, ok := snap.Metrics.Dependency[importer]
	if !ok {
		http.Error(w, fmt.Sprintf("No dependency record for: %s", importer), http.StatusNotFound)
		return
	}
	writeJSON(w, r, rec)
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request, snap *analysis.Snapshot) {
	top, err := parseTop(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, r, truncate(snap.Metrics.LeverageRank, top))
}

func (s *Server) handleShock(w http.ResponseWriter, r *http.Request, snap *analysis.Snapshot) {
	top, err := parseTop(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	source := mux.Vars(r)["source"]
	impacts := snap.Simulator.Simulate(source)
	logging.DebugContext(r.Context(), "shock simulated", "source", source, "affected", len(impacts))

	writeJSON(w, r, ShockResponse{
		Summary: shock.Summarize(source, impacts),
		Known:   snap.Graph.HasNode(source),
		Impacts: truncate(impacts, top),
	})
}

// parseTop reads the optional top query parameter; 0 means no limit
func parseTop(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("top")
	if raw == "" {
		return 0, nil
	}
	top, err := strconv.Atoi(raw)
	if err != nil || top < 0 {
		return 0, fmt.Errorf("invalid top parameter: %q", raw)
	}
	return top, nil
}

func truncate[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

// Start starts the web server on the specified port
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("starting web server", "url", fmt.Sprintf("http://localhost%s", addr))
	return http.ListenAndServe(addr, s.Handler())
}

package pubsub

import (
	"context"
	"encoding/json"
	"time"
)

// Topics published by the analysis pipeline
const (
	TopicAnalysisStatus = "analysis_status"
	TopicMetricsUpdated = "metrics_updated"
)

// Analysis states carried as the event type on TopicAnalysisStatus
const (
	StateLoading   = "loading"
	StateComputing = "computing"
	StateReady     = "ready"
	StateError     = "error"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic (e.g., "analysis_status", "metrics_updated")
	Type    string          `json:"type"`    // Event type (e.g., "loading", "ready", "updated")
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// AnalysisStatus represents the progress of an analysis run
type AnalysisStatus struct {
	State   string `json:"state"`           // loading, computing, ready, error
	Message string `json:"message"`         // Human-readable status message
	Step    int    `json:"step"`            // Current step number (1-based)
	Total   int    `json:"total"`           // Total number of steps
	Reason  string `json:"reason"`          // Why the run was started
	Error   string `json:"error,omitempty"` // Set when State is error
}

// MetricsUpdated announces that a new snapshot is being served
type MetricsUpdated struct {
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
	Completed time.Time `json:"completed"`
}

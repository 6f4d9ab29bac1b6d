package watcher

import (
	"context"
	"time"

	"github.com/ritzau/trade-graph/pkg/logging"
)

// Debouncer batches rapid file system events to avoid excessive re-analysis.
// A batch is flushed once the input has been quiet for quietPeriod, or at the
// latest maxWait after its first event.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

// run merges each batch into one event carrying the type of the last change
// and every distinct path, in order of first appearance.
func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	var (
		pending  *ChangeEvent
		seen     map[string]bool
		quiet    <-chan time.Time
		deadline <-chan time.Time
	)

	flush := func() {
		if pending != nil {
			logging.Debug("flushing accumulated events", "type", pending.Type, "paths", len(pending.Paths))
			pending.Timestamp = time.Now()
			d.output <- *pending
		}
		pending, seen = nil, nil
		quiet, deadline = nil, nil
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}

			if pending == nil {
				pending = &ChangeEvent{}
				seen = make(map[string]bool)
				deadline = time.After(d.maxWait)
			}
			pending.Type = event.Type
			for _, p := range event.Paths {
				if !seen[p] {
					seen[p] = true
					pending.Paths = append(pending.Paths, p)
				}
			}
			quiet = time.After(d.quietPeriod)

		case <-quiet:
			flush()

		case <-deadline:
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}

package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ritzau/trade-graph/pkg/logging"
)

// ChangeType represents the type of file change detected
type ChangeType int

const (
	ChangeTypeWritten ChangeType = iota // created or rewritten
	ChangeTypeRemoved                   // removed or renamed away
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeWritten:
		return "written"
	case ChangeTypeRemoved:
		return "removed"
	}
	return "unknown"
}

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// FileWatcher watches a single edge file for changes. The parent directory is
// watched so that editors replacing the file through a rename are noticed.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	events  chan ChangeEvent
}

// NewFileWatcher creates a new file system watcher for the given file
func NewFileWatcher(path string) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: watcher,
		path:    filepath.Clean(abs),
		events:  make(chan ChangeEvent, 100),
	}, nil
}

// Start begins watching for file changes. Events stop and the channel is
// closed when ctx is cancelled.
func (fw *FileWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(fw.path)
	if err := fw.watcher.Add(dir); err != nil {
		fw.watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	logging.New("watcher").Info("started watching edge file", "path", fw.path)

	go fw.processEvents(ctx)
	return nil
}

// processEvents forwards events concerning the watched file
func (fw *FileWatcher) processEvents(ctx context.Context) {
	logger := logging.New("watcher")
	defer close(fw.events)
	defer fw.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != fw.path {
				continue
			}

			var changeType ChangeType
			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
				changeType = ChangeTypeWritten
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				changeType = ChangeTypeRemoved
			default:
				continue
			}

			logger.Log(ctx, logging.LevelTrace, "file event", "path", event.Name, "op", event.Op.String())
			select {
			case fw.events <- ChangeEvent{Type: changeType, Paths: []string{event.Name}, Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logger.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

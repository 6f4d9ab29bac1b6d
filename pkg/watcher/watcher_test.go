package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan ChangeEvent, timeout time.Duration) (ChangeEvent, bool) {
	t.Helper()
	select {
	case ev, ok := <-ch:
		return ev, ok
	case <-time.After(timeout):
		t.Fatal("timed out waiting for event")
		return ChangeEvent{}, false
	}
}

func TestDebouncer_MergesBurst(t *testing.T) {
	input := make(chan ChangeEvent)
	d := NewDebouncer(input, 50*time.Millisecond, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	input <- ChangeEvent{Type: ChangeTypeWritten, Paths: []string{"a.csv"}}
	input <- ChangeEvent{Type: ChangeTypeRemoved, Paths: []string{"a.csv"}}
	input <- ChangeEvent{Type: ChangeTypeWritten, Paths: []string{"a.csv", "b.csv"}}

	ev, ok := receive(t, d.Output(), time.Second)
	require.True(t, ok)
	assert.Equal(t, ChangeTypeWritten, ev.Type, "last change wins")
	assert.Equal(t, []string{"a.csv", "b.csv"}, ev.Paths)

	select {
	case extra := <-d.Output():
		t.Errorf("Expected a single flush, got extra event %+v", extra)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDebouncer_MaxWait(t *testing.T) {
	input := make(chan ChangeEvent)
	d := NewDebouncer(input, 80*time.Millisecond, 200*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	// Keep the input busy so the quiet period never expires
	stop := time.After(600 * time.Millisecond)
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()

	start := time.Now()
	for {
		select {
		case input <- ChangeEvent{Type: ChangeTypeWritten, Paths: []string{"a.csv"}}:
			<-tick.C
			continue
		case ev := <-d.Output():
			assert.Equal(t, ChangeTypeWritten, ev.Type)
			assert.Less(t, time.Since(start), 500*time.Millisecond)
			return
		case <-stop:
			t.Fatal("max wait did not force a flush")
		}
	}
}

func TestDebouncer_FlushOnClose(t *testing.T) {
	input := make(chan ChangeEvent, 1)
	d := NewDebouncer(input, time.Hour, time.Hour)
	d.Start(context.Background())

	input <- ChangeEvent{Type: ChangeTypeRemoved, Paths: []string{"a.csv"}}
	close(input)

	ev, ok := receive(t, d.Output(), time.Second)
	require.True(t, ok)
	assert.Equal(t, ChangeTypeRemoved, ev.Type)

	_, ok = receive(t, d.Output(), time.Second)
	assert.False(t, ok, "output must be closed after input closes")
}

func TestAnalyzeChanges(t *testing.T) {
	written := AnalyzeChanges(ChangeEvent{Type: ChangeTypeWritten, Paths: []string{"a.csv"}})
	assert.True(t, written.NeedAnalysis)
	assert.Equal(t, []string{"a.csv"}, written.ChangedFiles)

	removed := AnalyzeChanges(ChangeEvent{Type: ChangeTypeRemoved, Paths: []string{"a.csv"}})
	assert.False(t, removed.NeedAnalysis)
	assert.Equal(t, "edge file removed", removed.Reason)
}

func TestFileWatcher_DetectsWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edges.csv")
	require.NoError(t, os.WriteFile(path, []byte("exporter,importer,tiv\n"), 0o644))

	fw, err := NewFileWatcher(path)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, fw.Start(ctx))

	// Unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.csv"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("exporter,importer,tiv\nA,B,1\n"), 0o644))

	ev, ok := receive(t, fw.Events(), 2*time.Second)
	require.True(t, ok)
	assert.Equal(t, ChangeTypeWritten, ev.Type)
	assert.Equal(t, path, ev.Paths[0])

	cancel()
	for range fw.Events() {
	}
}

func TestFileWatcher_MissingDirectory(t *testing.T) {
	fw, err := NewFileWatcher(filepath.Join(t.TempDir(), "missing", "edges.csv"))
	require.NoError(t, err)
	assert.Error(t, fw.Start(context.Background()))
}

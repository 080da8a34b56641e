package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresPaths(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := New(nil, 0, nil, logger)
	assert.Error(t, err)
}

func TestDebounceBatchesEvents(t *testing.T) {
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()
	target := filepath.Join(dir, "in.png")
	other := filepath.Join(dir, "other.png")

	w, err := New([]string{target}, 50*time.Millisecond, nil, logger)
	require.NoError(t, err)
	defer w.watcher.Close()

	w.handleEvent(fsnotify.Event{Name: target, Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: target, Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: other, Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: target, Op: fsnotify.Chmod})

	assert.Empty(t, w.due(time.Now()), "still inside the window")

	paths := w.due(time.Now().Add(time.Second))
	assert.Equal(t, []string{target}, paths)
	assert.Empty(t, w.due(time.Now().Add(time.Second)))

	s := w.Stats()
	assert.Equal(t, 2, s.Events)
	assert.Equal(t, 1, s.Batches)
	assert.Equal(t, target, s.LastPath)
}

func TestRunReportsWrites(t *testing.T) {
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()
	target := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(target, []byte("a"), 0o644))

	changed := make(chan []string, 1)
	w, err := New([]string{target}, 30*time.Millisecond, func(_ context.Context, paths []string) {
		changed <- paths
	}, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(target, []byte("b"), 0o644))

	select {
	case paths := <-changed:
		assert.Equal(t, []string{target}, paths)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

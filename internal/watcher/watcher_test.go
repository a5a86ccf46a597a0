package watcher_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/ofxkit/internal/watcher"
)

func start(t *testing.T, cfg watcher.Config) <-chan []string {
	t.Helper()
	w, err := watcher.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })
	ch, err := w.Start()
	require.NoError(t, err)
	return ch
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jan.ofx")
	ch := start(t, watcher.Config{Dir: dir, DebounceDur: 50 * time.Millisecond})

	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("v%d", i)), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case batch := <-ch:
		assert.Equal(t, []string{path}, batch)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected a batch")
	}

	select {
	case batch := <-ch:
		t.Fatalf("unexpected second batch %v", batch)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcher_BatchesFilesAndFiltersExtensions(t *testing.T) {
	dir := t.TempDir()
	ch := start(t, watcher.Config{Dir: dir, DebounceDur: 50 * time.Millisecond})

	for _, name := range []string{"b.QFX", "a.ofx", "notes.txt", "a.ofx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	select {
	case batch := <-ch:
		assert.Equal(t, []string{filepath.Join(dir, "a.ofx"), filepath.Join(dir, "b.QFX")}, batch)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected a batch")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	ch := start(t, watcher.Config{Dir: dir, DebounceDur: 20 * time.Millisecond, Extensions: []string{".ofx"}})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.qfx"), []byte("x"), 0644))
	select {
	case batch := <-ch:
		t.Fatalf("unexpected batch %v", batch)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_MissingDir(t *testing.T) {
	w, err := watcher.New(watcher.DefaultConfig(filepath.Join(t.TempDir(), "nope")))
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()
	_, err = w.Start()
	require.Error(t, err)
}

func TestWatcher_StopTwice(t *testing.T) {
	w, err := watcher.New(watcher.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	_, err = w.Start()
	require.NoError(t, err)

	require.NoError(t, w.Stop())
	require.NotPanics(t, func() { assert.NoError(t, w.Stop()) })
}

package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectEvents(t *testing.T, w *Watcher, wait time.Duration) map[string]Op {
	t.Helper()
	got := make(map[string]Op)
	deadline := time.After(wait)
	for {
		select {
		case evt, ok := <-w.Events():
			if !ok {
				return got
			}
			got[evt.Path] = evt.Op
		case <-deadline:
			return got
		}
	}
}

func TestWatcher_DetectsWriteWithPatternFilter(t *testing.T) {
	dir := t.TempDir()
	modPath := filepath.Join(dir, "Module1.bas")
	require.NoError(t, os.WriteFile(modPath, []byte("Sub Foo()\nEnd Sub\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	w, err := New(Config{
		BaseDir:  dir,
		Patterns: []string{"**/*.bas", "**/*.cls", "**/*.frm"},
		Debounce: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(modPath, []byte("Sub Foo()\n' edited\nEnd Sub\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("y"), 0644))

	got := collectEvents(t, w, time.Second)
	assert.Contains(t, got, "Module1.bas")
	assert.NotContains(t, got, "notes.txt")

	cancel()
	<-done
}

func TestWatcher_CoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	modPath := filepath.Join(dir, "Module1.bas")

	w, err := New(Config{
		BaseDir:  dir,
		Patterns: []string{"**/*.bas"},
		Debounce: 150 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(modPath, []byte("Sub Foo()\nEnd Sub\n"), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	var count int
	deadline := time.After(time.Second)
loop:
	for {
		select {
		case _, ok := <-w.Events():
			if !ok {
				break loop
			}
			count++
		case <-deadline:
			break loop
		}
	}
	assert.Equal(t, 1, count, "burst of writes to one file should coalesce into a single event")
}

func TestWatcher_RemoveEvent(t *testing.T) {
	dir := t.TempDir()
	modPath := filepath.Join(dir, "Old.cls")
	require.NoError(t, os.WriteFile(modPath, []byte("Sub A()\nEnd Sub\n"), 0644))

	w, err := New(Config{
		BaseDir:  dir,
		Patterns: []string{"**/*.cls"},
		Debounce: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.Remove(modPath))

	got := collectEvents(t, w, time.Second)
	require.Contains(t, got, "Old.cls")
	assert.Equal(t, OpRemove, got["Old.cls"])
}

func TestWatcher_NewSubdirectoryIsWatched(t *testing.T) {
	dir := t.TempDir()

	w, err := New(Config{
		BaseDir:  dir,
		Patterns: []string{"**/*.bas"},
		Debounce: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	sub := filepath.Join(dir, "App", "Utils")
	require.NoError(t, os.MkdirAll(sub, 0755))
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "Deep.bas"), []byte("Sub D()\nEnd Sub\n"), 0644))

	got := collectEvents(t, w, 2*time.Second)
	assert.Contains(t, got, filepath.Join("App", "Utils", "Deep.bas"))
}

func TestMergeOps(t *testing.T) {
	assert.Equal(t, OpCreate, merge(OpCreate, OpWrite, true))
	assert.Equal(t, OpRemove, merge(OpWrite, OpRemove, true))
	assert.Equal(t, OpWrite, merge(OpRemove, OpCreate, true))
	assert.Equal(t, OpWrite, merge(0, OpWrite, false))
}

func TestCoalesce_ChmodIsNoise(t *testing.T) {
	_, ok := coalesce(fsnotify.Event{Name: "x", Op: fsnotify.Chmod})
	assert.False(t, ok)
}

package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcher_RegeneratesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

	regenerated := make(chan struct{}, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w := New([]string{path}, 20*time.Millisecond, func() error {
		select {
		case regenerated <- struct{}{}:
		default:
		}
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to install before the write.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`{"plays":[]}`), 0644))

	select {
	case <-regenerated:
	case <-ctx.Done():
		t.Fatal("watcher never regenerated after input write")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

	regenerated := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := New([]string{path}, 20*time.Millisecond, func() error {
		select {
		case regenerated <- struct{}{}:
		default:
		}
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	// A sibling file in the same directory must not trigger regeneration.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0644))

	select {
	case <-regenerated:
		t.Fatal("regenerated for an unrelated file")
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_CancelStopsRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	w := New([]string{path}, 20*time.Millisecond, func() error { return nil })

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

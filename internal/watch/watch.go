// Package watch regenerates the report artifacts whenever the input files
// change.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// Watcher re-runs a generate function when any watched input is written.
// Bursts of writes within the debounce window collapse into one run.
type Watcher struct {
	paths    []string
	debounce time.Duration
	generate func() error
}

func New(paths []string, debounce time.Duration, generate func() error) *Watcher {
	return &Watcher{paths: paths, debounce: debounce, generate: generate}
}

// Run blocks until ctx is cancelled or SIGINT/SIGTERM arrives. A failed
// regeneration is logged, not fatal: the next change gets another chance.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the parent directories: editors and automation runs replace
	// files by rename, which drops a watch held on the file itself.
	watched := make(map[string]bool, len(w.paths))
	targets := make(map[string]bool, len(w.paths))
	for _, p := range w.paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		targets[abs] = true

		dir := filepath.Dir(abs)
		if !watched[dir] {
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			watched[dir] = true
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.eventLoop(ctx, watcher, targets) })
	g.Go(func() error { return waitSignals(ctx, cancel) })
	return g.Wait()
}

// eventLoop processes filesystem change events, debouncing regeneration.
func (w *Watcher) eventLoop(ctx context.Context, watcher *fsnotify.Watcher, targets map[string]bool) error {
	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !targets[abs] {
				continue
			}
			log.Printf("input changed: %s", event.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			if err := w.generate(); err != nil {
				log.Printf("regenerate failed: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("fsnotify error: %v", err)
		}
	}
}

// waitSignals blocks until a shutdown signal or cancellation.
func waitSignals(ctx context.Context, cancel context.CancelFunc) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
		return nil
	case sig := <-sigCh:
		log.Printf("received signal=%s, shutting down", sig)
		cancel()
		return nil
	}
}

// Package watcher triggers reindexing when the record file changes.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/kbquery/internal/core/ports/driven"
	"github.com/custodia-labs/kbquery/internal/logger"
)

// DefaultDebounce coalesces the burst of events an editor or atomic rename emits.
const DefaultDebounce = 500 * time.Millisecond

// Ensure FSNotifyWatcher implements the interface.
var _ driven.SourceWatcher = (*FSNotifyWatcher)(nil)

// FSNotifyWatcher implements driven.SourceWatcher using fsnotify.
// It watches the file's directory so replace-by-rename is seen too.
type FSNotifyWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration

	stopOnce sync.Once
}

// NewFSNotifyWatcher creates a new file watcher. A non-positive debounce
// uses DefaultDebounce.
func NewFSNotifyWatcher(debounce time.Duration) (*FSNotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &FSNotifyWatcher{watcher: w, debounce: debounce}, nil
}

// Watch emits path once per settled burst of changes to it.
func (w *FSNotifyWatcher) Watch(ctx context.Context, path string) (<-chan string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if err := w.watcher.Add(filepath.Dir(abs)); err != nil {
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	events := make(chan string, 1)

	go func() {
		defer close(events)

		var (
			timer   *time.Timer
			pending <-chan time.Time
		)
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs || !relevant(event.Op) {
					continue
				}
				logger.Debug("watcher: %s %s", event.Op, event.Name)
				if timer == nil {
					timer = time.NewTimer(w.debounce)
				} else {
					timer.Reset(w.debounce)
				}
				pending = timer.C
			case <-pending:
				pending = nil
				select {
				case events <- path:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("watcher: %v", err)
			}
		}
	}()

	return events, nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *FSNotifyWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		err = w.watcher.Close()
	})
	return err
}

func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Create) || op.Has(fsnotify.Write) || op.Has(fsnotify.Rename)
}

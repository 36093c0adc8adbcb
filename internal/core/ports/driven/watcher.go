package driven

import "context"

// SourceWatcher emits an event whenever the watched file changes.
type SourceWatcher interface {
	// Watch starts monitoring path. The channel closes when ctx is done.
	Watch(ctx context.Context, path string) (<-chan string, error)

	// Stop stops the watcher.
	Stop() error
}

package registry

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher detects external edits to a registry's backing file (an
// operator hand-editing the JSON, or a second process sharing the same
// path) and reloads the in-memory state to match: a start/stop
// goroutine running an fsnotify watch on the registry path.
type Watcher struct {
	registry *Registry
	fs       *fsnotify.Watcher

	stopCh  chan struct{}
	stopped chan struct{}
}

// NewWatcher builds a Watcher over reg's backing file. Callers observe
// the effect of a reload through reg.Nodes()/reg.Find as usual — the
// watcher has no callback surface of its own.
func NewWatcher(reg *Registry) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(reg.path)
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	return &Watcher{
		registry: reg,
		fs:       fsWatcher,
		stopCh:   make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// Start begins the background watch goroutine. Atomic registry writes
// go through a temp-file rename (see writeDocument), which fsnotify
// reports as Create on the final path — Write is also handled, for
// registries edited in place by an external tool.
func (w *Watcher) Start(ctx context.Context) {
	go func() {
		defer close(w.stopped)

		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			case event, ok := <-w.fs.Events:
				if !ok {
					return
				}
				if event.Name != w.registry.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				_ = w.registry.Reload()
			case _, ok := <-w.fs.Errors:
				if !ok {
					return
				}
			}
		}
	}()
}

// Stop signals the watch goroutine to exit and releases the underlying
// fsnotify watcher.
func (w *Watcher) Stop() {
	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}
	<-w.stopped
	w.fs.Close()
}

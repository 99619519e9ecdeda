package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/docmap/pkg/core"
)

// Watch reports changes to records whose ID matches pattern (doublestar
// syntax, empty for all). The channel is closed when ctx is done.
func (b *Backend) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern: %s", pattern)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := b.addRecursive(watcher, b.Path); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	events := make(chan core.Event, 64)
	b.setWatcherActive(true)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(events)
		defer b.setWatcherActive(false)
		defer watcher.Close()
		return b.watchLoop(ctx, watcher, pattern, events)
	}, lifecycle.WithErrorHandler(b.reportError))

	return events, nil
}

func (b *Backend) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, pattern string, events chan<- core.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			e, ok := b.translate(watcher, ev, pattern)
			if !ok {
				continue
			}
			select {
			case events <- e:
			case <-ctx.Done():
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			b.reportError(err)
		}
	}
}

// translate maps a filesystem event to a record event.
func (b *Backend) translate(watcher *fsnotify.Watcher, ev fsnotify.Event, pattern string) (core.Event, bool) {
	if b.config.Logger != nil {
		b.config.Logger.Debug("fs event", "name", ev.Name, "op", ev.Op.String())
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if !b.skipDir(filepath.Base(ev.Name)) {
				if err := b.addRecursive(watcher, ev.Name); err != nil {
					b.reportError(err)
				}
			}
			return core.Event{}, false
		}
	}

	id, _, ok := b.resolveID(ev.Name)
	if !ok {
		return core.Event{}, false
	}
	if pattern != "" {
		if match, _ := doublestar.Match(pattern, id); !match {
			return core.Event{}, false
		}
	}

	var typ core.EventType
	switch {
	case ev.Has(fsnotify.Create):
		typ = core.EventCreate
	case ev.Has(fsnotify.Write):
		typ = core.EventModify
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		typ = core.EventDelete
	default:
		return core.Event{}, false
	}

	return core.Event{Type: typ, ID: id, Timestamp: time.Now().Unix()}, true
}

func (b *Backend) addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != b.Path && b.skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (b *Backend) reportError(err error) {
	if b.config.Logger != nil {
		b.config.Logger.Error("watcher error", "error", err)
	}
	if b.config.ErrorHandler != nil {
		b.config.ErrorHandler(err)
	}
}

func (b *Backend) setWatcherActive(active bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.watcherActive = active
}

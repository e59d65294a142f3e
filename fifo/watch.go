// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fifo

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports removal of the pipes in a Pair.
//
// An open FIFO keeps working after its path is unlinked, but producers
// opening the path afterwards reach a different pipe (or nothing). A
// session draining the old inode would wait forever, so the relay
// watches the directory and terminates when either pipe disappears.
type Watcher struct {
	pair      *Pair
	onRemoved func(path string)
	logger    *slog.Logger

	watcher  *fsnotify.Watcher
	reported map[string]bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Watch starts watching pair.Directory. onRemoved is called from the
// watcher goroutine, at most once per pipe path, when that pipe is
// removed or renamed away. logger may be nil.
func Watch(pair *Pair, onRemoved func(path string), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fifo: creating watcher: %w", err)
	}
	if err := fsw.Add(pair.Directory); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("fifo: watching %s: %w", pair.Directory, err)
	}

	w := &Watcher{
		pair:      pair,
		onRemoved: onRemoved,
		logger:    logger,
		watcher:   fsw,
		reported:  make(map[string]bool),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			path := filepath.Clean(event.Name)
			if path != w.pair.In && path != w.pair.Out {
				continue
			}
			if w.reported[path] {
				continue
			}
			w.reported[path] = true
			w.logger.Debug("pipe removed", "path", path, "op", event.Op.String())
			w.onRemoved(path)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("pipe watcher error", "error", err)
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit. After
// Close returns, onRemoved is not called again.
func (w *Watcher) Close() error {
	w.stopOnce.Do(func() { close(w.stop) })
	err := w.watcher.Close()
	<-w.done
	return err
}

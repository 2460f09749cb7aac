// Copyright (C) 2025 TraceWorks AI (oss@traceworks.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package corpus

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

// warmInterval bounds how often filesystem events trigger a background
// reconcile. Events always mark the memo stale; the limiter only gates the
// proactive rebuild, so a burst of writes costs one pass.
const warmInterval = 2 * time.Second

// Watcher invalidates the Manager's memo when trace files change on disk,
// and opportunistically rebuilds the snapshot in the background so the
// next read is served warm.
type Watcher struct {
	manager *Manager
	fsw     *fsnotify.Watcher
	limiter *rate.Limiter
	logger  *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewWatcher creates a Watcher over the manager's corpus root and all of
// its non-hidden subdirectories. Call Start to begin receiving events.
func NewWatcher(m *Manager, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		manager: m,
		fsw:     fsw,
		limiter: rate.NewLimiter(rate.Every(warmInterval), 1),
		logger:  logger,
		done:    make(chan struct{}),
	}
	if err := w.watchTree(m.Root()); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Start launches the event loop. It returns immediately; the loop stops
// when ctx is cancelled or Close is called.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.loop(ctx)
}

// Close stops the event loop and releases the underlying watcher.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
	})
	w.wg.Wait()
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("corpus watch error", "error", err)
		}
	}
}

// handleEvent reacts to one filesystem event. Hidden names are ignored,
// which covers the metadata index, the label store, and their temp files.
func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") {
		return
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.watchTree(ev.Name); err != nil {
				w.logger.Warn("corpus watch add failed", "path", ev.Name, "error", err)
			}
			w.invalidate(ctx)
			return
		}
	}

	if !w.manager.matches(base) {
		return
	}
	if !ev.Has(fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename) {
		return
	}

	w.logger.Debug("corpus changed", "path", ev.Name, "op", ev.Op.String())
	w.invalidate(ctx)
}

// invalidate marks the memo stale and, rate permitting, rebuilds it in the
// background.
func (w *Watcher) invalidate(ctx context.Context) {
	w.manager.Invalidate()
	if !w.limiter.Allow() {
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if _, err := w.manager.Snapshot(ctx); err != nil {
			w.logger.Warn("background reconcile failed", "error", err)
		}
	}()
}

// watchTree registers root and every non-hidden subdirectory with the
// underlying watcher.
func (w *Watcher) watchTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			w.logger.Warn("corpus watch skip", "path", p, "error", err)
			return fs.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			w.logger.Warn("corpus watch add failed", "path", p, "error", err)
		}
		return nil
	})
}

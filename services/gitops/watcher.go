// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package gitops

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SourceWatcher watches source trees and reports changed files after a
// quiet period, so a burst of editor writes triggers one regeneration.
//
// Thread Safety: a SourceWatcher runs one goroutine; Close is safe to call
// once from any goroutine.
type SourceWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	exts     map[string]struct{}
}

// NewSourceWatcher creates a watcher over the given roots.
//
// Description:
//
//	Every directory under each root is registered (fsnotify does not watch
//	recursively). Newly created directories are added as events for them
//	arrive. Only files with the given extensions are reported.
func NewSourceWatcher(roots []string, extensions []string, debounce time.Duration) (*SourceWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("gitops: creating watcher: %w", err)
	}

	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		exts[ext] = struct{}{}
	}

	sw := &SourceWatcher{
		watcher:  w,
		debounce: debounce,
		exts:     exts,
	}

	for _, root := range roots {
		if err := sw.addRecursive(root); err != nil {
			w.Close()
			return nil, err
		}
	}
	return sw, nil
}

func (sw *SourceWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		switch d.Name() {
		case ".git", MetadataDir, "venv", "node_modules", "__pycache__":
			return filepath.SkipDir
		}
		if err := sw.watcher.Add(path); err != nil {
			slog.Warn("failed to watch directory",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
		return nil
	})
}

// Watch blocks, invoking onChange with the batch of changed files after
// each quiet period. Returns when ctx is canceled or the watcher fails.
func (sw *SourceWatcher) Watch(ctx context.Context, onChange func(files []string)) error {
	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if len(pending) == 0 {
			return
		}
		files := make([]string, 0, len(pending))
		for f := range pending {
			files = append(files, f)
		}
		pending = make(map[string]struct{})
		onChange(files)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-sw.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) {
				// New directories need their own watch.
				if err := sw.addRecursive(event.Name); err == nil {
					slog.Debug("watching new path", slog.String("path", event.Name))
				}
			}
			if !sw.interesting(event) {
				continue
			}
			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(sw.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(sw.debounce)
			}

		case <-timerC:
			flush()

		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

func (sw *SourceWatcher) interesting(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	if strings.Contains(event.Name, string(filepath.Separator)+MetadataDir+string(filepath.Separator)) {
		return false
	}
	_, ok := sw.exts[filepath.Ext(event.Name)]
	return ok
}

// Close releases the underlying watcher.
func (sw *SourceWatcher) Close() error {
	return sw.watcher.Close()
}

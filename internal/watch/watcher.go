// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package watch re-runs a callback when a file changes, throttled by a
// token-bucket rate limiter so editors that write in bursts trigger one
// reload instead of many.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/tombee/conditional/internal/log"
	"github.com/tombee/conditional/internal/metrics"
)

// eventTypes maps fsnotify operations to event type labels.
var eventTypes = []struct {
	op   fsnotify.Op
	name string
}{
	{fsnotify.Create, "created"},
	{fsnotify.Write, "modified"},
	{fsnotify.Remove, "deleted"},
	{fsnotify.Rename, "renamed"},
}

// Options configures a Watcher.
type Options struct {
	// MinInterval is the minimum time between reloads. Zero disables throttling.
	MinInterval time.Duration

	// Burst is the number of reloads allowed back to back. Default: 1
	Burst int

	// Logger receives watcher events. Default: discard
	Logger *slog.Logger
}

// Watcher watches a single file.
type Watcher struct {
	path    string
	fsw     *fsnotify.Watcher
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a watcher for path. The parent directory is watched so
// editors that replace the file on save are followed.
func New(path string, opts Options) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(absPath), err)
	}

	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}

	return &Watcher{
		path:    absPath,
		fsw:     fsw,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.With(slog.String("component", "watch"), slog.String("path", absPath)),
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Run calls onChange for every change to the file until ctx is cancelled.
// Changes arriving faster than the limiter allows are coalesced into one
// trailing reload. Errors from onChange are logged and counted; they do not
// stop the watcher.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context) error) error {
	defer w.fsw.Close()

	var trailing <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("watcher stopped")
			return nil

		case <-trailing:
			trailing = nil
			w.reload(ctx, onChange)

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			eventType, relevant := w.classify(event)
			if !relevant {
				continue
			}
			metrics.RecordWatchEvent(eventType)
			w.logger.Debug("file event", log.EventKey, eventType)

			if eventType == "deleted" || eventType == "renamed" {
				// Wait for the replacement to be created
				continue
			}
			if trailing != nil {
				continue
			}
			if w.limiter.Allow() {
				w.reload(ctx, onChange)
				continue
			}
			metrics.RecordWatchRateLimited()
			trailing = time.After(w.limiter.Reserve().Delay())

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", log.Error(err))
		}
	}
}

func (w *Watcher) classify(event fsnotify.Event) (string, bool) {
	if filepath.Clean(event.Name) != w.path {
		return "", false
	}
	for _, et := range eventTypes {
		if event.Has(et.op) {
			return et.name, true
		}
	}
	// Chmod only
	return "", false
}

func (w *Watcher) reload(ctx context.Context, onChange func(context.Context) error) {
	if err := onChange(ctx); err != nil {
		metrics.RecordWatchReloadError()
		w.logger.Warn("reload failed", log.Error(err))
	}
}

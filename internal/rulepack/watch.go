package rulepack

import (
	"context"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the engine whenever a pack file changes, debounced so
// editor write bursts trigger a single reload. It blocks until ctx is
// cancelled.
func (e *Engine) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(e.dir); err != nil {
		return err
	}

	const debounce = 300 * time.Millisecond
	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, ".yaml") && !strings.HasSuffix(ev.Name, ".yml") {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if e.log != nil {
				e.log.Warnw("rule pack watcher error", "err", err)
			}
		case <-fire:
			if err := e.Reload(); err != nil && e.log != nil {
				e.log.Warnw("rule pack reload failed", "err", err)
			}
		}
	}
}

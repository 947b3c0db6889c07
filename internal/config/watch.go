package config

import (
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher polls file modification times and calls onChange for files that
// changed since the previous scan.
type Watcher struct {
	Paths    []string
	Interval time.Duration

	onChange  func(string)
	stopCh    chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
	lastMTime map[string]time.Time
}

// NewWatcher creates a watcher for the given paths.
func NewWatcher(paths []string, interval time.Duration, onChange func(string)) *Watcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Watcher{
		Paths:     paths,
		Interval:  interval,
		onChange:  onChange,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
		lastMTime: make(map[string]time.Time),
	}
}

// WatchManager calls reload whenever m's file changes; a nil reload means
// m.Reload. Failures are logged and the previous snapshot stays active.
func WatchManager(m *Manager, interval time.Duration, logger *slog.Logger, reload func() error) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if reload == nil {
		reload = m.Reload
	}
	return NewWatcher([]string{m.Path()}, interval, func(path string) {
		if err := reload(); err != nil {
			logger.Warn("config reload failed; keeping previous snapshot", "path", path, "error", err)
		}
	})
}

// Start primes the mtime cache synchronously, then polls in a goroutine.
func (w *Watcher) Start() {
	w.scanAll(true)
	ticker := time.NewTicker(w.Interval)
	go func() {
		defer close(w.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.scanAll(false)
			case <-w.stopCh:
				return
			}
		}
	}()
}

// Stop terminates polling and waits for the goroutine to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.done
}

// Poll runs one scan immediately; Start must not be running concurrently.
func (w *Watcher) Poll() {
	w.scanAll(false)
}

func (w *Watcher) scanAll(prime bool) {
	for _, p := range w.Paths {
		fi, err := os.Stat(p)
		if err != nil {
			// missing file: keep the last known mtime and try again later
			continue
		}
		mt := fi.ModTime()
		last, ok := w.lastMTime[p]
		if !ok {
			w.lastMTime[p] = mt
			continue
		}
		if !mt.Equal(last) {
			w.lastMTime[p] = mt
			if !prime && w.onChange != nil {
				w.onChange(p)
			}
		}
	}
}

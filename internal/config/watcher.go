package config

import (
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher polls a file for changes and calls a callback with its freshly
// parsed contents when the file's modification time (and content hash)
// advances. It is used by the Menu Catalog for hot reload (spec §4.1): the
// catalog's source file is re-parsed whenever its mtime is newer than the
// cached one, and readers observe an atomic swap.
//
// It uses polling rather than fsnotify to keep the dependency surface
// minimal, mirroring the original config watcher this type is adapted from.
type Watcher struct {
	path     string
	interval time.Duration
	parse    func([]byte) (any, error)
	onChange func(old, new any)

	mu      sync.Mutex
	current any

	done     chan struct{}
	stopOnce sync.Once

	lastMtime time.Time
	lastHash  [sha256.Size]byte
}

// NewWatcher creates a file watcher for path. parse decodes the raw file
// bytes into a domain value (e.g., a *menu.Catalog snapshot); onChange is
// invoked with the previous and new parsed values whenever the file
// changes and reparses successfully. The initial parse happens
// synchronously so NewWatcher returns ready to serve via [Watcher.Current].
func NewWatcher(path string, interval time.Duration, parse func([]byte) (any, error), onChange func(old, new any)) (*Watcher, error) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	w := &Watcher{
		path:     path,
		interval: interval,
		parse:    parse,
		onChange: onChange,
		done:     make(chan struct{}),
	}

	val, hash, mtime, err := w.loadAndHash()
	if err != nil {
		return nil, fmt.Errorf("config: watcher initial load: %w", err)
	}
	w.current = val
	w.lastHash = hash
	w.lastMtime = mtime

	go w.poll()
	return w, nil
}

// Current returns the most recently loaded valid value.
func (w *Watcher) Current() any {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Stop stops the background poller.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
}

func (w *Watcher) poll() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.check()
		}
	}
}

func (w *Watcher) check() {
	info, err := os.Stat(w.path)
	if err != nil {
		slog.Warn("config watcher: cannot stat file", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	mtime := w.lastMtime
	w.mu.Unlock()

	if info.ModTime().Equal(mtime) {
		return
	}

	val, hash, newMtime, err := w.loadAndHash()
	if err != nil {
		slog.Warn("config watcher: failed to load file", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	if hash == w.lastHash {
		// File was touched but content is identical.
		w.lastMtime = newMtime
		w.mu.Unlock()
		return
	}

	old := w.current
	w.current = val
	w.lastHash = hash
	w.lastMtime = newMtime
	w.mu.Unlock()

	slog.Info("config watcher: file reloaded", "path", w.path)

	if w.onChange != nil {
		w.onChange(old, val)
	}
}

// loadAndHash reads the file, parses it, and returns the parsed value
// alongside the file's SHA-256 hash and modification time. If parsing
// fails, it returns an error; the caller keeps the previously loaded value.
func (w *Watcher) loadAndHash() (any, [sha256.Size]byte, time.Time, error) {
	var zeroHash [sha256.Size]byte

	f, err := os.Open(w.path)
	if err != nil {
		return nil, zeroHash, time.Time{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, zeroHash, time.Time{}, err
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, zeroHash, time.Time{}, err
	}

	hash := sha256.Sum256(data)

	val, err := w.parse(data)
	if err != nil {
		return nil, zeroHash, time.Time{}, err
	}

	return val, hash, info.ModTime(), nil
}

package menu

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/melpes/voicekiosk/internal/config"
)

// parseDocument decodes raw YAML bytes into a Document.
func parseDocument(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("menu: parse document: %w", err)
	}
	return doc, nil
}

// Load reads and parses the menu document at path into a ready [Catalog].
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("menu: read %s: %w", path, err)
	}
	doc, err := parseDocument(data)
	if err != nil {
		return nil, err
	}
	return New(doc)
}

// Reloader watches a menu document on disk and keeps a [Catalog] in sync
// with it (spec §4.1 "Hot reload"): the catalog's source is re-parsed
// whenever its modification timestamp advances, and readers observe an
// atomic swap — never a half-updated index.
type Reloader struct {
	catalog *Catalog
	watcher *config.Watcher
}

// Watch builds a [Catalog] from path and starts polling it for changes
// every interval. The returned [Catalog] is updated in place; callers hold
// onto the same pointer for the lifetime of the reloader.
func Watch(path string, interval time.Duration) (*Reloader, error) {
	catalog, err := Load(path)
	if err != nil {
		return nil, err
	}

	w, err := config.NewWatcher(path, interval,
		func(data []byte) (any, error) {
			doc, err := parseDocument(data)
			if err != nil {
				return nil, err
			}
			return buildSnapshot(doc)
		},
		func(_, newVal any) {
			snap := newVal.(*snapshot)
			catalog.mu.Lock()
			catalog.snap = snap
			catalog.mu.Unlock()
		},
	)
	if err != nil {
		return nil, err
	}

	return &Reloader{catalog: catalog, watcher: w}, nil
}

// Catalog returns the live, auto-refreshing catalog.
func (r *Reloader) Catalog() *Catalog { return r.catalog }

// Stop stops watching for changes.
func (r *Reloader) Stop() { r.watcher.Stop() }

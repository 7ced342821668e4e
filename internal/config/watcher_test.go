package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "menu.txt")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	changed := make(chan string, 4)
	w, err := NewWatcher(path, 10*time.Millisecond, func(b []byte) (any, error) {
		return string(b), nil
	}, func(_, new any) {
		changed <- new.(string)
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	if got := w.Current().(string); got != "v1" {
		t.Fatalf("Current() = %q, want v1", got)
	}

	// Ensure a distinguishable mtime on filesystems with coarse resolution.
	time.Sleep(20 * time.Millisecond)
	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case v := <-changed:
		if v != "v2" {
			t.Fatalf("onChange new = %q, want v2", v)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for reload")
	}

	if got := w.Current().(string); got != "v2" {
		t.Fatalf("Current() = %q, want v2", got)
	}
}

func TestWatcherKeepsOldOnParseError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "menu.txt")
	if err := os.WriteFile(path, []byte("ok"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	w, err := NewWatcher(path, 10*time.Millisecond, func(b []byte) (any, error) {
		if string(b) == "ok" {
			return "ok", nil
		}
		return nil, os.ErrInvalid
	}, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	time.Sleep(20 * time.Millisecond)
	if err := os.WriteFile(path, []byte("bad"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if got := w.Current().(string); got != "ok" {
		t.Fatalf("Current() = %q, want ok (parse failure should not clobber last-good value)", got)
	}
}

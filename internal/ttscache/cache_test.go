package ttscache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touchFile(t *testing.T, dir, name string, size int64) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, make([]byte, size), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return p
}

func TestKeyStableAcrossVoiceCfgOrder(t *testing.T) {
	a := Key("안녕하세요", map[string]string{"voice": "female", "speed": "1.0"})
	b := Key("안녕하세요", map[string]string{"speed": "1.0", "voice": "female"})
	if a != b {
		t.Fatalf("Key differs by insertion order: %s vs %s", a, b)
	}
}

func TestKeyDiffersByText(t *testing.T) {
	a := Key("안녕하세요", map[string]string{"voice": "female"})
	b := Key("안녕히가세요", map[string]string{"voice": "female"})
	if a == b {
		t.Fatal("Key collided for different text")
	}
}

func TestGetAfterPutReturnsStoredPath(t *testing.T) {
	dir := t.TempDir()
	c := New(Config{CleanupInterval: time.Hour})
	t.Cleanup(c.Stop)

	path := touchFile(t, dir, "a.wav", 10)
	voice := map[string]string{"voice": "female", "speed": "1.0"}
	if !c.Put("hello", voice, path, 10) {
		t.Fatal("Put reported eviction of the just-inserted entry")
	}

	got, ok := c.Get("hello", map[string]string{"speed": "1.0", "voice": "female"})
	if !ok {
		t.Fatal("Get miss after Put")
	}
	if got != path {
		t.Fatalf("Get = %q, want %q", got, path)
	}
}

func TestTTLExpiryMakesEntryUnreachable(t *testing.T) {
	dir := t.TempDir()
	c := New(Config{TTL: 10 * time.Millisecond, CleanupInterval: time.Hour})
	t.Cleanup(c.Stop)

	path := touchFile(t, dir, "a.wav", 10)
	c.Put("hello", nil, path, 10)

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("hello", nil); ok {
		t.Fatal("Get hit on a TTL-expired entry")
	}
}

// TestScenario7CountBoundEvictsLRU reproduces spec scenario 7: TTL=1s,
// max_entries=2, put(A) put(B) put(C) -> exactly two entries remain, and
// the least-recently-used of {A,B} was evicted along with its file.
func TestScenario7CountBoundEvictsLRU(t *testing.T) {
	dir := t.TempDir()
	c := New(Config{TTL: time.Second, MaxEntries: 2, CleanupInterval: time.Hour})
	t.Cleanup(c.Stop)

	pathA := touchFile(t, dir, "a.wav", 10)
	pathB := touchFile(t, dir, "b.wav", 10)
	pathC := touchFile(t, dir, "c.wav", 10)

	c.Put("A", nil, pathA, 10)
	time.Sleep(2 * time.Millisecond)
	c.Put("B", nil, pathB, 10)
	time.Sleep(2 * time.Millisecond)
	c.Put("C", nil, pathC, 10)

	stats := c.Stats()
	if stats.Entries != 2 {
		t.Fatalf("Entries = %d, want 2", stats.Entries)
	}

	if _, ok := c.Get("A", nil); ok {
		t.Fatal("A should have been evicted as least-recently-used")
	}
	if _, err := os.Stat(pathA); !os.IsNotExist(err) {
		t.Fatal("A's backing file was not removed on eviction")
	}

	if _, ok := c.Get("B", nil); !ok {
		t.Fatal("B should still be present")
	}
	if _, ok := c.Get("C", nil); !ok {
		t.Fatal("C should still be present")
	}
}

func TestByteBudgetEvictsDownToEightyPercent(t *testing.T) {
	dir := t.TempDir()
	c := New(Config{MemoryLimitBytes: 100, MaxEntries: 100, CleanupInterval: time.Hour})
	t.Cleanup(c.Stop)

	pathA := touchFile(t, dir, "a.wav", 40)
	pathB := touchFile(t, dir, "b.wav", 40)
	pathC := touchFile(t, dir, "c.wav", 40)

	c.Put("A", nil, pathA, 40)
	time.Sleep(1 * time.Millisecond)
	c.Put("B", nil, pathB, 40)
	time.Sleep(1 * time.Millisecond)
	c.Put("C", nil, pathC, 40)

	stats := c.Stats()
	if stats.TotalBytes > 80 {
		t.Fatalf("TotalBytes = %d, want <= 80 (80%% of 100)", stats.TotalBytes)
	}
	if _, ok := c.Get("A", nil); ok {
		t.Fatal("A should have been evicted to bring usage under the byte budget")
	}
}

func TestClearRemovesEntriesAndFiles(t *testing.T) {
	dir := t.TempDir()
	c := New(Config{CleanupInterval: time.Hour})
	t.Cleanup(c.Stop)

	path := touchFile(t, dir, "a.wav", 10)
	c.Put("hello", nil, path, 10)

	c.Clear()

	if stats := c.Stats(); stats.Entries != 0 {
		t.Fatalf("Entries after Clear = %d, want 0", stats.Entries)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("backing file survived Clear")
	}
}

func TestSweeperReapsExpiredEntries(t *testing.T) {
	dir := t.TempDir()
	c := New(Config{TTL: 5 * time.Millisecond, CleanupInterval: 10 * time.Millisecond})
	t.Cleanup(c.Stop)

	path := touchFile(t, dir, "a.wav", 10)
	c.Put("hello", nil, path, 10)

	time.Sleep(60 * time.Millisecond)

	if stats := c.Stats(); stats.Entries != 0 {
		t.Fatalf("Entries after sweeper ran = %d, want 0", stats.Entries)
	}
}

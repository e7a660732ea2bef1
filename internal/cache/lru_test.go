package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(maxSize int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](maxSize, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCache_GetSet(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("Get(a) = %q, %v", v, ok)
	}
	// a was used last, so b is evicted
	c.Set("c", "3")
	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if c.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	c, clock := newTestCache(4, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	clock.t = clock.t.Add(30 * time.Second)
	c.Set("b", "2b")
	clock.t = clock.t.Add(45 * time.Second)

	if _, ok := c.Get("a"); ok {
		t.Fatal("expected a to be expired")
	}
	if n := c.CleanExpired(); n != 0 {
		t.Fatalf("CleanExpired() = %d, want 0 (a already removed by Get)", n)
	}
	if v, ok := c.Get("b"); !ok || v != "2b" {
		t.Fatalf("Get(b) = %q, %v", v, ok)
	}
	clock.t = clock.t.Add(time.Minute)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired() = %d, want 1", n)
	}
}

func TestLRUCache_DeleteAndPurge(t *testing.T) {
	c, _ := newTestCache(0, time.Minute)
	c.Set("a", "1")
	c.Delete("a")
	if c.Size() != 0 {
		t.Fatal("expected empty cache after delete")
	}
	c.Set("b", "2")
	c.Purge()
	if _, ok := c.Get("b"); ok || c.Size() != 0 {
		t.Fatal("expected empty cache after purge")
	}
}

func TestManager_Sweep(t *testing.T) {
	c, clock := newTestCache(4, time.Second)
	c.Set("a", "1")
	m := NewManager(nil)
	m.Register(c)
	m.Register(nil)

	if n := m.Sweep(); n != 0 {
		t.Fatalf("Sweep() = %d, want 0", n)
	}
	clock.t = clock.t.Add(2 * time.Second)
	if n := m.Sweep(); n != 1 {
		t.Fatalf("Sweep() = %d, want 1", n)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}

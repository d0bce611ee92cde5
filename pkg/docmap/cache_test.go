package docmap

import (
	"context"
	"fmt"
	"testing"
)

func TestNoopCache(t *testing.T) {
	var c NoopCache

	if err := c.Set(context.Background(), "k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok, err := c.Get(context.Background(), "k"); ok || err != nil {
		t.Fatalf("Expected NoopCache to always miss, got ok=%v err=%v", ok, err)
	}
	if removed, err := c.Clear(context.Background(), "k"); removed || err != nil {
		t.Fatalf("Expected NoopCache to never remove, got removed=%v err=%v", removed, err)
	}
}

func TestMapCacheEcho(t *testing.T) {
	c := NewMapCache()

	if err := c.Set(context.Background(), "k", "v1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := c.Set(context.Background(), "k", "v2"); err != nil {
		t.Fatalf("Overwrite failed: %v", err)
	}

	v, ok, err := c.Get(context.Background(), "k")
	if err != nil || !ok {
		t.Fatalf("Expected hit, got ok=%v err=%v", ok, err)
	}
	if v != "v2" {
		t.Fatalf("Expected latest value, got %v", v)
	}
	if c.Len() != 1 {
		t.Fatalf("Expected 1 entry after overwrite, got %d", c.Len())
	}

	removed, err := c.Clear(context.Background(), "k")
	if err != nil || !removed {
		t.Fatalf("Expected removal, got removed=%v err=%v", removed, err)
	}
	if removed, _ := c.Clear(context.Background(), "k"); removed {
		t.Fatal("Expected second clear to find nothing")
	}
	if _, ok, _ := c.Get(context.Background(), "k"); ok {
		t.Fatal("Expected miss after clear")
	}
}

func TestLRUCacheEvictsOldest(t *testing.T) {
	c, err := NewLRUCache(2)
	if err != nil {
		t.Fatalf("NewLRUCache failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		key := fmt.Sprintf("k%d", i)
		if err := c.Set(context.Background(), key, i); err != nil {
			t.Fatalf("Set %s failed: %v", key, err)
		}
	}

	if c.Len() != 2 {
		t.Fatalf("Expected capacity-bounded length 2, got %d", c.Len())
	}
	if _, ok, _ := c.Get(context.Background(), "k0"); ok {
		t.Fatal("Expected the oldest entry to be evicted")
	}
	if _, ok, _ := c.Get(context.Background(), "k2"); !ok {
		t.Fatal("Expected the newest entry to survive")
	}
}

func TestLRUCacheGetRefreshesRecency(t *testing.T) {
	c, err := NewLRUCache(2)
	if err != nil {
		t.Fatalf("NewLRUCache failed: %v", err)
	}

	_ = c.Set(context.Background(), "a", 1)
	_ = c.Set(context.Background(), "b", 2)

	// Touch "a" so "b" becomes the eviction candidate.
	if _, ok, _ := c.Get(context.Background(), "a"); !ok {
		t.Fatal("Expected hit for a")
	}
	_ = c.Set(context.Background(), "c", 3)

	if _, ok, _ := c.Get(context.Background(), "a"); !ok {
		t.Fatal("Expected recently used entry to survive")
	}
	if _, ok, _ := c.Get(context.Background(), "b"); ok {
		t.Fatal("Expected least recently used entry to be evicted")
	}
}

func TestLRUCacheInvalidCapacity(t *testing.T) {
	if _, err := NewLRUCache(0); err == nil {
		t.Fatal("Expected an error for zero capacity")
	}
}

package docmap

import (
	"context"
	"testing"
)

func TestModelCacheRoundtrip(t *testing.T) {
	conn, _ := newCachedConnection(t)
	model := conn.Model("users", NewModelConfig().WithDirector(IDDirector{Prefix: "users:"}))

	doc := Document{"_id": "u1", "name": "ada"}
	if _, err := model.Cache().Set(context.Background(), doc); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok, err := model.Cache().Get(context.Background(), Conditions{"_id": "u1"})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected a hit for the document's own lookup")
	}
	if got["name"] != "ada" {
		t.Fatalf("Expected cached document, got %v", got)
	}

	if conn.Stats().Hits() != 1 || conn.Stats().Writes() != 1 {
		t.Fatalf("Expected 1 hit and 1 write, got hits=%d writes=%d",
			conn.Stats().Hits(), conn.Stats().Writes())
	}
}

func TestModelCacheWithoutDirectorIsNoop(t *testing.T) {
	conn, cache := newCachedConnection(t)
	model := conn.Model("users", NewModelConfig())

	doc := Document{"_id": "u1"}
	out, err := model.Cache().Set(context.Background(), doc)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if out["_id"] != "u1" {
		t.Fatal("Expected the document to pass through unchanged")
	}
	if cache.Len() != 0 {
		t.Fatal("Expected no backend write without a director")
	}

	if _, ok, err := model.Cache().Get(context.Background(), Conditions{"_id": "u1"}); ok || err != nil {
		t.Fatalf("Expected a clean miss without a director, got ok=%v err=%v", ok, err)
	}
	if removed, err := model.Cache().Clear(context.Background(), Conditions{"_id": "u1"}); removed || err != nil {
		t.Fatalf("Expected Clear to report nothing removed, got removed=%v err=%v", removed, err)
	}
	if conn.Stats().Hits() != 0 || conn.Stats().Misses() != 0 {
		t.Fatal("Expected no stats movement without a director")
	}
}

func TestModelCacheNonCacheableDocument(t *testing.T) {
	conn, cache := newCachedConnection(t)
	model := conn.Model("users", NewModelConfig().WithDirector(IDDirector{}))

	// No identifier, so the director rejects it.
	if _, err := model.Cache().Set(context.Background(), Document{"name": "ada"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if cache.Len() != 0 {
		t.Fatal("Expected no backend write for a non-cacheable document")
	}
}

func TestModelCacheNonCacheableQueryMisses(t *testing.T) {
	conn, _ := newCachedConnection(t)
	model := conn.Model("users", NewModelConfig().WithDirector(IDDirector{}))

	if _, err := model.Cache().Set(context.Background(), Document{"_id": "u1"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Multi-field and operator filters are not exact identifier lookups.
	for _, cond := range []Conditions{
		{"_id": "u1", "name": "ada"},
		{"_id": map[string]any{"$in": []any{"u1"}}},
		{"name": "ada"},
	} {
		if _, ok, err := model.Cache().Get(context.Background(), cond); ok || err != nil {
			t.Fatalf("Expected miss for %v, got ok=%v err=%v", cond, ok, err)
		}
	}
}

func TestModelCacheMissCounted(t *testing.T) {
	conn, _ := newCachedConnection(t)
	model := conn.Model("users", NewModelConfig().WithDirector(IDDirector{}))

	if _, ok, _ := model.Cache().Get(context.Background(), Conditions{"_id": "absent"}); ok {
		t.Fatal("Expected a miss")
	}
	if conn.Stats().Misses() != 1 {
		t.Fatalf("Expected 1 miss, got %d", conn.Stats().Misses())
	}
}

func TestModelCacheGetReturnsIsolatedCopy(t *testing.T) {
	conn, _ := newCachedConnection(t)
	model := conn.Model("users", NewModelConfig().WithDirector(IDDirector{}))

	if _, err := model.Cache().Set(context.Background(), Document{"_id": "u1", "name": "ada"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok, err := model.Cache().Get(context.Background(), Conditions{"_id": "u1"})
	if err != nil || !ok {
		t.Fatalf("Expected hit, got ok=%v err=%v", ok, err)
	}
	got["name"] = "mutated"

	again, ok, err := model.Cache().Get(context.Background(), Conditions{"_id": "u1"})
	if err != nil || !ok {
		t.Fatalf("Expected second hit, got ok=%v err=%v", ok, err)
	}
	if again["name"] != "ada" {
		t.Fatalf("Expected cache entry unaffected by caller mutation, got %q", again["name"])
	}
}

func TestModelCacheForeignValueIsMiss(t *testing.T) {
	conn, cache := newCachedConnection(t)
	model := conn.Model("users", NewModelConfig().WithDirector(IDDirector{}))

	// Another client stored a non-document under our key.
	if err := cache.Set(context.Background(), "u1", 42); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, ok, err := model.Cache().Get(context.Background(), Conditions{"_id": "u1"}); ok || err != nil {
		t.Fatalf("Expected foreign value to read as a miss, got ok=%v err=%v", ok, err)
	}
}

func TestModelCacheClearReportsRemoval(t *testing.T) {
	conn, _ := newCachedConnection(t)
	model := conn.Model("users", NewModelConfig().WithDirector(IDDirector{}))

	if _, err := model.Cache().Set(context.Background(), Document{"_id": "u1"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	removed, err := model.Cache().Clear(context.Background(), Conditions{"_id": "u1"})
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if !removed {
		t.Fatal("Expected Clear to report a removal")
	}
	if conn.Stats().Invalidations() != 1 {
		t.Fatalf("Expected 1 invalidation, got %d", conn.Stats().Invalidations())
	}

	removed, err = model.Cache().Clear(context.Background(), Conditions{"_id": "u1"})
	if err != nil {
		t.Fatalf("Second clear failed: %v", err)
	}
	if removed {
		t.Fatal("Expected second Clear to report nothing removed")
	}
	if conn.Stats().Invalidations() != 1 {
		t.Fatalf("Expected invalidations unchanged, got %d", conn.Stats().Invalidations())
	}
}

func TestModelCacheSwapIsRetroactive(t *testing.T) {
	conn, first := newCachedConnection(t)
	model := conn.Model("users", NewModelConfig().WithDirector(IDDirector{}))

	if _, err := model.Cache().Set(context.Background(), Document{"_id": "u1"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	replacement := NewMapCache()
	conn.SetCache(replacement)

	// The old backend still holds the entry, but the composition layer reads
	// the connection's current backend.
	if first.Len() != 1 {
		t.Fatalf("Expected the old backend to keep its entry, got %d", first.Len())
	}
	if _, ok, _ := model.Cache().Get(context.Background(), Conditions{"_id": "u1"}); ok {
		t.Fatal("Expected a miss against the fresh backend")
	}

	if _, err := model.Cache().Set(context.Background(), Document{"_id": "u2"}); err != nil {
		t.Fatalf("Set after swap failed: %v", err)
	}
	if replacement.Len() != 1 {
		t.Fatalf("Expected the write to land in the replacement backend, got %d", replacement.Len())
	}
}

func TestModelCacheSharedAcrossModels(t *testing.T) {
	conn, _ := newCachedConnection(t)
	a := conn.Model("a", NewModelConfig().WithDirector(IDDirector{}))
	b := conn.Model("b", NewModelConfig().WithDirector(IDDirector{}))

	if _, err := a.Cache().Set(context.Background(), Document{"_id": "shared"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Without prefixes both models derive the same key, so the entry is
	// visible through either.
	if _, ok, _ := b.Cache().Get(context.Background(), Conditions{"_id": "shared"}); !ok {
		t.Fatal("Expected the unprefixed entry to be visible to both models")
	}

	// Prefixed directors partition the shared backend.
	c := conn.Model("c", NewModelConfig().WithDirector(IDDirector{Prefix: "c:"}))
	if _, ok, _ := c.Cache().Get(context.Background(), Conditions{"_id": "shared"}); ok {
		t.Fatal("Expected the prefixed model to miss")
	}
}

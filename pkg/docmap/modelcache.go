package docmap

import (
	"context"
	"time"

	"github.com/vnykmshr/docmap-go/pkg/metrics"
)

// ModelCache composes the model's Director with the connection's current
// Cache. Without a director every operation degrades to a no-op. The backend
// is looked up on the connection at call time, so cache swaps via
// Connection.SetCache apply to all future operations.
type ModelCache struct {
	model *Model
}

// Set writes doc to the cache under its director-derived key. Documents the
// director marks non-cacheable pass through unchanged.
func (mc *ModelCache) Set(ctx context.Context, doc Document) (Document, error) {
	d := mc.model.director
	if d == nil || !d.IsDocumentCacheable(doc) {
		return doc, nil
	}

	start := time.Now()
	err := mc.model.conn.Cache().Set(ctx, d.DocumentCacheKey(doc), doc)
	mc.model.conn.record(metrics.OperationSet, time.Since(start))
	if err != nil {
		return doc, err
	}
	mc.model.conn.stats.incWrites()
	return doc, nil
}

// Get reads the cached document for cond. Queries the director marks
// non-cacheable always miss without touching the backend.
func (mc *ModelCache) Get(ctx context.Context, cond Conditions) (Document, bool, error) {
	d := mc.model.director
	if d == nil || !d.IsQueryCacheable(cond) {
		return nil, false, nil
	}

	start := time.Now()
	v, ok, err := mc.model.conn.Cache().Get(ctx, d.QueryCacheKey(cond))
	mc.model.conn.record(metrics.OperationGet, time.Since(start))
	if err != nil {
		return nil, false, err
	}
	if !ok {
		mc.model.conn.stats.incMisses()
		return nil, false, nil
	}

	doc, isDoc := v.(Document)
	if !isDoc {
		// A foreign value under our key is treated as a miss.
		mc.model.conn.stats.incMisses()
		return nil, false, nil
	}
	mc.model.conn.stats.incHits()
	// The stored value stays isolated: hook or caller mutation of the
	// returned document must not reach the cache entry.
	return copyDocument(doc), true, nil
}

// Clear removes the cached entry for cond, reporting whether a removal
// actually occurred.
func (mc *ModelCache) Clear(ctx context.Context, cond Conditions) (bool, error) {
	d := mc.model.director
	if d == nil || !d.IsQueryCacheable(cond) {
		return false, nil
	}

	start := time.Now()
	removed, err := mc.model.conn.Cache().Clear(ctx, d.QueryCacheKey(cond))
	mc.model.conn.record(metrics.OperationClear, time.Since(start))
	if err != nil {
		return false, err
	}
	if removed {
		mc.model.conn.stats.incInvalidations()
	}
	return removed, nil
}

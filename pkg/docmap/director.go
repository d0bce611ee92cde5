package docmap

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Director is the per-model caching policy: it decides whether documents and
// queries are cacheable and derives their cache keys. Implementations must be
// pure and deterministic; the same document or query shape always yields the
// same key, and distinct logical identities must not collide.
type Director interface {
	IsDocumentCacheable(doc Document) bool
	DocumentCacheKey(doc Document) string
	IsQueryCacheable(cond Conditions) bool
	QueryCacheKey(cond Conditions) string
}

// IDDirector is the reference policy: documents are keyed purely on their
// "_id" field, and the only cacheable queries are exact single-identifier
// lookups, so a document and the query retrieving it share one key.
type IDDirector struct {
	// Prefix namespaces the derived keys, e.g. the model name.
	Prefix string
}

// IsDocumentCacheable reports whether the document carries an identifier.
func (d IDDirector) IsDocumentCacheable(doc Document) bool {
	return doc.ID() != nil
}

// DocumentCacheKey derives the key from the document's identifier.
func (d IDDirector) DocumentCacheKey(doc Document) string {
	return d.Prefix + idString(doc.ID())
}

// IsQueryCacheable reports whether cond is an exact lookup by "_id".
func (d IDDirector) IsQueryCacheable(cond Conditions) bool {
	if len(cond) != 1 {
		return false
	}
	id, ok := cond["_id"]
	if !ok || id == nil {
		return false
	}
	// Operator filters like {"_id": {"$in": ...}} target many identities,
	// whichever map or document spelling they use.
	switch id.(type) {
	case Document, Conditions, map[string]any, primitive.M, primitive.D:
		return false
	}
	return true
}

// QueryCacheKey derives the key from the query's identifier, matching the
// key of the document it retrieves.
func (d IDDirector) QueryCacheKey(cond Conditions) string {
	return d.Prefix + idString(cond["_id"])
}

// idString renders an identifier value deterministically.
func idString(id any) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// CanonicalKey renders a query shape as a deterministic string, for custom
// directors that cache richer filters. Map keys are serialized in sorted
// order, so logically equal conditions always produce the same key.
func CanonicalKey(cond Conditions) string {
	raw, err := json.Marshal(cond)
	if err != nil {
		// Unserializable filters still need a stable rendering.
		return fmt.Sprintf("%v", cond)
	}
	return string(raw)
}

var _ Director = IDDirector{}

package docmap

// Document is a raw structured record as stored in and retrieved from the
// document store, identified by its "_id" field.
type Document map[string]any

// Conditions is an opaque query filter describing which documents an
// operation targets. It is only ever read, never mutated, by this package.
type Conditions map[string]any

// ID returns the document's identifier field, or nil if absent.
func (d Document) ID() any {
	return d["_id"]
}

// copyDocument returns a value-isolated deep copy of doc. Cached entries must
// not share nested maps or slices with any reference the caller still holds.
func copyDocument(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case Document:
		return copyDocument(val)
	case map[string]any:
		return map[string]any(copyDocument(val))
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	default:
		// Scalars and opaque identifier types are immutable values.
		return v
	}
}

package docmap

import (
	"context"
	"errors"
	"sync"
)

// ReceiveOptions controls the document-received pipeline. The zero value is
// the default behavior: cache the document, treat it as complete.
type ReceiveOptions struct {
	// SkipCache suppresses the cache write for this document.
	SkipCache bool

	// Partial marks the document as coming from a field-projected read.
	// Partial documents are never cached.
	Partial bool
}

// ReceiveDocument runs the document-received pipeline on a single raw
// document returned from a read: the Retrieved hook, the cache write, the
// wrap into an instance, and the Ready hook, in that order. Any step's
// failure short-circuits the rest.
func (m *Model) ReceiveDocument(ctx context.Context, doc Document, opts ReceiveOptions) (any, error) {
	if m.hooks.Retrieved != nil {
		if err := m.hooks.Retrieved(ctx, doc); err != nil {
			return nil, err
		}
	}

	if !opts.SkipCache && !opts.Partial && m.director != nil {
		// A deep copy is cached so later hook mutation of the in-flight
		// document cannot corrupt the cached value.
		if _, err := m.cache.Set(ctx, copyDocument(doc)); err != nil {
			return nil, err
		}
	}

	wrapped := m.wrap(doc, false, opts.Partial)

	if inst, ok := wrapped.(Instance); ok && m.hooks.Ready != nil {
		if err := m.hooks.Ready(ctx, inst); err != nil {
			return nil, err
		}
	}

	return wrapped, nil
}

// CreateResult is the outcome of one document's branch of the
// documents-creating pipeline.
type CreateResult struct {
	// Document is the (possibly hook-mutated) document, nil when Err is set.
	Document Document

	// Err carries the branch failure; validation failures match
	// ErrValidationFailed.
	Err error
}

// CreatingDocuments runs the documents-creating pipeline over a batch. Each
// document's branch runs independently and concurrently: the Creating hook,
// then validation. A failing branch never aborts its siblings. Results are
// returned positionally.
func (m *Model) CreatingDocuments(ctx context.Context, docs []Document) []CreateResult {
	results := make([]CreateResult, len(docs))

	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		go func(i int, doc Document) {
			defer wg.Done()
			results[i] = m.creating(ctx, doc)
		}(i, doc)
	}
	wg.Wait()

	return results
}

func (m *Model) creating(ctx context.Context, doc Document) CreateResult {
	if m.hooks.Creating != nil {
		if err := m.hooks.Creating(ctx, doc); err != nil {
			return CreateResult{Err: err}
		}
	}

	if m.validator != nil {
		if err := m.validator.Validate(ctx, doc); err != nil {
			return CreateResult{Err: errors.Join(ErrValidationFailed, err)}
		}
	}

	return CreateResult{Document: doc}
}

// SavingInstance runs the instance-saving pipeline: the Saving hook with the
// instance and its pending changes, then the instance is returned unchanged.
// Its sole purpose is to run the hook before the caller persists the changes.
func (m *Model) SavingInstance(ctx context.Context, inst Instance, changes Document) (Instance, error) {
	if m.hooks.Saving != nil {
		if err := m.hooks.Saving(ctx, inst, changes); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

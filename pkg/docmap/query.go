package docmap

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vnykmshr/docmap-go/pkg/metrics"
)

// FindOptions controls a single-document read.
type FindOptions struct {
	// Projection restricts the read to the named fields. A projected read is
	// partial: its result is never cached.
	Projection []string

	// SkipCache bypasses both the cache lookup and the cache write.
	SkipCache bool
}

// collection returns the model's collection handle; it fails with
// ErrNotConnected while no connection is established.
func (m *Model) collection() (*mongo.Collection, error) {
	db, err := m.conn.Database()
	if err != nil {
		return nil, err
	}
	return db.Collection(m.name), nil
}

// FindOne retrieves a single document matching cond and runs it through the
// document-received pipeline. Cacheable queries are answered from the model
// cache when possible; concurrent identical store reads are deduplicated.
// Store errors, including mongo.ErrNoDocuments, surface verbatim.
func (m *Model) FindOne(ctx context.Context, cond Conditions, opts FindOptions) (any, error) {
	partial := len(opts.Projection) > 0

	if !opts.SkipCache && !partial {
		cached, ok, err := m.cache.Get(ctx, cond)
		if err != nil {
			return nil, err
		}
		if ok {
			// Already cached; skip the redundant cache write.
			return m.ReceiveDocument(ctx, cached, ReceiveOptions{SkipCache: true})
		}
	}

	doc, err := m.fetchOne(ctx, cond, opts.Projection)
	if err != nil {
		return nil, err
	}

	return m.ReceiveDocument(ctx, doc, ReceiveOptions{
		SkipCache: opts.SkipCache,
		Partial:   partial,
	})
}

// fetchOne issues the store read, collapsing concurrent identical reads into
// a single underlying call.
func (m *Model) fetchOne(ctx context.Context, cond Conditions, projection []string) (Document, error) {
	key := CanonicalKey(cond) + "|" + canonicalProjection(projection)
	v, err, _ := m.sf.Do(key, func() (any, error) {
		coll, err := m.collection()
		if err != nil {
			return nil, err
		}

		findOpts := options.FindOne()
		if len(projection) > 0 {
			proj := bson.D{}
			for _, field := range projection {
				proj = append(proj, bson.E{Key: field, Value: 1})
			}
			findOpts.SetProjection(proj)
		}

		start := time.Now()
		var doc Document
		err = coll.FindOne(ctx, bson.M(cond), findOpts).Decode(&doc)
		m.conn.record(metrics.OperationFind, time.Since(start))
		if err != nil {
			return nil, err
		}
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Document), nil
}

func canonicalProjection(projection []string) string {
	key := ""
	for _, field := range projection {
		key += field + ","
	}
	return key
}

// FindByID retrieves the document with the given identifier.
func (m *Model) FindByID(ctx context.Context, id any, opts FindOptions) (any, error) {
	return m.FindOne(ctx, Conditions{"_id": id}, opts)
}

// Find retrieves every document matching cond, running each through the
// document-received pipeline. Multi-document reads are not answered from the
// cache, but each complete document retrieved is written through to it.
func (m *Model) Find(ctx context.Context, cond Conditions) ([]any, error) {
	coll, err := m.collection()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	cursor, err := coll.Find(ctx, bson.M(cond))
	m.conn.record(metrics.OperationFind, time.Since(start))
	if err != nil {
		return nil, err
	}
	defer func() { _ = cursor.Close(ctx) }()

	var out []any
	for cursor.Next(ctx) {
		var doc Document
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		wrapped, err := m.ReceiveDocument(ctx, doc, ReceiveOptions{})
		if err != nil {
			return nil, err
		}
		out = append(out, wrapped)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Insert runs the documents-creating pipeline over docs and inserts the
// successful branches. Documents without an identifier are assigned one.
// The per-document results are returned positionally alongside any store
// error; a branch that failed validation never aborts its siblings.
func (m *Model) Insert(ctx context.Context, docs ...Document) ([]CreateResult, error) {
	results := m.CreatingDocuments(ctx, docs)

	var accepted []Document
	for i := range results {
		if results[i].Err != nil {
			continue
		}
		doc := results[i].Document
		if doc.ID() == nil {
			doc["_id"] = primitive.NewObjectID()
		}
		accepted = append(accepted, doc)
	}
	if len(accepted) == 0 {
		return results, nil
	}

	coll, err := m.collection()
	if err != nil {
		return results, err
	}

	payload := make([]any, len(accepted))
	for i, doc := range accepted {
		payload[i] = doc
	}

	start := time.Now()
	_, err = coll.InsertMany(ctx, payload)
	m.conn.record(metrics.OperationInsert, time.Since(start))
	if err != nil {
		return results, err
	}

	// Write-through: freshly inserted documents are immediately cacheable.
	for _, doc := range accepted {
		if _, err := m.cache.Set(ctx, copyDocument(doc)); err != nil {
			return results, err
		}
	}
	return results, nil
}

// Save runs the instance-saving pipeline, applies the pending changes to the
// instance's document, and upserts it. The cache entry is refreshed so a
// subsequent cacheable read observes the saved state.
func (m *Model) Save(ctx context.Context, inst Instance, changes Document) error {
	if _, err := m.SavingInstance(ctx, inst, changes); err != nil {
		return err
	}

	doc := inst.Document()
	for k, v := range changes {
		doc[k] = v
	}
	if doc.ID() == nil {
		doc["_id"] = primitive.NewObjectID()
	}

	coll, err := m.collection()
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = coll.ReplaceOne(ctx, bson.M{"_id": doc.ID()}, doc, options.Replace().SetUpsert(true))
	m.conn.record(metrics.OperationSave, time.Since(start))
	if err != nil {
		return err
	}

	_, err = m.cache.Set(ctx, copyDocument(doc))
	return err
}

// Delete removes every document matching cond and clears the corresponding
// cache entry, returning the number of documents removed.
func (m *Model) Delete(ctx context.Context, cond Conditions) (int64, error) {
	coll, err := m.collection()
	if err != nil {
		return 0, err
	}

	start := time.Now()
	res, err := coll.DeleteMany(ctx, bson.M(cond))
	m.conn.record(metrics.OperationDelete, time.Since(start))
	if err != nil {
		return 0, err
	}

	if _, err := m.cache.Clear(ctx, cond); err != nil {
		return res.DeletedCount, err
	}
	return res.DeletedCount, nil
}

// Count returns the number of documents matching cond.
func (m *Model) Count(ctx context.Context, cond Conditions) (int64, error) {
	coll, err := m.collection()
	if err != nil {
		return 0, err
	}
	return coll.CountDocuments(ctx, bson.M(cond))
}

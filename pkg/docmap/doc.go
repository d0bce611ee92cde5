// Package docmap is a data-mapping layer between application code and a
// MongoDB connection. It manages the lifecycle of the underlying connection
// and routes per-model document operations through a pipeline of validation,
// lifecycle hooks, and a pluggable read-through/write-through cache.
//
// # Overview
//
// A Connection owns the single logical link to the document store. It derives
// the connection target from structured configuration or a literal connection
// string, establishes the connection exactly once no matter how many callers
// race to connect, and carries the cache instance shared by every model bound
// to it. Models map collections to application types and run documents
// through ordered lifecycle pipelines on read, create, and save.
//
// # Basic Usage
//
// Connect and bind a model:
//
//	conn, err := docmap.New("", docmap.NewConfig().
//	    WithHost("db1.internal", 27017).
//	    WithDatabase("app"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := conn.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close(ctx)
//
//	users := conn.Model("users", docmap.NewModelConfig().
//	    WithDirector(docmap.IDDirector{Prefix: "users:"}).
//	    WithValidator(docmap.NewMapValidator(map[string]any{
//	        "name":  "required",
//	        "email": "required,email",
//	    })))
//
//	user, err := users.FindByID(ctx, id, docmap.FindOptions{})
//
// # Caching
//
// Caching is opt-in per model through a Director, the policy deciding which
// documents and queries are cacheable and how their keys are derived. The
// backend is pluggable: NoopCache (the default), MapCache, LRUCache, and
// RedisCache ship with the package, and Connection.SetCache swaps the backend
// at any time for all models at once. Cached documents are deep copies, so
// later mutation of an in-flight document never corrupts a cached value.
//
// # Hooks
//
// Models declare optional lifecycle hooks (Creating, Retrieved, Ready,
// Saving) as plain function fields. Hook errors abort the remaining steps of
// that pipeline invocation and propagate to the caller unmodified.
//
// # Concurrency
//
// Connect is single-flight: concurrent callers of a pending attempt share its
// outcome, and exactly one underlying connect is issued. Close does not
// cancel an in-flight attempt; see Connection.Close for the consequences.
// Documents in a creating batch are processed independently and concurrently,
// and a validation failure in one branch never aborts its siblings.
package docmap

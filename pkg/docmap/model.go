package docmap

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Hooks are the optional lifecycle callbacks of a model. Unset fields are
// skipped. Hook errors propagate through the pipeline unmodified, aborting
// the remaining steps of that invocation only.
type Hooks struct {
	// Creating runs for each document before insertion, ahead of validation.
	// It may mutate the document in place.
	Creating func(ctx context.Context, doc Document) error

	// Retrieved runs for each raw document returned from a read, before it is
	// cached or wrapped.
	Retrieved func(ctx context.Context, doc Document) error

	// Ready runs with the wrapped instance after a read, when the wrapped
	// value satisfies Instance.
	Ready func(ctx context.Context, inst Instance) error

	// Saving runs with an instance and its pending changes before the caller
	// persists them.
	Saving func(ctx context.Context, inst Instance, changes Document) error
}

// Instance is the application-facing wrapped form of a document.
type Instance interface {
	// Document returns the underlying raw document.
	Document() Document

	// IsNew reports whether the instance has not yet been persisted.
	IsNew() bool

	// IsPartial reports whether the instance was read with a field projection
	// and may be missing fields.
	IsPartial() bool
}

// WrapFunc produces the application-facing representation of a document.
// isNew marks not-yet-persisted documents; partial marks projected reads.
// The result need not satisfy Instance; when it does not, the Ready hook is
// skipped.
type WrapFunc func(doc Document, isNew, partial bool) any

// Record is the default Instance implementation.
type Record struct {
	doc     Document
	isNew   bool
	partial bool
}

// NewRecord wraps doc in a Record.
func NewRecord(doc Document, isNew, partial bool) *Record {
	return &Record{doc: doc, isNew: isNew, partial: partial}
}

// Document returns the wrapped raw document.
func (r *Record) Document() Document { return r.doc }

// IsNew reports whether the record has not yet been persisted.
func (r *Record) IsNew() bool { return r.isNew }

// IsPartial reports whether the record came from a projected read.
func (r *Record) IsPartial() bool { return r.partial }

// ID returns the record's identifier field, or nil if absent.
func (r *Record) ID() any { return r.doc.ID() }

// Get returns a field value from the underlying document.
func (r *Record) Get(field string) (any, bool) {
	v, ok := r.doc[field]
	return v, ok
}

var _ Instance = (*Record)(nil)

// ModelConfig holds the optional collaborators of a model.
type ModelConfig struct {
	// Hooks are the lifecycle callbacks.
	Hooks Hooks

	// Director is the caching policy. A model without a director performs no
	// caching at all.
	Director Director

	// Validator checks documents in the creating pipeline. A model without a
	// validator accepts every document.
	Validator Validator

	// Wrap produces instances from raw documents. Defaults to NewRecord.
	Wrap WrapFunc
}

// NewModelConfig creates an empty model configuration.
func NewModelConfig() *ModelConfig {
	return &ModelConfig{}
}

// WithHooks sets the lifecycle hooks.
func (c *ModelConfig) WithHooks(hooks Hooks) *ModelConfig {
	c.Hooks = hooks
	return c
}

// WithDirector sets the caching policy.
func (c *ModelConfig) WithDirector(d Director) *ModelConfig {
	c.Director = d
	return c
}

// WithValidator sets the document validator.
func (c *ModelConfig) WithValidator(v Validator) *ModelConfig {
	c.Validator = v
	return c
}

// WithWrap sets the instance wrapping function.
func (c *ModelConfig) WithWrap(wrap WrapFunc) *ModelConfig {
	c.Wrap = wrap
	return c
}

// Model is a named mapping between an application-level instance type and the
// documents of one collection. Models are configured once and immutable
// afterwards; all mutable state lives on the owning Connection.
type Model struct {
	conn      *Connection
	name      string
	hooks     Hooks
	director  Director
	validator Validator
	wrap      WrapFunc
	cache     *ModelCache
	sf        singleflight.Group
}

// Model binds a model for the named collection to the connection.
func (c *Connection) Model(name string, config *ModelConfig) *Model {
	if config == nil {
		config = NewModelConfig()
	}
	m := &Model{
		conn:      c,
		name:      name,
		hooks:     config.Hooks,
		director:  config.Director,
		validator: config.Validator,
		wrap:      config.Wrap,
	}
	if m.wrap == nil {
		m.wrap = func(doc Document, isNew, partial bool) any {
			return NewRecord(doc, isNew, partial)
		}
	}
	m.cache = &ModelCache{model: m}
	return m
}

// Name returns the collection name the model maps to.
func (m *Model) Name() string { return m.name }

// Connection returns the owning connection.
func (m *Model) Connection() *Connection { return m.conn }

// Cache returns the model's cache composition layer.
func (m *Model) Cache() *ModelCache { return m.cache }

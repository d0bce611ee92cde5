package docmap

import "errors"

// Sentinel errors returned by the connection manager and the document
// lifecycle pipeline. Detail is attached with errors.Join, so callers can
// match with errors.Is and still see the underlying cause.
var (
	// ErrInvalidConstruction indicates that neither a connection string nor a
	// configuration was supplied at construction time.
	ErrInvalidConstruction = errors.New("docmap: neither connection string nor configuration supplied")

	// ErrNotConnected indicates that the connection handle was accessed while
	// no connection is established.
	ErrNotConnected = errors.New("docmap: not connected")

	// ErrValidationFailed indicates that a document failed its model's
	// validation rule set. The joined error carries the per-field detail.
	ErrValidationFailed = errors.New("docmap: document validation failed")
)

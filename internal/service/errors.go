package service

import "errors"

var (
	// ErrUnsupportedMode rejects an add before any remote call when the book's
	// capability flags permit neither the requested nor a default mode.
	ErrUnsupportedMode = errors.New("unsupported mode")

	// ErrCatalogItemUnresolved marks a remote cart line whose book lookup
	// failed during a refresh. It is logged, never returned by Refresh.
	ErrCatalogItemUnresolved = errors.New("catalog item could not be resolved")

	// ErrDetached is returned when the owning view went away mid-flight and
	// the result was discarded.
	ErrDetached = errors.New("cart detached")
)

// ErrInvalidBook rejects an add for a book without an id.
var ErrInvalidBook = errors.New("book is required")

package theme

import "errors"

var (
	// ErrNotFound means a theme id is absent from the current catalog.
	ErrNotFound = errors.New("theme not found")
	// ErrEmptyCatalog means the catalog has no usable theme descriptors.
	ErrEmptyCatalog = errors.New("catalog is empty")
)

package images

import "errors"

var (
	// ErrImageNotFound reports a removal directive that matched nothing in
	// the listing's current image set, even after normalized and path-only
	// fallback matching.
	ErrImageNotFound = errors.New("image not found in listing")

	// ErrEmptyResult reports a computed image set with zero entries.
	ErrEmptyResult = errors.New("listing must keep at least one image")
)

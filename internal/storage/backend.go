package storage

import (
	"context"
	"io"
)

// Backend abstracts the blob store holding uploaded listing images. The core
// is written against this capability, not a specific provider: it needs
// write-by-key, delete-by-key and a stable public URL derived from the key.
type Backend interface {
	// Put writes the object and returns its public URL.
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error)

	// Remove deletes the object. Removing a key that no longer exists is not
	// an error.
	Remove(ctx context.Context, key string) error

	// KeyFromURL maps a public URL back to the key it was derived from.
	// ok is false for URLs this backend did not produce.
	KeyFromURL(rawURL string) (key string, ok bool)
}

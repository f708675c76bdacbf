// Package blob abstracts the byte stores that exported meshes are written
// to. Names are slash-separated and relative to the store root.
package blob

import (
	"context"

	"github.com/chazu/krado/pkg/errs"
)

// ErrNotFound is returned when a blob does not exist.
var ErrNotFound = errs.ErrNotFound

// Store is a flat namespace of immutable blobs.
type Store interface {
	// Put writes a blob, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error
	// Get reads a whole blob. A missing blob yields ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names that start with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

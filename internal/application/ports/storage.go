// Package ports declares the interfaces the ingest pipeline is wired
// through. Infrastructure adapters implement them; application and domain
// code only ever sees these types.
package ports

import (
	"context"
	"errors"
	"io"
	"time"
)

// Common storage errors
var (
	ErrObjectNotFound = errors.New("object not found")
)

// ObjectMetadata represents metadata associated with stored objects
type ObjectMetadata struct {
	ContentType   string
	ContentLength int64
	UserMetadata  map[string]string
}

// ObjectInfo represents information about a stored object
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStorage is a store rooted at a fixed location: keys are
// slash-separated paths relative to that root. The same interface fronts a
// local directory tree and an S3 prefix, so ingest logic never knows which
// one it is writing to.
type ObjectStorage interface {
	// Put stores an object under the given key, creating any intermediate
	// levels the backend needs.
	Put(ctx context.Context, key string, reader io.Reader, metadata ObjectMetadata) error

	// Get retrieves an object by key. Missing keys return ErrObjectNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks whether an object is present under the key.
	Exists(ctx context.Context, key string) (bool, error)

	// List returns the objects whose keys start with prefix, in
	// lexicographic key order.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

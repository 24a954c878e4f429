// Package storage abstracts where downloaded artifacts are archived.
// Adapters exist for the local filesystem and for S3-compatible object
// stores; the destination bucket or directory is fixed at construction.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned when a requested object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ErrInvalidKey is returned for keys that are empty or would resolve
// outside the adapter's storage root.
var ErrInvalidKey = errors.New("invalid object key")

// ObjectStorage is the archival interface for downloaded artifacts.
type ObjectStorage interface {
	// Put stores an object under the given key and returns the number of
	// bytes written.
	Put(ctx context.Context, key string, reader io.Reader) (int64, error)

	// Get retrieves an object by key. Returns ErrObjectNotFound when the
	// key does not exist.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks whether an object exists under the given key.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes an object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the stored objects whose keys start with prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

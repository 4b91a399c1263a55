// Package objstore defines the object-storage contract the engine consumes:
// minting time-boxed signed access URLs and listing directory children.
// Implementations wrap the actual storage service client; the engine never
// talks to storage directly.
package objstore

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound is returned by SignURL when the exact (bucket, path)
// does not exist. It is the only storage error that triggers repair; every
// other error (permissions, transport) is terminal and must be surfaced
// unchanged.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo describes one directory entry.
type ObjectInfo struct {
	// Name is the full object path within the bucket.
	Name string
	// Updated is the object's last-updated timestamp.
	Updated time.Time
}

// SignOptions controls signed-URL minting.
type SignOptions struct {
	// TTL is the signed URL lifetime. Implementations apply their own
	// default when zero.
	TTL time.Duration
	// DownloadName, when set, forces the browser download filename via
	// the content-disposition of the signed URL.
	DownloadName string
}

// Store is the object-storage service contract.
type Store interface {
	// SignURL mints a time-boxed signed access URL for (bucket, path).
	// Returns ErrObjectNotFound (possibly wrapped) when the object does
	// not exist.
	SignURL(ctx context.Context, bucket, path string, opts SignOptions) (string, error)

	// List returns the immediate children of dir within bucket, most
	// recently updated first, capped at limit entries. Listing a missing
	// directory returns an empty slice, not an error.
	List(ctx context.Context, bucket, dir string, limit int) ([]ObjectInfo, error)
}

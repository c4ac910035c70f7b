package storage

import "context"

// ObjectRef locates one stored content item.
type ObjectRef struct {
	Bucket string
	Key    string
}

// ObjectStore is the durable storage capability the moderation pipeline
// acts against. Implementations wrap a concrete object store (S3, Azure
// Blob); the pipeline never assumes atomicity across calls.
type ObjectStore interface {
	// Fetch returns the object's bytes.
	Fetch(ctx context.Context, ref ObjectRef) ([]byte, error)
	// Copy duplicates src into dst, leaving src untouched.
	Copy(ctx context.Context, src, dst ObjectRef) error
	// Delete removes the object.
	Delete(ctx context.Context, ref ObjectRef) error
	// Tag attaches a key/value metadata tag to the object in place.
	Tag(ctx context.Context, ref ObjectRef, key, value string) error
}

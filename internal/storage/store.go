// Package storage persists uploaded media (avatars and message images) in a
// key-addressed object store and turns stored keys into public URLs.
package storage

import "context"

// ObjectStore is a key-addressed blob store
type ObjectStore interface {
	// Put stores body under key, replacing any existing object.
	Put(ctx context.Context, key string, body []byte, contentType string) error
	// Delete removes the object stored under key. Deleting a missing key is
	// not an error.
	Delete(ctx context.Context, key string) error
}

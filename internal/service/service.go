// Package service implements the user directory and message store rules on
// top of the repository and the object store.
package service

import (
	"context"

	"github.com/ammar1510/inbox/internal/logger"
	"github.com/ammar1510/inbox/internal/storage"
)

var log = logger.New("service")

// Upload is a file received from a client
type Upload struct {
	Filename string
	Data     []byte
}

// deleteQuietly removes key from the store and only logs a failure.
// Used for cleanup that must never fail the enclosing request.
func deleteQuietly(ctx context.Context, store storage.ObjectStore, key string) {
	// Cleanup still runs when the client has gone away.
	ctx = context.WithoutCancel(ctx)
	if err := store.Delete(ctx, key); err != nil {
		log.Warn("Failed to delete stored object %s: %v", key, err)
		return
	}
	log.Debug("Deleted stored object %s", key)
}

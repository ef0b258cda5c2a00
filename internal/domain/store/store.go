package store

import (
	"context"

	"photopipe-server-go/internal/platform/errors"
)

// Store persists rendered pipeline outputs. Keys are caller-chosen
// and unique per output; Save returns the public URL the transport
// layer hands back to clients.
type Store interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Load(ctx context.Context, key string) ([]byte, string, error)
	Delete(ctx context.Context, key string) error

	// Cleanup removes outputs older than the configured TTL and
	// returns how many were removed. Drivers with native expiry
	// return 0.
	Cleanup(ctx context.Context) (int, error)

	Close() error
}

// ErrNotFound is returned by Load and Delete for unknown keys.
var ErrNotFound = errors.New(errors.KindStorage, "store", "output not found")

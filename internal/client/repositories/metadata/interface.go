// Package metadata is the client-side key/value store. Local account
// storage keeps its namespaced record here.
package metadata

import (
	"context"
)

// UpdateFunc receives the current value (nil when absent) and returns the
// value to store.
type UpdateFunc func(old []byte) ([]byte, error)

type Repository interface {
	// Get returns (nil, nil) when the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Update reads, transforms and writes a value atomically.
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

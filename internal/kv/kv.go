// Package kv provides the durable key-value storage that holds the workout
// snapshot. Every backend stores opaque byte values under string keys.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been set or was deleted.
var ErrNotFound = errors.New("kv: key not found")

// Store is a durable key-value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

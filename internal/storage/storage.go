// Package storage defines the key-value store the application state is mirrored to.
// Values are opaque serialized blobs; the state package owns their shape.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when the key has never been written.
var ErrNotFound = errors.New("key not found")

type Store interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, value []byte) error
	Close() error
}

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

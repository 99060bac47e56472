// Package store provides the durable key/value store backing the plan
// cache, lock markers, chunk status, and chunk content. Three
// implementations share one contract: SQLite for production, a flock-guarded
// file store for setups without SQLite, and an in-memory store for tests.
//
// The contract that matters for cross-process coordination is PutIfAbsent:
// it must be atomic (create-fails-if-exists), because the single-flight lock
// marker is built on it. Delete is idempotent; deleting an absent key is not
// an error.
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("key not found")

// StorageError wraps a failed store operation with its op and key so
// callers can decide whether the failure is fatal (content persistence) or
// degradable (cache/lock reads).
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// KV is the durable key/value contract shared by all store backends.
type KV interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes the value for key, overwriting any existing value.
	Put(ctx context.Context, key string, value []byte) error

	// PutIfAbsent writes the value only when the key does not exist yet.
	// Returns true when this call created the entry. The check-and-create
	// is atomic across processes.
	PutIfAbsent(ctx context.Context, key string, value []byte) (bool, error)

	// Delete removes the key. Absence is not an error.
	Delete(ctx context.Context, key string) error

	// List returns all keys with the given prefix, in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases underlying resources.
	Close() error
}

// IsNotFound reports whether err means the key was absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

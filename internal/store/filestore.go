package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// FileStore implements KV on a plain directory, one file per key. It exists
// for setups where an embedded database is unwanted; the SQLite store is the
// default backend.
//
// PutIfAbsent uses O_CREATE|O_EXCL, which the OS guarantees to be atomic
// across processes. Overwrites go through a temp file and rename. Mutating
// operations additionally hold a directory-wide advisory flock so that a
// crashed writer's temp files can be cleaned up safely by the next writer.
type FileStore struct {
	dir  string
	lock *flock.Flock
}

// OpenFileStore opens (creating if needed) a file-backed store rooted at dir.
func OpenFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, ".store.lock")),
	}, nil
}

// keyPath encodes a key into a safe file name. Keys contain ':' separators,
// so they are query-escaped for the filesystem and decoded on List.
func (s *FileStore) keyPath(key string) string {
	return filepath.Join(s.dir, url.QueryEscape(key)+".kv")
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.keyPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: "get", Key: key, Err: err}
	}
	return data, nil
}

func (s *FileStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.withLock(ctx, func() error {
		tmp := s.keyPath(key) + ".tmp"
		if err := os.WriteFile(tmp, value, 0o644); err != nil {
			return err
		}
		return os.Rename(tmp, s.keyPath(key))
	}); err != nil {
		return &StorageError{Op: "put", Key: key, Err: err}
	}
	return nil
}

func (s *FileStore) PutIfAbsent(_ context.Context, key string, value []byte) (bool, error) {
	f, err := os.OpenFile(s.keyPath(key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, &StorageError{Op: "put_if_absent", Key: key, Err: err}
	}
	defer f.Close()
	if _, err := f.Write(value); err != nil {
		os.Remove(s.keyPath(key))
		return false, &StorageError{Op: "put_if_absent", Key: key, Err: err}
	}
	return true, nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := s.withLock(ctx, func() error {
		err := os.Remove(s.keyPath(key))
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}); err != nil {
		return &StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func (s *FileStore) List(_ context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &StorageError{Op: "list", Key: prefix, Err: err}
	}
	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".kv") {
			continue
		}
		key, err := url.QueryUnescape(strings.TrimSuffix(name, ".kv"))
		if err != nil {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) withLock(ctx context.Context, fn func() error) error {
	locked, err := s.lock.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil {
		return err
	}
	if !locked {
		return fmt.Errorf("could not acquire store lock")
	}
	defer s.lock.Unlock()
	return fn()
}

// Verify interface
var _ KV = (*FileStore)(nil)

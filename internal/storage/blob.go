// Package storage keeps uploaded document payloads. The workflow only ever
// sees the opaque reference returned by Put.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type BlobStore interface {
	Put(ctx context.Context, namespace, fileName string, r io.Reader) (ref string, size int64, err error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// LocalStore writes blobs under a root directory.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Put(ctx context.Context, namespace, fileName string, r io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	ref := filepath.ToSlash(filepath.Join(sanitize(namespace), uuid.NewString()+strings.ToLower(filepath.Ext(fileName))))
	path := filepath.Join(s.root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", 0, fmt.Errorf("create blob dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return "", 0, fmt.Errorf("create blob: %w", err)
	}
	size, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(path)
		if copyErr != nil {
			return "", 0, fmt.Errorf("write blob: %w", copyErr)
		}
		return "", 0, fmt.Errorf("close blob: %w", closeErr)
	}
	return ref, size, nil
}

func (s *LocalStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	clean := filepath.Clean(filepath.FromSlash(ref))
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return nil, fmt.Errorf("invalid blob reference %q", ref)
	}
	return os.Open(filepath.Join(s.root, clean))
}

func sanitize(namespace string) string {
	namespace = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, namespace)
	if namespace == "" {
		return "misc"
	}
	return namespace
}

// MemoryStore keeps blobs in memory, for tests and STORAGE_DRIVER=memory.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Put(ctx context.Context, namespace, fileName string, r io.Reader) (string, int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, fmt.Errorf("read blob: %w", err)
	}
	ref := sanitize(namespace) + "/" + uuid.NewString() + strings.ToLower(filepath.Ext(fileName))

	s.mu.Lock()
	s.blobs[ref] = data
	s.mu.Unlock()
	return ref, int64(len(data)), nil
}

func (s *MemoryStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.blobs[ref]
	s.mu.RUnlock()
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

package assetcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/wippyai/sherpa-wasm/errors"
)

// Store is a byte cache keyed by string.
type Store interface {
	// Get returns (nil, false, nil) on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte) error
}

// MemoryStore keeps assets in process memory.
type MemoryStore struct {
	items map[string][]byte
	mu    sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.items[key]
	return data, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = append([]byte(nil), data...)
	return nil
}

// Len returns the number of cached entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// DirStore keeps one file per key in a directory. File names are the hex
// SHA-256 of the key.
type DirStore struct {
	dir string
}

// NewDirStore creates dir if needed.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.PhaseCache, errors.KindIO, err, "create cache dir")
	}
	return &DirStore{dir: dir}, nil
}

// Dir returns the cache directory.
func (s *DirStore) Dir() string { return s.dir }

func (s *DirStore) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:]))
}

func (s *DirStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(errors.PhaseCache, errors.KindIO, err, key)
	}
	return data, true, nil
}

// Set writes through a temp file and rename so readers never see a partial
// entry.
func (s *DirStore) Set(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return errors.Wrap(errors.PhaseCache, errors.KindIO, err, key)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return errors.Wrap(errors.PhaseCache, errors.KindIO, err, key)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return errors.Wrap(errors.PhaseCache, errors.KindIO, err, key)
	}
	if err := os.Rename(name, s.path(key)); err != nil {
		os.Remove(name)
		return errors.Wrap(errors.PhaseCache, errors.KindIO, err, key)
	}
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*DirStore)(nil)
)

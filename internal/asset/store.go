package asset

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/inamate/canvasviewer/internal/engine"
	"github.com/inamate/canvasviewer/internal/typeid"
)

// Store is an engine asset store whose entries can be removed.
type Store interface {
	engine.AssetStore
	Delete(id string) error
}

// MemoryStore keeps decoded images for the lifetime of the process.
// It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{images: make(map[string]image.Image)}
}

func (s *MemoryStore) Put(img image.Image) (string, error) {
	id := typeid.NewAssetID()
	s.mu.Lock()
	s.images[id] = img
	s.mu.Unlock()
	return id, nil
}

func (s *MemoryStore) Get(id string) (image.Image, error) {
	s.mu.RLock()
	img, ok := s.images[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return img, nil
}

func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.images[id]; !ok {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	delete(s.images, id)
	return nil
}

// DiskStore persists assets as PNG files named by asset id and keeps
// decoded copies in memory. It is safe for concurrent use.
type DiskStore struct {
	dir   string
	cache *MemoryStore
}

// NewDiskStore creates dir if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}
	return &DiskStore{dir: dir, cache: NewMemoryStore()}, nil
}

func (s *DiskStore) Dir() string { return s.dir }

func (s *DiskStore) path(id string) string {
	return filepath.Join(s.dir, id+".png")
}

func (s *DiskStore) Put(img image.Image) (string, error) {
	id := typeid.NewAssetID()
	filePath := s.path(id)

	out, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("create asset file: %w", err)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		os.Remove(filePath)
		return "", fmt.Errorf("encode png: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("close asset file: %w", err)
	}

	s.cache.mu.Lock()
	s.cache.images[id] = img
	s.cache.mu.Unlock()
	return id, nil
}

func (s *DiskStore) Get(id string) (image.Image, error) {
	if img, err := s.cache.Get(id); err == nil {
		return img, nil
	}
	// Ids reach the file system, so only well-formed asset ids are accepted.
	if err := typeid.Validate(id, typeid.PrefixAsset); err != nil {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	f, err := os.Open(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open asset: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		slog.Warn("corrupt asset file", "asset", id, "error", err)
		return nil, fmt.Errorf("decode asset %s: %w", id, err)
	}

	s.cache.mu.Lock()
	s.cache.images[id] = img
	s.cache.mu.Unlock()
	return img, nil
}

// Delete removes an asset from disk and memory.
func (s *DiskStore) Delete(id string) error {
	if err := typeid.Validate(id, typeid.PrefixAsset); err != nil {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	s.cache.Delete(id)
	if err := os.Remove(s.path(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("remove asset: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"sync"
	"time"

	"photopipe-server-go/internal/platform/config"
)

type memoryEntry struct {
	data        []byte
	contentType string
	createdAt   time.Time
}

// MemoryStore keeps outputs in process memory. Suitable for tests and
// single-node development setups.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(cfg config.StorageConfig) *MemoryStore {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "/outputs"
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		baseURL: baseURL,
		ttl:     cfg.TTL,
		now:     time.Now,
	}
}

func (s *MemoryStore) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	s.entries[key] = memoryEntry{data: buf, contentType: contentType, createdAt: s.now()}
	return s.baseURL + "/" + key, nil
}

func (s *MemoryStore) Load(ctx context.Context, key string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, "", ErrNotFound
	}
	return e.data, e.contentType, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return ErrNotFound
	}
	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) Cleanup(ctx context.Context) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for key, e := range s.entries {
		if e.createdAt.Before(cutoff) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Close() error { return nil }

package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"photopipe-server-go/internal/platform/config"
	"photopipe-server-go/internal/platform/errors"
	"photopipe-server-go/internal/platform/logging"
)

// LocalStore writes outputs to a directory served statically by the
// HTTP layer. Content types are derived from the key extension.
type LocalStore struct {
	dir     string
	baseURL string
	ttl     time.Duration
	logger  *logging.Logger
}

func NewLocalStore(cfg config.StorageConfig, logger *logging.Logger) (*LocalStore, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "data/outputs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "store.local", "create output directory", err)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "/outputs"
	}
	return &LocalStore{dir: dir, baseURL: baseURL, ttl: cfg.TTL, logger: logger}, nil
}

// Dir exposes the backing directory so the router can serve it.
func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if !validKey(key) {
		return "", errors.New(errors.KindStorage, "store.local", "invalid output key: "+key)
	}
	if err := os.WriteFile(filepath.Join(s.dir, key), data, 0o644); err != nil {
		return "", errors.Wrap(errors.KindStorage, "store.local", "write output", err)
	}
	return s.baseURL + "/" + key, nil
}

func (s *LocalStore) Load(ctx context.Context, key string) ([]byte, string, error) {
	if !validKey(key) {
		return nil, "", ErrNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.dir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", errors.Wrap(errors.KindStorage, "store.local", "read output", err)
	}
	return data, contentTypeFor(key), nil
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if !validKey(key) {
		return ErrNotFound
	}
	err := os.Remove(filepath.Join(s.dir, key))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return errors.Wrap(errors.KindStorage, "store.local", "delete output", err)
	}
	return nil
}

func (s *LocalStore) Cleanup(ctx context.Context) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, errors.Wrap(errors.KindStorage, "store.local", "scan output directory", err)
	}

	cutoff := time.Now().Add(-s.ttl)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, e.Name())); err == nil {
				removed++
			}
		}
	}
	if removed > 0 {
		s.logger.Info("expired outputs removed", "count", removed)
	}
	return removed, nil
}

func (s *LocalStore) Close() error { return nil }

// validKey rejects path traversal in caller-supplied keys.
func validKey(key string) bool {
	return key != "" && !strings.Contains(key, "/") && !strings.Contains(key, "\\") && key != "." && key != ".."
}

func contentTypeFor(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

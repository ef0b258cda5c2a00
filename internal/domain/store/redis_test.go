package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photopipe-server-go/internal/platform/config"
	"photopipe-server-go/internal/platform/logging"
)

func newRedisTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	logger, err := logging.New(logging.Config{Level: "error"})
	require.NoError(t, err)

	s, err := NewRedisStore(config.StorageConfig{
		Driver: DriverRedis,
		TTL:    time.Hour,
		Redis:  config.RedisStoreConfig{Addr: mr.Addr(), Prefix: "test:output:"},
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	s, _ := newRedisTestStore(t)
	ctx := context.Background()

	url, err := s.Save(ctx, "job1.png", []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/outputs/job1.png", url)

	data, contentType, err := s.Load(ctx, "job1.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.Equal(t, "image/png", contentType)
}

func TestRedisStoreMissingKey(t *testing.T) {
	s, _ := newRedisTestStore(t)
	ctx := context.Background()

	_, _, err := s.Load(ctx, "nope.png")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "nope.png"), ErrNotFound)
}

func TestRedisStoreDelete(t *testing.T) {
	s, _ := newRedisTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, "gone.png", []byte("x"), "image/png")
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "gone.png"))

	_, _, err = s.Load(ctx, "gone.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreTTL(t *testing.T) {
	s, mr := newRedisTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, "expiring.png", []byte("x"), "image/png")
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)
	_, _, err = s.Load(ctx, "expiring.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

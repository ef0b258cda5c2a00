package store

import (
	"fmt"

	"photopipe-server-go/internal/platform/config"
	"photopipe-server-go/internal/platform/errors"
	"photopipe-server-go/internal/platform/logging"
)

const (
	DriverMemory = "memory"
	DriverLocal  = "local"
	DriverRedis  = "redis"
)

// NewStore builds the output store selected by the driver name.
func NewStore(cfg config.StorageConfig, logger *logging.Logger) (Store, error) {
	switch cfg.Driver {
	case DriverMemory, "":
		return NewMemoryStore(cfg), nil
	case DriverLocal:
		return NewLocalStore(cfg, logger)
	case DriverRedis:
		return NewRedisStore(cfg, logger)
	default:
		return nil, errors.New(errors.KindConfig, "store.factory",
			fmt.Sprintf("unsupported storage driver: %s", cfg.Driver))
	}
}

package localneural

import (
	"photopipe-server-go/internal/domain/removal"
	"photopipe-server-go/internal/domain/removal/inter"
	"photopipe-server-go/internal/platform/config"
	"photopipe-server-go/internal/platform/logging"
)

// RegisterWith binds this backend type into a registry.
func RegisterWith(reg *removal.Registry) error {
	return reg.Register(config.ModelLocalNeural, func(cfg config.ModelConfig, logger *logging.Logger) (inter.Remover, error) {
		return NewProvider(cfg, logger)
	})
}

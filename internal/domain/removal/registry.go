package removal

import (
	"fmt"
	"sync"

	"photopipe-server-go/internal/domain/removal/inter"
	"photopipe-server-go/internal/platform/config"
	"photopipe-server-go/internal/platform/errors"
	"photopipe-server-go/internal/platform/logging"
)

// Factory builds a Remover from its model configuration.
type Factory func(cfg config.ModelConfig, logger *logging.Logger) (inter.Remover, error)

// Registry maps backend type names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds a factory to a backend type. Registering the same
// type twice is a programming error.
func (r *Registry) Register(backendType string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[backendType]; exists {
		return errors.New(errors.KindConfig, "removal.registry",
			fmt.Sprintf("backend type already registered: %s", backendType))
	}
	r.factories[backendType] = factory
	return nil
}

func (r *Registry) factory(backendType string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[backendType]
	return f, ok
}

// Backend is one slot in the fallback chain: a descriptor, a health
// tracker and a lazily constructed remover. Construction is deferred
// until the first invocation so that heavyweight backends are never
// loaded unless the chain actually reaches them.
type Backend struct {
	desc    inter.Descriptor
	cfg     config.ModelConfig
	factory Factory
	logger  *logging.Logger
	health  *HealthTracker

	mu      sync.Mutex
	remover inter.Remover
}

func (b *Backend) Descriptor() inter.Descriptor { return b.desc }
func (b *Backend) Health() *HealthTracker       { return b.health }

// Remover returns the backend instance, constructing it on first use.
// A failed construction is not cached: a later invocation retries.
func (b *Backend) Remover() (inter.Remover, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.remover != nil {
		return b.remover, nil
	}
	remover, err := b.factory(b.cfg, b.logger)
	if err != nil {
		return nil, errors.Wrap(errors.KindBackendError, "removal.backend",
			fmt.Sprintf("initialize backend %s", b.desc.Name), err)
	}
	b.logger.Info("removal backend initialized", "backend", b.desc.Name, "type", b.desc.Type)
	b.remover = remover
	return remover, nil
}

// Close releases any instantiated backend resources.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if closer, ok := b.remover.(inter.Closer); ok {
		return closer.Close()
	}
	return nil
}

// BuildChain resolves the configured model list into an ordered
// fallback chain. Order in the configuration is the preference order.
func BuildChain(models []config.ModelConfig, healthCfg config.HealthConfig, reg *Registry, logger *logging.Logger) ([]*Backend, error) {
	if len(models) == 0 {
		return nil, errors.New(errors.KindConfig, "removal.chain", "no backends configured")
	}

	chain := make([]*Backend, 0, len(models))
	for _, m := range models {
		factory, ok := reg.factory(m.Type)
		if !ok {
			return nil, errors.New(errors.KindConfig, "removal.chain",
				fmt.Sprintf("unknown backend type %q for %s", m.Type, m.Name))
		}
		chain = append(chain, &Backend{
			desc:    inter.Descriptor{Name: m.Name, Type: m.Type},
			cfg:     m,
			factory: factory,
			logger:  logger,
			health:  NewHealthTracker(healthCfg),
		})
	}
	return chain, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Loader reads configuration from an optional yaml file layered over
// the defaults, with a final pass of environment overrides.
type Loader struct {
	path      string
	useDotEnv bool
}

// NewLoader creates a loader for the given path. An empty path loads
// defaults plus environment overrides only.
func NewLoader(path string) *Loader {
	return &Loader{
		path:      path,
		useDotEnv: true,
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load builds the effective configuration.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		_ = godotenv.Load()
	}

	cfg := DefaultConfig()
	path := "defaults"

	if l.path != "" {
		data, err := os.ReadFile(l.path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", l.path, err)
			}
			path = l.path
		case os.IsNotExist(err):
			// fall through to defaults
		default:
			return nil, fmt.Errorf("read config %s: %w", l.path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return &Result{Config: cfg, Path: path}, nil
}

// Validate checks the invariants the orchestrator and registry rely on.
func Validate(cfg *Config) error {
	if len(cfg.Models) == 0 {
		return fmt.Errorf("config: fallback chain requires at least one model")
	}
	for _, m := range cfg.Models {
		switch m.Type {
		case ModelLocalNeural, ModelRemoteAPI, ModelLegacyLocal:
		default:
			return fmt.Errorf("config: unsupported model type %q for %q", m.Type, m.Name)
		}
		if m.Name == "" {
			return fmt.Errorf("config: model of type %q requires a name", m.Type)
		}
	}
	if len(cfg.Styles) == 0 {
		return fmt.Errorf("config: at least one style preset is required")
	}
	if cfg.Pipeline.RetryLimit < 0 {
		return fmt.Errorf("config: retry_limit must not be negative")
	}
	if cfg.Health.WindowSize <= 0 {
		return fmt.Errorf("config: health window_size must be positive")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PHOTOPIPE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PHOTOPIPE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PHOTOPIPE_REMOTE_API_KEY"); v != "" {
		for i := range cfg.Models {
			if cfg.Models[i].Type == ModelRemoteAPI && cfg.Models[i].APIKey == "" {
				cfg.Models[i].APIKey = v
			}
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.Vision.APIKey == "" {
		cfg.Vision.APIKey = v
	}
}

package config

import "time"

// Model type identifiers used across the removal domain.
const (
	ModelLocalNeural = "local-neural"
	ModelRemoteAPI   = "remote-api"
	ModelLegacyLocal = "legacy-local"
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:   "0.0.0.0",
			Port: 8080,
		},
		Log: LogConfig{
			Level:  "INFO",
			Dir:    "data/logs",
			File:   "server.log",
			Format: "text",
		},
		Pipeline: PipelineConfig{
			AttemptTimeout: 30 * time.Second,
			RetryLimit:     2,
			RetryBackoff:   500 * time.Millisecond,
			BatchLimit:     10,
			DefaultRatio:   "4:5",
			MaxImageSize:   10 * 1024 * 1024,
		},
		Health: HealthConfig{
			DegradedAfter:        2,
			FailureRateThreshold: 0.5,
			WindowSize:           20,
			CoolDown:             30 * time.Second,
		},
		Models: []ModelConfig{
			{
				Name:          "local-neural",
				Type:          ModelLocalNeural,
				Device:        "auto",
				MaxConcurrent: 1,
				MaxPixels:     16 * 1024 * 1024,
				Timeout:       30 * time.Second,
			},
			{
				Name:     "remote-inference-api",
				Type:     ModelRemoteAPI,
				Endpoint: "https://api-inference.example.com/models/rmbg-2.0",
				Timeout:  30 * time.Second,
			},
			{
				Name:    "legacy-local",
				Type:    ModelLegacyLocal,
				Timeout: 10 * time.Second,
			},
		},
		Styles: map[string]StyleConfig{
			"minimal": {
				Color:  ColorConfig{WhiteBalance: true, Saturation: 1.2, Contrast: 1.1, Brightness: 1.0},
				Smooth: SmoothConfig{Radius: 2, Blend: 0.35, Passes: 1},
				Finish: FinishConfig{Contrast: 1.2, Saturation: 1.0, Sharpen: 1.5},
			},
			"mood": {
				Color:  ColorConfig{WhiteBalance: true, Saturation: 0.95, Contrast: 1.0, Brightness: 1.05},
				Smooth: SmoothConfig{Radius: 3, Blend: 0.55, Passes: 2},
				Finish: FinishConfig{Contrast: 1.0, Saturation: 1.0, Sharpen: 1.0, Desaturate: 0.9, Tint: 30, TintAmount: 0.3, Vignette: 0.2},
			},
			"street": {
				Color:  ColorConfig{WhiteBalance: true, Saturation: 1.2, Contrast: 1.1, Brightness: 1.0},
				Smooth: SmoothConfig{Radius: 2, Blend: 0.35, Passes: 1},
				Finish: FinishConfig{Contrast: 1.3, Saturation: 1.4, Sharpen: 2.0, Tint: -10, TintAmount: 0.2},
			},
		},
		Storage: StorageConfig{
			Driver:      "local",
			Dir:         "data/outputs",
			BaseURL:     "/outputs",
			TTL:         24 * time.Hour,
			CleanupSpec: "@every 1h",
		},
		Database: DatabaseConfig{
			DSN: "data/photopipe.db",
		},
		Vision: VisionConfig{
			Enabled:   false,
			Model:     "gpt-4o-mini",
			MaxTokens: 500,
		},
	}
}

package config

import (
	"time"
)

type Config struct {
	Server   ServerConfig           `yaml:"server"`
	Log      LogConfig              `yaml:"log"`
	Pipeline PipelineConfig         `yaml:"pipeline"`
	Health   HealthConfig           `yaml:"health"`
	Models   []ModelConfig          `yaml:"models"`
	Styles   map[string]StyleConfig `yaml:"styles"`
	Storage  StorageConfig          `yaml:"storage"`
	Database DatabaseConfig         `yaml:"database"`
	Vision   VisionConfig           `yaml:"vision"`
}

type ServerConfig struct {
	IP   string `yaml:"ip"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"log_level"`
	Dir    string `yaml:"log_dir"`
	File   string `yaml:"log_file"`
	Format string `yaml:"log_format"`
}

// PipelineConfig controls the orchestrator's retry/fallback protocol.
type PipelineConfig struct {
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
	RetryLimit     int           `yaml:"retry_limit"`
	RetryBackoff   time.Duration `yaml:"retry_backoff"`
	BatchLimit     int           `yaml:"batch_limit"`
	DefaultRatio   string        `yaml:"default_ratio"`
	MaxImageSize   int           `yaml:"max_image_size"`
}

// HealthConfig tunes per-backend health state transitions. The numeric
// defaults are operator-tunable, not correctness requirements.
type HealthConfig struct {
	DegradedAfter        int           `yaml:"degraded_after"`
	FailureRateThreshold float64       `yaml:"failure_rate_threshold"`
	WindowSize           int           `yaml:"window_size"`
	CoolDown             time.Duration `yaml:"cool_down"`
}

// ModelConfig describes one background-removal backend. The slice order
// in Config.Models is the fallback chain order.
type ModelConfig struct {
	Name          string        `yaml:"name"`
	Type          string        `yaml:"type"`
	Device        string        `yaml:"device,omitempty"`
	ModelPath     string        `yaml:"model_path,omitempty"`
	Endpoint      string        `yaml:"endpoint,omitempty"`
	APIKey        string        `yaml:"api_key,omitempty"`
	Timeout       time.Duration `yaml:"timeout,omitempty"`
	MaxConcurrent int           `yaml:"max_concurrent,omitempty"`
	MaxPixels     int64         `yaml:"max_pixels,omitempty"`
}

// StyleConfig is one row of the style preset table. Adding a style is
// adding a row here, not new control flow.
type StyleConfig struct {
	Color  ColorConfig  `yaml:"color"`
	Smooth SmoothConfig `yaml:"smooth"`
	Finish FinishConfig `yaml:"finish"`
}

type ColorConfig struct {
	WhiteBalance bool    `yaml:"white_balance"`
	Saturation   float64 `yaml:"saturation"`
	Contrast     float64 `yaml:"contrast"`
	Brightness   float64 `yaml:"brightness"`
}

type SmoothConfig struct {
	Radius int     `yaml:"radius"`
	Blend  float64 `yaml:"blend"`
	Passes int     `yaml:"passes"`
}

type FinishConfig struct {
	Contrast   float64 `yaml:"contrast"`
	Saturation float64 `yaml:"saturation"`
	Sharpen    float64 `yaml:"sharpen"`
	Desaturate float64 `yaml:"desaturate"`
	Tint       int     `yaml:"tint"`
	TintAmount float64 `yaml:"tint_amount"`
	Vignette   float64 `yaml:"vignette"`
}

type StorageConfig struct {
	Driver      string           `yaml:"driver"`
	Dir         string           `yaml:"dir,omitempty"`
	BaseURL     string           `yaml:"base_url,omitempty"`
	TTL         time.Duration    `yaml:"ttl,omitempty"`
	CleanupSpec string           `yaml:"cleanup_spec,omitempty"`
	Redis       RedisStoreConfig `yaml:"redis,omitempty"`
}

type RedisStoreConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type VisionConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"url,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
	MaxTokens int    `yaml:"max_tokens,omitempty"`
}

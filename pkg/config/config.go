// Package config defines the service configuration and how it is loaded.
package config

import (
	"time"
)

// Config contains process configuration. It is passed explicitly into
// constructors so tests can build isolated instances.
type Config struct {
	Server   ServerConfig  `koanf:",squash"`
	Storage  StorageConfig `koanf:",squash"`
	Features FeatureConfig `koanf:",squash"`
	LogLevel string        `koanf:"log_level"`
}

type ServerConfig struct {
	// Addr is the HTTP listen address, e.g. ":8080".
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// MaxUploadBytes caps the request body accepted by the upload routes.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`
}

type StorageConfig struct {
	// UploadDir holds raw uploaded clips, overwritten by name.
	UploadDir string `koanf:"upload_dir"`
	// GraphDir holds rendered charts, one sub-directory per analysis.
	GraphDir string `koanf:"graph_dir"`
	// Path is the badger directory for analysis records. Empty keeps
	// records in memory.
	Path string `koanf:"storage_path"`
}

type FeatureConfig struct {
	// SampleRate is the analysis rate in Hz; 0 keeps the file's own rate.
	SampleRate      int     `koanf:"sample_rate"`
	OffsetSeconds   float64 `koanf:"offset_seconds"`
	DurationSeconds float64 `koanf:"duration_seconds"`
}

// DefaultMaxUploadBytes is the 16 MiB request ceiling.
const DefaultMaxUploadBytes = 16 * 1024 * 1024

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxUploadBytes:  DefaultMaxUploadBytes,
		},
		Storage: StorageConfig{
			UploadDir: "audio",
			GraphDir:  "static/graphs",
			Path:      "./data",
		},
		Features: FeatureConfig{
			SampleRate:      22050,
			OffsetSeconds:   0.5,
			DurationSeconds: 3,
		},
		LogLevel: "info",
	}
}

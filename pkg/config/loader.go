package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "VOICE_"
	envFileVar = "VOICE_CONFIG"
)

// Load builds a Config by layering sources. Order of precedence (low -> high):
//  1. defaults (New())
//  2. .env in the working directory, if present (never overrides the real environment)
//  3. YAML file named by VOICE_CONFIG
//  4. environment variables with the VOICE_ prefix
func Load(_ context.Context) (*Config, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	base := New()
	k := koanf.New(".")

	if path := os.Getenv(envFileVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// VOICE_MAX_UPLOAD_BYTES -> max_upload_bytes
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Server.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Server.MaxUploadBytes <= 0:
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	case strings.TrimSpace(c.Storage.UploadDir) == "":
		return fmt.Errorf("%w: upload_dir must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.Storage.GraphDir) == "":
		return fmt.Errorf("%w: graph_dir must not be empty", ErrInvalidConfig)
	case c.Features.SampleRate < 0:
		return fmt.Errorf("%w: sample_rate must not be negative", ErrInvalidConfig)
	case c.Features.OffsetSeconds < 0:
		return fmt.Errorf("%w: offset_seconds must not be negative", ErrInvalidConfig)
	case c.Features.DurationSeconds <= 0:
		return fmt.Errorf("%w: duration_seconds must be positive", ErrInvalidConfig)
	}
	return nil
}

// Package config loads the storefront service configuration from a YAML file
// with environment-variable fallbacks for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CommerceConfig holds the commerce platform connection settings.
type CommerceConfig struct {
	Endpoint      string `yaml:"endpoint"`
	Token         string `yaml:"token"`
	WebhookSecret string `yaml:"webhook_secret"`
}

// StorageConfig selects and configures the blob store backing uploads.
type StorageConfig struct {
	Mode          string        `yaml:"mode"` // "s3" or "local"
	Bucket        string        `yaml:"bucket"`
	Region        string        `yaml:"region"`
	Endpoint      string        `yaml:"endpoint,omitempty"` // custom S3-compatible endpoint
	PublicBaseURL string        `yaml:"public_base_url"`
	PresignTTL    time.Duration `yaml:"presign_ttl"`
	TokenSecret   string        `yaml:"token_secret,omitempty"` // local mode upload-token key
}

// SessionConfig configures session snapshot persistence.
type SessionConfig struct {
	DatabaseURL string `yaml:"database_url,omitempty"` // empty: in-memory persister
}

// Config represents the service configuration file.
type Config struct {
	Commerce CommerceConfig `yaml:"commerce"`
	Storage  StorageConfig  `yaml:"storage"`
	Session  SessionConfig  `yaml:"session"`
	Locales  []string       `yaml:"locales,omitempty"`
	Product  string         `yaml:"product"` // handle of the configurable canvas product
}

// Load reads the config file at path and applies env-var fallbacks.
// A missing file yields defaults so local mode works with zero setup.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyEnv(cfg)

	if cfg.Storage.Mode != "s3" && cfg.Storage.Mode != "local" {
		return nil, fmt.Errorf("storage.mode must be s3 or local, got %q", cfg.Storage.Mode)
	}
	if cfg.Storage.PresignTTL <= 0 {
		cfg.Storage.PresignTTL = 15 * time.Minute
	}
	return cfg, nil
}

// applyEnv overlays secrets and connection strings from the environment so
// they never need to live in the config file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("COMMERCE_ENDPOINT"); v != "" {
		cfg.Commerce.Endpoint = v
	}
	if v := os.Getenv("COMMERCE_TOKEN"); v != "" {
		cfg.Commerce.Token = v
	}
	if v := os.Getenv("COMMERCE_WEBHOOK_SECRET"); v != "" {
		cfg.Commerce.WebhookSecret = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Session.DatabaseURL = v
	}
	if v := os.Getenv("STORAGE_TOKEN_SECRET"); v != "" {
		cfg.Storage.TokenSecret = v
	}
}

func defaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Mode:       "local",
			PresignTTL: 15 * time.Minute,
		},
		Locales: []string{"en", "fr"},
		Product: "canvas-print",
	}
}

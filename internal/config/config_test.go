package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Mode != "local" {
		t.Errorf("default storage mode = %q, want local", cfg.Storage.Mode)
	}
	if cfg.Storage.PresignTTL != 15*time.Minute {
		t.Errorf("default presign ttl = %v", cfg.Storage.PresignTTL)
	}
	if cfg.Product != "canvas-print" {
		t.Errorf("default product = %q", cfg.Product)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
commerce:
  endpoint: https://shop.example.com/api/graphql
  token: shptok_file
storage:
  mode: s3
  bucket: canvas-uploads
  region: ca-central-1
  public_base_url: https://cdn.example.com
  presign_ttl: 5m
session:
  database_url: postgres://app@localhost/sessions
product: canvas-print
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Commerce.Endpoint != "https://shop.example.com/api/graphql" {
		t.Errorf("endpoint = %q", cfg.Commerce.Endpoint)
	}
	if cfg.Storage.Mode != "s3" || cfg.Storage.Bucket != "canvas-uploads" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Storage.PresignTTL != 5*time.Minute {
		t.Errorf("presign ttl = %v", cfg.Storage.PresignTTL)
	}
	if cfg.Session.DatabaseURL != "postgres://app@localhost/sessions" {
		t.Errorf("database url = %q", cfg.Session.DatabaseURL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("COMMERCE_TOKEN", "shptok_env")
	t.Setenv("COMMERCE_WEBHOOK_SECRET", "whsec_env")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Commerce.Token != "shptok_env" {
		t.Errorf("token = %q, want env value", cfg.Commerce.Token)
	}
	if cfg.Commerce.WebhookSecret != "whsec_env" {
		t.Errorf("webhook secret = %q, want env value", cfg.Commerce.WebhookSecret)
	}
}

func TestLoadRejectsBadStorageMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  mode: gcs\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown storage mode")
	}
}

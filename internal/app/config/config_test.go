package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"techbot/internal/app/domains/entity/etdocument"
)

const sample = `
server:
  port: "9090"
whatsapp:
  access_token: file-token
  verify_token: verify
backend:
  orders_url: https://api.example.com/orders
  status_url: https://api.example.com/status
  identity_url: https://api.example.com/
workflow:
  part_photo_policy: per_part
  dedupe_window: 2m
session:
  store: redis
redis:
  addr: 127.0.0.1:6379
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("TOKEN", "env-token")
	t.Setenv("BASE_URL_SC", "https://identity.example.com/")

	cfg, err := Load(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.WhatsApp.AccessToken != "env-token" {
		t.Errorf("env override not applied: %q", cfg.WhatsApp.AccessToken)
	}
	if cfg.Backend.IdentityURL != "https://identity.example.com/" {
		t.Errorf("identity url = %q", cfg.Backend.IdentityURL)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Workflow.DedupeWindow != 2*time.Minute {
		t.Errorf("dedupe window = %s", cfg.Workflow.DedupeWindow)
	}
	if cfg.WhatsApp.APIVersion != "v22.0" || cfg.Workflow.OTPMaxRetries != 3 || cfg.Media.Root != "uploads" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.PartPhotoPolicy() != etdocument.PartPhotoPerPart {
		t.Errorf("policy = %s", cfg.PartPhotoPolicy())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"ok", func(c *Config) {}, ""},
		{"missing verify token", func(c *Config) { c.WhatsApp.VerifyToken = "" }, "VerifyToken"},
		{"bad policy", func(c *Config) { c.Workflow.PartPhotoPolicy = "always" }, "PartPhotoPolicy"},
		{"redis without addr", func(c *Config) { c.Redis.Addr = "" }, "redis addr"},
		{"lmstfy without token", func(c *Config) { c.Lmstfy.Enabled = true; c.Lmstfy.Host = "mq" }, "lmstfy token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, sample))
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

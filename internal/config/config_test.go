package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Store.Backend != "file" {
		t.Errorf("store backend = %s", cfg.Store.Backend)
	}
	if cfg.Query.TopK != 8 {
		t.Errorf("top_k = %d", cfg.Query.TopK)
	}
	if cfg.Pipeline.FailurePolicy != "exclude" {
		t.Errorf("failure policy = %s", cfg.Pipeline.FailurePolicy)
	}
	if len(cfg.Pipeline.Topics) != 5 {
		t.Errorf("topics = %d, want 5", len(cfg.Pipeline.Topics))
	}
	if _, ok := cfg.Pipeline.Topics["plan_de_estudios"]; !ok {
		t.Error("missing plan_de_estudios topic")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
  version: "1.2.0"
records:
  dir: /srv/macgpt/records
query:
  top_k: 4
  min_score: 0.35
ai:
  embedding:
    provider: ollama
    model: nomic-embed-text
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 || cfg.Server.Version != "1.2.0" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Records.Dir != "/srv/macgpt/records" {
		t.Errorf("records dir = %s", cfg.Records.Dir)
	}
	if cfg.Query.TopK != 4 || cfg.Query.MinScore != 0.35 {
		t.Errorf("query = %+v", cfg.Query)
	}
	if cfg.AI.Embedding.Provider != domain.AIProviderOllama {
		t.Errorf("embedding provider = %s", cfg.AI.Embedding.Provider)
	}
	// Untouched sections keep their defaults.
	if cfg.Store.Backend != "file" {
		t.Errorf("store backend = %s", cfg.Store.Backend)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a mapping"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("MACGPT_PORT", "7070")
	t.Setenv("MACGPT_TOP_K", "3")
	t.Setenv("MACGPT_EMBEDDING_API_KEY", "env-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Query.TopK != 3 {
		t.Errorf("top_k = %d", cfg.Query.TopK)
	}
	if cfg.AI.Embedding.APIKey != "env-key" {
		t.Errorf("api key = %s", cfg.AI.Embedding.APIKey)
	}
}

func TestLoad_SharedGeminiKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "shared-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.AI.Embedding.APIKey != "shared-key" {
		t.Errorf("embedding key = %s", cfg.AI.Embedding.APIKey)
	}
	if cfg.AI.Generation.APIKey != "shared-key" {
		t.Errorf("generation key = %s", cfg.AI.Generation.APIKey)
	}
}

func TestLoad_WorkerEnv(t *testing.T) {
	t.Setenv("MACGPT_WORKER_ENABLED", "true")
	t.Setenv("MACGPT_WORKER_INTERVAL", "6h")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !cfg.Worker.Enabled {
		t.Error("worker not enabled")
	}
	if cfg.Worker.Interval != 6*time.Hour {
		t.Errorf("interval = %v", cfg.Worker.Interval)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"unknown backend", func(c *Config) { c.Store.Backend = "sqlite" }},
		{"postgres without url", func(c *Config) { c.Store.Backend = "postgres"; c.Postgres.URL = "" }},
		{"unknown failure policy", func(c *Config) { c.Pipeline.FailurePolicy = "retry-forever" }},
		{"zero top_k", func(c *Config) { c.Query.TopK = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

package config

import (
	"slices"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_BadGenerationHost(t *testing.T) {
	cfg := validConfig()
	cfg.Generation.Host = "127.0.0.1:11434"
	cfg.ApplyDefaults()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for host without scheme")
	}
	expected := `generation.host must be an http(s) URL, got "127.0.0.1:11434"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_PageSizes(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog = CatalogConfig{DefaultPageSize: 50, MaxPageSize: 10}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when default page size exceeds max")
	}
}

func TestValidate_EmptyTokenUser(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.Tokens = map[string]string{"secret": ""}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for token without user")
	}
}

func TestValidate_NegativeCacheTTL(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.CacheTTLHours = -1
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative cache ttl")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 150 {
		t.Errorf("expected WriteTimeoutSec=150, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Generation.Host != "http://127.0.0.1:11434" {
		t.Errorf("unexpected host %q", cfg.Generation.Host)
	}
	if cfg.Generation.TextModel != "llama3" || cfg.Generation.VisionModel != "llava" {
		t.Errorf("unexpected models %q/%q", cfg.Generation.TextModel, cfg.Generation.VisionModel)
	}
	if cfg.Generation.VisionTimeoutSec != 120 {
		t.Errorf("expected vision timeout 120, got %d", cfg.Generation.VisionTimeoutSec)
	}
	if cfg.Embedding.BaseURL != "http://127.0.0.1:11434/v1" {
		t.Errorf("expected embedding base url derived from host, got %q", cfg.Embedding.BaseURL)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("expected 384 dimensions, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.RAG.TopK != 3 {
		t.Errorf("expected TopK=3, got %d", cfg.RAG.TopK)
	}
	if !slices.Equal(cfg.RAG.SeedDocuments, DefaultSeedDocuments) {
		t.Errorf("expected default seed documents, got %v", cfg.RAG.SeedDocuments)
	}
	if cfg.Storage.KeyPrefix != "nutriplate:" {
		t.Errorf("expected KeyPrefix='nutriplate:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:       HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Generation: GenerationConfig{Host: "http://ollama:11434", TextModel: "mistral"},
		RAG:        RAGConfig{TopK: 5, SeedDocuments: []string{}},
		Storage:    StorageConfig{KeyPrefix: "custom:"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Generation.TextModel != "mistral" {
		t.Errorf("expected mistral, got %q", cfg.Generation.TextModel)
	}
	if cfg.Embedding.BaseURL != "http://ollama:11434/v1" {
		t.Errorf("expected base url from configured host, got %q", cfg.Embedding.BaseURL)
	}
	if cfg.RAG.TopK != 5 {
		t.Errorf("expected TopK=5, got %d", cfg.RAG.TopK)
	}
	if len(cfg.RAG.SeedDocuments) != 0 {
		t.Errorf("explicit empty seed list should be kept, got %v", cfg.RAG.SeedDocuments)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestParse_ExpandsAndOverrides(t *testing.T) {
	t.Setenv("TEST_REDIS", "redis:6380")
	t.Setenv("OLLAMA_HOST", "")
	t.Setenv("OLLAMA_TEXT_MODEL", "")
	t.Setenv("OLLAMA_VISION_MODEL", "bakllava")

	data := []byte(`
http:
  port: ${TEST_PORT:-9000}
database:
  addrs: ["${TEST_REDIS}"]
auth:
  tokens:
    abc: alice
generation:
  vision_model: llava
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.HTTP.Port != 9000 {
		t.Errorf("expected port default 9000, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.Addrs[0] != "redis:6380" {
		t.Errorf("expected expanded addr, got %q", cfg.Database.Addrs[0])
	}
	if cfg.Generation.VisionModel != "bakllava" {
		t.Errorf("expected env override, got %q", cfg.Generation.VisionModel)
	}
	if cfg.Auth.Tokens["abc"] != "alice" {
		t.Errorf("expected token mapping, got %v", cfg.Auth.Tokens)
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := Parse([]byte("http:\n  port: 8080\n")); err == nil {
		t.Fatal("expected validation error for missing database")
	}
}

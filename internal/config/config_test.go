package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Driver: "redis",
			Addrs:  []string{"localhost:6379"},
		},
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingRedisAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing redis addrs")
	}
}

func TestValidate_MissingSQLitePath(t *testing.T) {
	cfg := validConfig()
	cfg.Database = DatabaseConfig{Driver: "sqlite"}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing sqlite path")
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "postgres"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	expected := `database.driver must be "redis" or "sqlite", got "postgres"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_OverlapExceedsChunkSize(t *testing.T) {
	cfg := validConfig()
	cfg.Pipeline = PipelineConfig{ChunkSize: 300, Overlap: 300}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for overlap >= chunk_size")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 30 {
		t.Errorf("expected WriteTimeoutSec=30, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Database.Driver != "redis" {
		t.Errorf("expected Driver=redis, got %q", cfg.Database.Driver)
	}
	if cfg.Embedding.Model != "text-embedding-3-large" {
		t.Errorf("expected default embedding model, got %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimensions != 1024 {
		t.Errorf("expected Dimensions=1024, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Pipeline.ChunkSize != 750 {
		t.Errorf("expected ChunkSize=750, got %d", cfg.Pipeline.ChunkSize)
	}
	if cfg.Pipeline.Workers != 4 {
		t.Errorf("expected Workers=4, got %d", cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.RetrievalLimit != 1 {
		t.Errorf("expected RetrievalLimit=1, got %d", cfg.Pipeline.RetrievalLimit)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database:  DatabaseConfig{Driver: "sqlite", Path: "/tmp/pdfchat.db", ReadinessTimeout: 15},
		Embedding: EmbeddingConfig{Model: "custom-model", Dimensions: 512},
		Pipeline:  PipelineConfig{ChunkSize: 500, Overlap: 100, Workers: 8, RetrievalLimit: 3},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected Driver=sqlite, got %q", cfg.Database.Driver)
	}
	if cfg.Embedding.Dimensions != 512 {
		t.Errorf("expected Dimensions=512, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Pipeline.ChunkSize != 500 || cfg.Pipeline.Overlap != 100 || cfg.Pipeline.Workers != 8 {
		t.Errorf("pipeline settings overridden: %+v", cfg.Pipeline)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("PDFCHAT_TEST_KEY", "secret")

	in := []byte("api_key: ${PDFCHAT_TEST_KEY}\nmodel: ${PDFCHAT_TEST_MODEL:-text-embedding-3-large}\n")
	out := string(expandEnvVars(in))

	if out != "api_key: secret\nmodel: text-embedding-3-large\n" {
		t.Errorf("expanded = %q", out)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	content := []byte(`
http:
  port: 9090
database:
  driver: sqlite
  path: ${PDFCHAT_DB_PATH:-/tmp/pdfchat-test.db}
embedding:
  api_key: test-key
`)
	if err := os.WriteFile(filepath.Join(dir, "config", "test.yaml"), content, 0o600); err != nil {
		t.Fatal(err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}
	if cfg.Database.Path != "/tmp/pdfchat-test.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
	if cfg.Pipeline.ChunkSize != 750 {
		t.Errorf("defaults not applied, chunk size = %d", cfg.Pipeline.ChunkSize)
	}
}

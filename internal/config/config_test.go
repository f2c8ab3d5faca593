package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
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

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_OverlapNotSmallerThanSize(t *testing.T) {
	cfg := validConfig()
	cfg.Chunking = ChunkingConfig{Size: 100, Overlap: 100}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for overlap >= size")
	}

	cfg.Chunking = ChunkingConfig{Size: 100, Overlap: 150}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for overlap > size")
	}
}

func TestValidate_NegativeRate(t *testing.T) {
	cfg := validConfig()
	cfg.Chunking = ChunkingConfig{Size: 1200, Overlap: 150}
	cfg.Ingest.RatePerSec = -1

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative ingest rate")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.OpenAI.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("unexpected embedding model %q", cfg.OpenAI.EmbeddingModel)
	}
	if cfg.OpenAI.Dimensions != 1536 {
		t.Errorf("expected Dimensions=1536, got %d", cfg.OpenAI.Dimensions)
	}
	if cfg.OpenAI.BatchSize != 8 {
		t.Errorf("expected BatchSize=8, got %d", cfg.OpenAI.BatchSize)
	}
	if cfg.OpenAI.MaxRetries != 5 {
		t.Errorf("expected MaxRetries=5, got %d", cfg.OpenAI.MaxRetries)
	}
	if cfg.Retrieval.TopK != 5 {
		t.Errorf("expected TopK=5, got %d", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.ContextChars != 2000 {
		t.Errorf("expected ContextChars=2000, got %d", cfg.Retrieval.ContextChars)
	}
	if cfg.Chunking.Size != 1200 {
		t.Errorf("expected Size=1200, got %d", cfg.Chunking.Size)
	}
	if cfg.Chunking.Overlap != 150 {
		t.Errorf("expected Overlap=150, got %d", cfg.Chunking.Overlap)
	}
	if cfg.Ingest.FailurePauseSec != 2 {
		t.Errorf("expected FailurePauseSec=2, got %d", cfg.Ingest.FailurePauseSec)
	}
	if cfg.Ingest.OCRLangs != "ara+eng" {
		t.Errorf("expected OCRLangs=ara+eng, got %q", cfg.Ingest.OCRLangs)
	}
	if cfg.Index.HNSWM != 32 {
		t.Errorf("expected HNSWM=32, got %d", cfg.Index.HNSWM)
	}
	if cfg.Index.HNSWEFConstruct != 400 {
		t.Errorf("expected HNSWEFConstruct=400, got %d", cfg.Index.HNSWEFConstruct)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 90, ShutdownSec: 5},
		Database:  DatabaseConfig{ReadinessTimeout: 15},
		OpenAI:    OpenAIConfig{EmbeddingModel: "custom-model", BatchSize: 16},
		Chunking:  ChunkingConfig{Size: 800, Overlap: 100},
		Retrieval: RetrievalConfig{TopK: 10, ContextChars: 4000},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.OpenAI.EmbeddingModel != "custom-model" {
		t.Errorf("expected model preserved, got %q", cfg.OpenAI.EmbeddingModel)
	}
	if cfg.OpenAI.BatchSize != 16 {
		t.Errorf("expected BatchSize=16, got %d", cfg.OpenAI.BatchSize)
	}
	if cfg.Chunking.Size != 800 || cfg.Chunking.Overlap != 100 {
		t.Errorf("expected chunking preserved, got %+v", cfg.Chunking)
	}
	if cfg.Retrieval.TopK != 10 {
		t.Errorf("expected TopK=10, got %d", cfg.Retrieval.TopK)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("PHARMANINJA_TEST_KEY", "sk-test")

	in := []byte("api_key: ${PHARMANINJA_TEST_KEY}\nbase_url: ${PHARMANINJA_TEST_URL:-https://api.openai.com/v1}\n")
	out := string(expandEnvVars(in))

	if out != "api_key: sk-test\nbase_url: https://api.openai.com/v1\n" {
		t.Errorf("unexpected expansion:\n%s", out)
	}
}

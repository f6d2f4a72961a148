// internal/appconfig/appconfig_test.go
package appconfig

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

// TestConfiguredValues checks that set fields win over the defaults helpers.
func TestConfiguredValues(t *testing.T) {
	cfg := Config{
		CatalogSources: []string{"data/food.json"},
		Generation:     GenerationConfig{Provider: "OpenAI"},
		TopK:           5,
	}

	if cfg.RequestTimeout() != 120*time.Second {
		t.Fatalf("expected default request timeout of 120s, got %v", cfg.RequestTimeout())
	}
	if cfg.TopKOrDefault() != 5 {
		t.Fatalf("expected topK 5, got %d", cfg.TopKOrDefault())
	}
	if got := cfg.GenerationModel(); got != "gpt-4o-mini" {
		t.Fatalf("expected openai default model, got %s", got)
	}
	if got := cfg.Sources(); len(got) != 1 || got[0] != "data/food.json" {
		t.Fatalf("unexpected sources: %v", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
}

func TestValidatePGVectorRequiresDSN(t *testing.T) {
	if err := (Config{Store: "pgvector"}).Validate(); err == nil {
		t.Fatal("Validate() should require postgresDSN for pgvector")
	}
	if err := (Config{Store: "postgres", PostgresDSN: "postgres://localhost/nabin"}).Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
}

func TestDefaults(t *testing.T) {
	var cfg Config

	if got := cfg.Sources(); len(got) != 2 || got[0] != "food.json" || got[1] != "drink.json" {
		t.Fatalf("unexpected default sources: %v", got)
	}
	if cfg.DataDirectory() != "nabin_db_data" {
		t.Fatalf("unexpected data dir: %s", cfg.DataDirectory())
	}
	if cfg.CollectionName() != "nabin_places" {
		t.Fatalf("unexpected collection: %s", cfg.CollectionName())
	}
	if cfg.StoreBackend() != StoreSQLite {
		t.Fatalf("unexpected store: %s", cfg.StoreBackend())
	}
	if cfg.DocumentIDScheme() != IDSchemeOrdinal {
		t.Fatalf("unexpected id scheme: %s", cfg.DocumentIDScheme())
	}
	if cfg.TopKOrDefault() != 3 {
		t.Fatalf("unexpected topK: %d", cfg.TopKOrDefault())
	}
	if cfg.EmbeddingProvider() != "ollama" || cfg.EmbeddingModel() != "paraphrase-multilingual" {
		t.Fatalf("unexpected embedding defaults: %s %s", cfg.EmbeddingProvider(), cfg.EmbeddingModel())
	}
	if cfg.GenerationProvider() != "gemini" || cfg.GenerationModel() != "gemini-2.5-flash" {
		t.Fatalf("unexpected generation defaults: %s %s", cfg.GenerationProvider(), cfg.GenerationModel())
	}
	if cfg.AssistantName() != "NABIN" || cfg.UserName() != "Thanh Huy" {
		t.Fatalf("unexpected persona defaults: %s %s", cfg.AssistantName(), cfg.UserName())
	}
	if cfg.LogFilePath() != "nabin.log" {
		t.Fatalf("unexpected log file: %s", cfg.LogFilePath())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero config should validate: %v", err)
	}
}

func TestSourcesReturnsCopy(t *testing.T) {
	cfg := Config{CatalogSources: []string{"a.json"}}
	got := cfg.Sources()
	got[0] = "changed"
	if cfg.CatalogSources[0] != "a.json" {
		t.Fatalf("Sources must not alias config slice")
	}
}

func TestValidateRejectsUnknownProviders(t *testing.T) {
	cases := []Config{
		{Store: "redis"},
		{Embedding: EmbeddingConfig{Provider: "cohere"}},
		{Generation: GenerationConfig{Provider: "mistral"}},
	}
	for _, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("expected validation error for %+v", cfg)
		}
	}
}

func TestShowConfig(t *testing.T) {
	var buf bytes.Buffer
	ShowConfig(&buf, "", nil)
	out := buf.String()
	if !strings.Contains(out, "No config file loaded") {
		t.Fatalf("expected default banner, got %s", out)
	}
	if !strings.Contains(out, "Generation:      gemini (gemini-2.5-flash)") {
		t.Fatalf("expected generation line, got %s", out)
	}
}

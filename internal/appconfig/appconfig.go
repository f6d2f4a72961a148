// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// defaultRequestTimeout is the default timeout for HTTP requests to model providers.
	defaultRequestTimeout = 120 * time.Second
	// defaultTopK is the number of venues retrieved per query.
	defaultTopK = 3
	// defaultEmbeddingConcurrency bounds parallel embedding requests during reindex.
	defaultEmbeddingConcurrency = 4
	// defaultMaxTokens caps generated answers.
	defaultMaxTokens = 1024
)

// Store backends.
const (
	StoreSQLite   = "sqlite"
	StorePGVector = "pgvector"
)

// Document id schemes.
const (
	IDSchemeOrdinal = "ordinal"
	IDSchemeContent = "content"
)

// Config represents the top-level application configuration.
type Config struct {
	Debug          bool             `json:"debug" mapstructure:"debug"`
	LogFile        string           `json:"logFile,omitempty" mapstructure:"logFile"`
	LogLevel       string           `json:"logLevel,omitempty" mapstructure:"logLevel"`
	TimeoutSeconds int              `json:"timeout,omitempty" mapstructure:"timeout"`
	CatalogSources []string         `json:"catalogSources,omitempty" mapstructure:"catalogSources"`
	DataDir        string           `json:"dataDir,omitempty" mapstructure:"dataDir"`
	Collection     string           `json:"collection,omitempty" mapstructure:"collection"`
	Store          string           `json:"store,omitempty" mapstructure:"store"`
	PostgresDSN    string           `json:"postgresDSN,omitempty" mapstructure:"postgresDSN"`
	IDScheme       string           `json:"idScheme,omitempty" mapstructure:"idScheme"`
	TopK           int              `json:"topK,omitempty" mapstructure:"topK"`
	Embedding      EmbeddingConfig  `json:"embedding" mapstructure:"embedding"`
	Generation     GenerationConfig `json:"generation" mapstructure:"generation"`
	Persona        PersonaConfig    `json:"persona" mapstructure:"persona"`
	Server         ServerConfig     `json:"server" mapstructure:"server"`
	Metrics        bool             `json:"metrics" mapstructure:"metrics"`
	ConfigPath     string           `json:"-" mapstructure:"-"`
}

// EmbeddingConfig selects the model that turns venue text and queries into vectors.
type EmbeddingConfig struct {
	Provider    string `json:"provider,omitempty" mapstructure:"provider"`
	Model       string `json:"model,omitempty" mapstructure:"model"`
	URL         string `json:"url,omitempty" mapstructure:"url"`
	APIKey      string `json:"apiKey,omitempty" mapstructure:"apiKey"`
	Concurrency int    `json:"concurrency,omitempty" mapstructure:"concurrency"`
}

// GenerationConfig selects the generative model that writes the answer.
type GenerationConfig struct {
	Provider      string   `json:"provider,omitempty" mapstructure:"provider"`
	Model         string   `json:"model,omitempty" mapstructure:"model"`
	URL           string   `json:"url,omitempty" mapstructure:"url"`
	APIKey        string   `json:"apiKey,omitempty" mapstructure:"apiKey"`
	MaxTokens     int      `json:"maxTokens,omitempty" mapstructure:"maxTokens"`
	Temperature   *float64 `json:"temperature,omitempty" mapstructure:"temperature"`
	ThreadHistory bool     `json:"threadHistory" mapstructure:"threadHistory"`
}

// PersonaConfig names the assistant and the person it talks to.
type PersonaConfig struct {
	AssistantName string `json:"assistantName,omitempty" mapstructure:"assistantName"`
	UserName      string `json:"userName,omitempty" mapstructure:"userName"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Addr string `json:"addr,omitempty" mapstructure:"addr"`
}

// DefaultCatalogSources lists the catalog files read when the config names none.
var DefaultCatalogSources = []string{"food.json", "drink.json"}

// RequestTimeout returns the timeout duration for HTTP requests, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "nabin.log"
}

// Sources returns the catalog files to ingest, in ingestion order.
func (c Config) Sources() []string {
	if len(c.CatalogSources) == 0 {
		return append([]string(nil), DefaultCatalogSources...)
	}
	return append([]string(nil), c.CatalogSources...)
}

// DataDirectory returns the directory holding the persistent vector store.
func (c Config) DataDirectory() string {
	if dir := strings.TrimSpace(c.DataDir); dir != "" {
		return dir
	}
	return "nabin_db_data"
}

// CollectionName returns the name of the venue collection inside the store.
func (c Config) CollectionName() string {
	if name := strings.TrimSpace(c.Collection); name != "" {
		return name
	}
	return "nabin_places"
}

// StoreBackend returns the normalized vector store backend name.
func (c Config) StoreBackend() string {
	switch strings.ToLower(strings.TrimSpace(c.Store)) {
	case "", StoreSQLite:
		return StoreSQLite
	case StorePGVector, "postgres":
		return StorePGVector
	default:
		return strings.ToLower(strings.TrimSpace(c.Store))
	}
}

// DocumentIDScheme returns the normalized id scheme for indexed documents.
func (c Config) DocumentIDScheme() string {
	if strings.EqualFold(strings.TrimSpace(c.IDScheme), IDSchemeContent) {
		return IDSchemeContent
	}
	return IDSchemeOrdinal
}

// TopKOrDefault returns the number of venues retrieved per query.
func (c Config) TopKOrDefault() int {
	if c.TopK <= 0 {
		return defaultTopK
	}
	return c.TopK
}

// EmbeddingProvider returns the embedding backend name.
func (c Config) EmbeddingProvider() string {
	if p := strings.ToLower(strings.TrimSpace(c.Embedding.Provider)); p != "" {
		return p
	}
	return "ollama"
}

// EmbeddingModel returns the embedding model, defaulting per provider.
func (c Config) EmbeddingModel() string {
	if m := strings.TrimSpace(c.Embedding.Model); m != "" {
		return m
	}
	if c.EmbeddingProvider() == "openai" {
		return "text-embedding-3-small"
	}
	return "paraphrase-multilingual"
}

// EmbeddingConcurrency returns how many embedding requests may run at once.
func (c Config) EmbeddingConcurrency() int {
	if c.Embedding.Concurrency <= 0 {
		return defaultEmbeddingConcurrency
	}
	return c.Embedding.Concurrency
}

// GenerationProvider returns the generation backend name.
func (c Config) GenerationProvider() string {
	if p := strings.ToLower(strings.TrimSpace(c.Generation.Provider)); p != "" {
		return p
	}
	return "gemini"
}

// GenerationModel returns the generative model, defaulting per provider.
func (c Config) GenerationModel() string {
	if m := strings.TrimSpace(c.Generation.Model); m != "" {
		return m
	}
	switch c.GenerationProvider() {
	case "openai":
		return "gpt-4o-mini"
	case "anthropic":
		return "claude-3-5-haiku-latest"
	case "ollama":
		return "llama3.2"
	default:
		return "gemini-2.5-flash"
	}
}

// MaxTokensOrDefault returns the answer length cap.
func (c Config) MaxTokensOrDefault() int {
	if c.Generation.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return c.Generation.MaxTokens
}

// AssistantName returns the persona's name.
func (c Config) AssistantName() string {
	if n := strings.TrimSpace(c.Persona.AssistantName); n != "" {
		return n
	}
	return "NABIN"
}

// UserName returns the name the persona uses for its user.
func (c Config) UserName() string {
	if n := strings.TrimSpace(c.Persona.UserName); n != "" {
		return n
	}
	return "Thanh Huy"
}

// ServerAddr returns the listen address for the HTTP API.
func (c Config) ServerAddr() string {
	if addr := strings.TrimSpace(c.Server.Addr); addr != "" {
		return addr
	}
	return ":8080"
}

// Validate reports combinations that cannot work at runtime.
func (c Config) Validate() error {
	switch c.StoreBackend() {
	case StoreSQLite:
	case StorePGVector:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return errors.New("postgresDSN is required when store is pgvector")
		}
	default:
		return fmt.Errorf("unsupported store %q", c.Store)
	}
	switch c.EmbeddingProvider() {
	case "ollama", "openai":
	default:
		return fmt.Errorf("unsupported embedding provider %q", c.Embedding.Provider)
	}
	switch c.GenerationProvider() {
	case "gemini", "openai", "anthropic", "ollama":
	default:
		return fmt.Errorf("unsupported generation provider %q", c.Generation.Provider)
	}
	return nil
}

// Package credentials resolves API keys for the model providers.
package credentials

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mwiater/nabin/internal/appconfig"
	"github.com/mwiater/nabin/internal/logging"
	"golang.org/x/term"
)

// Source records where a key came from.
type Source string

const (
	SourceNone        Source = ""
	SourceConfig      Source = "config"
	SourceEnvironment Source = "environment"
	SourcePrompt      Source = "prompt"
)

// Credential is a resolved API key for one provider.
type Credential struct {
	Provider string
	Key      string
	Source   Source
}

// Present reports whether a key is available.
func (c Credential) Present() bool {
	return strings.TrimSpace(c.Key) != ""
}

// Masked returns a display-safe form of the key.
func (c Credential) Masked() string {
	if len(c.Key) <= 8 {
		return "****"
	}
	return c.Key[:4] + "..." + c.Key[len(c.Key)-4:]
}

// lookupEnv is replaced in tests.
var lookupEnv = os.LookupEnv

var providerEnv = map[string][]string{
	"gemini":    {"NABIN_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"openai":    {"NABIN_API_KEY", "OPENAI_API_KEY"},
	"anthropic": {"NABIN_API_KEY", "ANTHROPIC_API_KEY"},
}

// Required reports whether provider needs an API key at all.
func Required(provider string) bool {
	_, ok := providerEnv[strings.ToLower(provider)]
	return ok
}

// EnvKeys lists the environment variables consulted for provider.
func EnvKeys(provider string) []string {
	return append([]string(nil), providerEnv[strings.ToLower(provider)]...)
}

// Resolve finds the generation key from config, then the environment.
func Resolve(cfg *appconfig.Config) Credential {
	provider := cfg.GenerationProvider()
	cred := Credential{Provider: provider}
	if key := strings.TrimSpace(cfg.Generation.APIKey); key != "" {
		cred.Key, cred.Source = key, SourceConfig
		return cred
	}
	if key, ok := fromEnv(EnvKeys(provider)...); ok {
		cred.Key, cred.Source = key, SourceEnvironment
	}
	return cred
}

// EmbeddingKey returns the key for the embedding provider, if it needs one.
func EmbeddingKey(cfg *appconfig.Config) string {
	if key := strings.TrimSpace(cfg.Embedding.APIKey); key != "" {
		return key
	}
	if cfg.EmbeddingProvider() != "openai" {
		return ""
	}
	if cfg.GenerationProvider() == "openai" && strings.TrimSpace(cfg.Generation.APIKey) != "" {
		return strings.TrimSpace(cfg.Generation.APIKey)
	}
	key, _ := fromEnv("OPENAI_API_KEY")
	return key
}

func fromEnv(keys ...string) (string, bool) {
	for _, key := range keys {
		if value, ok := lookupEnv(key); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed, true
			}
		}
	}
	return "", false
}

// LoadDotEnv loads .env from dir when present. Existing environment
// variables are not overridden.
func LoadDotEnv(dir string) error {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}
	logging.LogEvent("Loaded environment from %s", filepath.Join(dir, ".env"))
	return nil
}

// Prompt asks for a key on the terminal without echo. It falls back to a
// plain line read when in is not a terminal.
func Prompt(in *os.File, out io.Writer, provider string) (Credential, error) {
	fmt.Fprintf(out, "Enter %s API key: ", provider)
	var key string
	if term.IsTerminal(int(in.Fd())) {
		raw, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return Credential{}, fmt.Errorf("read API key: %w", err)
		}
		key = string(raw)
	} else {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return Credential{}, fmt.Errorf("read API key: %w", err)
		}
		key = line
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return Credential{Provider: provider}, nil
	}
	return Credential{Provider: provider, Key: key, Source: SourcePrompt}, nil
}

// internal/providerfactory/factory.go
package providerfactory

import (
	"fmt"
	"path/filepath"

	"github.com/mwiater/nabin/internal/appconfig"
	"github.com/mwiater/nabin/internal/logging"
	"github.com/mwiater/nabin/internal/metrics"
	"github.com/mwiater/nabin/internal/providers"
	"github.com/mwiater/nabin/internal/providers/anthropic"
	"github.com/mwiater/nabin/internal/providers/gemini"
	"github.com/mwiater/nabin/internal/providers/ollama"
	"github.com/mwiater/nabin/internal/providers/openai"
)

// anthropicMaxRetries matches the SDK default.
const anthropicMaxRetries = 2

// NewGenerator selects and configures the generation backend named by
// generation.provider and wraps it with metrics collection if enabled.
// apiKey is the already resolved credential; it is ignored by ollama.
func NewGenerator(cfg *appconfig.Config, apiKey string) (providers.Generator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}

	timeout := cfg.RequestTimeout()
	url := cfg.Generation.URL

	var generator providers.Generator
	switch name := cfg.GenerationProvider(); name {
	case "gemini":
		generator = gemini.New(gemini.Config{APIKey: apiKey, BaseURL: url, Timeout: timeout})
	case "openai":
		generator = openai.New(openai.Config{APIKey: apiKey, BaseURL: url, Timeout: timeout})
	case "anthropic":
		generator = anthropic.New(anthropic.Config{APIKey: apiKey, BaseURL: url, Timeout: timeout, MaxRetries: anthropicMaxRetries})
	case "ollama":
		generator = ollama.New(url, timeout)
	default:
		return nil, fmt.Errorf("unsupported generation provider %q", name)
	}
	logging.LogEvent("Generation provider ready: %s (%s)", generator.Name(), cfg.GenerationModel())

	if cfg.Metrics {
		aggregator := metrics.GetInstance(StatsPath(cfg))
		generator = metrics.NewGenerator(generator, aggregator, metrics.Default())
	}

	return generator, nil
}

// StatsPath is where the generation stats aggregator persists its data.
func StatsPath(cfg *appconfig.Config) string {
	return filepath.Join(cfg.DataDirectory(), metrics.StatsFile)
}

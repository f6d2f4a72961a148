package appconfig

import (
	"fmt"
	"io"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg *Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	if cfg == nil {
		cfg = &Config{}
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Debug:           %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Log File:        %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Timeout:         %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Catalog Sources: %v\n", cfg.Sources())
	fmt.Fprintf(out, "  Store:           %s\n", cfg.StoreBackend())
	if cfg.StoreBackend() == StoreSQLite {
		fmt.Fprintf(out, "  Data Dir:        %s\n", cfg.DataDirectory())
	}
	fmt.Fprintf(out, "  Collection:      %s\n", cfg.CollectionName())
	fmt.Fprintf(out, "  ID Scheme:       %s\n", cfg.DocumentIDScheme())
	fmt.Fprintf(out, "  Top K:           %d\n", cfg.TopKOrDefault())
	fmt.Fprintf(out, "  Embedding:       %s (%s)\n", cfg.EmbeddingProvider(), cfg.EmbeddingModel())
	fmt.Fprintf(out, "  Generation:      %s (%s)\n", cfg.GenerationProvider(), cfg.GenerationModel())
	fmt.Fprintf(out, "  Thread History:  %v\n", cfg.Generation.ThreadHistory)
	fmt.Fprintf(out, "  Persona:         %s -> %s\n", cfg.AssistantName(), cfg.UserName())
	fmt.Fprintf(out, "  Server Addr:     %s\n", cfg.ServerAddr())
	fmt.Fprintf(out, "  Metrics:         %v\n", cfg.Metrics)
}

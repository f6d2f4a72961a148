package nabin

import (
	"context"
	"fmt"
	"os"

	"github.com/mwiater/nabin/internal/appconfig"
	"github.com/mwiater/nabin/internal/chat"
	"github.com/mwiater/nabin/internal/credentials"
	"github.com/mwiater/nabin/internal/logging"
	"github.com/mwiater/nabin/internal/rag"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// promptKeyFlag asks for the generation key on the terminal when none is configured.
const promptKeyFlag = "prompt-key"

func addPromptKeyFlag(cmd *cobra.Command) {
	cmd.Flags().Bool(promptKeyFlag, false, "prompt for the API key when none is configured")
}

// requireConfig returns the loaded config or an error when the root pre-run did not run.
func requireConfig() (*appconfig.Config, error) {
	cfg := GetConfig()
	if cfg == nil {
		return nil, fmt.Errorf("config is not loaded")
	}
	return cfg, nil
}

// resolveCredential finds the generation key from config or the environment,
// then from the terminal when --prompt-key is set.
func resolveCredential(cmd *cobra.Command, cfg *appconfig.Config) (credentials.Credential, error) {
	cred := credentials.Resolve(cfg)
	if cred.Present() || !credentials.Required(cred.Provider) {
		logCredential(cred)
		return cred, nil
	}
	prompt, _ := cmd.Flags().GetBool(promptKeyFlag)
	if !prompt || !term.IsTerminal(int(os.Stdin.Fd())) {
		logging.LogEvent("No API key found for %s (checked %v)", cred.Provider, credentials.EnvKeys(cred.Provider))
		return cred, nil
	}
	prompted, err := credentials.Prompt(os.Stdin, cmd.ErrOrStderr(), cred.Provider)
	if err != nil {
		return cred, err
	}
	logCredential(prompted)
	return prompted, nil
}

func logCredential(cred credentials.Credential) {
	if cred.Present() {
		logging.LogEvent("API key for %s connected from %s (%s)", cred.Provider, cred.Source, cred.Masked())
	}
}

// openIndex returns the process-wide index, opening it on first use.
func openIndex(ctx context.Context) (*rag.Index, error) {
	if indexHandle == nil {
		return nil, fmt.Errorf("config is not loaded")
	}
	ix, err := indexHandle.Index(ctx)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return ix, nil
}

// openPipeline resolves the credential and opens the full query pipeline.
func openPipeline(ctx context.Context, cmd *cobra.Command) (*appconfig.Config, *chat.Pipeline, error) {
	cfg, err := requireConfig()
	if err != nil {
		return nil, nil, err
	}
	cred, err := resolveCredential(cmd, cfg)
	if err != nil {
		return nil, nil, err
	}
	ix, err := openIndex(ctx)
	if err != nil {
		return nil, nil, err
	}
	p, err := chat.Open(cfg, ix, cred)
	if err != nil {
		return nil, nil, err
	}
	return cfg, p, nil
}

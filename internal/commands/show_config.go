package nabin

import (
	"github.com/k0kubun/pp"
	"github.com/mwiater/nabin/internal/appconfig"
	"github.com/mwiater/nabin/internal/credentials"
	"github.com/spf13/cobra"
)

// showConfigCmd implements the 'show config' command, which displays the current configuration settings.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the JSON configs are loaded properly and overridden by environment and flags accordingly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			masked := maskSecrets(*cfg)
			pp.ColoringEnabled = false
			_, err := pp.Fprintln(out, masked)
			return err
		}
		appconfig.ShowConfig(out, cfg.ConfigPath, cfg)
		cred := credentials.Resolve(cfg)
		switch {
		case cred.Present():
			cmd.Printf("  API Key:         %s (from %s)\n", cred.Masked(), cred.Source)
		case credentials.Required(cred.Provider):
			cmd.Printf("  API Key:         missing (set one of %v)\n", credentials.EnvKeys(cred.Provider))
		}
		return nil
	},
}

// maskSecrets hides API keys and the Postgres DSN in a config copy.
func maskSecrets(cfg appconfig.Config) appconfig.Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return credentials.Credential{Key: s}.Masked()
	}
	cfg.Generation.APIKey = mask(cfg.Generation.APIKey)
	cfg.Embedding.APIKey = mask(cfg.Embedding.APIKey)
	cfg.PostgresDSN = mask(cfg.PostgresDSN)
	return cfg
}

func init() {
	showConfigCmd.Flags().Bool("raw", false, "dump the merged config struct")
	showCmd.AddCommand(showConfigCmd)
}

// internal/commands/root.go
package nabin

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/mwiater/nabin/internal/appconfig"
	"github.com/mwiater/nabin/internal/credentials"
	"github.com/mwiater/nabin/internal/logging"
	"github.com/mwiater/nabin/internal/metrics"
	"github.com/mwiater/nabin/internal/rag"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides, e.g. NABIN_GENERATION_PROVIDER.
const envPrefix = "NABIN"

// annotationFileLog marks commands that own the terminal and must log to the file only.
const annotationFileLog = "nabin/file-log"

var (
	cfgFile       string
	configLoaded  bool
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"

	flushMetrics = metrics.Close

	// indexHandle is the process-wide index, opened on first use by a command.
	indexHandle *rag.Handle
)

// configKeys are bound to environment variables so nested keys can be overridden
// without a config file.
var configKeys = []string{
	"debug", "logFile", "logLevel", "timeout", "catalogSources", "dataDir", "collection",
	"store", "postgresDSN", "idScheme", "topK", "metrics",
	"embedding.provider", "embedding.model", "embedding.url", "embedding.apiKey", "embedding.concurrency",
	"generation.provider", "generation.model", "generation.url", "generation.apiKey",
	"generation.maxTokens", "generation.temperature", "generation.threadHistory",
	"persona.assistantName", "persona.userName", "server.addr",
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "nabin",
	Short:         "nabin: venue recommendations from your own food and drink lists",
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := credentials.LoadDotEnv("."); err != nil {
			return err
		}
		if err := ensureConfigLoaded(); err != nil {
			return err
		}

		for _, name := range []string{"debug", "metrics"} {
			if !cmd.Flags().Changed(name) {
				val := viper.GetBool(name)
				_ = cmd.Flags().Set(name, strconv.FormatBool(val))
			}
		}

		var cfg appconfig.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		if configLoaded {
			cfg.ConfigPath = viper.ConfigFileUsed()
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		currentConfig = &cfg
		closeIndex()
		indexHandle = rag.NewHandle(currentConfig)

		initLog := logging.Init
		if _, ok := cmd.Annotations[annotationFileLog]; ok {
			initLog = logging.InitFileOnly
		}
		if err := initLog(currentConfig.LogFilePath()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		level := currentConfig.LogLevel
		if currentConfig.Debug {
			level = "debug"
		}
		logging.SetLogLevel(level)

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeIndex()
		flushMetrics()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	defer logging.Close()
	if err := executeRoot(); err != nil {
		logging.Close()
		os.Exit(1)
	}
}

// executeRoot runs the command tree. Cobra skips PersistentPostRun when a
// command fails, so generation stats are flushed here on that path.
func executeRoot() error {
	if err := rootCmd.Execute(); err != nil {
		closeIndex()
		flushMetrics()
		return err
	}
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("metrics", false, "record generation metrics")
	rootCmd.PersistentFlags().String("logFile", "", "path to the log file")
	rootCmd.PersistentFlags().String("logLevel", "", "log level (debug, info, warn, error, quiet)")

	bindViper()
}

// bindViper wires the persistent flags and environment overrides into viper.
func bindViper() {
	for _, name := range []string{"debug", "metrics", "logFile", "logLevel"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range configKeys {
		_ = viper.BindEnv(key)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// ensureConfigLoaded reads the config file. A missing file is not an error:
// defaults, environment and flags still apply.
func ensureConfigLoaded() error {
	configLoaded = false
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	configLoaded = true
	return nil
}

// closeIndex releases the process-wide index if a command opened it.
func closeIndex() {
	if indexHandle == nil {
		return
	}
	if err := indexHandle.Close(); err != nil {
		logging.LogError(err, "close index")
	}
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}


// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

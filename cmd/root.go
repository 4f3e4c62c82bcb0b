// Package cmd provides the command-line interface for metagen with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI reads its settings from these sources, highest priority first:
//	1. Command-line flags (--input, --output, --port, etc.)
//	2. METAGEN_* environment variables (METAGEN_SERVER_PORT, ...)
//	3. A .env file in the working directory
//	4. The configuration file: --config, else METAGEN_CONFIG_FILE, else
//	   .metagen.yml in the working directory
//
// Environment Variables:
//
//	METAGEN_CONFIG_FILE: Path to custom configuration file
//	METAGEN_INPUT_DECLARATIONS: Declaration JSON to read
//	METAGEN_OUTPUT_PATH: Catalog file to write
//	And every other key following the METAGEN_<SECTION>_<OPTION> pattern
package cmd

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/metagen/internal/config"
	"github.com/conneroisu/metagen/internal/errors"
	"github.com/conneroisu/metagen/internal/logging"
)

var (
	cfgFile string
	// configErr is set when a configuration file that was asked for
	// explicitly could not be read.
	configErr error
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "metagen",
	Short: "Generate a component catalog from TypeScript declarations",
	Long: `metagen reads the declaration tree emitted by the TypeScript documentation
extractor and writes a catalog describing every public UI component: its
slug, description, stylesheet, usage example, lifecycle phase and the other
components it imports.

Quick Start:
  metagen generate                Write components.json
  metagen list                    List catalogued components
  metagen check                   Report dependency cycles and unknown phases
  metagen serve --watch           Serve the catalog and regenerate on change

Command Aliases:
  generate (g), list (l), serve (s), watch (w)`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. An interrupt cancels the running command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .metagen.yml, can also use METAGEN_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	AddFlagValidation(rootCmd.PersistentFlags(), "log-level", func(level string) error {
		_, err := logging.ParseLevel(level)
		return err
	})
	AddFlagValidation(rootCmd.PersistentFlags(), "log-format", func(format string) error {
		return ValidateFormatWithSuggestion(format, []string{"text", "json"})
	})
}

// initConfig wires viper to the configuration file, the .env file and the
// METAGEN_ environment.
func initConfig() {
	configErr = nil

	if err := godotenv.Load(); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		configErr = errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "reading .env")
	}

	explicit := true
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv(config.EnvPrefix + "_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		explicit = false
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".metagen")
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !stderrors.As(err, &notFound) {
			configErr = errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "reading configuration file")
		}
	}
}

// loadConfig binds the command's flags, loads the configuration and builds
// the logger every command logs through.
func loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, logging.Logger, error) {
	bindings["log-level"] = "log.level"
	bindings["log-format"] = "log.format"
	if err := SetViperBindings(cmd, bindings); err != nil {
		return nil, nil, err
	}

	if configErr != nil {
		return nil, nil, errors.NewEnhancedError("Failed to load configuration: "+configErr.Error(), configErr, configSuggestions())
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, errors.NewEnhancedError("Failed to load configuration: "+err.Error(), err, configSuggestions())
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})

	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug(cmd.Context(), "using config file", "path", used)
	}
	return cfg, logger, nil
}

func configSuggestions() []errors.ErrorSuggestion {
	return []errors.ErrorSuggestion{
		{
			Title:       "Check .metagen.yml",
			Description: "The file must be valid YAML with sections input, source, styles, output, server, watch and log",
		},
		{
			Title:       "Check METAGEN_* environment variables",
			Description: "Nested keys use underscores, e.g. METAGEN_SERVER_PORT=9090",
			Command:     "env | grep METAGEN_",
		},
	}
}

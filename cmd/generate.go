package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/metagen/internal/build"
	"github.com/conneroisu/metagen/internal/catalog"
	"github.com/conneroisu/metagen/internal/config"
)

var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"g"},
	Short:   "Generate the component catalog",
	Long: `Read the declaration JSON, assemble one record per public component and
write the catalog. Nothing is written when any component fails.

The format follows --format, else the output file's extension.

Examples:
  metagen generate                          # docs/declarations.json -> components.json
  metagen g -i build/api.json -o -          # Print the catalog to stdout
  metagen generate -o site/catalog.yaml     # Write YAML
  metagen generate --src packages/ui/src    # Read component files elsewhere`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

var generateFlags *StandardFlags

func init() {
	rootCmd.AddCommand(generateCmd)

	generateFlags = AddStandardFlags(generateCmd, "input", "output")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd, generateFlags.Bindings(cmd))
	if err != nil {
		return err
	}
	inferFormat(cmd, cfg)

	pipeline, err := build.NewPipeline(cfg, nil, logger)
	if err != nil {
		return err
	}
	defer pipeline.Close()
	pipeline.SetStdout(cmd.OutOrStdout())

	return pipeline.Build(cmd.Context()).Error
}

// inferFormat picks the format from the output file's extension unless a
// format was given explicitly.
func inferFormat(cmd *cobra.Command, cfg *config.Config) {
	if flag := cmd.Flags().Lookup("format"); flag != nil && flag.Changed {
		return
	}
	if viper.InConfig("output.format") || os.Getenv(config.EnvPrefix+"_OUTPUT_FORMAT") != "" {
		return
	}
	cfg.Output.Format = string(catalog.FormatFromPath(cfg.Output.Path))
}

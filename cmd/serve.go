package cmd

import (
	"github.com/spf13/cobra"

	"github.com/conneroisu/metagen/internal/build"
	"github.com/conneroisu/metagen/internal/registry"
	"github.com/conneroisu/metagen/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Serve the catalog over HTTP",
	Long: `Generate the catalog and serve it over HTTP:

  GET /components.json      the whole catalog (?phase=Dev, ?format=yaml)
  GET /components/{slug}    one component
  GET /healthz              liveness, component count and build metrics
  /ws                       websocket notified with {"type":"catalog","count":N}
                            after every regeneration

Examples:
  metagen serve                   # Serve on localhost:8080
  metagen serve --watch           # Regenerate when sources change
  metagen serve -p 3000 --host 0.0.0.0`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveFlags *StandardFlags
	serveWatch bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveFlags = AddStandardFlags(serveCmd, "input", "output", "server")
	serveCmd.Flags().BoolVarP(&serveWatch, "watch", "w", false, "Regenerate the catalog when sources change")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd, serveFlags.Bindings(cmd))
	if err != nil {
		return err
	}
	inferFormat(cmd, cfg)

	reg := registry.NewComponentRegistry()
	pipeline, err := build.NewPipeline(cfg, reg, logger)
	if err != nil {
		return err
	}
	defer pipeline.Close()
	pipeline.SetStdout(cmd.OutOrStdout())
	pipeline.AddCallback(reportBuild(cmd.Context(), pipeline, logger))

	ctx := cmd.Context()
	if result := pipeline.Build(ctx); result.Error != nil && !serveWatch {
		return result.Error
	}

	if serveWatch {
		fileWatcher, err := newCatalogWatcher(cfg, pipeline, logger)
		if err != nil {
			return err
		}
		defer fileWatcher.Stop()
		if err := fileWatcher.Start(ctx); err != nil {
			return err
		}
	}

	srv := server.New(cfg.Server, reg, logger)
	srv.SetBuildStats(pipeline)
	return srv.Start(ctx)
}

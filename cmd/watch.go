package cmd

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conneroisu/metagen/internal/build"
	"github.com/conneroisu/metagen/internal/config"
	"github.com/conneroisu/metagen/internal/logging"
	"github.com/conneroisu/metagen/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Regenerate the catalog whenever sources change",
	Long: `Generate the catalog, then regenerate it whenever a component source,
stylesheet or the declaration JSON changes. Paths matched by the source
root's .gitignore or by watch.ignore are skipped.

Examples:
  metagen watch                          # Watch src/ and docs/declarations.json
  metagen watch --debounce 1s            # Wait for a quiet second before regenerating
  metagen watch -o site/catalog.yaml     # Keep a YAML catalog up to date`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var watchFlags *StandardFlags

func init() {
	rootCmd.AddCommand(watchCmd)

	watchFlags = AddStandardFlags(watchCmd, "input", "output")
	watchCmd.Flags().Duration("debounce", 0, "Quiet period before regenerating (default from watch.debounce)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	bindings := watchFlags.Bindings(cmd)
	bindings["debounce"] = "watch.debounce"
	cfg, logger, err := loadConfig(cmd, bindings)
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
	pipeline.AddCallback(reportBuild(cmd.Context(), pipeline, logger))

	ctx := cmd.Context()
	pipeline.Build(ctx)

	fileWatcher, err := newCatalogWatcher(cfg, pipeline, logger)
	if err != nil {
		return err
	}
	if err := fileWatcher.Start(ctx); err != nil {
		return err
	}
	logger.Info(ctx, "watching for changes", "root", cfg.Source.Root, "input", cfg.Input.Declarations)

	<-ctx.Done()
	return fileWatcher.Stop()
}

// reportBuild logs the running build totals after every build.
func reportBuild(ctx context.Context, pipeline *build.Pipeline, logger logging.Logger) build.BuildCallback {
	return func(result build.BuildResult) {
		metrics := pipeline.GetMetrics()
		logger.Debug(ctx, "build totals",
			"builds", metrics.TotalBuilds,
			"failed", metrics.FailedBuilds,
			"average", metrics.AverageDuration,
			"ok", result.Error == nil)
	}
}

// newCatalogWatcher watches the source root and the declaration file and
// rebuilds through pipeline after each debounced batch of changes.
func newCatalogWatcher(cfg *config.Config, pipeline *build.Pipeline, logger logging.Logger) (*watcher.FileWatcher, error) {
	fileWatcher, err := watcher.NewFileWatcher(cfg.Watch.Debounce, logger)
	if err != nil {
		return nil, err
	}

	ignorer := watcher.NewIgnorer(cfg.Source.Root, cfg.Watch.Ignore...)
	fileWatcher.SetDirFilter(func(path string) bool {
		return !ignorer.IgnoredDir(path)
	})
	fileWatcher.AddFilter(watcher.AnyFilter(watcher.SourceFilter, watcher.PathFilter(cfg.Input.Declarations)))
	fileWatcher.AddFilter(watcher.NoTestFilter)
	fileWatcher.AddFilter(ignorer.Filter())

	fileWatcher.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		for _, event := range events {
			logger.Debug(ctx, "change", "path", event.Path, "type", event.Type.String())
		}
		logger.Info(ctx, "regenerating catalog", "changed", len(events))
		// Build logs its own failures; the next change retries.
		pipeline.Build(ctx)
		return nil
	})

	if err := fileWatcher.AddRecursive(cfg.Source.Root); err != nil {
		fileWatcher.Stop()
		return nil, err
	}
	// Editors often replace files by rename, so the directory is watched
	// rather than the file itself.
	if err := fileWatcher.AddPath(filepath.Dir(cfg.Input.Declarations)); err != nil {
		fileWatcher.Stop()
		return nil, err
	}

	return fileWatcher, nil
}

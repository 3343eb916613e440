package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/assetpipeline/internal/assets"
	"github.com/conneroisu/assetpipeline/internal/logging"
	"github.com/conneroisu/assetpipeline/internal/watcher"
)

var (
	watchOutput   string
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:     "watch <kind> [target]",
	Aliases: []string{"w"},
	Short:   "Rebuild an output file whenever its sources change",
	Long: `Build the assets of one kind into a file, then rebuild it every time a
source of that kind is created, changed or removed. Runs until interrupted.

Examples:
  assetpipeline watch js -o public/app.js
  assetpipeline watch css -o public/app.css --debounce 500ms`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "", "file to keep up to date (required)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "quiet period before rebuilding")
	_ = watchCmd.MarkFlagRequired("output")
}

func runWatch(cmd *cobra.Command, args []string) error {
	kind, target, err := parseKindTarget(args)
	if err != nil {
		return err
	}

	p, logger, err := newPipeline(cmd)
	if err != nil {
		return err
	}

	if err := checkWatchOutput(p, kind, watchOutput); err != nil {
		return err
	}

	ctx := cmd.Context()
	rebuild := func() error {
		out, err := p.Build(ctx, kind, target)
		if err != nil {
			return err
		}
		if err := writeOutput(cmd.OutOrStdout(), watchOutput, out); err != nil {
			return err
		}
		logger.Info(ctx, "Wrote assets", "kind", kind.String(), "output", watchOutput, "bytes", len(out))
		return nil
	}

	if err := rebuild(); err != nil {
		return err
	}

	fw, err := newAssetWatcher(p, kind, watchDebounce, logger)
	if err != nil {
		return err
	}
	defer fw.Stop()

	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		for _, e := range events {
			logger.Debug(ctx, "Asset changed", "path", e.Path, "change", e.Type.String())
		}
		p.Purge()
		return rebuild()
	})

	if err := fw.Start(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "Watching for changes", "dir", p.AssetsDir(), "kind", kind.String())
	<-ctx.Done()

	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

// checkWatchOutput rejects an output file the watcher would pick up as a
// source, since every write would then trigger another rebuild.
func checkWatchOutput(p *assets.Pipeline, kind assets.Kind, output string) error {
	abs, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("resolving output %s: %w", output, err)
	}
	rel, err := filepath.Rel(p.AssetsDir(), abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	if kind.Recognizes(filepath.Ext(abs)) {
		return fmt.Errorf("output %s is inside the assets directory %s and would be rebuilt from itself", output, p.AssetsDir())
	}
	return nil
}

// newAssetWatcher watches the assets directory for sources of kind, skipping
// the same paths the pipeline ignores.
func newAssetWatcher(p *assets.Pipeline, kind assets.Kind, debounce time.Duration, logger logging.Logger) (*watcher.FileWatcher, error) {
	fw, err := watcher.NewFileWatcher(debounce, logger)
	if err != nil {
		return nil, err
	}

	cfg := p.Config()
	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddFilter(watcher.ExtensionFilter(kind.Extensions()...))
	fw.AddFilter(watcher.IgnoreFilter(p.AssetsDir(), cfg.IgnoreRegexps()))

	if err := fw.AddRecursive(p.AssetsDir()); err != nil {
		fw.Stop()
		return nil, err
	}
	return fw, nil
}

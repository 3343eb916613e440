package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conneroisu/assetpipeline/internal/assets"
)

var buildOutput string

var buildCmd = &cobra.Command{
	Use:     "build <kind> [target]",
	Aliases: []string{"b"},
	Short:   "Combine the assets of one kind",
	Long: `Combine the assets of one kind into a single blob.

The kind is js, css or html. Without a target the configured directory for
the kind is used; a target may name a directory, a single file or a glob,
relative to the assets directory. A single file is compiled but never
minified.

Examples:
  assetpipeline build js                                # All JavaScript to stdout
  assetpipeline build css -o public/app.css             # Write to a file
  assetpipeline build js javascripts/vendor             # One directory
  assetpipeline build js 'javascripts/**/*.coffee'      # A glob
  assetpipeline build html templates/layouts/a.html     # A single template`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "write to this file instead of stdout")
}

func runBuild(cmd *cobra.Command, args []string) error {
	kind, target, err := parseKindTarget(args)
	if err != nil {
		return err
	}

	p, _, err := newPipeline(cmd)
	if err != nil {
		return err
	}

	out, err := p.Build(cmd.Context(), kind, target)
	if err != nil {
		return fmt.Errorf("building %s: %w", kind, err)
	}

	return writeOutput(cmd.OutOrStdout(), buildOutput, out)
}

func parseKindTarget(args []string) (assets.Kind, string, error) {
	kind, err := assets.ParseKind(args[0])
	if err != nil {
		return 0, "", err
	}
	var target string
	if len(args) > 1 {
		target = args[1]
	}
	return kind, target, nil
}

// writeOutput writes out to path, replacing it atomically, or to stdout
// when path is empty or "-".
func writeOutput(stdout io.Writer, path, out string) error {
	if path == "" || path == "-" {
		_, err := fmt.Fprintln(stdout, out)
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temporary output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.WriteString(tmp, out); err != nil {
		tmp.Close()
		return fmt.Errorf("writing output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

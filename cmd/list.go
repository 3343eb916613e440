package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var listFormat string

var listCmd = &cobra.Command{
	Use:     "list <kind> [target]",
	Aliases: []string{"l", "ls"},
	Short:   "List the files a build would combine, in load order",
	Long: `List the files a build would combine, in the order they are concatenated.

Examples:
  assetpipeline list js                 # Table of JavaScript sources
  assetpipeline list css -f json        # As JSON
  assetpipeline list html -f yaml       # As YAML`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table, json, yaml)")
}

type listEntry struct {
	Rel  string `json:"rel" yaml:"rel"`
	Ext  string `json:"ext" yaml:"ext"`
	Path string `json:"path" yaml:"path"`
}

func runList(cmd *cobra.Command, args []string) error {
	switch listFormat {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unsupported format: %s (supported: table, json, yaml)", listFormat)
	}

	kind, target, err := parseKindTarget(args)
	if err != nil {
		return err
	}

	p, _, err := newPipeline(cmd)
	if err != nil {
		return err
	}

	files, err := p.Files(cmd.Context(), kind, target)
	if err != nil {
		return fmt.Errorf("listing %s: %w", kind, err)
	}

	entries := make([]listEntry, len(files))
	for i, f := range files {
		entries[i] = listEntry{Rel: f.Rel, Ext: f.Ext, Path: f.Path}
	}

	out := cmd.OutOrStdout()
	switch listFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(entries)
	}

	title := cases.Title(language.English).String(kind.String())
	fmt.Fprintf(out, "%s (%d files)\n", title, len(entries))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tFILE\tTYPE")
	for i, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, e.Rel, e.Ext)
	}
	return w.Flush()
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/conneroisu/assetpipeline/internal/server"
)

var (
	serveAddr    string
	servePrefix  string
	serveOrigins []string
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Serve combined assets over HTTP",
	Long: `Serve combined assets over HTTP. Every request rescans the sources, so
edits show up on the next reload.

Routes:
  GET <prefix>/javascripts/[target]
  GET <prefix>/stylesheets/[target]
  GET <prefix>/htmls/[target]
  GET /health

Examples:
  assetpipeline serve
  assetpipeline serve --addr :9000 --prefix /static
  assetpipeline serve --allow-origin http://localhost:3000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	defaults := server.DefaultConfig()
	serveCmd.Flags().StringVar(&serveAddr, "addr", defaults.Addr, "address to listen on")
	serveCmd.Flags().StringVar(&servePrefix, "prefix", defaults.Prefix, "URL path prefix of the asset routes")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "allow-origin", nil, "origins allowed to fetch assets cross-origin")
}

func runServe(cmd *cobra.Command, args []string) error {
	p, logger, err := newPipeline(cmd)
	if err != nil {
		return err
	}

	cfg := server.DefaultConfig()
	cfg.Addr = serveAddr
	cfg.Prefix = servePrefix
	cfg.AllowedOrigins = serveOrigins

	return server.New(p, cfg, logger).Start(cmd.Context())
}

// Package cmd provides the assetpipeline command-line interface.
//
// Configuration is read, from highest to lowest priority, from:
//  1. Command-line flags (--no-minify)
//  2. ASSET_PIPELINE_* environment variables (ASSET_PIPELINE_MINIFY=false)
//  3. The file named by --config or ASSETPIPELINE_CONFIG_FILE
//  4. .assetpipeline.yml in the project directory
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/assetpipeline/internal/assets"
	"github.com/conneroisu/assetpipeline/internal/config"
	"github.com/conneroisu/assetpipeline/internal/logging"
)

var (
	cfgFile    string
	projectDir string
	logLevel   string
	logFormat  string
	noMinify   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "assetpipeline",
	Short: "Combine, compile and minify a project's JavaScript, CSS and HTML templates",
	Long: `assetpipeline finds the JavaScript, CoffeeScript, CSS, LESS and HTML template
sources of a project, orders them so vendor libraries load first, compiles
CoffeeScript and LESS, minifies the result and concatenates it.

Quick Start:
  assetpipeline build js                      Print all JavaScript, combined
  assetpipeline build css -o public/app.css   Write the combined stylesheets
  assetpipeline list js                       Show the load order
  assetpipeline watch js -o public/app.js     Rebuild on every change
  assetpipeline serve                         Serve assets over HTTP`,
	SilenceUsage: true,
}

// Execute runs the command tree until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&projectDir, "project", "C", ".", "project root directory")
	flags.StringVar(&cfgFile, "config", "", "config file (default is .assetpipeline.yml in the project, can also use ASSETPIPELINE_CONFIG_FILE env var)")
	flags.StringVarP(&logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	flags.BoolVar(&noMinify, "no-minify", false, "disable minification")
}

func newLogger(cmd *cobra.Command) (logging.Logger, error) {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	if logFormat != "text" && logFormat != "json" {
		return nil, fmt.Errorf("unsupported log format: %s (supported: text, json)", logFormat)
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: logFormat,
		Output: cmd.ErrOrStderr(),
	}), nil
}

func configFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	return os.Getenv("ASSETPIPELINE_CONFIG_FILE")
}

func newViper() (*viper.Viper, error) {
	v, err := config.NewViper(projectDir, configFile())
	if err != nil {
		return nil, err
	}
	if noMinify {
		v.Set(config.KeyMinify, false)
	}
	return v, nil
}

// newPipeline builds a Pipeline for the project from flags, environment and
// config file.
func newPipeline(cmd *cobra.Command) (*assets.Pipeline, logging.Logger, error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, nil, err
	}

	v, err := newViper()
	if err != nil {
		return nil, nil, err
	}

	p, err := assets.New(projectDir, v, assets.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return p, logger, nil
}

// Package config provides the configuration consumed by the asset pipeline.
//
// The pipeline reads its settings through the Provider interface, a single
// Get(key) lookup that a host application can back with anything. A
// *viper.Viper satisfies Provider directly, so the CLI loads YAML files and
// environment variables through Viper, while tests and embedding hosts can
// hand over a MapProvider. All recognized keys live under the
// "asset-pipeline." prefix; unset keys fall back to documented defaults.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	perrors "github.com/conneroisu/assetpipeline/internal/errors"
)

// Prefix namespaces every key the pipeline reads.
const Prefix = "asset-pipeline"

// Recognized configuration keys.
const (
	KeyPath        = Prefix + ".path"
	KeyMinify      = Prefix + ".minify"
	KeyCompressed  = Prefix + ".compressed"
	KeyIgnores     = Prefix + ".ignores"
	KeyJavascripts = Prefix + ".javascripts"
	KeyStylesheets = Prefix + ".stylesheets"
	KeyHtmls       = Prefix + ".htmls"
	KeyVendors     = Prefix + ".vendors"
	KeyCacheSize   = Prefix + ".cache_size"
)

// Provider is the key-value lookup the pipeline is configured from. Get
// returns nil for keys the provider does not know.
type Provider interface {
	Get(key string) interface{}
}

// MapProvider is a Provider backed by a plain map.
type MapProvider map[string]interface{}

// Get implements Provider.
func (m MapProvider) Get(key string) interface{} {
	return m[key]
}

var _ Provider = (*viper.Viper)(nil)

// PipelineConfig is the validated configuration of one pipeline instance.
type PipelineConfig struct {
	// Path is the assets base directory, relative to the project root.
	Path string `yaml:"path"`
	// Minify enables minification of scanned assets.
	Minify bool `yaml:"minify"`
	// Compressed lists file name markers of already minified files.
	Compressed []string `yaml:"compressed"`
	// Ignores lists regular expressions excluding paths from scans.
	Ignores []string `yaml:"ignores"`
	// Javascripts, Stylesheets and Htmls are the per-kind base directories,
	// relative to Path.
	Javascripts string `yaml:"javascripts"`
	Stylesheets string `yaml:"stylesheets"`
	Htmls       string `yaml:"htmls"`
	// Vendors names library-tier directories loaded before their siblings.
	Vendors []string `yaml:"vendors"`
	// CacheSize bounds the compiled file cache; zero disables it.
	CacheSize int `yaml:"cache_size"`
}

// Default returns the configuration used when a provider sets nothing.
func Default() *PipelineConfig {
	return &PipelineConfig{
		Path:        "app/assets",
		Minify:      true,
		Compressed:  []string{".min.", "-min."},
		Ignores:     []string{"/test/", "/tests/"},
		Javascripts: "javascripts",
		Stylesheets: "stylesheets",
		Htmls:       "templates",
		Vendors:     []string{"vendor", "vendors", "lib", "libs", "library"},
		CacheSize:   256,
	}
}

// SetDefaults registers the defaults on a Viper instance so they show up in
// AllSettings and can be overridden by files or the environment.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyPath, d.Path)
	v.SetDefault(KeyMinify, d.Minify)
	v.SetDefault(KeyCompressed, d.Compressed)
	v.SetDefault(KeyIgnores, d.Ignores)
	v.SetDefault(KeyJavascripts, d.Javascripts)
	v.SetDefault(KeyStylesheets, d.Stylesheets)
	v.SetDefault(KeyHtmls, d.Htmls)
	v.SetDefault(KeyVendors, d.Vendors)
	v.SetDefault(KeyCacheSize, d.CacheSize)
}

// NewViper builds a Viper instance reading configFile when set, otherwise
// .assetpipeline.yml in dir if present, with ASSET_PIPELINE_* environment
// overrides (for example ASSET_PIPELINE_MINIFY=false).
func NewViper(dir, configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(dir)
		v.SetConfigType("yaml")
		v.SetConfigName(".assetpipeline")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return v, nil
}

// Load reads and validates the pipeline configuration from a Viper instance.
func Load(v *viper.Viper) (*PipelineConfig, error) {
	return FromProvider(v)
}

// FromProvider reads every recognized key from p, applies defaults for
// unset keys, and validates the result.
func FromProvider(p Provider) (*PipelineConfig, error) {
	if p == nil {
		p = MapProvider{}
	}
	cfg := Default()

	var err error
	if cfg.Path, err = stringValue(p, KeyPath, cfg.Path); err != nil {
		return nil, err
	}
	if cfg.Minify, err = boolValue(p, KeyMinify, cfg.Minify); err != nil {
		return nil, err
	}
	if cfg.Compressed, err = sliceValue(p, KeyCompressed, cfg.Compressed); err != nil {
		return nil, err
	}
	if cfg.Ignores, err = sliceValue(p, KeyIgnores, cfg.Ignores); err != nil {
		return nil, err
	}
	if cfg.Javascripts, err = stringValue(p, KeyJavascripts, cfg.Javascripts); err != nil {
		return nil, err
	}
	if cfg.Stylesheets, err = stringValue(p, KeyStylesheets, cfg.Stylesheets); err != nil {
		return nil, err
	}
	if cfg.Htmls, err = stringValue(p, KeyHtmls, cfg.Htmls); err != nil {
		return nil, err
	}
	if cfg.Vendors, err = sliceValue(p, KeyVendors, cfg.Vendors); err != nil {
		return nil, err
	}
	if cfg.CacheSize, err = intValue(p, KeyCacheSize, cfg.CacheSize); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IgnoreRegexps compiles the ignore patterns. Validate guarantees they compile.
func (c *PipelineConfig) IgnoreRegexps() []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(c.Ignores))
	for _, pattern := range c.Ignores {
		if re, err := regexp.Compile(pattern); err == nil {
			res = append(res, re)
		}
	}
	return res
}

// YAML renders the configuration the way it would appear in a config file.
func (c *PipelineConfig) YAML() ([]byte, error) {
	return yaml.Marshal(map[string]*PipelineConfig{Prefix: c})
}

func stringValue(p Provider, key, def string) (string, error) {
	raw := p.Get(key)
	if raw == nil {
		return def, nil
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		return "", invalidValue(key, raw, err)
	}
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	return s, nil
}

func boolValue(p Provider, key string, def bool) (bool, error) {
	raw := p.Get(key)
	if raw == nil {
		return def, nil
	}
	b, err := cast.ToBoolE(raw)
	if err != nil {
		return false, invalidValue(key, raw, err)
	}
	return b, nil
}

func intValue(p Provider, key string, def int) (int, error) {
	raw := p.Get(key)
	if raw == nil {
		return def, nil
	}
	n, err := cast.ToIntE(raw)
	if err != nil {
		return 0, invalidValue(key, raw, err)
	}
	return n, nil
}

func sliceValue(p Provider, key string, def []string) ([]string, error) {
	raw := p.Get(key)
	if raw == nil {
		return def, nil
	}
	values, err := cast.ToStringSliceE(raw)
	if err != nil {
		return nil, invalidValue(key, raw, err)
	}
	// An explicitly empty list is a valid override, for example no ignores.
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}

func invalidValue(key string, raw interface{}, err error) error {
	return perrors.NewConfigError(perrors.ErrCodeConfigInvalid,
		fmt.Sprintf("%s has unusable value %v: %v", key, raw, err)).
		WithContext("key", key)
}

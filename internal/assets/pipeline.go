// Package assets locates, orders and combines the JavaScript, stylesheet and
// HTML template sources of a project.
//
// A Pipeline is bound to one project root and one configuration. Each
// request walks the configured assets directory for one Kind, keeps the
// files with recognized extensions that no ignore pattern matches, orders
// them so library code loads before application code, and hands them to a
// Bundler that compiles (CoffeeScript, LESS), minifies and concatenates
// them. Requests never mutate the Pipeline, so one instance can serve
// concurrent callers.
package assets

import (
	"context"
	"os"
	"path/filepath"
	"regexp"

	"github.com/conneroisu/assetpipeline/internal/compile"
	"github.com/conneroisu/assetpipeline/internal/config"
	perrors "github.com/conneroisu/assetpipeline/internal/errors"
	"github.com/conneroisu/assetpipeline/internal/logging"
)

// Bundler turns an ordered list of sources into one text blob.
type Bundler interface {
	Bundle(ctx context.Context, sources []compile.Source, opts compile.Options) (string, error)
}

// Pipeline serves asset requests for one project.
type Pipeline struct {
	root      string
	assetsDir string
	config    *config.PipelineConfig
	ignores   []*regexp.Regexp
	order     orderer
	bundler   Bundler
	logger    logging.Logger
}

type options struct {
	logger    logging.Logger
	bundler   Bundler
	compilers []compile.Compiler
}

// Option customizes a Pipeline.
type Option func(*options)

// WithLogger sets the logger. The default discards all records.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithBundler replaces the default compile.Bundler.
func WithBundler(b Bundler) Option {
	return func(o *options) { o.bundler = b }
}

// WithCompilers registers extra compilers on the default bundler, replacing
// built-in ones for the same extension. Ignored when WithBundler is used.
func WithCompilers(cs ...compile.Compiler) Option {
	return func(o *options) { o.compilers = append(o.compilers, cs...) }
}

// New validates projectRoot and the configuration read from provider. It
// fails with an invalid argument error when projectRoot does not exist or is
// not a directory. Nothing is scanned until a request is made.
func New(projectRoot string, provider config.Provider, opts ...Option) (*Pipeline, error) {
	if projectRoot == "" {
		return nil, perrors.ErrInvalidRoot(projectRoot, nil)
	}

	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, perrors.ErrInvalidRoot(projectRoot, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, perrors.ErrInvalidRoot(projectRoot, err)
	}
	if !info.IsDir() {
		return nil, perrors.ErrInvalidRoot(projectRoot, nil)
	}

	cfg, err := config.FromProvider(provider)
	if err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.Nop()
	}
	logger := o.logger.WithComponent("assets")

	if o.bundler == nil {
		bundler := compile.NewBundler(
			compile.WithCacheSize(cfg.CacheSize),
			compile.WithLogger(o.logger),
		)
		for _, c := range o.compilers {
			bundler.Register(c)
		}
		o.bundler = bundler
	}

	return &Pipeline{
		root:      root,
		assetsDir: filepath.Join(root, filepath.FromSlash(cfg.Path)),
		config:    cfg,
		ignores:   cfg.IgnoreRegexps(),
		order:     newOrderer(cfg.Vendors),
		bundler:   o.bundler,
		logger:    logger,
	}, nil
}

// Root returns the absolute project root.
func (p *Pipeline) Root() string { return p.root }

// AssetsDir returns the absolute assets directory.
func (p *Pipeline) AssetsDir() string { return p.assetsDir }

// Config returns a copy of the effective configuration.
func (p *Pipeline) Config() config.PipelineConfig { return *p.config }

// Javascripts combines the JavaScript and CoffeeScript sources under target,
// or under the configured javascripts directory when target is empty.
func (p *Pipeline) Javascripts(ctx context.Context, target string) (string, error) {
	return p.Build(ctx, Javascript, target)
}

// Stylesheets combines the CSS and LESS sources under target.
func (p *Pipeline) Stylesheets(ctx context.Context, target string) (string, error) {
	return p.Build(ctx, Stylesheet, target)
}

// Htmls combines the HTML templates under target.
func (p *Pipeline) Htmls(ctx context.Context, target string) (string, error) {
	return p.Build(ctx, HTML, target)
}

// Purge drops cached compiler output when the bundler keeps any.
func (p *Pipeline) Purge() {
	if c, ok := p.bundler.(interface{ Purge() }); ok {
		c.Purge()
	}
}

// Files returns the ordered files a request would combine.
func (p *Pipeline) Files(ctx context.Context, kind Kind, target string) ([]AssetFile, error) {
	return p.locate(ctx, kind, target)
}

// Build locates the files for kind and target and bundles them. A target
// naming a single file returns that file compiled but not minified; a missing
// single file is a not found error.
func (p *Pipeline) Build(ctx context.Context, kind Kind, target string) (string, error) {
	op := logging.StartOperation(p.logger, "build")

	res, err := p.find(ctx, kind, target)
	if err != nil {
		op.EndWithError(ctx, err)
		return "", err
	}

	sources := make([]compile.Source, len(res.files))
	for i, f := range res.files {
		sources[i] = compile.Source{Path: f.Path, Name: f.Rel}
	}

	// A single script is served as written; every other request honors the
	// minify setting.
	out, err := p.bundler.Bundle(ctx, sources, compile.Options{
		MediaType:  kind.MediaType(),
		Minify:     p.config.Minify && !(res.single && kind == Javascript),
		Compressed: p.config.Compressed,
	})
	if err != nil {
		op.EndWithError(ctx, err)
		return "", err
	}

	op.End(ctx, "kind", kind.String(), "target", target, "files", len(sources), "bytes", len(out))
	return out, nil
}

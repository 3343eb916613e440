package compile

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	perrors "github.com/conneroisu/assetpipeline/internal/errors"
	"github.com/conneroisu/assetpipeline/internal/logging"
)

// Source is one input file of a bundle.
type Source struct {
	// Path is the file to read.
	Path string
	// Name identifies the file in errors and logs; Path is used when empty.
	Name string
}

func (s Source) name() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Path
}

// Options controls one Bundle call.
type Options struct {
	// MediaType selects the minifier, for example "text/css".
	MediaType string
	// Minify enables minification.
	Minify bool
	// Compressed lists file name markers of files that are already minified.
	Compressed []string
}

// IsCompressed reports whether the base name of path contains one of the
// markers.
func IsCompressed(path string, markers []string) bool {
	base := filepath.Base(path)
	for _, marker := range markers {
		if marker != "" && strings.Contains(base, marker) {
			return true
		}
	}
	return false
}

// Bundler compiles, minifies and concatenates sources.
type Bundler struct {
	mu        sync.RWMutex
	compilers map[string]Compiler
	minifier  *Minifier
	cache     *Cache
	logger    logging.Logger
}

// BundlerOption customizes a Bundler.
type BundlerOption func(*Bundler)

// WithCacheSize sets the processed file cache capacity; zero disables it.
func WithCacheSize(size int) BundlerOption {
	return func(b *Bundler) { b.cache = NewCache(size) }
}

// WithLogger sets the bundler logger.
func WithLogger(l logging.Logger) BundlerOption {
	return func(b *Bundler) { b.logger = l }
}

// WithMinifier replaces the default minifier.
func WithMinifier(m *Minifier) BundlerOption {
	return func(b *Bundler) { b.minifier = m }
}

// NewBundler returns a bundler with the CoffeeScript and LESS command
// compilers registered.
func NewBundler(opts ...BundlerOption) *Bundler {
	b := &Bundler{
		compilers: make(map[string]Compiler),
		minifier:  NewMinifier(),
		cache:     NewCache(256),
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.WithComponent("compile")

	b.Register(Coffee())
	b.Register(Less())

	return b
}

// Register adds c, replacing any compiler for the same extension.
func (b *Bundler) Register(c Compiler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.compilers[normalizeExt(c.Ext())] = c
	b.cache.Purge()
}

func (b *Bundler) compiler(ext string) Compiler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.compilers[normalizeExt(ext)]
}

// Cache returns the processed file cache, nil when disabled.
func (b *Bundler) Cache() *Cache { return b.cache }

// Purge empties the processed file cache.
func (b *Bundler) Purge() { b.cache.Purge() }

// Bundle processes each source in order and joins the results with a
// newline. The first failure aborts the bundle.
func (b *Bundler) Bundle(ctx context.Context, sources []Source, opts Options) (string, error) {
	parts := make([]string, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		out, err := b.process(ctx, src, opts)
		if err != nil {
			return "", err
		}
		parts = append(parts, out)
	}
	return strings.Join(parts, "\n"), nil
}

func (b *Bundler) process(ctx context.Context, src Source, opts Options) (string, error) {
	info, err := os.Stat(src.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", perrors.ErrFileNotFound(src.name())
		}
		return "", perrors.NewIOError(perrors.ErrCodeReadFailed, "cannot stat asset", err).WithPath(src.name())
	}

	minify := opts.Minify && !IsCompressed(src.Path, opts.Compressed)
	key := newCacheKey(src.Path, info.Size(), info.ModTime(), minify, opts.MediaType)
	if out, ok := b.cache.get(key); ok {
		return out, nil
	}

	data, err := os.ReadFile(src.Path)
	if err != nil {
		return "", perrors.NewIOError(perrors.ErrCodeReadFailed, "cannot read asset", err).WithPath(src.name())
	}

	if c := b.compiler(filepath.Ext(src.Path)); c != nil {
		var buf bytes.Buffer
		if err := c.Compile(ctx, &buf, bytes.NewReader(data)); err != nil {
			b.logger.Warn(ctx, err, "compile failed", "file", src.name())
			return "", perrors.NewCompileError(perrors.ErrCodeCompileFailed, "compile failed", err).
				WithPath(src.name())
		}
		data = buf.Bytes()
	}

	out := string(data)
	if minify && opts.MediaType != "" {
		minified, err := b.minifier.String(opts.MediaType, out)
		if err != nil {
			b.logger.Warn(ctx, err, "minify failed", "file", src.name())
			return "", perrors.NewCompileError(perrors.ErrCodeMinifyFailed, "minify failed", err).
				WithPath(src.name())
		}
		out = minified
	}

	b.logger.Debug(ctx, "processed asset", "file", src.name(), "minified", minify, "bytes", len(out))
	b.cache.set(key, out)
	return out, nil
}

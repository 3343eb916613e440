package assets

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	perrors "github.com/conneroisu/assetpipeline/internal/errors"
)

// AssetFile is one discovered source file.
type AssetFile struct {
	// Path is the absolute file system path.
	Path string
	// Rel is the slash-separated path relative to the assets directory.
	Rel string
	// Ext is the lower-cased extension, dot included.
	Ext string
}

// located is the outcome of resolving a request target.
type located struct {
	files []AssetFile
	// single is set when the target named one file explicitly.
	single bool
}

// locate returns the files a request for kind and target covers, in load
// order. An empty target means the kind's whole base directory.
func (p *Pipeline) locate(ctx context.Context, kind Kind, target string) ([]AssetFile, error) {
	res, err := p.find(ctx, kind, target)
	if err != nil {
		return nil, err
	}
	return res.files, nil
}

func (p *Pipeline) find(ctx context.Context, kind Kind, target string) (located, error) {
	if target == "" {
		target = p.kindDir(kind)
	}

	rel, err := cleanTarget(target)
	if err != nil {
		return located{}, err
	}

	if isGlob(rel) {
		files, err := p.glob(ctx, kind, rel)
		return located{files: files}, err
	}

	if rel != "." && hiddenSegment(rel) {
		return located{}, perrors.ErrFileNotFound(rel)
	}

	abs := p.abs(rel)
	info, err := os.Stat(abs)
	if err == nil {
		if err := p.contained(abs, rel); err != nil {
			return located{}, err
		}
	}
	switch {
	case err == nil && info.IsDir():
		files, err := p.scan(ctx, kind, rel)
		return located{files: files}, err
	case err == nil:
		if !kind.Recognizes(path.Ext(rel)) {
			return located{}, perrors.ErrInvalidPath(rel, "not a "+kind.String()+" source")
		}
		return located{files: []AssetFile{newAssetFile(abs, rel)}, single: true}, nil
	case errors.Is(err, fs.ErrNotExist):
		if knownExtension(path.Ext(rel)) {
			return located{}, perrors.ErrFileNotFound(rel)
		}
		// A missing directory is an empty result.
		return located{}, nil
	default:
		return located{}, perrors.NewIOError(perrors.ErrCodeReadFailed, "cannot stat asset target", err).
			WithPath(rel)
	}
}

// scan walks the directory rel recursively and returns the recognized,
// non-ignored files below it. Ignore patterns see paths relative to the
// scanned directory, so an explicitly requested directory is never itself
// ignored.
func (p *Pipeline) scan(ctx context.Context, kind Kind, rel string) ([]AssetFile, error) {
	root := p.abs(rel)
	var files []AssetFile

	err := filepath.WalkDir(root, func(abs string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if abs == root {
			return nil
		}

		inner, err := filepath.Rel(root, abs)
		if err != nil {
			return err
		}
		inner = filepath.ToSlash(inner)

		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if p.ignored("/" + inner + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if p.ignored("/"+inner) || !kind.Recognizes(filepath.Ext(abs)) {
			return nil
		}

		files = append(files, newAssetFile(abs, joinRel(rel, inner)))
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, perrors.NewIOError(perrors.ErrCodeReadFailed, "cannot scan asset directory", err).
			WithPath(rel)
	}

	p.order.sort(files)
	return dedupe(files), nil
}

// glob resolves a doublestar pattern relative to the assets directory.
func (p *Pipeline) glob(ctx context.Context, kind Kind, pattern string) ([]AssetFile, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, perrors.ErrInvalidPath(pattern, "malformed glob pattern")
	}

	matches, err := doublestar.Glob(os.DirFS(p.assetsDir), pattern)
	if err != nil {
		return nil, perrors.NewIOError(perrors.ErrCodeReadFailed, "cannot expand glob", err).
			WithPath(pattern)
	}

	staticBase, _ := doublestar.SplitPattern(pattern)
	if staticBase == "." {
		staticBase = ""
	}

	files := make([]AssetFile, 0, len(matches))
	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !kind.Recognizes(path.Ext(match)) {
			continue
		}
		inner := strings.TrimPrefix(match, staticBase)
		if !strings.HasPrefix(inner, "/") {
			inner = "/" + inner
		}
		if p.ignored(inner) || hiddenSegment(inner) {
			continue
		}
		abs := p.abs(match)
		info, err := os.Stat(abs)
		if err != nil || info.IsDir() || p.contained(abs, match) != nil {
			continue
		}
		files = append(files, newAssetFile(abs, match))
	}

	p.order.sort(files)
	return dedupe(files), nil
}

// contained rejects targets that resolve, through symbolic links, to a
// location outside the assets directory.
func (p *Pipeline) contained(abs, rel string) error {
	base, err := filepath.EvalSymlinks(p.assetsDir)
	if err != nil {
		return perrors.NewIOError(perrors.ErrCodeReadFailed, "cannot resolve assets directory", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return perrors.NewIOError(perrors.ErrCodeReadFailed, "cannot resolve asset target", err).WithPath(rel)
	}
	inner, err := filepath.Rel(base, resolved)
	if err != nil || inner == ".." || strings.HasPrefix(inner, ".."+string(filepath.Separator)) {
		return perrors.ErrPathTraversal(rel)
	}
	return nil
}

func (p *Pipeline) ignored(rel string) bool {
	for _, re := range p.ignores {
		if re.MatchString(rel) {
			return true
		}
	}
	return false
}

func (p *Pipeline) kindDir(kind Kind) string {
	switch kind {
	case Javascript:
		return p.config.Javascripts
	case Stylesheet:
		return p.config.Stylesheets
	default:
		return p.config.Htmls
	}
}

func (p *Pipeline) abs(rel string) string {
	if rel == "." {
		return p.assetsDir
	}
	return filepath.Join(p.assetsDir, filepath.FromSlash(rel))
}

// cleanTarget normalizes a request target to a slash path inside the assets
// directory.
func cleanTarget(target string) (string, error) {
	slashed := filepath.ToSlash(target)
	if filepath.IsAbs(target) || path.IsAbs(slashed) {
		return "", perrors.ErrInvalidPath(target, "target must be relative to the assets directory")
	}

	cleaned := path.Clean(slashed)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", perrors.ErrPathTraversal(target)
	}

	return cleaned, nil
}

func isGlob(rel string) bool {
	return strings.ContainsAny(rel, "*?[{")
}

func hiddenSegment(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

func joinRel(base, inner string) string {
	if base == "." {
		return inner
	}
	return base + "/" + inner
}

func newAssetFile(abs, rel string) AssetFile {
	return AssetFile{
		Path: abs,
		Rel:  rel,
		Ext:  strings.ToLower(filepath.Ext(abs)),
	}
}

func dedupe(files []AssetFile) []AssetFile {
	seen := make(map[string]bool, len(files))
	out := files[:0]
	for _, f := range files {
		if seen[f.Path] {
			continue
		}
		seen[f.Path] = true
		out = append(out, f)
	}
	return out
}

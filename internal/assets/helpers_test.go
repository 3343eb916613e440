package assets

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conneroisu/assetpipeline/internal/compile"
	"github.com/conneroisu/assetpipeline/internal/config"
)

const testProject = "testdata/project"

var lessVariable = regexp.MustCompile(`^(@[\w-]+)\s*:\s*([^;]+);\s*$`)

// fakeCoffee stands in for the coffee tool: every source compiles to the
// output of "square = (x) -> x * x".
func fakeCoffee() compile.Compiler {
	return compile.CompilerFunc("coffee", func(ctx context.Context, w io.Writer, r io.Reader) error {
		if _, err := io.Copy(io.Discard, r); err != nil {
			return err
		}
		_, err := io.WriteString(w, "var square;\n\nsquare = function(x) {\n  return x * x;\n};\n")
		return err
	})
}

// fakeLess understands just enough LESS for the fixtures: variable
// declarations and their use.
func fakeLess() compile.Compiler {
	return compile.CompilerFunc("less", func(ctx context.Context, w io.Writer, r io.Reader) error {
		vars := map[string]string{}
		var out strings.Builder
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := scanner.Text()
			if m := lessVariable.FindStringSubmatch(line); m != nil {
				vars[m[1]] = strings.TrimSpace(m[2])
				continue
			}
			for name, value := range vars {
				line = strings.ReplaceAll(line, name, value)
			}
			out.WriteString(line)
			out.WriteString("\n")
		}
		if err := scanner.Err(); err != nil {
			return err
		}
		_, err := io.WriteString(w, out.String())
		return err
	})
}

func newTestPipeline(t *testing.T, overrides config.MapProvider) *Pipeline {
	t.Helper()
	return newPipelineAt(t, testProject, overrides)
}

func newPipelineAt(t *testing.T, root string, overrides config.MapProvider) *Pipeline {
	t.Helper()
	values := config.MapProvider{
		config.KeyPath:       "app/assets",
		config.KeyMinify:     true,
		config.KeyCompressed: []string{".min.", "-min."},
		config.KeyIgnores:    []string{"/test/", "/tests/"},
	}
	for k, v := range overrides {
		values[k] = v
	}

	p, err := New(root, values, WithCompilers(fakeCoffee(), fakeLess()))
	require.NoError(t, err)
	return p
}

func createTestFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func rels(files []AssetFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Rel
	}
	return out
}

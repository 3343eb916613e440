package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// resetFlags restores every flag of the command tree to its default and drops
// the contexts cobra keeps on subcommands between executions.
func resetFlags(c *cobra.Command) {
	// cobra treats a nil context as unset.
	c.SetContext(nil)
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, child := range c.Commands() {
		resetFlags(child)
	}
}

func execute(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Setenv("ASSETPIPELINE_CONFIG_FILE", "")

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(ctx)
	return stdout.String(), err
}

func newProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func sampleProject(t *testing.T) string {
	return newProject(t, map[string]string{
		"app/assets/javascripts/app.js":           "alert('app.js');",
		"app/assets/javascripts/vendor/jquery.js": "alert('jquery.js');",
		"app/assets/javascripts/test/spec.js":     "alert('spec.js');",
		"app/assets/stylesheets/site.css":         ".site {\n  color: red;\n}\n",
		"app/assets/templates/page.html":          "<p>page</p>",
	})
}

func TestBuildToStdout(t *testing.T) {
	root := sampleProject(t)

	out, err := execute(t, context.Background(), "build", "js", "--project", root, "--no-minify")
	require.NoError(t, err)
	assert.Equal(t, "alert('jquery.js');\nalert('app.js');\n", out)
}

func TestBuildMinified(t *testing.T) {
	root := sampleProject(t)

	out, err := execute(t, context.Background(), "build", "css", "-C", root)
	require.NoError(t, err)
	assert.Equal(t, ".site{color:red}\n", out)
}

func TestBuildToFile(t *testing.T) {
	root := sampleProject(t)
	dest := filepath.Join(t.TempDir(), "public", "app.css")

	out, err := execute(t, context.Background(), "build", "stylesheets", "-C", root, "-o", dest)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, ".site{color:red}", string(data))
}

func TestBuildSingleFile(t *testing.T) {
	root := sampleProject(t)

	out, err := execute(t, context.Background(), "build", "js", "javascripts/test/spec.js", "-C", root)
	require.NoError(t, err)
	assert.Equal(t, "alert('spec.js');\n", out)
}

func TestBuildErrors(t *testing.T) {
	root := sampleProject(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown kind", args: []string{"build", "images", "-C", root}},
		{name: "missing file", args: []string{"build", "js", "javascripts/nope.js", "-C", root}},
		{name: "traversal", args: []string{"build", "js", "../outside", "-C", root}},
		{name: "missing project", args: []string{"build", "js", "-C", filepath.Join(root, "missing")}},
		{name: "no kind", args: []string{"build", "-C", root}},
		{name: "bad log level", args: []string{"build", "js", "-C", root, "--log-level", "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, context.Background(), tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestBuildReadsConfigFile(t *testing.T) {
	root := sampleProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".assetpipeline.yml"),
		[]byte("asset-pipeline:\n  minify: false\n  ignores: []\n"), 0644))

	out, err := execute(t, context.Background(), "build", "js", "-C", root)
	require.NoError(t, err)
	assert.Contains(t, out, "alert('spec.js');")
	assert.Contains(t, out, "alert('app.js');")
}

func TestListTable(t *testing.T) {
	root := sampleProject(t)

	out, err := execute(t, context.Background(), "list", "js", "-C", root)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Javascripts (2 files)", lines[0])
	assert.Contains(t, lines[2], "javascripts/vendor/jquery.js")
	assert.Contains(t, lines[3], "javascripts/app.js")
}

func TestListJSON(t *testing.T) {
	root := sampleProject(t)

	out, err := execute(t, context.Background(), "list", "css", "-C", root, "-f", "json")
	require.NoError(t, err)

	var entries []listEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "stylesheets/site.css", entries[0].Rel)
	assert.Equal(t, ".css", entries[0].Ext)
	assert.True(t, filepath.IsAbs(entries[0].Path))
}

func TestListYAML(t *testing.T) {
	root := sampleProject(t)

	out, err := execute(t, context.Background(), "list", "html", "-C", root, "--format", "yaml")
	require.NoError(t, err)

	var entries []listEntry
	require.NoError(t, yaml.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "templates/page.html", entries[0].Rel)
}

func TestListBadFormat(t *testing.T) {
	_, err := execute(t, context.Background(), "list", "js", "-C", sampleProject(t), "-f", "csv")
	assert.Error(t, err)
}

func TestConfigCommand(t *testing.T) {
	root := sampleProject(t)

	out, err := execute(t, context.Background(), "config", "-C", root, "--no-minify")
	require.NoError(t, err)

	var decoded map[string]map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	section := decoded["asset-pipeline"]
	require.NotNil(t, section)
	assert.Equal(t, false, section["minify"])
	assert.Equal(t, "app/assets", section["path"])
}

func TestConfigCommandInvalid(t *testing.T) {
	root := sampleProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".assetpipeline.yml"),
		[]byte("asset-pipeline:\n  path: ../elsewhere\n"), 0644))

	_, err := execute(t, context.Background(), "config", "-C", root)
	assert.Error(t, err)
}

func TestConfigFileFromEnvironment(t *testing.T) {
	root := sampleProject(t)
	file := filepath.Join(t.TempDir(), "pipeline.yml")
	require.NoError(t, os.WriteFile(file, []byte("asset-pipeline:\n  javascripts: javascripts/vendor\n"), 0644))

	resetFlags(rootCmd)
	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"config", "-C", root})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	t.Setenv("ASSETPIPELINE_CONFIG_FILE", file)

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, stdout.String(), "javascripts: javascripts/vendor")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, context.Background(), "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "assetpipeline "))

	out, err = execute(t, context.Background(), "version", "--format", "json")
	require.NoError(t, err)
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "version")
	assert.Contains(t, info, "go_version")

	out, err = execute(t, context.Background(), "version", "--detailed")
	require.NoError(t, err)
	assert.Contains(t, out, "Go: ")

	_, err = execute(t, context.Background(), "version", "--format", "xml")
	assert.Error(t, err)
}

func TestWatchRequiresOutput(t *testing.T) {
	_, err := execute(t, context.Background(), "watch", "js", "-C", sampleProject(t))
	assert.Error(t, err)
}

func TestWatchRejectsOutputInsideAssets(t *testing.T) {
	root := sampleProject(t)
	dest := filepath.Join(root, "app/assets/javascripts/all.js")

	_, err := execute(t, context.Background(), "watch", "js", "-C", root, "-o", dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inside the assets directory")

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "no output is written")
}

func TestWatchRebuildsOnChange(t *testing.T) {
	root := sampleProject(t)
	dest := filepath.Join(t.TempDir(), "app.js")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := execute(t, ctx, "watch", "js", "-C", root, "-o", dest, "--no-minify", "--debounce", "20ms")
		done <- err
	}()

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(dest)
		return err == nil && string(data) == "alert('jquery.js');\nalert('app.js');"
	}, 5*time.Second, 20*time.Millisecond)

	// Give the watcher time to register before the edit.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "app/assets/javascripts/zz.js"), []byte("alert('zz.js');"), 0644))

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(dest)
		return err == nil && strings.HasSuffix(string(data), "alert('zz.js');")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

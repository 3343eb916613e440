package compile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinifierCSS(t *testing.T) {
	m := NewMinifier()

	out, err := m.String("text/css", ".styles1 {\n  color: red;\n}\n")
	require.NoError(t, err)
	assert.Equal(t, ".styles1{color:red}", out)
}

func TestMinifierJavascriptKeepsNames(t *testing.T) {
	m := NewMinifier()

	out, err := m.String("application/javascript", "var square = function(x) {\n  return x * x;\n};\n")
	require.NoError(t, err)
	assert.Contains(t, out, "function(x){return x*x}")
	assert.NotContains(t, out, "\n")
}

func TestMinifierHTMLKeepsQuotes(t *testing.T) {
	m := NewMinifier()

	var out bytes.Buffer
	err := m.Minify("text/html", &out, strings.NewReader("<div class=\"test\">\n    <p>hello</p>\n</div>\n"))
	require.NoError(t, err)
	assert.Contains(t, out.String(), `<div class="test">`)
	assert.Contains(t, out.String(), "</p>")
}

func TestMinifierUnknownMediaType(t *testing.T) {
	m := NewMinifier()

	_, err := m.String("application/x-unknown", "data")
	assert.Error(t, err)
}

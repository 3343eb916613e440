package compile

import (
	"io"
	"regexp"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

var jsMediaType = regexp.MustCompile(`^(application|text)/(x-)?(java|ecma)script$`)

// Minifier minifies JavaScript, CSS and HTML by media type.
type Minifier struct {
	m *minify.M
}

// NewMinifier returns a minifier that keeps identifiers and markup quoting
// intact, so minified output still contains the names and attributes the
// source used.
func NewMinifier() *Minifier {
	m := minify.New()
	m.Add("text/css", &css.Minifier{})
	m.Add("text/html", &html.Minifier{
		KeepDefaultAttrVals: true,
		KeepDocumentTags:    true,
		KeepEndTags:         true,
		KeepQuotes:          true,
	})
	m.AddRegexp(jsMediaType, &js.Minifier{KeepVarNames: true})

	return &Minifier{m: m}
}

// Minify writes the minified form of r to w.
func (m *Minifier) Minify(mediaType string, w io.Writer, r io.Reader) error {
	return m.m.Minify(mediaType, w, r)
}

// String minifies s.
func (m *Minifier) String(mediaType, s string) (string, error) {
	return m.m.String(mediaType, s)
}

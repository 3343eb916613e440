package assets

import (
	"fmt"
	"strings"
)

// Kind selects which family of assets a request is about.
type Kind int

const (
	Javascript Kind = iota
	Stylesheet
	HTML
)

// Kinds lists every asset kind in a stable order.
var Kinds = []Kind{Javascript, Stylesheet, HTML}

var kindExtensions = map[Kind][]string{
	Javascript: {".js", ".coffee"},
	Stylesheet: {".css", ".less"},
	HTML:       {".html", ".htm", ".hbs", ".handlebars", ".mustache"},
}

// String returns the plural name used in URLs and CLI arguments.
func (k Kind) String() string {
	switch k {
	case Javascript:
		return "javascripts"
	case Stylesheet:
		return "stylesheets"
	case HTML:
		return "htmls"
	default:
		return "unknown"
	}
}

// ParseKind accepts the common spellings of a kind: "js", "javascript",
// "javascripts", "css", "stylesheets", "html", "templates" and so on.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "js", "javascript", "javascripts", "script", "scripts":
		return Javascript, nil
	case "css", "stylesheet", "stylesheets", "style", "styles":
		return Stylesheet, nil
	case "html", "htmls", "template", "templates":
		return HTML, nil
	default:
		return 0, fmt.Errorf("unknown asset kind %q", name)
	}
}

// Extensions returns the recognized file extensions, dot included.
func (k Kind) Extensions() []string {
	return append([]string(nil), kindExtensions[k]...)
}

// MediaType is the content type of the combined output.
func (k Kind) MediaType() string {
	switch k {
	case Javascript:
		return "application/javascript"
	case Stylesheet:
		return "text/css"
	default:
		return "text/html"
	}
}

// Recognizes reports whether ext (".js", ".LESS", ...) belongs to the kind.
func (k Kind) Recognizes(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range kindExtensions[k] {
		if e == ext {
			return true
		}
	}
	return false
}

// knownExtension reports whether any kind recognizes ext.
func knownExtension(ext string) bool {
	for _, k := range Kinds {
		if k.Recognizes(ext) {
			return true
		}
	}
	return false
}

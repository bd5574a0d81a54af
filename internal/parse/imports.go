package parse

import (
	"net/url"
	"path"
	"strings"

	"github.com/mvp-joe/featurescan/internal/source"
)

// ImportKind classifies how one document references another.
type ImportKind string

const (
	ImportHTML         ImportKind = "html-import"
	ImportHTMLScript   ImportKind = "html-script"
	ImportScriptModule ImportKind = "js-import"
)

// Import is a reference from one document to another, already resolved
// against the importing document's URL.
type Import struct {
	URL         string
	Kind        ImportKind
	SourceRange *source.Range
}

// ResolveURL resolves ref relative to base. Absolute URLs with a scheme or
// host are external to the project and are reported as not resolvable, as are
// paths that climb above the project root.
func ResolveURL(base, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	p := u.Path
	if p == "" {
		return "", false
	}
	if strings.HasPrefix(p, "/") {
		return strings.TrimPrefix(path.Clean(p), "/"), true
	}
	joined := path.Join(path.Dir(base), p)
	if strings.HasPrefix(joined, "../") || joined == ".." {
		return "", false
	}
	return joined, true
}

// IsBareSpecifier reports whether a module specifier names a package rather
// than a path ("lit", "@polymer/polymer/polymer-element.js").
func IsBareSpecifier(spec string) bool {
	return !strings.HasPrefix(spec, "./") && !strings.HasPrefix(spec, "../") && !strings.HasPrefix(spec, "/")
}

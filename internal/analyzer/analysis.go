package analyzer

import (
	"context"

	"github.com/mvp-joe/featurescan/internal/diag"
	"github.com/mvp-joe/featurescan/internal/feature"
	"github.com/mvp-joe/featurescan/internal/parse"
	"github.com/mvp-joe/featurescan/internal/resolve"
)

// Document is one analyzed document.
type Document struct {
	URL      string
	Imports  []parse.Import
	Scanned  []feature.Scanned
	Features []feature.Feature
	Warnings []diag.Warning
}

type lookupKey struct {
	kind string
	name string
}

// Analysis is the result of one Analyze call: every document reached from the
// roots, their resolved features and the import graph between them.
type Analysis struct {
	documents map[string]*Document
	order     []string
	index     map[string]map[lookupKey]feature.Scanned
	imports   *importGraph
}

func newAnalysis() *Analysis {
	return &Analysis{
		documents: make(map[string]*Document),
		index:     make(map[string]map[lookupKey]feature.Scanned),
		imports:   newImportGraph(),
	}
}

func (a *Analysis) add(s *scannedDocument) *Document {
	doc := &Document{
		URL:      s.url,
		Imports:  s.imports,
		Scanned:  s.features,
		Warnings: append([]diag.Warning(nil), s.warnings...),
	}
	a.documents[doc.URL] = doc
	a.order = append(a.order, doc.URL)

	idx := make(map[lookupKey]feature.Scanned)
	for _, f := range doc.Scanned {
		for _, key := range lookupKeys(f) {
			if _, exists := idx[key]; !exists {
				idx[key] = f
			}
		}
	}
	a.index[doc.URL] = idx
	return doc
}

// link builds the import graph once every document is loaded.
func (a *Analysis) link() error {
	for _, url := range a.order {
		if err := a.imports.addDocument(url); err != nil {
			return err
		}
	}
	for _, url := range a.order {
		for _, imp := range a.documents[url].Imports {
			if _, loaded := a.documents[imp.URL]; !loaded {
				continue
			}
			if err := a.imports.addImport(url, imp.URL); err != nil {
				return err
			}
		}
	}
	return nil
}

// lookupKeys lists the names a scanned feature can be found by.
func lookupKeys(f feature.Scanned) []lookupKey {
	switch v := f.(type) {
	case *feature.ScannedNamespace:
		return []lookupKey{{feature.KindNamespace, v.Name}}
	case *feature.ScannedBehavior:
		return []lookupKey{{feature.KindBehavior, v.Name}}
	case *feature.ScannedPolymerElementMixin:
		return []lookupKey{
			{feature.KindElementMixin, v.Name},
			{feature.KindPolymerMixin, v.Name},
		}
	case *feature.ScannedPolymerElement:
		var keys []lookupKey
		for _, name := range []string{v.TagName, v.ClassName} {
			if name == "" {
				continue
			}
			keys = append(keys,
				lookupKey{feature.KindElement, name},
				lookupKey{feature.KindPolymerElement, name})
		}
		return keys
	}
	return nil
}

// Lookup finds a scanned feature by kind and name: in the document itself
// first, then in the documents it imports transitively, in load order.
func (a *Analysis) Lookup(ctx context.Context, kind, name, fromURL string) (resolve.Match, bool) {
	key := lookupKey{kind: kind, name: name}
	if f, ok := a.index[fromURL][key]; ok {
		return resolve.Match{Feature: f, URL: fromURL}, true
	}
	for _, url := range a.imports.reachable(fromURL) {
		if ctx.Err() != nil {
			return resolve.Match{}, false
		}
		if f, ok := a.index[url][key]; ok {
			return resolve.Match{Feature: f, URL: url}, true
		}
	}
	return resolve.Match{}, false
}

// Document returns an analyzed document by URL.
func (a *Analysis) Document(url string) (*Document, bool) {
	doc, ok := a.documents[url]
	return doc, ok
}

// Documents returns every analyzed document in load order.
func (a *Analysis) Documents() []*Document {
	out := make([]*Document, 0, len(a.order))
	for _, url := range a.order {
		out = append(out, a.documents[url])
	}
	return out
}

// Dependencies returns the documents url imports, directly or transitively.
func (a *Analysis) Dependencies(url string) []string {
	return a.imports.reachable(url)
}

// Features returns every resolved feature in document load order.
func (a *Analysis) Features() []feature.Feature {
	var out []feature.Feature
	for _, url := range a.order {
		out = append(out, a.documents[url].Features...)
	}
	return out
}

// FeaturesByKind returns the resolved features of one kind.
func (a *Analysis) FeaturesByKind(kind string) []feature.Feature {
	var out []feature.Feature
	for _, f := range a.Features() {
		for _, k := range f.Kinds() {
			if k == kind {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// Elements returns every resolved element.
func (a *Analysis) Elements() []*feature.PolymerElement {
	return featuresOf[*feature.PolymerElement](a)
}

// Behaviors returns every resolved behavior.
func (a *Analysis) Behaviors() []*feature.Behavior {
	return featuresOf[*feature.Behavior](a)
}

// Mixins returns every resolved mixin.
func (a *Analysis) Mixins() []*feature.PolymerElementMixin {
	return featuresOf[*feature.PolymerElementMixin](a)
}

// Namespaces returns every resolved namespace.
func (a *Analysis) Namespaces() []*feature.Namespace {
	return featuresOf[*feature.Namespace](a)
}

func featuresOf[T feature.Feature](a *Analysis) []T {
	var out []T
	for _, f := range a.Features() {
		if typed, ok := f.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

// Warnings returns document and feature warnings at or above min.
func (a *Analysis) Warnings(min diag.Severity) []diag.Warning {
	var all []diag.Warning
	for _, url := range a.order {
		doc := a.documents[url]
		all = append(all, doc.Warnings...)
		for _, f := range doc.Features {
			all = append(all, f.Warnings()...)
		}
	}
	return diag.Filter(all, min)
}

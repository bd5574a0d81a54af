// Package scan turns one parsed script into scanned features.
//
// Every scanner registers hooks on a visitor and the document is walked once
// for all of them. Scanners never mutate the tree and take every source range
// from the document, so ranges of inline scripts are already in container
// coordinates.
package scan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mvp-joe/featurescan/internal/diag"
	"github.com/mvp-joe/featurescan/internal/feature"
	"github.com/mvp-joe/featurescan/internal/parse"
	"github.com/mvp-joe/featurescan/internal/visitor"
)

// Scanner produces one kind of feature.
type Scanner interface {
	Name() string
	// Begin starts a pass over one document. A pass holds all per-document
	// state so scanners can be reused across documents. Problems that belong
	// to no feature go to warnings.
	Begin(doc *parse.JavaScriptDocument, warnings *diag.Collector) Pass
}

// Pass is a scanner's state for a single document.
type Pass interface {
	Visitor() *visitor.Visitor
	// Finish is called after the traversal and returns what the pass found.
	Finish(ctx context.Context) ([]feature.Scanned, error)
}

// Option configures the default scanners.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger scanners report dropped declarations to.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// DefaultScanners returns the scanners for every supported feature kind.
func DefaultScanners(opts ...Option) []Scanner {
	return []Scanner{
		NewNamespaceScanner(),
		NewBehaviorScanner(opts...),
		NewElementScanner(opts...),
		NewMixinScanner(opts...),
	}
}

// ScanDocument runs all scanners over doc in a single traversal and returns
// their features in scanner order. Document-level warnings are added to
// warnings, which may be shared by the inline scripts of one container. A
// structural error from any scanner aborts the document.
func ScanDocument(ctx context.Context, doc *parse.JavaScriptDocument, warnings *diag.Collector, scanners ...Scanner) ([]feature.Scanned, error) {
	if warnings == nil {
		warnings = &diag.Collector{}
	}
	passes := make([]Pass, 0, len(scanners))
	visitors := make([]*visitor.Visitor, 0, len(scanners))
	for _, s := range scanners {
		p := s.Begin(doc, warnings)
		passes = append(passes, p)
		visitors = append(visitors, p.Visitor())
	}

	if err := doc.Visit(ctx, visitors...); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", doc.URL(), err)
	}

	var out []feature.Scanned
	for i, p := range passes {
		features, err := p.Finish(ctx)
		if err != nil {
			return nil, fmt.Errorf("scanner %s failed on %s: %w", scanners[i].Name(), doc.URL(), err)
		}
		out = append(out, features...)
	}
	return out, nil
}

// Package analyzer loads documents, follows their imports, scans each one
// and resolves the scanned features against the import graph.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/mvp-joe/featurescan/internal/diag"
	"github.com/mvp-joe/featurescan/internal/feature"
	"github.com/mvp-joe/featurescan/internal/parse"
	"github.com/mvp-joe/featurescan/internal/resolve"
	"github.com/mvp-joe/featurescan/internal/scan"
)

// Analyzer turns documents into resolved features. Scanned documents are
// cached by URL and reused while their contents are unchanged. Calls to
// Analyze are serialized.
type Analyzer struct {
	loader    Loader
	logger    *slog.Logger
	scanners  []scan.Scanner
	progress  ProgressReporter
	cacheSize int

	mu    sync.Mutex
	cache *documentCache
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger used by the analyzer, its scanners and the
// resolver.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithScanners replaces the default scanners.
func WithScanners(scanners ...scan.Scanner) Option {
	return func(a *Analyzer) {
		a.scanners = scanners
	}
}

// WithProgress sets the progress reporter.
func WithProgress(p ProgressReporter) Option {
	return func(a *Analyzer) {
		if p != nil {
			a.progress = p
		}
	}
}

// WithCacheSize sets how many scanned documents are kept in memory.
func WithCacheSize(n int) Option {
	return func(a *Analyzer) {
		a.cacheSize = n
	}
}

// New creates an analyzer reading documents through loader.
func New(loader Loader, opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		loader:    loader,
		logger:    slog.Default(),
		progress:  &NoOpProgressReporter{},
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.scanners == nil {
		a.scanners = scan.DefaultScanners(scan.WithLogger(a.logger))
	}

	cache, err := newDocumentCache(a.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create document cache: %w", err)
	}
	a.cache = cache
	return a, nil
}

// pending is a document waiting to be loaded and the import that led to it.
type pending struct {
	url      string
	importer *Document
	via      parse.Import
}

// Analyze loads the root documents and everything they import, then resolves
// every scanned feature. A root that cannot be loaded fails the analysis; an
// import that cannot be loaded becomes a warning on the importing document.
func (a *Analyzer) Analyze(ctx context.Context, urls []string) (*Analysis, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	stats := &Stats{}
	a.progress.OnAnalysisStart(len(urls))

	analysis := newAnalysis()
	queue := make([]pending, 0, len(urls))
	for _, u := range urls {
		queue = append(queue, pending{url: strings.TrimPrefix(path.Clean(u), "/")})
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := queue[0]
		queue = queue[1:]
		if _, seen := analysis.documents[next.url]; seen {
			continue
		}

		scanned, cached, err := a.scanned(ctx, next.url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if next.importer == nil {
				return nil, fmt.Errorf("failed to analyze %s: %w", next.url, err)
			}
			a.logger.Warn("Could not load import", "url", next.url, "from", next.importer.URL, "error", err)
			next.importer.Warnings = append(next.importer.Warnings, diag.Warning{
				Code:        diag.CodeCouldNotLoad,
				Severity:    diag.SeverityError,
				Message:     fmt.Sprintf("could not load %s: %v", next.url, err),
				SourceRange: next.via.SourceRange,
			})
			continue
		}

		doc := analysis.add(scanned)
		stats.Documents++
		if cached {
			stats.CachedDocuments++
		}
		a.progress.OnDocumentAnalyzed(doc.URL, cached)

		for _, imp := range scanned.imports {
			queue = append(queue, pending{url: imp.URL, importer: doc, via: imp})
		}
	}

	if err := analysis.link(); err != nil {
		return nil, err
	}

	a.progress.OnResolveStart(len(analysis.order))
	resolver := resolve.New(analysis, resolve.WithLogger(a.logger))
	for _, url := range analysis.order {
		doc := analysis.documents[url]
		features, err := resolver.ResolveAll(ctx, doc.Scanned, url)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve features of %s: %w", url, err)
		}
		doc.Features = features
		stats.Features += len(features)
	}

	stats.Warnings = len(analysis.Warnings(diag.SeverityInfo))
	stats.Duration = time.Since(start)
	a.logger.Debug("Analysis complete",
		"documents", stats.Documents,
		"cached", stats.CachedDocuments,
		"features", stats.Features,
		"warnings", stats.Warnings,
		"duration", stats.Duration)
	a.progress.OnComplete(stats)
	return analysis, nil
}

// Invalidate drops the cached scan of a document. Changed contents are
// detected by hash anyway; this releases memory for deleted files.
func (a *Analyzer) Invalidate(url string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cache.invalidate(url)
}

// Close releases every cached document. Node handles held by features of
// earlier analyses are invalid afterwards.
func (a *Analyzer) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cache.purge()
}

// scanned returns the scan of a document's current contents, from the cache
// when the contents are unchanged.
func (a *Analyzer) scanned(ctx context.Context, url string) (*scannedDocument, bool, error) {
	contents, err := a.loader.Load(ctx, url)
	if err != nil {
		return nil, false, err
	}

	hash := contentHash(contents)
	if doc, ok := a.cache.get(url, hash); ok {
		return doc, true, nil
	}

	doc, err := a.scanDocument(ctx, url, contents)
	if err != nil {
		return nil, false, err
	}
	doc.hash = hash
	a.cache.put(doc)
	return doc, false, nil
}

func (a *Analyzer) scanDocument(ctx context.Context, url string, contents []byte) (*scannedDocument, error) {
	doc := &scannedDocument{url: url}

	var scripts []*parse.JavaScriptDocument
	switch strings.ToLower(path.Ext(url)) {
	case ".html", ".htm":
		html, err := parse.ParseHTML(url, contents)
		if err != nil {
			return nil, err
		}
		doc.release = html.Close
		doc.imports = append(doc.imports, html.Imports()...)
		doc.warnings = append(doc.warnings, html.Warnings()...)
		scripts = html.Scripts()
	default:
		js, err := parse.ParseJavaScript(url, contents, nil)
		if err != nil {
			var werr *diag.WarningError
			if errors.As(err, &werr) {
				a.logger.Debug("Skipping document with syntax error", "url", url, "error", err)
				doc.warnings = append(doc.warnings, werr.Warning)
				return doc, nil
			}
			return nil, err
		}
		doc.release = js.Close
		scripts = []*parse.JavaScriptDocument{js}
	}

	warnings := &diag.Collector{}
	for _, script := range scripts {
		doc.imports = append(doc.imports, script.Imports()...)
		features, err := scan.ScanDocument(ctx, script, warnings, a.scanners...)
		if err != nil {
			var werr *diag.WarningError
			if !errors.As(err, &werr) {
				if doc.release != nil {
					doc.release()
				}
				return nil, err
			}
			doc.warnings = append(doc.warnings, werr.Warning)
			continue
		}
		doc.features = append(doc.features, features...)
	}
	doc.warnings = append(doc.warnings, warnings.Items()...)
	return doc, nil
}

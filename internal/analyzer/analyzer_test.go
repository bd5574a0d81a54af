package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/mvp-joe/featurescan/internal/diag"
	"github.com/mvp-joe/featurescan/internal/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Analyzer:
// - behaviors resolve across an HTML import and keep container ranges
// - mixins resolve across JS module imports
// - unresolvable references and unloadable imports become warnings
// - a missing root document fails the analysis
// - syntax errors become document warnings
// - skipped declarations in inline scripts become info document warnings
// - import cycles terminate
// - local declarations win over imported ones
// - unchanged documents come from the cache, changed ones are rescanned

type recordingProgress struct {
	NoOpProgressReporter
	analyzed []string
	cached   int
	stats    *Stats
}

func (r *recordingProgress) OnDocumentAnalyzed(url string, cached bool) {
	r.analyzed = append(r.analyzed, url)
	if cached {
		r.cached++
	}
}

func (r *recordingProgress) OnComplete(stats *Stats) { r.stats = stats }

func newTestAnalyzer(t *testing.T, files map[string]string, opts ...Option) (*Analyzer, *OverlayLoader) {
	t.Helper()
	loader := NewOverlayLoader(nil)
	for url, contents := range files {
		loader.Set(url, []byte(contents))
	}
	a, err := New(loader, opts...)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a, loader
}

func propertyNames(c feature.Composition) []string {
	var names []string
	for _, p := range c.Properties {
		names = append(names, p.Name)
	}
	return names
}

func warningCodes(warnings []diag.Warning) []string {
	var codes []string
	for _, w := range warnings {
		codes = append(codes, w.Code)
	}
	return codes
}

// findFeature returns the first resolved feature of a kind with the identifier.
func findFeature(a *Analysis, kind, identifier string) (feature.Feature, bool) {
	for _, f := range a.FeaturesByKind(kind) {
		if slices.Contains(f.Identifiers(), identifier) {
			return f, true
		}
	}
	return nil, false
}

func TestAnalyze_BehaviorAcrossHTMLImport(t *testing.T) {
	t.Parallel()

	a, _ := newTestAnalyzer(t, map[string]string{
		"index.html": `<link rel="import" href="behaviors/highlight.html">
<script>
Polymer({ is: 'x-el', behaviors: [App.Highlight], properties: { own: String } });
</script>
`,
		"behaviors/highlight.html": `<script>
/** @polymerBehavior */
App.Highlight = { properties: { lit: Boolean } };
</script>
`,
	})

	analysis, err := a.Analyze(context.Background(), []string{"index.html"})
	require.NoError(t, err)

	elements := analysis.Elements()
	require.Len(t, elements, 1)
	el := elements[0]
	assert.Equal(t, "x-el", el.TagName)
	assert.Equal(t, []string{"lit", "own"}, propertyNames(el.Composition))
	assert.Equal(t, []string{"App.Highlight"}, el.Behaviors)
	assert.Empty(t, el.Warnings())

	r := el.SourceRange()
	assert.Equal(t, "index.html", r.File)
	assert.Equal(t, 2, r.Start.Line)
	assert.Equal(t, 0, r.Start.Column)

	require.Len(t, analysis.Behaviors(), 1)
	assert.Equal(t, []string{"behaviors/highlight.html"}, analysis.Dependencies("index.html"))
	assert.Empty(t, analysis.Warnings(diag.SeverityInfo))
}

func TestAnalyze_MixinAcrossModuleImport(t *testing.T) {
	t.Parallel()

	a, _ := newTestAnalyzer(t, map[string]string{
		"main.js": `import './lib.js';
class XApp extends LibMixin(Polymer.Element) {
  static get is() { return 'x-app'; }
}
`,
		"lib.js": `/** @mixinFunction */
export const LibMixin = (base) => class extends base {
  static get properties() { return { fromLib: String }; }
};
`,
	})

	analysis, err := a.Analyze(context.Background(), []string{"main.js"})
	require.NoError(t, err)

	f, ok := findFeature(analysis, feature.KindElement, "x-app")
	require.True(t, ok)
	el := f.(*feature.PolymerElement)
	assert.Equal(t, "XApp", el.ClassName)
	assert.Equal(t, []string{"fromLib"}, propertyNames(el.Composition))
	assert.Equal(t, []string{"LibMixin"}, el.Mixins)

	_, ok = findFeature(analysis, feature.KindElementMixin, "LibMixin")
	assert.True(t, ok)
}

func TestAnalyze_WarningsForMissingPieces(t *testing.T) {
	t.Parallel()

	a, _ := newTestAnalyzer(t, map[string]string{
		"index.html": `<link rel="import" href="missing.html">
<script>
Polymer({ is: 'x-el', behaviors: [Nowhere.Behavior] });
</script>
`,
	})

	analysis, err := a.Analyze(context.Background(), []string{"index.html"})
	require.NoError(t, err)

	doc, ok := analysis.Document("index.html")
	require.True(t, ok)
	assert.Equal(t, []string{diag.CodeCouldNotLoad}, warningCodes(doc.Warnings))

	require.Len(t, analysis.Elements(), 1)
	assert.Equal(t, []string{diag.CodeUnresolvableBehavior}, warningCodes(analysis.Elements()[0].Warnings()))

	assert.Equal(t, []string{diag.CodeCouldNotLoad}, warningCodes(analysis.Warnings(diag.SeverityError)))
	assert.Len(t, analysis.Warnings(diag.SeverityWarning), 2)
}

func TestAnalyze_MissingRoot(t *testing.T) {
	t.Parallel()

	a, _ := newTestAnalyzer(t, nil)
	_, err := a.Analyze(context.Background(), []string{"nope.js"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnalyze_SyntaxError(t *testing.T) {
	t.Parallel()

	a, _ := newTestAnalyzer(t, map[string]string{
		"bad.js":  "var = ;",
		"good.js": "/** @namespace */\nvar Good = {};",
	})

	analysis, err := a.Analyze(context.Background(), []string{"bad.js", "good.js"})
	require.NoError(t, err)

	bad, ok := analysis.Document("bad.js")
	require.True(t, ok)
	require.Len(t, bad.Warnings, 1)
	assert.Equal(t, diag.CodeParseError, bad.Warnings[0].Code)
	assert.Empty(t, bad.Features)

	require.Len(t, analysis.Namespaces(), 1)
}

func TestAnalyze_SkippedDeclarationWarnings(t *testing.T) {
	t.Parallel()

	a, _ := newTestAnalyzer(t, map[string]string{
		"page.html": `<script>
/** @polymerBehavior */
var Built = build();
</script>
<script>
/** @mixinFunction */
function Plain(base) { return base; }
</script>
`,
	})

	analysis, err := a.Analyze(context.Background(), []string{"page.html"})
	require.NoError(t, err)

	page, ok := analysis.Document("page.html")
	require.True(t, ok)
	assert.Empty(t, page.Features)
	assert.Equal(t, []string{diag.CodeSkippedDeclaration, diag.CodeSkippedDeclaration}, warningCodes(page.Warnings))
	for _, w := range page.Warnings {
		assert.Equal(t, diag.SeverityInfo, w.Severity)
		assert.Equal(t, "page.html", w.SourceRange.File)
	}
	assert.Equal(t, 2, page.Warnings[0].SourceRange.Start.Line)
	assert.Equal(t, 6, page.Warnings[1].SourceRange.Start.Line)

	assert.Len(t, analysis.Warnings(diag.SeverityInfo), 2)
	assert.Empty(t, analysis.Warnings(diag.SeverityWarning))
}

func TestAnalyze_ImportCycle(t *testing.T) {
	t.Parallel()

	a, _ := newTestAnalyzer(t, map[string]string{
		"a.html": `<link rel="import" href="b.html"><script>/** @polymerBehavior */ var A = { behaviors: [B] };</script>`,
		"b.html": `<link rel="import" href="a.html"><script>/** @polymerBehavior */ var B = { behaviors: [A] };</script>`,
	})

	analysis, err := a.Analyze(context.Background(), []string{"a.html"})
	require.NoError(t, err)
	assert.Len(t, analysis.Documents(), 2)

	behaviors := analysis.Behaviors()
	require.Len(t, behaviors, 2)
	for _, b := range behaviors {
		assert.Equal(t, []string{diag.CodeCyclicBehaviorReference}, warningCodes(b.Warnings()))
	}
}

func TestAnalyze_LocalDeclarationWins(t *testing.T) {
	t.Parallel()

	a, _ := newTestAnalyzer(t, map[string]string{
		"index.html": `<link rel="import" href="lib.html">
<script>
/** @polymerBehavior */
var Shared = { properties: { local: String } };
Polymer({ is: 'x-el', behaviors: [Shared] });
</script>`,
		"lib.html": `<script>
/** @polymerBehavior */
var Shared = { properties: { imported: String } };
</script>`,
	})

	analysis, err := a.Analyze(context.Background(), []string{"index.html"})
	require.NoError(t, err)

	require.Len(t, analysis.Elements(), 1)
	assert.Equal(t, []string{"local"}, propertyNames(analysis.Elements()[0].Composition))
}

func TestAnalyze_CacheByContentHash(t *testing.T) {
	t.Parallel()

	progress := &recordingProgress{}
	a, loader := newTestAnalyzer(t, map[string]string{
		"index.html": `<link rel="import" href="lib.html"><script>Polymer({ is: 'x-el', behaviors: [Lib] });</script>`,
		"lib.html":   `<script>/** @polymerBehavior */ var Lib = { properties: { one: String } };</script>`,
	}, WithProgress(progress))
	ctx := context.Background()

	_, err := a.Analyze(ctx, []string{"index.html"})
	require.NoError(t, err)
	assert.Equal(t, 0, progress.cached)
	require.NotNil(t, progress.stats)
	assert.Equal(t, 2, progress.stats.Documents)

	progress.cached = 0
	analysis, err := a.Analyze(ctx, []string{"index.html"})
	require.NoError(t, err)
	assert.Equal(t, 2, progress.cached)
	assert.Equal(t, 2, progress.stats.CachedDocuments)
	assert.Equal(t, []string{"one"}, propertyNames(analysis.Elements()[0].Composition))

	loader.Set("lib.html", []byte(`<script>/** @polymerBehavior */ var Lib = { properties: { two: Number } };</script>`))
	progress.cached = 0
	analysis, err = a.Analyze(ctx, []string{"index.html"})
	require.NoError(t, err)
	assert.Equal(t, 1, progress.cached)
	assert.Equal(t, []string{"two"}, propertyNames(analysis.Elements()[0].Composition))
}

func TestAnalyze_Cancelled(t *testing.T) {
	t.Parallel()

	a, _ := newTestAnalyzer(t, map[string]string{"a.js": "var a = 1;"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Analyze(ctx, []string{"a.js"})
	assert.ErrorIs(t, err, context.Canceled)
}

// Test Plan for loaders and discovery:
// - FSLoader reads below its root and rejects escaping URLs
// - OverlayLoader prefers overlays and falls back
// - discovery applies include and ignore globs and skips the tool directory

func TestFSLoader(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "a.js"), []byte("var a;"), 0o644))

	l := NewFSLoader(dir)
	ctx := context.Background()

	data, err := l.Load(ctx, "src/a.js")
	require.NoError(t, err)
	assert.Equal(t, "var a;", string(data))

	_, err = l.Load(ctx, "src/missing.js")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = l.Load(ctx, "../outside.js")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestOverlayLoader(t *testing.T) {
	t.Parallel()

	base := NewOverlayLoader(nil)
	base.Set("a.js", []byte("base"))
	overlay := NewOverlayLoader(base)
	ctx := context.Background()

	data, err := overlay.Load(ctx, "a.js")
	require.NoError(t, err)
	assert.Equal(t, "base", string(data))

	overlay.Set("a.js", []byte("edited"))
	data, err = overlay.Load(ctx, "a.js")
	require.NoError(t, err)
	assert.Equal(t, "edited", string(data))

	overlay.Delete("a.js")
	data, err = overlay.Load(ctx, "a.js")
	require.NoError(t, err)
	assert.Equal(t, "base", string(data))

	_, err = overlay.Load(ctx, "b.js")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileDiscovery(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, f := range []string{
		"index.html",
		"src/app.js",
		"src/readme.md",
		"node_modules/dep/dep.js",
		".featurescan/cache.js",
	} {
		full := filepath.Join(dir, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(""), 0o644))
	}

	fd, err := NewFileDiscovery(dir, []string{"**/*.html", "**/*.js"}, []string{"node_modules/**"})
	require.NoError(t, err)

	urls, err := fd.Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{"index.html", "src/app.js"}, urls)

	assert.True(t, fd.Matches("src/other.js"))
	assert.False(t, fd.Matches("node_modules/dep/other.js"))
}

func TestNewFileDiscovery_InvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := NewFileDiscovery(t.TempDir(), []string{"[unclosed"}, nil)
	assert.Error(t, err)
}

func TestAnalyze_ComponentsFixture(t *testing.T) {
	t.Parallel()

	root := filepath.Join("..", "..", "testdata", "components")
	fd, err := NewFileDiscovery(root, []string{"**/*.html", "**/*.js"}, []string{"node_modules/**"})
	require.NoError(t, err)
	urls, err := fd.Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{"app-shell.js", "behaviors/selectable.html", "index.html", "mixins/theme-mixin.js"}, urls)

	a, err := New(NewFSLoader(root))
	require.NoError(t, err)
	t.Cleanup(a.Close)

	analysis, err := a.Analyze(context.Background(), []string{"index.html"})
	require.NoError(t, err)
	assert.Equal(t, []string{"behaviors/selectable.html", "app-shell.js", "mixins/theme-mixin.js"}, analysis.Dependencies("index.html"))

	f, ok := findFeature(analysis, feature.KindElement, "app-list")
	require.True(t, ok)
	list := f.(*feature.PolymerElement)
	assert.Equal(t, []string{"selected", "items"}, propertyNames(list.Composition))
	assert.Equal(t, []string{"App.Selectable"}, list.Behaviors)
	require.Len(t, list.Observers, 1)
	assert.Equal(t, "_itemsChanged(items.*)", list.Observers[0].Expression)
	require.Len(t, list.Listeners, 1)
	assert.Equal(t, "tap", list.Listeners[0].Event)

	selected, ok := list.Property("selected")
	require.True(t, ok)
	require.NotNil(t, selected.Default)
	assert.Equal(t, "-1", selected.Default.JSON())
	assert.Equal(t, "_selectedChanged", selected.Observer)

	f, ok = findFeature(analysis, feature.KindElement, "AppShell")
	require.True(t, ok)
	shell := f.(*feature.PolymerElement)
	assert.Equal(t, "app-shell", shell.TagName)
	assert.Equal(t, "Polymer.Element", shell.SuperClass)
	assert.Equal(t, []string{"ThemeMixin"}, shell.Mixins)
	assert.Equal(t, []string{"theme", "page"}, propertyNames(shell.Composition))

	_, ok = findFeature(analysis, feature.KindNamespace, "App")
	assert.True(t, ok)
	assert.Empty(t, analysis.Warnings(diag.SeverityWarning))
}

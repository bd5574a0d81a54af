// Package resolve turns scanned features into immutable resolved features by
// flattening their behavior and mixin references.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/mvp-joe/featurescan/internal/diag"
	"github.com/mvp-joe/featurescan/internal/feature"
	"github.com/mvp-joe/featurescan/internal/source"
)

// Match is a scanned feature found by name together with the URL of the
// document that declares it.
type Match struct {
	Feature feature.Scanned
	URL     string
}

// Graph looks up scanned features by kind and name as seen from a document:
// the document itself first, then everything it imports transitively.
type Graph interface {
	Lookup(ctx context.Context, kind, name, fromURL string) (Match, bool)
}

// Resolver composes scanned features. Results are cached per scanned feature
// for the lifetime of the resolver, so a resolver must be discarded when any
// document it has seen changes. A Resolver is not safe for concurrent use.
type Resolver struct {
	graph    Graph
	logger   *slog.Logger
	resolved map[feature.Scanned]feature.Feature
	composed map[feature.Scanned]composition
}

// composition is a memoized composition result. Warnings are the ones raised
// while composing, not the feature's own scan warnings.
type composition struct {
	c        feature.Composition
	warnings []diag.Warning
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the resolver's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a resolver over a document graph.
func New(graph Graph, opts ...Option) *Resolver {
	r := &Resolver{
		graph:    graph,
		logger:   slog.Default(),
		resolved: make(map[feature.Scanned]feature.Feature),
		composed: make(map[feature.Scanned]composition),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveAll resolves every feature scanned from the document at url.
func (r *Resolver) ResolveAll(ctx context.Context, scanned []feature.Scanned, url string) ([]feature.Feature, error) {
	out := make([]feature.Feature, 0, len(scanned))
	for _, s := range scanned {
		f, err := r.Resolve(ctx, s, url)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Resolve returns the immutable form of a scanned feature declared in the
// document at url. Unresolvable and cyclic references become warnings on the
// result; a feature without a source range is a hard failure.
func (r *Resolver) Resolve(ctx context.Context, s feature.Scanned, url string) (feature.Feature, error) {
	if f, ok := r.resolved[s]; ok {
		return f, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rng := s.Range()
	if rng == nil {
		return nil, diag.NewWarningError(diag.CodeMissingSourceRange, diag.SeverityError,
			fmt.Sprintf("scanned %T has no source range", s), &source.Range{File: url})
	}

	var f feature.Feature
	switch v := s.(type) {
	case *feature.ScannedNamespace:
		f = feature.NewNamespace(v.Name, v.Description, *rng, v.Warnings)
	case *feature.ScannedBehavior:
		c, warnings := r.compose(ctx, s, url)
		f = feature.NewBehavior(v.Name, v.Description, v.Abstract, c, *rng, concat(v.Warnings, warnings))
	case *feature.ScannedPolymerElement:
		c, warnings := r.compose(ctx, s, url)
		f = feature.NewPolymerElement(v.TagName, v.ClassName, v.SuperClass, v.Description, c, *rng, concat(v.Warnings, warnings))
	case *feature.ScannedPolymerElementMixin:
		c, warnings := r.compose(ctx, s, url)
		f = feature.NewPolymerElementMixin(v.Name, v.Description, v.Abstract, c, *rng, concat(v.Warnings, warnings))
	default:
		return nil, fmt.Errorf("unsupported scanned feature %T", s)
	}

	r.resolved[s] = f
	return f, nil
}

func (r *Resolver) compose(ctx context.Context, s feature.Scanned, url string) (feature.Composition, []diag.Warning) {
	w := &walk{r: r, ctx: ctx, active: make(map[feature.Scanned]bool)}
	res, _ := w.compose(s, url)
	return res.c, res.warnings
}

// walk is one depth-first composition. active holds the features on the
// current call chain.
type walk struct {
	r      *Resolver
	ctx    context.Context
	active map[feature.Scanned]bool
}

// reference is a by-name link to another feature.
type reference struct {
	name string
	rng  *source.Range
}

// linkKind describes one kind of reference: behaviors or mixins.
type linkKind struct {
	lookupKind       string
	unresolvableCode string
	cyclicCode       string
	noun             string
	record           func(c *feature.Composition, name string)
	recorded         func(c *feature.Composition) []string
}

var (
	behaviorLinks = linkKind{
		lookupKind:       feature.KindBehavior,
		unresolvableCode: diag.CodeUnresolvableBehavior,
		cyclicCode:       diag.CodeCyclicBehaviorReference,
		noun:             "behavior",
		record:           (*feature.Composition).AddBehavior,
		recorded:         func(c *feature.Composition) []string { return c.Behaviors },
	}
	mixinLinks = linkKind{
		lookupKind:       feature.KindElementMixin,
		unresolvableCode: diag.CodeUnresolvableMixin,
		cyclicCode:       diag.CodeCyclicMixinReference,
		noun:             "mixin",
		record:           (*feature.Composition).AddMixin,
		recorded:         func(c *feature.Composition) []string { return c.Mixins },
	}
)

// compose returns the composition of s and whether it depended on a cycle.
// Results that depend on a cycle differ by where the walk started and are
// not memoized.
func (w *walk) compose(s feature.Scanned, url string) (composition, bool) {
	if cached, ok := w.r.composed[s]; ok {
		return cached, false
	}

	w.active[s] = true
	defer delete(w.active, s)

	var res composition
	cyclic := false

	mixins, behaviors, decl := references(s)
	for _, links := range []struct {
		kind linkKind
		refs []reference
	}{
		{mixinLinks, mixins},
		{behaviorLinks, behaviors},
	} {
		for _, ref := range links.refs {
			if w.follow(&res, links.kind, ref, url) {
				cyclic = true
			}
		}
	}

	if decl != nil {
		res.c.ApplyOwn(decl)
	}
	if !cyclic {
		w.r.composed[s] = res
	}
	return res, cyclic
}

// follow merges one referenced feature into res and reports whether the
// branch hit a cycle.
func (w *walk) follow(res *composition, kind linkKind, ref reference, url string) bool {
	// Already composed through an earlier reference.
	if slices.Contains(kind.recorded(&res.c), ref.name) {
		return false
	}

	m, ok := w.r.graph.Lookup(w.ctx, kind.lookupKind, ref.name, url)
	if !ok {
		res.warnings = append(res.warnings, diag.Warning{
			Code:        kind.unresolvableCode,
			Severity:    diag.SeverityWarning,
			Message:     fmt.Sprintf("unable to resolve %s named %s", kind.noun, ref.name),
			SourceRange: ref.rng,
		})
		return false
	}
	if w.active[m.Feature] {
		w.r.logger.Debug("Dropping cyclic reference", "kind", kind.noun, "name", ref.name, "url", url)
		res.warnings = append(res.warnings, diag.Warning{
			Code:        kind.cyclicCode,
			Severity:    diag.SeverityWarning,
			Message:     fmt.Sprintf("cyclic %s reference to %s", kind.noun, ref.name),
			SourceRange: ref.rng,
		})
		return true
	}

	sub, cyclic := w.compose(m.Feature, m.URL)
	res.c.Merge(sub.c)
	kind.record(&res.c, ref.name)
	res.warnings = append(res.warnings, sub.warnings...)
	return cyclic
}

// references returns the mixin and behavior links and the own declaration of
// a scanned feature.
func references(s feature.Scanned) (mixins, behaviors []reference, decl *feature.ScannedDeclaration) {
	switch v := s.(type) {
	case *feature.ScannedBehavior:
		decl = &v.ScannedDeclaration
	case *feature.ScannedPolymerElement:
		decl = &v.ScannedDeclaration
		mixins = mixinRefs(v.Mixins)
	case *feature.ScannedPolymerElementMixin:
		decl = &v.ScannedDeclaration
		mixins = mixinRefs(v.Mixins)
	default:
		return nil, nil, nil
	}
	for _, a := range decl.BehaviorAssignments {
		behaviors = append(behaviors, reference{name: a.Name, rng: a.SourceRange})
	}
	return mixins, behaviors, decl
}

func mixinRefs(refs []feature.ScannedReference) []reference {
	out := make([]reference, 0, len(refs))
	for _, m := range refs {
		out = append(out, reference{name: m.Name, rng: m.SourceRange})
	}
	return out
}

func concat(a, b []diag.Warning) []diag.Warning {
	out := make([]diag.Warning, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

package scan

import (
	"context"
	"errors"
	"testing"

	"github.com/mvp-joe/featurescan/internal/diag"
	"github.com/mvp-joe/featurescan/internal/feature"
	"github.com/mvp-joe/featurescan/internal/parse"
	"github.com/mvp-joe/featurescan/internal/source"
	"github.com/mvp-joe/featurescan/internal/visitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Test Plan for ScanDocument:
// - all default scanners share one traversal and report in scanner order
// - a hook error aborts the scan and is returned wrapped
// - ranges of inline scripts are in container coordinates
// - skipped declarations are reported to the shared collector at info severity

func parseDoc(t *testing.T, src string, offset *source.LocationOffset) *parse.JavaScriptDocument {
	t.Helper()
	doc, err := parse.ParseJavaScript("test.js", []byte(src), offset)
	require.NoError(t, err)
	t.Cleanup(doc.Close)
	return doc
}

func scanSource(t *testing.T, src string, scanners ...Scanner) []feature.Scanned {
	t.Helper()
	if len(scanners) == 0 {
		scanners = DefaultScanners()
	}
	features, err := ScanDocument(context.Background(), parseDoc(t, src, nil), nil, scanners...)
	require.NoError(t, err)
	return features
}

func only[T feature.Scanned](features []feature.Scanned) []T {
	var out []T
	for _, f := range features {
		if typed, ok := f.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

func TestScanDocument_AllScanners(t *testing.T) {
	t.Parallel()

	features := scanSource(t, `
/** @namespace */
var App = {};

/** @polymerBehavior */
App.Selectable = { properties: { selected: Boolean } };

Polymer({ is: 'app-item', behaviors: [App.Selectable] });

/** @mixinFunction */
function Sized(base) { return class extends base {}; }
`)

	require.Len(t, features, 4)
	assert.IsType(t, &feature.ScannedNamespace{}, features[0])
	assert.IsType(t, &feature.ScannedBehavior{}, features[1])
	assert.IsType(t, &feature.ScannedPolymerElement{}, features[2])
	assert.IsType(t, &feature.ScannedPolymerElementMixin{}, features[3])
}

type failingScanner struct{}

func (failingScanner) Name() string { return "failing" }

func (failingScanner) Begin(*parse.JavaScriptDocument, *diag.Collector) Pass { return failingPass{} }

type failingPass struct{}

func (failingPass) Visitor() *visitor.Visitor {
	return visitor.New().OnEnter("identifier", func(*sitter.Node, *sitter.Node) error {
		return errBoom
	})
}

func (failingPass) Finish(context.Context) ([]feature.Scanned, error) { return nil, nil }

var errBoom = errors.New("boom")

func TestScanDocument_HookErrorAborts(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, "var a = 1;", nil)
	_, err := ScanDocument(context.Background(), doc, nil, NewNamespaceScanner(), failingScanner{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "test.js")
}

func TestScanDocument_InlineRanges(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, "\n/** @namespace */\nvar Foo = {};", &source.LocationOffset{Line: 5, Column: 10, Filename: "page.html"})
	features, err := ScanDocument(context.Background(), doc, nil, NewNamespaceScanner())
	require.NoError(t, err)

	namespaces := only[*feature.ScannedNamespace](features)
	require.Len(t, namespaces, 1)
	assert.Equal(t, &source.Range{
		File:  "page.html",
		Start: source.Position{Line: 7, Column: 0},
		End:   source.Position{Line: 7, Column: 13},
	}, namespaces[0].SourceRange)
}

func TestScanDocument_SkippedDeclarationWarnings(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `
/** @namespace */
var A = {}, B = {};

/** @polymerBehavior */
var Broken = makeBehavior();

/** @mixinFunction */
function NoClass(base) { return base; }
`, nil)
	warnings := &diag.Collector{}
	features, err := ScanDocument(context.Background(), doc, warnings, DefaultScanners()...)
	require.NoError(t, err)
	assert.Empty(t, features)

	items := warnings.Items()
	require.Len(t, items, 3)
	for _, w := range items {
		assert.Equal(t, diag.CodeSkippedDeclaration, w.Code)
		assert.Equal(t, diag.SeverityInfo, w.Severity)
		require.NotNil(t, w.SourceRange)
		assert.Equal(t, "test.js", w.SourceRange.File)
	}
	assert.Contains(t, items[0].Message, "namespace")
	assert.Contains(t, items[1].Message, "behavior Broken")
	assert.Contains(t, items[2].Message, "mixin NoClass")
}

// Test Plan for NamespaceScanner:
// - a marked var statement yields one namespace spanning the full statement
// - two declarators in one marked statement yield nothing
// - assignments take their name from the left-hand side, including bracket access
// - a non-literal subscript is skipped silently
// - an explicit @namespace name and @memberof are honoured
// - unmarked declarations are ignored

func TestNamespaceScanner_VarStatement(t *testing.T) {
	t.Parallel()

	namespaces := only[*feature.ScannedNamespace](scanSource(t, "/** @namespace */\nvar Foo = {};", NewNamespaceScanner()))

	require.Len(t, namespaces, 1)
	ns := namespaces[0]
	assert.Equal(t, "Foo", ns.Name)
	assert.Equal(t, &source.Range{
		File:  "test.js",
		Start: source.Position{Line: 1, Column: 0},
		End:   source.Position{Line: 1, Column: 13},
	}, ns.SourceRange)
	assert.NotNil(t, ns.ASTNode)
	assert.Empty(t, ns.Warnings)
}

func TestNamespaceScanner_MultipleDeclaratorsSkipped(t *testing.T) {
	t.Parallel()

	namespaces := only[*feature.ScannedNamespace](scanSource(t, "/** @namespace */\nvar Foo = {}, Bar = {};", NewNamespaceScanner()))
	assert.Empty(t, namespaces)
}

func TestNamespaceScanner_Assignments(t *testing.T) {
	t.Parallel()

	features := scanSource(t, `
/** @namespace */
Polymer.Foo = {};
/** @namespace */
Polymer['Bar'] = {};
/** @namespace */
Polymer[prefix + 'Baz'] = {};
/** @namespace */
Polymer[Qux] = {};
`, NewNamespaceScanner())

	var names []string
	for _, ns := range only[*feature.ScannedNamespace](features) {
		names = append(names, ns.Name)
	}
	assert.Equal(t, []string{"Polymer.Foo", "Polymer.Bar", "Polymer.Qux"}, names)
}

func TestNamespaceScanner_ExplicitNames(t *testing.T) {
	t.Parallel()

	features := scanSource(t, `
/**
 * Shared helpers.
 * @namespace My.Helpers
 */
var helpers = {};

/**
 * @namespace
 * @memberof Polymer
 */
var Utils = {};

/** Not a namespace. */
var Other = {};
`, NewNamespaceScanner())

	namespaces := only[*feature.ScannedNamespace](features)
	require.Len(t, namespaces, 2)
	assert.Equal(t, "My.Helpers", namespaces[0].Name)
	assert.Equal(t, "Shared helpers.", namespaces[0].Description)
	assert.Equal(t, "Polymer.Utils", namespaces[1].Name)
}

// Test Plan for declaration extraction:
// - properties read type, default, notify, readOnly, reflectToAttribute, observer, computed
// - @type wins over the constructor; unknown types are warned about
// - observers keep unconvertible expressions
// - listeners drop computed keys and non-literal handlers without a warning
// - behaviors warn on names that cannot be determined
// - wrong container shapes produce the matching warning codes

func TestBehaviorScanner_ObjectBehavior(t *testing.T) {
	t.Parallel()

	features := scanSource(t, `
/**
 * Highlights things.
 * @polymerBehavior
 */
var HighlightBehavior = {
  properties: {
    isHighlighted: { type: Boolean, value: false, notify: true, reflectToAttribute: true },
    _color: String,
    __secret: { type: Number, readOnly: true, computed: '_compute(a)' },
  },
  observers: ['_changed(isHighlighted)', computeIt()],
  listeners: { 'tap': '_onTap', [dynamicName]: '_onDynamic', 'focus': handler },
  behaviors: [Polymer.SomeBehavior, makeBehavior()],
  ready: function() {}
};
`, NewBehaviorScanner())

	behaviors := only[*feature.ScannedBehavior](features)
	require.Len(t, behaviors, 1)
	b := behaviors[0]
	assert.Equal(t, "HighlightBehavior", b.Name)
	assert.Equal(t, "Highlights things.", b.Description)

	require.Len(t, b.Properties, 3)
	highlighted := b.Properties[0]
	assert.Equal(t, "isHighlighted", highlighted.Name)
	assert.Equal(t, "boolean", highlighted.Type)
	assert.True(t, highlighted.Notify)
	assert.True(t, highlighted.ReflectToAttribute)
	assert.Equal(t, feature.PrivacyPublic, highlighted.Privacy)
	require.NotNil(t, highlighted.Default)
	v, ok := highlighted.Default.Value()
	assert.True(t, ok)
	assert.Equal(t, false, v)

	assert.Equal(t, "_color", b.Properties[1].Name)
	assert.Equal(t, "string", b.Properties[1].Type)
	assert.Equal(t, feature.PrivacyProtected, b.Properties[1].Privacy)
	assert.Nil(t, b.Properties[1].Default)

	secret := b.Properties[2]
	assert.Equal(t, feature.PrivacyPrivate, secret.Privacy)
	assert.True(t, secret.ReadOnly)
	assert.Equal(t, "_compute(a)", secret.Computed)

	require.Len(t, b.Observers, 2)
	assert.Equal(t, "_changed(isHighlighted)", b.Observers[0].Expression)
	assert.True(t, b.Observers[0].Parsed.Converted())
	assert.Equal(t, "computeIt()", b.Observers[1].Expression)
	assert.False(t, b.Observers[1].Parsed.Converted())
	assert.NotNil(t, b.Observers[1].Parsed.Node())

	require.Len(t, b.Listeners, 1)
	assert.Equal(t, "tap", b.Listeners[0].Event)
	assert.Equal(t, "_onTap", b.Listeners[0].Handler)

	require.Len(t, b.BehaviorAssignments, 1)
	assert.Equal(t, "Polymer.SomeBehavior", b.BehaviorAssignments[0].Name)

	require.Len(t, b.Warnings, 1)
	assert.Equal(t, diag.CodeCouldNotDetermineBehaviorName, b.Warnings[0].Code)
}

func TestBehaviorScanner_ComputedListenerKeyDropped(t *testing.T) {
	t.Parallel()

	features := scanSource(t, `
/** @polymerBehavior */
var B = { listeners: { [eventName]: '_handler' } };
`, NewBehaviorScanner())

	behaviors := only[*feature.ScannedBehavior](features)
	require.Len(t, behaviors, 1)
	assert.Empty(t, behaviors[0].Listeners)
	assert.Empty(t, behaviors[0].Warnings)
}

func TestBehaviorScanner_ArrayBehavior(t *testing.T) {
	t.Parallel()

	features := scanSource(t, `
/** @polymerBehavior Polymer.Combined */
Polymer.CombinedImpl = [Polymer.A, { properties: { x: Number } }, Polymer.B];
`, NewBehaviorScanner())

	behaviors := only[*feature.ScannedBehavior](features)
	require.Len(t, behaviors, 1)
	b := behaviors[0]
	assert.Equal(t, "Polymer.Combined", b.Name)
	require.Len(t, b.BehaviorAssignments, 2)
	assert.Equal(t, "Polymer.A", b.BehaviorAssignments[0].Name)
	assert.Equal(t, "Polymer.B", b.BehaviorAssignments[1].Name)
	require.Len(t, b.Properties, 1)
	assert.Equal(t, "number", b.Properties[0].Type)
}

func TestBehaviorScanner_NonLiteralValueSkipped(t *testing.T) {
	t.Parallel()

	features := scanSource(t, "/** @polymerBehavior */\nvar B = makeBehavior();", NewBehaviorScanner())
	assert.Empty(t, features)
}

func TestDeclaration_PropertyTypes(t *testing.T) {
	t.Parallel()

	features := scanSource(t, `
/** @polymerBehavior */
var B = {
  properties: {
    /**
     * The items.
     * @type {!Array<string>}
     * @private
     */
    items: { value: function() { return []; } },
    untyped: { value: 1 },
    watched: { type: String, observer: function() {} },
    custom: MyType
  }
};
`, NewBehaviorScanner())

	behaviors := only[*feature.ScannedBehavior](features)
	require.Len(t, behaviors, 1)
	b := behaviors[0]
	require.Len(t, b.Properties, 4)

	items := b.Properties[0]
	assert.Equal(t, "!Array<string>", items.Type)
	assert.Equal(t, "The items.", items.Description)
	assert.Equal(t, feature.PrivacyPrivate, items.Privacy)
	require.NotNil(t, items.Default)
	assert.False(t, items.Default.Converted())

	var codes []string
	for _, w := range b.Warnings {
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []string{
		diag.CodeCouldNotDetermineType,
		diag.CodeInvalidPropertyObserver,
		diag.CodeCouldNotDetermineType,
	}, codes)
}

func TestDeclaration_InvalidShapes(t *testing.T) {
	t.Parallel()

	features := scanSource(t, `
Polymer({
  is: 5,
  properties: [],
  behaviors: Polymer.A,
  observers: {},
  listeners: [],
  hostAttributes: { role: 'button' }
});
`, NewElementScanner())

	elements := only[*feature.ScannedPolymerElement](features)
	require.Len(t, elements, 1)

	var codes []string
	for _, w := range elements[0].Warnings {
		codes = append(codes, w.Code)
		assert.NotNil(t, w.SourceRange)
	}
	assert.Equal(t, []string{
		diag.CodeInvalidTagName,
		diag.CodeInvalidPropertiesDeclaration,
		diag.CodeInvalidBehaviorsDeclaration,
		diag.CodeInvalidObserversDeclaration,
		diag.CodeInvalidListenersDeclaration,
	}, codes)
}

// Test Plan for ElementScanner:
// - Polymer({...}) calls become elements, named after their binding when assigned
// - classes with a static "is" getter read static getters, heritage mixins and @appliesMixin
// - @event tags inside the definition become events
// - classes without a tag name are ignored

func TestElementScanner_PolymerCall(t *testing.T) {
	t.Parallel()

	features := scanSource(t, `
/**
 * A menu.
 * @fires menu-open Fired when opened
 */
var XMenu = Polymer({
  is: 'x-menu',
  properties: { open: { type: Boolean, notify: true } },
  behaviors: [Polymer.IronA11yKeysBehavior]
});
`, NewElementScanner())

	elements := only[*feature.ScannedPolymerElement](features)
	require.Len(t, elements, 1)
	el := elements[0]
	assert.Equal(t, "x-menu", el.TagName)
	assert.Equal(t, "XMenu", el.ClassName)
	assert.Equal(t, "A menu.", el.Description)
	require.Len(t, el.Properties, 1)
	assert.Equal(t, "open", el.Properties[0].Name)
	require.Len(t, el.BehaviorAssignments, 1)
	assert.Equal(t, "Polymer.IronA11yKeysBehavior", el.BehaviorAssignments[0].Name)
	require.Len(t, el.Events, 1)
	assert.Equal(t, "menu-open", el.Events[0].Name)
	assert.Equal(t, "Fired when opened", el.Events[0].Description)
}

func TestElementScanner_Class(t *testing.T) {
	t.Parallel()

	features := scanSource(t, `
/**
 * A fancy button.
 * @appliesMixin Polymer.ExtraMixin
 */
class FancyButton extends Polymer.GestureMixin(Polymer.Element) {
  static get is() { return 'fancy-button'; }
  static get properties() {
    return {
      /** Whether pressed. */
      pressed: { type: Boolean, value: false },
    };
  }
  static get observers() { return ['_pressedChanged(pressed)']; }
  /** @event fancy-tap Fired on tap */
  _tap() {}
}

class Plain extends HTMLElement {
  static get properties() { return { a: String }; }
}
`, NewElementScanner())

	elements := only[*feature.ScannedPolymerElement](features)
	require.Len(t, elements, 1)
	el := elements[0]
	assert.Equal(t, "fancy-button", el.TagName)
	assert.Equal(t, "FancyButton", el.ClassName)
	assert.Equal(t, "Polymer.Element", el.SuperClass)

	var mixins []string
	for _, m := range el.Mixins {
		mixins = append(mixins, m.Name)
	}
	assert.Equal(t, []string{"Polymer.GestureMixin", "Polymer.ExtraMixin"}, mixins)

	require.Len(t, el.Properties, 1)
	assert.Equal(t, "pressed", el.Properties[0].Name)
	assert.Equal(t, "Whether pressed.", el.Properties[0].Description)
	require.Len(t, el.Observers, 1)
	assert.Equal(t, "_pressedChanged(pressed)", el.Observers[0].Expression)
	require.Len(t, el.Events, 1)
	assert.Equal(t, "fancy-tap", el.Events[0].Name)
}

// Test Plan for MixinScanner:
// - assignments of mixin-producing calls are found by their @mixinFunction tag
// - function declarations returning a class are found
// - heritage calls other than the base parameter and @appliesMixin become references
// - the class inside a mixin is not reported as an element

func TestMixinScanner(t *testing.T) {
	t.Parallel()

	features := scanSource(t, `
/**
 * Toggles.
 * @polymer
 * @mixinFunction
 * @appliesMixin Polymer.BaseMixin
 */
Polymer.ToggleMixin = Polymer.dedupingMixin((superClass) => class extends Polymer.Other(superClass) {
  static get properties() { return { toggled: { type: Boolean, notify: true } }; }
});

/** @mixinFunction */
function SizedMixin(base) {
  return class extends base {
    static get properties() { return { size: Number }; }
  };
}

/** @mixinFunction */
function notAMixin() { return 1; }
`)

	assert.Empty(t, only[*feature.ScannedPolymerElement](features))

	mixins := only[*feature.ScannedPolymerElementMixin](features)
	require.Len(t, mixins, 2)

	toggle := mixins[0]
	assert.Equal(t, "Polymer.ToggleMixin", toggle.Name)
	assert.Equal(t, "Toggles.", toggle.Description)
	var refs []string
	for _, m := range toggle.Mixins {
		refs = append(refs, m.Name)
	}
	assert.Equal(t, []string{"Polymer.Other", "Polymer.BaseMixin"}, refs)
	require.Len(t, toggle.Properties, 1)
	assert.Equal(t, "toggled", toggle.Properties[0].Name)

	sized := mixins[1]
	assert.Equal(t, "SizedMixin", sized.Name)
	assert.Empty(t, sized.Mixins)
	require.Len(t, sized.Properties, 1)
	assert.Equal(t, "number", sized.Properties[0].Type)
}

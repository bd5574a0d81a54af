package scan

import (
	"fmt"

	"github.com/mvp-joe/featurescan/internal/diag"
	"github.com/mvp-joe/featurescan/internal/esutil"
	"github.com/mvp-joe/featurescan/internal/feature"
	"github.com/mvp-joe/featurescan/internal/jsdoc"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

func (x *extractor) readProperties(value *sitter.Node, t target) {
	obj := esutil.Unwrap(value)
	if obj == nil || obj.Kind() != "object" {
		t.warn(x, diag.CodeInvalidPropertiesDeclaration, value, "properties must be an object literal")
		return
	}
	for _, member := range esutil.NamedChildren(obj) {
		if member.Kind() != "pair" {
			continue
		}
		name, ok := esutil.ObjectKeyName(member.ChildByFieldName("key"), x.src())
		if !ok {
			x.logger.Debug("Skipping property with computed name", "url", x.doc.URL(), "key", x.doc.Text(member.ChildByFieldName("key")))
			continue
		}
		t.decl.AddProperty(x.readProperty(name, member, t))
	}
}

// readProperty analyzes one entry of a properties object. The value is either
// a type constructor or a configuration object.
func (x *extractor) readProperty(name string, pair *sitter.Node, t target) feature.Property {
	prop := feature.Property{
		Name:        name,
		SourceRange: x.doc.SourceRangeForNode(pair),
	}

	var ann *jsdoc.Annotation
	if comment := esutil.LeadingComment(pair, x.src()); comment != "" {
		ann = jsdoc.Parse(comment)
		prop.Description = ann.Description
	}

	value := esutil.Unwrap(pair.ChildByFieldName("value"))
	switch {
	case value == nil:
	case value.Kind() == "identifier":
		prop.Type, _ = esutil.ConstructorType(x.doc.Text(value))
	case value.Kind() == "object":
		x.readPropertyConfig(&prop, value, t)
	}

	if typeTag, ok := ann.Tag("type"); ok && typeTag.Type != "" {
		prop.Type = typeTag.Type
	}
	if prop.Type == "" {
		t.warn(x, diag.CodeCouldNotDetermineType, pair,
			fmt.Sprintf("could not determine type of property %s", name))
	}

	prop.Privacy = feature.PrivacyFromName(name)
	if p := ann.Privacy(); p != "" {
		prop.Privacy = feature.Privacy(p)
	}
	return prop
}

func (x *extractor) readPropertyConfig(prop *feature.Property, obj *sitter.Node, t target) {
	for _, member := range esutil.NamedChildren(obj) {
		var key string
		var value *sitter.Node
		switch member.Kind() {
		case "pair":
			var ok bool
			key, ok = esutil.ObjectKeyName(member.ChildByFieldName("key"), x.src())
			if !ok {
				continue
			}
			value = member.ChildByFieldName("value")
		case "method_definition":
			// value() { return []; }
			key = x.doc.Text(member.ChildByFieldName("name"))
			value = member
		default:
			continue
		}

		switch key {
		case "type":
			if id := esutil.Unwrap(value); id != nil && id.Kind() == "identifier" {
				prop.Type, _ = esutil.ConstructorType(x.doc.Text(id))
			}
		case "value":
			def := esutil.Evaluate(value, x.src())
			prop.Default = &def
		case "notify":
			prop.Notify = x.boolValue(value)
		case "readOnly":
			prop.ReadOnly = x.boolValue(value)
		case "reflectToAttribute":
			prop.ReflectToAttribute = x.boolValue(value)
		case "observer":
			name, ok := esutil.StringLiteral(esutil.Unwrap(value), x.src())
			if !ok {
				t.warn(x, diag.CodeInvalidPropertyObserver, value,
					fmt.Sprintf("observer of property %s must be a method name string", prop.Name))
				continue
			}
			prop.Observer = name
		case "computed":
			if expr, ok := esutil.StringLiteral(esutil.Unwrap(value), x.src()); ok {
				prop.Computed = expr
			}
		}
	}
}

func (x *extractor) boolValue(n *sitter.Node) bool {
	v, ok := esutil.Evaluate(n, x.src()).Value()
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Package visitor lets many independent scanners observe one syntax tree in a
// single traversal.
//
// Each Visitor registers hooks per node kind. A Multiplexer merges the hooks of
// every registered visitor into one dispatch table and walks the tree once,
// invoking the matching hooks at every node in registration order.
package visitor

import (
	"context"
	"slices"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Hook is invoked for a node together with its immediate parent (nil for the
// root). Returning an error aborts the traversal.
type Hook func(node, parent *sitter.Node) error

// AnyKind registers a hook for every node regardless of kind.
const AnyKind = "*"

// Visitor is a set of enter/leave hooks keyed by node kind.
type Visitor struct {
	enter map[string][]registered
	leave map[string][]registered
	seq   int
}

type registered struct {
	order [2]int // visitor index, registration sequence
	hook  Hook
}

// New creates an empty visitor.
func New() *Visitor {
	return &Visitor{
		enter: make(map[string][]registered),
		leave: make(map[string][]registered),
	}
}

// OnEnter registers a hook run before a node's children are visited.
func (v *Visitor) OnEnter(kind string, h Hook) *Visitor {
	v.seq++
	v.enter[kind] = append(v.enter[kind], registered{order: [2]int{0, v.seq}, hook: h})
	return v
}

// OnLeave registers a hook run after a node's children are visited.
func (v *Visitor) OnLeave(kind string, h Hook) *Visitor {
	v.seq++
	v.leave[kind] = append(v.leave[kind], registered{order: [2]int{0, v.seq}, hook: h})
	return v
}

// Empty reports whether the visitor has no hooks.
func (v *Visitor) Empty() bool {
	return v == nil || (len(v.enter) == 0 && len(v.leave) == 0)
}

// Multiplexer dispatches one traversal to many visitors.
type Multiplexer struct {
	enter    map[string][]registered
	leave    map[string][]registered
	anyEnter []registered
	anyLeave []registered
}

// NewMultiplexer builds the dispatch table. Hooks matching the same node run
// in the order their visitors are given, and within one visitor in the order
// they were registered. Nil visitors are skipped.
func NewMultiplexer(visitors ...*Visitor) *Multiplexer {
	m := &Multiplexer{
		enter: make(map[string][]registered),
		leave: make(map[string][]registered),
	}
	for idx, v := range visitors {
		if v.Empty() {
			continue
		}
		for kind, hooks := range v.enter {
			for _, r := range hooks {
				r.order[0] = idx
				if kind == AnyKind {
					m.anyEnter = append(m.anyEnter, r)
				} else {
					m.enter[kind] = append(m.enter[kind], r)
				}
			}
		}
		for kind, hooks := range v.leave {
			for _, r := range hooks {
				r.order[0] = idx
				if kind == AnyKind {
					m.anyLeave = append(m.anyLeave, r)
				} else {
					m.leave[kind] = append(m.leave[kind], r)
				}
			}
		}
	}
	sortRegistered(m.anyEnter)
	sortRegistered(m.anyLeave)
	for _, hooks := range m.enter {
		sortRegistered(hooks)
	}
	for _, hooks := range m.leave {
		sortRegistered(hooks)
	}
	return m
}

// Walk performs exactly one pre-order traversal of root. Leave hooks run in
// the matching post-order. The context is checked once per node.
func (m *Multiplexer) Walk(ctx context.Context, root *sitter.Node) error {
	if root == nil {
		return nil
	}
	return m.walk(ctx, root, nil)
}

func (m *Multiplexer) walk(ctx context.Context, node, parent *sitter.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	kind := node.Kind()
	if err := run(m.enter[kind], m.anyEnter, node, parent); err != nil {
		return err
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if err := m.walk(ctx, child, node); err != nil {
			return err
		}
	}

	return run(m.leave[kind], m.anyLeave, node, parent)
}

// run invokes two already-sorted hook lists merged by registration order.
func run(byKind, wildcard []registered, node, parent *sitter.Node) error {
	i, j := 0, 0
	for i < len(byKind) || j < len(wildcard) {
		var next registered
		if j >= len(wildcard) || (i < len(byKind) && before(byKind[i].order, wildcard[j].order)) {
			next = byKind[i]
			i++
		} else {
			next = wildcard[j]
			j++
		}
		if err := next.hook(node, parent); err != nil {
			return err
		}
	}
	return nil
}

func before(a, b [2]int) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	return a[1] < b[1]
}

func sortRegistered(hooks []registered) {
	slices.SortStableFunc(hooks, func(a, b registered) int {
		switch {
		case before(a.order, b.order):
			return -1
		case before(b.order, a.order):
			return 1
		}
		return 0
	})
}

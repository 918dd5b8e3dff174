package ast

import "reflect"

// NodeID addresses a node inside the arena of its owning module.
type NodeID int32

// NoNode is the parent id of a module root and of unlinked nodes.
const NoNode NodeID = -1

// Location is a 1-based (line, column) source position.
type Location struct {
	Line   int
	Column int
}

// Before reports whether l lies strictly before o.
func (l Location) Before(o Location) bool {
	if l.Line != o.Line {
		return l.Line < o.Line
	}
	return l.Column < o.Column
}

// IsZero reports an unset location.
func (l Location) IsZero() bool { return l.Line == 0 && l.Column == 0 }

// Node is the base interface for all syntax tree nodes.
// Parent links are stored as ids and resolved through the module arena, so
// subtrees can be shared by reference without owning their parents.
type Node interface {
	ID() NodeID
	Parent() Node
	Start() Location
	End() Location
	Module() *Module
	Children() []Node
	base() *Base
}

// Base carries the bookkeeping every node shares.
type Base struct {
	StartLoc Location
	EndLoc   Location

	id     NodeID
	parent NodeID
	mod    *Module
}

func (b *Base) base() *Base     { return b }
func (b *Base) Start() Location { return b.StartLoc }
func (b *Base) End() Location   { return b.EndLoc }
func (b *Base) Module() *Module { return b.mod }
func (b *Base) linked() bool    { return b.mod != nil }
func (b *Base) ID() NodeID {
	if b.mod == nil {
		return NoNode
	}
	return b.id
}

func (b *Base) Parent() Node {
	if b.mod == nil || b.parent == NoNode {
		return nil
	}
	return b.mod.nodes[b.parent]
}

// Span sets both locations and returns the base for chaining in builders.
func (b *Base) Span(start, end Location) *Base {
	b.StartLoc = start
	b.EndLoc = end
	return b
}

// Contains reports whether loc lies within [start, end] of n.
func Contains(n Node, loc Location) bool {
	if n == nil {
		return false
	}
	return !loc.Before(n.Start()) && !n.End().Before(loc)
}

// Link registers root and every node reachable from it in mod's arena and
// records parent ids. A node already owned by mod keeps its id.
func Link(mod *Module, root Node, parent Node) {
	if root == nil || isNilNode(root) {
		return
	}
	b := root.base()
	if b.mod != mod {
		b.mod = mod
		b.id = NodeID(len(mod.nodes))
		mod.nodes = append(mod.nodes, root)
	}
	if parent != nil {
		b.parent = parent.ID()
	} else {
		b.parent = NoNode
	}
	for _, c := range root.Children() {
		Link(mod, c, root)
	}
}

// Walk visits n and its descendants depth-first; fn returning false prunes.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || isNilNode(n) || !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}

// Ancestors returns the parent chain of n, innermost first.
func Ancestors(n Node) []Node {
	var out []Node
	for p := n.Parent(); p != nil; p = p.Parent() {
		out = append(out, p)
	}
	return out
}

// appendNodes is a helper for Children implementations that skips nils.
func appendNodes(dst []Node, nodes ...Node) []Node {
	for _, n := range nodes {
		if n != nil && !isNilNode(n) {
			dst = append(dst, n)
		}
	}
	return dst
}

// isNilNode catches typed nil pointers stored in interfaces.
func isNilNode(n Node) bool {
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

package graft

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Visitor drives document-order traversal of a Source. The callback returns
// false to skip the node's subtree. The engine and the query composer both
// accept a custom Visitor, which tests use to observe or fake traversal.
type Visitor interface {
	Visit(src *Source, fn func(n *sitter.Node) bool)
}

// treeVisitor is the default Visitor: preorder traversal over named nodes.
type treeVisitor struct{}

// DefaultVisitor returns the built-in preorder traversal.
func DefaultVisitor() Visitor { return treeVisitor{} }

func (treeVisitor) Visit(src *Source, fn func(n *sitter.Node) bool) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if !fn(n) {
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	root := src.Root()
	if root != nil {
		walk(root)
	}
}

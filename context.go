package graft

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Context is what a handler runs against: one match plus the rewrite
// facilities for the current pass.
type Context struct {
	Match   *Match
	Rewrite *RewriteContext
}

// Node returns the matched node.
func (c *Context) Node() *sitter.Node { return c.Match.Node }

// Source returns the compilation unit the match came from.
func (c *Context) Source() *Source { return c.Match.Source }

// Rule returns the rule whose pattern produced the match.
func (c *Context) Rule() Rule { return c.Match.Rule() }

// Binding returns the nodes bound to a capture variable, or nil.
func (c *Context) Binding(name string) []*sitter.Node {
	return c.Match.Bindings.Nodes(name)
}

// BindingText returns the source text of a capture variable's binding.
// Variadic bindings are joined with ", ".
func (c *Context) BindingText(name string) string {
	nodes := c.Match.Bindings.Nodes(name)
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = c.Match.Source.Text(n)
	}
	return strings.Join(parts, ", ")
}

// Text returns the source text of n.
func (c *Context) Text(n *sitter.Node) string { return c.Match.Source.Text(n) }

// Offset returns the byte offset of the matched node.
func (c *Context) Offset() uint32 { return c.Match.Node.StartByte() }

// ReplaceMatch substitutes text for the matched node.
func (c *Context) ReplaceMatch(text string) {
	c.Rewrite.Edits.Replace(c.Match.Node, text, c.Rewrite.Group)
}

// RemoveMatch deletes the matched node.
func (c *Context) RemoveMatch() {
	c.Rewrite.Edits.Remove(c.Match.Node, c.Rewrite.Group)
}

// Replace substitutes text for an arbitrary node, typically a binding.
func (c *Context) Replace(n *sitter.Node, text string) {
	c.Rewrite.Edits.Replace(n, text, c.Rewrite.Group)
}

// AddImport records an import to add, if an ImportMutator is configured.
func (c *Context) AddImport(path string) {
	if c.Rewrite.Imports != nil {
		c.Rewrite.Imports.Add(path)
	}
}

// RemoveImport records an import to remove, if an ImportMutator is configured.
func (c *Context) RemoveImport(path string) {
	if c.Rewrite.Imports != nil {
		c.Rewrite.Imports.Remove(path)
	}
}

// AddStaticImport records a static import to add.
func (c *Context) AddStaticImport(qualified string) {
	if c.Rewrite.Imports != nil {
		c.Rewrite.Imports.AddStatic(qualified)
	}
}

// RemoveStaticImport records a static import to remove.
func (c *Context) RemoveStaticImport(qualified string) {
	if c.Rewrite.Imports != nil {
		c.Rewrite.Imports.RemoveStatic(qualified)
	}
}

package graft

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/graft/internal/lang"
)

// Source is one parsed compilation unit: the raw bytes, the syntax tree, and
// the language it was parsed as.
type Source struct {
	Path  string
	Bytes []byte

	language *lang.Language
	tree     *sitter.Tree
}

// Parse parses src as the given language ("go" or "java").
func Parse(language string, src []byte) (*Source, error) {
	return parseNamed("", language, src)
}

// ParseFile reads and parses path, inferring the language from the extension.
func ParseFile(path string) (*Source, error) {
	name, ok := lang.ForFile(path)
	if !ok {
		return nil, fmt.Errorf("parse %s: unsupported file extension", path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return parseNamed(path, name, src)
}

func parseNamed(path, language string, src []byte) (*Source, error) {
	l, ok := lang.ForName(language)
	if !ok {
		return nil, fmt.Errorf("parse: unsupported language %q (supported: %v)", language, lang.Names())
	}
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(l.Grammar)
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return &Source{Path: path, Bytes: src, language: l, tree: tree}, nil
}

// Language returns the canonical language name.
func (s *Source) Language() string { return s.language.Name }

// Root returns the root node of the syntax tree.
func (s *Source) Root() *sitter.Node { return s.tree.RootNode() }

// Text returns the source text spanned by n.
func (s *Source) Text(n *sitter.Node) string { return n.Content(s.Bytes) }

// Close releases the underlying tree. The Source must not be used after.
func (s *Source) Close() {
	if s.tree != nil {
		s.tree.Close()
		s.tree = nil
	}
}

// NodeID identifies a node within one tree by byte span and type. Node
// pointers from the tree-sitter binding are not stable across navigations, so
// sets and maps key on NodeID instead.
type NodeID struct {
	Start uint32
	End   uint32
	Type  string
}

// IDOf returns the NodeID for n.
func IDOf(n *sitter.Node) NodeID {
	return NodeID{Start: n.StartByte(), End: n.EndByte(), Type: n.Type()}
}

// NodeSet is a set of nodes keyed by NodeID. Queries sharing a NodeSet skip
// nodes any of them already visited.
type NodeSet map[NodeID]struct{}

// Add inserts n and reports whether it was absent.
func (s NodeSet) Add(n *sitter.Node) bool {
	id := IDOf(n)
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

// Has reports whether n is in the set.
func (s NodeSet) Has(n *sitter.Node) bool {
	_, ok := s[IDOf(n)]
	return ok
}

package graft

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/graft/internal/lang"
)

// CaptureBinding maps capture-variable names to the subject nodes they bound.
// Single captures hold one node; variadic captures hold zero or more. Every
// binding also carries two automatic entries: "_" (the matched node) and,
// when the match sits inside a type declaration, "this" (that declaration).
type CaptureBinding map[string][]*sitter.Node

// Nodes returns the nodes bound to name, or nil.
func (b CaptureBinding) Nodes(name string) []*sitter.Node { return b[name] }

// First returns the first node bound to name, or nil.
func (b CaptureBinding) First(name string) *sitter.Node {
	if ns := b[name]; len(ns) > 0 {
		return ns[0]
	}
	return nil
}

func (b CaptureBinding) clone() CaptureBinding {
	c := make(CaptureBinding, len(b))
	for k, v := range b {
		c[k] = v
	}
	return c
}

// Match is one occurrence of a rule's pattern in a Source. It records the
// matched node, the complete capture bindings, and the rule that produced it.
type Match struct {
	Node     *sitter.Node
	Bindings CaptureBinding
	Source   *Source

	desc *Descriptor
}

// Rule returns the rule whose pattern produced this match.
func (m *Match) Rule() Rule { return m.desc.rule }

// Text returns the source text of the matched node.
func (m *Match) Text() string { return m.Source.Text(m.Node) }

// Range returns the matched node's byte span in the source.
func (m *Match) Range() (start, end uint32) {
	return m.Node.StartByte(), m.Node.EndByte()
}

// matcher compares a compiled template subtree against subject nodes,
// accumulating capture bindings. Bindings are compared by source text, so a
// variable bound twice must cover identical text both times.
type matcher struct {
	tmpl *lang.Template
	src  []byte
}

// match reports whether the template's pattern root matches node, returning
// the bindings on success.
func (m *matcher) match(node *sitter.Node) (CaptureBinding, bool) {
	b := CaptureBinding{}
	if !m.matchNode(m.tmpl.Root, node, b) {
		return nil, false
	}
	return b, true
}

func (m *matcher) matchNode(p, n *sitter.Node, b CaptureBinding) bool {
	text := p.Content(m.tmpl.Source)
	if name, variadic, ok := lang.MarkerVar(text); ok {
		return m.bind(name, []*sitter.Node{n}, variadic, b)
	}
	if p.Type() != n.Type() {
		return false
	}
	pc := children(p)
	nc := children(n)
	if len(pc) == 0 {
		return len(nc) == 0 && text == n.Content(m.src)
	}
	return m.matchSeq(pc, nc, b)
}

// matchSeq matches two child lists. A variadic marker in the pattern list
// absorbs any run of subject children, longest first, backtracking on
// failure.
func (m *matcher) matchSeq(pc, nc []*sitter.Node, b CaptureBinding) bool {
	if len(pc) == 0 {
		return len(nc) == 0
	}
	head := pc[0]
	if name, variadic, ok := lang.MarkerVar(head.Content(m.tmpl.Source)); ok && variadic {
		for take := len(nc); take >= 0; take-- {
			trial := b.clone()
			if !m.bind(name, named(nc[:take]), true, trial) {
				continue
			}
			if m.matchSeq(pc[1:], nc[take:], trial) {
				for k, v := range trial {
					b[k] = v
				}
				return true
			}
		}
		return false
	}
	if len(nc) == 0 {
		return false
	}
	// Unnamed tokens (operators, keywords, punctuation) must agree textually.
	if !head.IsNamed() {
		if nc[0].IsNamed() || head.Content(m.tmpl.Source) != nc[0].Content(m.src) {
			return false
		}
		return m.matchSeq(pc[1:], nc[1:], b)
	}
	if !m.matchNode(head, nc[0], b) {
		return false
	}
	return m.matchSeq(pc[1:], nc[1:], b)
}

// bind records nodes under name, enforcing consistency with any earlier
// binding of the same variable by comparing source text.
func (m *matcher) bind(name string, nodes []*sitter.Node, variadic bool, b CaptureBinding) bool {
	if prev, ok := b[name]; ok {
		return m.joined(prev) == m.joined(nodes)
	}
	if !variadic && len(nodes) != 1 {
		return false
	}
	b[name] = nodes
	return true
}

func (m *matcher) joined(nodes []*sitter.Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.Content(m.src)
	}
	return strings.Join(parts, "\x00")
}

// children returns all children of n except comments. Unnamed tokens are
// kept so that operators and keywords participate in matching.
func children(n *sitter.Node) []*sitter.Node {
	count := int(n.ChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		c := n.Child(i)
		if strings.Contains(c.Type(), "comment") {
			continue
		}
		// Zero-width tokens come from error recovery (MISSING ';' after a
		// placeholder) and carry no text to compare.
		if c.StartByte() == c.EndByte() {
			continue
		}
		out = append(out, c)
	}
	return out
}

// named filters a child run down to its named nodes, which is what a variadic
// capture exposes to handlers (commas and the like are absorbed silently).
func named(nodes []*sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.IsNamed() {
			out = append(out, n)
		}
	}
	return out
}

// findMatches runs every descriptor's pattern over src in document order.
// Matches come back grouped by traversal position, then by descriptor order
// within one node.
func findMatches(src *Source, descs []*Descriptor, v Visitor, resolver TypeResolver, subtypes SubtypeChecker) []*Match {
	var matches []*Match
	l := src.language
	v.Visit(src, func(n *sitter.Node) bool {
		for _, d := range descs {
			if !d.kindSet[n.Type()] {
				continue
			}
			if d.rule.QualifiedType != "" &&
				!qualifiedTypeMatches(l, src, n, d.rule, resolver, subtypes) {
				continue
			}
			m := &matcher{tmpl: d.tmpl, src: src.Bytes}
			b, ok := m.match(n)
			if !ok {
				continue
			}
			b["_"] = []*sitter.Node{n}
			if enc := l.EnclosingType(n); enc != nil {
				b["this"] = []*sitter.Node{enc}
			}
			matches = append(matches, &Match{Node: n, Bindings: b, Source: src, desc: d})
		}
		return true
	})
	return matches
}

// qualifiedTypeMatches applies a rule's QualifiedType constraint. With a
// resolver the constraint is exact equality or, when a SubtypeChecker is
// configured, a subtype relation. Without one it falls back to comparing
// simple names, which keeps annotation and static-call rules usable in
// resolver-less hosts.
func qualifiedTypeMatches(l *lang.Language, src *Source, n *sitter.Node, r Rule, resolver TypeResolver, subtypes SubtypeChecker) bool {
	if resolver != nil {
		if qt, ok := resolver.QualifiedType(n, src); ok {
			if qt == r.QualifiedType {
				return true
			}
			return subtypes != nil && subtypes.IsSubtype(qt, r.QualifiedType)
		}
	}
	simple := lang.SimpleName(r.QualifiedType)
	switch r.Kind {
	case KindAnnotation:
		name, ok := lang.AnnotationName(n, src.Bytes)
		return ok && lang.SimpleName(name) == simple
	case KindMethodCall:
		info, ok := l.Call(n, src.Bytes)
		return ok && lang.SimpleName(info.Receiver) == simple
	case KindConstructor:
		if t := n.ChildByFieldName("type"); t != nil {
			return lang.SimpleName(src.Text(t)) == simple
		}
	case KindImport:
		info, ok := l.Import(n, src.Bytes)
		return ok && (info.Path == r.QualifiedType ||
			strings.HasPrefix(info.Path, r.QualifiedType+"."))
	}
	return false
}

// TypeResolver resolves the fully qualified type a node refers to: the
// receiver type of a call, the annotation type, the created type of a
// constructor invocation. Hosts with semantic information implement it;
// without one, qualified-type constraints fall back to simple-name checks.
type TypeResolver interface {
	QualifiedType(n *sitter.Node, src *Source) (string, bool)
}

// SubtypeChecker widens qualified-type constraints from exact equality to
// "equal or subtype".
type SubtypeChecker interface {
	IsSubtype(sub, super string) bool
}

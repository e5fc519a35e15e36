package graft

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/graft/internal/lang"
)

// Query is a fluent, single-use selection over one Source. Configure it with
// For*/And* criteria plus In, then execute with ProcessEach or Collect.
// Executing before the target and at least one criterion are set returns
// IncompleteConfigurationError without visiting a single node.
//
// Queries sharing a NodeSet via Excluding skip nodes any of them already
// selected; selected nodes are added to the set as they are visited.
type Query struct {
	visitor  Visitor
	resolver TypeResolver

	src      *Source
	exclude  NodeSet
	criteria []criterion

	// last ForMethodCalls target, for And* chaining
	callType string
	callName string

	// pending ForAnnotatedFields criterion awaiting its OfFieldType
	// companion
	fieldAnnotation string
	fieldPending    bool
}

type criterion func(l *lang.Language, src *Source, n *sitter.Node) bool

// NewQuery creates a query using the default traversal.
func NewQuery() *Query {
	return &Query{visitor: DefaultVisitor()}
}

// WithQueryVisitor replaces the traversal. Tests use it to count facility
// calls.
func (q *Query) WithQueryVisitor(v Visitor) *Query {
	q.visitor = v
	return q
}

// WithQueryResolver supplies type resolution for qualifying-type criteria.
func (q *Query) WithQueryResolver(r TypeResolver) *Query {
	q.resolver = r
	return q
}

// In sets the Source to traverse.
func (q *Query) In(src *Source) *Query {
	q.src = src
	return q
}

// Excluding shares an exclusion set with other queries. Nodes in the set are
// not delivered again, though their descendants remain candidates; nodes
// this query selects are added to the set.
func (q *Query) Excluding(set NodeSet) *Query {
	q.exclude = set
	return q
}

// ForMethodCalls selects invocations of name whose qualifying type is
// qualifiedType. Without a resolver the receiver's simple name is compared
// instead, which covers static-style calls.
func (q *Query) ForMethodCalls(qualifiedType, name string) *Query {
	q.callType = qualifiedType
	q.callName = name
	q.criteria = append(q.criteria, func(l *lang.Language, src *Source, n *sitter.Node) bool {
		if !l.KindSet(KindMethodCall)[n.Type()] {
			return false
		}
		info, ok := l.Call(n, src.Bytes)
		if !ok || info.Name != name {
			return false
		}
		if qualifiedType == "" {
			return true
		}
		if q.resolver != nil {
			if qt, ok := q.resolver.QualifiedType(n, src); ok {
				return qt == qualifiedType
			}
		}
		return lang.SimpleName(info.Receiver) == lang.SimpleName(qualifiedType)
	})
	return q
}

// AndStaticImports additionally selects static imports of the preceding
// ForMethodCalls target, including on-demand (".*") imports of its type.
func (q *Query) AndStaticImports() *Query {
	wantExact := q.callType + "." + q.callName
	wantDemand := q.callType + ".*"
	q.criteria = append(q.criteria, func(l *lang.Language, src *Source, n *sitter.Node) bool {
		info, ok := l.Import(n, src.Bytes)
		if !ok || !info.Static {
			return false
		}
		path := info.Path
		if info.Wildcard {
			path += ".*"
		}
		return path == wantExact || path == wantDemand
	})
	return q
}

// AndImportsOf additionally selects imports of the preceding ForMethodCalls
// qualifying type.
func (q *Query) AndImportsOf() *Query {
	want := q.callType
	q.criteria = append(q.criteria, func(l *lang.Language, src *Source, n *sitter.Node) bool {
		info, ok := l.Import(n, src.Bytes)
		return ok && !info.Static && info.Path == want
	})
	return q
}

// ForImport selects import directives of exactly path.
func (q *Query) ForImport(path string) *Query {
	q.criteria = append(q.criteria, func(l *lang.Language, src *Source, n *sitter.Node) bool {
		info, ok := l.Import(n, src.Bytes)
		return ok && info.Path == path
	})
	return q
}

// ForAnnotatedFields starts a field criterion: field declarations carrying
// the given annotation. The criterion is incomplete until OfFieldType
// supplies the declared type; executing before that returns
// IncompleteConfigurationError. Names may be given fully qualified; simple
// names are compared.
func (q *Query) ForAnnotatedFields(annotation string) *Query {
	q.fieldAnnotation = annotation
	q.fieldPending = true
	return q
}

// OfFieldType completes a ForAnnotatedFields criterion with the required
// declared type of the field.
func (q *Query) OfFieldType(qualifiedType string) *Query {
	wantAnn := lang.SimpleName(q.fieldAnnotation)
	wantType := lang.SimpleName(qualifiedType)
	q.fieldPending = false
	q.criteria = append(q.criteria, func(l *lang.Language, src *Source, n *sitter.Node) bool {
		if !l.KindSet(KindField)[n.Type()] {
			return false
		}
		typ, ok := l.FieldType(n, src.Bytes)
		if !ok || lang.SimpleName(typ) != wantType {
			return false
		}
		for _, name := range l.FieldAnnotations(n, src.Bytes) {
			if lang.SimpleName(name) == wantAnn {
				return true
			}
		}
		return false
	})
	return q
}

// ProcessEach runs fn on every selected node in document order. fn returns
// false to stop the query early.
func (q *Query) ProcessEach(fn func(n *sitter.Node) bool) error {
	return q.run(fn)
}

// Collect returns the selected nodes in document order.
func (q *Query) Collect() ([]*sitter.Node, error) {
	var out []*sitter.Node
	err := q.run(func(n *sitter.Node) bool {
		out = append(out, n)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (q *Query) run(fn func(n *sitter.Node) bool) error {
	if q.src == nil {
		return &IncompleteConfigurationError{Missing: "target source (In)"}
	}
	if q.fieldPending {
		return &IncompleteConfigurationError{Missing: "field type (OfFieldType)"}
	}
	if len(q.criteria) == 0 {
		return &IncompleteConfigurationError{Missing: "selection criteria"}
	}
	l := q.src.language
	stopped := false
	q.visitor.Visit(q.src, func(n *sitter.Node) bool {
		if stopped {
			return false
		}
		// An excluded node is not re-delivered, but its descendants may
		// still be candidates.
		if q.exclude != nil && q.exclude.Has(n) {
			return true
		}
		for _, c := range q.criteria {
			if !c(l, q.src, n) {
				continue
			}
			if q.exclude != nil {
				q.exclude.Add(n)
			}
			if !fn(n) {
				stopped = true
				return false
			}
			break
		}
		return true
	})
	return nil
}

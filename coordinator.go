package graft

import "sort"

// Pending is the result of an analysis pass: the matches found, ready to be
// handed to Rewrite exactly once. The token is consumed on first use, even
// when the rewrite pass fails partway.
type Pending struct {
	source   *Source
	matches  []*Match
	consumed bool
}

// Matches returns the matches found during analysis, in document order.
// Hosts use this for dry-run reporting; mutating the returned slice does not
// affect the rewrite pass.
func (p *Pending) Matches() []*Match {
	out := make([]*Match, len(p.matches))
	copy(out, p.matches)
	return out
}

// Empty reports whether analysis found no matches.
func (p *Pending) Empty() bool { return len(p.matches) == 0 }

// Source returns the analyzed compilation unit.
func (p *Pending) Source() *Source { return p.source }

// Coordinator runs the two-phase protocol: Analyze matches every registered
// pattern against a Source without touching it, and Rewrite dispatches the
// matched rules' handlers against a caller-supplied RewriteContext. All
// cross-phase state lives in the Pending token, so one Coordinator may serve
// interleaved analyses of different sources.
type Coordinator struct {
	registry *Registry
	visitor  Visitor
	resolver TypeResolver
	subtypes SubtypeChecker
}

// NewCoordinator creates a coordinator dispatching the registry's rules.
func NewCoordinator(r *Registry, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{registry: r, visitor: DefaultVisitor()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithVisitor replaces the traversal used during analysis.
func WithVisitor(v Visitor) CoordinatorOption {
	return func(c *Coordinator) { c.visitor = v }
}

// WithTypeResolver supplies semantic type resolution for QualifiedType
// constraints.
func WithTypeResolver(r TypeResolver) CoordinatorOption {
	return func(c *Coordinator) { c.resolver = r }
}

// WithSubtypeChecker widens QualifiedType constraints to subtypes.
func WithSubtypeChecker(s SubtypeChecker) CoordinatorOption {
	return func(c *Coordinator) { c.subtypes = s }
}

// Analyze runs the read-only matching phase over src. It never mutates the
// source and is safe to call repeatedly; each call returns a fresh token.
func (c *Coordinator) Analyze(src *Source) (*Pending, error) {
	p := &Pending{source: src}
	if src == nil || c.registry.Len() == 0 {
		return p, nil
	}
	p.matches = findMatches(src, c.registry.Descriptors(), c.visitor, c.resolver, c.subtypes)
	return p, nil
}

// Rewrite dispatches handlers for the matches in p against rc. Matches run
// in registry dispatch order (ascending priority, registration order for
// ties) and in document order within one rule; a handler returning stop=true
// suppresses the remaining lower-priority handlers for that node only. A
// handler error aborts the pass and is returned wrapped in a
// HandlerInvocationError. The token is consumed either way.
func (c *Coordinator) Rewrite(p *Pending, rc *RewriteContext) error {
	if p == nil {
		return ErrNilPending
	}
	if p.consumed {
		return ErrPendingConsumed
	}
	p.consumed = true

	stopped := map[NodeID]bool{}
	for _, m := range dispatchOrder(p.matches) {
		if stopped[IDOf(m.Node)] {
			continue
		}
		stop, err := m.desc.handler(&Context{Match: m, Rewrite: rc})
		if err != nil {
			return &HandlerInvocationError{
				Rule:   m.desc.rule.Name,
				Offset: m.Node.StartByte(),
				Err:    err,
			}
		}
		if stop {
			stopped[IDOf(m.Node)] = true
		}
	}
	return nil
}

// dispatchOrder re-sorts matches from discovery (document) order into
// priority-major order: descriptor dispatch index first, document position
// within one descriptor. The stable sort keeps findMatches's traversal order
// for equal indexes.
func dispatchOrder(matches []*Match) []*Match {
	out := make([]*Match, len(matches))
	copy(out, matches)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].desc.index < out[j].desc.index
	})
	return out
}

package graft

import (
	"fmt"
)

// Engine is the front door: it owns a registry and a coordinator for one
// language and exposes the two-phase protocol plus query composition.
type Engine struct {
	registry *Registry
	visitor  Visitor
	resolver TypeResolver
	subtypes SubtypeChecker

	coordinator *Coordinator
}

// Option configures an Engine.
type Option func(*Engine)

// WithEngineVisitor replaces the traversal used by analysis and queries.
func WithEngineVisitor(v Visitor) Option {
	return func(e *Engine) { e.visitor = v }
}

// WithResolver supplies semantic type resolution for QualifiedType
// constraints and qualifying-type query criteria.
func WithResolver(r TypeResolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithSubtypes widens QualifiedType constraints from exact equality to
// "equal or subtype".
func WithSubtypes(s SubtypeChecker) Option {
	return func(e *Engine) { e.subtypes = s }
}

// New creates an Engine for the given language ("go" or "java").
func New(language string, opts ...Option) (*Engine, error) {
	reg, err := NewRegistry(language)
	if err != nil {
		return nil, fmt.Errorf("graft: %w", err)
	}
	e := &Engine{registry: reg, visitor: DefaultVisitor()}
	for _, opt := range opts {
		opt(e)
	}
	e.coordinator = NewCoordinator(reg,
		WithVisitor(e.visitor),
		WithTypeResolver(e.resolver),
		WithSubtypeChecker(e.subtypes),
	)
	return e, nil
}

// Language returns the engine's language name.
func (e *Engine) Language() string { return e.registry.Language() }

// Register validates and adds a provider's rules. See Registry.Register.
func (e *Engine) Register(p RuleProvider) error {
	if err := e.registry.Register(p); err != nil {
		return fmt.Errorf("graft: register: %w", err)
	}
	return nil
}

// Rules returns the registered descriptors in dispatch order.
func (e *Engine) Rules() []*Descriptor { return e.registry.Descriptors() }

// Parse parses src as the engine's language.
func (e *Engine) Parse(src []byte) (*Source, error) {
	return Parse(e.Language(), src)
}

// Analyze runs the read-only matching phase. See Coordinator.Analyze.
func (e *Engine) Analyze(src *Source) (*Pending, error) {
	if src != nil && src.Language() != e.Language() {
		return nil, fmt.Errorf("graft: analyze: source is %s, engine is %s", src.Language(), e.Language())
	}
	return e.coordinator.Analyze(src)
}

// Rewrite dispatches handlers for an analysis result. See Coordinator.Rewrite.
func (e *Engine) Rewrite(p *Pending, rc *RewriteContext) error {
	return e.coordinator.Rewrite(p, rc)
}

// Run is the common one-shot: analyze src and immediately rewrite into rc.
// It returns the matches that were dispatched.
func (e *Engine) Run(src *Source, rc *RewriteContext) ([]*Match, error) {
	p, err := e.Analyze(src)
	if err != nil {
		return nil, err
	}
	matches := p.Matches()
	if err := e.Rewrite(p, rc); err != nil {
		return matches, err
	}
	return matches, nil
}

// Query starts a query composition bound to the engine's traversal and
// resolver. The target source and criteria still have to be supplied before
// execution.
func (e *Engine) Query() *Query {
	q := NewQuery().WithQueryVisitor(e.visitor)
	if e.resolver != nil {
		q.WithQueryResolver(e.resolver)
	}
	return q
}

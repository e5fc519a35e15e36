package graft

import (
	"fmt"
	"sort"

	"github.com/jward/graft/internal/lang"
)

// Descriptor is one registered rule with its compiled pattern. Descriptors
// are ordered by ascending priority; rules with equal priority keep their
// registration order.
type Descriptor struct {
	rule    Rule
	handler HandlerFunc
	tmpl    *lang.Template
	kindSet map[string]bool
	index   int // position in dispatch order, assigned after sorting
}

// Rule returns the registered rule.
func (d *Descriptor) Rule() Rule { return d.rule }

// Vars returns the capture variables the rule's template declares.
func (d *Descriptor) Vars() []lang.Var { return d.tmpl.Vars }

// Registry validates and holds rule descriptors for one language. Templates
// compile eagerly at registration, so a malformed pattern surfaces before any
// source is traversed.
type Registry struct {
	language  *lang.Language
	entries   []*Descriptor
	providers map[RuleProvider]bool
}

// NewRegistry creates a registry for the given language name.
func NewRegistry(language string) (*Registry, error) {
	l, ok := lang.ForName(language)
	if !ok {
		return nil, fmt.Errorf("registry: unsupported language %q (supported: %v)", language, lang.Names())
	}
	return &Registry{language: l, providers: map[RuleProvider]bool{}}, nil
}

// Register validates and adds all of the provider's rules. Registration is
// atomic: the first malformed pattern or handler aborts the whole provider
// and nothing from it is added. Registering the same provider again is a
// no-op.
func (r *Registry) Register(p RuleProvider) error {
	if r.providers[p] {
		return nil
	}
	rules := p.Rules()
	pending := make([]*Descriptor, 0, len(rules))
	for i, rule := range rules {
		d, err := r.compile(rule, i)
		if err != nil {
			return err
		}
		pending = append(pending, d)
	}
	r.entries = append(r.entries, pending...)
	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].rule.Priority < r.entries[j].rule.Priority
	})
	for i, d := range r.entries {
		d.index = i
	}
	r.providers[p] = true
	return nil
}

func (r *Registry) compile(rule Rule, i int) (*Descriptor, error) {
	name := rule.Name
	if name == "" {
		name = fmt.Sprintf("#%d", i)
	}
	handler := Handler(rule.Handler)
	if handler == nil {
		return nil, &InvalidHandlerSignatureError{
			Rule:   name,
			Reason: fmt.Sprintf("got %s, want func(*Context) with optional bool and/or error results", describeHandler(rule.Handler)),
		}
	}
	tmpl, err := lang.CompileTemplate(r.language, rule.Pattern, rule.Kind)
	if err != nil {
		return nil, &PatternSyntaxError{Rule: name, Template: rule.Pattern, Err: err}
	}
	return &Descriptor{
		rule:    rule,
		handler: handler,
		tmpl:    tmpl,
		kindSet: r.language.KindSet(rule.Kind),
	}, nil
}

// Descriptors returns the registered descriptors in dispatch order.
func (r *Registry) Descriptors() []*Descriptor { return r.entries }

// Len returns the number of registered rules.
func (r *Registry) Len() int { return len(r.entries) }

// Language returns the registry's language name.
func (r *Registry) Language() string { return r.language.Name }

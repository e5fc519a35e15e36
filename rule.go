package graft

import (
	"fmt"

	"github.com/jward/graft/internal/lang"
)

// Kind identifies the structural category a rule's pattern targets.
type Kind = lang.Kind

const (
	KindExpression  = lang.KindExpression
	KindStatement   = lang.KindStatement
	KindDeclaration = lang.KindDeclaration
	KindImport      = lang.KindImport
	KindMethodCall  = lang.KindMethodCall
	KindField       = lang.KindField
	KindAnnotation  = lang.KindAnnotation
	KindMethodDecl  = lang.KindMethodDecl
	KindConstructor = lang.KindConstructor
)

// HandlerFunc is the normalized handler shape. It returns stop=true to
// suppress the remaining handlers for the same matched node, and a non-nil
// error to abort the whole rewrite pass.
type HandlerFunc func(*Context) (bool, error)

// Rule pairs a pattern template with the handler to run on its matches.
type Rule struct {
	// Name identifies the rule in errors and reports.
	Name string

	// Pattern is the template source. Capture variables are written $name;
	// $name$ captures a variadic run of sibling nodes.
	Pattern string

	// Kind restricts which node categories are considered during traversal.
	Kind Kind

	// QualifiedType, when set, requires the matched construct to resolve to
	// this fully qualified type (or a subtype, when a SubtypeChecker is
	// configured).
	QualifiedType string

	// Priority orders handlers on the same node; lower runs first. Rules
	// with equal priority run in registration order.
	Priority int

	// Handler runs during the rewrite phase for each match of Pattern. Any
	// of the shapes accepted by Handler may be assigned directly; the shape
	// is validated at registration.
	Handler any
}

// RuleProvider supplies a flattened list of rules. Registration is atomic per
// provider: if any rule fails validation, none of the provider's rules are
// registered.
type RuleProvider interface {
	Rules() []Rule
}

type ruleList struct{ rules []Rule }

func (p *ruleList) Rules() []Rule { return p.rules }

// Provider wraps a fixed rule list in a RuleProvider.
func Provider(rules ...Rule) RuleProvider {
	return &ruleList{rules: rules}
}

// Handler coerces a dynamically held callable into a HandlerFunc. Accepted
// shapes:
//
//	func(*Context)
//	func(*Context) bool
//	func(*Context) error
//	func(*Context) (bool, error)
//
// Any other shape returns nil, which registration rejects with
// InvalidHandlerSignatureError.
func Handler(fn any) HandlerFunc {
	switch f := fn.(type) {
	case HandlerFunc:
		return f
	case func(*Context) (bool, error):
		return f
	case func(*Context):
		return func(c *Context) (bool, error) {
			f(c)
			return false, nil
		}
	case func(*Context) bool:
		return func(c *Context) (bool, error) {
			return f(c), nil
		}
	case func(*Context) error:
		return func(c *Context) (bool, error) {
			return false, f(c)
		}
	}
	return nil
}

// describeHandler names a callable's shape for error messages.
func describeHandler(fn any) string {
	if fn == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", fn)
}

// Package graft is a declarative pattern-match and rewrite engine over
// tree-sitter syntax trees for Go and Java sources. Rules pair a source-level
// pattern template with a handler; the engine finds every occurrence of the
// template and dispatches the handlers against a caller-supplied rewrite
// context.
//
// # Patterns
//
// A pattern is ordinary source text with capture variables. $name captures a
// single node; $name$ captures a run of sibling nodes (call arguments, block
// statements). A pattern only matches when every capture variable binds, and
// a variable used twice must bind identical text both times:
//
//	$x.equals($x)            // expression, both sides the same
//	if ($cond) { $body$ }    // statement with a variadic body
//
// Each rule names a [Kind] (expression, statement, call, import, ...) that
// restricts which nodes are even considered, and may name a QualifiedType
// that the matched construct must resolve to.
//
// # Two phases
//
// Matching and mutation never interleave:
//
//  1. Analyze: a read-only traversal collects matches into a [Pending]
//     token. The source is never touched.
//
//  2. Rewrite: the token and a [RewriteContext] are handed back; handlers
//     run in ascending priority order across all matches, recording edits
//     through the context's mutators. A handler returning true stops the
//     remaining handlers for that node only. The token is consumed either
//     way, so a pass cannot run twice off one analysis.
//
//	e, err := graft.New("java")
//	if err != nil { ... }
//	err = e.Register(graft.Provider(graft.Rule{
//		Name:     "self-equals",
//		Pattern:  "$x.equals($x)",
//		Kind:     graft.KindExpression,
//		Priority: 10,
//		Handler: func(c *graft.Context) {
//			c.ReplaceMatch("true")
//		},
//	}))
//
//	src, _ := e.Parse(code)
//	pending, _ := e.Analyze(src)
//	edits := &graft.EditLog{}
//	err = e.Rewrite(pending, &graft.RewriteContext{Edits: edits})
//	out, _ := edits.Apply(src.Bytes)
//
// # Queries
//
// Independent of rules, [Engine.Query] composes one-off selections: method
// calls of a given name and qualifying type, the static imports that back
// them, annotated fields, import directives. Queries refuse to run until a
// target and at least one criterion are configured, and queries sharing a
// [NodeSet] skip each other's results.
//
// # Rule scripts
//
// The script package loads rules from Risor scripts, so rewrite rules can
// ship as data. The cmd/graft CLI runs rule sets over whole directories and
// records findings to SQLite. Neither is required to use the library.
package graft

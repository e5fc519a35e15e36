package graft

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeIsReadOnly(t *testing.T) {
	e, err := New("go")
	require.NoError(t, err)
	require.NoError(t, e.Register(Provider(Rule{
		Name: "eq", Pattern: "$x == $x", Kind: KindExpression, Handler: noop,
	})))

	code := "package p\n\nfunc f(a int) bool { return a == a }\n"
	src := parseTest(t, "go", code)

	p1, err := e.Analyze(src)
	require.NoError(t, err)
	p2, err := e.Analyze(src)
	require.NoError(t, err)

	// Same matches both times, and the source is untouched.
	assert.Len(t, p1.Matches(), 1)
	assert.Len(t, p2.Matches(), 1)
	assert.Equal(t, code, string(src.Bytes))
}

func TestAnalyzeEmptyRegistry(t *testing.T) {
	e, err := New("go")
	require.NoError(t, err)

	p, err := e.Analyze(parseTest(t, "go", "package p\n"))
	require.NoError(t, err)
	assert.True(t, p.Empty())

	// Rewriting an empty result is a harmless no-op.
	require.NoError(t, e.Rewrite(p, &RewriteContext{Edits: &EditLog{}}))
}

func TestPendingConsumedOnce(t *testing.T) {
	e, err := New("go")
	require.NoError(t, err)
	require.NoError(t, e.Register(Provider(Rule{
		Name: "eq", Pattern: "$x == $x", Kind: KindExpression, Handler: noop,
	})))

	p, err := e.Analyze(parseTest(t, "go", "package p\n\nvar b = 1 == 1\n"))
	require.NoError(t, err)

	rc := &RewriteContext{Edits: &EditLog{}}
	require.NoError(t, e.Rewrite(p, rc))

	err = e.Rewrite(p, rc)
	assert.ErrorIs(t, err, ErrPendingConsumed)

	err = e.Rewrite(nil, rc)
	assert.ErrorIs(t, err, ErrNilPending)
}

func TestStopSignalScopedPerNode(t *testing.T) {
	e, err := New("go")
	require.NoError(t, err)

	var ran []string
	record := func(rule string, stop bool) HandlerFunc {
		return func(c *Context) (bool, error) {
			ran = append(ran, rule+":"+c.Match.Text())
			return stop, nil
		}
	}
	// H1 stops, so H2 never runs on the same node. H3 matches a different
	// pattern and still runs on its own nodes.
	require.NoError(t, e.Register(Provider(
		Rule{Name: "H1", Pattern: "mark($x)", Kind: KindMethodCall, Priority: 1, Handler: record("H1", true)},
		Rule{Name: "H2", Pattern: "mark($x)", Kind: KindMethodCall, Priority: 2, Handler: record("H2", false)},
		Rule{Name: "H3", Pattern: "other()", Kind: KindMethodCall, Priority: 3, Handler: record("H3", false)},
	)))

	src := parseTest(t, "go",
		"package p\n\nfunc f() {\n\tmark(1)\n\tother()\n\tmark(2)\n}\n")
	p, err := e.Analyze(src)
	require.NoError(t, err)
	require.NoError(t, e.Rewrite(p, &RewriteContext{Edits: &EditLog{}}))

	// H2 is suppressed on every mark() node, but the stop on mark(1) does
	// not leak to mark(2) or to other(). Dispatch is priority-major, so H1
	// covers both mark() nodes before H3 runs.
	assert.Equal(t, []string{"H1:mark(1)", "H1:mark(2)", "H3:other()"}, ran)
}

func TestHandlersRunInPriorityOrderPerNode(t *testing.T) {
	e, err := New("go")
	require.NoError(t, err)

	var ran []string
	record := func(rule string) HandlerFunc {
		return func(c *Context) (bool, error) {
			ran = append(ran, rule)
			return false, nil
		}
	}
	require.NoError(t, e.Register(Provider(
		Rule{Name: "late", Pattern: "mark($x)", Kind: KindMethodCall, Priority: 9, Handler: record("late")},
		Rule{Name: "early", Pattern: "mark($x)", Kind: KindMethodCall, Priority: 1, Handler: record("early")},
	)))

	p, err := e.Analyze(parseTest(t, "go", "package p\n\nfunc f() { mark(1) }\n"))
	require.NoError(t, err)
	require.NoError(t, e.Rewrite(p, &RewriteContext{Edits: &EditLog{}}))
	assert.Equal(t, []string{"early", "late"}, ran)
}

func TestDispatchPriorityOrderAcrossNodes(t *testing.T) {
	e, err := New("go")
	require.NoError(t, err)

	var ran []string
	record := func(rule string) HandlerFunc {
		return func(c *Context) (bool, error) {
			ran = append(ran, rule+":"+c.Match.Text())
			return false, nil
		}
	}
	// "late" matches the node that appears first in the document; priority
	// still decides the dispatch order, document position only breaks ties
	// within one rule.
	require.NoError(t, e.Register(Provider(
		Rule{Name: "late", Pattern: "first($x)", Kind: KindMethodCall, Priority: 9, Handler: record("late")},
		Rule{Name: "early", Pattern: "second($x)", Kind: KindMethodCall, Priority: 1, Handler: record("early")},
	)))

	p, err := e.Analyze(parseTest(t, "go",
		"package p\n\nfunc f() {\n\tfirst(1)\n\tsecond(2)\n\tsecond(3)\n}\n"))
	require.NoError(t, err)
	require.NoError(t, e.Rewrite(p, &RewriteContext{Edits: &EditLog{}}))

	assert.Equal(t, []string{"early:second(2)", "early:second(3)", "late:first(1)"}, ran)
}

func TestHandlerSeesOnlyOwnMatches(t *testing.T) {
	e, err := New("go")
	require.NoError(t, err)

	seen := map[string][]string{}
	record := func(rule string) HandlerFunc {
		return func(c *Context) (bool, error) {
			require.Equal(t, rule, c.Rule().Name)
			seen[rule] = append(seen[rule], c.Match.Text())
			return false, nil
		}
	}
	require.NoError(t, e.Register(Provider(
		Rule{Name: "foo", Pattern: "foo()", Kind: KindMethodCall, Handler: record("foo")},
		Rule{Name: "bar", Pattern: "bar()", Kind: KindMethodCall, Handler: record("bar")},
	)))

	p, err := e.Analyze(parseTest(t, "go", "package p\n\nfunc f() {\n\tfoo()\n\tbar()\n\tfoo()\n}\n"))
	require.NoError(t, err)
	require.NoError(t, e.Rewrite(p, &RewriteContext{Edits: &EditLog{}}))

	assert.Equal(t, []string{"foo()", "foo()"}, seen["foo"])
	assert.Equal(t, []string{"bar()"}, seen["bar"])
}

func TestHandlerErrorAbortsPass(t *testing.T) {
	e, err := New("go")
	require.NoError(t, err)

	boom := errors.New("boom")
	var afterRan bool
	require.NoError(t, e.Register(Provider(
		Rule{Name: "fails", Pattern: "mark($x)", Kind: KindMethodCall, Priority: 1,
			Handler: func(c *Context) error { return boom }},
		Rule{Name: "after", Pattern: "other()", Kind: KindMethodCall, Priority: 2,
			Handler: func(c *Context) { afterRan = true }},
	)))

	p, err := e.Analyze(parseTest(t, "go", "package p\n\nfunc f() {\n\tmark(1)\n\tother()\n}\n"))
	require.NoError(t, err)

	err = e.Rewrite(p, &RewriteContext{Edits: &EditLog{}})
	require.Error(t, err)

	var invErr *HandlerInvocationError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "fails", invErr.Rule)
	assert.ErrorIs(t, err, boom)
	assert.False(t, afterRan)

	// The token is consumed even though the pass failed.
	err = e.Rewrite(p, &RewriteContext{Edits: &EditLog{}})
	assert.ErrorIs(t, err, ErrPendingConsumed)
}

func TestAnalyzeLanguageMismatch(t *testing.T) {
	e, err := New("go")
	require.NoError(t, err)

	src := parseTest(t, "java", "class A {}")
	_, err = e.Analyze(src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "java")
}

package script

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/graft"
)

const selfCompareScript = `// name: self-compare
// pattern: $x == $x
// kind: expression
// priority: 5
replace_match("true")
`

func TestCompileHeader(t *testing.T) {
	rule, err := Compile("rules/self_compare.risor", selfCompareScript)
	require.NoError(t, err)
	assert.Equal(t, "self-compare", rule.Name)
	assert.Equal(t, "$x == $x", rule.Pattern)
	assert.Equal(t, graft.KindExpression, rule.Kind)
	assert.Equal(t, 5, rule.Priority)
	assert.NotNil(t, rule.Handler)
}

func TestCompileNameDefaultsToFile(t *testing.T) {
	rule, err := Compile("rules/drop_vector.risor", "// pattern: new Vector()\n// kind: constructor\nstop()\n")
	require.NoError(t, err)
	assert.Equal(t, "drop_vector", rule.Name)
	assert.Equal(t, graft.KindConstructor, rule.Kind)
	assert.Equal(t, 0, rule.Priority)
}

func TestCompileHashComments(t *testing.T) {
	rule, err := Compile("r.risor", "# pattern: $x\n# kind: expression\n# type: java.lang.String\nstop()\n")
	require.NoError(t, err)
	assert.Equal(t, "java.lang.String", rule.QualifiedType)
}

func TestCompileHeaderErrors(t *testing.T) {
	_, err := Compile("r.risor", "// kind: expression\nstop()\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pattern")

	_, err = Compile("r.risor", "// pattern: $x\nstop()\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kind")

	_, err = Compile("r.risor", "// pattern: $x\n// kind: banana\nstop()\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "banana")

	_, err = Compile("r.risor", "// pattern: $x\n// kind: expression\n// priority: soon\nstop()\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "priority")

	// Directives below the body are ignored, so the pattern is missing.
	_, err = Compile("r.risor", "stop()\n// pattern: $x\n// kind: expression\n")
	require.Error(t, err)
}

func TestLoadRulesSortedByPath(t *testing.T) {
	fsys := fstest.MapFS{
		"b_second.risor": {Data: []byte("// pattern: b()\n// kind: call\nstop()\n")},
		"a_first.risor":  {Data: []byte("// pattern: a()\n// kind: call\nstop()\n")},
		"notes.txt":      {Data: []byte("not a rule")},
	}
	rules, err := LoadRules(fsys)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "a_first", rules[0].Name)
	assert.Equal(t, "b_second", rules[1].Name)
}

func TestLoadRulesPropagatesHeaderError(t *testing.T) {
	fsys := fstest.MapFS{
		"broken.risor": {Data: []byte("// kind: call\nstop()\n")},
	}
	_, err := LoadRules(fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.risor")
}

func TestScriptHandlerRewrites(t *testing.T) {
	rules, err := LoadRules(fstest.MapFS{
		"self_compare.risor": {Data: []byte(selfCompareScript)},
	})
	require.NoError(t, err)

	e, err := graft.New("go")
	require.NoError(t, err)
	require.NoError(t, e.Register(graft.Provider(rules...)))

	src, err := e.Parse([]byte("package p\n\nvar ok = n == n\n"))
	require.NoError(t, err)
	defer src.Close()

	edits := &graft.EditLog{}
	matches, err := e.Run(src, &graft.RewriteContext{Edits: edits})
	require.NoError(t, err)
	require.Len(t, matches, 1)

	out, err := edits.Apply(src.Bytes)
	require.NoError(t, err)
	assert.Contains(t, string(out), "var ok = true\n")
}

func TestScriptHandlerStopAndBindings(t *testing.T) {
	script := `// pattern: mark($x)
// kind: call
if bindings["x"] == "1" {
	replace("x", "one")
	stop()
}
`
	rule, err := Compile("mark.risor", script)
	require.NoError(t, err)

	e, err := graft.New("go")
	require.NoError(t, err)

	var laterRan []string
	require.NoError(t, e.Register(graft.Provider(
		rule,
		graft.Rule{
			Name:     "later",
			Pattern:  "mark($x)",
			Kind:     graft.KindMethodCall,
			Priority: 10,
			Handler: func(c *graft.Context) {
				laterRan = append(laterRan, c.BindingText("x"))
			},
		},
	)))

	src, err := e.Parse([]byte("package p\n\nfunc f() {\n\tmark(1)\n\tmark(2)\n}\n"))
	require.NoError(t, err)
	defer src.Close()

	edits := &graft.EditLog{}
	_, err = e.Run(src, &graft.RewriteContext{Edits: edits})
	require.NoError(t, err)

	// The script stopped on mark(1), so "later" only saw mark(2).
	assert.Equal(t, []string{"2"}, laterRan)

	out, err := edits.Apply(src.Bytes)
	require.NoError(t, err)
	assert.Contains(t, string(out), "mark(one)")
}

func TestScriptErrorWrapsPath(t *testing.T) {
	rule, err := Compile("bad.risor", "// pattern: mark($x)\n// kind: call\nundefined_builtin()\n")
	require.NoError(t, err)

	e, err := graft.New("go")
	require.NoError(t, err)
	require.NoError(t, e.Register(graft.Provider(rule)))

	src, err := e.Parse([]byte("package p\n\nfunc f() { mark(1) }\n"))
	require.NoError(t, err)
	defer src.Close()

	err = e.Rewrite(mustAnalyze(t, e, src), &graft.RewriteContext{Edits: &graft.EditLog{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.risor")
}

func mustAnalyze(t *testing.T, e *graft.Engine, src *graft.Source) *graft.Pending {
	t.Helper()
	p, err := e.Analyze(src)
	require.NoError(t, err)
	return p
}

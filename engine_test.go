package graft

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEngineUnsupportedLanguage(t *testing.T) {
	_, err := New("fortran")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fortran")
}

func TestEngineEndToEndGo(t *testing.T) {
	e, err := New("go")
	require.NoError(t, err)
	require.NoError(t, e.Register(Provider(
		Rule{
			Name:    "self-compare",
			Pattern: "$x == $x",
			Kind:    KindExpression,
			Handler: func(c *Context) { c.ReplaceMatch("true") },
		},
		Rule{
			Name:    "sprintf-passthrough",
			Pattern: "fmt.Sprintf($s)",
			Kind:    KindMethodCall,
			Handler: func(c *Context) {
				c.ReplaceMatch(c.BindingText("s"))
				c.RemoveImport("fmt")
			},
		},
	)))

	src, err := e.Parse([]byte(`package p

import "fmt"

func f(a int) (bool, string) {
	return a == a, fmt.Sprintf(s)
}
`))
	require.NoError(t, err)
	defer src.Close()

	edits := &EditLog{}
	imports := &ImportLog{}
	matches, err := e.Run(src, &RewriteContext{Edits: edits, Imports: imports})
	require.NoError(t, err)
	require.Len(t, matches, 2)

	out, err := edits.Apply(src.Bytes)
	require.NoError(t, err)
	assert.Contains(t, string(out), "return true, s\n")
	assert.Equal(t, []string{"fmt"}, imports.Removes())
}

func TestEngineEndToEndJava(t *testing.T) {
	e, err := New("java")
	require.NoError(t, err)
	require.NoError(t, e.Register(Provider(Rule{
		Name:    "objects-equals",
		Pattern: "$a.equals($b)",
		Kind:    KindMethodCall,
		Handler: func(c *Context) (bool, error) {
			c.ReplaceMatch("Objects.equals(" + c.BindingText("a") + ", " + c.BindingText("b") + ")")
			c.AddImport("java.util.Objects")
			return true, nil
		},
	})))

	src, err := e.Parse([]byte("class A { boolean f() { return x.equals(y); } }"))
	require.NoError(t, err)
	defer src.Close()

	edits := &EditLog{}
	imports := &ImportLog{}
	_, err = e.Run(src, &RewriteContext{Edits: edits, Imports: imports})
	require.NoError(t, err)

	out, err := edits.Apply(src.Bytes)
	require.NoError(t, err)
	assert.Contains(t, string(out), "return Objects.equals(x, y);")
	assert.Equal(t, []string{"java.util.Objects"}, imports.Adds())
}

func TestEngineQueryUsesConfiguredVisitor(t *testing.T) {
	v := &countingVisitor{}
	e, err := New("java", WithEngineVisitor(v))
	require.NoError(t, err)

	src := parseTest(t, "java", "class A { void f() { Objects.equals(a, b); } }")
	nodes, err := e.Query().ForMethodCalls("java.util.Objects", "equals").In(src).Collect()
	require.NoError(t, err)
	assert.Len(t, nodes, 1)
	assert.Equal(t, 1, v.calls)
}

func TestParseFileInfersLanguage(t *testing.T) {
	path := writeTempFile(t, "x.java", "class A {}")
	src, err := ParseFile(path)
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, "java", src.Language())

	_, err = ParseFile(path + ".txt")
	require.Error(t, err)
}

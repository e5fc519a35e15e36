package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileOK(t *testing.T, language, template string, k Kind) *Template {
	t.Helper()
	l, ok := ForName(language)
	require.True(t, ok)
	tmpl, err := CompileTemplate(l, template, k)
	require.NoError(t, err)
	require.NotNil(t, tmpl.Root)
	return tmpl
}

func TestCompileGoExpression(t *testing.T) {
	tmpl := compileOK(t, "go", "$x == $x", KindExpression)
	assert.Equal(t, "binary_expression", tmpl.Root.Type())
	require.Len(t, tmpl.Vars, 1)
	assert.Equal(t, Var{Name: "x"}, tmpl.Vars[0])
}

func TestCompileGoCallWithVariadic(t *testing.T) {
	tmpl := compileOK(t, "go", "fmt.Sprintf($args$)", KindMethodCall)
	assert.Equal(t, "call_expression", tmpl.Root.Type())
	require.Len(t, tmpl.Vars, 1)
	assert.Equal(t, Var{Name: "args", Variadic: true}, tmpl.Vars[0])
}

func TestCompileGoStatement(t *testing.T) {
	tmpl := compileOK(t, "go", "return $v", KindStatement)
	assert.Equal(t, "return_statement", tmpl.Root.Type())
}

func TestCompileGoImport(t *testing.T) {
	tmpl := compileOK(t, "go", `"fmt"`, KindImport)
	assert.Equal(t, "import_spec", tmpl.Root.Type())
	assert.Empty(t, tmpl.Vars)
}

func TestCompileJavaExpression(t *testing.T) {
	tmpl := compileOK(t, "java", "$x.equals($x)", KindExpression)
	assert.Equal(t, "method_invocation", tmpl.Root.Type())
	require.Len(t, tmpl.Vars, 1)
}

func TestCompileJavaStatementWithVariadicBody(t *testing.T) {
	tmpl := compileOK(t, "java", "if ($cond) { $body$ }", KindStatement)
	assert.Equal(t, "if_statement", tmpl.Root.Type())
	require.Len(t, tmpl.Vars, 2)
	assert.Equal(t, Var{Name: "cond"}, tmpl.Vars[0])
	assert.Equal(t, Var{Name: "body", Variadic: true}, tmpl.Vars[1])
}

func TestCompileJavaImport(t *testing.T) {
	tmpl := compileOK(t, "java", "import java.util.List", KindImport)
	assert.Equal(t, "import_declaration", tmpl.Root.Type())
}

func TestCompileRepeatedVarDeclaredOnce(t *testing.T) {
	tmpl := compileOK(t, "java", "$a.compareTo($a) == $b", KindExpression)
	require.Len(t, tmpl.Vars, 2)
	assert.Equal(t, "a", tmpl.Vars[0].Name)
	assert.Equal(t, "b", tmpl.Vars[1].Name)
}

func TestCompileErrors(t *testing.T) {
	goLang, _ := ForName("go")
	javaLang, _ := ForName("java")

	_, err := CompileTemplate(goLang, "", KindExpression)
	assert.Error(t, err)

	_, err = CompileTemplate(goLang, "   ", KindExpression)
	assert.Error(t, err)

	// Unbalanced template never parses.
	_, err = CompileTemplate(goLang, "f($x", KindExpression)
	assert.Error(t, err)

	_, err = CompileTemplate(javaLang, "foo(((", KindExpression)
	assert.Error(t, err)

	// Kind not expressible in the language.
	_, err = CompileTemplate(goLang, "@$name", KindAnnotation)
	assert.Error(t, err)
}

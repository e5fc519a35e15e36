package lang

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Capture-variable markers. Template placeholders ($name, $name$) are
// rewritten to identifiers the grammar can parse before the template itself
// is parsed; the matcher recognizes them by prefix.
const (
	markerPrefix         = "__g_"
	variadicMarkerPrefix = "__gv_"
)

var placeholderRe = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)(\$?)`)

// Var is one capture variable declared by a template.
type Var struct {
	Name     string
	Variadic bool
}

// Template is a compiled pattern template: the processed source, the parsed
// pattern root, and the capture variables the template declares.
type Template struct {
	Source []byte
	Root   *sitter.Node
	Vars   []Var

	// tree keeps the underlying tree-sitter tree alive for as long as Root
	// is referenced.
	tree *sitter.Tree
}

// MarkerVar reports whether s is a capture-variable marker, returning the
// variable name and whether it is variadic.
func MarkerVar(s string) (name string, variadic, ok bool) {
	if rest, found := strings.CutPrefix(s, variadicMarkerPrefix); found && rest != "" {
		return rest, true, true
	}
	if rest, found := strings.CutPrefix(s, markerPrefix); found && rest != "" {
		return rest, false, true
	}
	return "", false, false
}

// CompileTemplate rewrites placeholders, wraps the template into a parseable
// context for the language and kind, parses it, and locates the pattern root.
// The returned error describes the defect; callers wrap it into their own
// error type.
func CompileTemplate(l *Language, template string, k Kind) (*Template, error) {
	if strings.TrimSpace(template) == "" {
		return nil, fmt.Errorf("empty template")
	}
	if l.KindSet(k) == nil {
		return nil, fmt.Errorf("kind %s is not expressible in %s", k, l.Name)
	}

	var vars []Var
	seen := map[string]bool{}
	processed := placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		sub := placeholderRe.FindStringSubmatch(m)
		name, variadic := sub[1], sub[2] == "$"
		if !seen[name] {
			seen[name] = true
			vars = append(vars, Var{Name: name, Variadic: variadic})
		}
		if variadic {
			return variadicMarkerPrefix + name
		}
		return markerPrefix + name
	})

	prefix, suffix, err := wrap(l, k, processed)
	if err != nil {
		return nil, err
	}
	source := []byte(prefix + processed + suffix)

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(l.Grammar)
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	start := uint32(len(prefix) + leadingWS(processed))
	end := uint32(len(prefix) + len(processed) - trailingWS(processed))
	root := locateRoot(tree.RootNode(), start, end, l.KindSet(k))
	if root == nil {
		return nil, fmt.Errorf("no %s node covers the template", k)
	}
	// Placeholders in statement position recover via zero-width MISSING
	// tokens, which is fine; hard ERROR nodes mean the template is
	// malformed.
	if errNode := findErrorNode(root); errNode != nil {
		return nil, fmt.Errorf("template does not parse as a %s near byte %d", k, errNode.StartByte())
	}

	return &Template{Source: source, Root: root, Vars: vars, tree: tree}, nil
}

func findErrorNode(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if e := findErrorNode(n.Child(i)); e != nil {
			return e
		}
	}
	return nil
}

func leadingWS(s string) int  { return len(s) - len(strings.TrimLeft(s, " \t\n")) }
func trailingWS(s string) int { return len(s) - len(strings.TrimRight(s, " \t\n;")) }

// locateRoot finds the pattern root inside the wrapped parse tree: among the
// nodes spanning exactly [start, end), prefer the outermost one whose type is
// in the kind set, falling back to the outermost exact-span node, then to the
// smallest named node covering the span.
func locateRoot(root *sitter.Node, start, end uint32, kindSet map[string]bool) *sitter.Node {
	node := root
	var covering *sitter.Node
	var exact []*sitter.Node
	for {
		if node.StartByte() == start && node.EndByte() == end {
			exact = append(exact, node)
		}
		covering = node
		var next *sitter.Node
		for i := 0; i < int(node.NamedChildCount()); i++ {
			c := node.NamedChild(i)
			if c.StartByte() <= start && end <= c.EndByte() {
				next = c
				break
			}
		}
		if next == nil {
			break
		}
		node = next
	}
	for _, n := range exact {
		if kindSet[n.Type()] {
			return n
		}
	}
	if len(exact) > 0 {
		return exact[0]
	}
	return covering
}

// wrap returns the source to place around a processed template so that it
// parses as a complete compilation unit for the language.
func wrap(l *Language, k Kind, processed string) (prefix, suffix string, err error) {
	switch l.Name {
	case "go":
		switch k {
		case KindExpression, KindMethodCall, KindConstructor:
			return "package p\nfunc _() { _ = ", " }", nil
		case KindStatement:
			return "package p\nfunc _() { ", " }", nil
		case KindImport:
			return "package p\nimport ", "", nil
		case KindField:
			return "package p\ntype _ struct { ", " }", nil
		case KindDeclaration, KindMethodDecl:
			suffix = ""
			if !strings.Contains(processed, "{") && needsBody(processed) {
				suffix = " {}"
			}
			return "package p\n", suffix, nil
		}
	case "java":
		switch k {
		case KindExpression, KindMethodCall, KindConstructor:
			return "class W { void w() { Object o = ", "; } }", nil
		case KindStatement:
			return "class W { void w() { ", " } }", nil
		case KindImport:
			suffix = ""
			if !strings.HasSuffix(strings.TrimSpace(processed), ";") {
				suffix = ";"
			}
			return "", suffix, nil
		case KindField:
			suffix = " }"
			if !strings.HasSuffix(strings.TrimSpace(processed), ";") {
				suffix = "; }"
			}
			return "class W { ", suffix, nil
		case KindAnnotation:
			return "class W { ", " void w() {} }", nil
		case KindMethodDecl:
			suffix = " }"
			if !strings.Contains(processed, "{") {
				suffix = " {} }"
			}
			return "class W { ", suffix, nil
		case KindDeclaration:
			return "", "", nil
		}
	}
	return "", "", fmt.Errorf("kind %s is not expressible in %s", k, l.Name)
}

// needsBody reports whether a Go declaration template looks like a func and
// therefore needs a synthetic body to parse.
func needsBody(processed string) bool {
	t := strings.TrimSpace(processed)
	return strings.HasPrefix(t, "func ") || strings.HasPrefix(t, "func(")
}

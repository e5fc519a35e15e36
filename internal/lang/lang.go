// Package lang holds the per-language knowledge the engine needs: tree-sitter
// grammars, the node-type sets behind each pattern kind, and small structural
// helpers for imports, calls, fields, and enclosing type declarations.
package lang

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
)

// Kind identifies the structural category a pattern targets. The zero value
// is invalid; use the named constants.
type Kind int

const (
	KindExpression Kind = iota + 1
	KindStatement
	KindDeclaration
	KindImport
	KindMethodCall
	KindField
	KindAnnotation
	KindMethodDecl
	KindConstructor
)

// String returns the lowercase name used in rule-script headers and CLI output.
func (k Kind) String() string {
	switch k {
	case KindExpression:
		return "expression"
	case KindStatement:
		return "statement"
	case KindDeclaration:
		return "declaration"
	case KindImport:
		return "import"
	case KindMethodCall:
		return "call"
	case KindField:
		return "field"
	case KindAnnotation:
		return "annotation"
	case KindMethodDecl:
		return "method"
	case KindConstructor:
		return "constructor"
	}
	return "unknown"
}

// KindFromName parses the lowercase kind name. Returns (0, false) if unknown.
func KindFromName(name string) (Kind, bool) {
	for k := KindExpression; k <= KindConstructor; k++ {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}

// Language bundles a tree-sitter grammar with the node-type tables that map
// pattern kinds onto concrete grammar node types.
type Language struct {
	Name    string
	Grammar *sitter.Language

	// kinds maps each pattern kind to the set of node types it may match.
	// An absent entry means the kind is not expressible in this language.
	kinds map[Kind]map[string]bool

	// typeDecls are the node types that count as an enclosing type
	// declaration for the auto-bound "this" capture.
	typeDecls map[string]bool
}

// extToLanguage maps file extensions to canonical language names.
var extToLanguage = map[string]string{
	".go":   "go",
	".java": "java",
}

var (
	registry map[string]*Language
	initOnce sync.Once
)

func initRegistry() {
	initOnce.Do(func() {
		registry = map[string]*Language{
			"go":   goLanguage(),
			"java": javaLanguage(),
		}
	})
}

// ForName returns the Language for a canonical name. Returns (nil, false) if
// the language is not supported.
func ForName(name string) (*Language, bool) {
	initRegistry()
	l, ok := registry[name]
	return l, ok
}

// ForFile returns the canonical language name for a file path based on its
// extension. Returns ("", false) if the extension is not recognized.
func ForFile(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	name, ok := extToLanguage[ext]
	return name, ok
}

// Names returns the canonical names of all supported languages.
func Names() []string {
	initRegistry()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}

// KindSet returns the node types matchable under the given kind, or nil if
// the kind is not expressible in this language.
func (l *Language) KindSet(k Kind) map[string]bool {
	return l.kinds[k]
}

// IsTypeDecl reports whether the node type is a type declaration.
func (l *Language) IsTypeDecl(nodeType string) bool {
	return l.typeDecls[nodeType]
}

func set(types ...string) map[string]bool {
	m := make(map[string]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return m
}

func goLanguage() *Language {
	expr := set(
		"binary_expression", "unary_expression", "call_expression",
		"selector_expression", "index_expression", "slice_expression",
		"parenthesized_expression", "composite_literal", "func_literal",
		"type_assertion_expression", "identifier", "int_literal",
		"float_literal", "interpreted_string_literal", "raw_string_literal",
		"rune_literal", "true", "false", "nil",
	)
	return &Language{
		Name:    "go",
		Grammar: golang.GetLanguage(),
		kinds: map[Kind]map[string]bool{
			KindExpression: expr,
			KindStatement: set(
				"expression_statement", "if_statement", "for_statement",
				"return_statement", "assignment_statement",
				"short_var_declaration", "inc_statement", "dec_statement",
				"go_statement", "defer_statement", "send_statement",
				"break_statement", "continue_statement", "switch_statement",
				"type_switch_statement", "select_statement", "labeled_statement",
			),
			KindDeclaration: set(
				"function_declaration", "method_declaration",
				"type_declaration", "var_declaration", "const_declaration",
			),
			KindImport:     set("import_spec"),
			KindMethodCall: set("call_expression"),
			KindField:      set("field_declaration"),
			KindMethodDecl: set("function_declaration", "method_declaration"),
			// Go has no annotations and no constructor syntax; those kinds
			// are intentionally absent.
		},
		typeDecls: set("type_declaration", "type_spec"),
	}
}

func javaLanguage() *Language {
	return &Language{
		Name:    "java",
		Grammar: java.GetLanguage(),
		kinds: map[Kind]map[string]bool{
			KindExpression: set(
				"binary_expression", "unary_expression", "method_invocation",
				"field_access", "array_access", "parenthesized_expression",
				"object_creation_expression", "assignment_expression",
				"ternary_expression", "cast_expression", "lambda_expression",
				"identifier", "decimal_integer_literal",
				"decimal_floating_point_literal", "string_literal",
				"character_literal", "true", "false", "null_literal",
			),
			KindStatement: set(
				"expression_statement", "if_statement", "for_statement",
				"enhanced_for_statement", "while_statement", "do_statement",
				"return_statement", "local_variable_declaration",
				"throw_statement", "try_statement", "switch_expression",
				"synchronized_statement", "break_statement",
				"continue_statement", "labeled_statement",
			),
			KindDeclaration: set(
				"class_declaration", "interface_declaration",
				"enum_declaration", "record_declaration",
				"annotation_type_declaration", "method_declaration",
				"constructor_declaration", "field_declaration",
			),
			KindImport:      set("import_declaration"),
			KindMethodCall:  set("method_invocation"),
			KindField:       set("field_declaration"),
			KindAnnotation:  set("marker_annotation", "annotation"),
			KindMethodDecl:  set("method_declaration", "constructor_declaration"),
			KindConstructor: set("object_creation_expression"),
		},
		typeDecls: set(
			"class_declaration", "interface_declaration", "enum_declaration",
			"record_declaration", "annotation_type_declaration",
		),
	}
}

// SimpleName returns the last dot-separated segment of a qualified name.
func SimpleName(qualified string) string {
	if i := strings.LastIndexByte(qualified, '.'); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}

package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ImportInfo describes one import directive.
type ImportInfo struct {
	Path     string
	Static   bool // java static import
	Wildcard bool // on-demand import (trailing .*)
}

// Import extracts the import directive from a node of the language's import
// kind. Returns ok=false for any other node type.
func (l *Language) Import(n *sitter.Node, src []byte) (ImportInfo, bool) {
	if !l.kinds[KindImport][n.Type()] {
		return ImportInfo{}, false
	}
	switch l.Name {
	case "go":
		path := n.ChildByFieldName("path")
		if path == nil {
			return ImportInfo{}, false
		}
		return ImportInfo{Path: strings.Trim(path.Content(src), "`\"")}, true
	case "java":
		info := ImportInfo{}
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(i)
			switch c.Type() {
			case "static":
				info.Static = true
			case "asterisk":
				info.Wildcard = true
			case "identifier", "scoped_identifier":
				info.Path = c.Content(src)
			}
		}
		if info.Path == "" {
			return ImportInfo{}, false
		}
		return info, true
	}
	return ImportInfo{}, false
}

// CallInfo describes a call node: the receiver text (empty for unqualified
// calls) and the called name.
type CallInfo struct {
	Receiver string
	Name     string
}

// Call extracts receiver and name from a node of the language's call kind.
func (l *Language) Call(n *sitter.Node, src []byte) (CallInfo, bool) {
	switch l.Name {
	case "go":
		if n.Type() != "call_expression" {
			return CallInfo{}, false
		}
		fn := n.ChildByFieldName("function")
		if fn == nil {
			return CallInfo{}, false
		}
		if fn.Type() == "selector_expression" {
			operand := fn.ChildByFieldName("operand")
			field := fn.ChildByFieldName("field")
			if operand == nil || field == nil {
				return CallInfo{}, false
			}
			return CallInfo{Receiver: operand.Content(src), Name: field.Content(src)}, true
		}
		return CallInfo{Name: fn.Content(src)}, true
	case "java":
		if n.Type() != "method_invocation" {
			return CallInfo{}, false
		}
		name := n.ChildByFieldName("name")
		if name == nil {
			return CallInfo{}, false
		}
		info := CallInfo{Name: name.Content(src)}
		if obj := n.ChildByFieldName("object"); obj != nil {
			info.Receiver = obj.Content(src)
		}
		return info, true
	}
	return CallInfo{}, false
}

// AnnotationName returns the (possibly qualified) name of an annotation node.
func AnnotationName(n *sitter.Node, src []byte) (string, bool) {
	if n.Type() != "marker_annotation" && n.Type() != "annotation" {
		return "", false
	}
	name := n.ChildByFieldName("name")
	if name == nil {
		return "", false
	}
	return name.Content(src), true
}

// FieldAnnotations returns the annotation names attached to a java field
// declaration. Go fields have none.
func (l *Language) FieldAnnotations(n *sitter.Node, src []byte) []string {
	if l.Name != "java" || n.Type() != "field_declaration" {
		return nil
	}
	var names []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "modifiers" {
			continue
		}
		for j := 0; j < int(c.NamedChildCount()); j++ {
			if name, ok := AnnotationName(c.NamedChild(j), src); ok {
				names = append(names, name)
			}
		}
	}
	return names
}

// FieldType returns the declared type text of a field declaration.
func (l *Language) FieldType(n *sitter.Node, src []byte) (string, bool) {
	if n.Type() != "field_declaration" {
		return "", false
	}
	typ := n.ChildByFieldName("type")
	if typ == nil {
		return "", false
	}
	return typ.Content(src), true
}

// EnclosingType walks up from n to the nearest enclosing type declaration,
// or nil when there is none.
func (l *Language) EnclosingType(n *sitter.Node) *sitter.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if l.typeDecls[p.Type()] {
			return p
		}
	}
	return nil
}

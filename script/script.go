// Package script loads rewrite rules from Risor scripts, so rule sets can
// ship as data files instead of compiled handlers. A rule script is a .risor
// file whose leading comment lines carry the rule metadata:
//
//	// pattern: $x.equals($x)
//	// kind: expression
//	// priority: 10
//	// type: java.lang.Object
//
// The script body is the handler. It runs once per match with the bindings
// and a set of rewrite builtins in scope, and signals the stop flag by
// calling stop().
package script

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"

	"github.com/jward/graft"
	"github.com/jward/graft/internal/lang"
)

// LoadRules reads every .risor file under fsys and compiles each into a
// graft.Rule. Files are loaded in sorted path order, so priority ties
// dispatch deterministically. The rule name defaults to the file's base name
// without extension.
func LoadRules(fsys fs.FS) ([]graft.Rule, error) {
	var paths []string
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".risor") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("script: walk: %w", err)
	}
	sort.Strings(paths)

	rules := make([]graft.Rule, 0, len(paths))
	for _, path := range paths {
		src, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("script: read %s: %w", path, err)
		}
		rule, err := Compile(path, string(src))
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Compile turns one script's source into a graft.Rule. The path supplies the
// default rule name.
func Compile(path, source string) (graft.Rule, error) {
	meta, err := parseHeader(path, source)
	if err != nil {
		return graft.Rule{}, err
	}
	body := source
	return graft.Rule{
		Name:          meta.name,
		Pattern:       meta.pattern,
		Kind:          meta.kind,
		QualifiedType: meta.qualifiedType,
		Priority:      meta.priority,
		Handler:       handlerFor(path, body),
	}, nil
}

type header struct {
	name          string
	pattern       string
	kind          graft.Kind
	qualifiedType string
	priority      int
}

// parseHeader scans the leading comment lines for directives. Scanning stops
// at the first non-comment, non-blank line.
func parseHeader(path, source string) (header, error) {
	base := filepath.Base(path)
	meta := header{name: strings.TrimSuffix(base, filepath.Ext(base))}
	sawPattern, sawKind := false, false

	sc := bufio.NewScanner(strings.NewReader(source))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var comment string
		switch {
		case strings.HasPrefix(line, "//"):
			comment = strings.TrimSpace(strings.TrimPrefix(line, "//"))
		case strings.HasPrefix(line, "#"):
			comment = strings.TrimSpace(strings.TrimPrefix(line, "#"))
		default:
			// body reached, directives only live above it
			return finishHeader(path, meta, sawPattern, sawKind)
		}
		key, value, found := strings.Cut(comment, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "name":
			meta.name = value
		case "pattern":
			meta.pattern = value
			sawPattern = true
		case "kind":
			k, ok := lang.KindFromName(value)
			if !ok {
				return header{}, fmt.Errorf("script: %s: unknown kind %q", path, value)
			}
			meta.kind = k
			sawKind = true
		case "type":
			meta.qualifiedType = value
		case "priority":
			p, err := strconv.Atoi(value)
			if err != nil {
				return header{}, fmt.Errorf("script: %s: bad priority %q", path, value)
			}
			meta.priority = p
		}
	}
	return finishHeader(path, meta, sawPattern, sawKind)
}

func finishHeader(path string, meta header, sawPattern, sawKind bool) (header, error) {
	if !sawPattern {
		return header{}, fmt.Errorf("script: %s: missing pattern directive", path)
	}
	if !sawKind {
		return header{}, fmt.Errorf("script: %s: missing kind directive", path)
	}
	return meta, nil
}

// handlerFor builds the handler closure: each invocation evaluates the
// script body with the match's bindings and the rewrite builtins in scope.
func handlerFor(path, body string) graft.HandlerFunc {
	return func(c *graft.Context) (bool, error) {
		stop := false
		opts := []risor.Option{
			risor.WithGlobal("matched", c.Text(c.Node())),
			risor.WithGlobal("offset", int64(c.Offset())),
			risor.WithGlobal("bindings", bindingMap(c)),
			risor.WithGlobal("node_text", nodeTextFn(c)),
			risor.WithGlobal("replace_match", replaceMatchFn(c)),
			risor.WithGlobal("remove_match", removeMatchFn(c)),
			risor.WithGlobal("replace", replaceFn(c)),
			risor.WithGlobal("add_import", importFn("add_import", c.AddImport)),
			risor.WithGlobal("remove_import", importFn("remove_import", c.RemoveImport)),
			risor.WithGlobal("add_static_import", importFn("add_static_import", c.AddStaticImport)),
			risor.WithGlobal("remove_static_import", importFn("remove_static_import", c.RemoveStaticImport)),
			risor.WithGlobal("stop", stopFn(&stop)),
		}
		if _, err := risor.Eval(context.Background(), body, opts...); err != nil {
			return false, fmt.Errorf("script %s: %w", path, err)
		}
		return stop, nil
	}
}

func bindingMap(c *graft.Context) map[string]any {
	out := map[string]any{}
	for name := range c.Match.Bindings {
		out[name] = c.BindingText(name)
	}
	return out
}

func nodeTextFn(c *graft.Context) *object.Builtin {
	return object.NewBuiltin("node_text", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("node_text", 1, len(args))
		}
		name, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("node_text: name must be a string, got %s", args[0].Type())
		}
		return object.NewString(c.BindingText(name.Value()))
	})
}

func replaceMatchFn(c *graft.Context) *object.Builtin {
	return object.NewBuiltin("replace_match", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("replace_match", 1, len(args))
		}
		text, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("replace_match: text must be a string, got %s", args[0].Type())
		}
		c.ReplaceMatch(text.Value())
		return object.Nil
	})
}

func removeMatchFn(c *graft.Context) *object.Builtin {
	return object.NewBuiltin("remove_match", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("remove_match", 0, len(args))
		}
		c.RemoveMatch()
		return object.Nil
	})
}

func replaceFn(c *graft.Context) *object.Builtin {
	return object.NewBuiltin("replace", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("replace", 2, len(args))
		}
		name, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("replace: name must be a string, got %s", args[0].Type())
		}
		text, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("replace: text must be a string, got %s", args[1].Type())
		}
		node := c.Match.Bindings.First(name.Value())
		if node == nil {
			return object.Errorf("replace: no binding %q", name.Value())
		}
		c.Replace(node, text.Value())
		return object.Nil
	})
}

func importFn(name string, apply func(string)) *object.Builtin {
	return object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError(name, 1, len(args))
		}
		path, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("%s: path must be a string, got %s", name, args[0].Type())
		}
		apply(path.Value())
		return object.Nil
	})
}

func stopFn(stop *bool) *object.Builtin {
	return object.NewBuiltin("stop", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("stop", 0, len(args))
		}
		*stop = true
		return object.Nil
	})
}

package graft

import (
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// TreeMutator receives structural edits from handlers. Implementations
// decide how edits are applied; the engine only records intent through this
// interface.
type TreeMutator interface {
	// Replace substitutes text for the span of n.
	Replace(n *sitter.Node, text, group string)
	// Remove deletes the span of n.
	Remove(n *sitter.Node, group string)
	// InsertBefore places text immediately before the span of n.
	InsertBefore(n *sitter.Node, text, group string)
}

// ImportMutator receives import-level edits from handlers. Static imports
// are a java concern; Go hosts ignore them. A trailing ".*" on a static
// import denotes an on-demand import.
type ImportMutator interface {
	Add(path string)
	Remove(path string)
	AddStatic(qualified string)
	RemoveStatic(qualified string)
}

// RewriteContext bundles the mutators a rewrite pass writes through. The
// caller owns it and supplies a fresh one per pass; the engine never holds
// onto it between passes.
type RewriteContext struct {
	Edits   TreeMutator
	Imports ImportMutator

	// Group labels edits produced by this pass, for hosts that present
	// undoable change groups.
	Group string
}

// Edit is one recorded source edit: replace [Start, End) with Replacement.
type Edit struct {
	Start       uint32
	End         uint32
	Replacement string
	Group       string
}

// EditLog is the default TreeMutator: an append-only record of text edits.
// It is not transactional; a failed pass leaves the edits recorded so far,
// and the caller decides whether to apply them.
type EditLog struct {
	edits []Edit
}

func (l *EditLog) Replace(n *sitter.Node, text, group string) {
	l.edits = append(l.edits, Edit{Start: n.StartByte(), End: n.EndByte(), Replacement: text, Group: group})
}

func (l *EditLog) Remove(n *sitter.Node, group string) {
	l.edits = append(l.edits, Edit{Start: n.StartByte(), End: n.EndByte(), Group: group})
}

func (l *EditLog) InsertBefore(n *sitter.Node, text, group string) {
	l.edits = append(l.edits, Edit{Start: n.StartByte(), End: n.StartByte(), Replacement: text, Group: group})
}

// Edits returns the recorded edits in application order: descending start
// offset, so applying in order never shifts later spans. At equal offsets a
// spanning edit applies before a zero-width insert, and inserts stack in
// recording order.
func (l *EditLog) Edits() []Edit {
	out := make([]Edit, len(l.edits))
	copy(out, l.edits)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End < out[j].End
	})
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Len returns the number of recorded edits.
func (l *EditLog) Len() int { return len(l.edits) }

// Apply splices the recorded edits into src and returns the result. Edits
// with overlapping spans are applied last-recorded-first; callers that need
// stricter conflict handling should inspect Edits themselves.
func (l *EditLog) Apply(src []byte) ([]byte, error) {
	edits := l.Edits()
	for _, e := range edits {
		if e.End > uint32(len(src)) || e.Start > e.End {
			return nil, fmt.Errorf("apply: edit span [%d,%d) out of range", e.Start, e.End)
		}
	}
	out := src
	for _, e := range edits {
		var buf []byte
		buf = append(buf, out[:e.Start]...)
		buf = append(buf, e.Replacement...)
		buf = append(buf, out[e.End:]...)
		out = buf
	}
	return out, nil
}

// ImportLog is the default ImportMutator: it records import directives for
// the host to apply. Removing a path cancels a prior add of the same path
// and vice versa.
type ImportLog struct {
	adds          []string
	removes       []string
	staticAdds    []string
	staticRemoves []string
}

func (l *ImportLog) Add(path string)              { l.adds = record(l.adds, &l.removes, path) }
func (l *ImportLog) Remove(path string)           { l.removes = record(l.removes, &l.adds, path) }
func (l *ImportLog) AddStatic(qualified string)   { l.staticAdds = record(l.staticAdds, &l.staticRemoves, qualified) }
func (l *ImportLog) RemoveStatic(qualified string) {
	l.staticRemoves = record(l.staticRemoves, &l.staticAdds, qualified)
}

// Adds returns the import paths to add.
func (l *ImportLog) Adds() []string { return l.adds }

// Removes returns the import paths to remove.
func (l *ImportLog) Removes() []string { return l.removes }

// StaticAdds returns the static imports to add.
func (l *ImportLog) StaticAdds() []string { return l.staticAdds }

// StaticRemoves returns the static imports to remove.
func (l *ImportLog) StaticRemoves() []string { return l.staticRemoves }

// CoversStatic reports whether a recorded static add already covers
// qualified, either exactly or through an on-demand (".*") import of its
// enclosing type.
func (l *ImportLog) CoversStatic(qualified string) bool {
	for _, s := range l.staticAdds {
		if s == qualified {
			return true
		}
		if strings.HasSuffix(s, ".*") && strings.HasPrefix(qualified, strings.TrimSuffix(s, "*")) {
			return true
		}
	}
	return false
}

// record appends v to dst unless present, first cancelling it from the
// opposing list.
func record(dst []string, opposing *[]string, v string) []string {
	kept := (*opposing)[:0]
	for _, o := range *opposing {
		if o != v {
			kept = append(kept, o)
		}
	}
	*opposing = kept
	for _, d := range dst {
		if d == v {
			return dst
		}
	}
	return append(dst, v)
}

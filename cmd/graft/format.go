package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jward/graft"
)

// printMatch writes one finding as "file:offset rule  matched-text", with
// the matched text flattened to one line.
func printMatch(w io.Writer, path string, m *graft.Match) {
	text := m.Text()
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i] + " ..."
	}
	fmt.Fprintf(w, "%s:%d  %s  %s\n", path, m.Node.StartByte(), m.Rule().Name, text)
}

// printImports reports import directives the rewrite pass recorded; the CLI
// does not splice import sections itself.
func printImports(w io.Writer, path string, imports *graft.ImportLog) {
	for _, p := range imports.Adds() {
		fmt.Fprintf(w, "%s: add import %s\n", path, p)
	}
	for _, p := range imports.Removes() {
		fmt.Fprintf(w, "%s: remove import %s\n", path, p)
	}
	for _, p := range imports.StaticAdds() {
		fmt.Fprintf(w, "%s: add static import %s\n", path, p)
	}
	for _, p := range imports.StaticRemoves() {
		fmt.Fprintf(w, "%s: remove static import %s\n", path, p)
	}
}

func printSummary(w io.Writer, files, matched, edited int, applied bool, elapsed time.Duration) {
	if applied {
		fmt.Fprintf(w, "%d files scanned, %d matches, %d files edited (%s)\n",
			files, matched, edited, elapsed.Round(time.Millisecond))
		return
	}
	fmt.Fprintf(w, "%d files scanned, %d matches (%s)\n",
		files, matched, elapsed.Round(time.Millisecond))
}

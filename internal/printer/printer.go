// Package printer renders a reshaped result forest depth-first: the
// first display field of a node starts a new "- " line, subsequent
// fields indent under it, and children indent two spaces deeper.
// Nodes with no display fields are pass-through — they extend the
// path prefix without emitting a line of their own.
package printer

import (
	"fmt"
	"io"

	"github.com/edanaher/scry/internal/reshape"
)

// Print writes groups to w in the scry REPL's nested format.
func Print(w io.Writer, groups []reshape.SchemaGroup) {
	for _, g := range groups {
		for _, root := range g.Roots {
			printNode(w, root, g.Schema, 0)
		}
	}
}

func printNode(w io.Writer, n *reshape.Node, pathPrefix string, indent int) {
	path := pathPrefix + "." + n.Table
	if pathPrefix == "" {
		path = n.Table
	}

	if len(n.Display) == 0 {
		for _, c := range n.Children {
			printNode(w, c, path, indent)
		}
		return
	}

	pad := spaces(indent)
	for i, f := range n.Display {
		bullet := "- "
		if i > 0 {
			bullet = "  "
		}
		fmt.Fprintf(w, "%s%s%s.%s: %v\n", pad, bullet, path, f.Name, f.Value)
	}
	for _, c := range n.Children {
		printNode(w, c, path, indent+2)
	}
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

package ui

import (
	"fmt"
	"strings"
)

// PrintTree renders the subtrees rooted at nodes as text. Several nodes are
// numbered "1) ", "2) "... A negative maxDepth means unlimited.
func PrintTree(nodes []Node, maxDepth int) string {
	var b strings.Builder
	for i, n := range nodes {
		if len(nodes) > 1 {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "%d) ", i+1)
		}
		printNode(&b, n, 0, maxDepth)
	}
	return b.String()
}

func printNode(b *strings.Builder, n Node, depth, maxDepth int) {
	pad := strings.Repeat("  ", depth)
	if depth > 0 {
		b.WriteString(pad[:len(pad)-2] + " |-")
	}
	r := n.Bounds()
	fmt.Fprintf(b, "Node #%d at (l=%d, t=%d, r=%d, b=%d)px", n.ID(), r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)
	if tag := n.Tag(); tag != "" {
		fmt.Fprintf(b, ", Tag: '%s'", tag)
	}
	b.WriteString("\n")
	if texts := n.Texts(); len(texts) > 0 {
		fmt.Fprintf(b, "%s   Text = '[%s]'\n", pad, strings.Join(texts, ", "))
	}
	if maxDepth >= 0 && depth >= maxDepth {
		return
	}
	for _, c := range n.Children() {
		printNode(b, c, depth+1, maxDepth)
	}
}

package telemetry

import (
	"fmt"
	"io"
	"time"

	"github.com/robinvdvleuten/expenses/output"
)

// slowThreshold marks operations highlighted in styled reports.
const slowThreshold = 100 * time.Millisecond

// formatTree writes one root and its children:
//
//	load expenses.txt: 12ms
//	├─ read: 1ms
//	└─ decode: 10ms
func formatTree(w io.Writer, root *timerNode, styles *output.Styles) {
	name := root.name
	if styles != nil {
		name = styles.Keyword(name)
	}
	_, _ = fmt.Fprintf(w, "%s: %s\n", name, formatDuration(root.duration(), styles))

	for i, child := range root.children {
		formatNode(w, child, "", i == len(root.children)-1, styles)
	}
}

func formatNode(w io.Writer, node *timerNode, prefix string, isLast bool, styles *output.Styles) {
	branch, extension := "├─ ", "│  "
	if isLast {
		branch, extension = "└─ ", "   "
	}

	tree := prefix + branch
	if styles != nil {
		tree = styles.Dim(tree)
	}
	_, _ = fmt.Fprintf(w, "%s%s: %s\n", tree, node.name, formatDuration(node.duration(), styles))

	for i, child := range node.children {
		formatNode(w, child, prefix+extension, i == len(node.children)-1, styles)
	}
}

// formatDuration shows milliseconds below one second and seconds above.
func formatDuration(d time.Duration, styles *output.Styles) string {
	var text string
	if d < time.Second {
		text = fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
	} else {
		text = fmt.Sprintf("%.2fs", float64(d)/float64(time.Second))
	}

	if styles == nil {
		return text
	}
	return styles.Timing(text, d >= slowThreshold)
}

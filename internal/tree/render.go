package tree

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/wesm/forktree/internal/parser"
)

// Unlimited disables depth limiting in TextOptions.
const Unlimited = -1

const (
	defaultLineWidth = 100
	minNameWidth     = 20
)

// TextOptions controls plain text rendering.
type TextOptions struct {
	// MaxDepth is the deepest level printed (0 = roots only).
	// Any negative value, such as Unlimited, prints everything.
	MaxDepth int
	// Width is the target line width used to truncate names.
	Width int
}

// FormatTimestamp renders a session start time as "Jan 02 15:04"
// in UTC, or "?" for a zero time.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "?"
	}
	return t.UTC().Format("Jan 02 15:04")
}

// RenderText writes f as a box-drawing tree, one line per
// session. Levels beyond opts.MaxDepth are replaced by a single
// "... N fork(s)" indicator line. An empty forest writes
// nothing.
func RenderText(w io.Writer, f *Forest, opts TextOptions) error {
	if opts.Width <= 0 {
		opts.Width = defaultLineWidth
	}
	bw := bufio.NewWriter(w)
	for i, r := range f.Roots {
		renderNode(bw, r, "", i == len(f.Roots)-1, 0, opts)
	}
	return bw.Flush()
}

func renderNode(
	w *bufio.Writer, n *Node, prefix string,
	isLast bool, depth int, opts TextOptions,
) {
	connector := "├── "
	childPrefix := prefix + "│   "
	if isLast {
		connector = "└── "
		childPrefix = prefix + "    "
	}

	meta := fmt.Sprintf("%s%s%s (%d msgs) ",
		prefix, connector,
		FormatTimestamp(n.Record.FirstTimestamp),
		n.Record.MessageCount,
	)
	maxName := opts.Width - runewidth.StringWidth(meta)
	if maxName < minNameWidth {
		maxName = minNameWidth
	}
	name := runewidth.Truncate(
		parser.CleanLine(n.Record.DisplayName), maxName, "…",
	)
	fmt.Fprintf(w, "%s%s\n", meta, name)

	if !n.HasChildren() {
		return
	}
	if opts.MaxDepth >= 0 && depth+1 > opts.MaxDepth {
		fmt.Fprintf(w, "%s└── ... %d fork(s)\n",
			childPrefix, n.Descendants())
		return
	}
	for i, c := range n.Children {
		renderNode(w, c, childPrefix,
			i == len(n.Children)-1, depth+1, opts)
	}
}

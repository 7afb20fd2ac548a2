// Package browser holds the navigation state of the interactive
// session tree: a collapsible, searchable flat view over a
// tree.Forest. It does no terminal I/O; internal/tui drives it
// with key events and renders its rows.
package browser

import (
	"strings"

	"github.com/wesm/forktree/internal/tree"
)

// Row is one visible line of the flattened view.
type Row struct {
	Node  *tree.Node
	Depth int

	// Expanded is false when the node has children that are
	// hidden by a collapse.
	Expanded bool
	// Last is true when no later sibling is visible.
	Last bool
	// Match is true when the display name contains the active
	// filter. Always false with no filter.
	Match bool

	// guides[i] is true when the ancestor at depth i has a later
	// visible sibling, so a vertical connector runs past this row.
	guides []bool
}

// ID returns the session id of the row.
func (r Row) ID() string {
	return r.Node.ID()
}

// Prefix returns the box-drawing connector drawn before the row.
// Roots have no prefix.
func (r Row) Prefix() string {
	if r.Depth == 0 {
		return ""
	}
	var b strings.Builder
	for _, g := range r.guides[1:] {
		if g {
			b.WriteString("│  ")
		} else {
			b.WriteString("   ")
		}
	}
	if r.Last {
		b.WriteString("└─ ")
	} else {
		b.WriteString("├─ ")
	}
	return b.String()
}

// Flatten walks f in pre-order and returns the visible rows.
// Children of collapsed nodes are skipped entirely. With a
// non-empty filter, only nodes whose display name contains it
// (case-insensitive) or that have such a descendant are kept.
// A nil collapsed map means everything is expanded.
func Flatten(
	f *tree.Forest, collapsed map[string]bool, filter string,
) []Row {
	kw := strings.ToLower(filter)
	rows := make([]Row, 0, f.Len())

	var walk func(nodes []*tree.Node, depth int, guides []bool)
	walk = func(nodes []*tree.Node, depth int, guides []bool) {
		if kw != "" {
			nodes = keepMatching(nodes, kw)
		}
		for i, n := range nodes {
			last := i == len(nodes)-1
			expanded := !collapsed[n.ID()]
			rows = append(rows, Row{
				Node:     n,
				Depth:    depth,
				Expanded: expanded || !n.HasChildren(),
				Last:     last,
				Match:    kw != "" && nameMatches(n, kw),
				guides:   guides,
			})
			if expanded && n.HasChildren() {
				next := make([]bool, len(guides)+1)
				copy(next, guides)
				next[len(guides)] = !last
				walk(n.Children, depth+1, next)
			}
		}
	}
	walk(f.Roots, 0, nil)
	return rows
}

func keepMatching(nodes []*tree.Node, kw string) []*tree.Node {
	var out []*tree.Node
	for _, n := range nodes {
		if subtreeMatches(n, kw) {
			out = append(out, n)
		}
	}
	return out
}

func nameMatches(n *tree.Node, kw string) bool {
	return strings.Contains(strings.ToLower(n.Record.DisplayName), kw)
}

func subtreeMatches(n *tree.Node, kw string) bool {
	if nameMatches(n, kw) {
		return true
	}
	for _, c := range n.Children {
		if subtreeMatches(c, kw) {
			return true
		}
	}
	return false
}

// expandForFilter returns a copy of collapsed with every ancestor
// of a node matching filter expanded.
func expandForFilter(
	f *tree.Forest, collapsed map[string]bool, filter string,
) map[string]bool {
	out := make(map[string]bool, len(collapsed))
	for id, c := range collapsed {
		if c {
			out[id] = true
		}
	}
	kw := strings.ToLower(filter)
	if kw == "" {
		return out
	}
	f.Walk(func(n *tree.Node, _ int) {
		if !nameMatches(n, kw) {
			return
		}
		id := n.ID()
		for {
			p, ok := f.Parent(id)
			if !ok {
				break
			}
			delete(out, p)
			id = p
		}
	})
	return out
}

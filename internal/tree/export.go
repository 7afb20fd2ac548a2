package tree

import (
	"encoding/json"
	"io"

	"github.com/wesm/forktree/internal/parser"
)

// Export is the structured form of a forest consumed by
// external renderers.
type Export struct {
	Edges    [][2]string                     `json:"edges"`
	Roots    []string                        `json:"roots"`
	Children map[string][]string             `json:"children"`
	Sessions map[string]parser.SessionRecord `json:"sessions"`
}

// NewExport flattens f into edges, roots, children and session
// maps. Edges are listed in pre-order. Only sessions with forks
// appear as keys of Children.
func NewExport(f *Forest) Export {
	out := Export{
		Edges:    make([][2]string, 0),
		Roots:    make([]string, 0, len(f.Roots)),
		Children: make(map[string][]string),
		Sessions: make(map[string]parser.SessionRecord, f.Len()),
	}
	for _, r := range f.Roots {
		out.Roots = append(out.Roots, r.ID())
	}
	f.Walk(func(n *Node, _ int) {
		out.Sessions[n.ID()] = n.Record
		for _, c := range n.Children {
			out.Edges = append(out.Edges, [2]string{n.ID(), c.ID()})
			out.Children[n.ID()] = append(out.Children[n.ID()], c.ID())
		}
	})
	return out
}

// WriteJSON writes the export of f as indented JSON.
func WriteJSON(w io.Writer, f *Forest) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(NewExport(f))
}

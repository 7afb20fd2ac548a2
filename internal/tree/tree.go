package tree

import (
	"fmt"
	"sort"

	"github.com/wesm/forktree/internal/parser"
)

// Node is one session in the forest together with its forks.
type Node struct {
	Record   parser.SessionRecord
	Children []*Node

	// ForkIndex is the 1-based position of this session among
	// its group's forks, or 0 for a group root.
	ForkIndex int
}

// ID returns the session id of the node.
func (n *Node) ID() string {
	return n.Record.ID
}

// HasChildren reports whether the node has any forks.
func (n *Node) HasChildren() bool {
	return len(n.Children) > 0
}

// ForkLabel returns "fork N" for forks without a custom name,
// or "" otherwise.
func (n *Node) ForkLabel() string {
	if n.ForkIndex == 0 || n.Record.HasCustomName() {
		return ""
	}
	return fmt.Sprintf("fork %d", n.ForkIndex)
}

// Descendants returns the number of nodes below n.
func (n *Node) Descendants() int {
	total := 0
	for _, c := range n.Children {
		total += 1 + c.Descendants()
	}
	return total
}

// Forest is the set of fork trees for one project. It is built
// once and not modified afterwards.
type Forest struct {
	Roots []*Node

	nodes  map[string]*Node
	parent map[string]string
}

// Build converts fork groups into a forest. Each group becomes
// one root whose children are the group's forks in order. Roots
// are ordered by first timestamp, ties by id.
//
// Forks of forks are not nested: every member of a group hangs
// directly under the group root.
func Build(groups []Group) *Forest {
	roots := make([]*Node, 0, len(groups))
	for _, g := range groups {
		if len(g.Members) == 0 {
			continue
		}
		root := &Node{Record: g.Root()}
		for i, rec := range g.Forks() {
			root.Children = append(root.Children, &Node{
				Record:    rec,
				ForkIndex: i + 1,
			})
		}
		roots = append(roots, root)
	}
	sort.SliceStable(roots, func(i, j int) bool {
		return roots[i].Record.Less(roots[j].Record)
	})
	return newForest(roots)
}

// BuildFromRecords groups records and builds the forest.
func BuildFromRecords(records []parser.SessionRecord) *Forest {
	return Build(GroupSessions(records))
}

func newForest(roots []*Node) *Forest {
	f := &Forest{
		Roots:  roots,
		nodes:  make(map[string]*Node),
		parent: make(map[string]string),
	}
	var index func(n *Node)
	index = func(n *Node) {
		f.nodes[n.ID()] = n
		for _, c := range n.Children {
			f.parent[c.ID()] = n.ID()
			index(c)
		}
	}
	for _, r := range roots {
		index(r)
	}
	return f
}

// Len returns the total number of nodes.
func (f *Forest) Len() int {
	return len(f.nodes)
}

// Empty reports whether the forest has no sessions.
func (f *Forest) Empty() bool {
	return len(f.Roots) == 0
}

// Node returns the node for a session id.
func (f *Forest) Node(id string) (*Node, bool) {
	n, ok := f.nodes[id]
	return n, ok
}

// Parent returns the parent session id of id, if any.
func (f *Forest) Parent(id string) (string, bool) {
	p, ok := f.parent[id]
	return p, ok
}

// Children returns the child ids of id in order.
func (f *Forest) Children(id string) []string {
	n, ok := f.nodes[id]
	if !ok {
		return nil
	}
	ids := make([]string, len(n.Children))
	for i, c := range n.Children {
		ids[i] = c.ID()
	}
	return ids
}

// Walk visits every node in pre-order, roots first. fn receives
// the node and its depth (0 for roots).
func (f *Forest) Walk(fn func(n *Node, depth int)) {
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		fn(n, depth)
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, r := range f.Roots {
		walk(r, 0)
	}
}

package tree

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a keyword matches no session.
var ErrNotFound = errors.New("no session matches filter")

// SelectSubtree finds the first node whose display name or
// identity key contains keyword (case-insensitive), searching
// breadth-first across the whole forest with roots first. It
// returns that node; ancestors and siblings are not part of the
// result.
func SelectSubtree(f *Forest, keyword string) (*Node, error) {
	kw := strings.ToLower(keyword)
	queue := append([]*Node(nil), f.Roots...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if nodeMatches(n, kw) {
			return n, nil
		}
		queue = append(queue, n.Children...)
	}
	return nil, ErrNotFound
}

// Subforest returns a forest containing only n and its
// descendants.
func Subforest(n *Node) *Forest {
	return newForest([]*Node{n})
}

// Filter returns the subforest rooted at the first match for
// keyword.
func Filter(f *Forest, keyword string) (*Forest, error) {
	n, err := SelectSubtree(f, keyword)
	if err != nil {
		return nil, err
	}
	return Subforest(n), nil
}

func nodeMatches(n *Node, lowerKeyword string) bool {
	return strings.Contains(
		strings.ToLower(n.Record.DisplayName), lowerKeyword,
	) || strings.Contains(
		strings.ToLower(n.Record.IdentityKey), lowerKeyword,
	)
}

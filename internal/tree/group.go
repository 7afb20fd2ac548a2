// Package tree infers fork families from session records and
// assembles them into a forest. Grouping and building are pure
// functions over an immutable snapshot of records.
package tree

import (
	"sort"

	"github.com/wesm/forktree/internal/parser"
)

// Group is a fork family: the records sharing one identity key.
// Members are ordered by first timestamp (ties by id); the first
// member is the root and the rest are its forks.
type Group struct {
	Key     string
	Members []parser.SessionRecord
}

// Root returns the earliest member of the group.
func (g Group) Root() parser.SessionRecord {
	return g.Members[0]
}

// Forks returns the members after the root, in fork order.
func (g Group) Forks() []parser.SessionRecord {
	return g.Members[1:]
}

// GroupSessions partitions records into fork families by exact
// identity-key equality. Groups appear in the order their key was
// first seen. Records with an empty key never share a group.
func GroupSessions(records []parser.SessionRecord) []Group {
	groups := make([]Group, 0)
	index := make(map[string]int)

	for _, rec := range records {
		if rec.IdentityKey == "" {
			groups = append(groups, Group{
				Members: []parser.SessionRecord{rec},
			})
			continue
		}
		if i, ok := index[rec.IdentityKey]; ok {
			groups[i].Members = append(groups[i].Members, rec)
			continue
		}
		index[rec.IdentityKey] = len(groups)
		groups = append(groups, Group{
			Key:     rec.IdentityKey,
			Members: []parser.SessionRecord{rec},
		})
	}

	for i := range groups {
		members := groups[i].Members
		sort.SliceStable(members, func(a, b int) bool {
			return members[a].Less(members[b])
		})
	}
	return groups
}

package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wesm/forktree/internal/parser"
)

func paymentForest() *Forest {
	return BuildFromRecords([]parser.SessionRecord{
		rec("setup", "set up repo", at(8, 0)),
		rec("pay", "Implement payment integration", at(9, 0)),
		rec("pay-f1", "Implement payment integration", at(10, 0)),
		rec("pay-f2", "Implement payment integration", at(11, 0)),
		rec("docs", "write docs", at(12, 0)),
	})
}

func TestSelectSubtree_Payment(t *testing.T) {
	f := paymentForest()

	n, err := SelectSubtree(f, "payment")
	require.NoError(t, err)
	assert.Equal(t, "pay", n.ID())

	sub := Subforest(n)
	assert.Equal(t, []string{"pay"}, rootIDs(sub))
	assert.Equal(t, 3, sub.Len())
	assert.Equal(t, []string{"pay-f1", "pay-f2"}, sub.Children("pay"))
	_, ok := sub.Node("setup")
	assert.False(t, ok)
	_, ok = sub.Node("docs")
	assert.False(t, ok)
}

func TestSelectSubtree_CaseInsensitive(t *testing.T) {
	n, err := SelectSubtree(paymentForest(), "PAYMENT")
	require.NoError(t, err)
	assert.Equal(t, "pay", n.ID())
}

func TestSelectSubtree_MatchesIdentityKey(t *testing.T) {
	r := rec("k", "internal key text", at(9, 0))
	r.DisplayName = "Renamed"
	f := BuildFromRecords([]parser.SessionRecord{r})

	n, err := SelectSubtree(f, "key text")
	require.NoError(t, err)
	assert.Equal(t, "k", n.ID())
}

func TestSelectSubtree_BreadthFirst(t *testing.T) {
	// A fork with a custom name matching the keyword must lose to a
	// later root that also matches.
	fork := rec("fork", "shared", at(9, 5))
	fork.Name = "deploy hotfix"
	fork.DisplayName = "deploy hotfix"
	f := BuildFromRecords([]parser.SessionRecord{
		rec("root", "shared", at(9, 0)),
		fork,
		rec("later", "deploy pipeline", at(15, 0)),
	})

	n, err := SelectSubtree(f, "deploy")
	require.NoError(t, err)
	assert.Equal(t, "later", n.ID())
}

func TestSelectSubtree_NotFound(t *testing.T) {
	_, err := SelectSubtree(paymentForest(), "nothing like this")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Filter(Build(nil), "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFilter(t *testing.T) {
	sub, err := Filter(paymentForest(), "docs")
	require.NoError(t, err)
	assert.Equal(t, []string{"docs"}, rootIDs(sub))
	assert.Equal(t, 1, sub.Len())
}

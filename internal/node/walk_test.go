package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalk_VisitsInCompileOrder(t *testing.T) {
	j, err := NewJoin(InnerJoin, mustTable(t, "pet"))
	require.NoError(t, err)
	j, err = j.AndWith(mustFilter(t, "species", OpEq, "dog"))
	require.NoError(t, err)

	q, err := NewSelectQuery(mustTable(t, "person"))
	require.NoError(t, err)
	q, err = q.WithJoin(j)
	require.NoError(t, err)
	q, err = q.WithWhere(mustFilter(t, "gender", OpEq, "male"))
	require.NoError(t, err)

	var values []any
	var kinds []Kind
	Walk(q, func(n Node) bool {
		kinds = append(kinds, n.Kind())
		if v, ok := n.(*ValueNode); ok {
			values = append(values, v.Value())
		}
		return true
	})

	assert.Equal(t, []any{"dog", "male"}, values)
	assert.Equal(t, KindSelectQuery, kinds[0])
	assert.Contains(t, kinds, KindJoin)
}

func TestWalk_SkipChildren(t *testing.T) {
	f := mustFilter(t, "a", OpEq, 1)
	count := 0
	Walk(f, func(n Node) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}

func TestValidate_FactoryTreesPass(t *testing.T) {
	j, err := NewJoin(InnerJoin, mustTable(t, "person"))
	require.NoError(t, err)
	j, err = j.AndWith(mustFilter(t, "gender", OpEq, "male"))
	require.NoError(t, err)

	assert.NoError(t, Validate(j))
}

func TestValidate_MalformedTrees(t *testing.T) {
	testCases := []struct {
		name string
		root Node
	}{
		{name: "nil root", root: nil},
		{name: "typed nil root", root: (*JoinNode)(nil)},
		{name: "zero join", root: &JoinNode{}},
		{name: "join without table", root: &JoinNode{joinType: InnerJoin}},
		{name: "zero table", root: &TableNode{}},
		{name: "zero filter", root: &FilterNode{}},
		{name: "and with nil operand", root: &AndNode{left: mustFilter(t, "a", OpEq, 1)}},
		{name: "empty value list", root: &ValueListNode{}},
		{name: "zero raw", root: &RawNode{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.root)
			require.Error(t, err)
			assert.True(t, IsMalformedTree(err), "want MALFORMED_TREE, got %v", err)
		})
	}
}

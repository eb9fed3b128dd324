package ittree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTree_GetOrCreateRoot_Merges(t *testing.T) {
	tree := New()
	n1, existed1 := tree.GetOrCreateRoot("scry", "authors", "authors")
	assert.False(t, existed1)
	n2, existed2 := tree.GetOrCreateRoot("scry", "authors", "authors")
	assert.True(t, existed2)
	assert.Same(t, n1, n2)

	assert.Equal(t, []string{"scry"}, tree.SchemaOrder)
	assert.Equal(t, []string{"authors"}, tree.Schemas["scry"].ChildOrder)
}

func TestAddChild_OrderedAndMerged(t *testing.T) {
	tree := New()
	root, _ := tree.GetOrCreateRoot("scry", "authors", "authors")

	c1, existed := AddChild(root, "books", "scry", "books")
	require.False(t, existed)
	c2, existed := AddChild(root, "books", "scry", "books")
	require.True(t, existed)
	assert.Same(t, c1, c2)
	assert.Equal(t, []string{"books"}, root.ChildOrder)
}

func TestAddConditionChild_IsolatedFromChildren(t *testing.T) {
	tree := New()
	root, _ := tree.GetOrCreateRoot("scry", "authors", "authors")
	AddChild(root, "books", "scry", "books")

	cond, _ := AddConditionChild(root, "books", "scry", "books")
	assert.NotContains(t, root.ChildOrder, "")
	assert.Len(t, root.Children, 1)
	assert.Len(t, root.ConditionRoots, 1)
	assert.NotSame(t, root.Children["books"], cond)
}

func TestAddColumns_ExpandsStarInPlace(t *testing.T) {
	n := newNode("scry", "authors", "a")
	AddColumns(n, []string{"name", "*", "birth_year"}, []string{"id", "name", "birth_year"})
	assert.Equal(t, []string{"name", "id", "name", "birth_year", "birth_year"}, n.Columns)
}

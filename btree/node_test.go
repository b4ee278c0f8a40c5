package btree

import (
	"reflect"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/dacapoday/btindex/list"
	"github.com/dacapoday/btindex/tree"
)

// handles compare as plain ints in these tests
func byHandle(a, b int) int {
	return a - b
}

func valueProbe(v int) probe {
	return probe{handle: InvalidIndex, compare: func(h int) int { return v - h }}
}

func newLeaf(handles ...int) *Node {
	values := list.New[int]()
	for _, h := range handles {
		values.Append(h)
	}
	return tree.New(values)
}

func handlesOf(node *Node) []int {
	var hs []int
	for h := range entries(node).All() {
		hs = append(hs, h)
	}
	return hs
}

func TestSubNodeLeaf(t *testing.T) {
	leaf := newLeaf(10, 20, 30)

	child, e, found, err := subNode(leaf, valueProbe(20))
	require.NoError(t, err)
	require.Nil(t, child)
	require.True(t, found)
	require.Equal(t, 20, e.Value())

	_, e, found, err = subNode(leaf, valueProbe(25))
	require.NoError(t, err)
	require.False(t, found)
	require.Equal(t, 30, e.Value())

	_, e, found, err = subNode(leaf, valueProbe(35))
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, e)

	// identity: only the same handle matches
	_, e, found, err = subNode(leaf, identity(30))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 30, e.Value())

	_, e, found, _ = subNode(leaf, identity(31))
	require.False(t, found)
	require.Nil(t, e)
}

func TestSubNodeInternal(t *testing.T) {
	node := newLeaf(1, 2, 3, 4, 5, 6)
	require.NoError(t, split(node, 2))
	require.Equal(t, []int{2, 4}, handlesOf(node))
	require.Equal(t, 3, node.Len())

	child, e, found, err := subNode(node, valueProbe(4))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 4, e.Value())
	require.Equal(t, []int{3, 4}, handlesOf(child))

	child, e, found, err = subNode(node, valueProbe(1))
	require.NoError(t, err)
	require.False(t, found)
	require.Equal(t, 2, e.Value())
	require.Equal(t, []int{1, 2}, handlesOf(child))

	child, e, found, err = subNode(node, valueProbe(9))
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, e)
	require.Same(t, node.Last(), child)

	child, _, found, _ = subNode(node, identity(5))
	require.False(t, found)
	require.Same(t, node.Last(), child)

	leaf, e, found, err := upperNode(node, valueProbe(5))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 5, e.Value())
	require.Same(t, node.Last(), leaf)
}

func TestSubNodeCorrupted(t *testing.T) {
	node := newLeaf(1, 2, 3, 4)
	require.NoError(t, split(node, 2))
	entries(node).Append(9)

	_, _, _, err := subNode(node, valueProbe(1))
	require.ErrorIs(t, err, ErrCorrupted)
}

func TestInsertValue(t *testing.T) {
	leaf := tree.New[*list.List[int]](nil)
	for _, h := range []int{5, 1, 3} {
		_, inserted, err := insertValue(leaf, h, byHandle)
		require.NoError(t, err)
		require.True(t, inserted)
	}
	require.Equal(t, []int{1, 3, 5}, handlesOf(leaf))

	e, inserted, err := insertValue(leaf, 3, byHandle)
	require.NoError(t, err)
	require.False(t, inserted)
	require.Equal(t, 3, e.Value())

	require.NoError(t, split(leaf, 2))
	_, _, err = insertValue(leaf, 7, byHandle)
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestSplit(t *testing.T) {
	node := newLeaf(1, 2, 3, 4, 5, 6, 7)
	require.NoError(t, split(node, 3))
	require.Equal(t, 3, node.Len())
	require.Equal(t, []int{3, 5}, handlesOf(node))

	var sizes []int
	for child := node.First(); child != nil; child = child.Next() {
		require.True(t, child.IsLeaf())
		require.Same(t, node, child.Parent())
		sizes = append(sizes, entries(child).Len())
	}
	require.Equal(t, []int{3, 2, 2}, sizes)

	require.ErrorIs(t, split(node, 3), ErrUnsupported)
	require.ErrorIs(t, split(newLeaf(1, 2), 2), ErrUnsupported)
	require.ErrorIs(t, split(newLeaf(1, 2), 0), ErrUnsupported)
}

// setCount overwrites the unexported element count of l.
func setCount(t *testing.T, l *list.List[int], n int) {
	t.Helper()
	f := reflect.ValueOf(l).Elem().FieldByName("count")
	require.True(t, f.IsValid())
	reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem().SetInt(int64(n))
}

func TestSplitRollback(t *testing.T) {
	node := newLeaf(1, 2, 3, 4)
	old := entries(node)
	setCount(t, old, 6)

	// three children are planned, the list runs dry in the last one
	err := split(node, 2)
	require.ErrorIs(t, err, ErrCorrupted)
	require.True(t, node.IsLeaf())
	require.Zero(t, node.Len())
	require.Same(t, old, entries(node))
	require.Equal(t, []int{1, 2, 3, 4}, handlesOf(node))
}

func leaves(root *Node) [][]int {
	var got [][]int
	for leaf := firstLeaf(root); leaf != nil; leaf = nextLeaf(leaf) {
		got = append(got, handlesOf(leaf))
	}
	return got
}

func TestAbsorb(t *testing.T) {
	root := newLeaf(1, 2, 3, 4, 5, 6)
	require.NoError(t, split(root, 2))
	mid := root.First().Next()
	require.NoError(t, split(mid, 1))
	// [2 4] -> {1 2} ([3] -> {3} {4}) {5 6}

	require.NoError(t, absorb(root, mid))
	require.Equal(t, []int{2, 3, 4}, handlesOf(root))
	require.Equal(t, 4, root.Len())
	require.Equal(t, [][]int{{1, 2}, {3}, {4}, {5, 6}}, leaves(root))
	require.False(t, mid.Linked())
	require.True(t, mid.IsLeaf())
	require.Zero(t, entries(mid).Len())

	last := root.Last()
	require.NoError(t, split(last, 1))
	require.NoError(t, absorb(root, last))
	require.Equal(t, []int{2, 3, 4, 5}, handlesOf(root))
	require.Equal(t, [][]int{{1, 2}, {3}, {4}, {5}, {6}}, leaves(root))
	for child := root.First(); child != nil; child = child.Next() {
		require.Same(t, root, child.Parent())
	}

	require.ErrorIs(t, absorb(root, root.First()), ErrInvalidArgument)
	require.ErrorIs(t, absorb(root.First(), root), ErrInvalidArgument)
}

func TestDivide(t *testing.T) {
	root := newLeaf(1, 2, 3, 4, 5, 6, 7, 8)
	require.NoError(t, split(root, 4))
	left := root.First()
	require.NoError(t, split(left, 1))
	// [4] -> ([1 2 3] -> {1} {2} {3} {4}) {5 6 7 8}

	sibling, err := divide(left)
	require.NoError(t, err)
	require.Equal(t, []int{2, 4}, handlesOf(root))
	require.Equal(t, 3, root.Len())
	require.Same(t, sibling, left.Next())
	require.Same(t, root, sibling.Parent())
	require.Equal(t, []int{1}, handlesOf(left))
	require.Equal(t, []int{3}, handlesOf(sibling))
	require.Equal(t, 2, left.Len())
	require.Equal(t, 2, sibling.Len())
	require.Equal(t, [][]int{{1}, {2}, {3}, {4}, {5, 6, 7, 8}}, leaves(root))

	_, err = divide(left)
	require.ErrorIs(t, err, ErrUnsupported)
	_, err = divide(root)
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestLower(t *testing.T) {
	root := newLeaf(1, 2, 3, 4, 5, 6)
	require.NoError(t, split(root, 2))
	values := entries(root)

	child, err := lower(root)
	require.NoError(t, err)
	require.Equal(t, 1, root.Len())
	require.Same(t, child, root.First())
	require.Zero(t, entries(root).Len())
	require.Same(t, values, entries(child))
	require.Equal(t, 3, child.Len())
	require.Equal(t, [][]int{{1, 2}, {3, 4}, {5, 6}}, leaves(root))

	_, err = lower(child)
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestReplaceValue(t *testing.T) {
	root := newLeaf(1, 2, 3, 4, 5, 6, 7, 8)
	require.NoError(t, split(root, 4))
	right := root.Last()
	require.NoError(t, split(root.First(), 2))
	// [4] -> ([2] -> {1 2} {3 4}) {5 6 7 8}

	left := root.First().Last()
	require.Equal(t, []int{3, 4}, handlesOf(left))

	replaced, err := replaceValue(left, 4, 40)
	require.NoError(t, err)
	require.Equal(t, 2, replaced)
	require.Equal(t, []int{3, 40}, handlesOf(left))
	require.Equal(t, []int{40}, handlesOf(root))
	require.Equal(t, []int{2}, handlesOf(root.First()))

	replaced, err = replaceValue(right, 99, 100)
	require.NoError(t, err)
	require.Zero(t, replaced)
}

func TestRemoveValueFlattenInner(t *testing.T) {
	root := newLeaf(1, 2, 3, 4, 5, 6, 7, 8)
	require.NoError(t, split(root, 4))
	inner := root.First()
	require.NoError(t, split(inner, 2))
	// [4] -> ([2] -> {1 2} {3 4}) {5 6 7 8}

	var events []string
	log := func(event string, _ *Node) { events = append(events, event) }

	leaf := inner.First()
	_, err := removeValue(leaf, 1, log)
	require.NoError(t, err)
	require.Empty(t, events)

	node, err := removeValue(leaf, 2, log)
	require.NoError(t, err)
	require.Equal(t, []string{"prune", "flatten"}, events)

	// {3 4} took the place of the inner node
	require.Same(t, root.First(), node)
	require.True(t, node.IsLeaf())
	require.Equal(t, []int{3, 4}, handlesOf(node))
	require.False(t, inner.Linked())
	require.Equal(t, 2, root.Len())
	require.Equal(t, []int{4}, handlesOf(root))

	_, err = removeValue(node, 4, log)
	require.NoError(t, err)
	require.Equal(t, []int{3}, handlesOf(root))

	_, err = removeValue(node, 4, log)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = removeValue(root, 3, log)
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestLeafNavigation(t *testing.T) {
	root := newLeaf(1, 2, 3, 4, 5, 6, 7, 8)
	require.NoError(t, split(root, 2))
	require.NoError(t, split(root.Last(), 1))

	var got [][]int
	for leaf := firstLeaf(root); leaf != nil; leaf = nextLeaf(leaf) {
		got = append(got, handlesOf(leaf))
	}
	require.Equal(t, [][]int{{1, 2}, {3, 4}, {5, 6}, {7}, {8}}, got)

	got = nil
	for leaf := lastLeaf(root); leaf != nil; leaf = prevLeaf(leaf) {
		got = append(got, handlesOf(leaf))
	}
	require.Equal(t, [][]int{{8}, {7}, {5, 6}, {3, 4}, {1, 2}}, got)
}

package tree

import (
	"cmp"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func childValues[T any](n *Node[T]) []T {
	var vals []T
	for child := n.First(); child != nil; child = child.Next() {
		vals = append(vals, child.Value())
	}
	return vals
}

func backward[T any](n *Node[T]) []T {
	var vals []T
	for child := n.Last(); child != nil; child = child.Prev() {
		vals = append(vals, child.Value())
	}
	return vals
}

// build returns root -> (a -> (a1, a2), b, c -> (c1))
func build(t *testing.T) *Node[string] {
	t.Helper()
	root := New("root")
	a, b, c := New("a"), New("b"), New("c")
	for _, child := range []*Node[string]{a, b, c} {
		require.NoError(t, root.AppendChild(child))
	}
	require.NoError(t, a.AppendChild(New("a1")))
	require.NoError(t, a.AppendChild(New("a2")))
	require.NoError(t, c.AppendChild(New("c1")))
	return root
}

func TestAppendChild(t *testing.T) {
	root := build(t)
	require.Equal(t, 3, root.Len())
	require.Equal(t, []string{"a", "b", "c"}, childValues(root))
	require.Equal(t, []string{"c", "b", "a"}, backward(root))
	require.False(t, root.IsLeaf())
	require.True(t, root.IsRoot())
	require.False(t, root.Linked())

	b := root.First().Next()
	require.Same(t, root, b.Parent())
	require.True(t, b.Linked())
	require.True(t, b.IsLeaf())

	require.ErrorIs(t, root.AppendChild(nil), ErrInvalidArgument)
	require.ErrorIs(t, root.AppendChild(root), ErrInvalidArgument)
	require.ErrorIs(t, root.AppendChild(b), ErrAlreadyLinked)
	require.ErrorIs(t, New("x").AppendChild(b), ErrAlreadyLinked)
}

func TestAppendChildCorrupted(t *testing.T) {
	root := New(0)
	root.count = 2
	require.ErrorIs(t, root.AppendChild(New(1)), ErrCorrupted)
}

func TestInsertChild(t *testing.T) {
	root := New(0)
	for _, v := range []int{30, 10, 20, 10} {
		inserted, err := root.InsertChild(New(v), cmp.Compare[int], false)
		require.NoError(t, err)
		require.True(t, inserted)
	}
	require.Equal(t, []int{10, 10, 20, 30}, childValues(root))
	require.Equal(t, []int{30, 20, 10, 10}, backward(root))

	dup := New(20)
	inserted, err := root.InsertChild(dup, cmp.Compare[int], true)
	require.NoError(t, err)
	require.False(t, inserted)
	require.False(t, dup.Linked())
	require.Equal(t, 4, root.Len())

	_, err = root.InsertChild(New(1), nil, true)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = root.InsertChild(root.First(), cmp.Compare[int], true)
	require.ErrorIs(t, err, ErrAlreadyLinked)
}

func TestRemoveChild(t *testing.T) {
	root := build(t)
	a, b, c := root.First(), root.First().Next(), root.Last()

	require.NoError(t, root.RemoveChild(b))
	require.False(t, b.Linked())
	require.Equal(t, []string{"a", "c"}, childValues(root))
	require.Equal(t, []string{"c", "a"}, backward(root))

	require.ErrorIs(t, root.RemoveChild(b), ErrInvalidArgument)
	require.ErrorIs(t, root.RemoveChild(nil), ErrInvalidArgument)
	require.ErrorIs(t, a.RemoveChild(c), ErrInvalidArgument)

	require.NoError(t, root.RemoveChild(a))
	require.NoError(t, root.RemoveChild(c))
	require.True(t, root.IsLeaf())
	require.Nil(t, root.First())
	require.Nil(t, root.Last())

	// subtrees stay with the removed child
	require.Equal(t, []string{"a1", "a2"}, childValues(a))
	require.NoError(t, root.AppendChild(a))
}

func TestRemoveChildCorrupted(t *testing.T) {
	root := build(t)
	root.first = root.first.next
	require.ErrorIs(t, root.RemoveChild(root.Last().Prev().Prev()), ErrCorrupted)
}

func TestReplaceWith(t *testing.T) {
	root := build(t)
	a, b, c := root.First(), root.First().Next(), root.Last()

	x := New("x")
	require.NoError(t, b.ReplaceWith(x))
	require.False(t, b.Linked())
	require.Equal(t, []string{"a", "x", "c"}, childValues(root))
	require.Equal(t, []string{"c", "x", "a"}, backward(root))
	require.Same(t, root, x.Parent())
	require.Equal(t, 3, root.Len())

	// edges
	y, z := New("y"), New("z")
	require.NoError(t, a.ReplaceWith(y))
	require.NoError(t, c.ReplaceWith(z))
	require.Equal(t, []string{"y", "x", "z"}, childValues(root))
	require.Same(t, y, root.First())
	require.Same(t, z, root.Last())

	// the replaced node keeps its own children
	require.Equal(t, []string{"a1", "a2"}, childValues(a))

	require.ErrorIs(t, x.ReplaceWith(y), ErrAlreadyLinked)
	require.ErrorIs(t, x.ReplaceWith(x), ErrInvalidArgument)
	require.ErrorIs(t, x.ReplaceWith(nil), ErrInvalidArgument)
	require.ErrorIs(t, root.ReplaceWith(New("r")), ErrInvalidArgument)
}

func TestEmpty(t *testing.T) {
	root := build(t)
	a := root.First()

	var freed []string
	require.NoError(t, root.Empty(func(v string) error {
		freed = append(freed, v)
		return nil
	}))
	require.Equal(t, []string{"a1", "a2", "a", "b", "c1", "c"}, freed)
	require.True(t, root.IsLeaf())
	require.Equal(t, "root", root.Value())
	require.False(t, a.Linked())
	require.Empty(t, a.Value())

	root = build(t)
	require.NoError(t, root.Empty(nil))
	require.Zero(t, root.Len())
}

func TestEmptyStops(t *testing.T) {
	root := build(t)
	stop := errors.New("stop")
	err := root.Empty(func(v string) error {
		if v == "b" {
			return stop
		}
		return nil
	})
	require.ErrorIs(t, err, stop)
	require.Equal(t, []string{"c"}, childValues(root))
}

func TestChildAndIndex(t *testing.T) {
	root := build(t)
	for i, want := range []string{"a", "b", "c"} {
		child, err := root.Child(i)
		require.NoError(t, err)
		require.Equal(t, want, child.Value())
		require.Equal(t, i, child.Index())
	}
	require.Equal(t, -1, root.Index())

	_, err := root.Child(3)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = root.Child(-1)
	require.ErrorIs(t, err, ErrOutOfRange)

	root.count = 5
	_, err = root.Child(4)
	require.ErrorIs(t, err, ErrCorrupted)
}

func TestClone(t *testing.T) {
	root := build(t)
	dup, err := root.Clone(func(v string) (string, error) { return v + "'", nil }, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"a1'", "a2'", "b'", "c1'"}, dup.LeafValues(nil))
	require.Equal(t, "root'", dup.Value())
	require.Equal(t, []string{"a1", "a2", "b", "c1"}, root.LeafValues(nil))
	require.NotSame(t, root.First(), dup.First())

	var freed []string
	_, err = root.Clone(func(v string) (string, error) {
		if v == "c1" {
			return "", errors.New("no clone")
		}
		return v, nil
	}, func(v string) error {
		freed = append(freed, v)
		return nil
	})
	require.Error(t, err)
	require.Equal(t, []string{"c", "a1", "a2", "a", "b", "root"}, freed)

	_, err = root.Clone(nil, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestLeavesAndDepth(t *testing.T) {
	root := build(t)
	var leaves []string
	for leaf := range root.Leaves() {
		leaves = append(leaves, leaf.Value())
		if leaf.Value() == "b" {
			break
		}
	}
	require.Equal(t, []string{"a1", "a2", "b"}, leaves)
	require.Equal(t, []string{"a1", "a2", "b", "c1"}, root.LeafValues(nil))
	require.Equal(t, 3, root.Depth())

	single := New("solo")
	require.Equal(t, []string{"solo"}, single.LeafValues(nil))
	require.Equal(t, 1, single.Depth())
}

func TestInsertAfter(t *testing.T) {
	root := build(t)
	a, c := root.First(), root.Last()

	x, y := New("x"), New("y")
	require.NoError(t, root.InsertAfter(x, a))
	require.NoError(t, root.InsertAfter(y, c))
	require.Equal(t, []string{"a", "x", "b", "c", "y"}, childValues(root))
	require.Equal(t, []string{"y", "c", "b", "x", "a"}, backward(root))
	require.Same(t, y, root.Last())
	require.Equal(t, 5, root.Len())
	require.Equal(t, 1, x.Index())

	require.ErrorIs(t, root.InsertAfter(New("z"), nil), ErrInvalidArgument)
	require.ErrorIs(t, root.InsertAfter(New("z"), a.First()), ErrInvalidArgument)
	require.ErrorIs(t, root.InsertAfter(x, a), ErrAlreadyLinked)

	root.last = x
	require.ErrorIs(t, root.InsertAfter(New("z"), y), ErrCorrupted)
}

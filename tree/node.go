// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// Package tree provides a generic N-ary tree node.
//
// A Node owns its children: emptying a node tears down its whole subtree.
// Parent and sibling pointers are back-references only. A node that is linked
// into a tree (it has a parent or a sibling) cannot be appended, inserted or
// swapped in elsewhere before it is removed from its current parent.
//
// Not thread-safe.
package tree

import (
	"iter"

	"github.com/cockroachdb/errors"
)

// Node is a tree node holding one value and an ordered sequence of children.
type Node[T any] struct {
	value T

	parent     *Node[T]
	prev, next *Node[T]

	first, last *Node[T]
	count       int
}

// New returns an unlinked node without children.
func New[T any](value T) *Node[T] {
	return &Node[T]{value: value}
}

func (n *Node[T]) Value() T {
	return n.value
}

func (n *Node[T]) SetValue(value T) {
	n.value = value
}

func (n *Node[T]) Parent() *Node[T] {
	return n.parent
}

// First returns the first child or nil.
func (n *Node[T]) First() *Node[T] {
	return n.first
}

// Last returns the last child or nil.
func (n *Node[T]) Last() *Node[T] {
	return n.last
}

// Prev returns the previous sibling or nil.
func (n *Node[T]) Prev() *Node[T] {
	return n.prev
}

// Next returns the next sibling or nil.
func (n *Node[T]) Next() *Node[T] {
	return n.next
}

// Len returns the number of children.
func (n *Node[T]) Len() int {
	return n.count
}

// IsLeaf reports whether n has no children.
func (n *Node[T]) IsLeaf() bool {
	return n.count == 0
}

// IsRoot reports whether n has no parent.
func (n *Node[T]) IsRoot() bool {
	return n.parent == nil
}

// Linked reports whether n is attached to a parent or to siblings.
func (n *Node[T]) Linked() bool {
	return n.parent != nil || n.prev != nil || n.next != nil
}

// AppendChild adds child after the last child of n.
func (n *Node[T]) AppendChild(child *Node[T]) error {
	if err := n.checkInsert(child); err != nil {
		return err
	}
	if (n.last == nil) != (n.count == 0) {
		return corruptedf("append child: last child %v with count %d", n.last != nil, n.count)
	}
	n.link(child, n.last, nil)
	return nil
}

// InsertAfter adds child immediately after mark, which must be a child of n.
func (n *Node[T]) InsertAfter(child, mark *Node[T]) error {
	if err := n.checkInsert(child); err != nil {
		return err
	}
	if mark == nil || mark.parent != n {
		return errors.Wrap(ErrInvalidArgument, "insert after: mark is not a child")
	}
	if mark.next == nil && n.last != mark {
		return corruptedf("insert after: last child mismatch")
	}
	n.link(child, mark, mark.next)
	return nil
}

// InsertChild adds child before the first child whose value compares greater.
// It serves nodes kept in value order, such as sorted child sets; the btree
// package positions its children explicitly instead.
//
// When unique is true and a child with an equal value exists, child is left
// unlinked and InsertChild returns false.
func (n *Node[T]) InsertChild(child *Node[T], cmp func(a, b T) int, unique bool) (bool, error) {
	if err := n.checkInsert(child); err != nil {
		return false, err
	}
	if cmp == nil {
		return false, errors.Wrap(ErrInvalidArgument, "insert child: nil compare")
	}
	var mark *Node[T]
	seen := 0
	for mark = n.first; mark != nil; mark = mark.next {
		c := cmp(child.value, mark.value)
		if c == 0 && unique {
			return false, nil
		}
		if c < 0 {
			break
		}
		seen++
	}
	if mark == nil && seen != n.count {
		return false, corruptedf("insert child: walked %d children, count %d", seen, n.count)
	}
	if mark == nil {
		n.link(child, n.last, nil)
	} else {
		n.link(child, mark.prev, mark)
	}
	return true, nil
}

// RemoveChild unlinks child from n. The child keeps its own subtree.
func (n *Node[T]) RemoveChild(child *Node[T]) error {
	if child == nil || child.parent != n {
		return errors.Wrap(ErrInvalidArgument, "remove child: not a child")
	}
	if n.count == 0 {
		return corruptedf("remove child: parent has zero children")
	}
	if child.prev == nil {
		if n.first != child {
			return corruptedf("remove child: first child mismatch")
		}
		n.first = child.next
	} else {
		child.prev.next = child.next
	}
	if child.next == nil {
		if n.last != child {
			return corruptedf("remove child: last child mismatch")
		}
		n.last = child.prev
	} else {
		child.next.prev = child.prev
	}
	n.count--
	child.parent, child.prev, child.next = nil, nil, nil
	return nil
}

// ReplaceWith puts other at the position n occupies in its parent and
// unlinks n. Children of both nodes are left where they are.
func (n *Node[T]) ReplaceWith(other *Node[T]) error {
	if other == nil || other == n {
		return errors.Wrap(ErrInvalidArgument, "replace: bad replacement")
	}
	if other.Linked() {
		return errors.Wrap(ErrAlreadyLinked, "replace: replacement is linked")
	}
	parent := n.parent
	if parent == nil {
		return errors.Wrap(ErrInvalidArgument, "replace: node has no parent")
	}
	if n.prev == nil && parent.first != n {
		return corruptedf("replace: first child mismatch")
	}
	if n.next == nil && parent.last != n {
		return corruptedf("replace: last child mismatch")
	}

	other.parent, other.prev, other.next = parent, n.prev, n.next
	if n.prev == nil {
		parent.first = other
	} else {
		n.prev.next = other
	}
	if n.next == nil {
		parent.last = other
	} else {
		n.next.prev = other
	}
	n.parent, n.prev, n.next = nil, nil, nil
	return nil
}

// Empty tears down every child of n, depth first. When free is not nil it is
// called on the value of each removed node after its own children are gone.
func (n *Node[T]) Empty(free func(T) error) error {
	for child := n.first; child != nil; child = n.first {
		if err := child.Empty(free); err != nil {
			return err
		}
		if err := n.RemoveChild(child); err != nil {
			return err
		}
		if free != nil {
			if err := free(child.value); err != nil {
				return err
			}
		}
		var zero T
		child.value = zero
	}
	if n.count != 0 || n.last != nil {
		return corruptedf("empty: %d children left after unlinking all", n.count)
	}
	return nil
}

// Child returns the child at position i.
func (n *Node[T]) Child(i int) (*Node[T], error) {
	if i < 0 || i >= n.count {
		return nil, errors.Wrapf(ErrOutOfRange, "child %d of %d", i, n.count)
	}
	child := n.first
	for range i {
		if child == nil {
			break
		}
		child = child.next
	}
	if child == nil {
		return nil, corruptedf("child %d: fewer linked children than count %d", i, n.count)
	}
	return child, nil
}

// Index returns the position of n among its siblings, or -1 for a root.
func (n *Node[T]) Index() int {
	if n.parent == nil {
		return -1
	}
	i := 0
	for prev := n.prev; prev != nil; prev = prev.prev {
		i++
	}
	return i
}

// Clone returns a deep copy of the subtree rooted at n. Values are copied
// through clone. If cloning fails part way, free is called on every value
// already cloned and the partial copy is discarded.
func (n *Node[T]) Clone(clone func(T) (T, error), free func(T) error) (*Node[T], error) {
	if clone == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "clone: nil clone function")
	}
	value, err := clone(n.value)
	if err != nil {
		return nil, err
	}
	dst := New(value)
	for child := n.first; child != nil; child = child.next {
		sub, err := child.Clone(clone, free)
		if err == nil {
			err = dst.AppendChild(sub)
		}
		if err != nil {
			if ferr := dst.Empty(free); ferr != nil {
				err = errors.CombineErrors(err, ferr)
			}
			if free != nil {
				if ferr := free(dst.value); ferr != nil {
					err = errors.CombineErrors(err, ferr)
				}
			}
			return nil, err
		}
	}
	return dst, nil
}

// LeafValues appends the value of every leaf under n, left to right, to dst.
func (n *Node[T]) LeafValues(dst []T) []T {
	for leaf := range n.Leaves() {
		dst = append(dst, leaf.value)
	}
	return dst
}

// Leaves implements iter.Seq, yielding the leaves under n left to right.
// A node without children yields itself.
func (n *Node[T]) Leaves() iter.Seq[*Node[T]] {
	return func(yield func(*Node[T]) bool) {
		n.leaves(yield)
	}
}

func (n *Node[T]) leaves(yield func(*Node[T]) bool) bool {
	if n.first == nil {
		return yield(n)
	}
	for child := n.first; child != nil; child = child.next {
		if !child.leaves(yield) {
			return false
		}
	}
	return true
}

// Depth returns the number of levels in the subtree rooted at n.
func (n *Node[T]) Depth() int {
	depth := 0
	for child := n.first; child != nil; child = child.next {
		depth = max(depth, child.Depth())
	}
	return depth + 1
}

func (n *Node[T]) checkInsert(child *Node[T]) error {
	if child == nil || child == n {
		return errors.Wrap(ErrInvalidArgument, "bad child")
	}
	if child.Linked() {
		return errors.Wrap(ErrAlreadyLinked, "child is linked")
	}
	return nil
}

func (n *Node[T]) link(child, prev, next *Node[T]) {
	child.parent = n
	child.prev, child.next = prev, next
	if prev == nil {
		n.first = child
	} else {
		prev.next = child
	}
	if next == nil {
		n.last = child
	} else {
		next.prev = child
	}
	n.count++
}

// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package btree

import "github.com/dacapoday/btindex/iterator"

// Cursor creates an iterator that stays synchronized with the tree (not a
// snapshot). Call SeekFirst, SeekLast or Seek to position it before use.
//
// After the tree is modified the cursor re-seeks to the first value not less
// than the one it was positioned at.
func (t *BTree[V]) Cursor() *Cursor[V] {
	t.rlock()
	defer t.runlock()
	return &Cursor[V]{tree: t, version: t.version}
}

// Cursor is a bidirectional iterator over a BTree in ascending order.
type Cursor[V any] struct {
	tree    *BTree[V]
	leaf    *Node
	elem    *element
	val     V
	version uint64
	err     error
}

var _ iterator.Iterator[int] = (*Cursor[int])(nil)

// Clone creates an independent copy of the cursor at its current position.
func (c *Cursor[V]) Clone() *Cursor[V] {
	dup := *c
	return &dup
}

func (c *Cursor[V]) sync() bool {
	if c.elem == nil {
		c.version = c.tree.version
		return false
	}
	return c.seek(c.val)
}

func (c *Cursor[V]) current() bool {
	if c.version != c.tree.version {
		return c.sync()
	}
	return c.elem != nil
}

// Valid returns true if positioned at a value.
func (c *Cursor[V]) Valid() bool {
	c.tree.rlock()
	defer c.tree.runlock()
	return c.current()
}

// Error returns the error that stopped the cursor, if any.
func (c *Cursor[V]) Error() error {
	return c.err
}

// Value returns the current value, or the zero value if not positioned.
func (c *Cursor[V]) Value() V {
	c.tree.rlock()
	defer c.tree.runlock()
	if !c.current() {
		var zero V
		return zero
	}
	return c.tree.values[c.elem.Value()].val
}

// Entry returns the index, value and leaf at the current position.
func (c *Cursor[V]) Entry() (entry Entry[V], ok bool) {
	c.tree.rlock()
	defer c.tree.runlock()
	if !c.current() {
		return entry, false
	}
	return c.tree.entry(c.leaf, c.elem.Value()), true
}

// Next advances to the next value. Returns false if there are no more values.
func (c *Cursor[V]) Next() bool {
	c.tree.rlock()
	defer c.tree.runlock()
	if !c.current() {
		return false
	}
	if next := c.elem.Next(); next != nil {
		return c.set(c.leaf, next)
	}
	leaf := nextLeaf(c.leaf)
	if leaf == nil {
		return c.clear()
	}
	return c.set(leaf, entries(leaf).Front())
}

// Prev moves to the previous value. Returns false if there are no more values.
func (c *Cursor[V]) Prev() bool {
	c.tree.rlock()
	defer c.tree.runlock()
	if !c.current() {
		return false
	}
	if prev := c.elem.Prev(); prev != nil {
		return c.set(c.leaf, prev)
	}
	leaf := prevLeaf(c.leaf)
	if leaf == nil {
		return c.clear()
	}
	return c.set(leaf, entries(leaf).Back())
}

// SeekFirst positions the cursor at the smallest value. Returns false if the tree is empty.
func (c *Cursor[V]) SeekFirst() bool {
	c.tree.rlock()
	defer c.tree.runlock()
	c.version = c.tree.version
	leaf := firstLeaf(c.tree.root)
	return c.set(leaf, entries(leaf).Front())
}

// SeekLast positions the cursor at the greatest value. Returns false if the tree is empty.
func (c *Cursor[V]) SeekLast() bool {
	c.tree.rlock()
	defer c.tree.runlock()
	c.version = c.tree.version
	leaf := lastLeaf(c.tree.root)
	return c.set(leaf, entries(leaf).Back())
}

// Seek positions the cursor at the first value >= val.
// Returns false if no such value exists.
func (c *Cursor[V]) Seek(val V) bool {
	c.tree.rlock()
	defer c.tree.runlock()
	return c.seek(val)
}

func (c *Cursor[V]) seek(val V) bool {
	c.version = c.tree.version
	leaf, e, _, err := upperNode(c.tree.root, c.tree.probe(val))
	if err != nil {
		c.err = err
		return c.clear()
	}
	if e == nil {
		if leaf = nextLeaf(leaf); leaf == nil {
			return c.clear()
		}
		e = entries(leaf).Front()
	}
	return c.set(leaf, e)
}

func (c *Cursor[V]) set(leaf *Node, e *element) bool {
	if e == nil {
		return c.clear()
	}
	c.leaf, c.elem = leaf, e
	c.val = c.tree.values[e.Value()].val
	return true
}

func (c *Cursor[V]) clear() bool {
	var zero V
	c.leaf, c.elem, c.val = nil, nil, zero
	return false
}

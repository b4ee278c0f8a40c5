// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package btree

import (
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

// Check walks the whole tree and reports the first invariant it finds broken.
// Any error it returns is marked as ErrCorrupted.
func (t *BTree[V]) Check() error {
	t.rlock()
	defer t.runlock()
	return t.check()
}

type checker[V any] struct {
	t     *BTree[V]
	last  int
	count int
}

func (t *BTree[V]) check() error {
	if entries(t.root) == nil {
		return corruptedf("root without list")
	}
	if !t.root.IsRoot() {
		return corruptedf("root has a parent")
	}
	c := checker[V]{t: t, last: InvalidIndex}
	if _, err := c.node(t.root); err != nil {
		return err
	}
	if c.count != t.live {
		return corruptedf("%d values in leaves, %d live in index", c.count, t.live)
	}
	return nil
}

// node checks the subtree under n and returns its greatest handle.
func (c *checker[V]) node(n *Node) (greatest int, err error) {
	values := entries(n)
	if values == nil {
		return InvalidIndex, corruptedf("node without list")
	}
	for h := range values.All() {
		if h < 0 || h >= len(c.t.values) || !c.t.values[h].live {
			return InvalidIndex, corruptedf("handle %d is not a live index", h)
		}
	}

	if n.IsLeaf() {
		if values.Len() == 0 && !n.IsRoot() {
			return InvalidIndex, corruptedf("empty leaf below the root")
		}
		if values.Len() >= c.t.maxValues && values.Len() > c.t.splitSize {
			return InvalidIndex, corruptedf("leaf holds %d values, max %d", values.Len(), c.t.maxValues)
		}
		for h := range values.All() {
			if c.last != InvalidIndex && c.t.compareHandles(c.last, h) >= 0 {
				return InvalidIndex, corruptedf("handle %d out of order after %d", h, c.last)
			}
			c.last = h
			c.count++
		}
		if values.Len() == 0 {
			return InvalidIndex, nil
		}
		return values.Back().Value(), nil
	}

	if n.Len() < 2 {
		return InvalidIndex, corruptedf("internal node with %d children", n.Len())
	}
	if values.Len()+1 != n.Len() {
		return InvalidIndex, corruptedf("%d separators for %d children", values.Len(), n.Len())
	}
	if values.Len() >= c.t.maxSeparators {
		return InvalidIndex, corruptedf("internal node holds %d separators, max %d", values.Len(), c.t.maxSeparators-1)
	}
	e := values.Front()
	for child := n.First(); child != nil; child = child.Next() {
		if child.Parent() != n {
			return InvalidIndex, corruptedf("child linked to another parent")
		}
		if greatest, err = c.node(child); err != nil {
			return InvalidIndex, err
		}
		if e == nil {
			continue
		}
		if e.Value() != greatest {
			return InvalidIndex, corruptedf("separator %d, greatest of left subtree %d", e.Value(), greatest)
		}
		e = e.Next()
	}
	return greatest, nil
}

// Stats describes the shape of a tree.
type Stats struct {
	Depth      int
	Nodes      int
	Leaves     int
	Live       int
	Tombstones int
}

// Stats returns the current shape of the tree.
func (t *BTree[V]) Stats() (s Stats) {
	t.rlock()
	defer t.runlock()

	s.Depth = t.root.Depth()
	var walk func(n *Node)
	walk = func(n *Node) {
		s.Nodes++
		if n.IsLeaf() {
			s.Leaves++
		}
		for child := n.First(); child != nil; child = child.Next() {
			walk(child)
		}
	}
	walk(t.root)
	s.Live = t.live
	s.Tombstones = len(t.values) - t.live
	return
}

// Dump writes one line per node, indented by depth. Separators are shown
// in brackets, leaf values in braces, each as index:value.
func (t *BTree[V]) Dump(w io.Writer) error {
	t.rlock()
	defer t.runlock()
	return t.dump(w, t.root, 0)
}

func (t *BTree[V]) dump(w io.Writer, n *Node, depth int) error {
	open, end := "{", "}"
	if !n.IsLeaf() {
		open, end = "[", "]"
	}
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(open)
	first := true
	for h := range entries(n).All() {
		if !first {
			b.WriteString(" ")
		}
		first = false
		fmt.Fprintf(&b, "%d:%v", h, t.values[h].val)
	}
	b.WriteString(end)
	b.WriteString("\n")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return errors.Wrap(err, "dump")
	}
	for child := n.First(); child != nil; child = child.Next() {
		if err := t.dump(w, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

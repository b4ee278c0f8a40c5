// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package btree

import (
	"github.com/cockroachdb/errors"

	"github.com/dacapoday/btindex/list"
	"github.com/dacapoday/btindex/tree"
)

// Node is a tree node whose value is the sorted list of handles it holds.
// A leaf holds data handles, an internal node holds one separator fewer
// than it has children.
type Node = tree.Node[*list.List[int]]

type element = list.Element[int]

// probe compares a searched value against the value behind a handle.
// Without a compare function only the very same handle is equal and
// everything else compares greater.
type probe struct {
	handle  int
	compare func(h int) int
}

func identity(h int) probe {
	return probe{handle: h}
}

func (p probe) against(h int) int {
	if p.compare == nil {
		if h == p.handle {
			return 0
		}
		return 1
	}
	return p.compare(h)
}

func entries(node *Node) *list.List[int] {
	return node.Value()
}

// subNode walks the separators of node and its children in lock-step.
// Separator i sits between child i and child i+1.
//
// On an internal node it returns the child before the first separator not
// less than the probe, that separator and whether it is equal. When every
// separator is less, the last child is returned without element.
//
// On a leaf it returns no child; the element is the first entry not less than
// the probe, i.e. the match or the insertion position (nil means append).
func subNode(node *Node, p probe) (child *Node, e *element, found bool, err error) {
	values := entries(node)
	if node.IsLeaf() {
		for e = values.Front(); e != nil; e = e.Next() {
			if c := p.against(e.Value()); c <= 0 {
				return nil, e, c == 0, nil
			}
		}
		return nil, nil, false, nil
	}

	if values.Len()+1 != node.Len() {
		return nil, nil, false, corruptedf("sub node: %d separators for %d children", values.Len(), node.Len())
	}
	child = node.First()
	for e = values.Front(); e != nil; e = e.Next() {
		if child == nil {
			return nil, nil, false, corruptedf("sub node: children end before separators")
		}
		if c := p.against(e.Value()); c <= 0 {
			return child, e, c == 0, nil
		}
		child = child.Next()
	}
	return child, nil, false, nil
}

// upperNode descends from node to the leaf that holds or should hold the
// probed value. The element is the match when found, otherwise the
// insertion position inside the leaf.
func upperNode(node *Node, p probe) (leaf *Node, e *element, found bool, err error) {
	for {
		child, e, found, err := subNode(node, p)
		if err != nil {
			return nil, nil, false, err
		}
		if child == nil {
			return node, e, found, nil
		}
		node = child
	}
}

// insertValue adds handle h to the sorted list of leaf, rejecting duplicates.
func insertValue(leaf *Node, h int, cmp func(a, b int) int) (e *element, inserted bool, err error) {
	if !leaf.IsLeaf() {
		return nil, false, errors.Wrap(ErrUnsupported, "insert value: node has children")
	}
	values := entries(leaf)
	if values == nil {
		values = list.New[int]()
		leaf.SetValue(values)
	}
	return values.InsertOrdered(h, cmp, true)
}

// split turns an overflowing leaf into an internal node. Its values are
// dealt, in order, to new leaf children of at most size values each; the last
// value of every child but the final one becomes a separator of node.
//
// On failure node gets its old list back and the new children are dropped.
func split(node *Node, size int) (err error) {
	if !node.IsLeaf() {
		return errors.Wrap(ErrUnsupported, "split: node has children")
	}
	old := entries(node)
	count := old.Len()
	if size < 1 || count <= size {
		return errors.Wrapf(ErrUnsupported, "split: %d values into children of %d", count, size)
	}

	parts := (count + size - 1) / size
	separators := list.New[int]()
	children := make([]*Node, 0, parts)
	defer func() {
		if err == nil {
			return
		}
		for _, child := range children {
			if rerr := node.RemoveChild(child); rerr != nil {
				err = errors.CombineErrors(err, rerr)
			}
		}
		node.SetValue(old)
	}()

	e := old.Front()
	for i := range parts {
		// spread the remainder over the first children
		want := count / parts
		if i < count%parts {
			want++
		}
		values := list.New[int]()
		for ; e != nil && values.Len() < want; e = e.Next() {
			values.Append(e.Value())
		}
		if values.Len() == 0 {
			return corruptedf("split: list ended after %d of %d children", i, parts)
		}
		child := tree.New(values)
		if err = node.AppendChild(child); err != nil {
			return err
		}
		children = append(children, child)
		if i < parts-1 {
			separators.Append(values.Back().Value())
		}
	}
	if e != nil {
		return corruptedf("split: values left after dealing %d children", parts)
	}

	node.SetValue(separators)
	return old.Empty(nil)
}

// absorb folds node, an internal child of parent, into parent: its children
// take its place and its separators go in front of the separator that
// bounded it. node is left unlinked and empty.
func absorb(parent, node *Node) error {
	if node.Parent() != parent || node.IsLeaf() {
		return errors.Wrap(ErrInvalidArgument, "absorb: not an internal child")
	}
	separators := entries(parent)
	if separators.Len()+1 != parent.Len() {
		return corruptedf("absorb: %d separators for %d children", separators.Len(), parent.Len())
	}
	mark, err := boundOf(parent, node)
	if err != nil {
		return err
	}
	for h := range entries(node).All() {
		if err = insertBefore(separators, h, mark); err != nil {
			return err
		}
	}

	prev := node
	for child := node.First(); child != nil; child = node.First() {
		if err = node.RemoveChild(child); err != nil {
			return err
		}
		if err = parent.InsertAfter(child, prev); err != nil {
			return err
		}
		prev = child
	}
	if err = parent.RemoveChild(node); err != nil {
		return err
	}
	return entries(node).Empty(nil)
}

// divide moves the right half of the children of node, an internal node
// below the root, to a new sibling after it. The separator between the
// halves moves up into the parent.
func divide(node *Node) (*Node, error) {
	parent := node.Parent()
	if parent == nil || node.Len() < 4 {
		return nil, errors.Wrapf(ErrUnsupported, "divide: %d children", node.Len())
	}
	separators := entries(node)
	if separators.Len()+1 != node.Len() {
		return nil, corruptedf("divide: %d separators for %d children", separators.Len(), node.Len())
	}
	mark, err := boundOf(parent, node)
	if err != nil {
		return nil, err
	}
	keep := node.Len() / 2
	boundary, err := separators.Element(keep - 1)
	if err != nil {
		return nil, err
	}
	child, err := node.Child(keep)
	if err != nil {
		return nil, err
	}

	sibling := tree.New(list.New[int]())
	for e := boundary.Next(); e != nil; e = boundary.Next() {
		entries(sibling).Append(e.Value())
		if err = separators.Remove(e); err != nil {
			return nil, err
		}
	}
	for child != nil {
		next := child.Next()
		if err = node.RemoveChild(child); err != nil {
			return nil, err
		}
		if err = sibling.AppendChild(child); err != nil {
			return nil, err
		}
		child = next
	}
	h := boundary.Value()
	if err = separators.Remove(boundary); err != nil {
		return nil, err
	}
	if err = parent.InsertAfter(sibling, node); err != nil {
		return nil, err
	}
	return sibling, insertBefore(entries(parent), h, mark)
}

// lower moves the list and children of root into a new only child, so that
// the root can grow by one level and keep its identity.
func lower(root *Node) (*Node, error) {
	if !root.IsRoot() {
		return nil, errors.Wrap(ErrUnsupported, "lower: node has a parent")
	}
	child := tree.New(entries(root))
	for c := root.First(); c != nil; c = root.First() {
		if err := root.RemoveChild(c); err != nil {
			return nil, err
		}
		if err := child.AppendChild(c); err != nil {
			return nil, err
		}
	}
	root.SetValue(list.New[int]())
	return child, root.AppendChild(child)
}

// boundOf returns the separator of parent that bounds child from above, or
// nil for the last child.
func boundOf(parent, child *Node) (*element, error) {
	if index := child.Index(); index < entries(parent).Len() {
		return entries(parent).Element(index)
	}
	return nil, nil
}

func insertBefore(values *list.List[int], h int, mark *element) error {
	if mark == nil {
		values.Append(h)
		return nil
	}
	_, err := values.InsertBefore(h, mark)
	return err
}

// replaceValue swaps handle h for replacement in node and in every ancestor
// that holds h as a separator. It returns how many entries were rewritten.
func replaceValue(node *Node, h, replacement int) (replaced int, err error) {
	for ; node != nil; node = node.Parent() {
		_, e, found, err := subNode(node, identity(h))
		if err != nil {
			return replaced, err
		}
		if found {
			e.SetValue(replacement)
			replaced++
		}
	}
	return replaced, nil
}

// removeValue unlinks handle h from leaf and repairs the ancestors:
//   - a leaf left empty is pruned together with one separator of its parent
//   - a node left with a single child is flattened into its position
//   - a separator that named h is rewritten to the new greatest handle of the
//     subtree on its left
//
// It returns the node that took over the position of leaf, which is leaf
// itself unless the leaf was pruned or flattened away.
func removeValue(leaf *Node, h int, log func(event string, node *Node)) (*Node, error) {
	if !leaf.IsLeaf() {
		return nil, errors.Wrap(ErrUnsupported, "remove value: node has children")
	}
	_, e, found, err := subNode(leaf, identity(h))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.Wrapf(ErrNotFound, "remove value: handle %d not in leaf", h)
	}

	replacement := -1
	if e.Next() == nil && e.Prev() != nil {
		// only the greatest value of a leaf can be a separator above it
		replacement = e.Prev().Value()
	}
	values := entries(leaf)
	if err = values.Remove(e); err != nil {
		return nil, err
	}

	node := leaf
	parent := leaf.Parent()
	if parent != nil && values.Len() == 0 {
		if replacement, err = prune(parent, leaf); err != nil {
			return nil, err
		}
		log("prune", parent)
		node = parent
		if parent.Len() == 1 {
			if node, err = flatten(parent); err != nil {
				return nil, err
			}
			log("flatten", node)
		}
		parent = node.Parent()
	}

	if replacement >= 0 && parent != nil {
		if _, err = replaceValue(parent, h, replacement); err != nil {
			return nil, err
		}
	}
	return node, nil
}

// prune detaches the empty leaf child from parent and drops the separator
// bounding it. When child was the last child, the last separator goes and
// is returned as the new greatest handle of parent's subtree.
func prune(parent, child *Node) (replacement int, err error) {
	index := child.Index()
	separators := entries(parent)
	if parent.Len() < 2 || separators.Len()+1 != parent.Len() {
		return -1, corruptedf("prune: %d separators for %d children", separators.Len(), parent.Len())
	}

	replacement = -1
	var e *element
	if index < separators.Len() {
		e, err = separators.Element(index)
	} else {
		e = separators.Back()
		replacement = e.Value()
	}
	if err != nil {
		return -1, err
	}
	if err = parent.RemoveChild(child); err != nil {
		return -1, err
	}
	if err = separators.Remove(e); err != nil {
		return -1, err
	}
	return replacement, nil
}

// flatten collapses node, which has exactly one child, with that child.
// A non-root node is replaced by its child in the tree. The root adopts the
// child's list and grandchildren instead so that it keeps its identity.
func flatten(node *Node) (*Node, error) {
	sole := node.First()
	if node.Len() != 1 || sole == nil {
		return nil, corruptedf("flatten: node has %d children", node.Len())
	}
	if entries(node).Len() != 0 {
		return nil, corruptedf("flatten: single child with %d separators", entries(node).Len())
	}
	if err := node.RemoveChild(sole); err != nil {
		return nil, err
	}

	if !node.IsRoot() {
		if err := node.ReplaceWith(sole); err != nil {
			return nil, err
		}
		return sole, nil
	}

	if err := entries(sole).MoveTo(entries(node)); err != nil {
		return nil, err
	}
	for child := sole.First(); child != nil; child = sole.First() {
		if err := sole.RemoveChild(child); err != nil {
			return nil, err
		}
		if err := node.AppendChild(child); err != nil {
			return nil, err
		}
	}
	return node, nil
}

// firstLeaf and lastLeaf descend along the outer edge of the subtree.
func firstLeaf(node *Node) *Node {
	for !node.IsLeaf() {
		node = node.First()
	}
	return node
}

func lastLeaf(node *Node) *Node {
	for !node.IsLeaf() {
		node = node.Last()
	}
	return node
}

// nextLeaf returns the leaf following node in key order, or nil.
func nextLeaf(node *Node) *Node {
	for ; node != nil; node = node.Parent() {
		if next := node.Next(); next != nil {
			return firstLeaf(next)
		}
	}
	return nil
}

// prevLeaf returns the leaf preceding node in key order, or nil.
func prevLeaf(node *Node) *Node {
	for ; node != nil; node = node.Parent() {
		if prev := node.Prev(); prev != nil {
			return lastLeaf(prev)
		}
	}
	return nil
}

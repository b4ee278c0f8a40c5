// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// Package btree provides an in-memory balanced tree of opaque values with
// ordered lookup and positional access.
//
// A BTree keeps two views of the same values:
//   - a flat index, append-only, giving each inserted value a stable index
//   - a tree of nodes whose sorted lists hold those indexes as handles
//
// The flat index owns the values. Tree nodes only refer to them, so a value
// that is a leaf entry and a separator in one or more ancestors at the same
// time is still released exactly once by Destroy.
//
// Example usage:
//
//	t, _ := btree.New(4, cmp.Compare[int], nil)
//	entry, inserted, _ := t.Insert(7)
//	found, ok, _ := t.Find(7)                        // found.Index == entry.Index
//	_ = t.Remove(found.Leaf, found.Index, found.Value) // slot is tombstoned
//
// Leaf handles returned in an Entry are only valid until the next mutation
// of the tree; Replace and Remove reject handles that went stale.
package btree

import (
	"iter"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/dacapoday/btindex"
	"github.com/dacapoday/btindex/list"
	"github.com/dacapoday/btindex/tree"
)

// InvalidIndex is never the index of a value.
const InvalidIndex = -1

// BTree is an ordered index of values of type V.
//
// Not thread-safe unless created with the Locking option. The lock makes
// every single call atomic; a sequence of calls (Find then Remove, say) still
// needs external coordination.
type BTree[V any] struct {
	root    *Node
	values  []slot[V]
	live    int
	version uint64

	cmp       btindex.Compare[V]
	maxValues int
	splitSize int

	// internal nodes hold fewer separators than this
	maxSeparators int

	mutex *sync.RWMutex
	log   logrus.FieldLogger
}

type slot[V any] struct {
	val  V
	live bool
}

// Entry locates a value: its index in the flat index and the leaf holding it.
type Entry[V any] struct {
	Value V
	Index int
	Leaf  *Node
}

// New creates an empty tree. Leaves are split when they reach
// maxValuesPerNode values. opt may be nil or implement any of the option
// interfaces of this package.
func New[V any](maxValuesPerNode int, cmp btindex.Compare[V], opt any) (*BTree[V], error) {
	if maxValuesPerNode <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "max values per node %d", maxValuesPerNode)
	}
	if cmp == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "nil compare")
	}
	splitSize := getSplitSize(opt, maxValuesPerNode)
	if splitSize < 1 || (maxValuesPerNode > 1 && splitSize >= maxValuesPerNode) {
		return nil, errors.Wrapf(ErrInvalidArgument, "split size %d for max values per node %d", splitSize, maxValuesPerNode)
	}

	t := &BTree[V]{
		root:      tree.New(list.New[int]()),
		cmp:       cmp,
		maxValues: maxValuesPerNode,
		splitSize: splitSize,
		log:       getLogger(opt),

		maxSeparators: max(maxValuesPerNode, 3),
	}
	if getLocking(opt) {
		t.mutex = new(sync.RWMutex)
	}
	return t, nil
}

// Count returns the length of the flat index, removed slots included.
func (t *BTree[V]) Count() int {
	t.rlock()
	defer t.runlock()
	return len(t.values)
}

// Len returns the number of values currently in the tree.
func (t *BTree[V]) Len() int {
	t.rlock()
	defer t.runlock()
	return t.live
}

// Get returns the value at index i of the flat index.
func (t *BTree[V]) Get(i int) (val V, err error) {
	t.rlock()
	defer t.runlock()
	return t.get(i)
}

func (t *BTree[V]) get(i int) (val V, err error) {
	if i < 0 || i >= len(t.values) {
		return val, errors.Wrapf(ErrOutOfRange, "index %d of %d", i, len(t.values))
	}
	if !t.values[i].live {
		return val, errors.Wrapf(ErrRemoved, "index %d", i)
	}
	return t.values[i].val, nil
}

// Find looks up the value comparing equal to val.
func (t *BTree[V]) Find(val V) (entry Entry[V], found bool, err error) {
	t.rlock()
	defer t.runlock()

	leaf, e, found, err := upperNode(t.root, t.probe(val))
	if err != nil || !found {
		return entry, false, err
	}
	return t.entry(leaf, e.Value()), true, nil
}

// Insert adds val unless an equal value exists, in which case the existing
// entry is returned with inserted == false and the tree is left unchanged.
func (t *BTree[V]) Insert(val V) (entry Entry[V], inserted bool, err error) {
	t.lock()
	defer t.unlock()

	p := t.probe(val)
	leaf, e, found, err := upperNode(t.root, p)
	if err != nil {
		return entry, false, err
	}
	if found {
		return t.entry(leaf, e.Value()), false, nil
	}

	h := len(t.values)
	t.values = append(t.values, slot[V]{val, true})
	if e, inserted, err = insertValue(leaf, h, t.compareHandles); err != nil || !inserted {
		t.values = t.values[:h]
		if err == nil {
			// an equal value slipped past the descent; report it like Find
			return t.entry(leaf, e.Value()), false, nil
		}
		return entry, false, err
	}

	if n := entries(leaf).Len(); n >= t.maxValues && n > t.splitSize {
		if err = split(leaf, t.splitSize); err != nil {
			if rerr := entries(leaf).Remove(e); rerr != nil {
				err = errors.CombineErrors(err, rerr)
			}
			t.values = t.values[:h]
			return entry, false, err
		}
		t.event("split", leaf)
	}

	t.live++
	t.version++
	if !leaf.IsLeaf() {
		if leaf, err = t.grow(leaf, p); err != nil {
			return entry, false, err
		}
	}
	assertTree("Insert", t)
	return Entry[V]{Value: val, Index: h, Leaf: leaf}, true, nil
}

// grow folds a freshly split leaf into its parent and divides every ancestor
// left with too many separators, lowering the root when it is one of them.
// It returns the leaf now holding the probed value.
func (t *BTree[V]) grow(node *Node, p probe) (*Node, error) {
	if parent := node.Parent(); parent != nil {
		if err := absorb(parent, node); err != nil {
			return nil, err
		}
		t.event("absorb", parent)
		node = parent
	}
	for ; node != nil && entries(node).Len() >= t.maxSeparators; node = node.Parent() {
		if node.IsRoot() {
			var err error
			if node, err = lower(node); err != nil {
				return nil, err
			}
		}
		sibling, err := divide(node)
		if err != nil {
			return nil, err
		}
		t.event("divide", sibling)
	}
	leaf, _, _, err := upperNode(t.root, p)
	return leaf, err
}

// Replace swaps the value at index for replacement. leaf, index and old must
// come from a Find or Insert that is still current: leaf must be a leaf holding
// index and old must compare equal to the stored value.
//
// The replacement keeps the position of old, so it must sort strictly between
// the neighbours of old.
func (t *BTree[V]) Replace(leaf *Node, index int, old, replacement V) error {
	t.lock()
	defer t.unlock()

	e, err := t.locate(leaf, index, old)
	if err != nil {
		return err
	}
	if prev, ok := t.before(leaf, e); ok && t.cmp(replacement, t.values[prev].val) <= 0 {
		return errors.Wrapf(ErrUnsupported, "replace index %d: replacement not after its predecessor", index)
	}
	if next, ok := t.after(leaf, e); ok && t.cmp(replacement, t.values[next].val) >= 0 {
		return errors.Wrapf(ErrUnsupported, "replace index %d: replacement not before its successor", index)
	}

	// separators refer to the handle, so they follow without being touched
	t.values[index].val = replacement
	t.version++
	assertTree("Replace", t)
	return nil
}

// Remove takes the value at index out of the tree. The slot stays in the flat
// index as a tombstone and index is never reused: after a successful Remove it
// no longer names a value, and Get reports ErrRemoved for it. Callers keeping
// the index should overwrite it with InvalidIndex, as RemoveEntry does.
func (t *BTree[V]) Remove(leaf *Node, index int, old V) error {
	t.lock()
	defer t.unlock()

	if _, err := t.locate(leaf, index, old); err != nil {
		return err
	}
	if _, err := removeValue(leaf, index, t.event); err != nil {
		return err
	}
	t.values[index] = slot[V]{}
	t.live--
	t.version++
	assertTree("Remove", t)
	return nil
}

// RemoveEntry removes the value entry locates and invalidates entry by
// setting its Index to InvalidIndex and its Leaf to nil. On failure entry is
// left untouched.
func (t *BTree[V]) RemoveEntry(entry *Entry[V]) error {
	if entry == nil {
		return errors.Wrap(ErrInvalidArgument, "nil entry")
	}
	if err := t.Remove(entry.Leaf, entry.Index, entry.Value); err != nil {
		return err
	}
	entry.Index, entry.Leaf = InvalidIndex, nil
	return nil
}

// Destroy tears down the tree and then calls free once for every value still
// in it, in index order. Nodes are released without free. Failures of free are
// combined; the tree is empty and usable afterwards either way.
func (t *BTree[V]) Destroy(free func(V) error) error {
	t.lock()
	defer t.unlock()

	if err := t.reset(); err != nil {
		return err
	}

	var errs error
	values := t.values
	t.values, t.live = nil, 0
	if free != nil {
		for i := range values {
			if !values[i].live {
				continue
			}
			if err := free(values[i].val); err != nil {
				errs = errors.CombineErrors(errs, errors.Wrapf(err, "free index %d", i))
			}
		}
	}
	t.log.WithFields(logrus.Fields{"op": "Destroy", "slots": len(values)}).Debug("destroyed")
	return errs
}

// Reset drops every node and value without calling any destructor.
func (t *BTree[V]) Reset() error {
	t.lock()
	defer t.unlock()

	if err := t.reset(); err != nil {
		return err
	}
	t.values, t.live = nil, 0
	return nil
}

func (t *BTree[V]) reset() error {
	t.version++
	if err := t.root.Empty(dropEntries); err != nil {
		return err
	}
	if err := dropEntries(entries(t.root)); err != nil {
		return err
	}
	t.root = tree.New(list.New[int]())
	return nil
}

func dropEntries(values *list.List[int]) error {
	return values.Empty(nil)
}

// Clone returns an independent copy of the tree. Live values go through clone;
// tombstones are kept so that indexes stay the same in both trees.
// A nil clone copies values as they are.
func (t *BTree[V]) Clone(clone func(V) (V, error)) (*BTree[V], error) {
	t.rlock()
	defer t.runlock()

	root, err := t.root.Clone(cloneEntries, dropEntries)
	if err != nil {
		return nil, err
	}
	dst := &BTree[V]{
		root:      root,
		values:    make([]slot[V], len(t.values)),
		live:      t.live,
		cmp:       t.cmp,
		maxValues: t.maxValues,
		splitSize: t.splitSize,
		log:       t.log,

		maxSeparators: t.maxSeparators,
	}
	if t.mutex != nil {
		dst.mutex = new(sync.RWMutex)
	}
	for i, s := range t.values {
		if s.live && clone != nil {
			if s.val, err = clone(s.val); err != nil {
				return nil, errors.Wrapf(err, "clone index %d", i)
			}
		}
		dst.values[i] = s
	}
	return dst, nil
}

func cloneEntries(values *list.List[int]) (*list.List[int], error) {
	return values.Clone(nil)
}

// All implements iter.Seq2[int, V], yielding index and value in ascending
// order. The tree must not be modified while iterating.
func (t *BTree[V]) All() iter.Seq2[int, V] {
	return func(yield func(int, V) bool) {
		t.rlock()
		defer t.runlock()
		for leaf := range t.root.Leaves() {
			for h := range entries(leaf).All() {
				if !yield(h, t.values[h].val) {
					return
				}
			}
		}
	}
}

func (t *BTree[V]) entry(leaf *Node, h int) Entry[V] {
	return Entry[V]{Value: t.values[h].val, Index: h, Leaf: leaf}
}

func (t *BTree[V]) probe(val V) probe {
	return probe{
		handle: InvalidIndex,
		compare: func(h int) int {
			return t.cmp(val, t.values[h].val)
		},
	}
}

func (t *BTree[V]) compareHandles(a, b int) int {
	return t.cmp(t.values[a].val, t.values[b].val)
}

// locate validates a leaf/index/value triple and returns the leaf element.
func (t *BTree[V]) locate(leaf *Node, index int, old V) (*element, error) {
	if leaf == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "nil leaf")
	}
	if !leaf.IsLeaf() {
		return nil, errors.Wrapf(ErrUnsupported, "index %d: node has %d children", index, leaf.Len())
	}
	if index < 0 || index >= len(t.values) {
		return nil, errors.Wrapf(ErrOutOfRange, "index %d of %d", index, len(t.values))
	}
	if !t.values[index].live || t.cmp(old, t.values[index].val) != 0 {
		return nil, errors.Wrapf(ErrStale, "index %d holds another value", index)
	}
	_, e, found, err := subNode(leaf, identity(index))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.Wrapf(ErrStale, "index %d not in leaf", index)
	}
	return e, nil
}

// before and after return the handles next to e in key order.
func (t *BTree[V]) before(leaf *Node, e *element) (int, bool) {
	if prev := e.Prev(); prev != nil {
		return prev.Value(), true
	}
	if leaf = prevLeaf(leaf); leaf != nil && entries(leaf).Len() > 0 {
		return entries(leaf).Back().Value(), true
	}
	return InvalidIndex, false
}

func (t *BTree[V]) after(leaf *Node, e *element) (int, bool) {
	if next := e.Next(); next != nil {
		return next.Value(), true
	}
	if leaf = nextLeaf(leaf); leaf != nil && entries(leaf).Len() > 0 {
		return entries(leaf).Front().Value(), true
	}
	return InvalidIndex, false
}

func (t *BTree[V]) event(op string, node *Node) {
	t.log.WithFields(logrus.Fields{
		"op":       op,
		"values":   entries(node).Len(),
		"children": node.Len(),
		"root":     node.IsRoot(),
	}).Debug("restructured")
}

func (t *BTree[V]) lock() {
	if t.mutex != nil {
		t.mutex.Lock()
	}
}

func (t *BTree[V]) unlock() {
	if t.mutex != nil {
		t.mutex.Unlock()
	}
}

func (t *BTree[V]) rlock() {
	if t.mutex != nil {
		t.mutex.RLock()
	}
}

func (t *BTree[V]) runlock() {
	if t.mutex != nil {
		t.mutex.RUnlock()
	}
}

// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// Package btindex defines the shared contracts of an embeddable, in-memory
// balanced-tree index over opaque values.
//
// The index is built from three layers:
//   - list: a generic doubly-linked sorted list holding per-node entries
//   - tree: a generic N-ary tree node with parent, child and sibling links
//   - btree: the B-tree algorithms and the BTree handle with its flat index
//
// Values are owned by the flat index of a BTree. Tree nodes only ever hold
// integer handles into that index, so the same value can sit in a leaf and
// in any number of ancestor separators without being owned twice.
package btindex

// Compare returns a negative number when a < b, zero when a == b
// and a positive number when a > b.
//
// It must define a total order that stays consistent for the lifetime of
// the structure it is given to. cmp.Compare satisfies it for ordered types.
type Compare[V any] func(a, b V) int

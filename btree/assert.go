//go:build debug

package btree

import "fmt"

// assertTree panics if the tree violates its shape or order invariants.
// Only enabled with -tags debug.
func assertTree[V any](method string, t *BTree[V]) {
	if err := t.check(); err != nil {
		panic(fmt.Sprintf("%s: %v", method, err))
	}
}

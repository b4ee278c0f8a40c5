//go:build !debug

package btree

// assertTree is a no-op in production.
// Enable with -tags debug for runtime checks.
func assertTree[V any](string, *BTree[V]) {}

// Package iterator defines the cursor contract for ordered collections.
package iterator

// Iterator represents a cursor over a sorted collection of values.
// The iterator maintains a current position and can be moved forward or
// backward through the collection in sorted order.
//
// Usage:
//
//	for iter.SeekFirst(); iter.Valid(); iter.Next() {
//	    val := iter.Value()
//	    // process val
//	}
//	if err := iter.Error(); err != nil {
//	    // handle error
//	}
type Iterator[V any] interface {
	// Valid returns true if positioned at a value.
	// Returns false when not positioned; check Error() to distinguish the cause.
	Valid() bool

	// Error returns any error that occurred during operations.
	// Returns nil when not positioned due to normal conditions (initial state,
	// boundary reached, empty collection). Returns non-nil for internal errors
	// such as detected corruption.
	Error() error

	// Value returns the value at the current position.
	// Behavior is undefined if Valid() returns false.
	Value() V

	// Next advances to the next value in ascending order.
	// Returns false at the end or on error.
	Next() bool

	// Prev moves to the previous value in ascending order.
	// Returns false at the beginning or on error.
	Prev() bool

	// SeekFirst positions the iterator at the smallest value.
	// Returns false if the collection is empty or an error occurred.
	SeekFirst() bool

	// SeekLast positions the iterator at the greatest value.
	// Returns false if the collection is empty or an error occurred.
	SeekLast() bool

	// Seek positions the iterator at the first value greater than or equal
	// to val. Returns false if there is none or an error occurred.
	Seek(val V) bool
}

// Collect drains iter from its first value into a slice.
func Collect[V any](iter Iterator[V]) ([]V, error) {
	var vals []V
	for iter.SeekFirst(); iter.Valid(); iter.Next() {
		vals = append(vals, iter.Value())
	}
	return vals, iter.Error()
}

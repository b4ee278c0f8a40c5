// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// Package list provides a generic doubly-linked list with ordered insertion.
//
// A List holds references, not payloads: removing an element or emptying the
// list never touches what the element refers to unless a free function is
// passed explicitly.
//
// Besides the operations a btree node list needs, List offers the usual
// positional ones (Prepend, InsertAfter, Find) so that it serves as a
// general-purpose container.
//
// The zero value is an empty list ready to use. Not thread-safe.
package list

import (
	"iter"

	"github.com/cockroachdb/errors"
)

// List is an ordered sequence of elements.
type List[T any] struct {
	first, last *Element[T]
	count       int
}

// Element is a single entry of a List.
type Element[T any] struct {
	value      T
	list       *List[T]
	prev, next *Element[T]
}

// New returns an empty list.
func New[T any]() *List[T] {
	return new(List[T])
}

// Value returns the value the element refers to.
func (e *Element[T]) Value() T {
	return e.value
}

// SetValue replaces the value in place without moving the element.
func (e *Element[T]) SetValue(value T) {
	e.value = value
}

// Next returns the following element or nil.
func (e *Element[T]) Next() *Element[T] {
	return e.next
}

// Prev returns the preceding element or nil.
func (e *Element[T]) Prev() *Element[T] {
	return e.prev
}

// List returns the list holding e, or nil after removal.
func (e *Element[T]) List() *List[T] {
	return e.list
}

// Len returns the number of elements.
func (l *List[T]) Len() int {
	if l == nil {
		return 0
	}
	return l.count
}

// Front returns the first element or nil.
func (l *List[T]) Front() *Element[T] {
	if l == nil {
		return nil
	}
	return l.first
}

// Back returns the last element or nil.
func (l *List[T]) Back() *Element[T] {
	if l == nil {
		return nil
	}
	return l.last
}

// Append adds value at the end.
func (l *List[T]) Append(value T) *Element[T] {
	e := &Element[T]{value: value}
	l.link(e, l.last, nil)
	return e
}

// Prepend adds value at the front. Part of the general-purpose list API.
func (l *List[T]) Prepend(value T) *Element[T] {
	e := &Element[T]{value: value}
	l.link(e, nil, l.first)
	return e
}

// InsertBefore adds value immediately before mark.
func (l *List[T]) InsertBefore(value T, mark *Element[T]) (*Element[T], error) {
	if mark == nil || mark.list != l {
		return nil, errors.Wrap(ErrInvalidArgument, "insert before: mark not in list")
	}
	e := &Element[T]{value: value}
	l.link(e, mark.prev, mark)
	return e, nil
}

// InsertAfter adds value immediately after mark. Part of the general-purpose
// list API.
func (l *List[T]) InsertAfter(value T, mark *Element[T]) (*Element[T], error) {
	if mark == nil || mark.list != l {
		return nil, errors.Wrap(ErrInvalidArgument, "insert after: mark not in list")
	}
	e := &Element[T]{value: value}
	l.link(e, mark, mark.next)
	return e, nil
}

// InsertOrdered adds value before the first element that compares greater.
// Equal values are placed after the existing run of equals.
//
// When unique is true and an equal element exists, nothing is inserted and
// the existing element is returned with inserted == false.
func (l *List[T]) InsertOrdered(value T, cmp func(a, b T) int, unique bool) (e *Element[T], inserted bool, err error) {
	if cmp == nil {
		return nil, false, errors.Wrap(ErrInvalidArgument, "insert ordered: nil compare")
	}
	var mark *Element[T]
	for mark = l.first; mark != nil; mark = mark.next {
		c := cmp(value, mark.value)
		if c == 0 && unique {
			return mark, false, nil
		}
		if c < 0 {
			break
		}
	}
	e = &Element[T]{value: value}
	if mark == nil {
		l.link(e, l.last, nil)
	} else {
		l.link(e, mark.prev, mark)
	}
	return e, true, nil
}

// Remove unlinks e from the list. The value is left untouched.
func (l *List[T]) Remove(e *Element[T]) error {
	if e == nil || e.list != l {
		return errors.Wrap(ErrInvalidArgument, "remove: element not in list")
	}
	if l.count == 0 {
		return corruptedf("remove: element linked into list with zero count")
	}
	if e.prev == nil {
		if l.first != e {
			return corruptedf("remove: head mismatch")
		}
		l.first = e.next
	} else {
		e.prev.next = e.next
	}
	if e.next == nil {
		if l.last != e {
			return corruptedf("remove: tail mismatch")
		}
		l.last = e.prev
	} else {
		e.next.prev = e.prev
	}
	l.count--
	e.prev, e.next, e.list = nil, nil, nil
	return nil
}

// Element returns the element at position i.
func (l *List[T]) Element(i int) (*Element[T], error) {
	if i < 0 || i >= l.Len() {
		return nil, errors.Wrapf(ErrOutOfRange, "element %d of %d", i, l.Len())
	}
	var e *Element[T]
	if i < l.count/2 {
		e = l.first
		for range i {
			if e == nil {
				break
			}
			e = e.next
		}
	} else {
		e = l.last
		for range l.count - 1 - i {
			if e == nil {
				break
			}
			e = e.prev
		}
	}
	if e == nil {
		return nil, corruptedf("element %d: list shorter than count %d", i, l.count)
	}
	return e, nil
}

// Find returns the first element whose value satisfies match, by a linear
// walk. Part of the general-purpose list API; ordered lookups in a btree
// descend by comparison instead.
func (l *List[T]) Find(match func(T) bool) *Element[T] {
	for e := l.Front(); e != nil; e = e.next {
		if match(e.value) {
			return e
		}
	}
	return nil
}

// All implements iter.Seq[T], yielding values front to back.
func (l *List[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for e := l.Front(); e != nil; e = e.next {
			if !yield(e.value) {
				return
			}
		}
	}
}

// Empty removes every element. When free is not nil it is called for each
// value in order; the first failure stops the walk and leaves the remaining
// elements linked.
func (l *List[T]) Empty(free func(T) error) error {
	if l == nil {
		return nil
	}
	for e := l.first; e != nil; e = l.first {
		if free != nil {
			if err := free(e.value); err != nil {
				return err
			}
		}
		if err := l.Remove(e); err != nil {
			return err
		}
	}
	if l.count != 0 || l.last != nil {
		return corruptedf("empty: %d elements left after unlinking all", l.count)
	}
	return nil
}

// Clone returns a new list with every value passed through clone.
// A nil clone copies values as they are.
func (l *List[T]) Clone(clone func(T) (T, error)) (*List[T], error) {
	dst := New[T]()
	for e := l.Front(); e != nil; e = e.next {
		value := e.value
		if clone != nil {
			var err error
			if value, err = clone(value); err != nil {
				return nil, err
			}
		}
		dst.Append(value)
	}
	return dst, nil
}

// MoveTo splices every element of l onto the end of dst, leaving l empty.
func (l *List[T]) MoveTo(dst *List[T]) error {
	if dst == nil || dst == l {
		return errors.Wrap(ErrInvalidArgument, "move to: bad destination")
	}
	n := 0
	for e := l.first; e != nil; e = e.next {
		e.list = dst
		n++
	}
	if n != l.count {
		return corruptedf("move to: walked %d elements, count %d", n, l.count)
	}
	if l.first == nil {
		return nil
	}
	if dst.last == nil {
		dst.first = l.first
	} else {
		dst.last.next = l.first
		l.first.prev = dst.last
	}
	dst.last = l.last
	dst.count += l.count
	l.first, l.last, l.count = nil, nil, 0
	return nil
}

func (l *List[T]) link(e, prev, next *Element[T]) {
	e.list = l
	e.prev, e.next = prev, next
	if prev == nil {
		l.first = e
	} else {
		prev.next = e
	}
	if next == nil {
		l.last = e
	} else {
		next.prev = e
	}
	l.count++
}

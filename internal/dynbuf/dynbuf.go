// Package dynbuf implements a typed, resizable contiguous buffer with a
// configurable growth factor and bounded-grow semantics. carbon/memfile's
// byte buffer is built on it; the interning engine's slices, slice lists
// and dictionary contents use plain Go slices.
package dynbuf

import "github.com/rpcpool/carbondict/internal/alloc"

// DefaultGrowthFactor matches the source design: capacity multiplies by 1.7
// on each grow rather than doubling, trading a few extra reallocations for a
// smaller worst-case overshoot.
const DefaultGrowthFactor = 1.7

// Buffer is a typed dynamic array over T. Count never exceeds Capacity;
// Capacity never shrinks implicitly. Resize preserves element order.
type Buffer[T any] struct {
	items    []T
	growth   float64
	allocRef alloc.Allocator
}

// New creates an empty buffer with the given reserved capacity.
func New[T any](capacity int) *Buffer[T] {
	return NewWithAllocator[T](capacity, alloc.Default)
}

// NewWithAllocator is like New but records a caller-supplied allocator on
// the buffer. The buffer's storage is still allocated with make, so the
// allocator is never called and sees none of the buffer's allocations.
func NewWithAllocator[T any](capacity int, a alloc.Allocator) *Buffer[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer[T]{
		items:    make([]T, 0, capacity),
		growth:   DefaultGrowthFactor,
		allocRef: a,
	}
}

// Len returns the current element count.
func (b *Buffer[T]) Len() int { return len(b.items) }

// Cap returns the current element capacity.
func (b *Buffer[T]) Cap() int { return cap(b.items) }

// Push appends n elements (n == len(data)), growing the backing array via
// the configured growth factor if it is full.
func (b *Buffer[T]) Push(data ...T) {
	if len(b.items)+len(data) > cap(b.items) {
		b.grow(len(b.items) + len(data))
	}
	b.items = append(b.items, data...)
}

// RepeatedPush appends the same value k times.
func (b *Buffer[T]) RepeatedPush(value T, k int) {
	for i := 0; i < k; i++ {
		b.Push(value)
	}
}

// grow multiplies capacity by the growth factor until it can hold need
// elements, and reports how many new slots were created.
func (b *Buffer[T]) grow(need int) int {
	oldCap := cap(b.items)
	newCap := oldCap
	if newCap == 0 {
		newCap = 1
	}
	for newCap < need {
		newCap = int(float64(newCap) * b.growth)
		if newCap <= oldCap {
			newCap = oldCap + 1
		}
	}
	grown := make([]T, len(b.items), newCap)
	copy(grown, b.items)
	b.items = grown
	return newCap - oldCap
}

// Pop returns the last element and shrinks the count by one. ok is false on
// an empty buffer.
func (b *Buffer[T]) Pop() (v T, ok bool) {
	if len(b.items) == 0 {
		return v, false
	}
	v = b.items[len(b.items)-1]
	b.items = b.items[:len(b.items)-1]
	return v, true
}

// At returns a pointer to element i. The caller must ensure i < Len(); this
// mirrors the source's unchecked indexed access.
func (b *Buffer[T]) At(i int) *T { return &b.items[i] }

// Set overwrites element i in place.
func (b *Buffer[T]) Set(i int, v T) { b.items[i] = v }

// Clear resets the count to zero without releasing capacity.
func (b *Buffer[T]) Clear() { b.items = b.items[:0] }

// Shrink releases unused capacity down to the current count.
func (b *Buffer[T]) Shrink() {
	shrunk := make([]T, len(b.items))
	copy(shrunk, b.items)
	b.items = shrunk
}

// EnlargeToCapacity grows count up to the full capacity, exposing the
// reserved slots as live elements.
func (b *Buffer[T]) EnlargeToCapacity() {
	b.items = b.items[:cap(b.items)]
}

// Slice exposes the live backing slice. Callers must not retain it across a
// subsequent Push/grow.
func (b *Buffer[T]) Slice() []T { return b.items }

// Cpy returns an independent copy of the buffer with identical contents.
func (b *Buffer[T]) Cpy() *Buffer[T] {
	out := &Buffer[T]{
		items:    make([]T, len(b.items), cap(b.items)),
		growth:   b.growth,
		allocRef: b.allocRef,
	}
	copy(out.items, b.items)
	return out
}

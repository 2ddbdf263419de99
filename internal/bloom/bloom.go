// Package bloom wraps github.com/bits-and-blooms/bloom/v3 to expose the
// fixed-width, k-hash probabilistic filter the spec describes: a per-slice
// pre-filter that can only produce false positives, never false negatives,
// so a matched slice is always still scanned.
package bloom

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"
)

// BitsPerSlice is the default memory budget for one slice's companion Bloom
// filter (≈0.32 KiB, rounded down to a whole bit count), per spec §3.
const BitsPerSlice = 32 * 1024 * 8 / 100

// K is the number of hash functions; the wrapped library derives them from
// its own hashing of the key.
const K = 4

// Filter is a fixed-width bit array with k hashes. It is used only to skip
// slices during lookup: a false positive degrades scan performance but never
// produces a wrong result.
type Filter struct {
	f *bitsbloom.BloomFilter
}

// NewWithBits creates a filter sized to hold m bits with k hash functions.
func NewWithBits(m uint, k uint) *Filter {
	if k == 0 {
		k = K
	}
	return &Filter{f: bitsbloom.New(m, k)}
}

// NewForBudget sizes a filter so that it fits within the given bit budget,
// matching the slice's companion-Bloom memory constraint.
func NewForBudget(bitBudget uint) *Filter {
	return NewWithBits(bitBudget, K)
}

// Set marks key as present.
func (f *Filter) Set(key []byte) {
	f.f.Add(key)
}

// Test reports whether key is "maybe in" (true) or "definitely not in"
// (false) the set.
func (f *Filter) Test(key []byte) bool {
	return f.f.Test(key)
}

// TestAndSet tests key, then sets it, returning the prior "maybe in" state.
// Equivalent to bloom/v3's TestAndAdd.
func (f *Filter) TestAndSet(key []byte) (priorMaybeIn bool) {
	return f.f.TestAndAdd(key)
}

// ClearAll resets every bit.
func (f *Filter) ClearAll() {
	f.f.ClearAll()
}

// Package slice implements the cache-line-sized structure-of-arrays that
// backs each bucket's slice list (spec §3/§4.4): three parallel columns
// (borrowed key reference, precomputed key hash, value id), a scan/bsearch
// strategy flag, and a single-entry lookup cache.
package slice

import "sort"

// MaxElems bounds each slice so the three columns plus the companion Bloom
// filter stay within the configured L1 fraction (≈3.2 KiB/slice budget,
// excluding the ≈0.32 KiB Bloom). A key reference is a Go slice header (24
// bytes), plus an 8-byte hash and an 8-byte value id: 40 bytes/entry, so
// 3.2 KiB fits 80 entries.
const MaxElems = 80

// Strategy is the slice's lookup algorithm.
type Strategy int

const (
	Scan Strategy = iota
	BinarySearch
)

// noCache is the sentinel for "no last-hit cache entry".
const noCache = -1

// Slice is a fixed-capacity struct-of-arrays holding up to MaxElems
// interned keys. The three columns are packed densely; removal compacts
// them in place.
type Slice struct {
	keys     [][]byte // borrowed references, owned elsewhere
	hashes   []uint64
	values   []uint64
	strategy Strategy
	cache    int // index of the last hit, or noCache
}

// New creates an empty, unsealed slice in scan mode.
func New() *Slice {
	return &Slice{
		keys:     make([][]byte, 0, MaxElems),
		hashes:   make([]uint64, 0, MaxElems),
		values:   make([]uint64, 0, MaxElems),
		strategy: Scan,
		cache:    noCache,
	}
}

// Len returns the current element count.
func (s *Slice) Len() int { return len(s.keys) }

// Full reports whether the slice has reached MaxElems and must be sealed.
func (s *Slice) Full() bool { return len(s.keys) == MaxElems }

// Sealed reports whether the slice has been transitioned to binary-search
// (read-optimized) mode.
func (s *Slice) Sealed() bool { return s.strategy == BinarySearch }

// Strategy returns the slice's configured lookup strategy.
func (s *Slice) Strategy() Strategy { return s.strategy }

// Append adds one (key, hash, value) entry. The caller must ensure the
// slice is not Full(); inserting into a full slice is a contract violation
// the caller (slice list) must never attempt, since a full slice has
// already been sealed and a new appender opened.
func (s *Slice) Append(key []byte, hash, value uint64) {
	if s.Full() {
		panic("slice: append into full slice")
	}
	s.keys = append(s.keys, key)
	s.hashes = append(s.hashes, hash)
	s.values = append(s.values, value)
}

// Seal sorts the hash column (carrying keys/values along) and switches the
// slice to binary-search mode. Sealing a slice that isn't full is allowed
// (it just stops accepting further appends from the slice list's
// perspective) but the common case is sealing exactly at Full().
func (s *Slice) Seal() {
	n := len(s.keys)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return s.hashes[idx[i]] < s.hashes[idx[j]] })

	keys := make([][]byte, n)
	hashes := make([]uint64, n)
	values := make([]uint64, n)
	for newPos, oldPos := range idx {
		keys[newPos] = s.keys[oldPos]
		hashes[newPos] = s.hashes[oldPos]
		values[newPos] = s.values[oldPos]
	}
	s.keys, s.hashes, s.values = keys, hashes, values
	s.strategy = BinarySearch
	s.cache = noCache
}

// Lookup returns the position of (hash, key) in [0, Len()); Len() signals
// "not found". Scan mode: consults the single-entry cache first, then walks
// the hash column with a hash-only inner loop and verifies with a full
// string compare on match. Binary-search mode: binary searches the sorted
// hash column, then linearly confirms across any hash-equal neighborhood.
// Both modes tie-break to the first match (scan order / lowest index).
func (s *Slice) Lookup(hash uint64, key []byte) int {
	n := len(s.keys)
	if s.cache != noCache && s.cache < n && s.hashes[s.cache] == hash && equalBytes(s.keys[s.cache], key) {
		return s.cache
	}
	var pos int
	switch s.strategy {
	case BinarySearch:
		pos = s.lookupBinarySearch(hash, key, n)
	default:
		pos = s.lookupScan(hash, key, n)
	}
	if pos < n {
		s.cache = pos
	}
	return pos
}

func (s *Slice) lookupScan(hash uint64, key []byte, n int) int {
	for i := 0; i < n; i++ {
		if s.hashes[i] != hash {
			continue
		}
		if equalBytes(s.keys[i], key) {
			return i
		}
	}
	return n
}

func (s *Slice) lookupBinarySearch(hash uint64, key []byte, n int) int {
	lo := sort.Search(n, func(i int) bool { return s.hashes[i] >= hash })
	for i := lo; i < n && s.hashes[i] == hash; i++ {
		if equalBytes(s.keys[i], key) {
			return i
		}
	}
	return n
}

// ValueAt returns the value id stored at position i.
func (s *Slice) ValueAt(i int) uint64 { return s.values[i] }

// KeyAt returns the key reference stored at position i.
func (s *Slice) KeyAt(i int) []byte { return s.keys[i] }

// HashAt returns the key hash stored at position i.
func (s *Slice) HashAt(i int) uint64 { return s.hashes[i] }

// Remove physically compacts the slice, deleting the entry at position i.
func (s *Slice) Remove(i int) {
	n := len(s.keys)
	if i < 0 || i >= n {
		panic("slice: remove out of range")
	}
	s.keys = append(s.keys[:i], s.keys[i+1:]...)
	s.hashes = append(s.hashes[:i], s.hashes[i+1:]...)
	s.values = append(s.values[:i], s.values[i+1:]...)
	s.cache = noCache
}

func equalBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Package stringhash implements the in-memory bucketed string hash (spec
// §4.6): a fixed-capacity vector of buckets, each owning one slice list,
// routed to by hash(key) mod bucketCount.
package stringhash

import (
	"github.com/rpcpool/carbondict/internal/slicelist"
	"github.com/rpcpool/carbondict/internal/xhash"
)

// Hash is the table's bucket vector. Bucket capacity is fixed at
// construction.
type Hash struct {
	buckets []*slicelist.List
}

// New creates a hash table with the given fixed bucket count.
func New(numBuckets int) *Hash {
	if numBuckets <= 0 {
		numBuckets = 1
	}
	h := &Hash{buckets: make([]*slicelist.List, numBuckets)}
	for i := range h.buckets {
		h.buckets[i] = slicelist.New()
	}
	return h
}

func (h *Hash) bucketFor(hash uint64) *slicelist.List {
	idx := xhash.BucketIndex(hash, uint64(len(h.buckets)))
	return h.buckets[idx]
}

// PutBulkSafe hashes every key, routes it to its bucket, and inserts it.
// valueFor is called lazily, only for keys not already present, so the
// caller (the sync dictionary) can defer contents/freelist allocation until
// it's known the key is genuinely new.
func (h *Hash) PutBulkSafe(keys [][]byte, valueFor func(i int) uint64) []uint64 {
	out := make([]uint64, len(keys))
	for i, k := range keys {
		hash := xhash.Sum64(k)
		bucket := h.bucketFor(hash)
		// Probe first so valueFor (which may pop a freelist slot) is only
		// invoked for keys not already present.
		if found := bucket.Lookup(hash, k); found.Present {
			out[i] = found.Value
			continue
		}
		v := valueFor(i)
		bucket.Insert(hash, k, v)
		out[i] = v
	}
	return out
}

// GetBulkSafe produces parallel (values, found) results plus a count of
// misses.
func (h *Hash) GetBulkSafe(keys [][]byte) (values []uint64, found []bool, notFound int) {
	values = make([]uint64, len(keys))
	found = make([]bool, len(keys))
	for i, k := range keys {
		hash := xhash.Sum64(k)
		res := h.bucketFor(hash).Lookup(hash, k)
		found[i] = res.Present
		if res.Present {
			values[i] = res.Value
		} else {
			notFound++
		}
	}
	return values, found, notFound
}

// GetExact is the single-key fast path.
func (h *Hash) GetExact(key []byte) (value uint64, found bool) {
	hash := xhash.Sum64(key)
	res := h.bucketFor(hash).Lookup(hash, key)
	return res.Value, res.Present
}

// RemoveBulkSafe removes every key, reporting how many were actually
// present and removed.
func (h *Hash) RemoveBulkSafe(keys [][]byte) (removed int) {
	for _, k := range keys {
		hash := xhash.Sum64(k)
		if h.bucketFor(hash).Remove(hash, k) {
			removed++
		}
	}
	return removed
}

// NumBuckets returns the fixed bucket count.
func (h *Hash) NumBuckets() int { return len(h.buckets) }

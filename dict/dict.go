// Package dict implements the single-partition sync string dictionary (spec
// §4.7): a freelist-managed contents vector, a string-hash index, and a
// spinlock guarding every public operation.
package dict

import (
	"github.com/rpcpool/carbondict/internal/bloom"
	"github.com/rpcpool/carbondict/internal/carbonerr"
	"github.com/rpcpool/carbondict/internal/metrics"
	"github.com/rpcpool/carbondict/internal/spinlock"
	"github.com/rpcpool/carbondict/internal/stringhash"
	"github.com/rpcpool/carbondict/internal/xhash"
)

// NullID is the reserved sentinel id; its external representation is "_nil".
const NullID uint64 = ^uint64(0)

// NullText is the external rendering of NullID.
const NullText = "_nil"

// slot is one entry in the contents vector.
type slot struct {
	str    []byte
	inUse  bool
}

// Dict is a single-partition string dictionary. Every public operation
// acquires lock for its full call; the lock is reentrant for its owner.
type Dict struct {
	lock     spinlock.Lock
	contents []slot
	freelist []int // stack of free indices into contents
	index    *stringhash.Hash
	counters metrics.Counters
}

// Config sizes a new dictionary.
type Config struct {
	Capacity int // initial contents/freelist capacity
	Buckets  int // string-hash bucket count
}

// New creates an empty dictionary.
func New(cfg Config) *Dict {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 1024
	}
	if cfg.Buckets <= 0 {
		cfg.Buckets = 64
	}
	d := &Dict{
		contents: make([]slot, 0, cfg.Capacity),
		freelist: make([]int, 0, cfg.Capacity),
		index:    stringhash.New(cfg.Buckets),
	}
	return d
}

func (d *Dict) popFree() int {
	if len(d.freelist) > 0 {
		i := d.freelist[len(d.freelist)-1]
		d.freelist = d.freelist[:len(d.freelist)-1]
		return i
	}
	i := len(d.contents)
	d.contents = append(d.contents, slot{})
	return i
}

func (d *Dict) pushFree(i int) {
	d.freelist = append(d.freelist, i)
}

// Insert interns n strings, returning their ids. Strings already present
// (by byte-identical content) receive their existing id, including repeats
// within the same batch: a small per-call Bloom filter sized to ~22x the
// not-found count is used to detect intra-batch duplicates cheaply before
// falling back to an exact lookup (spec §4.7).
func (d *Dict) Insert(strings [][]byte) []uint64 {
	owner := spinlock.Current()
	d.lock.Acquire(owner)
	defer d.lock.Release(owner)

	n := len(strings)
	ids := make([]uint64, n)
	existing, found, notFound := d.index.GetBulkSafe(strings)
	d.counters.RecordProbe()

	var batchBloom *bloom.Filter
	if notFound > 0 {
		batchBloom = bloom.NewForBudget(uint(notFound) * 22 * 8)
	}
	// firstIndexOf maps a not-yet-materialized string's hash to the first
	// batch position that interned it, for the exact recheck below.
	firstIndexOf := make(map[uint64]int, notFound)

	for i := 0; i < n; i++ {
		if found[i] {
			ids[i] = existing[i]
			d.counters.RecordHit()
			continue
		}
		h := xhash.Sum64(strings[i])
		if batchBloom != nil && batchBloom.Test(strings[i]) {
			if j, ok := firstIndexOf[h]; ok && equalBytes(strings[j], strings[i]) {
				ids[i] = ids[j]
				d.counters.RecordHit()
				continue
			}
		}
		// Genuinely new: materialize an owned copy, index it, allocate an id.
		owned := make([]byte, len(strings[i]))
		copy(owned, strings[i])
		idx := d.popFree()
		d.contents[idx] = slot{str: owned, inUse: true}
		d.index.PutBulkSafe([][]byte{owned}, func(int) uint64 { return uint64(idx) })
		if batchBloom != nil {
			batchBloom.Set(strings[i])
		}
		firstIndexOf[h] = i
		ids[i] = uint64(idx)
		d.counters.RecordMiss()
	}
	return ids
}

// Remove clears the slots for the given ids, returning the removed strings
// to the freelist and removing them from the index. Ids not currently in
// use are silently skipped.
func (d *Dict) Remove(ids []uint64) {
	owner := spinlock.Current()
	d.lock.Acquire(owner)
	defer d.lock.Release(owner)

	toRemove := make([][]byte, 0, len(ids))
	for _, id := range ids {
		i := int(id)
		if i < 0 || i >= len(d.contents) || !d.contents[i].inUse {
			continue
		}
		toRemove = append(toRemove, d.contents[i].str)
		d.contents[i] = slot{}
		d.pushFree(i)
	}
	d.index.RemoveBulkSafe(toRemove)
}

// Extract renders the strings for the given ids, in order. NullID renders
// as NullText.
func (d *Dict) Extract(ids []uint64) ([]string, error) {
	owner := spinlock.Current()
	d.lock.Acquire(owner)
	defer d.lock.Release(owner)

	out := make([]string, len(ids))
	for i, id := range ids {
		if id == NullID {
			out[i] = NullText
			continue
		}
		idx := int(id)
		if idx < 0 || idx >= len(d.contents) || !d.contents[idx].inUse {
			return nil, carbonerr.New("dict.extract", carbonerr.IndexOutOfRange, "id not in use")
		}
		out[i] = string(d.contents[idx].str)
	}
	return out, nil
}

// LocateSafe looks up ids for the given keys without inserting, delegating
// to the string hash under lock.
func (d *Dict) LocateSafe(keys [][]byte) (ids []uint64, found []bool, notFound int) {
	owner := spinlock.Current()
	d.lock.Acquire(owner)
	defer d.lock.Release(owner)
	return d.index.GetBulkSafe(keys)
}

// Counters returns a snapshot of this dictionary's probe/hit/miss counters.
func (d *Dict) Counters() metrics.Snapshot { return d.counters.Snapshot() }

// ResetCounters zeroes the probe/hit/miss counters.
func (d *Dict) ResetCounters() { d.counters.Reset() }

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

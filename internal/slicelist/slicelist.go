// Package slicelist implements the ordered collection of slices that backs
// one bucket of the in-memory string hash (spec §4.5): four parallel
// vectors (slices, descriptors, Bloom filters, hash bounds) plus an
// appender index pointing at the current write target.
package slicelist

import (
	"github.com/rpcpool/carbondict/internal/bloom"
	"github.com/rpcpool/carbondict/internal/slice"
	"github.com/rpcpool/carbondict/internal/spinlock"
)

// Descriptor holds advisory read statistics for a slice, reserved for a
// future LRU/MRU reorganizer.
type Descriptor struct {
	ReadsTotal uint64
	ReadsHit   uint64
}

// Bounds is the per-slice (min_hash, max_hash) range used to skip slices
// whose hash range excludes the probe.
type Bounds struct {
	Min, Max uint64
	set      bool
}

func (b *Bounds) observe(h uint64) {
	if !b.set {
		b.Min, b.Max = h, h
		b.set = true
		return
	}
	if h < b.Min {
		b.Min = h
	}
	if h > b.Max {
		b.Max = h
	}
}

func (b Bounds) excludes(h uint64) bool {
	return b.set && (h < b.Min || h > b.Max)
}

// List is the ordered sequence of slices for one bucket. Mutators run under
// lock; readers must not race with writers (spec §5).
type List struct {
	lock     spinlock.Lock
	slices   []*slice.Slice
	descs    []*Descriptor
	blooms   []*bloom.Filter
	bounds   []*Bounds
	appender int
}

// New creates a slice list with a single empty appender slice.
func New() *List {
	l := &List{}
	l.openAppender()
	return l
}

func (l *List) openAppender() {
	l.slices = append(l.slices, slice.New())
	l.descs = append(l.descs, &Descriptor{})
	l.blooms = append(l.blooms, bloom.NewForBudget(bloom.BitsPerSlice))
	l.bounds = append(l.bounds, &Bounds{})
	l.appender = len(l.slices) - 1
}

// Found is the result of a Lookup.
type Found struct {
	SliceIndex int
	Pos        int
	Value      uint64
	Present    bool
}

// Lookup searches every slice in order, skipping any whose hash bounds or
// Bloom filter rule the key out, and dispatches to the matching slice's
// configured strategy. Read statistics are updated per spec §4.5.
func (l *List) Lookup(hash uint64, key []byte) Found {
	for i, s := range l.slices {
		l.descs[i].ReadsTotal++
		if l.bounds[i].excludes(hash) {
			continue
		}
		if !l.blooms[i].Test(key) {
			continue
		}
		pos := s.Lookup(hash, key)
		if pos < s.Len() {
			l.descs[i].ReadsHit++
			return Found{SliceIndex: i, Pos: pos, Value: s.ValueAt(pos), Present: true}
		}
	}
	return Found{}
}

// InsertResult reports what Insert did for one key.
type InsertResult struct {
	Value    uint64
	Existing bool // true if the key was already present
}

// Insert locates an existing entry for (hash, key); if present, it is
// returned unchanged (the dictionary contract requires the caller to check
// that any supplied value matches). Otherwise the key is appended into the
// current appender slice, its Bloom filter and hash bounds are updated, and
// — if the appender is now full — it is sealed and a new appender opened.
func (l *List) Insert(hash uint64, key []byte, newValue uint64) InsertResult {
	owner := spinlock.Current()
	l.lock.Acquire(owner)
	defer l.lock.Release(owner)

	if found := l.lookupLocked(hash, key); found.Present {
		return InsertResult{Value: found.Value, Existing: true}
	}

	appender := l.slices[l.appender]
	appender.Append(key, hash, newValue)
	l.blooms[l.appender].Set(key)
	l.bounds[l.appender].observe(hash)

	if appender.Full() {
		appender.Seal()
		l.openAppender()
	}
	return InsertResult{Value: newValue, Existing: false}
}

func (l *List) lookupLocked(hash uint64, key []byte) Found {
	for i, s := range l.slices {
		l.descs[i].ReadsTotal++
		if l.bounds[i].excludes(hash) {
			continue
		}
		if !l.blooms[i].Test(key) {
			continue
		}
		pos := s.Lookup(hash, key)
		if pos < s.Len() {
			l.descs[i].ReadsHit++
			return Found{SliceIndex: i, Pos: pos, Value: s.ValueAt(pos), Present: true}
		}
	}
	return Found{}
}

// Remove deletes the entry for (hash, key) if present, physically
// compacting the owning slice and rebuilding its descriptor, bounds, and
// Bloom filter. The source leaves this path unimplemented; this is the
// chosen realization (spec §9 Open Questions).
func (l *List) Remove(hash uint64, key []byte) bool {
	owner := spinlock.Current()
	l.lock.Acquire(owner)
	defer l.lock.Release(owner)

	found := l.lookupLocked(hash, key)
	if !found.Present {
		return false
	}
	s := l.slices[found.SliceIndex]
	s.Remove(found.Pos)
	l.rebuild(found.SliceIndex)
	return true
}

// rebuild recomputes the descriptor, Bloom filter, and hash bounds of slice
// i from its current (post-removal) contents.
func (l *List) rebuild(i int) {
	s := l.slices[i]
	l.descs[i] = &Descriptor{}
	l.blooms[i] = bloom.NewForBudget(bloom.BitsPerSlice)
	bounds := &Bounds{}
	for p := 0; p < s.Len(); p++ {
		l.blooms[i].Set(s.KeyAt(p))
		bounds.observe(s.HashAt(p))
	}
	l.bounds[i] = bounds
	// A sealed slice remains sorted after compaction (order is preserved by
	// append-based removal); re-sealing is unnecessary unless the slice was
	// in scan mode, in which case it stays in scan mode.
}

// NumSlices exposes the live slice count, used by tests and diagnostics.
func (l *List) NumSlices() int { return len(l.slices) }

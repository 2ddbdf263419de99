// Package metrics holds the per-hash-table probe/hit/miss counters the
// dictionaries expose, aggregated across carriers by the async dictionary.
package metrics

import "sync/atomic"

// Counters tracks lookup traffic for one dictionary partition.
type Counters struct {
	probes int64
	hits   int64
	misses int64
}

func (c *Counters) RecordProbe()            { atomic.AddInt64(&c.probes, 1) }
func (c *Counters) RecordHit()               { atomic.AddInt64(&c.hits, 1) }
func (c *Counters) RecordMiss()              { atomic.AddInt64(&c.misses, 1) }
func (c *Counters) RecordLookup(hit bool) {
	c.RecordProbe()
	if hit {
		c.RecordHit()
	} else {
		c.RecordMiss()
	}
}

// Snapshot is an immutable read of the counters.
type Snapshot struct {
	Probes, Hits, Misses int64
}

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Probes: atomic.LoadInt64(&c.probes),
		Hits:   atomic.LoadInt64(&c.hits),
		Misses: atomic.LoadInt64(&c.misses),
	}
}

func (c *Counters) Reset() {
	atomic.StoreInt64(&c.probes, 0)
	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
}

// Merge adds another snapshot's counts into s, used to aggregate per-carrier
// counters in the async dictionary.
func (s Snapshot) Merge(o Snapshot) Snapshot {
	return Snapshot{Probes: s.Probes + o.Probes, Hits: s.Hits + o.Hits, Misses: s.Misses + o.Misses}
}

// Package asyncdict implements the sharded N-way async string dictionary
// (spec §4.8): it hash-partitions a batch across carriers, fans out to each
// carrier's sync dictionary, joins, and composes global ids.
package asyncdict

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rpcpool/carbondict/dict"
	"github.com/rpcpool/carbondict/internal/carbonerr"
	"github.com/rpcpool/carbondict/internal/metrics"
	"github.com/rpcpool/carbondict/internal/spinlock"
	"github.com/rpcpool/carbondict/internal/xhash"
)

// MaxCarriers is the hard cap imposed by the 10-bit carrier field in the
// global id layout (spec §5/§6). Exceeding it is a programming error.
const MaxCarriers = 1 << 10

// carrierBits is the width of the local-id field; the carrier index
// occupies the high bits above it.
const carrierBits = 54

// NullID is the async dictionary's external null sentinel, carried through
// unchanged from the per-carrier dictionary's NullID.
const NullID = dict.NullID

// Dict is the sharded dictionary. Its public API is serialized on its own
// spinlock; internally it launches one worker per carrier and joins before
// releasing (spec §5).
type Dict struct {
	lock     spinlock.Lock
	carriers []*dict.Dict
}

// Config sizes the async dictionary.
type Config struct {
	NumCarriers int
	Capacity    int // total across all carriers
	Buckets     int // total across all carriers
}

// New creates an async dictionary with NumCarriers carriers, each sized to
// ceil(capacity/N) contents slots and ceil(buckets/N) buckets.
func New(cfg Config) (*Dict, error) {
	if cfg.NumCarriers <= 0 {
		cfg.NumCarriers = 1
	}
	if cfg.NumCarriers > MaxCarriers {
		return nil, carbonerr.New("asyncdict.new", carbonerr.CapacityExceeded, "too many carriers")
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = 1024
	}
	if cfg.Buckets <= 0 {
		cfg.Buckets = 64
	}
	perCarrierCap := ceilDiv(cfg.Capacity, cfg.NumCarriers)
	perCarrierBuckets := ceilDiv(cfg.Buckets, cfg.NumCarriers)

	d := &Dict{carriers: make([]*dict.Dict, cfg.NumCarriers)}
	for i := range d.carriers {
		d.carriers[i] = dict.New(dict.Config{Capacity: perCarrierCap, Buckets: perCarrierBuckets})
	}
	return d, nil
}

func ceilDiv(a, b int) int {
	if b == 0 {
		return a
	}
	return (a + b - 1) / b
}

// NumCarriers returns the carrier count.
func (d *Dict) NumCarriers() int { return len(d.carriers) }

// EncodeGlobal composes a global id from a carrier index and a local id.
func EncodeGlobal(carrier int, local uint64) uint64 {
	return (uint64(carrier) << carrierBits) | (local & (1<<carrierBits - 1))
}

// DecodeGlobal splits a global id back into its carrier index and local id.
func DecodeGlobal(global uint64) (carrier int, local uint64) {
	return int(global >> carrierBits), global & (1<<carrierBits - 1)
}

// carrierOf returns the carrier index a key is assigned to.
func (d *Dict) carrierOf(key []byte) int {
	return int(xhash.BucketIndex(xhash.Sum64(key), uint64(len(d.carriers))))
}

// partition groups strings by carrier, recording each string's original
// batch position so results can be recomposed preserving input order.
type partition struct {
	strings   [][]byte
	positions []int
}

func (d *Dict) partitionByCarrier(strings [][]byte) []partition {
	parts := make([]partition, len(d.carriers))
	for i, s := range strings {
		c := d.carrierOf(s)
		parts[c].strings = append(parts[c].strings, s)
		parts[c].positions = append(parts[c].positions, i)
	}
	return parts
}

// Insert partitions strings across carriers by hash, fans out one worker
// per carrier, joins, and composes global ids preserving input order
// (ids[i] always corresponds to strings[i]).
func (d *Dict) Insert(ctx context.Context, strings [][]byte) ([]uint64, error) {
	owner := spinlock.Current()
	d.lock.Acquire(owner)
	defer d.lock.Release(owner)

	parts := d.partitionByCarrier(strings)
	localIDs := make([][]uint64, len(d.carriers))

	g, _ := errgroup.WithContext(ctx)
	for i := range d.carriers {
		i := i
		g.Go(func() error {
			if len(parts[i].strings) == 0 {
				return nil
			}
			localIDs[i] = d.carriers[i].Insert(parts[i].strings)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]uint64, len(strings))
	for c, part := range parts {
		for j, pos := range part.positions {
			out[pos] = EncodeGlobal(c, localIDs[c][j])
		}
	}
	return out, nil
}

// Remove fans out per-carrier removal.
func (d *Dict) Remove(ctx context.Context, globalIDs []uint64) error {
	owner := spinlock.Current()
	d.lock.Acquire(owner)
	defer d.lock.Release(owner)

	byCarrier := make([][]uint64, len(d.carriers))
	for _, g := range globalIDs {
		c, local := DecodeGlobal(g)
		if c < 0 || c >= len(d.carriers) {
			continue
		}
		byCarrier[c] = append(byCarrier[c], local)
	}

	eg, _ := errgroup.WithContext(ctx)
	for i := range d.carriers {
		i := i
		eg.Go(func() error {
			if len(byCarrier[i]) > 0 {
				d.carriers[i].Remove(byCarrier[i])
			}
			return nil
		})
	}
	return eg.Wait()
}

// LocateSafe resolves keys to global ids without inserting, composing
// globals and merging the found mask and not-found count across carriers.
func (d *Dict) LocateSafe(ctx context.Context, keys [][]byte) (ids []uint64, found []bool, notFound int, err error) {
	owner := spinlock.Current()
	d.lock.Acquire(owner)
	defer d.lock.Release(owner)

	parts := d.partitionByCarrier(keys)
	localIDs := make([][]uint64, len(d.carriers))
	localFound := make([][]bool, len(d.carriers))

	g, _ := errgroup.WithContext(ctx)
	for i := range d.carriers {
		i := i
		g.Go(func() error {
			if len(parts[i].strings) == 0 {
				return nil
			}
			ids, foundMask, _ := d.carriers[i].LocateSafe(parts[i].strings)
			localIDs[i] = ids
			localFound[i] = foundMask
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, 0, err
	}

	ids = make([]uint64, len(keys))
	found = make([]bool, len(keys))
	for c, part := range parts {
		for j, pos := range part.positions {
			found[pos] = localFound[c][j]
			if found[pos] {
				ids[pos] = EncodeGlobal(c, localIDs[c][j])
			} else {
				notFound++
			}
		}
	}
	return ids, found, notFound, nil
}

// LocateFast runs LocateSafe and discards the found mask, matching the
// source's locate_fast convenience wrapper.
func (d *Dict) LocateFast(ctx context.Context, keys [][]byte) ([]uint64, error) {
	ids, _, _, err := d.LocateSafe(ctx, keys)
	return ids, err
}

// Extract splices per-carrier extracted strings into a single result,
// preserving input order.
func (d *Dict) Extract(ctx context.Context, globalIDs []uint64) ([]string, error) {
	owner := spinlock.Current()
	d.lock.Acquire(owner)
	defer d.lock.Release(owner)

	type job struct {
		carrier   int
		localIDs  []uint64
		positions []int
	}
	byCarrier := make(map[int]*job)
	order := make([]int, 0, len(d.carriers))
	for i, g := range globalIDs {
		if g == NullID {
			continue
		}
		c, local := DecodeGlobal(g)
		j, ok := byCarrier[c]
		if !ok {
			j = &job{carrier: c}
			byCarrier[c] = j
			order = append(order, c)
		}
		j.localIDs = append(j.localIDs, local)
		j.positions = append(j.positions, i)
	}

	out := make([]string, len(globalIDs))
	for i, g := range globalIDs {
		if g == NullID {
			out[i] = dict.NullText
		}
	}

	results := make(map[int][]string, len(order))
	var mu sync.Mutex
	g, _ := errgroup.WithContext(ctx)
	for _, c := range order {
		c := c
		j := byCarrier[c]
		g.Go(func() error {
			if c < 0 || c >= len(d.carriers) {
				return carbonerr.New("asyncdict.extract", carbonerr.IndexOutOfRange, "carrier out of range")
			}
			strs, err := d.carriers[c].Extract(j.localIDs)
			if err != nil {
				return err
			}
			mu.Lock()
			results[c] = strs
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, c := range order {
		j := byCarrier[c]
		strs := results[c]
		for k, pos := range j.positions {
			out[pos] = strs[k]
		}
	}
	return out, nil
}

// Counters aggregates probe/hit/miss counters across all carriers.
func (d *Dict) Counters() metrics.Snapshot {
	var total metrics.Snapshot
	for _, c := range d.carriers {
		total = total.Merge(c.Counters())
	}
	return total
}

// ResetCounters resets every carrier's counters.
func (d *Dict) ResetCounters() {
	for _, c := range d.carriers {
		c.ResetCounters()
	}
}

package dict

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func b(s string) []byte { return []byte(s) }

func TestInsertDedupesWithinBatch(t *testing.T) {
	d := New(Config{})
	ids := d.Insert([][]byte{b("a"), b("b"), b("a")})
	require.Equal(t, ids[0], ids[2])
	require.NotEqual(t, ids[0], ids[1])
}

func TestInsertReusesIdsAcrossCalls(t *testing.T) {
	d := New(Config{})
	first := d.Insert([][]byte{b("x")})
	second := d.Insert([][]byte{b("x"), b("y")})
	require.Equal(t, first[0], second[0])
	require.NotEqual(t, first[0], second[1])
}

func TestLocateSafeDoesNotInsert(t *testing.T) {
	d := New(Config{})
	d.Insert([][]byte{b("known")})

	ids, found, notFound := d.LocateSafe([][]byte{b("known"), b("unknown")})
	require.True(t, found[0])
	require.False(t, found[1])
	require.Equal(t, 1, notFound)
	require.Len(t, ids, 2)
}

func TestRemoveFreesSlotForReuse(t *testing.T) {
	d := New(Config{})
	ids := d.Insert([][]byte{b("gone")})
	d.Remove(ids)

	_, found, notFound := d.LocateSafe([][]byte{b("gone")})
	require.False(t, found[0])
	require.Equal(t, 1, notFound)

	reinserted := d.Insert([][]byte{b("new")})
	require.Equal(t, ids[0], reinserted[0], "freed slot should be recycled")
}

func TestExtractRendersNullSentinel(t *testing.T) {
	d := New(Config{})
	ids := d.Insert([][]byte{b("hello")})

	out, err := d.Extract([]uint64{ids[0], NullID})
	require.NoError(t, err)
	require.Equal(t, []string{"hello", NullText}, out)
}

func TestExtractRejectsRemovedID(t *testing.T) {
	d := New(Config{})
	ids := d.Insert([][]byte{b("temp")})
	d.Remove(ids)

	_, err := d.Extract(ids)
	require.Error(t, err)
}

func TestCountersTrackProbesHitsMisses(t *testing.T) {
	d := New(Config{})
	d.Insert([][]byte{b("a"), b("b")})
	d.Insert([][]byte{b("a")})

	snap := d.Counters()
	require.EqualValues(t, 2, snap.Probes)
	require.EqualValues(t, 1, snap.Hits)
	require.EqualValues(t, 2, snap.Misses)

	d.ResetCounters()
	require.Zero(t, d.Counters().Probes)
}

// TestConcurrentInsertIsMutuallyExclusive drives many goroutines inserting
// through the same Dict at once. Each goroutine's own distinct strings must
// all intern without data loss or corruption of the freelist/index — a
// broken Acquire/Release pairing (e.g. a reentrancy token that is shared
// across goroutines instead of identifying the calling one) shows up here
// as duplicate ids, missing ids, or a race detector failure under `-race`.
func TestConcurrentInsertIsMutuallyExclusive(t *testing.T) {
	d := New(Config{})
	const goroutines = 32
	const perGoroutine = 50

	var wg sync.WaitGroup
	results := make([][]uint64, goroutines)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			strs := make([][]byte, perGoroutine)
			for i := range strs {
				strs[i] = b(fmt.Sprintf("g%d-s%d", g, i))
			}
			results[g] = d.Insert(strs)
		}(g)
	}
	wg.Wait()

	seen := make(map[uint64]bool)
	for _, ids := range results {
		require.Len(t, ids, perGoroutine)
		for _, id := range ids {
			require.False(t, seen[id], "id %d assigned to more than one distinct string", id)
			seen[id] = true
		}
	}
	require.Len(t, seen, goroutines*perGoroutine)
}

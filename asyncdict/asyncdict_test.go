package asyncdict

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpcpool/carbondict/dict"
)

func b(s string) []byte { return []byte(s) }

func TestEncodeDecodeGlobalRoundTrip(t *testing.T) {
	carrier, local := 3, uint64(12345)
	g := EncodeGlobal(carrier, local)
	c2, l2 := DecodeGlobal(g)
	require.Equal(t, carrier, c2)
	require.Equal(t, local, l2)
}

func TestNewRejectsTooManyCarriers(t *testing.T) {
	_, err := New(Config{NumCarriers: MaxCarriers + 1})
	require.Error(t, err)
}

func TestInsertPreservesInputOrderAcrossCarriers(t *testing.T) {
	d, err := New(Config{NumCarriers: 4})
	require.NoError(t, err)

	keys := [][]byte{b("alpha"), b("beta"), b("gamma"), b("delta"), b("alpha")}
	ids, err := d.Insert(context.Background(), keys)
	require.NoError(t, err)
	require.Len(t, ids, len(keys))
	require.Equal(t, ids[0], ids[4], "repeated key must reuse the same global id")
	require.NotEqual(t, ids[0], ids[1])
}

func TestLocateSafeAfterInsert(t *testing.T) {
	d, err := New(Config{NumCarriers: 4})
	require.NoError(t, err)
	ctx := context.Background()

	keys := [][]byte{b("one"), b("two"), b("three")}
	ids, err := d.Insert(ctx, keys)
	require.NoError(t, err)

	located, found, notFound, err := d.LocateSafe(ctx, [][]byte{b("one"), b("missing"), b("three")})
	require.NoError(t, err)
	require.Equal(t, 1, notFound)
	require.True(t, found[0])
	require.False(t, found[1])
	require.True(t, found[2])
	require.Equal(t, ids[0], located[0])
	require.Equal(t, ids[2], located[2])
}

func TestExtractRoundTripsAcrossCarriers(t *testing.T) {
	d, err := New(Config{NumCarriers: 4})
	require.NoError(t, err)
	ctx := context.Background()

	keys := [][]byte{b("red"), b("green"), b("blue")}
	ids, err := d.Insert(ctx, keys)
	require.NoError(t, err)

	out, err := d.Extract(ctx, append(append([]uint64{}, ids...), NullID))
	require.NoError(t, err)
	require.Equal(t, []string{"red", "green", "blue", dict.NullText}, out)
}

func TestRemoveThenLocateReportsNotFound(t *testing.T) {
	d, err := New(Config{NumCarriers: 2})
	require.NoError(t, err)
	ctx := context.Background()

	ids, err := d.Insert(ctx, [][]byte{b("ephemeral")})
	require.NoError(t, err)

	require.NoError(t, d.Remove(ctx, ids))

	_, found, notFound, err := d.LocateSafe(ctx, [][]byte{b("ephemeral")})
	require.NoError(t, err)
	require.False(t, found[0])
	require.Equal(t, 1, notFound)
}

func TestCountersAggregateAcrossCarriers(t *testing.T) {
	d, err := New(Config{NumCarriers: 4})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = d.Insert(ctx, [][]byte{b("a"), b("b"), b("c"), b("d")})
	require.NoError(t, err)

	snap := d.Counters()
	require.EqualValues(t, 4, snap.Misses, "four distinct new keys across carriers")
	require.Zero(t, snap.Hits)
	require.GreaterOrEqual(t, snap.Probes, int64(1))
	require.LessOrEqual(t, snap.Probes, int64(4))

	d.ResetCounters()
	require.Zero(t, d.Counters().Probes)
}

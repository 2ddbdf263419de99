package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsNullDetectsReservedPatterns(t *testing.T) {
	require.True(t, IsNull(MarkerUint8, []byte{0xFF}))
	require.False(t, IsNull(MarkerUint8, []byte{0x01}))

	var buf [8]byte
	for i := range buf {
		buf[i] = 0xFF
	}
	require.True(t, IsNull(MarkerUint64, buf[:]))

	// Signed null is the maximum positive value, not the negative minimum.
	require.True(t, IsNull(MarkerInt8, []byte{0x7F}))
	require.False(t, IsNull(MarkerInt8, []byte{0x80}))
}

func TestValidateMarkerRejectsUnknown(t *testing.T) {
	m, err := ValidateMarker(byte(MarkerBinary))
	require.NoError(t, err)
	require.Equal(t, MarkerBinary, m)

	_, err = ValidateMarker(byte(markerCount + 1))
	require.Error(t, err)
}

func TestWidthReturnsMinusOneForVariable(t *testing.T) {
	require.Equal(t, 1, MarkerUint8.Width())
	require.Equal(t, 8, MarkerFloat64.Width())
	require.Equal(t, -1, MarkerString.Width())
	require.Equal(t, -1, ArrayOpener(DefaultSetClass).Width())
}

func TestMarkerAlphabetRoundTrips(t *testing.T) {
	for _, class := range []ColumnClass{
		DefaultSetClass,
		DefaultMapClass,
		DefaultSetClass.DeriveSorted(),
		DefaultSetClass.DeriveDistinct(),
	} {
		arrOpener := ArrayOpener(class)
		got, ok := ArrayClassOf(arrOpener)
		require.True(t, ok)
		require.Equal(t, class.Ordering, got.Ordering)
		require.Equal(t, class.Multiplicity, got.Multiplicity)
		require.True(t, IsArrayOpener(arrOpener))

		closer, ok := CloserFor(arrOpener)
		require.True(t, ok)
		closerClass, ok := ArrayCloserClassOf(closer)
		require.True(t, ok)
		require.Equal(t, class.Ordering, closerClass.Ordering)
		require.Equal(t, class.Multiplicity, closerClass.Multiplicity)
	}

	colOpener := ColumnOpener(MarkerUint32, DefaultSetClass)
	primitive, class, ok := ColumnInfoOf(colOpener)
	require.True(t, ok)
	require.Equal(t, MarkerUint32, primitive)
	require.Equal(t, DefaultSetClass.Ordering, class.Ordering)
	require.True(t, IsColumnOpener(colOpener))

	_, hasCloser := CloserFor(colOpener)
	require.False(t, hasCloser, "columns are self-delimited and have no closer marker")
}

func TestColumnOpenerPanicsOnNonColumnPrimitive(t *testing.T) {
	require.Panics(t, func() { ColumnOpener(MarkerString, DefaultSetClass) })
}

func TestColumnClassName(t *testing.T) {
	require.Equal(t, "unsorted-multiset", Derive(false, false, false).Name())
	require.Equal(t, "unsorted-unique-set", Derive(false, true, false).Name())
	require.Equal(t, "sorted-multimap", Derive(true, false, true).Name())
	require.Equal(t, "unsorted-unique-map", Derive(false, true, true).Name())
}

func TestDeriveUpgrades(t *testing.T) {
	c := Derive(false, false, false)
	require.Equal(t, Sorted, c.DeriveSorted().Ordering)
	require.Equal(t, Unique, c.DeriveDistinct().Multiplicity)
}

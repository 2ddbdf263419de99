package inserter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpcpool/carbondict/carbon/iterator"
	"github.com/rpcpool/carbondict/carbon/memfile"
	"github.com/rpcpool/carbondict/carbon/types"
)

func openRoot(t *testing.T, f *memfile.File, opener types.Marker) *iterator.Iterator {
	t.Helper()
	require.NoError(t, f.Seek(0))
	markerByte, err := f.ReadU8()
	require.NoError(t, err)
	require.Equal(t, opener, types.Marker(markerByte))
	body, err := iterator.ReadContainerBody(f, opener)
	require.NoError(t, err)
	return iterator.Open(memfile.FromBytes(body), opener, 0, len(body))
}

func TestArrayRoundTrip(t *testing.T) {
	f := memfile.New()
	opener := types.ArrayOpener(types.DefaultSetClass)
	arr := Open(f, opener, 0)
	arr.AppendUint64("", 7)
	arr.AppendString("", "hi")
	arr.AppendNull("")
	n := arr.Close()
	require.Equal(t, 3, n)

	it := openRoot(t, f, opener)

	first, err := it.Next()
	require.NoError(t, err)
	require.Equal(t, types.MarkerUint64, first.Marker)

	second, err := it.Next()
	require.NoError(t, err)
	require.Equal(t, types.MarkerString, second.Marker)
	require.Equal(t, "hi", string(second.Payload))

	third, err := it.Next()
	require.NoError(t, err)
	require.Equal(t, types.MarkerNull, third.Marker)

	require.True(t, it.Done())
}

func TestObjectRoundTrip(t *testing.T) {
	f := memfile.New()
	opener := types.ObjectOpener(types.DefaultMapClass)
	obj := Open(f, opener, 0)
	obj.AppendUint64("x", 1)
	obj.AppendBool("y", true)
	obj.Close()

	it := openRoot(t, f, opener)
	x, err := it.Next()
	require.NoError(t, err)
	require.Equal(t, "x", x.Key)
	require.Equal(t, types.MarkerUint64, x.Marker)

	y, err := it.Next()
	require.NoError(t, err)
	require.Equal(t, "y", y.Key)
	require.Equal(t, types.MarkerBoolTrue, y.Marker)
}

func TestNestedContainer(t *testing.T) {
	f := memfile.New()
	arrOpener := types.ArrayOpener(types.DefaultSetClass)
	objOpener := types.ObjectOpener(types.DefaultMapClass)

	root := Open(f, arrOpener, 0)
	child := root.OpenSub("", objOpener, 0)
	child.AppendUint64("id", 42)
	child.Close()
	root.Close()

	it := openRoot(t, f, arrOpener)
	field, err := it.Next()
	require.NoError(t, err)
	require.Equal(t, objOpener, field.Marker)

	sub, err := it.OpenSub(field)
	require.NoError(t, err)
	idField, err := sub.Next()
	require.NoError(t, err)
	require.Equal(t, "id", idField.Key)
}

func TestColumnRoundTrip(t *testing.T) {
	f := memfile.New()
	arrOpener := types.ArrayOpener(types.DefaultSetClass)
	colOpener := types.ColumnOpener(types.MarkerUint8, types.DefaultSetClass)

	root := Open(f, arrOpener, 0)
	col := root.OpenSub("", colOpener, 3)
	col.WriteColumnHeader(types.MarkerUint8, 3)
	col.AppendColumnElement(types.MarkerUint8, float64(1))
	col.AppendColumnElement(types.MarkerUint8, nil)
	col.AppendColumnElement(types.MarkerUint8, float64(9))
	col.Close()
	root.Close()

	it := openRoot(t, f, arrOpener)

	field, err := it.Next()
	require.NoError(t, err)
	require.Equal(t, colOpener, field.Marker)

	view, err := iterator.OpenColumn(field.Payload)
	require.NoError(t, err)
	require.Equal(t, 3, view.Len())

	v0, ok := view.At(0)
	require.True(t, ok)
	require.EqualValues(t, 1, v0.Payload[0])

	v1, ok := view.At(1)
	require.True(t, ok)
	require.True(t, types.IsNull(v1.Marker, v1.Payload))

	_, ok = view.At(5)
	require.False(t, ok)
}

// TestArrayCloserTerminatesAtCorrectDepth checks that a nested array of the
// same abstract class does not get mistaken for the outer array's own
// closer: the inner array's closer must be consumed while skipping it,
// leaving the outer scan to find its own, distinct closer byte.
func TestArrayCloserTerminatesAtCorrectDepth(t *testing.T) {
	f := memfile.New()
	opener := types.ArrayOpener(types.DefaultSetClass)

	root := Open(f, opener, 0)
	inner := root.OpenSub("", opener, 0)
	inner.AppendUint64("", 1)
	inner.Close()
	root.AppendUint64("", 2)
	root.Close()

	it := openRoot(t, f, opener)
	first, err := it.Next()
	require.NoError(t, err)
	require.Equal(t, opener, first.Marker)

	second, err := it.Next()
	require.NoError(t, err)
	require.Equal(t, types.MarkerUint64, second.Marker)

	require.True(t, it.Done())
}

func TestManyStringEntriesRoundTrip(t *testing.T) {
	f := memfile.New()
	opener := types.ArrayOpener(types.DefaultSetClass)
	arr := Open(f, opener, 0)
	for i := 0; i < 200; i++ {
		arr.AppendString("", "xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx")
	}
	arr.Close()

	it := openRoot(t, f, opener)
	count := 0
	for !it.Done() {
		fl, err := it.Next()
		require.NoError(t, err)
		require.Equal(t, types.MarkerString, fl.Marker)
		count++
	}
	require.Equal(t, 200, count)
}

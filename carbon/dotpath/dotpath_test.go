package dotpath

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpcpool/carbondict/carbon/jsonbuild"
	"github.com/rpcpool/carbondict/carbon/revise"
	"github.com/rpcpool/carbondict/carbon/types"
)

func TestParseAtoms(t *testing.T) {
	segs, err := Parse(`a.3."quoted key".b`)
	require.NoError(t, err)
	require.Len(t, segs, 4)
	require.Equal(t, SegmentKey, segs[0].Kind)
	require.Equal(t, "a", segs[0].Key)
	require.Equal(t, SegmentIndex, segs[1].Kind)
	require.Equal(t, 3, segs[1].Index)
	require.Equal(t, SegmentKey, segs[2].Kind)
	require.Equal(t, "quoted key", segs[2].Key)
}

func TestParseRejectsEmptyAndTrailingDot(t *testing.T) {
	_, err := Parse("")
	require.Error(t, err)
	_, err = Parse("a.")
	require.Error(t, err)
}

func recordFromJSON(t *testing.T, raw string) *revise.Record {
	t.Helper()
	encoded, err := jsonbuild.Build([]byte(raw))
	require.NoError(t, err)
	return revise.New(encoded, false)
}

// S5: a single wrapped object at the root supports both the full path and
// the shortened-root form.
func TestShortenedRootFiresForSingleObject(t *testing.T) {
	rec := recordFromJSON(t, `{"x":"y"}`)

	r1, err := Resolve(rec, "0.x")
	require.NoError(t, err)
	require.True(t, r1.HasResult())
	require.Equal(t, "y", string(r1.Field().Payload))

	r2, err := Resolve(rec, "x")
	require.NoError(t, err)
	require.True(t, r2.HasResult())
	require.Equal(t, "y", string(r2.Field().Payload))
}

// S5 continued: a root array of two objects does not qualify (more than one
// child), so only the indexed form works.
func TestShortenedRootDoesNotFireForMultipleChildren(t *testing.T) {
	rec := recordFromJSON(t, `[{"x":"y"},{"x":"z"}]`)

	r1, err := Resolve(rec, "0.x")
	require.NoError(t, err)
	require.True(t, r1.HasResult())
	require.Equal(t, "y", string(r1.Field().Payload))

	r2, err := Resolve(rec, "x")
	require.NoError(t, err)
	require.False(t, r2.HasResult())
}

// S6: a homogeneous numeric array collapses to a single root-level column
// (root's sole child); "0" reaches the column itself, and "0.<i>" indexes
// its packed elements, including an explicit null.
func TestColumnIndexResolution(t *testing.T) {
	rec := recordFromJSON(t, `[1,null,3]`)

	root, err := Resolve(rec, "0")
	require.NoError(t, err)
	require.True(t, root.HasResult())
	require.True(t, types.IsColumnOpener(root.ResultType()))

	r1, err := Resolve(rec, "0.1")
	require.NoError(t, err)
	require.True(t, r1.HasResult())
	require.True(t, types.IsNull(r1.ResultType(), r1.Field().Payload))

	r5, err := Resolve(rec, "0.5")
	require.NoError(t, err)
	require.False(t, r5.HasResult())
}

func TestOutOfRangeProducesNoResultNotError(t *testing.T) {
	rec := recordFromJSON(t, `{"a":1}`)
	r, err := Resolve(rec, "missing.deeper")
	require.NoError(t, err)
	require.False(t, r.HasResult())
}

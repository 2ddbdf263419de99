package render

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpcpool/carbondict/carbon/header"
	"github.com/rpcpool/carbondict/carbon/inserter"
	"github.com/rpcpool/carbondict/carbon/jsonbuild"
	"github.com/rpcpool/carbondict/carbon/memfile"
	"github.com/rpcpool/carbondict/carbon/revise"
	"github.com/rpcpool/carbondict/carbon/types"
)

func buildRecord(t *testing.T, raw string, keyed bool) *revise.Record {
	t.Helper()
	encoded, err := jsonbuild.Build([]byte(raw))
	require.NoError(t, err)
	return revise.New(encoded, keyed)
}

func TestCompactRendersWrappedObjectBare(t *testing.T) {
	rec := buildRecord(t, `{"x":"y"}`, false)
	out, err := Compact(rec)
	require.NoError(t, err)
	require.JSONEq(t, `{"x":"y"}`, string(out))
}

func TestCompactRendersHeterogeneousArrayDirectly(t *testing.T) {
	rec := buildRecord(t, `[{"x":"y"},{"x":"z"}]`, false)
	out, err := Compact(rec)
	require.NoError(t, err)
	require.JSONEq(t, `[{"x":"y"},{"x":"z"}]`, string(out))
}

func TestCompactRendersHomogeneousArrayAsColumn(t *testing.T) {
	rec := buildRecord(t, `[1,2,3]`, false)
	out, err := Compact(rec)
	require.NoError(t, err)
	require.JSONEq(t, `[1,2,3]`, string(out))
}

func TestExtendedEnvelopeNokey(t *testing.T) {
	rec := buildRecord(t, `{"a":1}`, false)
	out, err := Extended(rec)
	require.NoError(t, err)
	require.JSONEq(t, `{"meta":{"key":{"type":"nokey","value":null},"commit":null},"doc":{"a":1}}`, string(out))
}

func TestExtendedEnvelopeKeyedCarriesCommitHash(t *testing.T) {
	f := memfile.New()
	header.Write(f, header.KeyAuto, uint64(7))
	root := inserter.Open(f, types.ArrayOpener(types.DefaultSetClass), 0)
	root.AppendUint64("", 1)
	root.Close()

	rec := revise.New(f.Bytes(), true)
	sess := rec.Begin()
	hash, err := sess.Commit()
	require.NoError(t, err)
	require.NotZero(t, hash)

	out, err := Extended(rec)
	require.NoError(t, err)
	require.Contains(t, string(out), `"commit":`)
	require.NotContains(t, string(out), `"commit":null`)
	require.Contains(t, string(out), `"type":"autokey"`)
}

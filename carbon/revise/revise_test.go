package revise

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpcpool/carbondict/carbon/header"
	"github.com/rpcpool/carbondict/carbon/inserter"
	"github.com/rpcpool/carbondict/carbon/memfile"
	"github.com/rpcpool/carbondict/carbon/types"
)

func buildSimpleRecord(t *testing.T) []byte {
	t.Helper()
	f := memfile.New()
	header.Write(f, header.KeyNone, nil)
	root := inserter.Open(f, types.ArrayOpener(types.DefaultSetClass), 0)
	root.AppendUint64("", 1)
	root.Close()
	return f.Bytes()
}

// buildKeyedRecord prefixes the root container with a real key value, so the
// commit hash range (header.RootStart onward) excludes nonzero key bytes
// rather than starting from a record that happens to have none.
func buildKeyedRecord(t *testing.T, keyValue uint64) []byte {
	t.Helper()
	f := memfile.New()
	header.Write(f, header.KeyAuto, keyValue)
	root := inserter.Open(f, types.ArrayOpener(types.DefaultSetClass), 0)
	root.AppendUint64("", 1)
	root.Close()
	return f.Bytes()
}

func TestCommitPinsZeroForNokey(t *testing.T) {
	rec := New(buildSimpleRecord(t), false)
	sess := rec.Begin()
	hash, err := sess.Commit()
	require.NoError(t, err)
	require.EqualValues(t, 0, hash)
	require.EqualValues(t, 0, rec.CommitHash())
}

func TestCommitReusesHashWhenBytesUnchanged(t *testing.T) {
	rec := New(buildSimpleRecord(t), true)
	sess := rec.Begin()
	h1, err := sess.Commit()
	require.NoError(t, err)
	require.NotZero(t, h1)

	sess2 := rec.Begin() // clone is byte-identical, no mutation
	h2, err := sess2.Commit()
	require.NoError(t, err)
	require.Equal(t, h1, h2, "unchanged bytes must reuse the prior hash")
}

func TestCommitRecomputesHashWhenBytesChange(t *testing.T) {
	rec := New(buildSimpleRecord(t), true)
	sess := rec.Begin()
	h1, err := sess.Commit()
	require.NoError(t, err)

	sess2 := rec.Begin()
	require.NoError(t, sess2.File().Seek(sess2.File().Len()))
	sess2.File().WriteBytes([]byte{0x01, 0x02})
	h2, err := sess2.Commit()
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}

func TestBeginIsolatesParentUntilCommit(t *testing.T) {
	rec := New(buildSimpleRecord(t), false)
	before := append([]byte(nil), rec.Bytes()...)
	sess := rec.Begin()
	sess.File().WriteBytes([]byte{0xAA})
	require.Equal(t, before, rec.Bytes(), "parent must be unaffected before Commit")
	_, err := sess.Commit()
	require.NoError(t, err)
	require.NotEqual(t, before, rec.Bytes())
}

// TestCommitHashExcludesKeyBytes pins down that changing only the key value
// between two commits of the same record (the post-key payload bytes left
// untouched) reuses the prior commit hash: the hash range must start at
// header.RootStart, not byte 0, so key bytes never participate in it.
func TestCommitHashExcludesKeyBytes(t *testing.T) {
	rec := New(buildKeyedRecord(t, 111), true)
	sess := rec.Begin()
	h1, err := sess.Commit()
	require.NoError(t, err)
	require.NotZero(t, h1)

	sess2 := rec.Begin()
	require.NoError(t, sess2.File().Seek(1)) // key value occupies bytes [1:9]
	sess2.File().WriteU64(222)
	h2, err := sess2.Commit()
	require.NoError(t, err)

	require.Equal(t, h1, h2, "commit hash must exclude key bytes and depend only on the post-key payload")
}

// TestCommitHashChangesWithPayloadNotKey confirms the converse: the same
// key value with a changed payload must re-hash.
func TestCommitHashChangesWithPayloadNotKey(t *testing.T) {
	rec := New(buildKeyedRecord(t, 111), true)
	sess := rec.Begin()
	h1, err := sess.Commit()
	require.NoError(t, err)

	sess2 := rec.Begin()
	require.NoError(t, sess2.File().Seek(sess2.File().Len()))
	sess2.File().WriteBytes([]byte{0x01, 0x02})
	h2, err := sess2.Commit()
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}

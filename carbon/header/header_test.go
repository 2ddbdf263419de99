package header

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpcpool/carbondict/carbon/memfile"
)

func TestWriteReadNoKey(t *testing.T) {
	f := memfile.New()
	Write(f, KeyNone, nil)
	hdr, err := Read(f)
	require.NoError(t, err)
	require.Equal(t, KeyNone, hdr.Kind)
	require.Nil(t, hdr.KeyValue)
	require.Zero(t, hdr.CommitHash)
	require.Equal(t, 9, hdr.RootStart) // 1 marker byte + 8 hash bytes
}

func TestWriteReadStringKey(t *testing.T) {
	f := memfile.New()
	Write(f, KeyString, "hello")
	hdr, err := Read(f)
	require.NoError(t, err)
	require.Equal(t, KeyString, hdr.Kind)
	require.Equal(t, "hello", hdr.KeyValue)
}

func TestWriteReadSignedKey(t *testing.T) {
	f := memfile.New()
	Write(f, KeySigned, int64(-42))
	hdr, err := Read(f)
	require.NoError(t, err)
	require.Equal(t, int64(-42), hdr.KeyValue)
}

func TestPatchCommitHash(t *testing.T) {
	f := memfile.New()
	Write(f, KeyUnsigned, uint64(7))
	hdr, err := Read(f)
	require.NoError(t, err)
	require.NoError(t, PatchCommitHash(f, hdr.HashOffset, 0xABCD))
	hdr2, err := Read(f)
	require.NoError(t, err)
	require.EqualValues(t, 0xABCD, hdr2.CommitHash)
	require.Equal(t, hdr.RootStart, hdr2.RootStart)
}

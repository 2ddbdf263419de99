package jsonbuild

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpcpool/carbondict/carbon/header"
	"github.com/rpcpool/carbondict/carbon/memfile"
)

func TestBuildWritesNokeyHeader(t *testing.T) {
	encoded, err := Build([]byte(`{"x":1}`))
	require.NoError(t, err)

	f := memfile.FromBytes(encoded)
	hdr, err := header.Read(f)
	require.NoError(t, err)
	require.Equal(t, header.KeyNone, hdr.Kind)
	require.Zero(t, hdr.CommitHash)
}

func TestBuildRejectsInvalidJSON(t *testing.T) {
	_, err := Build([]byte(`{not json`))
	require.Error(t, err)
}

func TestHomogeneousClassDetection(t *testing.T) {
	t.Run("all null is not classifiable", func(t *testing.T) {
		_, ok := homogeneousClass([]any{nil, nil})
		require.False(t, ok)
	})
	t.Run("mixed bool and number rejected", func(t *testing.T) {
		_, ok := homogeneousClass([]any{true, float64(1)})
		require.False(t, ok)
	})
	t.Run("narrow unsigned", func(t *testing.T) {
		class, ok := homogeneousClass([]any{float64(1), float64(200), nil})
		require.True(t, ok)
		require.Equal(t, "uint8", class.String())
	})
	t.Run("negative forces signed", func(t *testing.T) {
		class, ok := homogeneousClass([]any{float64(-1), float64(10)})
		require.True(t, ok)
		require.Equal(t, "int8", class.String())
	})
	t.Run("fractional forces float", func(t *testing.T) {
		class, ok := homogeneousClass([]any{float64(1.5), float64(2)})
		require.True(t, ok)
		require.Equal(t, "float64", class.String())
	})
	t.Run("object array is never homogeneous", func(t *testing.T) {
		_, ok := homogeneousClass([]any{map[string]any{"a": float64(1)}})
		require.False(t, ok)
	})
}

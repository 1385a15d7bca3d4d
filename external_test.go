package vpack_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/chaisql/vpack"
)

func TestBuilderExternal(t *testing.T) {
	inner := vpack.NewBuilder(vpack.Options{})
	require.NoError(t, inner.Add(vpack.IntValue(3))) // SmallInt: a single, self-contained byte
	innerSlice, err := inner.Slice()
	require.NoError(t, err)
	innerBytes := append([]byte(nil), innerSlice.Head())

	b := vpack.NewBuilder(vpack.Options{})
	require.NoError(t, b.Add(vpack.ExternalValue(unsafe.Pointer(&innerBytes[0]))))
	s, err := b.Slice()
	require.NoError(t, err)
	require.True(t, s.IsExternal())

	sz, err := s.ByteSize()
	require.NoError(t, err)
	require.Equal(t, 9, sz) // head + 8-byte pointer

	ext, err := s.External()
	require.NoError(t, err)
	require.True(t, ext.IsSmallInt())
}

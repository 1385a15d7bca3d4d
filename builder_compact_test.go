package vpack_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chaisql/vpack"
)

// Byte counts below are reproduced from ArangoDB's testsBuilder.cpp
// compact-array boundary cases: 124 vs 125 one-byte SmallInt members
// walk the varint byteSize field from 1 to 2 bytes, and 127 vs 128
// four-byte-string members walk the trailing member-count varint from
// 1 to 2 bytes.
func TestBuilderCompactArrayVarintBoundary(t *testing.T) {
	tests := []struct {
		name        string
		n           int
		elem        func(i int) vpack.Value
		wantSize    int
		wantCountSz int // bytes of the trailing reverse-varint count
	}{
		{"124 smallints", 124, func(i int) vpack.Value { return vpack.IntValue(int64(i % 10)) }, 127, 1},
		{"125 smallints", 125, func(i int) vpack.Value { return vpack.IntValue(int64(i % 10)) }, 129, 1},
		{"127 four-byte strings", 127, func(i int) vpack.Value { return vpack.StringValue("aaa") }, 512, 1},
		{"128 four-byte strings", 128, func(i int) vpack.Value { return vpack.StringValue("aaa") }, 517, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := vpack.NewBuilder(vpack.Options{})
			require.NoError(t, b.OpenArray(true))
			for i := 0; i < tt.n; i++ {
				require.NoError(t, b.Add(tt.elem(i)))
			}
			require.NoError(t, b.Close())

			s, err := b.Slice()
			require.NoError(t, err)
			sz, err := s.ByteSize()
			require.NoError(t, err)
			require.Equal(t, tt.wantSize, sz)

			n, err := s.Length()
			require.NoError(t, err)
			require.Equal(t, tt.n, n)

			last, err := s.At(tt.n - 1)
			require.NoError(t, err)
			require.False(t, last.IsNone())
		})
	}
}

func TestBuilderCompactArrayEmpty(t *testing.T) {
	b := vpack.NewBuilder(vpack.Options{})
	require.NoError(t, b.OpenArray(true))
	require.NoError(t, b.Close())

	s, err := b.Slice()
	require.NoError(t, err)
	require.Equal(t, byte(0x01), s.Head())
	n, err := s.Length()
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestBuilderCompactObjectRoundTrip(t *testing.T) {
	b := vpack.NewBuilder(vpack.Options{})
	require.NoError(t, b.OpenObject(true, false))
	require.NoError(t, b.AddKeyValue("a", vpack.IntValue(1)))
	require.NoError(t, b.AddKeyValue("b", vpack.StringValue("x")))
	require.NoError(t, b.Close())

	s, err := b.Slice()
	require.NoError(t, err)
	require.True(t, s.IsObject())

	v, err := s.Get("b")
	require.NoError(t, err)
	got, err := v.String()
	require.NoError(t, err)
	require.Equal(t, "x", got)

	missing, err := s.Get("nope")
	require.NoError(t, err)
	require.True(t, missing.IsNone())
}

package vpack_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/chaisql/vpack"
)

func unsafePointerOf(x *int) unsafe.Pointer { return unsafe.Pointer(x) }

func TestBuilderIndexedArray(t *testing.T) {
	b := vpack.NewBuilder(vpack.Options{})
	require.NoError(t, b.OpenArray(false))
	require.NoError(t, b.Add(vpack.IntValue(1)))
	require.NoError(t, b.Add(vpack.StringValue("two")))
	require.NoError(t, b.Add(vpack.BoolValue(true)))
	require.NoError(t, b.Close())

	s, err := b.Slice()
	require.NoError(t, err)
	require.True(t, s.IsArray())

	n, err := s.Length()
	require.NoError(t, err)
	require.Equal(t, 3, n)

	v0, err := s.At(0)
	require.NoError(t, err)
	i0, err := v0.Int()
	require.NoError(t, err)
	require.EqualValues(t, 1, i0)

	v1, err := s.At(1)
	require.NoError(t, err)
	str1, err := v1.String()
	require.NoError(t, err)
	require.Equal(t, "two", str1)

	_, err = s.At(3)
	require.ErrorIs(t, err, vpack.ErrIndexOutOfBounds)
}

func TestBuilderNoIndexUniformArray(t *testing.T) {
	b := vpack.NewBuilder(vpack.Options{})
	require.NoError(t, b.OpenArray(false))
	require.NoError(t, b.Add(vpack.IntValue(1)))
	require.NoError(t, b.Add(vpack.IntValue(2)))
	require.NoError(t, b.Add(vpack.IntValue(3)))
	require.NoError(t, b.Close())

	s, err := b.Slice()
	require.NoError(t, err)
	// Three equal-width SmallInt elements take the no-index form:
	// head + 1-byte size + 3 one-byte values = 5 bytes total.
	sz, err := s.ByteSize()
	require.NoError(t, err)
	require.Equal(t, 5, sz)
	require.Equal(t, byte(0x02), s.Head())

	n, err := s.Length()
	require.NoError(t, err)
	require.Equal(t, 3, n)
	v2, err := s.At(2)
	require.NoError(t, err)
	got, err := v2.Int()
	require.NoError(t, err)
	require.EqualValues(t, 3, got)
}

func TestBuilderUnsortedObject(t *testing.T) {
	b := vpack.NewBuilder(vpack.Options{})
	require.NoError(t, b.OpenObject(false, false))
	require.NoError(t, b.AddKeyValue("z", vpack.IntValue(1)))
	require.NoError(t, b.AddKeyValue("a", vpack.IntValue(2)))
	require.NoError(t, b.Close())

	s, err := b.Slice()
	require.NoError(t, err)
	require.False(t, s.IsSorted())

	k0, err := s.KeyAt(0)
	require.NoError(t, err)
	key0, err := k0.String()
	require.NoError(t, err)
	require.Equal(t, "z", key0) // insertion order preserved, not sorted

	v, err := s.Get("a")
	require.NoError(t, err)
	got, err := v.Int()
	require.NoError(t, err)
	require.EqualValues(t, 2, got)
}

func TestBuilderSortedObject(t *testing.T) {
	b := vpack.NewBuilder(vpack.Options{})
	require.NoError(t, b.OpenObject(false, true))
	require.NoError(t, b.AddKeyValue("z", vpack.IntValue(1)))
	require.NoError(t, b.AddKeyValue("a", vpack.IntValue(2)))
	require.NoError(t, b.AddKeyValue("m", vpack.IntValue(3)))
	require.NoError(t, b.Close())

	s, err := b.Slice()
	require.NoError(t, err)
	require.True(t, s.IsSorted())

	wantOrder := []string{"a", "m", "z"}
	for i, want := range wantOrder {
		k, err := s.KeyAt(i)
		require.NoError(t, err)
		got, err := k.String()
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	v, err := s.Get("m")
	require.NoError(t, err)
	got, err := v.Int()
	require.NoError(t, err)
	require.EqualValues(t, 3, got)

	missing, err := s.Get("q")
	require.NoError(t, err)
	require.True(t, missing.IsNone())
}

func TestBuilderNestedCompounds(t *testing.T) {
	b := vpack.NewBuilder(vpack.Options{})
	require.NoError(t, b.OpenObject(false, false))
	require.NoError(t, b.OpenArrayKey("items", false))
	require.NoError(t, b.Add(vpack.IntValue(1)))
	require.NoError(t, b.OpenObject(false, false))
	require.NoError(t, b.AddKeyValue("nested", vpack.BoolValue(true)))
	require.NoError(t, b.Close()) // close nested object
	require.NoError(t, b.Close()) // close items array
	require.NoError(t, b.AddKeyValue("done", vpack.BoolValue(true)))
	require.NoError(t, b.Close()) // close outer object

	s, err := b.Slice()
	require.NoError(t, err)

	items, err := s.Get("items")
	require.NoError(t, err)
	require.True(t, items.IsArray())
	n, err := items.Length()
	require.NoError(t, err)
	require.Equal(t, 2, n)

	nested, err := items.At(1)
	require.NoError(t, err)
	require.True(t, nested.IsObject())
	inner, err := nested.Get("nested")
	require.NoError(t, err)
	got, err := inner.Bool()
	require.NoError(t, err)
	require.True(t, got)

	done, err := s.Get("done")
	require.NoError(t, err)
	gotDone, err := done.Bool()
	require.NoError(t, err)
	require.True(t, gotDone)
}

func TestBuilderRemoveLast(t *testing.T) {
	b := vpack.NewBuilder(vpack.Options{})
	require.NoError(t, b.OpenObject(false, false))
	require.NoError(t, b.AddKeyValue("foo", vpack.BoolValue(true)))
	require.NoError(t, b.RemoveLast())
	require.ErrorIs(t, b.RemoveLast(), vpack.ErrBuilderNeedSubvalue)
	require.NoError(t, b.Close())

	s, err := b.Slice()
	require.NoError(t, err)
	n, err := s.Length()
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestBuilderKeyAlreadyWritten(t *testing.T) {
	b := vpack.NewBuilder(vpack.Options{})
	require.NoError(t, b.OpenObject(false, false))
	require.NoError(t, b.AddKeyValue("foo", vpack.IntValue(1)))
	require.ErrorIs(t, b.AddKeyValue("foo", vpack.IntValue(2)), vpack.ErrBuilderKeyAlreadyWritten)
}

func TestBuilderKeyMustBeString(t *testing.T) {
	b := vpack.NewBuilder(vpack.Options{})
	require.NoError(t, b.OpenObject(false, false))
	require.ErrorIs(t, b.Add(vpack.IntValue(1)), vpack.ErrBuilderKeyMustBeString)
}

func TestBuilderNeedOpenObject(t *testing.T) {
	b := vpack.NewBuilder(vpack.Options{})
	require.NoError(t, b.OpenArray(false))
	require.ErrorIs(t, b.AddKeyValue("foo", vpack.IntValue(1)), vpack.ErrBuilderNeedOpenObject)
}

func TestBuilderOpenCompoundNeedsOpenArray(t *testing.T) {
	b := vpack.NewBuilder(vpack.Options{})
	require.NoError(t, b.OpenObject(false, false))
	require.ErrorIs(t, b.OpenArray(false), vpack.ErrBuilderNeedOpenArray)
	require.ErrorIs(t, b.OpenObject(false, false), vpack.ErrBuilderNeedOpenArray)
}

func TestBuilderNeedOpenCompound(t *testing.T) {
	b := vpack.NewBuilder(vpack.Options{})
	require.ErrorIs(t, b.Close(), vpack.ErrBuilderNeedOpenCompound)
	require.ErrorIs(t, b.RemoveLast(), vpack.ErrBuilderNeedOpenCompound)

	require.NoError(t, b.Add(vpack.IntValue(1)))
	require.ErrorIs(t, b.Add(vpack.IntValue(2)), vpack.ErrBuilderNeedOpenCompound)
}

func TestBuilderTooDeepNesting(t *testing.T) {
	b := vpack.NewBuilder(vpack.Options{MaxDepth: 2})
	require.NoError(t, b.OpenArray(false))
	require.NoError(t, b.OpenArray(false))
	require.ErrorIs(t, b.OpenArray(false), vpack.ErrTooDeepNesting)
}

func TestBuilderNotSealed(t *testing.T) {
	b := vpack.NewBuilder(vpack.Options{})
	require.NoError(t, b.OpenArray(false))
	_, err := b.Slice()
	require.ErrorIs(t, err, vpack.ErrBuilderNotSealed)
	_, err = b.Size()
	require.ErrorIs(t, err, vpack.ErrBuilderNotSealed)
}

func TestBuilderSteal(t *testing.T) {
	b := vpack.NewBuilder(vpack.Options{})
	require.NoError(t, b.Add(vpack.IntValue(42)))
	raw := b.Steal()
	require.NotEmpty(t, raw)

	s := vpack.NewSlice(raw)
	got, err := s.Int()
	require.NoError(t, err)
	require.EqualValues(t, 42, got)

	// Builder is empty but reusable after Steal.
	require.NoError(t, b.Add(vpack.IntValue(7)))
	s2, err := b.Slice()
	require.NoError(t, err)
	got2, err := s2.Int()
	require.NoError(t, err)
	require.EqualValues(t, 7, got2)
}

func TestBuilderClone(t *testing.T) {
	b := vpack.NewBuilder(vpack.Options{})
	require.NoError(t, b.OpenObject(false, false))
	require.NoError(t, b.AddKeyValue("a", vpack.IntValue(1)))
	require.NoError(t, b.Close())
	s, err := b.Slice()
	require.NoError(t, err)

	clone, err := vpack.Clone(s, vpack.Options{})
	require.NoError(t, err)
	cs, err := clone.Slice()
	require.NoError(t, err)

	orig, err := s.ByteSize()
	require.NoError(t, err)
	cloned, err := cs.ByteSize()
	require.NoError(t, err)
	require.Equal(t, orig, cloned)

	v, err := cs.Get("a")
	require.NoError(t, err)
	got, err := v.Int()
	require.NoError(t, err)
	require.EqualValues(t, 1, got)
}

func TestBuilderExternalsDisallowed(t *testing.T) {
	b := vpack.NewBuilder(vpack.Options{DisallowExternals: true})
	var x int
	err := b.Add(vpack.ExternalValue(unsafePointerOf(&x)))
	require.ErrorIs(t, err, vpack.ErrBuilderExternalsDisallowed)
}

func TestBuilderHasKeyGetKeyWhileOpen(t *testing.T) {
	b := vpack.NewBuilder(vpack.Options{})
	require.NoError(t, b.OpenObject(true, false))
	require.NoError(t, b.AddKeyValue("foo", vpack.BoolValue(true)))

	has, err := b.HasKey("foo")
	require.NoError(t, err)
	require.True(t, has)

	v, err := b.GetKey("foo")
	require.NoError(t, err)
	got, err := v.Bool()
	require.NoError(t, err)
	require.True(t, got)

	has, err = b.HasKey("bar")
	require.NoError(t, err)
	require.False(t, has)

	require.NoError(t, b.Close())
}

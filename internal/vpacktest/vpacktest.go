// Package vpacktest provides JSON-fixture test helpers for building
// vpack.Slice values tersely in table-driven tests, using
// github.com/buger/jsonparser to walk the fixture. It is test-only
// scaffolding, not a production JSON-to-VPack parser.
package vpacktest

import (
	"testing"

	"github.com/buger/jsonparser"
	"github.com/stretchr/testify/require"

	"github.com/chaisql/vpack"
)

// BuildSlice parses jsonFixture and builds the equivalent Slice with a
// default Builder (unsorted Objects, indexed containers). t.Fatal is
// called on any parse or build error.
func BuildSlice(t testing.TB, jsonFixture string) vpack.Slice {
	t.Helper()
	return BuildSliceWithOptions(t, jsonFixture, vpack.Options{})
}

// BuildSliceWithOptions is BuildSlice with caller-supplied Options,
// e.g. for exercising SortAttributeNames or an AttributeTranslator.
func BuildSliceWithOptions(t testing.TB, jsonFixture string, opts vpack.Options) vpack.Slice {
	t.Helper()

	b := vpack.NewBuilder(opts)
	value, dataType, _, err := jsonparser.Get([]byte(jsonFixture))
	require.NoError(t, err)
	require.NoError(t, populate(b, "", false, dataType, value))

	s, err := b.Slice()
	require.NoError(t, err)
	return s
}

func populate(b *vpack.Builder, key string, hasKey bool, dataType jsonparser.ValueType, data []byte) error {
	switch dataType {
	case jsonparser.Null:
		return addValue(b, key, hasKey, vpack.NullValue())
	case jsonparser.Boolean:
		v, err := jsonparser.ParseBoolean(data)
		if err != nil {
			return err
		}
		return addValue(b, key, hasKey, vpack.BoolValue(v))
	case jsonparser.Number:
		if i, err := jsonparser.ParseInt(data); err == nil {
			return addValue(b, key, hasKey, vpack.IntValue(i))
		}
		f, err := jsonparser.ParseFloat(data)
		if err != nil {
			return err
		}
		return addValue(b, key, hasKey, vpack.DoubleValue(f))
	case jsonparser.String:
		s, err := jsonparser.ParseString(data)
		if err != nil {
			return err
		}
		return addValue(b, key, hasKey, vpack.StringValue(s))
	case jsonparser.Array:
		if err := openArray(b, key, hasKey); err != nil {
			return err
		}
		var elemErr error
		if _, err := jsonparser.ArrayEach(data, func(value []byte, dt jsonparser.ValueType, _ int, _ error) {
			if elemErr != nil {
				return
			}
			elemErr = populate(b, "", false, dt, value)
		}); err != nil {
			return err
		}
		if elemErr != nil {
			return elemErr
		}
		return b.Close()
	case jsonparser.Object:
		if err := openObject(b, key, hasKey); err != nil {
			return err
		}
		if err := jsonparser.ObjectEach(data, func(k, value []byte, dt jsonparser.ValueType, _ int) error {
			return populate(b, string(k), true, dt, value)
		}); err != nil {
			return err
		}
		return b.Close()
	default:
		return nil
	}
}

func addValue(b *vpack.Builder, key string, hasKey bool, v vpack.Value) error {
	if hasKey {
		return b.AddKeyValue(key, v)
	}
	return b.Add(v)
}

func openArray(b *vpack.Builder, key string, hasKey bool) error {
	if hasKey {
		return b.OpenArrayKey(key, false)
	}
	return b.OpenArray(false)
}

func openObject(b *vpack.Builder, key string, hasKey bool) error {
	if hasKey {
		return b.OpenObjectKey(key, false, false)
	}
	return b.OpenObject(false, false)
}

// ToNative recursively decodes s into plain Go values (map[string]any,
// []any, string, int64, float64, bool, nil) suitable for
// require.Equal/go-cmp comparisons against a decoded JSON fixture.
func ToNative(t testing.TB, s vpack.Slice) interface{} {
	t.Helper()
	v, err := toNative(s)
	require.NoError(t, err)
	return v
}

func toNative(s vpack.Slice) (interface{}, error) {
	switch s.Type() {
	case vpack.TypeNull:
		return nil, nil
	case vpack.TypeBool:
		return s.Bool()
	case vpack.TypeInt, vpack.TypeSmallInt:
		return s.Int()
	case vpack.TypeUInt:
		return s.UInt()
	case vpack.TypeDouble:
		return s.Double()
	case vpack.TypeUTCDate:
		return s.UTCDate()
	case vpack.TypeString:
		return s.String()
	case vpack.TypeBinary:
		return s.Binary()
	case vpack.TypeArray:
		n, err := s.Length()
		if err != nil {
			return nil, err
		}
		out := make([]interface{}, n)
		for i := 0; i < n; i++ {
			elem, err := s.At(i)
			if err != nil {
				return nil, err
			}
			out[i], err = toNative(elem)
			if err != nil {
				return nil, err
			}
		}
		return out, nil
	case vpack.TypeObject:
		out := map[string]interface{}{}
		err := s.IterateObject(func(_ int, key string, v vpack.Slice) error {
			nv, err := toNative(v)
			if err != nil {
				return err
			}
			out[key] = nv
			return nil
		})
		return out, err
	default:
		return nil, nil
	}
}

package vpack

import "unsafe"

// Value is the scalar payload carried into Builder.Add or
// Builder.AddKeyValue. It is a small tagged union, built by the
// constructor functions below rather than struct literals, so callers
// never poke at raw fields directly.
type Value struct {
	typ ValueType
	b   bool
	i   int64
	u   uint64
	f   float64
	s   string
	bin []byte
	ext unsafe.Pointer
}

// Type reports the logical type this Value will be encoded as.
func (v Value) Type() ValueType {
	return v.typ
}

func NullValue() Value { return Value{typ: TypeNull} }

func BoolValue(b bool) Value { return Value{typ: TypeBool, b: b} }

// IntValue encodes n as a signed Int, using SmallInt when n falls in
// [-6, 9] per §3's "Builder prefers SmallInt ... only when the caller
// used Value(int) without a type override" rule.
func IntValue(n int64) Value { return Value{typ: TypeInt, i: n} }

// UIntValue encodes n as an unsigned UInt, using SmallInt when n is in
// [0, 9].
func UIntValue(n uint64) Value { return Value{typ: TypeUInt, u: n} }

func DoubleValue(f float64) Value { return Value{typ: TypeDouble, f: f} }

// UTCDateValue encodes millis (milliseconds since the Unix epoch, may
// be negative) as a UTCDate.
func UTCDateValue(millis int64) Value { return Value{typ: TypeUTCDate, i: millis} }

func StringValue(s string) Value { return Value{typ: TypeString, s: s} }

func BinaryValue(b []byte) Value { return Value{typ: TypeBinary, bin: b} }

// ExternalValue wraps a raw pointer into foreign memory. Dereferencing
// it is the caller's responsibility; see §5.
func ExternalValue(p unsafe.Pointer) Value { return Value{typ: TypeExternal, ext: p} }

func MinKeyValue() Value { return Value{typ: TypeMinKey} }

func MaxKeyValue() Value { return Value{typ: TypeMaxKey} }

package vpack

import (
	"fmt"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// Slice is a non-owning, read-only view over encoded VPack bytes. It
// never copies or mutates the bytes it was built from; its validity
// is bounded by the lifetime of that backing array, per §5.
type Slice struct {
	data       []byte
	translator AttributeTranslator
}

// NewSlice wraps data, interpreting data[0] as the head byte of a
// single VPack value. data may extend beyond the value's ByteSize;
// only the leading ByteSize() bytes are ever read.
func NewSlice(data []byte) Slice {
	return Slice{data: data}
}

// NewSliceFromString is a convenience wrapper for callers holding the
// bytes as a string (e.g. a map key or a stored document).
func NewSliceFromString(s string) Slice {
	return NewSlice([]byte(s))
}

// WithTranslator returns a copy of s that resolves translated Object
// keys (stored on the wire as SmallInt/UInt handles) back to their
// original strings using t. Builder.Slice installs the Builder's own
// translator automatically.
func (s Slice) WithTranslator(t AttributeTranslator) Slice {
	s.translator = t
	return s
}

func (s Slice) head() byte {
	if len(s.data) == 0 {
		return headNone
	}
	return s.data[0]
}

// Head returns the raw head byte.
func (s Slice) Head() byte { return s.head() }

// Type returns the logical type of this value.
func (s Slice) Type() ValueType { return TypeOf(s.head()) }

func (s Slice) IsNone() bool     { return s.Type() == TypeNone }
func (s Slice) IsNull() bool     { return s.Type() == TypeNull }
func (s Slice) IsBool() bool     { return s.Type() == TypeBool }
func (s Slice) IsDouble() bool   { return s.Type() == TypeDouble }
func (s Slice) IsUTCDate() bool  { return s.Type() == TypeUTCDate }
func (s Slice) IsExternal() bool { return s.Type() == TypeExternal }
func (s Slice) IsMinKey() bool   { return s.Type() == TypeMinKey }
func (s Slice) IsMaxKey() bool   { return s.Type() == TypeMaxKey }
func (s Slice) IsInt() bool      { return s.Type() == TypeInt }
func (s Slice) IsUInt() bool     { return s.Type() == TypeUInt }
func (s Slice) IsSmallInt() bool { return s.Type() == TypeSmallInt }
func (s Slice) IsString() bool   { return s.Type() == TypeString }
func (s Slice) IsBinary() bool   { return s.Type() == TypeBinary }
func (s Slice) IsArray() bool    { return s.Type() == TypeArray }
func (s Slice) IsObject() bool   { return s.Type() == TypeObject }
func (s Slice) IsCustom() bool   { return s.Type() == TypeCustom }

func (s Slice) IsNumber() bool {
	t := s.Type()
	return t == TypeInt || t == TypeUInt || t == TypeSmallInt || t == TypeDouble
}

// IsSorted reports whether this is an Object whose index table is
// maintained in sorted key order (and thus binary-searchable).
func (s Slice) IsSorted() bool {
	return isObjectSortedHead(s.head())
}

// ByteSize returns the total encoded length of this value.
func (s Slice) ByteSize() (int, error) {
	return byteSizeAt(s.data)
}

func (s Slice) checkType(t ValueType) error {
	if s.Type() != t {
		return errors.Wrapf(ErrBuilderUnexpectedType, "expected %s, got %s", t, s.Type())
	}
	return nil
}

func (s Slice) Bool() (bool, error) {
	if err := s.checkType(TypeBool); err != nil {
		return false, err
	}
	return s.head() == headTrue, nil
}

// Int returns the value as a signed integer. SmallInt and UInt heads
// are accepted too, matching the data model's "SmallInt and 1-byte
// UInts overlap" overlap note.
func (s Slice) Int() (int64, error) {
	t := s.Type()
	if t != TypeInt && t != TypeUInt && t != TypeSmallInt {
		return 0, errors.Wrapf(ErrBuilderUnexpectedType, "expected int, got %s", t)
	}
	v, _ := decodeInt(s.data)
	return v, nil
}

func (s Slice) UInt() (uint64, error) {
	t := s.Type()
	if t != TypeInt && t != TypeUInt && t != TypeSmallInt {
		return 0, errors.Wrapf(ErrBuilderUnexpectedType, "expected uint, got %s", t)
	}
	v, _ := decodeUInt(s.data)
	return v, nil
}

func (s Slice) Double() (float64, error) {
	if err := s.checkType(TypeDouble); err != nil {
		return 0, err
	}
	return decodeDouble(s.data), nil
}

func (s Slice) UTCDate() (int64, error) {
	if err := s.checkType(TypeUTCDate); err != nil {
		return 0, err
	}
	return decodeUTCDate(s.data), nil
}

func (s Slice) String() (string, error) {
	if err := s.checkType(TypeString); err != nil {
		return "", err
	}
	v, _ := decodeString(s.data)
	return v, nil
}

func (s Slice) Binary() ([]byte, error) {
	if err := s.checkType(TypeBinary); err != nil {
		return nil, err
	}
	v, _ := decodeBinary(s.data)
	return v, nil
}

func (s Slice) External() (Slice, error) {
	if err := s.checkType(TypeExternal); err != nil {
		return Slice{}, err
	}
	p := decodeExternal(s.data)
	// An External's payload is itself the start of a VPack value
	// living in foreign memory; this reinterprets that raw pointer as
	// an oversized byte slice (1<<30 bytes) starting at that address,
	// from which the usual ByteSize logic can discover its true length. Dereferencing
	// it is the caller's responsibility, per §5.
	return NewSlice(unsafe.Slice((*byte)(p), 1<<30)), nil
}

// decodeKeyAt decodes the key at the start of an Object member,
// resolving a translated SmallInt/UInt handle back to its string via
// s.translator if present.
func (s Slice) decodeKeyAt(b []byte) (string, int, error) {
	h := b[0]
	if isStringHead(h) {
		k, n := decodeString(b)
		return k, n, nil
	}
	if isSmallIntHead(h) || isUIntHead(h) {
		handle, n := decodeUInt(b)
		if s.translator == nil {
			return "", 0, errors.Wrap(ErrBuilderUnexpectedType, "translated key but no AttributeTranslator installed")
		}
		k, ok := s.translator.TranslateBack(handle)
		if !ok {
			return "", 0, errors.Wrapf(ErrBuilderUnexpectedType, "unknown attribute handle %d", handle)
		}
		return k, n, nil
	}
	return "", 0, errors.Wrapf(ErrBuilderUnexpectedType, "head 0x%02x is not a valid Object key", h)
}

// indexedLayout describes the decoded header of a non-compact,
// non-empty indexed Array/Object.
type indexedLayout struct {
	width        int
	count        int
	payloadStart int
	indexStart   int
}

func decodeIndexedLayout(b []byte) (indexedLayout, error) {
	h := b[0]
	w := widthForIndexedHead(h)
	size := int(readLittleEndianUnsigned(b[1:], w))

	if w == 8 {
		if size < 8 {
			return indexedLayout{}, errors.Wrap(ErrIndexOutOfBounds, "truncated 8-byte indexed container")
		}
		count := int(readLittleEndianUnsigned(b[size-8:size], 8))
		return indexedLayout{
			width:        w,
			count:        count,
			payloadStart: 1 + w,
			indexStart:   size - 8 - count*8,
		}, nil
	}

	count := int(readLittleEndianUnsigned(b[1+w:1+2*w], w))
	return indexedLayout{
		width:        w,
		count:        count,
		payloadStart: 1 + 2*w,
		indexStart:   size - count*w,
	}, nil
}

func (lay indexedLayout) offsetAt(b []byte, i int) int {
	pos := lay.indexStart + i*lay.width
	return int(readLittleEndianUnsigned(b[pos:pos+lay.width], lay.width))
}

// compactLayout describes the decoded header/trailer of a compact
// Array/Object.
type compactLayout struct {
	payloadStart int
	payloadEnd   int
	count        int
}

func decodeCompactLayout(b []byte) compactLayout {
	size, sizeLen := uvarint(b[1:])
	count, countLen := reverseUvarint(b, int(size))
	return compactLayout{
		payloadStart: 1 + sizeLen,
		payloadEnd:   int(size) - countLen,
		count:        int(count),
	}
}

// Length returns the number of members of an Array or Object.
func (s Slice) Length() (int, error) {
	h := s.head()
	switch {
	case h == headArrayEmpty || h == headObjectEmpty:
		return 0, nil
	case isArrayNoIndexHead(h):
		return s.noIndexArrayLength()
	case isArrayIndexedHead(h) || isObjectSortedHead(h) || isObjectUnsortedHead(h):
		lay, err := decodeIndexedLayout(s.data)
		if err != nil {
			return 0, err
		}
		return lay.count, nil
	case h == headArrayCompact || h == headObjectCompact:
		return decodeCompactLayout(s.data).count, nil
	default:
		return 0, errors.Wrapf(ErrBuilderUnexpectedType, "not an Array or Object (head 0x%02x)", h)
	}
}

func (s Slice) noIndexArrayLength() (int, error) {
	h := s.head()
	w := widthForIndexedHead(h)
	size := int(readLittleEndianUnsigned(s.data[1:], w))
	payloadStart := 1 + w
	if size == payloadStart {
		return 0, nil
	}
	elemSize, err := byteSizeAt(s.data[payloadStart:])
	if err != nil {
		return 0, err
	}
	return (size - payloadStart) / elemSize, nil
}

// At returns the i-th member of an Array.
func (s Slice) At(i int) (Slice, error) {
	h := s.head()
	if h != headArrayEmpty && !isArrayNoIndexHead(h) && !isArrayIndexedHead(h) && h != headArrayCompact {
		return Slice{}, errors.Wrapf(ErrBuilderUnexpectedType, "not an Array (head 0x%02x)", h)
	}

	switch {
	case h == headArrayEmpty:
		return Slice{}, errors.Wrap(ErrIndexOutOfBounds, "empty array")
	case isArrayNoIndexHead(h):
		w := widthForIndexedHead(h)
		size := int(readLittleEndianUnsigned(s.data[1:], w))
		payloadStart := 1 + w
		elemSize, err := byteSizeAt(s.data[payloadStart:])
		if err != nil {
			return Slice{}, err
		}
		n := (size - payloadStart) / elemSize
		if i < 0 || i >= n {
			return Slice{}, errors.Wrapf(ErrIndexOutOfBounds, "index %d out of range [0,%d)", i, n)
		}
		pos := payloadStart + i*elemSize
		return s.sub(pos), nil
	case isArrayIndexedHead(h):
		lay, err := decodeIndexedLayout(s.data)
		if err != nil {
			return Slice{}, err
		}
		if i < 0 || i >= lay.count {
			return Slice{}, errors.Wrapf(ErrIndexOutOfBounds, "index %d out of range [0,%d)", i, lay.count)
		}
		return s.sub(lay.offsetAt(s.data, i)), nil
	default: // compact
		lay := decodeCompactLayout(s.data)
		if i < 0 || i >= lay.count {
			return Slice{}, errors.Wrapf(ErrIndexOutOfBounds, "index %d out of range [0,%d)", i, lay.count)
		}
		pos := lay.payloadStart
		for j := 0; j < i; j++ {
			n, err := byteSizeAt(s.data[pos:])
			if err != nil {
				return Slice{}, err
			}
			pos += n
		}
		return s.sub(pos), nil
	}
}

func (s Slice) sub(pos int) Slice {
	return Slice{data: s.data[pos:], translator: s.translator}
}

func (s Slice) requireObject() error {
	h := s.head()
	if h != headObjectEmpty && !isObjectSortedHead(h) && !isObjectUnsortedHead(h) && h != headObjectCompact {
		return errors.Wrapf(ErrBuilderUnexpectedType, "not an Object (head 0x%02x)", h)
	}
	return nil
}

// KeyAt returns the key of the i-th member of an Object, as a String
// Slice (even if the key was stored as a translated SmallInt/UInt on
// the wire).
func (s Slice) KeyAt(i int) (Slice, error) {
	k, _, err := s.keyValueAt(i)
	if err != nil {
		return Slice{}, err
	}
	var buf []byte
	buf = encodeString(buf, k)
	return NewSlice(buf), nil
}

// ValueAt returns the value of the i-th member of an Object.
func (s Slice) ValueAt(i int) (Slice, error) {
	_, v, err := s.keyValueAt(i)
	return v, err
}

func (s Slice) keyValueAt(i int) (string, Slice, error) {
	if err := s.requireObject(); err != nil {
		return "", Slice{}, err
	}

	h := s.head()
	switch {
	case h == headObjectEmpty:
		return "", Slice{}, errors.Wrap(ErrIndexOutOfBounds, "empty object")
	case h == headObjectCompact:
		lay := decodeCompactLayout(s.data)
		if i < 0 || i >= lay.count {
			return "", Slice{}, errors.Wrapf(ErrIndexOutOfBounds, "index %d out of range [0,%d)", i, lay.count)
		}
		pos := lay.payloadStart
		for j := 0; j < i; j++ {
			pos += s.skipMember(pos)
		}
		return s.readMember(pos)
	default:
		lay, err := decodeIndexedLayout(s.data)
		if err != nil {
			return "", Slice{}, err
		}
		if i < 0 || i >= lay.count {
			return "", Slice{}, errors.Wrapf(ErrIndexOutOfBounds, "index %d out of range [0,%d)", i, lay.count)
		}
		return s.readMember(lay.offsetAt(s.data, i))
	}
}

func (s Slice) skipMember(pos int) int {
	keyLen, err := byteSizeAt(s.data[pos:])
	if err != nil {
		panic(err)
	}
	valLen, err := byteSizeAt(s.data[pos+keyLen:])
	if err != nil {
		panic(err)
	}
	return keyLen + valLen
}

func (s Slice) readMember(pos int) (string, Slice, error) {
	key, keyLen, err := s.decodeKeyAt(s.data[pos:])
	if err != nil {
		return "", Slice{}, err
	}
	return key, s.sub(pos + keyLen), nil
}

// HasKey reports whether key is a member of this Object.
func (s Slice) HasKey(key string) (bool, error) {
	v, err := s.Get(key)
	if err != nil {
		return false, err
	}
	return !v.IsNone(), nil
}

// Get returns the value for key, or a None Slice if key is absent.
// Sorted Objects are looked up with a binary search over the offset
// index; unsorted Objects and compact forms fall back to a linear
// scan, per §4.2.
func (s Slice) Get(key string) (Slice, error) {
	if err := s.requireObject(); err != nil {
		return Slice{}, err
	}

	h := s.head()
	switch {
	case h == headObjectEmpty:
		return NewSlice([]byte{headNone}), nil
	case h == headObjectCompact:
		lay := decodeCompactLayout(s.data)
		pos := lay.payloadStart
		for j := 0; j < lay.count; j++ {
			k, v, err := s.readMember(pos)
			if err != nil {
				return Slice{}, err
			}
			if k == key {
				return v, nil
			}
			pos += s.skipMember(pos)
		}
		return NewSlice([]byte{headNone}), nil
	case isObjectSortedHead(h):
		lay, err := decodeIndexedLayout(s.data)
		if err != nil {
			return Slice{}, err
		}
		lo, hi := 0, lay.count
		for lo < hi {
			mid := (lo + hi) / 2
			k, _, err := s.readMember(lay.offsetAt(s.data, mid))
			if err != nil {
				return Slice{}, err
			}
			switch {
			case k == key:
				_, v, err := s.readMember(lay.offsetAt(s.data, mid))
				return v, err
			case k < key:
				lo = mid + 1
			default:
				hi = mid
			}
		}
		return NewSlice([]byte{headNone}), nil
	default: // unsorted indexed
		lay, err := decodeIndexedLayout(s.data)
		if err != nil {
			return Slice{}, err
		}
		for i := 0; i < lay.count; i++ {
			k, v, err := s.readMember(lay.offsetAt(s.data, i))
			if err != nil {
				return Slice{}, err
			}
			if k == key {
				return v, nil
			}
		}
		return NewSlice([]byte{headNone}), nil
	}
}

// IterateArray calls fn for every member of an Array, in order.
func (s Slice) IterateArray(fn func(i int, v Slice) error) error {
	n, err := s.Length()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		v, err := s.At(i)
		if err != nil {
			return err
		}
		if err := fn(i, v); err != nil {
			return err
		}
	}
	return nil
}

// IterateObject calls fn for every member of an Object, in on-wire
// order (insertion order for unsorted/compact Objects, key order for
// sorted ones).
func (s Slice) IterateObject(fn func(i int, key string, v Slice) error) error {
	if err := s.requireObject(); err != nil {
		return err
	}
	n, err := s.Length()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		k, v, err := s.keyValueAt(i)
		if err != nil {
			return err
		}
		if err := fn(i, k, v); err != nil {
			return err
		}
	}
	return nil
}

// DebugString is a one-line, non-recursive summary for debugging, not
// a textual dumper: no nested pretty-printing, just enough to identify
// a Slice in a log line. Named DebugString rather than String because
// String is already taken by the String-value accessor.
func (s Slice) DebugString() string {
	t := s.Type()
	switch t {
	case TypeArray, TypeObject:
		n, err := s.Length()
		if err != nil {
			return fmt.Sprintf("%s: <%v>", t, err)
		}
		return fmt.Sprintf("%s: %d members", t, n)
	default:
		n, err := s.ByteSize()
		if err != nil {
			return fmt.Sprintf("%s: <%v>", t, err)
		}
		return fmt.Sprintf("%s: %d bytes", t, n)
	}
}

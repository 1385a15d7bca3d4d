// Package vpack implements VelocyPack (VPack), a compact,
// self-describing binary encoding for JSON-like data. Slice is a
// non-owning read-only view over encoded bytes; Builder incrementally
// constructs them, choosing the narrowest on-wire layout for each
// Array/Object at Close time.
package vpack

import "fmt"

// ValueType is the logical type of a VPack value, independent of its
// on-wire width or layout.
type ValueType uint8

const (
	TypeNone ValueType = iota
	TypeIllegal
	TypeNull
	TypeBool
	TypeDouble
	TypeUTCDate
	TypeExternal
	TypeMinKey
	TypeMaxKey
	TypeInt
	TypeUInt
	TypeSmallInt
	TypeString
	TypeBinary
	TypeArray
	TypeObject
	TypeBCD
	TypeCustom
)

func (t ValueType) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeIllegal:
		return "illegal"
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeDouble:
		return "double"
	case TypeUTCDate:
		return "utcDate"
	case TypeExternal:
		return "external"
	case TypeMinKey:
		return "minKey"
	case TypeMaxKey:
		return "maxKey"
	case TypeInt:
		return "int"
	case TypeUInt:
		return "uint"
	case TypeSmallInt:
		return "smallInt"
	case TypeString:
		return "string"
	case TypeBinary:
		return "binary"
	case TypeArray:
		return "array"
	case TypeObject:
		return "object"
	case TypeBCD:
		return "bcd"
	case TypeCustom:
		return "custom"
	}
	panic(fmt.Sprintf("vpack: unsupported value type %d", uint8(t)))
}

// Head byte constants. Every encoded value begins with one of these,
// possibly offset by a small-width index (e.g. headIntBase+2 is the
// head of a signed Int with a 2-byte body).
const (
	headNone = 0x00

	headArrayEmpty = 0x01
	// headArray1..headArray8: no-index, fixed-stride arrays.
	headArray1 = 0x02
	headArray2 = 0x03
	headArray4 = 0x04
	headArray8 = 0x05
	// headArrayIndexed1..8: indexed arrays (explicit count + offset table).
	headArrayIndexed1 = 0x06
	headArrayIndexed2 = 0x07
	headArrayIndexed4 = 0x08
	headArrayIndexed8 = 0x09

	headObjectEmpty = 0x0a
	// headObjectSorted1..8: indexed objects, offset table sorted by key.
	headObjectSorted1 = 0x0b
	headObjectSorted2 = 0x0c
	headObjectSorted4 = 0x0d
	headObjectSorted8 = 0x0e
	// headObjectUnsorted1..8: indexed objects, offset table in insertion order.
	headObjectUnsorted1 = 0x0f
	headObjectUnsorted2 = 0x10
	headObjectUnsorted4 = 0x11
	headObjectUnsorted8 = 0x12

	headArrayCompact  = 0x13
	headObjectCompact = 0x14

	headIllegal  = 0x17
	headNull     = 0x18
	headFalse    = 0x19
	headTrue     = 0x1a
	headDouble   = 0x1b
	headUTCDate  = 0x1c
	headExternal = 0x1d
	headMinKey   = 0x1e
	headMaxKey   = 0x1f

	// headInt1..headInt8 = headIntBase+1 .. headIntBase+8
	headIntBase = 0x1f
	// headUInt1..headUInt8 = headUIntBase+1 .. headUIntBase+8
	headUIntBase = 0x27

	headSmallIntPosBase = 0x30 // 0x30..0x39: SmallInt 0..9
	headSmallIntNegBase = 0x3a // 0x3a..0x3f: SmallInt -6..-1

	headStringShortBase = 0x40 // 0x40..0xbe: short string, len = head-0x40
	headStringShortMax  = 0xbe
	headStringLong      = 0xbf

	headBinaryBase = 0xbf // headBinaryBase+1 .. +8 = 0xc0..0xc7

	headCustomMin = 0xf0
	headCustomMax = 0xff
)

func isArrayNoIndexHead(h byte) bool { return h >= headArray1 && h <= headArray8 }
func isArrayIndexedHead(h byte) bool { return h >= headArrayIndexed1 && h <= headArrayIndexed8 }
func isArrayHead(h byte) bool {
	return h == headArrayEmpty || isArrayNoIndexHead(h) || isArrayIndexedHead(h) || h == headArrayCompact
}

func isObjectSortedHead(h byte) bool   { return h >= headObjectSorted1 && h <= headObjectSorted8 }
func isObjectUnsortedHead(h byte) bool { return h >= headObjectUnsorted1 && h <= headObjectUnsorted8 }
func isObjectHead(h byte) bool {
	return h == headObjectEmpty || isObjectSortedHead(h) || isObjectUnsortedHead(h) || h == headObjectCompact
}

func isIntHead(h byte) bool      { return h > headIntBase && h <= headIntBase+8 }
func isUIntHead(h byte) bool     { return h > headUIntBase && h <= headUIntBase+8 }
func isSmallIntHead(h byte) bool { return h >= headSmallIntPosBase && h < headStringShortBase }
func isStringHead(h byte) bool   { return h >= headStringShortBase && h <= headStringLong }
func isBinaryHead(h byte) bool   { return h > headBinaryBase && h <= headBinaryBase+8 }
func isCustomHead(h byte) bool   { return h >= headCustomMin }

// widthForIndexedHead returns the byte width (1,2,4,8) used by an
// indexed Array/Object head for its size/count/offset fields.
func widthForIndexedHead(h byte) int {
	switch {
	case h == headArray1 || h == headArrayIndexed1 || h == headObjectSorted1 || h == headObjectUnsorted1:
		return 1
	case h == headArray2 || h == headArrayIndexed2 || h == headObjectSorted2 || h == headObjectUnsorted2:
		return 2
	case h == headArray4 || h == headArrayIndexed4 || h == headObjectSorted4 || h == headObjectUnsorted4:
		return 4
	case h == headArray8 || h == headArrayIndexed8 || h == headObjectSorted8 || h == headObjectUnsorted8:
		return 8
	}
	panic(fmt.Sprintf("vpack: head 0x%02x is not a sized array/object head", h))
}

// TypeOf returns the logical type for a given head byte.
func TypeOf(h byte) ValueType {
	switch {
	case h == headNone:
		return TypeNone
	case h == headIllegal:
		return TypeIllegal
	case h == headNull:
		return TypeNull
	case h == headFalse || h == headTrue:
		return TypeBool
	case h == headDouble:
		return TypeDouble
	case h == headUTCDate:
		return TypeUTCDate
	case h == headExternal:
		return TypeExternal
	case h == headMinKey:
		return TypeMinKey
	case h == headMaxKey:
		return TypeMaxKey
	case isSmallIntHead(h):
		return TypeSmallInt
	case isIntHead(h):
		return TypeInt
	case isUIntHead(h):
		return TypeUInt
	case isStringHead(h):
		return TypeString
	case isBinaryHead(h):
		return TypeBinary
	case isArrayHead(h):
		return TypeArray
	case isObjectHead(h):
		return TypeObject
	case isCustomHead(h):
		return TypeCustom
	default:
		return TypeIllegal
	}
}

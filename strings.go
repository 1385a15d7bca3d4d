package vpack

// encodeString appends s as a short String (head 0x40..0xbe) when it
// fits in 126 bytes, or a long String (head 0xbf + 8-byte length) when
// it doesn't.
func encodeString(dst []byte, s string) []byte {
	if len(s) <= headStringShortMax-headStringShortBase {
		dst = append(dst, byte(headStringShortBase+len(s)))
		return append(dst, s...)
	}
	dst = append(dst, headStringLong)
	dst = writeLittleEndian(dst, uint64(len(s)), 8)
	return append(dst, s...)
}

func stringByteSize(b []byte) int {
	h := b[0]
	if h == headStringLong {
		l := readLittleEndianUnsigned(b[1:], 8)
		return 1 + 8 + int(l)
	}
	return 1 + int(h-headStringShortBase)
}

func decodeString(b []byte) (string, int) {
	h := b[0]
	if h == headStringLong {
		l := int(readLittleEndianUnsigned(b[1:], 8))
		return string(b[9 : 9+l]), 9 + l
	}
	l := int(h - headStringShortBase)
	return string(b[1 : 1+l]), 1 + l
}

// encodeBinary appends x as a Binary value: a head byte encoding the
// number of length bytes that follow (1..8, chosen narrowest), the
// length itself in that many little-endian bytes, then the payload.
func encodeBinary(dst []byte, x []byte) []byte {
	w := unsignedWidth(uint64(len(x)))
	dst = append(dst, byte(headBinaryBase+w))
	dst = writeLittleEndian(dst, uint64(len(x)), w)
	return append(dst, x...)
}

func binaryByteSize(b []byte) int {
	w := int(b[0] - headBinaryBase)
	l := int(readLittleEndianUnsigned(b[1:], w))
	return 1 + w + l
}

func decodeBinary(b []byte) ([]byte, int) {
	w := int(b[0] - headBinaryBase)
	l := int(readLittleEndianUnsigned(b[1:], w))
	start := 1 + w
	return b[start : start+l], start + l
}

package vpack

import "encoding/binary"

// putUvarint appends x to dst as a standard forward LEB128 varint via
// encoding/binary.
func putUvarint(dst []byte, x uint64) []byte {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], x)
	return append(dst, buf[:n]...)
}

// uvarint decodes a forward LEB128 varint from the front of b,
// returning the value and the number of bytes consumed.
func uvarint(b []byte) (uint64, int) {
	return binary.Uvarint(b)
}

// putReverseUvarint appends x to dst as a reverse-ordered LEB128
// varint: the same byte groups as a standard varint, but stored back
// to front. Compact Array/Object trailers use this so that a decoder
// anchored at the very end of the container can always start reading
// at the last byte, regardless of how many bytes the count occupies.
func putReverseUvarint(dst []byte, x uint64) []byte {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], x)
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, buf[i])
	}
	return dst
}

// reverseUvarint decodes a reverse-ordered LEB128 varint whose last
// byte is at b[end-1], scanning backwards. It returns the value and
// the number of bytes occupied by the varint.
func reverseUvarint(b []byte, end int) (uint64, int) {
	var value uint64
	var shift uint
	n := 0
	for i := end - 1; i >= 0; i-- {
		c := b[i]
		value |= uint64(c&0x7f) << shift
		shift += 7
		n++
		if c&0x80 == 0 {
			break
		}
	}
	return value, n
}

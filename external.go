package vpack

import "unsafe"

// externalWidth is the size in bytes of the raw pointer payload an
// External value carries. Cross-platform binary compatibility is not
// promised for documents containing External values, per §9.
const externalWidth = 8

func encodeExternal(dst []byte, p unsafe.Pointer) []byte {
	dst = append(dst, headExternal)
	return writeLittleEndian(dst, uint64(uintptr(p)), externalWidth)
}

func decodeExternal(b []byte) unsafe.Pointer {
	return unsafe.Pointer(uintptr(readLittleEndianUnsigned(b[1:], externalWidth)))
}

package vpack

import "github.com/cockroachdb/errors"

// byteSizeAt returns the total encoded length, in bytes, of the value
// starting at b[0]. It is the single place that understands every
// head-byte layout in §3 and backs both Slice.ByteSize and the
// internal traversal/skip helpers the Builder and Slice share.
func byteSizeAt(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, errors.Wrap(ErrIndexOutOfBounds, "empty slice")
	}
	h := b[0]

	switch {
	case h == headNone:
		return 0, errors.Wrap(ErrBuilderUnexpectedType, "None has no byte size")
	case h == headIllegal:
		return 1, nil
	case h == headNull, h == headFalse, h == headTrue, h == headMinKey, h == headMaxKey:
		return 1, nil
	case h == headDouble:
		return 9, nil
	case h == headUTCDate:
		return 9, nil
	case h == headExternal:
		return 1 + externalWidth, nil
	case isSmallIntHead(h), isIntHead(h), isUIntHead(h):
		return intOrUIntByteSize(h), nil
	case isStringHead(h):
		return stringByteSize(b), nil
	case isBinaryHead(h):
		return binaryByteSize(b), nil
	case h == headArrayEmpty, h == headObjectEmpty:
		return 1, nil
	case isArrayNoIndexHead(h) || isArrayIndexedHead(h) || isObjectSortedHead(h) || isObjectUnsortedHead(h):
		w := widthForIndexedHead(h)
		return int(readLittleEndianUnsigned(b[1:], w)), nil
	case h == headArrayCompact || h == headObjectCompact:
		size, _ := uvarint(b[1:])
		return int(size), nil
	case isCustomHead(h):
		return 0, errors.Wrapf(ErrNotImplemented, "Custom byte size is not self-describing (head 0x%02x)", h)
	default:
		return 0, errors.Wrapf(ErrNotImplemented, "BCD and other reserved heads are not implemented (head 0x%02x)", h)
	}
}

package vpack

import (
	"fmt"
	"sort"

	"github.com/cockroachdb/errors"
)

// frame tracks one open Array or Object on the Builder's stack. It
// records, relative to payloadStart, where each already-written
// sub-value begins and how long it is, so Close can lay out the final
// header/index without re-scanning the payload bytes.
type frame struct {
	isObject     bool
	sorted       bool
	compact      bool
	startOffset  int // position of this compound's head byte
	payloadStart int // position right after the reserved placeholder

	subOffsets []int // relative to payloadStart
	subLens    []int
	keys       []string // object only, parallel to subOffsets/subLens
	seenKeys   map[string]struct{}

	parent       *frame
	parentIndex  int // index into parent.subLens to backfill at Close
}

// placeholderSize is the number of bytes OpenArray/OpenObject reserve
// up front for an indexed container's head, so that appending payload
// bytes never needs to shift anything until Close decides the final
// width. 1 head byte + 8 size bytes + 8 count bytes is enough for the
// widest (w=8) indexed layout; Close shrinks it down to whatever width
// actually fits.
const placeholderSize = 1 + 8 + 8

// compactPlaceholderSize reserves 1 head byte + the widest possible
// forward-varint byteSize field (9 bytes covers any value up to
// 2^63-1, i.e. any size a Go int can hold).
const compactPlaceholderSize = 1 + 9

// Builder incrementally constructs a single VPack value. Values are
// appended in document order; Array members need no key, Object
// members are appended in (key, value) pairs via AddKeyValue. Closing
// a compound fixes its final on-wire layout per §4.3/§4.4.
type Builder struct {
	buf   *Buffer
	opts  Options
	stack []*frame

	topWritten bool // a top-level value has been fully written
}

// NewBuilder returns an empty Builder governed by opts.
func NewBuilder(opts Options) *Builder {
	return &Builder{buf: NewBuffer(), opts: opts}
}

func (b *Builder) top() *frame {
	if len(b.stack) == 0 {
		return nil
	}
	return b.stack[len(b.stack)-1]
}

// beginValue validates and records bookkeeping for a new key-less
// sub-value (an Array member, or the sole top-level value), returning
// the position the value's bytes will start at.
func (b *Builder) beginValue() (int, error) {
	top := b.top()
	if top == nil {
		if b.topWritten {
			return 0, errors.Wrap(ErrBuilderNeedOpenCompound, "top-level value already written")
		}
		return b.buf.Len(), nil
	}
	if top.isObject {
		return 0, errors.Wrap(ErrBuilderKeyMustBeString, "object expects a key, not a bare value")
	}
	return b.buf.Len(), nil
}

// beginCompoundValue is beginValue's counterpart for OpenArray/OpenObject:
// opening a key-less compound while the innermost open compound is an
// Object is a distinct misuse from adding a bare scalar there, so it
// gets its own sentinel.
func (b *Builder) beginCompoundValue() (int, error) {
	top := b.top()
	if top == nil {
		if b.topWritten {
			return 0, errors.Wrap(ErrBuilderNeedOpenCompound, "top-level value already written")
		}
		return b.buf.Len(), nil
	}
	if top.isObject {
		return 0, errors.Wrap(ErrBuilderNeedOpenArray, "object expects a key; use OpenArrayKey/OpenObjectKey")
	}
	return b.buf.Len(), nil
}

// beginKeyedValue validates and writes the key for a new Object
// member, returning the position the member (key-inclusive) starts
// at.
func (b *Builder) beginKeyedValue(key string) (int, error) {
	top := b.top()
	if top == nil || !top.isObject {
		return 0, errors.Wrap(ErrBuilderNeedOpenObject, "no open object")
	}
	if _, dup := top.seenKeys[key]; dup {
		return 0, errors.Wrapf(ErrBuilderKeyAlreadyWritten, "key %q already written", key)
	}
	start := b.buf.Len()
	b.writeKey(key)
	return start, nil
}

func (b *Builder) writeKey(key string) {
	if b.opts.AttributeTranslator != nil {
		if handle, ok := b.opts.AttributeTranslator.Translate(key); ok {
			var tmp []byte
			tmp = encodeUnsignedInt(tmp, handle)
			b.buf.Append(tmp)
			return
		}
	}
	var tmp []byte
	tmp = encodeString(tmp, key)
	b.buf.Append(tmp)
}

// recordSubvalue registers a just-written (or just-closed) sub-value
// of length n starting at start (a buffer position) against the
// current top frame, if any.
func (b *Builder) recordSubvalue(start, n int, key string) {
	top := b.top()
	if top == nil {
		return
	}
	off := start - top.payloadStart
	top.subOffsets = append(top.subOffsets, off)
	top.subLens = append(top.subLens, n)
	if top.isObject {
		top.keys = append(top.keys, key)
		top.seenKeys[key] = struct{}{}
	}
}

// Add appends a scalar value as the next Array member, or as the sole
// top-level value when no compound is open.
func (b *Builder) Add(v Value) error {
	if v.typ == TypeExternal && b.opts.DisallowExternals {
		return errors.Wrap(ErrBuilderExternalsDisallowed, "externals are disallowed by Options")
	}
	start, err := b.beginValue()
	if err != nil {
		return err
	}
	if err := b.encodeScalar(v); err != nil {
		return err
	}
	n := b.buf.Len() - start
	b.recordSubvalue(start, n, "")
	if b.top() == nil {
		b.topWritten = true
	}
	return nil
}

// AddKeyValue appends a (key, value) pair to the innermost open
// Object.
func (b *Builder) AddKeyValue(key string, v Value) error {
	if v.typ == TypeExternal && b.opts.DisallowExternals {
		return errors.Wrap(ErrBuilderExternalsDisallowed, "externals are disallowed by Options")
	}
	start, err := b.beginKeyedValue(key)
	if err != nil {
		return err
	}
	if err := b.encodeScalar(v); err != nil {
		return err
	}
	n := b.buf.Len() - start
	b.recordSubvalue(start, n, key)
	return nil
}

func (b *Builder) encodeScalar(v Value) error {
	var tmp []byte
	switch v.typ {
	case TypeNull:
		tmp = append(tmp, headNull)
	case TypeBool:
		if v.b {
			tmp = append(tmp, headTrue)
		} else {
			tmp = append(tmp, headFalse)
		}
	case TypeInt:
		tmp = encodeSignedInt(tmp, v.i)
	case TypeUInt:
		tmp = encodeUnsignedInt(tmp, v.u)
	case TypeDouble:
		tmp = encodeDouble(tmp, v.f)
	case TypeUTCDate:
		tmp = encodeUTCDate(tmp, v.i)
	case TypeString:
		tmp = encodeString(tmp, v.s)
	case TypeBinary:
		tmp = encodeBinary(tmp, v.bin)
	case TypeExternal:
		tmp = encodeExternal(tmp, v.ext)
	case TypeMinKey:
		tmp = append(tmp, headMinKey)
	case TypeMaxKey:
		tmp = append(tmp, headMaxKey)
	default:
		return errors.Wrapf(ErrBuilderUnexpectedValue, "value type %s cannot be encoded", v.typ)
	}
	b.buf.Append(tmp)
	return nil
}

func (b *Builder) checkDepth() error {
	if b.opts.MaxDepth > 0 && len(b.stack)+1 > b.opts.MaxDepth {
		return errors.Wrapf(ErrTooDeepNesting, "nesting depth would exceed %d", b.opts.MaxDepth)
	}
	return nil
}

func (b *Builder) pushFrame(isObject, sorted, compact bool, headStart int, parent *frame, parentIndex int) {
	f := &frame{
		isObject:    isObject,
		sorted:      sorted,
		compact:     compact,
		startOffset: headStart,
		parent:      parent,
		parentIndex: parentIndex,
	}
	if isObject {
		f.seenKeys = make(map[string]struct{})
	}
	if compact {
		b.buf.Grow(compactPlaceholderSize)
	} else {
		b.buf.Grow(placeholderSize)
	}
	f.payloadStart = b.buf.Len()
	b.stack = append(b.stack, f)
}

// OpenArray pushes a new Array frame as the next Array member, or as
// the sole top-level value. compact requests the unindexed ("allow
// unindexed") layout at Close time.
func (b *Builder) OpenArray(compact bool) error {
	if err := b.checkDepth(); err != nil {
		return err
	}
	start, err := b.beginCompoundValue()
	if err != nil {
		return err
	}
	compact = compact || b.opts.BuildUnindexedArrays
	parent := b.top()
	parentIdx := b.reserveParentSlot(parent, start, "")
	b.pushFrame(false, false, compact, start, parent, parentIdx)
	return nil
}

// OpenObject pushes a new Object frame as the next Array member, or as
// the sole top-level value.
func (b *Builder) OpenObject(compact, sorted bool) error {
	if err := b.checkDepth(); err != nil {
		return err
	}
	start, err := b.beginCompoundValue()
	if err != nil {
		return err
	}
	compact = compact || b.opts.BuildUnindexedObjects
	sorted = sorted || b.opts.SortAttributeNames
	parent := b.top()
	parentIdx := b.reserveParentSlot(parent, start, "")
	b.pushFrame(true, sorted, compact, start, parent, parentIdx)
	return nil
}

// OpenArrayKey is the Object-member analogue of OpenArray: it writes
// key, then pushes a new Array frame as that key's value.
func (b *Builder) OpenArrayKey(key string, compact bool) error {
	if err := b.checkDepth(); err != nil {
		return err
	}
	start, err := b.beginKeyedValue(key)
	if err != nil {
		return err
	}
	compact = compact || b.opts.BuildUnindexedArrays
	parent := b.top()
	parentIdx := b.reserveParentSlot(parent, start, key)
	b.pushFrame(false, false, compact, b.buf.Len(), parent, parentIdx)
	return nil
}

// OpenObjectKey is the Object-member analogue of OpenObject.
func (b *Builder) OpenObjectKey(key string, compact, sorted bool) error {
	if err := b.checkDepth(); err != nil {
		return err
	}
	start, err := b.beginKeyedValue(key)
	if err != nil {
		return err
	}
	compact = compact || b.opts.BuildUnindexedObjects
	sorted = sorted || b.opts.SortAttributeNames
	parent := b.top()
	parentIdx := b.reserveParentSlot(parent, start, key)
	b.pushFrame(true, sorted, compact, b.buf.Len(), parent, parentIdx)
	return nil
}

// reserveParentSlot records the about-to-be-opened compound's
// key-or-value start position against its parent frame, with a
// placeholder length of 0 that Close backfills once the child's final
// size is known. Returns the index of that slot, or -1 at top level.
func (b *Builder) reserveParentSlot(parent *frame, start int, key string) int {
	if parent == nil {
		return -1
	}
	idx := len(parent.subOffsets)
	parent.subOffsets = append(parent.subOffsets, start-parent.payloadStart)
	parent.subLens = append(parent.subLens, 0)
	if parent.isObject {
		parent.keys = append(parent.keys, key)
		parent.seenKeys[key] = struct{}{}
	}
	return idx
}

// Close finalizes the innermost open Array/Object, choosing its final
// on-wire layout per §4.3/§4.4.
func (b *Builder) Close() error {
	top := b.top()
	if top == nil {
		return errors.Wrap(ErrBuilderNeedOpenCompound, "no open compound to close")
	}
	if b.opts.CheckAttributeUniqueness && top.isObject {
		if err := b.checkKeyCollisions(top); err != nil {
			return err
		}
	}

	b.stack = b.stack[:len(b.stack)-1]

	var finalSize int
	var err error
	switch {
	case len(top.subOffsets) == 0:
		finalSize = b.closeEmpty(top)
	case top.compact:
		finalSize = b.closeCompact(top)
	default:
		finalSize, err = b.closeIndexed(top)
	}
	if err != nil {
		return err
	}

	if top.parent != nil {
		top.parent.subLens[top.parentIndex] = finalSize
	} else {
		b.topWritten = true
	}
	return nil
}

// keyIdentity returns the on-wire identity a key will actually encode
// to: the translator's handle when one applies, otherwise the raw
// string. Two distinct keys that share an identity collide on the
// wire even though beginKeyedValue's per-Add check (which only ever
// compares raw strings) never notices.
func (b *Builder) keyIdentity(key string) string {
	if b.opts.AttributeTranslator != nil {
		if handle, ok := b.opts.AttributeTranslator.Translate(key); ok {
			return fmt.Sprintf("#%d", handle)
		}
	}
	return key
}

func (b *Builder) checkKeyCollisions(top *frame) error {
	seen := make(map[string]string, len(top.keys))
	for _, k := range top.keys {
		id := b.keyIdentity(k)
		if other, dup := seen[id]; dup {
			return errors.Wrapf(ErrDuplicateAttributeName, "keys %q and %q collide after translation", other, k)
		}
		seen[id] = k
	}
	return nil
}

func (b *Builder) closeEmpty(top *frame) int {
	b.buf.Truncate(top.startOffset)
	if top.isObject {
		b.buf.AppendByte(headObjectEmpty)
	} else {
		b.buf.AppendByte(headArrayEmpty)
	}
	return 1
}

// closeCompact lays out the varint-framed compact form: head byte,
// forward-varint byteSize, the payload verbatim, then a
// reverse-varint member count anchored at the end.
func (b *Builder) closeCompact(top *frame) int {
	payloadLen := b.buf.Len() - top.payloadStart
	payload := append([]byte(nil), b.buf.Bytes()[top.payloadStart:top.payloadStart+payloadLen]...)
	b.buf.Truncate(top.startOffset)

	n := len(top.subOffsets)
	countLen := uvarintLen(uint64(n))

	sizeLen := 1
	for {
		total := 1 + sizeLen + payloadLen + countLen
		next := uvarintLen(uint64(total))
		if next == sizeLen {
			break
		}
		sizeLen = next
	}
	total := 1 + sizeLen + payloadLen + countLen

	if top.isObject {
		b.buf.AppendByte(headObjectCompact)
	} else {
		b.buf.AppendByte(headArrayCompact)
	}
	b.buf.Append(putUvarint(nil, uint64(total)))
	b.buf.Append(payload)
	b.buf.Append(putReverseUvarint(nil, uint64(n)))
	return total
}

func uvarintLen(x uint64) int {
	n := 1
	for x >= 0x80 {
		x >>= 7
		n++
	}
	return n
}

// closeIndexed lays out the fixed-width indexed form: head byte, a
// byteSize field, an optional count field (omitted for w=8, where the
// count instead trails the index table), the payload, the offset
// index, and (for w=8) the trailing count.
func (b *Builder) closeIndexed(top *frame) (int, error) {
	n := len(top.subOffsets)
	payloadLen := b.buf.Len() - top.payloadStart
	payload := append([]byte(nil), b.buf.Bytes()[top.payloadStart:top.payloadStart+payloadLen]...)

	noIndex := !top.isObject && isUniform(top.subLens)

	var order []int
	if !noIndex {
		order = indexOrder(top)
	}

	w, headerLen, countAtTail, total, ok := chooseWidth(top, payloadLen, noIndex)
	if !ok {
		return 0, errors.Wrap(ErrNumberOutOfRange, "value too large to encode (exceeds 8-byte offsets)")
	}

	b.buf.Truncate(top.startOffset)
	b.buf.AppendByte(chooseHead(top, noIndex, w))
	b.buf.Append(writeLittleEndian(nil, uint64(total), w))
	if !noIndex && !countAtTail {
		b.buf.Append(writeLittleEndian(nil, uint64(n), w))
	}
	b.buf.Append(payload)
	if !noIndex {
		for _, idx := range order {
			off := headerLen + top.subOffsets[idx]
			b.buf.Append(writeLittleEndian(nil, uint64(off), w))
		}
	}
	if countAtTail {
		b.buf.Append(writeLittleEndian(nil, uint64(n), 8))
	}
	return total, nil
}

func isUniform(lens []int) bool {
	for i := 1; i < len(lens); i++ {
		if lens[i] != lens[0] {
			return false
		}
	}
	return true
}

func indexOrder(top *frame) []int {
	n := len(top.subOffsets)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if top.isObject && top.sorted {
		sort.Slice(order, func(a, c int) bool {
			return top.keys[order[a]] < top.keys[order[c]]
		})
	}
	return order
}

const maxWidth8 = ^uint64(0)

func widthMax(w int) uint64 {
	if w >= 8 {
		return maxWidth8
	}
	return (uint64(1) << (8 * w)) - 1
}

// chooseWidth picks the narrowest w in {1,2,4,8} whose byteSize and
// offset fields all fit, per §4.3 step 3.
func chooseWidth(top *frame, payloadLen int, noIndex bool) (w, headerLen int, countAtTail bool, total int, ok bool) {
	n := len(top.subOffsets)
	for _, w := range []int{1, 2, 4, 8} {
		headerLen := 1 + w
		indexLen := 0
		tail := false
		if !noIndex {
			if w == 8 {
				tail = true
			} else {
				headerLen += w
			}
			indexLen = n * w
		}
		total := headerLen + payloadLen + indexLen
		if tail {
			total += 8 // trailing 8-byte count, only used when w == 8
		}
		max := widthMax(w)
		if uint64(total) > max {
			continue
		}
		if !noIndex {
			fits := true
			for _, off := range top.subOffsets {
				if uint64(headerLen+off) > max {
					fits = false
					break
				}
			}
			if !fits {
				continue
			}
		}
		return w, headerLen, tail, total, true
	}
	return 0, 0, false, 0, false
}

func chooseHead(top *frame, noIndex bool, w int) byte {
	shift := byte(0)
	switch w {
	case 1:
		shift = 0
	case 2:
		shift = 1
	case 4:
		shift = 2
	case 8:
		shift = 3
	}
	if top.isObject {
		if top.sorted {
			return headObjectSorted1 + shift
		}
		return headObjectUnsorted1 + shift
	}
	if noIndex {
		return headArray1 + shift
	}
	return headArrayIndexed1 + shift
}

// RemoveLast discards the most recently added, already-closed member
// of the innermost open compound.
func (b *Builder) RemoveLast() error {
	top := b.top()
	if top == nil {
		return errors.Wrap(ErrBuilderNeedOpenCompound, "no open compound")
	}
	n := len(top.subOffsets)
	if n == 0 {
		return errors.Wrap(ErrBuilderNeedSubvalue, "compound has no sub-value to remove")
	}
	pos := top.payloadStart + top.subOffsets[n-1]
	b.buf.Truncate(pos)
	top.subOffsets = top.subOffsets[:n-1]
	top.subLens = top.subLens[:n-1]
	if top.isObject {
		delete(top.seenKeys, top.keys[n-1])
		top.keys = top.keys[:n-1]
	}
	return nil
}

// HasKey reports whether key has already been added to the innermost
// open Object.
func (b *Builder) HasKey(key string) (bool, error) {
	top := b.top()
	if top == nil || !top.isObject {
		return false, errors.Wrap(ErrBuilderNeedOpenObject, "no open object")
	}
	_, ok := top.seenKeys[key]
	return ok, nil
}

// GetKey returns the value already written for key in the innermost
// open Object.
func (b *Builder) GetKey(key string) (Slice, error) {
	top := b.top()
	if top == nil || !top.isObject {
		return Slice{}, errors.Wrap(ErrBuilderNeedOpenObject, "no open object")
	}
	for i := len(top.keys) - 1; i >= 0; i-- {
		if top.keys[i] != key {
			continue
		}
		keyPos := top.payloadStart + top.subOffsets[i]
		keyLen, err := byteSizeAt(b.buf.Bytes()[keyPos:])
		if err != nil {
			return Slice{}, err
		}
		valStart := keyPos + keyLen
		return NewSlice(b.buf.Bytes()[valStart:]).WithTranslator(b.opts.AttributeTranslator), nil
	}
	return Slice{}, errors.Wrapf(ErrIndexOutOfBounds, "key %q not found", key)
}

// Size returns the total byte size of the sealed top-level value.
func (b *Builder) Size() (int, error) {
	if len(b.stack) != 0 || !b.topWritten {
		return 0, errors.Wrap(ErrBuilderNotSealed, "top-level value is not sealed yet")
	}
	return byteSizeAt(b.buf.Bytes())
}

// Slice returns a read-only view of the sealed top-level value.
func (b *Builder) Slice() (Slice, error) {
	if len(b.stack) != 0 || !b.topWritten {
		return Slice{}, errors.Wrap(ErrBuilderNotSealed, "top-level value is not sealed yet")
	}
	return NewSlice(b.buf.Bytes()).WithTranslator(b.opts.AttributeTranslator), nil
}

// Steal surrenders the backing buffer to the caller. The Builder
// becomes empty but reusable.
func (b *Builder) Steal() []byte {
	stolen := b.buf.Steal()
	b.stack = nil
	b.topWritten = false
	return stolen
}

// Clone returns a fresh Builder whose sealed top-level value is a
// byte-for-byte copy of s, governed by opts.
func Clone(s Slice, opts Options) (*Builder, error) {
	n, err := s.ByteSize()
	if err != nil {
		return nil, err
	}
	buf := NewBuffer()
	buf.Append(append([]byte(nil), s.data[:n]...))
	return &Builder{buf: buf, opts: opts, topWritten: true}, nil
}

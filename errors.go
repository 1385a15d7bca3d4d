package vpack

import "github.com/cockroachdb/errors"

// Structural errors: the Builder's state machine was used out of order.
var (
	// ErrBuilderNotSealed is returned by Slice/Size when the top-level
	// value has not been closed yet.
	ErrBuilderNotSealed = errors.New("builder not sealed")

	// ErrBuilderNeedOpenCompound is returned by Close/RemoveLast when
	// there is no open Array or Object.
	ErrBuilderNeedOpenCompound = errors.New("need open compound")

	// ErrBuilderNeedOpenObject is returned by AddKeyValue, OpenArrayKey,
	// OpenObjectKey, HasKey and GetKey when the innermost open compound
	// is not an Object.
	ErrBuilderNeedOpenObject = errors.New("need open object")

	// ErrBuilderNeedOpenArray is returned when an array-only operation
	// is used while the innermost open compound is not an Array.
	ErrBuilderNeedOpenArray = errors.New("need open array")

	// ErrBuilderNeedSubvalue is returned by RemoveLast when the
	// currently open compound has no sub-value to remove.
	ErrBuilderNeedSubvalue = errors.New("need subvalue")

	// ErrBuilderKeyMustBeString is returned when a value is appended to
	// an open Object that expects a key, or a non-string key is given.
	ErrBuilderKeyMustBeString = errors.New("key must be a string")

	// ErrBuilderKeyAlreadyWritten is returned when the same key is added
	// twice to the same Object before it is closed.
	ErrBuilderKeyAlreadyWritten = errors.New("key already written")

	// ErrDuplicateAttributeName is returned at Close time when
	// Options.CheckAttributeUniqueness catches a duplicate key that the
	// per-add check missed (e.g. translated keys colliding).
	ErrDuplicateAttributeName = errors.New("duplicate attribute name")

	// ErrTooDeepNesting is returned when Options.MaxDepth is exceeded.
	ErrTooDeepNesting = errors.New("nesting too deep")
)

// Semantic errors: the operation was well-formed but the value or
// arguments were not acceptable.
var (
	// ErrBuilderUnexpectedType is returned when a typed accessor is
	// called on a Slice of a different type.
	ErrBuilderUnexpectedType = errors.New("unexpected type")

	// ErrBuilderUnexpectedValue is returned when a value carries a
	// ValueType its payload cannot satisfy.
	ErrBuilderUnexpectedValue = errors.New("unexpected value")

	// ErrInvalidValueType names the misuse of passing the "allow
	// unindexed" flag to something other than an Array or Object. It is
	// declared for the shared taxonomy but not returned by this package:
	// only OpenArray/OpenObject take a compact flag.
	ErrInvalidValueType = errors.New("invalid value type")

	// ErrNumberOutOfRange is returned when a numeric payload does not
	// fit the requested or inferred width.
	ErrNumberOutOfRange = errors.New("number out of range")

	// ErrBuilderExternalsDisallowed is returned when appending an
	// External value while Options.DisallowExternals is set.
	ErrBuilderExternalsDisallowed = errors.New("externals are disallowed")
)

// Capability errors.
var (
	// ErrNotImplemented is returned for recognized-but-unimplemented
	// wire types, e.g. BCD.
	ErrNotImplemented = errors.New("not implemented")
)

// Internal errors: these indicate a bug in the caller's use of the
// package rather than a malformed document.
var (
	ErrInternal = errors.New("internal error")
)

// Parse-side errors, declared for completeness with the shared error
// taxonomy. ErrParse and ErrUnexpectedControlCharacter are never
// returned by this package: no JSON parser ships here, only the
// Builder/Slice core. ErrIndexOutOfBounds is returned by the Slice
// accessors (out-of-range index, empty input) and by Builder.GetKey
// for a key that is not present.
var (
	ErrParse                      = errors.New("parse error")
	ErrUnexpectedControlCharacter = errors.New("unexpected control character")
	ErrIndexOutOfBounds           = errors.New("index out of bounds")
)

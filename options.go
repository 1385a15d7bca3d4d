package vpack

// Options carries the per-Builder knobs described in §4.5. The zero
// value is the default policy: unsorted objects, indexed (not
// compact) containers, externals allowed, no attribute translator,
// uniqueness checked only incrementally, and no depth limit.
type Options struct {
	// SortAttributeNames makes newly built Objects use the sorted
	// head-byte variants (0x0b..0x0e). Objects built with either
	// policy remain readable regardless of this setting.
	SortAttributeNames bool

	// BuildUnindexedArrays makes OpenArray behave as if compact=true
	// was passed, even when the caller didn't ask for it explicitly.
	BuildUnindexedArrays bool

	// BuildUnindexedObjects is the Object analogue of
	// BuildUnindexedArrays.
	BuildUnindexedObjects bool

	// DisallowExternals makes adding an External value fail with
	// ErrBuilderExternalsDisallowed.
	DisallowExternals bool

	// AttributeTranslator, if non-nil, lets short Object keys be
	// stored as one-byte SmallInt handles. Must be sealed.
	AttributeTranslator AttributeTranslator

	// CheckAttributeUniqueness enforces key uniqueness at Close time
	// in addition to the per-Add check (relevant mainly when an
	// AttributeTranslator makes two distinct strings collide on the
	// same handle, which the per-Add check cannot see).
	CheckAttributeUniqueness bool

	// MaxDepth caps container nesting depth. Zero means unlimited.
	MaxDepth int

	// ClearBuilderBeforeParse mirrors the option of the same name in
	// §4.5: a JSON-to-VPack front end would consult it to decide
	// whether to reset an already-populated Builder before parsing a
	// new document into it, rather than appending as a sibling value.
	// No JSON parser ships in this package (see ErrParse), so this
	// field is inert today; it is declared so the Options surface
	// matches §4.5 in full and stays ready for that front end.
	ClearBuilderBeforeParse bool
}

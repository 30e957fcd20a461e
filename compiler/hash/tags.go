package hash

// ---------------------------------------------------------------------------
// Frozen tag bytes for the fingerprint serialization format.
//
// IMPORTANT: These tags are FROZEN. Once assigned, a tag byte must never
// change meaning. Adding new tags is fine; changing existing ones silently
// turns every cached build result into a miss or, worse, a false hit.
// ---------------------------------------------------------------------------

// HashVersion is the version prefix for the serialization format.
// Bumping this invalidates all existing fingerprints.
const HashVersion byte = 1

// Value tags used inside a serialized syntax tree.
const (
	TagReservedZero byte = 0x00 // version prefix / reserved

	TagNil    byte = 0x01
	TagNode   byte = 0x02 // type name, span, then fields in declaration order
	TagString byte = 0x03
	TagNumber byte = 0x04
	TagBool   byte = 0x05
	TagInt    byte = 0x06
	TagList   byte = 0x07 // uint32 count, then elements
	TagStruct byte = 0x08 // embedded or nested non-node struct
	TagSpan   byte = 0x09

	// Reserved 0x0A-0x1F
)

// Unit field tags. Each part of a compilation unit is introduced by its
// tag so that no two different units serialize to the same bytes.
const (
	TagUnitFile     byte = 0x20
	TagUnitTree     byte = 0x21
	TagUnitSource   byte = 0x22
	TagUnitOptions  byte = 0x23
	TagUnitFormat   byte = 0x24
	TagUnitRegistry byte = 0x25
	TagUnitCompiler byte = 0x26

	// Reserved 0xFE-0xFF
)

// allTags lists every defined tag for uniqueness verification in tests.
var allTags = []byte{
	TagReservedZero,
	TagNil, TagNode, TagString, TagNumber, TagBool, TagInt, TagList, TagStruct, TagSpan,
	TagUnitFile, TagUnitTree, TagUnitSource, TagUnitOptions, TagUnitFormat,
	TagUnitRegistry, TagUnitCompiler,
}

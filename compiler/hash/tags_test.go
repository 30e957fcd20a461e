package hash

import "testing"

var (
	valueTags = []byte{TagReservedZero, TagNil, TagNode, TagString, TagNumber, TagBool, TagInt, TagList, TagStruct, TagSpan}
	unitTags  = []byte{TagUnitFile, TagUnitTree, TagUnitSource, TagUnitOptions, TagUnitFormat, TagUnitRegistry, TagUnitCompiler}
)

func TestTagsDistinct(t *testing.T) {
	seen := make(map[byte]bool, len(allTags))
	for _, tag := range allTags {
		if seen[tag] {
			t.Errorf("tag 0x%02X defined twice", tag)
		}
		seen[tag] = true
	}
	if len(allTags) != len(valueTags)+len(unitTags) {
		t.Errorf("allTags has %d tags, want %d value and %d unit tags", len(allTags), len(valueTags), len(unitTags))
	}
}

func TestTagRanges(t *testing.T) {
	tests := []struct {
		name   string
		tags   []byte
		lo, hi byte
	}{
		{"value", valueTags, 0x00, 0x1F},
		{"unit", unitTags, 0x20, 0xFD},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, tag := range tt.tags {
				if tag < tt.lo || tag > tt.hi {
					t.Errorf("%s tag 0x%02X outside 0x%02X-0x%02X", tt.name, tag, tt.lo, tt.hi)
				}
			}
		})
	}
}

func TestHashVersionNonZero(t *testing.T) {
	if HashVersion == 0 {
		t.Error("HashVersion must be non-zero")
	}
}

// Package hash computes content fingerprints of compilation units. A
// fingerprint covers everything that can change a unit's generated code,
// source map or diagnostics, so equal fingerprints mean a cached result may
// be reused.
package hash

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/chazu/objjc/ast"
)

// Key is a SHA-256 fingerprint.
type Key [32]byte

// String returns the key in lowercase hex.
func (k Key) String() string { return hex.EncodeToString(k[:]) }

// ParseKey decodes a key written by String.
func ParseKey(s string) (Key, bool) {
	var k Key
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(k) {
		return k, false
	}
	copy(k[:], b)
	return k, true
}

// HashTree fingerprints a syntax tree, spans included.
func HashTree(n ast.Node) Key {
	return sha256.Sum256(SerializeTree(n))
}

// Unit is the input of one compilation as far as its output is concerned.
type Unit struct {
	File string
	Tree *ast.Program
	// Source is the original text, which reaches the output through
	// excerpts, copy-through and embedded source maps.
	Source string
	// Options are the output-relevant option values in a fixed order.
	Options []string
	// Format is the format description the table was loaded from.
	Format []byte
	// Registry is the snapshot of the seed registry, nil when empty.
	Registry []byte
	// Compiler identifies the compiler build, so upgrading it invalidates
	// earlier results.
	Compiler string
}

// Fingerprint hashes every field of u.
func Fingerprint(u Unit) Key {
	s := &serializer{buf: make([]byte, 0, 4096)}
	s.writeByte(HashVersion)

	s.writeByte(TagUnitFile)
	s.writeString(u.File)

	s.writeByte(TagUnitTree)
	if u.Tree == nil {
		s.writeByte(TagNil)
	} else {
		s.writeBytes(SerializeTree(u.Tree))
	}

	s.writeByte(TagUnitSource)
	s.writeString(u.Source)

	s.writeByte(TagUnitOptions)
	s.writeUint32(uint32(len(u.Options)))
	for _, o := range u.Options {
		s.writeString(o)
	}

	s.writeByte(TagUnitFormat)
	s.writeBytes(u.Format)

	s.writeByte(TagUnitRegistry)
	s.writeBytes(u.Registry)

	s.writeByte(TagUnitCompiler)
	s.writeString(u.Compiler)

	return sha256.Sum256(s.buf)
}

package hash

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"

	"github.com/chazu/objjc/ast"
)

// ---------------------------------------------------------------------------
// Deterministic binary serialization of syntax trees.
//
// Encoding conventions:
//   - First byte: HashVersion (0x01)
//   - Integers: big-endian fixed-width (int64=8B)
//   - Floats: IEEE 754 big-endian 8B
//   - Strings: uint32 big-endian length + UTF-8 bytes
//   - Booleans: single byte (0/1)
//   - Nodes: TagNode, type name, span, then every exported field in
//     declaration order
// ---------------------------------------------------------------------------

var (
	nodeType = reflect.TypeOf((*ast.Node)(nil)).Elem()
	spanType = reflect.TypeOf(ast.Span{})
)

// SerializeTree produces a deterministic byte serialization of a syntax
// tree. Two trees serialize identically exactly when they have the same
// node types, field values and source spans, however they were decoded.
func SerializeTree(n ast.Node) []byte {
	s := &serializer{buf: make([]byte, 0, 1024)}
	s.writeByte(HashVersion)
	s.serializeValue(reflect.ValueOf(n))
	return s.buf
}

type serializer struct {
	buf []byte
}

func (s *serializer) writeByte(b byte) {
	s.buf = append(s.buf, b)
}

func (s *serializer) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeInt64(v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeFloat64(v float64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeString(v string) {
	s.writeUint32(uint32(len(v)))
	s.buf = append(s.buf, v...)
}

func (s *serializer) writeBytes(v []byte) {
	s.writeUint32(uint32(len(v)))
	s.buf = append(s.buf, v...)
}

func (s *serializer) writeBool(v bool) {
	if v {
		s.writeByte(1)
	} else {
		s.writeByte(0)
	}
}

func (s *serializer) writeInt(v int) {
	s.writeInt64(int64(v))
}

func (s *serializer) writeSpan(sp ast.Span) {
	s.writeByte(TagSpan)
	s.writeInt(sp.Start.Offset)
	s.writeInt(sp.Start.Line)
	s.writeInt(sp.Start.Column)
	s.writeInt(sp.End.Offset)
	s.writeInt(sp.End.Line)
	s.writeInt(sp.End.Column)
}

func (s *serializer) serializeValue(v reflect.Value) {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			s.writeByte(TagNil)
			return
		}
		if v.Kind() == reflect.Pointer && v.Type().Implements(nodeType) {
			s.serializeNode(v.Interface().(ast.Node), v.Elem())
			return
		}
		s.serializeValue(v.Elem())
	case reflect.String:
		s.writeByte(TagString)
		s.writeString(v.String())
	case reflect.Float32, reflect.Float64:
		s.writeByte(TagNumber)
		s.writeFloat64(v.Float())
	case reflect.Bool:
		s.writeByte(TagBool)
		s.writeBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		s.writeByte(TagInt)
		s.writeInt64(v.Int())
	case reflect.Slice, reflect.Array:
		s.writeByte(TagList)
		s.writeUint32(uint32(v.Len()))
		for i := 0; i < v.Len(); i++ {
			s.serializeValue(v.Index(i))
		}
	case reflect.Struct:
		if v.Type() == spanType {
			s.writeSpan(v.Interface().(ast.Span))
			return
		}
		s.writeByte(TagStruct)
		s.writeString(v.Type().Name())
		s.serializeFields(v)
	case reflect.Invalid:
		s.writeByte(TagNil)
	default:
		// Maps, channels and functions never appear in syntax trees.
		panic(fmt.Sprintf("hash: cannot serialize %s", v.Type()))
	}
}

func (s *serializer) serializeNode(n ast.Node, elem reflect.Value) {
	s.writeByte(TagNode)
	s.writeString(n.Type())
	s.writeSpan(n.Span())
	s.serializeFields(elem)
}

// serializeFields writes the exported fields of a struct. NodeBase only
// carries the span, which serializeNode has already written.
func (s *serializer) serializeFields(v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Type == reflect.TypeOf(ast.NodeBase{}) {
			continue
		}
		s.serializeValue(v.Field(i))
	}
}

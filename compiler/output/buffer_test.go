package output

import (
	"strings"
	"testing"

	"github.com/chazu/objjc/ast"
	"github.com/go-test/deep"
)

func ident(name string, line, col, off int) *ast.Identifier {
	return &ast.Identifier{
		NodeBase: ast.NodeBase{Loc: ast.Span{
			Start: ast.Position{Offset: off, Line: line, Column: col},
			End:   ast.Position{Offset: off + len(name), Line: line, Column: col + len(name)},
		}},
		Name: name,
	}
}

func backends() map[string]func() Buffer {
	return map[string]func() Buffer{
		"plain":  func() Buffer { return NewPlain(NewIndent("  ")) },
		"mapped": func() Buffer { return NewMapped("a.j", NewIndent("  ")) },
	}
}

func TestBackendsAgree(t *testing.T) {
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			b := mk()
			if !b.IsEmpty() || b.Len() != 0 {
				t.Fatalf("new buffer: IsEmpty=%v Len=%d", b.IsEmpty(), b.Len())
			}
			b.Append("", nil)
			if !b.IsEmpty() {
				t.Error("empty append made buffer non-empty")
			}
			b.Append("var x", ident("x", 1, 4, 4))
			b.Append(";", nil)
			if b.IsEmpty() || b.Len() != 6 {
				t.Errorf("IsEmpty=%v Len=%d, want false 6", b.IsEmpty(), b.Len())
			}
			if got := b.String(); got != "var x;" {
				t.Errorf("String() = %q", got)
			}
		})
	}
}

func TestIndentation(t *testing.T) {
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			b := mk()
			b.Append("function f()", nil)
			b.AppendFormatted(" {{+1}\n")
			b.Append("a();\n", nil)
			b.Append("b();", nil)
			b.AppendFormatted("\n{-1}")
			b.Append("}", nil)
			want := "function f() {\n  a();\n  b();\n}"
			if got := b.String(); got != want {
				t.Errorf("String() =\n%q\nwant\n%q", got, want)
			}
			if b.Indent().Depth != 0 {
				t.Errorf("Depth = %d, want 0", b.Indent().Depth)
			}
		})
	}
}

func TestIndentNeverNegative(t *testing.T) {
	ind := NewIndent("\t")
	ind.Shift(-3)
	if ind.Depth != 0 {
		t.Errorf("Depth = %d, want 0", ind.Depth)
	}
}

func TestRetract(t *testing.T) {
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			b := mk()
			b.Append("x = ", nil)
			m := b.AppendMarked("self.", nil)
			b.Append("name;", nil)
			if !m.Valid() {
				t.Fatal("mark not valid")
			}
			b.Retract(m)
			if got := b.String(); got != "x = name;" {
				t.Errorf("String() = %q", got)
			}
			if b.Len() != len("x = name;") {
				t.Errorf("Len() = %d", b.Len())
			}
		})
	}
}

func TestRetractKeepsIndentation(t *testing.T) {
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			b := mk()
			b.Append("{\n", nil)
			b.Indent().Shift(1)
			m := b.AppendMarked("self.", nil)
			b.Append("x = 1;\n", nil)
			b.Append("var x;\n", nil)
			b.Indent().Shift(-1)
			b.Append("}", nil)
			b.Retract(m)
			want := "{\n  x = 1;\n  var x;\n}"
			if got := b.String(); got != want {
				t.Errorf("String() = %q, want %q", got, want)
			}
		})
	}
}

func TestRetractAfterAbsorb(t *testing.T) {
	for name, mk := range backends() {
		t.Run(name, func(t *testing.T) {
			parent := mk()
			child := parent.Child()
			m := child.AppendMarked("self.", nil)
			child.Append("a", nil)
			parent.Append("(", nil)
			parent.Absorb(child)
			parent.Append(")", nil)
			parent.Retract(m)
			if got := parent.String(); got != "(a)" {
				t.Errorf("String() = %q", got)
			}
		})
	}
}

func TestAbsorbAcrossBackends(t *testing.T) {
	m := NewMapped("a.j", nil)
	p := NewPlain(m.Indent())
	p.Append("plain", nil)
	m.Append("[", nil)
	m.Absorb(p)
	m.Append("]", nil)
	if got := m.String(); got != "[plain]" {
		t.Errorf("String() = %q", got)
	}
}

func TestFinalizePlain(t *testing.T) {
	b := NewPlain(nil)
	b.Append("x;", nil)
	out, err := Finalize(b, FinalizeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Code != "x;" || out.SourceMap != nil {
		t.Errorf("out = %+v", out)
	}
	if data, _ := out.MapJSON(); data != nil {
		t.Errorf("MapJSON() = %s, want nil", data)
	}
}

func TestFinalizeSourceMap(t *testing.T) {
	b := NewMapped("Foo.j", NewIndent("    "))
	b.Append("var ", nil)
	b.Append("a", ident("a", 1, 4, 4))
	b.Append(" = ", nil)
	b.Append("b", ident("b", 1, 8, 8))
	b.Append(";\n", nil)
	b.AppendFormatted("{+1}")
	b.Append("c", ident("c", 3, 2, 20))
	b.Append(";", nil)

	out, err := Finalize(b, FinalizeOptions{File: "Foo.js", Source: "src", IncludeSources: true})
	if err != nil {
		t.Fatal(err)
	}
	if out.Code != "var a = b;\n    c;" {
		t.Fatalf("Code = %q", out.Code)
	}
	sm := out.SourceMap
	if sm.Version != 3 || sm.File != "Foo.js" {
		t.Errorf("header = %+v", sm)
	}
	if diff := deep.Equal(sm.Sources, []string{"Foo.j"}); diff != nil {
		t.Error(diff)
	}
	if diff := deep.Equal(sm.SourcesContent, []string{"src"}); diff != nil {
		t.Error(diff)
	}
	if diff := deep.Equal(sm.Names, []string{"a", "b", "c"}); diff != nil {
		t.Error(diff)
	}

	segs, err := DecodeMappings(sm.Mappings)
	if err != nil {
		t.Fatalf("DecodeMappings(%q) error = %v", sm.Mappings, err)
	}
	want := []Segment{
		{GenLine: 0, GenColumn: 4, Source: 0, Line: 0, Column: 4, Name: 0},
		{GenLine: 0, GenColumn: 8, Source: 0, Line: 0, Column: 8, Name: 1},
		{GenLine: 1, GenColumn: 4, Source: 0, Line: 2, Column: 2, Name: 2},
	}
	if diff := deep.Equal(segs, want); diff != nil {
		t.Errorf("mappings %q: %v", sm.Mappings, diff)
	}

	data, err := out.MapJSON()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"version":3`) || !strings.Contains(string(data), `"mappings":"`) {
		t.Errorf("MapJSON() = %s", data)
	}
}

func TestVLQRoundTrip(t *testing.T) {
	for _, v := range []int{0, 1, -1, 15, 16, -16, 31, 32, 1000, -12345} {
		var b strings.Builder
		writeVLQ(&b, v)
		got, err := decodeVLQ(b.String())
		if err != nil || len(got) != 1 || got[0] != v {
			t.Errorf("VLQ(%d) = %q decodes to %v, %v", v, b.String(), got, err)
		}
	}
	var b strings.Builder
	writeVLQ(&b, 0)
	writeVLQ(&b, 1)
	writeVLQ(&b, -1)
	if b.String() != "ACD" {
		t.Errorf("encoding = %q, want ACD", b.String())
	}
}

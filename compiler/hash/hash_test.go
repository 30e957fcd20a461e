package hash

import (
	"encoding/binary"
	"testing"

	"github.com/chazu/objjc/ast"
)

func sampleTree() *ast.Program {
	return ast.Prog(
		ast.Class("Foo", "", []*ast.IvarDeclaration{ast.Ivar("int", "x").WithAccessors(ast.Accessors{})},
			ast.Method("-", "int", "twice", nil, ast.Block(ast.Return(ast.Binary("*", ast.Ident("x"), ast.Num(2))))),
		),
		ast.ExprStmt(ast.Send(ast.Ident("Foo"), "alloc")),
	)
}

func TestSerializeTree_Deterministic(t *testing.T) {
	if string(SerializeTree(sampleTree())) != string(SerializeTree(sampleTree())) {
		t.Error("serialization is not deterministic")
	}
}

func TestSerializeTree_VersionPrefix(t *testing.T) {
	data := SerializeTree(ast.Ident("a"))
	if data[0] != HashVersion {
		t.Errorf("version prefix: got 0x%02X, want 0x%02X", data[0], HashVersion)
	}
	if data[1] != TagNode {
		t.Errorf("tag: got 0x%02X, want 0x%02X", data[1], TagNode)
	}
	n := binary.BigEndian.Uint32(data[2:6])
	if got := string(data[6 : 6+n]); got != "Identifier" {
		t.Errorf("type name: got %q", got)
	}
}

func TestHashTree_Sensitivity(t *testing.T) {
	base := HashTree(sampleTree())

	tests := []struct {
		name   string
		mutate func(p *ast.Program)
	}{
		{"identifier", func(p *ast.Program) {
			p.Body[1].(*ast.ExpressionStatement).Expression.(*ast.MessageSendExpression).Object = ast.Ident("Bar")
		}},
		{"number", func(p *ast.Program) {
			m := p.Body[0].(*ast.ClassDeclarationStatement).Body[0].(*ast.MethodDeclarationStatement)
			m.Body.Body[0] = ast.Return(ast.Binary("*", ast.Ident("x"), ast.Num(3)))
		}},
		{"operator", func(p *ast.Program) {
			m := p.Body[0].(*ast.ClassDeclarationStatement).Body[0].(*ast.MethodDeclarationStatement)
			m.Body.Body[0] = ast.Return(ast.Binary("+", ast.Ident("x"), ast.Num(2)))
		}},
		{"accessor flag", func(p *ast.Program) {
			p.Body[0].(*ast.ClassDeclarationStatement).Ivars[0].Accessors.Readonly = true
		}},
		{"method type", func(p *ast.Program) {
			p.Body[0].(*ast.ClassDeclarationStatement).Body[0].(*ast.MethodDeclarationStatement).MethodType = "+"
		}},
		{"span", func(p *ast.Program) {
			p.Body[1].(*ast.ExpressionStatement).Loc.Start.Offset = 7
		}},
		{"extra statement", func(p *ast.Program) {
			p.Body = append(p.Body, &ast.EmptyStatement{})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := sampleTree()
			tt.mutate(p)
			if HashTree(p) == base {
				t.Error("hash did not change")
			}
		})
	}
}

func TestHashTree_NilAndEmptyDiffer(t *testing.T) {
	withNil := ast.Return(nil)
	withNull := ast.Return(ast.Null())
	if HashTree(withNil) == HashTree(withNull) {
		t.Error("missing argument hashes like null literal")
	}
}

func TestFingerprint(t *testing.T) {
	base := Unit{
		File:     "Foo.j",
		Tree:     sampleTree(),
		Source:   "@implementation Foo @end",
		Options:  []string{"1", "0"},
		Format:   []byte(`{"rules":{}}`),
		Registry: []byte{0xa1, 0x01, 0x01},
		Compiler: "dev",
	}
	key := Fingerprint(base)
	if Fingerprint(base) != key {
		t.Fatal("fingerprint is not deterministic")
	}

	tests := []struct {
		name   string
		mutate func(u *Unit)
	}{
		{"file", func(u *Unit) { u.File = "Bar.j" }},
		{"tree", func(u *Unit) { u.Tree = ast.Prog() }},
		{"source", func(u *Unit) { u.Source += " " }},
		{"options", func(u *Unit) { u.Options = []string{"1", "1"} }},
		{"option boundaries", func(u *Unit) { u.Options = []string{"10"} }},
		{"format", func(u *Unit) { u.Format = nil }},
		{"registry", func(u *Unit) { u.Registry = nil }},
		{"compiler", func(u *Unit) { u.Compiler = "v2" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := base
			u.Tree = sampleTree()
			tt.mutate(&u)
			if Fingerprint(u) == key {
				t.Error("fingerprint did not change")
			}
		})
	}
}

func TestKeyRoundTrip(t *testing.T) {
	k := HashTree(sampleTree())
	parsed, ok := ParseKey(k.String())
	if !ok || parsed != k {
		t.Errorf("ParseKey(%s) = %v, %v", k, parsed, ok)
	}
	if _, ok := ParseKey("abc"); ok {
		t.Error("short key accepted")
	}
}

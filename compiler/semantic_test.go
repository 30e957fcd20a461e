package compiler

import (
	"strings"
	"testing"

	"github.com/chazu/objjc/ast"
	"github.com/chazu/objjc/compiler/diag"
)

func TestReservedWordBindings(t *testing.T) {
	tests := []struct {
		name string
		prog *ast.Program
		want int
	}{
		{"plain name", ast.Prog(ast.Var("var", "count", nil)), 0},
		{"future reserved word", ast.Prog(ast.Var("var", "interface", nil)), 1},
		{"runtime name", ast.Prog(ast.Var("var", "meta_class", nil)), 1},
		{"parameter", ast.Prog(ast.Func("f", []string{"_cmd"})), 1},
		{"self outside method", ast.Prog(ast.Var("var", "self", nil)), 0},
		{
			"self local in method",
			ast.Prog(ast.Class("Foo", "", nil,
				ast.Method("-", "void", "m", nil, ast.Block(ast.Var("var", "self", nil))))),
			1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustCompile(t, tt.prog)
			if got := len(diagnosticsOfKind(res, diag.KindReservedWords)); got != tt.want {
				t.Errorf("got %d reserved-words warnings, want %d", got, tt.want)
			}
		})
	}
}

func TestUnknownTypes(t *testing.T) {
	tests := []struct {
		name string
		prog *ast.Program
		want []string
	}{
		{
			"builtin types",
			ast.Prog(ast.Class("Foo", "", []*ast.IvarDeclaration{ast.Ivar("int", "a"), ast.Ivar("BOOL", "b")},
				ast.Method("-", "void", "set:", []*ast.MethodArgument{ast.Arg("id", "x")}, ast.Block()))),
			nil,
		},
		{
			"unknown ivar type",
			ast.Prog(ast.Class("Foo", "", []*ast.IvarDeclaration{ast.Ivar("Widget", "w")})),
			[]string{"Widget"},
		},
		{
			"class declared later",
			ast.Prog(
				ast.Class("Foo", "", []*ast.IvarDeclaration{ast.Ivar("Bar", "bar")}),
				ast.Class("Bar", "", nil),
			),
			nil,
		},
		{
			"forward declaration",
			ast.Prog(
				&ast.ClassStatement{ID: ast.Ident("Widget")},
				ast.Class("Foo", "", []*ast.IvarDeclaration{ast.Ivar("Widget", "w")}),
			),
			nil,
		},
		{
			"typedef",
			ast.Prog(
				&ast.TypeDefStatement{ID: ast.Ident("CGRect")},
				ast.Class("Foo", "", nil,
					ast.Method("-", "CGRect", "frame", nil, ast.Block(ast.Return(ast.Null())))),
			),
			nil,
		},
		{
			"unknown argument type",
			ast.Prog(ast.Class("Foo", "", nil,
				ast.Method("-", "void", "take:", []*ast.MethodArgument{ast.Arg("Gadget", "g")}, ast.Block()))),
			[]string{"Gadget"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustCompile(t, tt.prog)
			ws := diagnosticsOfKind(res, diag.KindUnknownTypes)
			if len(ws) != len(tt.want) {
				t.Fatalf("got %d unknown-types warnings, want %d: %v", len(ws), len(tt.want), ws)
			}
			for i, name := range tt.want {
				if !strings.Contains(ws[i].Message, "'"+name+"'") {
					t.Errorf("warning %q does not name %s", ws[i].Message, name)
				}
			}
		})
	}
}

func TestDebuggerWarning(t *testing.T) {
	res := mustCompile(t, ast.Prog(&ast.DebuggerStatement{}))
	if ws := diagnosticsOfKind(res, diag.KindDebugger); len(ws) != 1 {
		t.Errorf("got %d debugger warnings, want 1", len(ws))
	}
	if !strings.Contains(res.Code, "debugger;") {
		t.Errorf("debugger statement not generated: %q", res.Code)
	}
}

func TestInheritedIvarRedeclaration(t *testing.T) {
	prog := ast.Prog(
		ast.Class("Base", "", []*ast.IvarDeclaration{ast.Ivar("id", "value")}),
		ast.Class("Derived", "Base", []*ast.IvarDeclaration{ast.Ivar("id", "value")}),
	)
	res := mustCompile(t, prog)
	if ws := diagnosticsOfKind(res, diag.KindShadowedVars); len(ws) != 1 {
		t.Errorf("got %d shadowed-vars warnings, want 1", len(ws))
	}
}

func TestDuplicateProtocolMethodWarning(t *testing.T) {
	prog := ast.Prog(ast.Protocol("P", nil,
		ast.Method("-", "id", "thing", nil, nil),
		ast.Method("-", "id", "thing", nil, nil),
	))
	res := mustCompile(t, prog)
	if ws := diagnosticsOfKind(res, diag.KindDuplicateProtocolMethods); len(ws) != 1 {
		t.Errorf("got %d duplicate-protocol-methods warnings, want 1", len(ws))
	}
}

func TestIncorporatedProtocolSignatures(t *testing.T) {
	size := func(ret string) *ast.MethodDeclarationStatement {
		return ast.Method("-", ret, "size", nil, nil)
	}
	tests := []struct {
		name string
		prog *ast.Program
		want int
	}{
		{
			"same signature",
			ast.Prog(ast.Protocol("A", nil, size("int")), ast.Protocol("B", []string{"A"}, size("int"))),
			0,
		},
		{
			"conflicting return type",
			ast.Prog(ast.Protocol("A", nil, size("int")), ast.Protocol("B", []string{"A"}, size("BOOL"))),
			1,
		},
		{
			"through two levels",
			ast.Prog(
				ast.Protocol("A", nil, size("int")),
				ast.Protocol("B", []string{"A"}),
				ast.Protocol("C", []string{"B"}, size("BOOL")),
			),
			1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustCompile(t, tt.prog)
			got := diagnosticsOfKind(res, diag.KindParameterTypes)
			if len(got) != tt.want {
				t.Fatalf("got %d parameter-types warnings, want %d: %v", len(got), tt.want, got)
			}
			if tt.want > 0 && !strings.Contains(got[0].Message, "protocol 'A'") && !strings.Contains(got[0].Message, "protocol 'B'") {
				t.Errorf("message %q does not name the protocol", got[0].Message)
			}
		})
	}
}

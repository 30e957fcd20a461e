package ast

import (
	"testing"

	"github.com/go-test/deep"
)

func TestChildrenOrder(t *testing.T) {
	ifs := &IfStatement{
		Test:       Ident("a"),
		Consequent: ExprStmt(Ident("b")),
		Alternate:  ExprStmt(Ident("c")),
	}
	var got []string
	for _, c := range Children(ifs) {
		got = append(got, c.Type())
	}
	want := []string{"Identifier", "ExpressionStatement", "ExpressionStatement"}
	if diff := deep.Equal(got, want); diff != nil {
		t.Error(diff)
	}

	// Nil optional children are skipped.
	ifs.Alternate = nil
	if n := len(Children(ifs)); n != 2 {
		t.Errorf("len(Children) = %d, want 2", n)
	}
}

func TestInspectCollectsIdentifiers(t *testing.T) {
	prog := Prog(
		Var("var", "x", Binary("+", Ident("y"), Num(1))),
		Func("f", []string{"p"}, Return(Call(Ident("g"), Ident("p")))),
	)
	var names []string
	Inspect(prog, func(n Node) bool {
		if id, ok := n.(*Identifier); ok {
			names = append(names, id.Name)
		}
		return true
	})
	want := []string{"x", "y", "f", "p", "g", "p"}
	if diff := deep.Equal(names, want); diff != nil {
		t.Error(diff)
	}
}

func TestInspectSkipsSubtree(t *testing.T) {
	prog := Prog(Func("f", nil, ExprStmt(Ident("inner"))), ExprStmt(Ident("outer")))
	var names []string
	Inspect(prog, func(n Node) bool {
		if _, ok := n.(*FunctionDeclaration); ok {
			return false
		}
		if id, ok := n.(*Identifier); ok {
			names = append(names, id.Name)
		}
		return true
	})
	if diff := deep.Equal(names, []string{"outer"}); diff != nil {
		t.Error(diff)
	}
}

func TestContainsObjJ(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want bool
	}{
		{"plain call", ExprStmt(Call(Ident("f"), Num(1))), false},
		{"nested send", ExprStmt(Call(Ident("f"), Send(Ident("x"), "y"))), true},
		{"selector literal", ExprStmt(&SelectorLiteralExpression{Selector: "a:"}), true},
		{"function with deref", Func("f", nil, Return(Deref(Ident("r")))), true},
		{"empty", &EmptyStatement{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsObjJ(tt.node); got != tt.want {
				t.Errorf("ContainsObjJ() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectorJoin(t *testing.T) {
	tests := []struct {
		send *MessageSendExpression
		want string
	}{
		{Send(Ident("a"), "count"), "count"},
		{Send(Ident("a"), "setX:", Num(1)), "setX:"},
		{Send(Ident("a"), "initWithX:y:", Num(1), Num(2)), "initWithX:y:"},
		{&MessageSendExpression{Selectors: []*Identifier{Ident("foo"), nil}, Arguments: []Expr{Num(1), Num(2)}}, "foo::"},
	}
	for _, tt := range tests {
		if got := tt.send.Selector(); got != tt.want {
			t.Errorf("Selector() = %q, want %q", got, tt.want)
		}
	}
}

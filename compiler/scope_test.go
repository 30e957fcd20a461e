package compiler

import (
	"testing"

	"github.com/chazu/objjc/ast"
	"github.com/chazu/objjc/compiler/output"
)

func TestDeclarePlacement(t *testing.T) {
	root := NewProgramScope()
	fn := root.push(FunctionFrame)
	block := fn.push(BlockFrame)

	tests := []struct {
		name   string
		kind   BindingKind
		target *Scope
	}{
		{"v", BindLocal, fn},
		{"f", BindFunction, fn},
		{"l", BindLet, block},
		{"c", BindConst, block},
		{"e", BindCatch, block},
		{"g", BindGlobal, root},
		{"i", BindImplicitGlobal, root},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := block.Declare(tt.name, &Binding{Kind: tt.kind}); got != tt.target {
				t.Errorf("%s landed in a %s frame, want %s", tt.name, got.Kind(), tt.target.Kind())
			}
		})
	}
	if fn.Lookup("l", false) != nil {
		t.Error("block-scoped binding visible outside its block")
	}
	if fn.Lookup("g", false) == nil {
		t.Error("global not visible from a function")
	}
}

func TestLookupStopsAtMethod(t *testing.T) {
	root := NewProgramScope()
	root.Declare("outer", &Binding{Kind: BindLocal})
	cls := root.pushClass(NewClassDef("Foo", nil), "", "")
	m := cls.pushMethod("-")
	m.Declare("self", &Binding{Kind: BindArgument})
	inner := m.push(BlockFrame)

	if inner.Lookup("self", true) == nil {
		t.Error("method argument not found")
	}
	if inner.Lookup("outer", true) != nil {
		t.Error("lookup crossed the method boundary")
	}
	if inner.Lookup("outer", false) == nil {
		t.Error("unbounded lookup missed the program binding")
	}
}

func TestFrameAttributes(t *testing.T) {
	base := NewClassDef("Base", nil)
	base.AddIvar(&IvarDef{Name: "name", Type: "id"})
	cls := NewClassDef("Derived", base)
	proto := NewProtocolDef("P", nil)

	root := NewProgramScope()
	if root.CurrentClass() != nil || root.CurrentMethodType() != "" || root.InFunction() {
		t.Fatal("program frame has class attributes")
	}
	cf := root.pushClass(cls, "super_i", "super_c")
	im := cf.pushMethod("-").push(FunctionFrame).push(BlockFrame)
	if im.CurrentClass() != cls || im.CurrentMethodType() != "-" || !im.InFunction() {
		t.Error("attributes not inherited by nested frames")
	}
	if im.classFrame().superInstance != "super_i" {
		t.Error("super expression not reachable from a nested frame")
	}
	if iv := im.IvarForCurrentClass("name"); iv == nil {
		t.Error("inherited ivar not visible in instance method")
	}
	cm := cf.pushMethod("+")
	if cm.IvarForCurrentClass("name") != nil {
		t.Error("ivar visible in class method")
	}
	pf := root.pushProtocol(proto)
	if pf.CurrentProtocol() != proto || pf.CurrentClass() != nil {
		t.Error("protocol frame attributes wrong")
	}
}

func TestReceiverLevels(t *testing.T) {
	root := NewProgramScope()
	fn := root.push(FunctionFrame)
	block := fn.push(BlockFrame)

	if got := block.enterReceiver(); got != 1 {
		t.Fatalf("first level = %d", got)
	}
	if got := block.enterReceiver(); got != 2 {
		t.Fatalf("nested level = %d", got)
	}
	block.exitReceiver()
	if got := block.enterReceiver(); got != 2 {
		t.Errorf("level after release = %d, want 2", got)
	}
	block.exitReceiver()
	block.exitReceiver()

	if fn.MaxReceiverLevel() != 2 {
		t.Errorf("max = %d, want 2", fn.MaxReceiverLevel())
	}
	if root.MaxReceiverLevel() != 0 {
		t.Error("function temporaries counted in the program frame")
	}
}

func TestSelfRewritesMoveToParentOnClose(t *testing.T) {
	root := NewProgramScope()
	m := root.pushMethod("-")
	block := m.push(BlockFrame)
	block.RecordSelfRewrite("x", nil, output.Mark{})
	block.RecordSelfRewrite("y", nil, output.Mark{})
	block.close()

	got := m.takeSelfRewrites("x", m)
	if len(got) != 1 || got[0].name != "x" {
		t.Fatalf("takeSelfRewrites = %v", got)
	}
	if len(m.selfRewrites) != 1 || m.selfRewrites[0].name != "y" {
		t.Errorf("remaining = %v", m.selfRewrites)
	}
}

func TestDeferredChecksRunOnce(t *testing.T) {
	root := NewProgramScope()
	nested := root.push(FunctionFrame).push(BlockFrame)
	runs := 0
	nested.Defer(func() { runs++ })
	nested.Defer(func() { runs++ })
	root.runDeferred()
	root.runDeferred()
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestAncestry(t *testing.T) {
	s := NewProgramScope()
	prog := ast.Prog()
	s.pushNode(prog, "Program")
	s.pushNode(ast.ExprStmt(ast.Ident("a")), "ExpressionStatement")
	if s.Parent() != "Program" || s.PreviousSibling() != "" {
		t.Errorf("first child: parent %q previous %q", s.Parent(), s.PreviousSibling())
	}
	s.popNode()
	s.pushNode(ast.Return(nil), "ReturnStatement")
	if s.PreviousSibling() != "ExpressionStatement" {
		t.Errorf("previous sibling = %q", s.PreviousSibling())
	}
	if s.ParentNode() != ast.Node(prog) {
		t.Error("ParentNode is not the program")
	}
	s.popNode()
	s.popNode()
	if s.Depth() != 0 {
		t.Errorf("depth = %d after popping everything", s.Depth())
	}
}

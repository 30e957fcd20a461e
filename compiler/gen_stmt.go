package compiler

import (
	"fmt"
	"strings"

	"github.com/chazu/objjc/ast"
	"github.com/chazu/objjc/compiler/diag"
)

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// hoist binds the function declarations of a statement list before any of
// it is generated.
func (g *generator) hoist(body []ast.Stmt) {
	for _, s := range body {
		if fn, ok := s.(*ast.FunctionDeclaration); ok && fn.ID != nil {
			g.scope.Declare(fn.ID.Name, &Binding{Kind: BindFunction, Node: fn})
		}
	}
}

// statements generates a statement list.
func (g *generator) statements(body []ast.Stmt) {
	for _, s := range body {
		g.walk(s, "")
	}
}

func (g *generator) expressionStatement(n *ast.ExpressionStatement) {
	if n.Directive != "" {
		if lit, ok := n.Expression.(*ast.Literal); ok && lit.Raw != "" {
			g.emitAt(lit.Raw, lit)
			g.emit(";")
			return
		}
	}
	if startsWithBrace(n.Expression) {
		g.emit("(")
		g.walk(n.Expression, "")
		g.emit(")")
	} else {
		g.walk(n.Expression, "")
	}
	g.emit(";")
}

// block generates a braced statement list. typ is BlockStatement,
// FunctionBody or MethodBody; function and method bodies share the frame
// of their function, plain blocks open one.
func (g *generator) block(n *ast.BlockStatement, typ string) {
	g.formatFor(typ, "beforeLeftBrace", g.scope.Parent())
	g.emitAt("{", n)
	if typ == "BlockStatement" {
		g.scope = g.scope.push(BlockFrame)
		defer func() { g.scope = g.scope.close() }()
		g.hoist(n.Body)
	}
	if len(n.Body) == 0 && !g.needsTempDeclaration(typ) {
		g.emit("}")
		return
	}
	g.format(typ, "afterLeftBrace")
	g.statements(n.Body)
	if typ != "BlockStatement" {
		g.declareReceiverTemps()
	}
	g.format(typ, "beforeRightBrace")
	g.emit("}")
}

// needsTempDeclaration reports whether a body of type typ must declare
// receiver temporaries even though it has no statements.
func (g *generator) needsTempDeclaration(typ string) bool {
	return typ != "BlockStatement" && g.scope.MaxReceiverLevel() > 0
}

// declareReceiverTemps emits the var statement for the receiver
// temporaries used in the current variable scope.
func (g *generator) declareReceiverTemps() {
	n := g.scope.MaxReceiverLevel()
	if n == 0 {
		return
	}
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("___r%d", i+1)
	}
	g.emit("var " + strings.Join(names, ", ") + ";")
	if !g.buf.Indent().AtLineStart() {
		g.emit("\n")
	}
}

func (g *generator) withStatement(n *ast.WithStatement) {
	g.emitAt("with", n)
	g.emit(" (")
	g.walk(n.Object, "")
	g.emit(")")
	g.body(n, n.Body)
}

// body generates the statement body of a compound statement.
func (g *generator) body(owner ast.Node, body ast.Stmt) {
	g.format(owner.Type(), "beforeBody")
	g.walk(body, "")
}

func (g *generator) returnStatement(n *ast.ReturnStatement) {
	g.emitAt("return", n)
	if n.Argument != nil {
		g.emit(" ")
		g.walk(n.Argument, "")
	}
	g.emit(";")
}

func (g *generator) labeledStatement(n *ast.LabeledStatement) {
	g.emitAt(n.Label.Name, n.Label)
	g.emit(":")
	g.body(n, n.Body)
}

func (g *generator) jump(keyword string, label *ast.Identifier, n ast.Node) {
	g.emitAt(keyword, n)
	if label != nil {
		g.emit(" ")
		g.emitAt(label.Name, label)
	}
	g.emit(";")
}

func (g *generator) ifStatement(n *ast.IfStatement) {
	g.emitAt("if", n)
	g.emit(" (")
	g.walk(n.Test, "")
	g.emit(")")
	g.body(n, n.Consequent)
	if n.Alternate == nil {
		return
	}
	if _, ok := n.Consequent.(*ast.BlockStatement); ok {
		g.format("IfStatement", "beforeElse")
	} else if !g.buf.Indent().AtLineStart() {
		g.emit(" ")
	}
	g.emit("else")
	if _, ok := n.Alternate.(*ast.IfStatement); ok {
		g.emit(" ")
		g.walk(n.Alternate, "")
		return
	}
	g.body(n, n.Alternate)
}

func (g *generator) switchStatement(n *ast.SwitchStatement) {
	g.emitAt("switch", n)
	g.emit(" (")
	g.walk(n.Discriminant, "")
	g.emit(")")
	g.format("SwitchStatement", "beforeLeftBrace")
	g.emit("{")
	g.format("SwitchStatement", "afterLeftBrace")
	g.scope = g.scope.push(BlockFrame)
	for _, c := range n.Cases {
		g.walk(c, "")
	}
	g.scope = g.scope.close()
	g.format("SwitchStatement", "beforeRightBrace")
	g.emit("}")
}

func (g *generator) switchCase(n *ast.SwitchCase) {
	if n.Test == nil {
		g.emitAt("default", n)
	} else {
		g.emitAt("case ", n)
		g.walk(n.Test, "")
	}
	g.emit(":")
	g.format("SwitchCase", "afterColon")
	g.statements(n.Consequent)
}

func (g *generator) throwStatement(n *ast.ThrowStatement) {
	g.emitAt("throw ", n)
	g.walk(n.Argument, "")
	g.emit(";")
}

func (g *generator) tryStatement(n *ast.TryStatement) {
	g.emitAt("try", n)
	g.body(n, n.Block)
	if n.Handler != nil {
		g.emit(" ")
		g.walk(n.Handler, "")
	}
	if n.Finalizer != nil {
		g.emit(" finally")
		g.body(n, n.Finalizer)
	}
}

func (g *generator) catchClause(n *ast.CatchClause) {
	g.emitAt("catch", n)
	g.scope = g.scope.push(CatchFrame)
	defer func() { g.scope = g.scope.close() }()
	if n.Param != nil {
		g.emit(" (")
		g.declarePattern(n.Param, BindCatch, false)
		g.walk(n.Param, "")
		g.emit(")")
	}
	g.body(n, n.Body)
}

func (g *generator) whileStatement(n *ast.WhileStatement) {
	g.emitAt("while", n)
	g.emit(" (")
	g.walk(n.Test, "")
	g.emit(")")
	g.body(n, n.Body)
}

func (g *generator) doWhileStatement(n *ast.DoWhileStatement) {
	g.emitAt("do", n)
	g.body(n, n.Body)
	if !g.buf.Indent().AtLineStart() {
		g.emit(" ")
	}
	g.emit("while (")
	g.walk(n.Test, "")
	g.emit(");")
}

func (g *generator) forStatement(n *ast.ForStatement) {
	g.emitAt("for", n)
	g.emit(" (")
	g.scope = g.scope.push(BlockFrame)
	defer func() { g.scope = g.scope.close() }()
	switch init := n.Init.(type) {
	case nil:
	case *ast.VariableDeclaration:
		g.walk(init, "")
	default:
		g.operand(n, init, precSequence)
	}
	g.emit(";")
	if n.Test != nil {
		g.emit(" ")
		g.walk(n.Test, "")
	}
	g.emit(";")
	if n.Update != nil {
		g.emit(" ")
		g.walk(n.Update, "")
	}
	g.emit(")")
	g.body(n, n.Body)
}

func (g *generator) forInOf(keyword string, await bool, left ast.Node, right ast.Expr, body ast.Stmt, n ast.Node) {
	g.emitAt("for", n)
	if await {
		g.emit(" await")
	}
	g.emit(" (")
	g.scope = g.scope.push(BlockFrame)
	defer func() { g.scope = g.scope.close() }()
	g.walk(left, "")
	g.emit(" " + keyword + " ")
	g.walk(right, "")
	g.emit(")")
	g.body(n, body)
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

func kindForDeclaration(kind string) BindingKind {
	switch kind {
	case "let":
		return BindLet
	case "const":
		return BindConst
	}
	return BindLocal
}

// inForHead reports whether the declaration being generated is the head of
// a for statement, where it takes no semicolon.
func (g *generator) inForHead(n *ast.VariableDeclaration) bool {
	switch p := g.scope.ParentNode().(type) {
	case *ast.ForStatement:
		return p.Init == ast.Node(n)
	case *ast.ForInStatement:
		return p.Left == ast.Node(n)
	case *ast.ForOfStatement:
		return p.Left == ast.Node(n)
	}
	return false
}

func (g *generator) variableDeclaration(n *ast.VariableDeclaration) {
	g.emitAt(n.Kind+" ", n)
	for i, d := range n.Declarations {
		if i > 0 {
			g.separator("VariableDeclaration")
		}
		g.walk(d, "")
	}
	if !g.inForHead(n) {
		g.emit(";")
	}
}

func (g *generator) variableDeclarator(n *ast.VariableDeclarator) {
	kind := BindLocal
	if decl, ok := g.scope.ParentNode().(*ast.VariableDeclaration); ok {
		kind = kindForDeclaration(decl.Kind)
	}
	// The binding is in scope for its own initializer.
	g.declarePattern(n.ID, kind, false)
	g.walk(n.ID, "")
	if n.Init != nil {
		g.emit(" = ")
		g.operand(n, n.Init, precAssign)
	}
}

// declarePattern binds every identifier of a binding pattern.
func (g *generator) declarePattern(p ast.Node, kind BindingKind, param bool) {
	switch p := p.(type) {
	case *ast.Identifier:
		g.declareName(p, kind, param)
	case *ast.ArrayPattern:
		for _, el := range p.Elements {
			if el != nil {
				g.declarePattern(el, kind, param)
			}
		}
	case *ast.ObjectPattern:
		for _, prop := range p.Properties {
			switch prop := prop.(type) {
			case *ast.Property:
				g.declarePattern(prop.Value, kind, param)
			case *ast.RestElement:
				g.declarePattern(prop.Argument, kind, param)
			}
		}
	case *ast.RestElement:
		g.declarePattern(p.Argument, kind, param)
	case *ast.AssignmentPattern:
		g.declarePattern(p.Left, kind, param)
	}
}

// declareName binds one identifier. A declaration that hides an instance
// variable retracts the self. prefixes already emitted for the name in the
// scope it lands in.
func (g *generator) declareName(id *ast.Identifier, kind BindingKind, param bool) {
	g.checkBindingName(id, param)
	name := id.Name
	ivar := g.scope.IvarForCurrentClass(name)
	if ivar != nil && g.scope.Lookup(name, true) == nil {
		g.warn(diag.KindShadowedVars, id, "local declaration of '%s' shadows instance variable", name)
	}
	target := g.scope.Declare(name, &Binding{Kind: kind, Node: id})
	for _, r := range g.scope.takeSelfRewrites(name, target) {
		g.buf.Retract(r.mark)
		g.log.Debugf("%s: retracted implicit self for %q", g.opts.File, name)
	}
}

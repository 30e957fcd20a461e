package compiler

import (
	"strings"

	"github.com/chazu/objjc/ast"
	"github.com/chazu/objjc/compiler/diag"
)

// ---------------------------------------------------------------------------
// Objective-J statements and literals
// ---------------------------------------------------------------------------

func (g *generator) importStatement(n *ast.ImportStatement) {
	g.emitAt("objj_executeFile(", n)
	g.emit(jsQuote(n.Filename))
	g.emit(",")
	g.format("ImportStatement", "afterComma")
	if n.IsLocal {
		g.emit("YES);")
	} else {
		g.emit("NO);")
	}
}

// classStatement handles a forward declaration. The class becomes known
// to type checks; an existing definition is left alone.
func (g *generator) classStatement(n *ast.ClassStatement) {
	g.emitAt("// @class "+n.ID.Name, n)
	if g.reg.LookupClass(n.ID.Name) == nil {
		def := NewClassDef(n.ID.Name, nil)
		def.File, def.Span = g.opts.File, n.ID.Span()
		if _, err := g.reg.RegisterClass(def); err != nil {
			g.error(diag.KindDuplicateClass, n, "%v", err)
		}
	}
}

func (g *generator) globalStatement(n *ast.GlobalStatement) {
	g.emitAt("// @global "+n.ID.Name, n)
	g.scope.Declare(n.ID.Name, &Binding{Kind: BindGlobal, Node: n})
}

func (g *generator) typeDefStatement(n *ast.TypeDefStatement) {
	name := n.ID.Name
	g.reg.RegisterTypeDef(&TypeDef{Name: name})
	g.emitAt("{var the_typedef = objj_allocateTypeDef(", n)
	g.emit(jsQuote(name) + ");")
	g.newline("TypeDefStatement")
	g.emit("objj_registerTypeDef(the_typedef);")
	g.newline("TypeDefStatement")
	g.emit("}")
}

func (g *generator) protocolLiteral(n *ast.ProtocolLiteralExpression) {
	name := n.ID.Name
	if g.reg.LookupProtocol(name) == nil {
		g.error(diag.KindUnknownProtocol, n.ID, "cannot find protocol declaration for '%s'", name)
	}
	g.emitAt("objj_getProtocol(", n)
	g.emit(jsQuote(name) + ")")
}

// arrayLiteral generates @[...] as [CPArray arrayWithObjects:[...] count:N].
func (g *generator) arrayLiteral(n *ast.ArrayLiteral) {
	list := &ast.ArrayExpression{NodeBase: n.NodeBase, Elements: n.Elements}
	count := &ast.Literal{NodeBase: n.NodeBase, Value: float64(len(n.Elements))}
	g.messageSend(synthesizedSend(n, "CPArray", []string{"arrayWithObjects", "count"}, list, count))
}

// dictionaryLiteral generates @{...} as
// [CPDictionary dictionaryWithObjects:[values] forKeys:[keys]].
func (g *generator) dictionaryLiteral(n *ast.DictionaryLiteral) {
	values := &ast.ArrayExpression{NodeBase: n.NodeBase, Elements: n.Values}
	keys := &ast.ArrayExpression{NodeBase: n.NodeBase, Elements: n.Keys}
	g.messageSend(synthesizedSend(n, "CPDictionary", []string{"dictionaryWithObjects", "forKeys"}, values, keys))
}

// synthesizedSend builds a class-receiver send located at at.
func synthesizedSend(at ast.Node, class string, keywords []string, args ...ast.Expr) *ast.MessageSendExpression {
	base := ast.NodeBase{Loc: at.Span()}
	send := &ast.MessageSendExpression{
		NodeBase:  base,
		Object:    &ast.Identifier{NodeBase: base, Name: class},
		Arguments: args,
	}
	for _, k := range keywords {
		send.Selectors = append(send.Selectors, &ast.Identifier{NodeBase: base, Name: k})
	}
	return send
}

// ---------------------------------------------------------------------------
// @ref / @deref
// ---------------------------------------------------------------------------

// reference generates @ref(x) as an accessor function over x.
func (g *generator) reference(n *ast.Reference) {
	g.emitAt("function(__input) { if (arguments.length) return ", n)
	g.walk(n.Element, "")
	g.emit(" = __input; return ")
	g.walk(n.Element, "")
	g.emit("; }")
}

// checkDeref aborts when the dereferenced expression could have side
// effects; dereference forms evaluate it more than once.
func (g *generator) checkDeref(n *ast.Dereference) {
	if !idempotent(n.Expr) {
		g.fatal(diag.KindDereference, n, "dereference expressions may not have side effects")
	}
}

func (g *generator) derefTarget(n *ast.Dereference) {
	g.operand(n, n.Expr, precCall)
}

func (g *generator) dereference(n *ast.Dereference) {
	g.checkDeref(n)
	g.derefTarget(n)
	g.emit("()")
}

// derefAssign generates @deref(r) = v as r(v) and @deref(r) op= v as
// r(r() op v).
func (g *generator) derefAssign(a *ast.AssignmentExpression, d *ast.Dereference) {
	g.checkDeref(d)
	g.derefTarget(d)
	g.emit("(")
	if a.Operator == "=" {
		g.operand(a, a.Right, precAssign)
		g.emit(")")
		return
	}
	op := strings.TrimSuffix(a.Operator, "=")
	g.derefTarget(d)
	g.emit("()")
	g.operatorToken("BinaryExpression", op, a)
	g.operand(a, a.Right, binaryPrecedence[op]+1)
	g.emit(")")
}

// derefUpdate generates ++@deref(r) as r(r() + 1); the postfix form
// yields the old value: (r(r() + 1) - 1).
func (g *generator) derefUpdate(u *ast.UpdateExpression, d *ast.Dereference) {
	g.checkDeref(d)
	op, inverse := "+", "-"
	if u.Operator == "--" {
		op, inverse = "-", "+"
	}
	if !u.Prefix {
		g.emit("(")
	}
	g.derefTarget(d)
	g.emit("(")
	g.derefTarget(d)
	g.emit("()")
	g.operatorToken("BinaryExpression", op, u)
	g.emit("1)")
	if !u.Prefix {
		g.operatorToken("BinaryExpression", inverse, u)
		g.emit("1)")
	}
}

package compiler

import (
	"math"

	"github.com/chazu/objjc/ast"
)

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// operand generates child, parenthesized when it binds looser than min.
func (g *generator) operand(parent, child ast.Node, min int) {
	if child == nil {
		return
	}
	if precedence(child) < min {
		g.emit("(")
		g.walk(child, "")
		g.emit(")")
		return
	}
	g.walk(child, "")
}

// binaryOperand generates one side of a binary operator.
func (g *generator) binaryOperand(parent, child ast.Node, isRight bool) {
	if needsParens(parent, child, isRight) {
		g.emit("(")
		g.walk(child, "")
		g.emit(")")
		return
	}
	g.walk(child, "")
}

// implicitSelf reports whether id, used as a value inside an instance
// method, names an instance variable not hidden by a local.
func (g *generator) implicitSelf(id *ast.Identifier) bool {
	if id.Name == "self" || g.scope.CurrentMethodType() != "-" {
		return false
	}
	if g.scope.Lookup(id.Name, true) != nil {
		return false
	}
	return g.scope.IvarForCurrentClass(id.Name) != nil
}

func (g *generator) identifier(n *ast.Identifier) {
	if g.implicitSelf(n) {
		mark := g.buf.AppendMarked("self.", n)
		g.scope.RecordSelfRewrite(n.Name, n, mark)
	}
	g.emitAt(n.Name, n)
}

func (g *generator) literal(n *ast.Literal) {
	if n.Regex != nil {
		g.emitAt("/"+n.Regex.Pattern+"/"+n.Regex.Flags, n)
		return
	}
	switch v := n.Value.(type) {
	case nil:
		g.emitAt("null", n)
	case bool:
		if v {
			g.emitAt("true", n)
		} else {
			g.emitAt("false", n)
		}
	case string:
		if n.Raw != "" {
			g.emitAt(n.Raw, n)
		} else {
			g.emitAt(jsQuote(v), n)
		}
	case float64:
		if n.Raw != "" {
			g.emitAt(n.Raw, n)
		} else if v < 0 || (v == 0 && math.Signbit(v)) {
			g.emitAt("("+jsNumber(v)+")", n)
		} else {
			g.emitAt(jsNumber(v), n)
		}
	default:
		g.emitAt(n.Raw, n)
	}
}

func (g *generator) arrayExpression(n *ast.ArrayExpression) {
	g.emitAt("[", n)
	g.elements("ArrayExpression", n, n.Elements)
	g.emit("]")
}

// elements generates a comma-separated expression list; nil entries are
// holes.
func (g *generator) elements(typ string, parent ast.Node, list []ast.Expr) {
	for i, el := range list {
		if i > 0 {
			g.separator(typ)
		}
		if el == nil {
			continue
		}
		g.operand(parent, el, precAssign)
	}
	if len(list) > 0 && list[len(list)-1] == nil {
		g.emit(",")
	}
}

func (g *generator) objectExpression(n *ast.ObjectExpression) {
	g.emitAt("{", n)
	for i, p := range n.Properties {
		if i > 0 {
			g.separator("ObjectExpression")
		}
		g.walk(p, "")
	}
	g.emit("}")
}

// propertyKey generates the key of an object member.
func (g *generator) propertyKey(n *ast.Property) {
	if n.Computed {
		g.emit("[")
		g.operand(n, n.Key, precAssign)
		g.emit("]")
		return
	}
	switch k := n.Key.(type) {
	case *ast.Identifier:
		g.emitAt(k.Name, k)
	default:
		g.walk(k, "")
	}
}

func (g *generator) property(n *ast.Property) {
	if fn, ok := n.Value.(*ast.FunctionExpression); ok && (n.Kind == "get" || n.Kind == "set" || n.Method) {
		switch {
		case n.Kind == "get" || n.Kind == "set":
			g.emitAt(n.Kind+" ", n)
		case fn.Async:
			g.emitAt("async ", n)
		}
		if fn.Generator {
			g.emit("*")
		}
		g.propertyKey(n)
		g.functionRest(&fn.Function, fn)
		return
	}
	if n.Shorthand {
		id, isIdent := n.Value.(*ast.Identifier)
		if !isIdent || !g.implicitSelf(id) {
			// Shorthand patterns with defaults land here as well.
			g.walk(n.Value, "")
			return
		}
	}
	g.propertyKey(n)
	g.emit(":")
	g.format("Property", "afterColon")
	g.operand(n, n.Value, precAssign)
}

func isWordOperator(op string) bool {
	switch op {
	case "typeof", "void", "delete", "in", "instanceof":
		return true
	}
	return false
}

func (g *generator) unaryExpression(n *ast.UnaryExpression) {
	g.emitAt(n.Operator, n)
	if isWordOperator(n.Operator) || clashes(n.Operator, n.Argument) {
		g.emit(" ")
	}
	g.operand(n, n.Argument, precUnary)
}

// clashes reports whether writing op directly before arg would fuse two
// operators into one token ("- -x" into "--x").
func clashes(op string, arg ast.Node) bool {
	var next string
	switch a := arg.(type) {
	case *ast.UnaryExpression:
		next = a.Operator
	case *ast.UpdateExpression:
		if a.Prefix {
			next = a.Operator
		}
	}
	return next != "" && (op == "-" || op == "+") && next[0] == op[0]
}

func (g *generator) updateExpression(n *ast.UpdateExpression) {
	if d, ok := n.Argument.(*ast.Dereference); ok {
		g.derefUpdate(n, d)
		return
	}
	if n.Prefix {
		g.emitAt(n.Operator, n)
		g.operand(n, n.Argument, precUnary)
		return
	}
	g.operand(n, n.Argument, precCall)
	g.emitAt(n.Operator, n)
}

func (g *generator) binaryExpression(n ast.Node, op string, left, right ast.Expr) {
	typ := n.Type()
	g.binaryOperand(n, left, false)
	g.operatorToken(typ, op, n)
	g.binaryOperand(n, right, true)
}

// operatorToken emits op surrounded by the node type's operator spacing.
// Word operators always get a separating space.
func (g *generator) operatorToken(typ, op string, n ast.Node) {
	before := g.table.Value(g.scope, typ, "beforeOperator")
	after := g.table.Value(g.scope, typ, "afterOperator")
	if isWordOperator(op) {
		if before == "" {
			before = " "
		}
		if after == "" {
			after = " "
		}
	}
	if before != "" {
		g.buf.AppendFormatted(before)
	}
	g.emit(op)
	if after != "" {
		g.buf.AppendFormatted(after)
	}
}

func (g *generator) assignmentExpression(n *ast.AssignmentExpression) {
	switch left := n.Left.(type) {
	case *ast.Dereference:
		g.derefAssign(n, left)
		return
	case *ast.Identifier:
		if !g.implicitSelf(left) && left.Name != "self" {
			g.checkImplicitGlobal(left)
		}
	}
	g.walk(n.Left, "")
	g.operatorToken("AssignmentExpression", n.Operator, n)
	g.operand(n, n.Right, precAssign)
}

func (g *generator) conditionalExpression(n *ast.ConditionalExpression) {
	g.operand(n, n.Test, precNullish)
	g.operatorToken("ConditionalExpression", "?", n)
	g.operand(n, n.Consequent, precAssign)
	g.operatorToken("ConditionalExpression", ":", n)
	g.operand(n, n.Alternate, precAssign)
}

func (g *generator) callExpression(n *ast.CallExpression) {
	g.operand(n, n.Callee, precCall)
	if n.Optional {
		g.emit("?.")
	}
	g.arguments("CallExpression", n, n.Arguments)
}

// arguments generates a parenthesized argument list.
func (g *generator) arguments(typ string, parent ast.Node, args []ast.Expr) {
	g.emit("(")
	for i, a := range args {
		if i > 0 {
			g.separator(typ)
		}
		g.operand(parent, a, precAssign)
	}
	g.emit(")")
}

func (g *generator) newExpression(n *ast.NewExpression) {
	g.emitAt("new ", n)
	if containsCall(n.Callee) || precedence(n.Callee) < precNew {
		g.emit("(")
		g.walk(n.Callee, "")
		g.emit(")")
	} else {
		g.walk(n.Callee, "")
	}
	g.arguments("NewExpression", n, n.Arguments)
}

func (g *generator) memberExpression(n *ast.MemberExpression) {
	if lit, ok := n.Object.(*ast.Literal); ok {
		if _, isNum := lit.Value.(float64); isNum {
			g.emit("(")
			g.walk(lit, "")
			g.emit(")")
		} else {
			g.walk(lit, "")
		}
	} else {
		g.operand(n, n.Object, precCall)
	}
	if n.Computed {
		if n.Optional {
			g.emit("?.")
		}
		g.emit("[")
		g.walk(n.Property, "")
		g.emit("]")
		return
	}
	if n.Optional {
		g.emit("?.")
	} else {
		g.emit(".")
	}
	if id, ok := n.Property.(*ast.Identifier); ok {
		g.emitAt(id.Name, id)
		return
	}
	g.walk(n.Property, "")
}

func (g *generator) sequenceExpression(n *ast.SequenceExpression) {
	for i, e := range n.Expressions {
		if i > 0 {
			g.separator("SequenceExpression")
		}
		g.operand(n, e, precAssign)
	}
}

func (g *generator) templateLiteral(n *ast.TemplateLiteral) {
	g.emitAt("`", n)
	for i, q := range n.Quasis {
		g.walk(q, "")
		if i < len(n.Expressions) {
			g.emit("${")
			g.walk(n.Expressions[i], "")
			g.emit("}")
		}
	}
	g.emit("`")
}

func (g *generator) yieldExpression(n *ast.YieldExpression) {
	g.emitAt("yield", n)
	if n.Delegate {
		g.emit("*")
	}
	if n.Argument != nil {
		g.emit(" ")
		g.operand(n, n.Argument, precYield)
	}
}

// ---------------------------------------------------------------------------
// Patterns
// ---------------------------------------------------------------------------

func (g *generator) arrayPattern(n *ast.ArrayPattern) {
	g.emitAt("[", n)
	for i, el := range n.Elements {
		if i > 0 {
			g.separator("ArrayPattern")
		}
		if el != nil {
			g.walk(el, "")
		}
	}
	if len(n.Elements) > 0 && n.Elements[len(n.Elements)-1] == nil {
		g.emit(",")
	}
	g.emit("]")
}

func (g *generator) objectPattern(n *ast.ObjectPattern) {
	g.emitAt("{", n)
	for i, p := range n.Properties {
		if i > 0 {
			g.separator("ObjectPattern")
		}
		g.walk(p, "")
	}
	g.emit("}")
}

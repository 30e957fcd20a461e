package compiler

import "github.com/chazu/objjc/ast"

// ---------------------------------------------------------------------------
// Functions
// ---------------------------------------------------------------------------

func (g *generator) functionDeclaration(n *ast.FunctionDeclaration) {
	if n.ID != nil {
		g.checkBindingName(n.ID, false)
		g.scope.Declare(n.ID.Name, &Binding{Kind: BindFunction, Node: n})
	}
	if n.ID != nil && g.opts.TransformNamedFunctionDeclarationToAssignment {
		g.emitAt(n.ID.Name, n.ID)
		g.emit(" = ")
		g.functionHead(&n.Function, n, false)
		g.functionRest(&n.Function, n)
		g.emit(";")
		return
	}
	g.functionHead(&n.Function, n, true)
	g.functionRest(&n.Function, n)
}

func (g *generator) functionExpression(n *ast.FunctionExpression) {
	g.functionHead(&n.Function, n, true)
	g.functionRest(&n.Function, n)
}

// functionHead emits "async function* name" up to the parameter list.
func (g *generator) functionHead(fn *ast.Function, n ast.Node, named bool) {
	if fn.Async {
		g.emitAt("async ", n)
	}
	g.emitAt("function", n)
	if fn.Generator {
		g.emit("*")
	}
	if named && fn.ID != nil {
		g.emit(" ")
		g.emitAt(fn.ID.Name, fn.ID)
	}
}

// functionRest emits the parameter list and body of fn inside a new
// function frame.
func (g *generator) functionRest(fn *ast.Function, n ast.Node) {
	g.scope = g.scope.push(FunctionFrame)
	defer func() { g.scope = g.scope.close() }()

	// A named function expression can refer to itself.
	if _, isExpr := n.(*ast.FunctionExpression); isExpr && fn.ID != nil {
		g.scope.Declare(fn.ID.Name, &Binding{Kind: BindFunction, Node: n})
	}
	g.params(fn.Params)
	if fn.Body != nil {
		g.hoist(fn.Body.Body)
		g.walk(fn.Body, typeFunctionBody)
	}
}

// params declares and emits a parenthesized parameter list.
func (g *generator) params(params []ast.Pattern) {
	for _, p := range params {
		g.declarePattern(p, BindArgument, true)
	}
	g.emit("(")
	for i, p := range params {
		if i > 0 {
			g.separator("FunctionExpression")
		}
		g.walk(p, "")
	}
	g.emit(")")
}

// arrowFunction generates an arrow function. An expression body has no
// statement to declare receiver temporaries in, so it opens a block frame
// and its sends borrow the temporaries of the enclosing function.
func (g *generator) arrowFunction(n *ast.ArrowFunctionExpression) {
	if n.Async {
		g.emitAt("async ", n)
	}
	kind := FunctionFrame
	if n.Body == nil {
		kind = BlockFrame
	}
	g.scope = g.scope.push(kind)
	defer func() { g.scope = g.scope.close() }()
	g.params(n.Params)
	g.emit(" =>")
	if n.Body != nil {
		g.hoist(n.Body.Body)
		g.walk(n.Body, typeFunctionBody)
		return
	}
	g.emit(" ")
	if _, isObject := n.ExprBody.(*ast.ObjectExpression); isObject {
		g.emit("(")
		g.walk(n.ExprBody, "")
		g.emit(")")
		return
	}
	g.operand(n, n.ExprBody, precAssign)
}

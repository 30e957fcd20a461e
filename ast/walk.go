package ast

// children collects the non-nil child nodes of a node in source order.
type children []Node

func (c *children) node(n Node) {
	if n != nil {
		*c = append(*c, n)
	}
}

func (c *children) ident(id *Identifier) {
	if id != nil {
		*c = append(*c, id)
	}
}

func (c *children) block(b *BlockStatement) {
	if b != nil {
		*c = append(*c, b)
	}
}

func (c *children) objjType(t *ObjectiveJType) {
	if t != nil {
		*c = append(*c, t)
	}
}

func (c *children) exprs(list []Expr) {
	for _, e := range list {
		if e != nil {
			*c = append(*c, e)
		}
	}
}

func (c *children) stmts(list []Stmt) {
	for _, s := range list {
		if s != nil {
			*c = append(*c, s)
		}
	}
}

func (c *children) patterns(list []Pattern) {
	for _, p := range list {
		if p != nil {
			*c = append(*c, p)
		}
	}
}

func (c *children) function(f *Function) {
	c.ident(f.ID)
	c.patterns(f.Params)
	c.block(f.Body)
	if f.ExprBody != nil {
		c.node(f.ExprBody)
	}
}

// Children returns the direct children of n in source order.
func Children(n Node) []Node {
	var c children
	switch n := n.(type) {
	case *Program:
		c.stmts(n.Body)
	case *ExpressionStatement:
		c.node(n.Expression)
	case *BlockStatement:
		c.stmts(n.Body)
	case *WithStatement:
		c.node(n.Object)
		c.node(n.Body)
	case *ReturnStatement:
		c.node(n.Argument)
	case *LabeledStatement:
		c.ident(n.Label)
		c.node(n.Body)
	case *BreakStatement:
		c.ident(n.Label)
	case *ContinueStatement:
		c.ident(n.Label)
	case *IfStatement:
		c.node(n.Test)
		c.node(n.Consequent)
		c.node(n.Alternate)
	case *SwitchStatement:
		c.node(n.Discriminant)
		for _, sc := range n.Cases {
			if sc != nil {
				c = append(c, sc)
			}
		}
	case *SwitchCase:
		c.node(n.Test)
		c.stmts(n.Consequent)
	case *ThrowStatement:
		c.node(n.Argument)
	case *TryStatement:
		c.block(n.Block)
		if n.Handler != nil {
			c = append(c, n.Handler)
		}
		c.block(n.Finalizer)
	case *CatchClause:
		c.node(n.Param)
		c.block(n.Body)
	case *WhileStatement:
		c.node(n.Test)
		c.node(n.Body)
	case *DoWhileStatement:
		c.node(n.Body)
		c.node(n.Test)
	case *ForStatement:
		c.node(n.Init)
		c.node(n.Test)
		c.node(n.Update)
		c.node(n.Body)
	case *ForInStatement:
		c.node(n.Left)
		c.node(n.Right)
		c.node(n.Body)
	case *ForOfStatement:
		c.node(n.Left)
		c.node(n.Right)
		c.node(n.Body)
	case *FunctionDeclaration:
		c.function(&n.Function)
	case *VariableDeclaration:
		for _, d := range n.Declarations {
			if d != nil {
				c = append(c, d)
			}
		}
	case *VariableDeclarator:
		c.node(n.ID)
		c.node(n.Init)
	case *ArrayExpression:
		c.exprs(n.Elements)
	case *ObjectExpression:
		for _, p := range n.Properties {
			c.node(p)
		}
	case *Property:
		c.node(n.Key)
		c.node(n.Value)
	case *FunctionExpression:
		c.function(&n.Function)
	case *ArrowFunctionExpression:
		c.function(&n.Function)
	case *UnaryExpression:
		c.node(n.Argument)
	case *UpdateExpression:
		c.node(n.Argument)
	case *BinaryExpression:
		c.node(n.Left)
		c.node(n.Right)
	case *LogicalExpression:
		c.node(n.Left)
		c.node(n.Right)
	case *AssignmentExpression:
		c.node(n.Left)
		c.node(n.Right)
	case *ConditionalExpression:
		c.node(n.Test)
		c.node(n.Consequent)
		c.node(n.Alternate)
	case *CallExpression:
		c.node(n.Callee)
		c.exprs(n.Arguments)
	case *NewExpression:
		c.node(n.Callee)
		c.exprs(n.Arguments)
	case *MemberExpression:
		c.node(n.Object)
		c.node(n.Property)
	case *SequenceExpression:
		c.exprs(n.Expressions)
	case *SpreadElement:
		c.node(n.Argument)
	case *TemplateLiteral:
		// Quasis and expressions interleave in source order.
		for i, q := range n.Quasis {
			if q != nil {
				c = append(c, q)
			}
			if i < len(n.Expressions) {
				c.node(n.Expressions[i])
			}
		}
	case *TaggedTemplateExpression:
		c.node(n.Tag)
		if n.Quasi != nil {
			c = append(c, n.Quasi)
		}
	case *ChainExpression:
		c.node(n.Expression)
	case *AwaitExpression:
		c.node(n.Argument)
	case *YieldExpression:
		c.node(n.Argument)
	case *ArrayPattern:
		c.patterns(n.Elements)
	case *ObjectPattern:
		for _, p := range n.Properties {
			c.node(p)
		}
	case *RestElement:
		c.node(n.Argument)
	case *AssignmentPattern:
		c.node(n.Left)
		c.node(n.Right)

	case *ClassStatement:
		c.ident(n.ID)
	case *GlobalStatement:
		c.ident(n.ID)
	case *TypeDefStatement:
		c.ident(n.ID)
	case *ClassDeclarationStatement:
		c.ident(n.ClassName)
		c.ident(n.SuperclassName)
		c.ident(n.CategoryName)
		for _, p := range n.Protocols {
			c.ident(p)
		}
		for _, iv := range n.Ivars {
			if iv != nil {
				c = append(c, iv)
			}
		}
		c.stmts(n.Body)
	case *IvarDeclaration:
		c.objjType(n.IvarType)
		c.ident(n.ID)
	case *MethodDeclarationStatement:
		c.objjType(n.ReturnType)
		for _, a := range n.Arguments {
			if a != nil {
				c = append(c, a)
			}
		}
		c.block(n.Body)
	case *MethodArgument:
		c.objjType(n.ArgType)
		c.ident(n.ID)
	case *ProtocolDeclarationStatement:
		c.ident(n.ID)
		for _, p := range n.Protocols {
			c.ident(p)
		}
		for _, m := range n.Required {
			if m != nil {
				c = append(c, m)
			}
		}
		for _, m := range n.Optional {
			if m != nil {
				c = append(c, m)
			}
		}
	case *MessageSendExpression:
		c.node(n.Object)
		c.exprs(n.Arguments)
		c.exprs(n.Parameters)
	case *ProtocolLiteralExpression:
		c.ident(n.ID)
	case *Reference:
		c.ident(n.Element)
	case *Dereference:
		c.node(n.Expr)
	case *ArrayLiteral:
		c.exprs(n.Elements)
	case *DictionaryLiteral:
		for i := range n.Keys {
			c.node(n.Keys[i])
			if i < len(n.Values) {
				c.node(n.Values[i])
			}
		}
	}
	return c
}

// Inspect traverses the tree rooted at n in depth-first order. If fn returns
// false the children of the current node are skipped.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range Children(n) {
		Inspect(child, fn)
	}
}

// ContainsObjJ reports whether n or any node below it is an Objective-J
// extension node.
func ContainsObjJ(n Node) bool {
	found := false
	Inspect(n, func(n Node) bool {
		if found {
			return false
		}
		if IsObjJ(n) {
			found = true
			return false
		}
		return true
	})
	return found
}

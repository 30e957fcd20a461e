package ast

import "strings"

// Constructors for building trees programmatically. Nodes built this way
// carry no location.

func Ident(name string) *Identifier { return &Identifier{Name: name} }

func Num(v float64) *Literal { return &Literal{Value: v} }

func Str(s string) *Literal { return &Literal{Value: s} }

func Bool(v bool) *Literal { return &Literal{Value: v} }

func Null() *Literal { return &Literal{} }

func This() *ThisExpression { return &ThisExpression{} }

func ExprStmt(e Expr) *ExpressionStatement { return &ExpressionStatement{Expression: e} }

func Block(body ...Stmt) *BlockStatement { return &BlockStatement{Body: body} }

func Return(e Expr) *ReturnStatement { return &ReturnStatement{Argument: e} }

func Prog(body ...Stmt) *Program { return &Program{Body: body} }

// Var declares a single variable; init may be nil.
func Var(kind, name string, init Expr) *VariableDeclaration {
	return &VariableDeclaration{
		Kind:         kind,
		Declarations: []*VariableDeclarator{{ID: Ident(name), Init: init}},
	}
}

func Assign(op string, left Pattern, right Expr) *AssignmentExpression {
	return &AssignmentExpression{Operator: op, Left: left, Right: right}
}

func Binary(op string, left, right Expr) *BinaryExpression {
	return &BinaryExpression{Operator: op, Left: left, Right: right}
}

func Call(callee Expr, args ...Expr) *CallExpression {
	return &CallExpression{Callee: callee, Arguments: args}
}

func Member(object Expr, name string) *MemberExpression {
	return &MemberExpression{Object: object, Property: Ident(name)}
}

func Func(name string, params []string, body ...Stmt) *FunctionDeclaration {
	f := &FunctionDeclaration{Function: Function{Params: identPatterns(params), Body: Block(body...)}}
	if name != "" {
		f.ID = Ident(name)
	}
	return f
}

func FuncExpr(params []string, body ...Stmt) *FunctionExpression {
	return &FunctionExpression{Function: Function{Params: identPatterns(params), Body: Block(body...)}}
}

func identPatterns(names []string) []Pattern {
	out := make([]Pattern, len(names))
	for i, n := range names {
		out[i] = Ident(n)
	}
	return out
}

// Type returns an Objective-J type node, or nil for the empty name.
func Type(name string) *ObjectiveJType {
	if name == "" {
		return nil
	}
	return &ObjectiveJType{Name: name}
}

// Send builds [recv sel:args...]. The selector is split on ':'; a selector
// without colons is unary and takes no arguments.
func Send(recv Expr, selector string, args ...Expr) *MessageSendExpression {
	return &MessageSendExpression{Object: recv, Selectors: selectorParts(selector), Arguments: args}
}

// SuperSend builds [super sel:args...].
func SuperSend(selector string, args ...Expr) *MessageSendExpression {
	return &MessageSendExpression{SuperObject: true, Selectors: selectorParts(selector), Arguments: args}
}

func selectorParts(selector string) []*Identifier {
	if !strings.Contains(selector, ":") {
		return []*Identifier{Ident(selector)}
	}
	parts := strings.Split(strings.TrimSuffix(selector, ":"), ":")
	out := make([]*Identifier, len(parts))
	for i, p := range parts {
		out[i] = Ident(p)
	}
	return out
}

// Arg is a typed method argument.
func Arg(typ, name string) *MethodArgument {
	return &MethodArgument{ArgType: Type(typ), ID: Ident(name)}
}

// Method builds a method declaration. methodType is "-" or "+"; body nil
// produces a bodyless declaration as found in protocols.
func Method(methodType, returnType, selector string, args []*MethodArgument, body *BlockStatement) *MethodDeclarationStatement {
	return &MethodDeclarationStatement{
		MethodType: methodType,
		ReturnType: Type(returnType),
		Selectors:  selectorParts(selector),
		Arguments:  args,
		Body:       body,
	}
}

// Ivar declares an instance variable of the given type.
func Ivar(typ, name string) *IvarDeclaration {
	return &IvarDeclaration{IvarType: Type(typ), ID: Ident(name)}
}

// WithAccessors attaches an @accessors clause to the ivar and returns it.
func (iv *IvarDeclaration) WithAccessors(a Accessors) *IvarDeclaration {
	iv.Accessors = &a
	return iv
}

// Class builds an @implementation. superclass may be empty for a root class.
func Class(name, superclass string, ivars []*IvarDeclaration, body ...Stmt) *ClassDeclarationStatement {
	c := &ClassDeclarationStatement{ClassName: Ident(name), Ivars: ivars, Body: body}
	if superclass != "" {
		c.SuperclassName = Ident(superclass)
	}
	return c
}

// Category builds @implementation Name (Category).
func Category(name, category string, body ...Stmt) *ClassDeclarationStatement {
	return &ClassDeclarationStatement{ClassName: Ident(name), CategoryName: Ident(category), Body: body}
}

// Conforming sets the adopted protocol list and returns c.
func (c *ClassDeclarationStatement) Conforming(protocols ...string) *ClassDeclarationStatement {
	for _, p := range protocols {
		c.Protocols = append(c.Protocols, Ident(p))
	}
	return c
}

// Protocol builds an @protocol declaration with required methods.
func Protocol(name string, incorporated []string, required ...*MethodDeclarationStatement) *ProtocolDeclarationStatement {
	p := &ProtocolDeclarationStatement{ID: Ident(name), Required: required}
	for _, inc := range incorporated {
		p.Protocols = append(p.Protocols, Ident(inc))
	}
	return p
}

func Ref(name string) *Reference { return &Reference{Element: Ident(name)} }

func Deref(e Expr) *Dereference { return &Dereference{Expr: e} }

// Package ast defines the Objective-J syntax tree handed to the compiler by
// the external parser. The parser emits ESTree-style JSON (see Parse); every
// node carries its byte offsets and line/column location.
package ast

import "fmt"

// ---------------------------------------------------------------------------
// Positions
// ---------------------------------------------------------------------------

// Position is a location in the original source text.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 0-based column, as produced by ESTree parsers
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column+1)
}

// Span is a range in the original source text.
type Span struct {
	Start Position
	End   Position
}

// IsZero reports whether the span carries no location information.
func (s Span) IsZero() bool {
	return s.Start.Line == 0 && s.End.Line == 0 && s.Start.Offset == 0 && s.End.Offset == 0
}

// ---------------------------------------------------------------------------
// Node interfaces
// ---------------------------------------------------------------------------

// Node is the interface implemented by all AST nodes.
type Node interface {
	Span() Span
	// Type returns the ESTree node type name, e.g. "BinaryExpression".
	Type() string
}

// Stmt is implemented by statement nodes.
type Stmt interface {
	Node
	stmt()
}

// Expr is implemented by expression nodes.
type Expr interface {
	Node
	expr()
}

// Pattern is implemented by nodes that may appear as a binding or
// assignment target.
type Pattern interface {
	Node
	pattern()
}

// NodeBase carries the location shared by every node.
type NodeBase struct {
	Loc Span
}

func (b *NodeBase) Span() Span { return b.Loc }

// ---------------------------------------------------------------------------
// Program and statements
// ---------------------------------------------------------------------------

// Program is the root of one compilation unit.
type Program struct {
	NodeBase
	Body []Stmt
}

func (*Program) Type() string { return "Program" }

// ExpressionStatement is an expression evaluated for its side effects.
type ExpressionStatement struct {
	NodeBase
	Expression Expr
	Directive  string // "use strict" and friends
}

// BlockStatement is a braced statement list.
type BlockStatement struct {
	NodeBase
	Body []Stmt
}

type EmptyStatement struct{ NodeBase }

type DebuggerStatement struct{ NodeBase }

type WithStatement struct {
	NodeBase
	Object Expr
	Body   Stmt
}

type ReturnStatement struct {
	NodeBase
	Argument Expr // may be nil
}

type LabeledStatement struct {
	NodeBase
	Label *Identifier
	Body  Stmt
}

type BreakStatement struct {
	NodeBase
	Label *Identifier // may be nil
}

type ContinueStatement struct {
	NodeBase
	Label *Identifier // may be nil
}

type IfStatement struct {
	NodeBase
	Test       Expr
	Consequent Stmt
	Alternate  Stmt // may be nil
}

type SwitchStatement struct {
	NodeBase
	Discriminant Expr
	Cases        []*SwitchCase
}

// SwitchCase is one case clause; Test is nil for the default clause.
type SwitchCase struct {
	NodeBase
	Test       Expr
	Consequent []Stmt
}

type ThrowStatement struct {
	NodeBase
	Argument Expr
}

type TryStatement struct {
	NodeBase
	Block     *BlockStatement
	Handler   *CatchClause    // may be nil
	Finalizer *BlockStatement // may be nil
}

type CatchClause struct {
	NodeBase
	Param Pattern // may be nil (optional catch binding)
	Body  *BlockStatement
}

type WhileStatement struct {
	NodeBase
	Test Expr
	Body Stmt
}

type DoWhileStatement struct {
	NodeBase
	Body Stmt
	Test Expr
}

// ForStatement is a C-style for loop. Init is a *VariableDeclaration, an
// Expr or nil.
type ForStatement struct {
	NodeBase
	Init   Node
	Test   Expr
	Update Expr
	Body   Stmt
}

// ForInStatement is for (left in right). Left is a *VariableDeclaration or
// a Pattern.
type ForInStatement struct {
	NodeBase
	Left  Node
	Right Expr
	Body  Stmt
}

type ForOfStatement struct {
	NodeBase
	Left  Node
	Right Expr
	Body  Stmt
	Await bool
}

// Function holds the parts shared by function declarations, function
// expressions and arrow functions.
type Function struct {
	ID        *Identifier // may be nil
	Params    []Pattern
	Body      *BlockStatement
	ExprBody  Expr // arrow functions with an expression body
	Generator bool
	Async     bool
}

type FunctionDeclaration struct {
	NodeBase
	Function
}

// VariableDeclaration is a var, let or const declaration.
type VariableDeclaration struct {
	NodeBase
	Kind         string
	Declarations []*VariableDeclarator
}

type VariableDeclarator struct {
	NodeBase
	ID   Pattern
	Init Expr // may be nil
}

func (*ExpressionStatement) Type() string { return "ExpressionStatement" }
func (*BlockStatement) Type() string      { return "BlockStatement" }
func (*EmptyStatement) Type() string      { return "EmptyStatement" }
func (*DebuggerStatement) Type() string   { return "DebuggerStatement" }
func (*WithStatement) Type() string       { return "WithStatement" }
func (*ReturnStatement) Type() string     { return "ReturnStatement" }
func (*LabeledStatement) Type() string    { return "LabeledStatement" }
func (*BreakStatement) Type() string      { return "BreakStatement" }
func (*ContinueStatement) Type() string   { return "ContinueStatement" }
func (*IfStatement) Type() string         { return "IfStatement" }
func (*SwitchStatement) Type() string     { return "SwitchStatement" }
func (*SwitchCase) Type() string          { return "SwitchCase" }
func (*ThrowStatement) Type() string      { return "ThrowStatement" }
func (*TryStatement) Type() string        { return "TryStatement" }
func (*CatchClause) Type() string         { return "CatchClause" }
func (*WhileStatement) Type() string      { return "WhileStatement" }
func (*DoWhileStatement) Type() string    { return "DoWhileStatement" }
func (*ForStatement) Type() string        { return "ForStatement" }
func (*ForInStatement) Type() string      { return "ForInStatement" }
func (*ForOfStatement) Type() string      { return "ForOfStatement" }
func (*FunctionDeclaration) Type() string { return "FunctionDeclaration" }
func (*VariableDeclaration) Type() string { return "VariableDeclaration" }
func (*VariableDeclarator) Type() string  { return "VariableDeclarator" }

func (*ExpressionStatement) stmt() {}
func (*BlockStatement) stmt()      {}
func (*EmptyStatement) stmt()      {}
func (*DebuggerStatement) stmt()   {}
func (*WithStatement) stmt()       {}
func (*ReturnStatement) stmt()     {}
func (*LabeledStatement) stmt()    {}
func (*BreakStatement) stmt()      {}
func (*ContinueStatement) stmt()   {}
func (*IfStatement) stmt()         {}
func (*SwitchStatement) stmt()     {}
func (*ThrowStatement) stmt()      {}
func (*TryStatement) stmt()        {}
func (*WhileStatement) stmt()      {}
func (*DoWhileStatement) stmt()    {}
func (*ForStatement) stmt()        {}
func (*ForInStatement) stmt()      {}
func (*ForOfStatement) stmt()      {}
func (*FunctionDeclaration) stmt() {}
func (*VariableDeclaration) stmt() {}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

type Identifier struct {
	NodeBase
	Name string
}

// Literal is a string, number, boolean, null or regular expression literal.
// Value holds string, float64, bool or nil; Raw is the source spelling when
// the parser provides it.
type Literal struct {
	NodeBase
	Value any
	Raw   string
	Regex *RegExp
}

// RegExp is the pattern/flags pair of a regular expression literal.
type RegExp struct {
	Pattern string
	Flags   string
}

type ThisExpression struct{ NodeBase }

// ArrayExpression is [a, b]; nil elements are holes.
type ArrayExpression struct {
	NodeBase
	Elements []Expr
}

type ObjectExpression struct {
	NodeBase
	Properties []Node // *Property or *SpreadElement
}

// Property is an object literal or object pattern member. Kind is "init",
// "get" or "set". In an ObjectPattern Value is a Pattern.
type Property struct {
	NodeBase
	Key       Expr
	Value     Node
	Kind      string
	Computed  bool
	Method    bool
	Shorthand bool
}

type FunctionExpression struct {
	NodeBase
	Function
}

type ArrowFunctionExpression struct {
	NodeBase
	Function
}

type UnaryExpression struct {
	NodeBase
	Operator string
	Prefix   bool
	Argument Expr
}

type UpdateExpression struct {
	NodeBase
	Operator string
	Prefix   bool
	Argument Expr
}

type BinaryExpression struct {
	NodeBase
	Operator string
	Left     Expr
	Right    Expr
}

type LogicalExpression struct {
	NodeBase
	Operator string
	Left     Expr
	Right    Expr
}

type AssignmentExpression struct {
	NodeBase
	Operator string
	Left     Pattern
	Right    Expr
}

type ConditionalExpression struct {
	NodeBase
	Test       Expr
	Consequent Expr
	Alternate  Expr
}

type CallExpression struct {
	NodeBase
	Callee    Expr
	Arguments []Expr
	Optional  bool
}

type NewExpression struct {
	NodeBase
	Callee    Expr
	Arguments []Expr
}

type MemberExpression struct {
	NodeBase
	Object   Expr
	Property Expr
	Computed bool
	Optional bool
}

type SequenceExpression struct {
	NodeBase
	Expressions []Expr
}

type SpreadElement struct {
	NodeBase
	Argument Expr
}

type TemplateLiteral struct {
	NodeBase
	Quasis      []*TemplateElement
	Expressions []Expr
}

type TemplateElement struct {
	NodeBase
	Raw    string
	Cooked string
	Tail   bool
}

type TaggedTemplateExpression struct {
	NodeBase
	Tag   Expr
	Quasi *TemplateLiteral
}

// ChainExpression wraps an optional chain a?.b.c.
type ChainExpression struct {
	NodeBase
	Expression Expr
}

type AwaitExpression struct {
	NodeBase
	Argument Expr
}

type YieldExpression struct {
	NodeBase
	Argument Expr // may be nil
	Delegate bool
}

// ---------------------------------------------------------------------------
// Patterns
// ---------------------------------------------------------------------------

type ArrayPattern struct {
	NodeBase
	Elements []Pattern // nil elements are holes
}

type ObjectPattern struct {
	NodeBase
	Properties []Node // *Property or *RestElement
}

type RestElement struct {
	NodeBase
	Argument Pattern
}

type AssignmentPattern struct {
	NodeBase
	Left  Pattern
	Right Expr
}

func (*Identifier) Type() string               { return "Identifier" }
func (*Literal) Type() string                  { return "Literal" }
func (*ThisExpression) Type() string           { return "ThisExpression" }
func (*ArrayExpression) Type() string          { return "ArrayExpression" }
func (*ObjectExpression) Type() string         { return "ObjectExpression" }
func (*Property) Type() string                 { return "Property" }
func (*FunctionExpression) Type() string       { return "FunctionExpression" }
func (*ArrowFunctionExpression) Type() string  { return "ArrowFunctionExpression" }
func (*UnaryExpression) Type() string          { return "UnaryExpression" }
func (*UpdateExpression) Type() string         { return "UpdateExpression" }
func (*BinaryExpression) Type() string         { return "BinaryExpression" }
func (*LogicalExpression) Type() string        { return "LogicalExpression" }
func (*AssignmentExpression) Type() string     { return "AssignmentExpression" }
func (*ConditionalExpression) Type() string    { return "ConditionalExpression" }
func (*CallExpression) Type() string           { return "CallExpression" }
func (*NewExpression) Type() string            { return "NewExpression" }
func (*MemberExpression) Type() string         { return "MemberExpression" }
func (*SequenceExpression) Type() string       { return "SequenceExpression" }
func (*SpreadElement) Type() string            { return "SpreadElement" }
func (*TemplateLiteral) Type() string          { return "TemplateLiteral" }
func (*TemplateElement) Type() string          { return "TemplateElement" }
func (*TaggedTemplateExpression) Type() string { return "TaggedTemplateExpression" }
func (*ChainExpression) Type() string          { return "ChainExpression" }
func (*AwaitExpression) Type() string          { return "AwaitExpression" }
func (*YieldExpression) Type() string          { return "YieldExpression" }
func (*ArrayPattern) Type() string             { return "ArrayPattern" }
func (*ObjectPattern) Type() string            { return "ObjectPattern" }
func (*RestElement) Type() string              { return "RestElement" }
func (*AssignmentPattern) Type() string        { return "AssignmentPattern" }

func (*Identifier) expr()               {}
func (*Literal) expr()                  {}
func (*ThisExpression) expr()           {}
func (*ArrayExpression) expr()          {}
func (*ObjectExpression) expr()         {}
func (*FunctionExpression) expr()       {}
func (*ArrowFunctionExpression) expr()  {}
func (*UnaryExpression) expr()          {}
func (*UpdateExpression) expr()         {}
func (*BinaryExpression) expr()         {}
func (*LogicalExpression) expr()        {}
func (*AssignmentExpression) expr()     {}
func (*ConditionalExpression) expr()    {}
func (*CallExpression) expr()           {}
func (*NewExpression) expr()            {}
func (*MemberExpression) expr()         {}
func (*SequenceExpression) expr()       {}
func (*SpreadElement) expr()            {}
func (*TemplateLiteral) expr()          {}
func (*TaggedTemplateExpression) expr() {}
func (*ChainExpression) expr()          {}
func (*AwaitExpression) expr()          {}
func (*YieldExpression) expr()          {}

func (*Identifier) pattern()        {}
func (*MemberExpression) pattern()  {}
func (*ArrayPattern) pattern()      {}
func (*ObjectPattern) pattern()     {}
func (*RestElement) pattern()       {}
func (*AssignmentPattern) pattern() {}

// IsString reports whether the literal is a string literal.
func (l *Literal) IsString() bool {
	_, ok := l.Value.(string)
	return ok && l.Regex == nil
}

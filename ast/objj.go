package ast

import "strings"

// ---------------------------------------------------------------------------
// Objective-J extensions
// ---------------------------------------------------------------------------

// ObjectiveJType is a declared type name in an ivar or method signature,
// e.g. "CPString", "id" or "id<CPCoding>".
type ObjectiveJType struct {
	NodeBase
	Name      string
	Protocols []string
}

// ImportStatement is @import <Foundation/Foundation.j> or @import "Local.j".
type ImportStatement struct {
	NodeBase
	Filename string
	IsLocal  bool
}

// ClassStatement is a forward declaration: @class Foo.
type ClassStatement struct {
	NodeBase
	ID *Identifier
}

// GlobalStatement declares a global variable: @global foo.
type GlobalStatement struct {
	NodeBase
	ID *Identifier
}

// TypeDefStatement is @typedef Name.
type TypeDefStatement struct {
	NodeBase
	ID *Identifier
}

// ClassDeclarationStatement is an @implementation block. A category has a
// CategoryName and no ivars; a class without superclass and category is a
// root class.
type ClassDeclarationStatement struct {
	NodeBase
	ClassName      *Identifier
	SuperclassName *Identifier // may be nil
	CategoryName   *Identifier // may be nil
	Protocols      []*Identifier
	Ivars          []*IvarDeclaration
	Body           []Stmt // method declarations and plain statements
}

// IsCategory reports whether the declaration extends an existing class.
func (c *ClassDeclarationStatement) IsCategory() bool {
	return c.CategoryName != nil
}

// IvarDeclaration declares one instance variable.
type IvarDeclaration struct {
	NodeBase
	IvarType  *ObjectiveJType
	ID        *Identifier
	Outlet    bool
	Accessors *Accessors // nil when no @accessors clause is present
}

// Accessors is the @accessors(...) clause of an ivar declaration.
type Accessors struct {
	Property *Identifier
	Getter   *Identifier
	Setter   *Identifier
	Readonly bool
	Copy     bool
}

// MethodDeclarationStatement declares (and, inside a class, defines) one
// method. For a unary method Selectors has one element and Arguments is
// empty; otherwise Selectors[i] is the keyword preceding Arguments[i]. A
// keyword may be anonymous (nil or empty name), as in "foo::".
type MethodDeclarationStatement struct {
	NodeBase
	MethodType string // "+" or "-"
	ReturnType *ObjectiveJType
	Action     bool
	Selectors  []*Identifier
	Arguments  []*MethodArgument
	Variadic   bool
	Body       *BlockStatement // nil in protocol declarations
}

// Selector returns the colon-delimited selector of the method.
func (m *MethodDeclarationStatement) Selector() string {
	return joinSelector(m.Selectors, len(m.Arguments))
}

// MethodArgument is one typed method parameter.
type MethodArgument struct {
	NodeBase
	ArgType *ObjectiveJType
	ID      *Identifier
}

// ProtocolDeclarationStatement is an @protocol block.
type ProtocolDeclarationStatement struct {
	NodeBase
	ID        *Identifier
	Protocols []*Identifier
	Required  []*MethodDeclarationStatement
	Optional  []*MethodDeclarationStatement
}

// MessageSendExpression is [receiver selector:arg ...]. SuperObject is set
// for sends to super, in which case Object is nil. Parameters holds the
// extra comma-separated arguments of a variadic send.
type MessageSendExpression struct {
	NodeBase
	Object      Expr
	SuperObject bool
	Selectors   []*Identifier
	Arguments   []Expr
	Parameters  []Expr
}

// Selector returns the colon-delimited selector of the send.
func (m *MessageSendExpression) Selector() string {
	return joinSelector(m.Selectors, len(m.Arguments))
}

// SelectorLiteralExpression is @selector(foo:bar:).
type SelectorLiteralExpression struct {
	NodeBase
	Selector string
}

// ProtocolLiteralExpression is @protocol(Name).
type ProtocolLiteralExpression struct {
	NodeBase
	ID *Identifier
}

// Reference is @ref(x).
type Reference struct {
	NodeBase
	Element *Identifier
}

// Dereference is @deref(expr). It may appear as an assignment or update
// target.
type Dereference struct {
	NodeBase
	Expr Expr
}

// ArrayLiteral is @[a, b].
type ArrayLiteral struct {
	NodeBase
	Elements []Expr
}

// DictionaryLiteral is @{k: v}. Keys and Values have equal length.
type DictionaryLiteral struct {
	NodeBase
	Keys   []Expr
	Values []Expr
}

func (*ObjectiveJType) Type() string               { return "ObjectiveJType" }
func (*ImportStatement) Type() string              { return "ImportStatement" }
func (*ClassStatement) Type() string               { return "ClassStatement" }
func (*GlobalStatement) Type() string              { return "GlobalStatement" }
func (*TypeDefStatement) Type() string             { return "TypeDefStatement" }
func (*ClassDeclarationStatement) Type() string    { return "ClassDeclarationStatement" }
func (*IvarDeclaration) Type() string              { return "IvarDeclaration" }
func (*MethodDeclarationStatement) Type() string   { return "MethodDeclarationStatement" }
func (*MethodArgument) Type() string               { return "MethodArgument" }
func (*ProtocolDeclarationStatement) Type() string { return "ProtocolDeclarationStatement" }
func (*MessageSendExpression) Type() string        { return "MessageSendExpression" }
func (*SelectorLiteralExpression) Type() string    { return "SelectorLiteralExpression" }
func (*ProtocolLiteralExpression) Type() string    { return "ProtocolLiteralExpression" }
func (*Reference) Type() string                    { return "Reference" }
func (*Dereference) Type() string                  { return "Dereference" }
func (*ArrayLiteral) Type() string                 { return "ArrayLiteral" }
func (*DictionaryLiteral) Type() string            { return "DictionaryLiteral" }

func (*ImportStatement) stmt()              {}
func (*ClassStatement) stmt()               {}
func (*GlobalStatement) stmt()              {}
func (*TypeDefStatement) stmt()             {}
func (*ClassDeclarationStatement) stmt()    {}
func (*MethodDeclarationStatement) stmt()   {}
func (*ProtocolDeclarationStatement) stmt() {}

func (*MessageSendExpression) expr()     {}
func (*SelectorLiteralExpression) expr() {}
func (*ProtocolLiteralExpression) expr() {}
func (*Reference) expr()                 {}
func (*Dereference) expr()               {}
func (*ArrayLiteral) expr()              {}
func (*DictionaryLiteral) expr()         {}

func (*Dereference) pattern() {}

func joinSelector(parts []*Identifier, nargs int) string {
	if nargs == 0 {
		if len(parts) == 0 || parts[0] == nil {
			return ""
		}
		return parts[0].Name
	}
	var b strings.Builder
	for i := 0; i < nargs; i++ {
		if i < len(parts) && parts[i] != nil {
			b.WriteString(parts[i].Name)
		}
		b.WriteByte(':')
	}
	return b.String()
}

// IsObjJ reports whether n is one of the Objective-J extension nodes.
func IsObjJ(n Node) bool {
	switch n.(type) {
	case *ImportStatement, *ClassStatement, *GlobalStatement, *TypeDefStatement,
		*ClassDeclarationStatement, *IvarDeclaration, *MethodDeclarationStatement,
		*ProtocolDeclarationStatement, *MessageSendExpression,
		*SelectorLiteralExpression, *ProtocolLiteralExpression, *Reference,
		*Dereference, *ArrayLiteral, *DictionaryLiteral:
		return true
	}
	return false
}

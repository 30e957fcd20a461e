package ast

import (
	"bytes"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// ---------------------------------------------------------------------------
// JSON decoding of the external parser's output.
//
// The parser emits ESTree objects ({"type": ..., "start": ..., "end": ...,
// "loc": {...}}) extended with the Objective-J node types of objj.go. Field
// names follow the parser: "classname", "superclassname", "ivardeclarations",
// "methodtype", "selectors", "superObject", ...
// ---------------------------------------------------------------------------

// Parse decodes a JSON syntax tree whose root is a Program.
func Parse(r io.Reader) (*Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ast: read: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes decodes a JSON syntax tree whose root is a Program.
func ParseBytes(data []byte) (*Program, error) {
	n, err := ParseNode(data)
	if err != nil {
		return nil, err
	}
	prog, ok := n.(*Program)
	if !ok {
		return nil, fmt.Errorf("ast: root node is %s, want Program", n.Type())
	}
	return prog, nil
}

// ParseNode decodes a single JSON node of any type.
func ParseNode(data []byte) (Node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("ast: empty input")
	}
	d := &decoder{}
	n := d.node(json.RawMessage(data))
	if d.err != nil {
		return nil, d.err
	}
	if n == nil {
		return nil, fmt.Errorf("ast: null root node")
	}
	return n, nil
}

type object map[string]json.RawMessage

// decoder keeps the first error; every helper is a no-op afterwards so the
// constructors can be written without error plumbing.
type decoder struct {
	err error
}

type constructor func(d *decoder, o object, base NodeBase) Node

var constructors map[string]constructor

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf("ast: "+format, args...)
	}
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func (d *decoder) object(raw json.RawMessage) object {
	if d.err != nil || isNull(raw) {
		return nil
	}
	var o object
	if err := json.Unmarshal(raw, &o); err != nil {
		d.fail("%v", err)
		return nil
	}
	return o
}

func (d *decoder) node(raw json.RawMessage) Node {
	o := d.object(raw)
	if o == nil {
		return nil
	}
	typ := d.str(o, "type")
	base := d.base(o)
	ctor, ok := constructors[typ]
	if !ok {
		d.fail("unsupported node type %q at offset %d", typ, base.Loc.Start.Offset)
		return nil
	}
	return ctor(d, o, base)
}

type rawLocation struct {
	Start struct {
		Line   int `json:"line"`
		Column int `json:"column"`
	} `json:"start"`
	End struct {
		Line   int `json:"line"`
		Column int `json:"column"`
	} `json:"end"`
}

func (d *decoder) base(o object) NodeBase {
	var b NodeBase
	b.Loc.Start.Offset = d.int(o, "start")
	b.Loc.End.Offset = d.int(o, "end")
	if raw, ok := o["loc"]; ok && !isNull(raw) {
		var loc rawLocation
		if err := json.Unmarshal(raw, &loc); err != nil {
			d.fail("bad loc: %v", err)
			return b
		}
		b.Loc.Start.Line, b.Loc.Start.Column = loc.Start.Line, loc.Start.Column
		b.Loc.End.Line, b.Loc.End.Column = loc.End.Line, loc.End.Column
	}
	return b
}

// ---------------------------------------------------------------------------
// Scalar fields
// ---------------------------------------------------------------------------

func (d *decoder) str(o object, key string) string {
	raw, ok := o[key]
	if !ok || isNull(raw) || d.err != nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		d.fail("field %q: %v", key, err)
	}
	return s
}

func (d *decoder) boolean(o object, key string) bool {
	raw, ok := o[key]
	if !ok || isNull(raw) || d.err != nil {
		return false
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		d.fail("field %q: %v", key, err)
	}
	return v
}

func (d *decoder) int(o object, key string) int {
	raw, ok := o[key]
	if !ok || isNull(raw) || d.err != nil {
		return 0
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		d.fail("field %q: %v", key, err)
	}
	return v
}

func (d *decoder) value(o object, key string) any {
	raw, ok := o[key]
	if !ok || isNull(raw) || d.err != nil {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		d.fail("field %q: %v", key, err)
	}
	return v
}

// ---------------------------------------------------------------------------
// Node fields
// ---------------------------------------------------------------------------

func (d *decoder) child(o object, key string) Node {
	raw, ok := o[key]
	if !ok {
		return nil
	}
	return d.node(raw)
}

func (d *decoder) expr(o object, key string) Expr {
	n := d.child(o, key)
	if n == nil {
		return nil
	}
	e, ok := n.(Expr)
	if !ok {
		d.fail("field %q: %s is not an expression", key, n.Type())
		return nil
	}
	return e
}

func (d *decoder) stmt(o object, key string) Stmt {
	n := d.child(o, key)
	if n == nil {
		return nil
	}
	s, ok := n.(Stmt)
	if !ok {
		d.fail("field %q: %s is not a statement", key, n.Type())
		return nil
	}
	return s
}

func (d *decoder) pattern(o object, key string) Pattern {
	n := d.child(o, key)
	if n == nil {
		return nil
	}
	p, ok := n.(Pattern)
	if !ok {
		d.fail("field %q: %s is not a pattern", key, n.Type())
		return nil
	}
	return p
}

func (d *decoder) ident(o object, key string) *Identifier {
	raw, ok := o[key]
	if !ok || isNull(raw) || d.err != nil {
		return nil
	}
	// Some parser fields carry a bare name instead of an Identifier node.
	if t := bytes.TrimSpace(raw); len(t) > 0 && t[0] == '"' {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			d.fail("field %q: %v", key, err)
			return nil
		}
		return &Identifier{Name: name}
	}
	n := d.node(raw)
	if n == nil {
		return nil
	}
	id, ok := n.(*Identifier)
	if !ok {
		d.fail("field %q: %s is not an Identifier", key, n.Type())
		return nil
	}
	return id
}

func (d *decoder) block(o object, key string) *BlockStatement {
	n := d.child(o, key)
	if n == nil {
		return nil
	}
	b, ok := n.(*BlockStatement)
	if !ok {
		d.fail("field %q: %s is not a BlockStatement", key, n.Type())
		return nil
	}
	return b
}

func (d *decoder) objjType(o object, key string) *ObjectiveJType {
	raw, ok := o[key]
	if !ok || isNull(raw) || d.err != nil {
		return nil
	}
	if t := bytes.TrimSpace(raw); len(t) > 0 && t[0] == '"' {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			d.fail("field %q: %v", key, err)
			return nil
		}
		return &ObjectiveJType{Name: name}
	}
	to := d.object(raw)
	if to == nil {
		return nil
	}
	return &ObjectiveJType{
		NodeBase:  d.base(to),
		Name:      d.str(to, "name"),
		Protocols: d.strings(to, "protocols"),
	}
}

func (d *decoder) list(o object, key string) []json.RawMessage {
	raw, ok := o[key]
	if !ok || isNull(raw) || d.err != nil {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		d.fail("field %q: %v", key, err)
		return nil
	}
	return items
}

func (d *decoder) strings(o object, key string) []string {
	raw, ok := o[key]
	if !ok || isNull(raw) || d.err != nil {
		return nil
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		d.fail("field %q: %v", key, err)
	}
	return items
}

func (d *decoder) nodes(o object, key string) []Node {
	var out []Node
	for _, raw := range d.list(o, key) {
		if n := d.node(raw); n != nil {
			out = append(out, n)
		}
	}
	return out
}

// exprs keeps null entries as nil so array holes survive.
func (d *decoder) exprs(o object, key string) []Expr {
	items := d.list(o, key)
	if items == nil {
		return nil
	}
	out := make([]Expr, 0, len(items))
	for _, raw := range items {
		n := d.node(raw)
		if n == nil {
			out = append(out, nil)
			continue
		}
		e, ok := n.(Expr)
		if !ok {
			d.fail("field %q: %s is not an expression", key, n.Type())
			return nil
		}
		out = append(out, e)
	}
	return out
}

func (d *decoder) stmts(o object, key string) []Stmt {
	var out []Stmt
	for _, raw := range d.list(o, key) {
		n := d.node(raw)
		if n == nil {
			continue
		}
		s, ok := n.(Stmt)
		if !ok {
			d.fail("field %q: %s is not a statement", key, n.Type())
			return nil
		}
		out = append(out, s)
	}
	return out
}

func (d *decoder) patterns(o object, key string) []Pattern {
	items := d.list(o, key)
	if items == nil {
		return nil
	}
	out := make([]Pattern, 0, len(items))
	for _, raw := range items {
		n := d.node(raw)
		if n == nil {
			out = append(out, nil)
			continue
		}
		p, ok := n.(Pattern)
		if !ok {
			d.fail("field %q: %s is not a pattern", key, n.Type())
			return nil
		}
		out = append(out, p)
	}
	return out
}

func (d *decoder) idents(o object, key string) []*Identifier {
	var out []*Identifier
	for _, raw := range d.list(o, key) {
		if isNull(raw) {
			out = append(out, nil)
			continue
		}
		wrapper := object{"v": raw}
		out = append(out, d.ident(wrapper, "v"))
	}
	return out
}

func (d *decoder) methods(o object, key string) []*MethodDeclarationStatement {
	var out []*MethodDeclarationStatement
	for _, raw := range d.list(o, key) {
		n := d.node(raw)
		if n == nil {
			continue
		}
		m, ok := n.(*MethodDeclarationStatement)
		if !ok {
			d.fail("field %q: %s is not a MethodDeclarationStatement", key, n.Type())
			return nil
		}
		out = append(out, m)
	}
	return out
}

func (d *decoder) function(o object) Function {
	f := Function{
		ID:        d.ident(o, "id"),
		Params:    d.patterns(o, "params"),
		Generator: d.boolean(o, "generator"),
		Async:     d.boolean(o, "async"),
	}
	body := d.child(o, "body")
	switch b := body.(type) {
	case nil:
	case *BlockStatement:
		f.Body = b
	case Expr:
		f.ExprBody = b
	default:
		d.fail("function body is %s", body.Type())
	}
	return f
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

func init() {
	constructors = map[string]constructor{
		"Program": func(d *decoder, o object, b NodeBase) Node {
			return &Program{NodeBase: b, Body: d.stmts(o, "body")}
		},
		"ExpressionStatement": func(d *decoder, o object, b NodeBase) Node {
			return &ExpressionStatement{NodeBase: b, Expression: d.expr(o, "expression"), Directive: d.str(o, "directive")}
		},
		"BlockStatement": func(d *decoder, o object, b NodeBase) Node {
			return &BlockStatement{NodeBase: b, Body: d.stmts(o, "body")}
		},
		"EmptyStatement": func(d *decoder, o object, b NodeBase) Node {
			return &EmptyStatement{NodeBase: b}
		},
		"DebuggerStatement": func(d *decoder, o object, b NodeBase) Node {
			return &DebuggerStatement{NodeBase: b}
		},
		"WithStatement": func(d *decoder, o object, b NodeBase) Node {
			return &WithStatement{NodeBase: b, Object: d.expr(o, "object"), Body: d.stmt(o, "body")}
		},
		"ReturnStatement": func(d *decoder, o object, b NodeBase) Node {
			return &ReturnStatement{NodeBase: b, Argument: d.expr(o, "argument")}
		},
		"LabeledStatement": func(d *decoder, o object, b NodeBase) Node {
			return &LabeledStatement{NodeBase: b, Label: d.ident(o, "label"), Body: d.stmt(o, "body")}
		},
		"BreakStatement": func(d *decoder, o object, b NodeBase) Node {
			return &BreakStatement{NodeBase: b, Label: d.ident(o, "label")}
		},
		"ContinueStatement": func(d *decoder, o object, b NodeBase) Node {
			return &ContinueStatement{NodeBase: b, Label: d.ident(o, "label")}
		},
		"IfStatement": func(d *decoder, o object, b NodeBase) Node {
			return &IfStatement{NodeBase: b, Test: d.expr(o, "test"), Consequent: d.stmt(o, "consequent"), Alternate: d.stmt(o, "alternate")}
		},
		"SwitchStatement": func(d *decoder, o object, b NodeBase) Node {
			s := &SwitchStatement{NodeBase: b, Discriminant: d.expr(o, "discriminant")}
			for _, n := range d.nodes(o, "cases") {
				sc, ok := n.(*SwitchCase)
				if !ok {
					d.fail("switch case is %s", n.Type())
					break
				}
				s.Cases = append(s.Cases, sc)
			}
			return s
		},
		"SwitchCase": func(d *decoder, o object, b NodeBase) Node {
			return &SwitchCase{NodeBase: b, Test: d.expr(o, "test"), Consequent: d.stmts(o, "consequent")}
		},
		"ThrowStatement": func(d *decoder, o object, b NodeBase) Node {
			return &ThrowStatement{NodeBase: b, Argument: d.expr(o, "argument")}
		},
		"TryStatement": func(d *decoder, o object, b NodeBase) Node {
			t := &TryStatement{NodeBase: b, Block: d.block(o, "block"), Finalizer: d.block(o, "finalizer")}
			if n := d.child(o, "handler"); n != nil {
				h, ok := n.(*CatchClause)
				if !ok {
					d.fail("try handler is %s", n.Type())
				}
				t.Handler = h
			}
			return t
		},
		"CatchClause": func(d *decoder, o object, b NodeBase) Node {
			return &CatchClause{NodeBase: b, Param: d.pattern(o, "param"), Body: d.block(o, "body")}
		},
		"WhileStatement": func(d *decoder, o object, b NodeBase) Node {
			return &WhileStatement{NodeBase: b, Test: d.expr(o, "test"), Body: d.stmt(o, "body")}
		},
		"DoWhileStatement": func(d *decoder, o object, b NodeBase) Node {
			return &DoWhileStatement{NodeBase: b, Body: d.stmt(o, "body"), Test: d.expr(o, "test")}
		},
		"ForStatement": func(d *decoder, o object, b NodeBase) Node {
			return &ForStatement{NodeBase: b, Init: d.child(o, "init"), Test: d.expr(o, "test"), Update: d.expr(o, "update"), Body: d.stmt(o, "body")}
		},
		"ForInStatement": func(d *decoder, o object, b NodeBase) Node {
			return &ForInStatement{NodeBase: b, Left: d.child(o, "left"), Right: d.expr(o, "right"), Body: d.stmt(o, "body")}
		},
		"ForOfStatement": func(d *decoder, o object, b NodeBase) Node {
			return &ForOfStatement{NodeBase: b, Left: d.child(o, "left"), Right: d.expr(o, "right"), Body: d.stmt(o, "body"), Await: d.boolean(o, "await")}
		},
		"FunctionDeclaration": func(d *decoder, o object, b NodeBase) Node {
			return &FunctionDeclaration{NodeBase: b, Function: d.function(o)}
		},
		"VariableDeclaration": func(d *decoder, o object, b NodeBase) Node {
			v := &VariableDeclaration{NodeBase: b, Kind: d.str(o, "kind")}
			for _, n := range d.nodes(o, "declarations") {
				decl, ok := n.(*VariableDeclarator)
				if !ok {
					d.fail("declaration is %s", n.Type())
					break
				}
				v.Declarations = append(v.Declarations, decl)
			}
			if v.Kind == "" {
				v.Kind = "var"
			}
			return v
		},
		"VariableDeclarator": func(d *decoder, o object, b NodeBase) Node {
			return &VariableDeclarator{NodeBase: b, ID: d.pattern(o, "id"), Init: d.expr(o, "init")}
		},
		"Identifier": func(d *decoder, o object, b NodeBase) Node {
			return &Identifier{NodeBase: b, Name: d.str(o, "name")}
		},
		"Literal": func(d *decoder, o object, b NodeBase) Node {
			l := &Literal{NodeBase: b, Raw: d.str(o, "raw")}
			if ro := d.object(o["regex"]); ro != nil {
				l.Regex = &RegExp{Pattern: d.str(ro, "pattern"), Flags: d.str(ro, "flags")}
				return l
			}
			l.Value = d.value(o, "value")
			return l
		},
		"ThisExpression": func(d *decoder, o object, b NodeBase) Node {
			return &ThisExpression{NodeBase: b}
		},
		"ArrayExpression": func(d *decoder, o object, b NodeBase) Node {
			return &ArrayExpression{NodeBase: b, Elements: d.exprs(o, "elements")}
		},
		"ObjectExpression": func(d *decoder, o object, b NodeBase) Node {
			return &ObjectExpression{NodeBase: b, Properties: d.nodes(o, "properties")}
		},
		"Property": func(d *decoder, o object, b NodeBase) Node {
			p := &Property{
				NodeBase:  b,
				Key:       d.expr(o, "key"),
				Value:     d.child(o, "value"),
				Kind:      d.str(o, "kind"),
				Computed:  d.boolean(o, "computed"),
				Method:    d.boolean(o, "method"),
				Shorthand: d.boolean(o, "shorthand"),
			}
			if p.Kind == "" {
				p.Kind = "init"
			}
			return p
		},
		"FunctionExpression": func(d *decoder, o object, b NodeBase) Node {
			return &FunctionExpression{NodeBase: b, Function: d.function(o)}
		},
		"ArrowFunctionExpression": func(d *decoder, o object, b NodeBase) Node {
			return &ArrowFunctionExpression{NodeBase: b, Function: d.function(o)}
		},
		"UnaryExpression": func(d *decoder, o object, b NodeBase) Node {
			return &UnaryExpression{NodeBase: b, Operator: d.str(o, "operator"), Prefix: true, Argument: d.expr(o, "argument")}
		},
		"UpdateExpression": func(d *decoder, o object, b NodeBase) Node {
			return &UpdateExpression{NodeBase: b, Operator: d.str(o, "operator"), Prefix: d.boolean(o, "prefix"), Argument: d.expr(o, "argument")}
		},
		"BinaryExpression": func(d *decoder, o object, b NodeBase) Node {
			return &BinaryExpression{NodeBase: b, Operator: d.str(o, "operator"), Left: d.expr(o, "left"), Right: d.expr(o, "right")}
		},
		"LogicalExpression": func(d *decoder, o object, b NodeBase) Node {
			return &LogicalExpression{NodeBase: b, Operator: d.str(o, "operator"), Left: d.expr(o, "left"), Right: d.expr(o, "right")}
		},
		"AssignmentExpression": func(d *decoder, o object, b NodeBase) Node {
			return &AssignmentExpression{NodeBase: b, Operator: d.str(o, "operator"), Left: d.pattern(o, "left"), Right: d.expr(o, "right")}
		},
		"ConditionalExpression": func(d *decoder, o object, b NodeBase) Node {
			return &ConditionalExpression{NodeBase: b, Test: d.expr(o, "test"), Consequent: d.expr(o, "consequent"), Alternate: d.expr(o, "alternate")}
		},
		"CallExpression": func(d *decoder, o object, b NodeBase) Node {
			return &CallExpression{NodeBase: b, Callee: d.expr(o, "callee"), Arguments: d.exprs(o, "arguments"), Optional: d.boolean(o, "optional")}
		},
		"NewExpression": func(d *decoder, o object, b NodeBase) Node {
			return &NewExpression{NodeBase: b, Callee: d.expr(o, "callee"), Arguments: d.exprs(o, "arguments")}
		},
		"MemberExpression": func(d *decoder, o object, b NodeBase) Node {
			return &MemberExpression{NodeBase: b, Object: d.expr(o, "object"), Property: d.expr(o, "property"), Computed: d.boolean(o, "computed"), Optional: d.boolean(o, "optional")}
		},
		"SequenceExpression": func(d *decoder, o object, b NodeBase) Node {
			return &SequenceExpression{NodeBase: b, Expressions: d.exprs(o, "expressions")}
		},
		"SpreadElement": func(d *decoder, o object, b NodeBase) Node {
			return &SpreadElement{NodeBase: b, Argument: d.expr(o, "argument")}
		},
		"TemplateLiteral": func(d *decoder, o object, b NodeBase) Node {
			t := &TemplateLiteral{NodeBase: b, Expressions: d.exprs(o, "expressions")}
			for _, n := range d.nodes(o, "quasis") {
				q, ok := n.(*TemplateElement)
				if !ok {
					d.fail("template quasi is %s", n.Type())
					break
				}
				t.Quasis = append(t.Quasis, q)
			}
			return t
		},
		"TemplateElement": func(d *decoder, o object, b NodeBase) Node {
			t := &TemplateElement{NodeBase: b, Tail: d.boolean(o, "tail")}
			if vo := d.object(o["value"]); vo != nil {
				t.Raw = d.str(vo, "raw")
				t.Cooked = d.str(vo, "cooked")
			}
			return t
		},
		"TaggedTemplateExpression": func(d *decoder, o object, b NodeBase) Node {
			t := &TaggedTemplateExpression{NodeBase: b, Tag: d.expr(o, "tag")}
			if n := d.child(o, "quasi"); n != nil {
				q, ok := n.(*TemplateLiteral)
				if !ok {
					d.fail("tagged template quasi is %s", n.Type())
				}
				t.Quasi = q
			}
			return t
		},
		"ChainExpression": func(d *decoder, o object, b NodeBase) Node {
			return &ChainExpression{NodeBase: b, Expression: d.expr(o, "expression")}
		},
		"AwaitExpression": func(d *decoder, o object, b NodeBase) Node {
			return &AwaitExpression{NodeBase: b, Argument: d.expr(o, "argument")}
		},
		"YieldExpression": func(d *decoder, o object, b NodeBase) Node {
			return &YieldExpression{NodeBase: b, Argument: d.expr(o, "argument"), Delegate: d.boolean(o, "delegate")}
		},
		"ArrayPattern": func(d *decoder, o object, b NodeBase) Node {
			return &ArrayPattern{NodeBase: b, Elements: d.patterns(o, "elements")}
		},
		"ObjectPattern": func(d *decoder, o object, b NodeBase) Node {
			return &ObjectPattern{NodeBase: b, Properties: d.nodes(o, "properties")}
		},
		"RestElement": func(d *decoder, o object, b NodeBase) Node {
			return &RestElement{NodeBase: b, Argument: d.pattern(o, "argument")}
		},
		"AssignmentPattern": func(d *decoder, o object, b NodeBase) Node {
			return &AssignmentPattern{NodeBase: b, Left: d.pattern(o, "left"), Right: d.expr(o, "right")}
		},

		// Objective-J
		"ImportStatement": func(d *decoder, o object, b NodeBase) Node {
			imp := &ImportStatement{NodeBase: b, IsLocal: d.boolean(o, "localfilepath")}
			// "filename" is either a string or a Literal-like {"value": ...}.
			if raw, ok := o["filename"]; ok {
				if t := bytes.TrimSpace(raw); len(t) > 0 && t[0] == '{' {
					imp.Filename = d.str(d.object(raw), "value")
				} else {
					imp.Filename = d.str(o, "filename")
				}
			}
			return imp
		},
		"ClassStatement": func(d *decoder, o object, b NodeBase) Node {
			return &ClassStatement{NodeBase: b, ID: d.ident(o, "id")}
		},
		"GlobalStatement": func(d *decoder, o object, b NodeBase) Node {
			return &GlobalStatement{NodeBase: b, ID: d.ident(o, "id")}
		},
		"TypeDefStatement": func(d *decoder, o object, b NodeBase) Node {
			id := d.ident(o, "typedefname")
			if id == nil {
				id = d.ident(o, "id")
			}
			return &TypeDefStatement{NodeBase: b, ID: id}
		},
		"ClassDeclarationStatement": func(d *decoder, o object, b NodeBase) Node {
			c := &ClassDeclarationStatement{
				NodeBase:       b,
				ClassName:      d.ident(o, "classname"),
				SuperclassName: d.ident(o, "superclassname"),
				CategoryName:   d.ident(o, "categoryname"),
				Protocols:      d.idents(o, "protocols"),
				Body:           d.stmts(o, "body"),
			}
			for _, n := range d.nodes(o, "ivardeclarations") {
				iv, ok := n.(*IvarDeclaration)
				if !ok {
					d.fail("ivar declaration is %s", n.Type())
					break
				}
				c.Ivars = append(c.Ivars, iv)
			}
			if c.ClassName == nil {
				d.fail("class declaration at offset %d has no classname", b.Loc.Start.Offset)
			}
			return c
		},
		"IvarDeclaration": func(d *decoder, o object, b NodeBase) Node {
			iv := &IvarDeclaration{
				NodeBase: b,
				IvarType: d.objjType(o, "ivartype"),
				ID:       d.ident(o, "id"),
				Outlet:   d.boolean(o, "outlet"),
			}
			if ao := d.object(o["accessors"]); ao != nil {
				iv.Accessors = &Accessors{
					Property: d.ident(ao, "property"),
					Getter:   d.ident(ao, "getter"),
					Setter:   d.ident(ao, "setter"),
					Readonly: d.boolean(ao, "readonly"),
					Copy:     d.boolean(ao, "copy"),
				}
			}
			return iv
		},
		"MethodDeclarationStatement": func(d *decoder, o object, b NodeBase) Node {
			m := &MethodDeclarationStatement{
				NodeBase:   b,
				MethodType: d.str(o, "methodtype"),
				ReturnType: d.objjType(o, "returntype"),
				Action:     d.boolean(o, "action"),
				Selectors:  d.idents(o, "selectors"),
				Variadic:   d.boolean(o, "parameters"),
				Body:       d.block(o, "body"),
			}
			for _, raw := range d.list(o, "arguments") {
				ao := d.object(raw)
				if ao == nil {
					continue
				}
				arg := &MethodArgument{NodeBase: d.base(ao), ArgType: d.objjType(ao, "argtype"), ID: d.ident(ao, "identifier")}
				if arg.ID == nil {
					arg.ID = d.ident(ao, "id")
				}
				m.Arguments = append(m.Arguments, arg)
			}
			if m.MethodType == "" {
				m.MethodType = "-"
			}
			return m
		},
		"ProtocolDeclarationStatement": func(d *decoder, o object, b NodeBase) Node {
			return &ProtocolDeclarationStatement{
				NodeBase:  b,
				ID:        d.ident(o, "id"),
				Protocols: d.idents(o, "protocols"),
				Required:  d.methods(o, "required"),
				Optional:  d.methods(o, "optional"),
			}
		},
		"MessageSendExpression": func(d *decoder, o object, b NodeBase) Node {
			return &MessageSendExpression{
				NodeBase:    b,
				Object:      d.expr(o, "object"),
				SuperObject: d.boolean(o, "superObject"),
				Selectors:   d.idents(o, "selectors"),
				Arguments:   d.exprs(o, "arguments"),
				Parameters:  d.exprs(o, "parameters"),
			}
		},
		"SelectorLiteralExpression": func(d *decoder, o object, b NodeBase) Node {
			return &SelectorLiteralExpression{NodeBase: b, Selector: d.str(o, "selector")}
		},
		"ProtocolLiteralExpression": func(d *decoder, o object, b NodeBase) Node {
			return &ProtocolLiteralExpression{NodeBase: b, ID: d.ident(o, "id")}
		},
		"Reference": func(d *decoder, o object, b NodeBase) Node {
			return &Reference{NodeBase: b, Element: d.ident(o, "element")}
		},
		"Dereference": func(d *decoder, o object, b NodeBase) Node {
			return &Dereference{NodeBase: b, Expr: d.expr(o, "expr")}
		},
		"ArrayLiteral": func(d *decoder, o object, b NodeBase) Node {
			return &ArrayLiteral{NodeBase: b, Elements: d.exprs(o, "elements")}
		},
		"DictionaryLiteral": func(d *decoder, o object, b NodeBase) Node {
			dl := &DictionaryLiteral{NodeBase: b, Keys: d.exprs(o, "keys"), Values: d.exprs(o, "values")}
			if len(dl.Keys) != len(dl.Values) {
				d.fail("dictionary literal at offset %d has %d keys and %d values", b.Loc.Start.Offset, len(dl.Keys), len(dl.Values))
			}
			return dl
		},
	}
}

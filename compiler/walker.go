package compiler

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/objjc/ast"
	"github.com/chazu/objjc/compiler/diag"
	"github.com/chazu/objjc/compiler/format"
	"github.com/chazu/objjc/compiler/output"
)

// ---------------------------------------------------------------------------
// Walker: one generator per compilation
// ---------------------------------------------------------------------------

// Effective format types that do not correspond to an AST node type.
const (
	typeFunctionBody = "FunctionBody"
	typeMethodBody   = "MethodBody"
)

type generator struct {
	opts  *Options
	table *format.Table
	reg   *Registry
	diags *diag.Engine
	buf   output.Buffer
	scope *Scope
	log   commonlog.Logger
}

// walk generates n. typ overrides the node's format type when non-empty.
func (g *generator) walk(n ast.Node, typ string) {
	if n == nil {
		return
	}
	if typ == "" {
		typ = n.Type()
	}
	g.scope.pushNode(n, typ)
	defer g.scope.popNode()

	g.format(typ, "before")
	if g.copyThrough(n) {
		g.format(typ, "after")
		return
	}
	g.dispatch(n, typ)
	g.format(typ, "after")
}

func (g *generator) dispatch(n ast.Node, typ string) {
	switch n := n.(type) {
	case *ast.Program:
		g.fatal(diag.KindSyntax, n, "nested program node")

	// statements
	case *ast.ExpressionStatement:
		g.expressionStatement(n)
	case *ast.BlockStatement:
		g.block(n, typ)
	case *ast.EmptyStatement:
		g.emit(";")
	case *ast.DebuggerStatement:
		g.warn(diag.KindDebugger, n, "debugger statement")
		g.emitAt("debugger", n)
		g.emit(";")
	case *ast.WithStatement:
		g.withStatement(n)
	case *ast.ReturnStatement:
		g.returnStatement(n)
	case *ast.LabeledStatement:
		g.labeledStatement(n)
	case *ast.BreakStatement:
		g.jump("break", n.Label, n)
	case *ast.ContinueStatement:
		g.jump("continue", n.Label, n)
	case *ast.IfStatement:
		g.ifStatement(n)
	case *ast.SwitchStatement:
		g.switchStatement(n)
	case *ast.SwitchCase:
		g.switchCase(n)
	case *ast.ThrowStatement:
		g.throwStatement(n)
	case *ast.TryStatement:
		g.tryStatement(n)
	case *ast.CatchClause:
		g.catchClause(n)
	case *ast.WhileStatement:
		g.whileStatement(n)
	case *ast.DoWhileStatement:
		g.doWhileStatement(n)
	case *ast.ForStatement:
		g.forStatement(n)
	case *ast.ForInStatement:
		g.forInOf("in", false, n.Left, n.Right, n.Body, n)
	case *ast.ForOfStatement:
		g.forInOf("of", n.Await, n.Left, n.Right, n.Body, n)
	case *ast.FunctionDeclaration:
		g.functionDeclaration(n)
	case *ast.VariableDeclaration:
		g.variableDeclaration(n)
	case *ast.VariableDeclarator:
		g.variableDeclarator(n)

	// expressions
	case *ast.Identifier:
		g.identifier(n)
	case *ast.Literal:
		g.literal(n)
	case *ast.ThisExpression:
		g.emitAt("this", n)
	case *ast.ArrayExpression:
		g.arrayExpression(n)
	case *ast.ObjectExpression:
		g.objectExpression(n)
	case *ast.Property:
		g.property(n)
	case *ast.FunctionExpression:
		g.functionExpression(n)
	case *ast.ArrowFunctionExpression:
		g.arrowFunction(n)
	case *ast.UnaryExpression:
		g.unaryExpression(n)
	case *ast.UpdateExpression:
		g.updateExpression(n)
	case *ast.BinaryExpression:
		g.binaryExpression(n, n.Operator, n.Left, n.Right)
	case *ast.LogicalExpression:
		g.binaryExpression(n, n.Operator, n.Left, n.Right)
	case *ast.AssignmentExpression:
		g.assignmentExpression(n)
	case *ast.ConditionalExpression:
		g.conditionalExpression(n)
	case *ast.CallExpression:
		g.callExpression(n)
	case *ast.NewExpression:
		g.newExpression(n)
	case *ast.MemberExpression:
		g.memberExpression(n)
	case *ast.SequenceExpression:
		g.sequenceExpression(n)
	case *ast.SpreadElement:
		g.emit("...")
		g.operand(n, n.Argument, precAssign)
	case *ast.TemplateLiteral:
		g.templateLiteral(n)
	case *ast.TemplateElement:
		g.emitAt(n.Raw, n)
	case *ast.TaggedTemplateExpression:
		g.operand(n, n.Tag, precCall)
		g.walk(n.Quasi, "")
	case *ast.ChainExpression:
		g.walk(n.Expression, "")
	case *ast.AwaitExpression:
		g.emitAt("await ", n)
		g.operand(n, n.Argument, precUnary)
	case *ast.YieldExpression:
		g.yieldExpression(n)

	// patterns
	case *ast.ArrayPattern:
		g.arrayPattern(n)
	case *ast.ObjectPattern:
		g.objectPattern(n)
	case *ast.RestElement:
		g.emit("...")
		g.walk(n.Argument, "")
	case *ast.AssignmentPattern:
		g.walk(n.Left, "")
		g.emit(" = ")
		g.operand(n, n.Right, precAssign)

	// Objective-J
	case *ast.ImportStatement:
		g.importStatement(n)
	case *ast.ClassStatement:
		g.classStatement(n)
	case *ast.GlobalStatement:
		g.globalStatement(n)
	case *ast.TypeDefStatement:
		g.typeDefStatement(n)
	case *ast.ClassDeclarationStatement:
		g.classDeclaration(n)
	case *ast.MethodDeclarationStatement:
		g.fatal(diag.KindSyntax, n, "method declaration outside of a class or protocol")
	case *ast.ProtocolDeclarationStatement:
		g.protocolDeclaration(n)
	case *ast.MessageSendExpression:
		g.messageSend(n)
	case *ast.SelectorLiteralExpression:
		g.emitAt("sel_getUid(", n)
		g.emit(jsQuote(n.Selector))
		g.emit(")")
	case *ast.ProtocolLiteralExpression:
		g.protocolLiteral(n)
	case *ast.Reference:
		g.reference(n)
	case *ast.Dereference:
		g.dereference(n)
	case *ast.ArrayLiteral:
		g.arrayLiteral(n)
	case *ast.DictionaryLiteral:
		g.dictionaryLiteral(n)

	default:
		g.fatal(diag.KindSyntax, n, fmt.Sprintf("cannot generate %s", n.Type()))
	}
}

// program generates the root node and runs the checks deferred until the
// whole unit has been seen.
func (g *generator) program(p *ast.Program) {
	g.scope.pushNode(p, p.Type())
	g.hoist(p.Body)
	for _, s := range p.Body {
		g.walk(s, "")
	}
	g.declareReceiverTemps()
	g.scope.popNode()
	g.scope.runDeferred()
}

// copyThrough copies a statement's original text when source preservation
// is on and the statement needs no translation.
func (g *generator) copyThrough(n ast.Node) bool {
	if !g.opts.PreserveSource || g.opts.Source == "" {
		return false
	}
	if _, ok := n.(ast.Stmt); !ok {
		return false
	}
	if g.scope.CurrentMethodType() != "" || g.scope.CurrentClass() != nil {
		return false
	}
	span := n.Span()
	if span.End.Offset <= span.Start.Offset || span.End.Offset > len(g.opts.Source) {
		return false
	}
	if ast.ContainsObjJ(n) || containsDebugger(n) {
		return false
	}
	g.declareCopied(n)
	g.emitAt(g.opts.Source[span.Start.Offset:span.End.Offset], n)
	return true
}

// containsDebugger reports whether a debugger statement, which must be
// warned about, appears at or below n.
func containsDebugger(n ast.Node) bool {
	found := false
	ast.Inspect(n, func(n ast.Node) bool {
		if _, ok := n.(*ast.DebuggerStatement); ok {
			found = true
		}
		return !found
	})
	return found
}

// declareCopied binds the names a copied statement declares at its own
// level so later generated code resolves them.
func (g *generator) declareCopied(n ast.Node) {
	switch n := n.(type) {
	case *ast.VariableDeclaration:
		for _, d := range n.Declarations {
			g.declarePattern(d.ID, kindForDeclaration(n.Kind), false)
		}
	case *ast.FunctionDeclaration:
		if n.ID != nil {
			g.scope.Declare(n.ID.Name, &Binding{Kind: BindFunction, Node: n})
		}
	}
}

// ---------------------------------------------------------------------------
// Emission helpers
// ---------------------------------------------------------------------------

// into runs fn with output going to a child buffer, which it returns.
func (g *generator) into(fn func()) output.Buffer {
	parent, child := g.buf, g.buf.Child()
	g.buf = child
	defer func() { g.buf = parent }()
	fn()
	return child
}

func (g *generator) emit(text string) { g.buf.Append(text, nil) }

func (g *generator) emitAt(text string, n ast.Node) { g.buf.Append(text, n) }

// format emits the rule text for key on a node of type typ.
func (g *generator) format(typ, key string) {
	if text := g.table.Value(g.scope, typ, key); text != "" {
		g.buf.AppendFormatted(text)
	}
}

// formatFor emits the rule text for key resolved against neighbor.
func (g *generator) formatFor(typ, key, neighbor string) {
	if text := g.table.ValueFor(typ, key, neighbor); text != "" {
		g.buf.AppendFormatted(text)
	}
}

// separator emits the between-items text of a list: "," plus the
// afterComma rule.
func (g *generator) separator(typ string) {
	g.emit(",")
	g.format(typ, "afterComma")
}

// newline ends a generated line inside a construct of type typ.
func (g *generator) newline(typ string) {
	g.format(typ, "afterLine")
}

// ---------------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------------

func (g *generator) report(sev diag.Severity, kind string, n ast.Node, msg string, notes ...diag.Related) {
	var span ast.Span
	if n != nil {
		span = n.Span()
	}
	if err := g.diags.Report(sev, kind, span, msg, notes...); err != nil {
		if errors.Is(err, diag.ErrTooManyErrors) {
			g.fatal(diag.KindLimit, n, fmt.Sprintf("too many errors (limit %d)", g.opts.MaxErrors))
		}
	}
}

func (g *generator) warn(kind string, n ast.Node, format string, args ...any) {
	g.report(diag.Warning, kind, n, fmt.Sprintf(format, args...))
}

func (g *generator) error(kind string, n ast.Node, format string, args ...any) {
	g.report(diag.Error, kind, n, fmt.Sprintf(format, args...))
}

// fatal records an error and abandons the compilation.
func (g *generator) fatal(kind string, n ast.Node, msg string, notes ...diag.Related) {
	var span ast.Span
	if n != nil {
		span = n.Span()
	}
	d := &diag.Diagnostic{Severity: diag.Error, Kind: kind, Message: msg, File: g.opts.File, Span: span, Notes: notes}
	// The engine may already be over its limit; the diagnostic is recorded
	// either way.
	_ = g.diags.Report(diag.Error, kind, span, msg, notes...)
	panic(&fatalError{d: d})
}

// noteAt builds a related note pointing at a previous definition.
func (g *generator) noteAt(msg, file string, span ast.Span) diag.Related {
	if file == "" {
		file = g.opts.File
	}
	return diag.Related{Message: msg, File: file, Span: span}
}
